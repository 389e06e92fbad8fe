package sanitize

import "strings"

const (
	pathTokenPrefix = "/redacted/path/"
	urlTokenPrefix  = "redacted://url/"

	tokenDigestLen = 10
)

// urlSchemePrefixes are the markers that make a value eligible for URL
// pseudonymization. Anything else handed to TokenizeURL passes through
// unchanged (fail-open), which is a correctness risk: a URL-bearing key
// whose value deviates from these shapes silently skips
// pseudonymization. Pass-throughs are counted so runs can surface it.
var urlSchemePrefixes = []string{"https://", "http://", "git@"}

// Pseudonymizer assigns stable opaque tokens to path and URL values.
// Within one run the same original always yields the same token. Maps
// grow monotonically and are never persisted; this is the only mutable
// state in the engine, and it assumes exactly one writer.
type Pseudonymizer struct {
	paths map[string]string
	urls  map[string]string

	// assigned tokens per category, for in-run collision detection
	pathTokens map[string]struct{}
	urlTokens  map[string]struct{}

	urlPassthrough int
}

// NewPseudonymizer returns an empty pseudonymizer.
func NewPseudonymizer() *Pseudonymizer {
	return &Pseudonymizer{
		paths:      make(map[string]string),
		urls:       make(map[string]string),
		pathTokens: make(map[string]struct{}),
		urlTokens:  make(map[string]struct{}),
	}
}

// TokenizePath returns the stable token for a path value.
func (p *Pseudonymizer) TokenizePath(original string) string {
	if token, ok := p.paths[original]; ok {
		return token
	}
	token := p.assign(original, pathTokenPrefix, p.pathTokens)
	p.paths[original] = token
	return token
}

// TokenizeURL returns the stable token for a URL-shaped value. Values
// without a recognized scheme marker are returned unchanged.
func (p *Pseudonymizer) TokenizeURL(original string) string {
	if !URLShaped(original) {
		p.urlPassthrough++
		return original
	}
	if token, ok := p.urls[original]; ok {
		return token
	}
	token := p.assign(original, urlTokenPrefix, p.urlTokens)
	p.urls[original] = token
	return token
}

// URLPassthroughs reports how many values reached TokenizeURL without
// a recognized scheme marker and were passed through verbatim.
func (p *Pseudonymizer) URLPassthroughs() int {
	return p.urlPassthrough
}

// assign derives a token from a truncated digest, extending the digest
// when a distinct original already holds the truncated form.
func (p *Pseudonymizer) assign(original, prefix string, taken map[string]struct{}) string {
	token := prefix + Digest(original, tokenDigestLen)
	for n := tokenDigestLen + 1; n <= sha256HexLen; n++ {
		if _, clash := taken[token]; !clash {
			break
		}
		token = prefix + Digest(original, n)
	}
	taken[token] = struct{}{}
	return token
}

const sha256HexLen = 64

// URLShaped reports whether a value carries one of the recognized URL
// scheme markers.
func URLShaped(value string) bool {
	for _, prefix := range urlSchemePrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

// Package sanitize is the sanitization engine for line-delimited JSON
// event logs: a per-field classification policy deciding whether each
// string leaf is preserved, pseudonymized or redacted, plus the
// stable-hash token mapping that keeps repeated values on the same
// token within a run.
//
// The engine is deterministic: given identical input and a fresh
// Sanitizer, output is byte-for-byte identical across runs. It assumes
// a single writer; callers wanting concurrency construct one Sanitizer
// per worker instead of sharing one.
package sanitize

import (
	"fmt"

	"fixture-scrub/pkg/jsonval"
)

// Report summarizes what one engine has done so far. Gauges for the
// surrounding glue; the engine itself never branches on these.
type Report struct {
	Preserved      int `json:"preserved"`
	PathTokens     int `json:"path_tokens"`
	URLTokens      int `json:"url_tokens"`
	TextRedactions int `json:"text_redactions"`
	URLPassthrough int `json:"url_passthrough"`
}

// Sanitizer applies the field classifier to every string leaf of a
// JSON-shaped value, preserving container shape, key order and
// sequence order exactly.
type Sanitizer struct {
	pseudo     *Pseudonymizer
	classifier *Classifier
}

// New builds a fresh engine over the given key sets. Token maps start
// empty and live until the Sanitizer is dropped.
func New(keys KeySets) *Sanitizer {
	pseudo := NewPseudonymizer()
	return &Sanitizer{
		pseudo:     pseudo,
		classifier: NewClassifier(keys, pseudo),
	}
}

// NewFromConfig builds an engine with the default key sets extended by
// the config's extra key mappings.
func NewFromConfig(cfg *Config) (*Sanitizer, error) {
	keys := DefaultKeySets()
	if cfg != nil && len(cfg.ExtraKeys) > 0 {
		var err error
		keys, err = keys.Extend(cfg.ExtraKeys)
		if err != nil {
			return nil, fmt.Errorf("invalid key set extension: %w", err)
		}
	}
	return New(keys), nil
}

// Sanitize recursively transforms a JSON-shaped value. Mappings keep
// their key set and order; sequences keep length and order, with each
// element classified under the parent's key (classification context
// does not change across array boundaries); non-string scalars pass
// through untouched. The root carries an empty key context.
func (s *Sanitizer) Sanitize(v jsonval.Value) jsonval.Value {
	return s.sanitizeValue(v, "")
}

func (s *Sanitizer) sanitizeValue(v jsonval.Value, parentKey string) jsonval.Value {
	switch t := v.(type) {
	case jsonval.Object:
		out := make(jsonval.Object, 0, len(t))
		for _, m := range t {
			out = append(out, jsonval.Member{
				Key:   m.Key,
				Value: s.sanitizeValue(m.Value, m.Key),
			})
		}
		return out

	case jsonval.Array:
		out := make(jsonval.Array, 0, len(t))
		for _, elem := range t {
			out = append(out, s.sanitizeValue(elem, parentKey))
		}
		return out

	case string:
		return s.classifier.Classify(parentKey, t)

	default:
		// numbers, booleans, null are never classified
		return v
	}
}

// RedactRaw wraps an unparsable line's text in the text-redaction
// placeholder under the raw key, for the malformed-line fallback.
func (s *Sanitizer) RedactRaw(raw string) string {
	s.classifier.textRedactions++
	return redactText("raw", raw)
}

// TokenizePath exposes stable path tokens for values the glue layer
// must hide outside record sanitization (e.g. the manifest's source
// directory). Shares the run's path token map.
func (s *Sanitizer) TokenizePath(value string) string {
	return s.pseudo.TokenizePath(value)
}

// Report returns the engine's running counters.
func (s *Sanitizer) Report() Report {
	return Report{
		Preserved:      s.classifier.preserved,
		PathTokens:     s.classifier.pathTokens,
		URLTokens:      s.classifier.urlTokens,
		TextRedactions: s.classifier.textRedactions,
		URLPassthrough: s.pseudo.URLPassthroughs(),
	}
}

package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Category is the classification outcome for one (key, value) pair.
type Category string

const (
	PreserveVerbatim Category = "preserve-verbatim"
	PseudonymizePath Category = "pseudonymize-path"
	PseudonymizeURL  Category = "pseudonymize-url"
	RedactText       Category = "redact-text"
)

// Config carries the classifier knobs an integrator may extend without
// touching engine logic. ExtraKeys maps additional key names onto a
// category, merged over the built-in key sets.
type Config struct {
	ExtraKeys map[string]Category `json:"extra_keys,omitempty" yaml:"extra_keys,omitempty"`
}

// KeySets holds the key-name membership sets the classifier consults.
type KeySets struct {
	Path     map[string]struct{}
	URL      map[string]struct{}
	SafeEnum map[string]struct{}
	ID       map[string]struct{}
	Text     map[string]struct{}
}

// DefaultKeySets returns the built-in classification key sets.
func DefaultKeySets() KeySets {
	return KeySets{
		Path: keySet(
			"cwd", "workdir", "path", "file", "filePath", "entrypoint_path",
		),
		URL: keySet(
			"repository_url", "url", "href", "webhookPath",
		),
		SafeEnum: keySet(
			"model", "model_provider", "cli_version", "type", "role", "source", "originator",
		),
		ID: keySet(
			"id", "session_id", "sessionId",
		),
		Text: keySet(
			"message", "text", "content", "prompt", "justification",
			"description", "body", "summary", "question", "cmd",
			"instruction", "developer_instructions", "user_instructions",
			"base_instructions", "input", "arguments", "output",
			"last_agent_message", "new_str", "selection_with_ellipsis",
		),
	}
}

// Extend merges extra {key: category} entries over the built-in sets.
func (k KeySets) Extend(extra map[string]Category) (KeySets, error) {
	for key, category := range extra {
		switch category {
		case PseudonymizePath:
			k.Path[key] = struct{}{}
		case PseudonymizeURL:
			k.URL[key] = struct{}{}
		case PreserveVerbatim:
			k.SafeEnum[key] = struct{}{}
		case RedactText:
			k.Text[key] = struct{}{}
		default:
			return k, fmt.Errorf("unknown category %q for key %q", category, key)
		}
	}
	return k, nil
}

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Value-shape patterns, compiled once.
var (
	isoTimestampRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z$`)
	plainDateRE    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	uuidishRE      = regexp.MustCompile(`(?i)^[0-9a-f]{8,}-[0-9a-f-]{8,}$`)
	identSafeRE    = regexp.MustCompile(`^[A-Za-z0-9._:/-]+$`)
)

const maxEnumLikeLen = 40

// rule is one predicate/action pair of the classification order. The
// slice order encodes precedence; later rules act as fallback for keys
// the earlier ones do not know.
type rule struct {
	name  string
	match func(key, value string) bool
	apply func(key, value string) string
}

// Classifier decides, per string leaf, whether to preserve,
// pseudonymize or redact. It is stateless apart from the pseudonymizer
// it delegates token assignment to.
type Classifier struct {
	keys   KeySets
	pseudo *Pseudonymizer
	rules  []rule

	preserved      int
	pathTokens     int
	urlTokens      int
	textRedactions int
}

// NewClassifier builds the ordered rule list over the given key sets.
func NewClassifier(keys KeySets, pseudo *Pseudonymizer) *Classifier {
	c := &Classifier{keys: keys, pseudo: pseudo}
	c.rules = []rule{
		{
			name:  "path-key",
			match: func(key, _ string) bool { return member(c.keys.Path, key) },
			apply: c.applyPath,
		},
		{
			name:  "url-key",
			match: func(key, _ string) bool { return member(c.keys.URL, key) },
			apply: c.applyURL,
		},
		{
			name: "timestamp-value",
			match: func(_, value string) bool {
				return isoTimestampRE.MatchString(value) || plainDateRE.MatchString(value)
			},
			apply: c.applyPreserve,
		},
		{
			name: "timestamp-key",
			match: func(key, _ string) bool {
				return strings.HasSuffix(strings.ToLower(key), "timestamp")
			},
			apply: c.applyPreserve,
		},
		{
			name:  "safe-enum-key",
			match: func(key, _ string) bool { return member(c.keys.SafeEnum, key) },
			apply: c.applyPreserve,
		},
		{
			name: "structural-id",
			match: func(key, value string) bool {
				return member(c.keys.ID, key) && uuidishRE.MatchString(value)
			},
			apply: c.applyPreserve,
		},
		{
			name:  "text-key",
			match: func(key, _ string) bool { return member(c.keys.Text, key) },
			apply: c.applyText,
		},
		{
			name: "path-shape",
			match: func(_, value string) bool {
				return strings.HasPrefix(value, "/Users/") ||
					strings.HasPrefix(value, "~/") ||
					strings.HasPrefix(value, "/")
			},
			apply: c.applyPath,
		},
		{
			name: "url-shape",
			match: func(_, value string) bool {
				return strings.Contains(value, "://") || strings.HasPrefix(value, "git@")
			},
			apply: c.applyURL,
		},
		{
			name: "enum-shape",
			match: func(_, value string) bool {
				return len(value) <= maxEnumLikeLen && identSafeRE.MatchString(value)
			},
			apply: c.applyPreserve,
		},
		{
			name:  "default-redact",
			match: func(_, _ string) bool { return true },
			apply: func(key, value string) string {
				if key == "" {
					key = "string"
				}
				return c.applyText(key, value)
			},
		},
	}
	return c
}

// Classify runs the rule list in precedence order and returns the
// sanitized replacement for a string leaf.
func (c *Classifier) Classify(key, value string) string {
	for _, r := range c.rules {
		if r.match(key, value) {
			return r.apply(key, value)
		}
	}
	// unreachable: default-redact matches everything
	return c.applyText(key, value)
}

func (c *Classifier) applyPreserve(_, value string) string {
	c.preserved++
	return value
}

func (c *Classifier) applyPath(_, value string) string {
	c.pathTokens++
	return c.pseudo.TokenizePath(value)
}

func (c *Classifier) applyURL(_, value string) string {
	// non-URL-shaped values pass through; the pseudonymizer counts them
	if URLShaped(value) {
		c.urlTokens++
	}
	return c.pseudo.TokenizeURL(value)
}

func (c *Classifier) applyText(key, value string) string {
	c.textRedactions++
	return redactText(key, value)
}

// redactText produces the fixed-shape placeholder: original key name
// upper-cased, code point count of the original, and an 8-character
// content digest. Length and fingerprint survive, content does not.
func redactText(key, value string) string {
	if key == "" {
		key = "text"
	}
	return fmt.Sprintf("[REDACTED_%s len=%d sha=%s]",
		strings.ToUpper(key), utf8.RuneCountInString(value), Digest(value, 8))
}

func member(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

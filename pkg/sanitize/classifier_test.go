package sanitize

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(DefaultKeySets(), NewPseudonymizer())
}

func TestClassifyPathKeys(t *testing.T) {
	c := newTestClassifier(t)

	for _, key := range []string{"cwd", "workdir", "path", "file", "filePath", "entrypoint_path"} {
		got := c.Classify(key, "/Users/alice/proj")
		if !strings.HasPrefix(got, "/redacted/path/") {
			t.Errorf("key %q: expected path token, got %q", key, got)
		}
	}
}

func TestClassifyURLKeys(t *testing.T) {
	c := newTestClassifier(t)

	for _, key := range []string{"repository_url", "url", "href", "webhookPath"} {
		got := c.Classify(key, "https://github.com/acme/widgets")
		if !strings.HasPrefix(got, "redacted://url/") {
			t.Errorf("key %q: expected url token, got %q", key, got)
		}
	}

	// fail-open: a URL key holding a non-URL-shaped value passes through
	if got := c.Classify("url", "not a url at all"); got != "not a url at all" {
		t.Errorf("Expected fail-open pass-through, got %q", got)
	}
}

func TestClassifyTimestamps(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"iso timestamp", "some_field", "2026-02-23T10:00:00Z"},
		{"iso with fraction", "some_field", "2026-02-23T10:00:00.123456Z"},
		{"plain date", "some_field", "2026-02-23"},
		{"timestamp key", "event_timestamp", "whatever short"},
		{"timestamp key case", "EventTimestamp", "whatever short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.key, tt.value); got != tt.value {
				t.Errorf("Expected verbatim preservation, got %q", got)
			}
		})
	}

	// non-UTC offsets are not the recognized shape; a long free-form
	// value under an unknown key falls through to redaction
	got := c.Classify("some_field", "2026-02-23T10:00:00+02:00 plus trailing words here")
	if !strings.HasPrefix(got, "[REDACTED_SOME_FIELD ") {
		t.Errorf("Expected redaction, got %q", got)
	}
}

func TestClassifySafeEnumKeys(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		key   string
		value string
	}{
		{"type", "user_message"},
		{"role", "assistant"},
		{"model", "gpt-5.1-codex"},
		{"model_provider", "openai"},
		{"cli_version", "0.42.1"},
		{"source", "cli"},
		{"originator", "codex_cli_rs"},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.key, tt.value); got != tt.value {
			t.Errorf("key %q: expected verbatim, got %q", tt.key, got)
		}
	}
}

func TestClassifyStructuralIDs(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name      string
		key       string
		value     string
		preserved bool
	}{
		{"uuid id", "id", "123e4567-e89b-12d3-a456-426614174000", true},
		{"uuid session_id", "session_id", "0192ab34-cdef-7890-abcd-ef0123456789", true},
		{"uuid sessionId", "sessionId", "123E4567-E89B-12D3-A456-426614174000", true},
		{"short id falls to enum rule", "id", "abc123", true}, // preserved by the identifier-safe fallback
		{"non-uuid long id", "id", "definitely not a uuid with spaces in it", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.key, tt.value)
			if tt.preserved && got != tt.value {
				t.Errorf("Expected verbatim, got %q", got)
			}
			if !tt.preserved && got == tt.value {
				t.Errorf("Expected replacement, got original back")
			}
		})
	}
}

func TestClassifyTextKeys(t *testing.T) {
	c := newTestClassifier(t)

	value := "fix the bug in parser.py"
	expected := fmt.Sprintf("[REDACTED_CONTENT len=%d sha=%s]",
		utf8.RuneCountInString(value), Digest(value, 8))

	if got := c.Classify("content", value); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}

	for _, key := range []string{"message", "prompt", "cmd", "arguments", "output", "user_instructions"} {
		got := c.Classify(key, "sensitive words here")
		if !strings.HasPrefix(got, "[REDACTED_"+strings.ToUpper(key)+" ") {
			t.Errorf("key %q: expected redaction placeholder, got %q", key, got)
		}
		if strings.Contains(got, "sensitive") {
			t.Errorf("key %q: placeholder leaks original content: %q", key, got)
		}
	}
}

func TestClassifyRedactionLengthIsRuneCount(t *testing.T) {
	c := newTestClassifier(t)

	value := "héllo wörld 🚀"
	got := c.Classify("message", value)
	expected := fmt.Sprintf("len=%d", utf8.RuneCountInString(value))
	if !strings.Contains(got, expected) {
		t.Errorf("Expected %s in %q", expected, got)
	}
}

func TestClassifyValueShapeFallbacks(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name   string
		key    string
		value  string
		expect string // "path", "url", "verbatim", "redact"
	}{
		{"home path", "unknown_key", "/Users/bob/code", "path"},
		{"tilde path", "unknown_key", "~/code/proj", "path"},
		{"absolute path", "unknown_key", "/var/log/app.log", "path"},
		{"scheme separator", "unknown_key", "https://example.com/x", "url"},
		{"ssh remote", "unknown_key", "git@gitlab.com:a/b.git", "url"},
		{"short enum", "unknown_key", "opus-4.5", "verbatim"},
		{"status code", "unknown_key", "completed", "verbatim"},
		{"exactly 40 identifier chars", "unknown_key", strings.Repeat("a", 40), "verbatim"},
		{"41 identifier chars", "unknown_key", strings.Repeat("a", 41), "redact"},
		{"spaces", "unknown_key", "free text with spaces", "redact"},
		{"empty key free text", "", "free text at the document root", "redact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.key, tt.value)
			switch tt.expect {
			case "path":
				if !strings.HasPrefix(got, "/redacted/path/") {
					t.Errorf("Expected path token, got %q", got)
				}
			case "url":
				if !strings.HasPrefix(got, "redacted://url/") {
					t.Errorf("Expected url token, got %q", got)
				}
			case "verbatim":
				if got != tt.value {
					t.Errorf("Expected verbatim, got %q", got)
				}
			case "redact":
				if !strings.HasPrefix(got, "[REDACTED_") {
					t.Errorf("Expected redaction placeholder, got %q", got)
				}
			}
		})
	}
}

func TestClassifyEmptyKeyFallbackName(t *testing.T) {
	c := newTestClassifier(t)

	got := c.Classify("", "free text at the document root")
	if !strings.HasPrefix(got, "[REDACTED_STRING ") {
		t.Errorf("Expected REDACTED_STRING placeholder for empty key, got %q", got)
	}
}

func TestClassifyPrecedence(t *testing.T) {
	c := newTestClassifier(t)

	// A path-bearing key wins over a timestamp-shaped value.
	got := c.Classify("cwd", "2026-02-23")
	if !strings.HasPrefix(got, "/redacted/path/") {
		t.Errorf("Expected path rule to take precedence, got %q", got)
	}

	// A timestamp-shaped value wins over a text key match further down.
	got = c.Classify("message", "2026-02-23T10:00:00Z")
	if got != "2026-02-23T10:00:00Z" {
		t.Errorf("Expected timestamp preservation before text redaction, got %q", got)
	}

	// A text key wins over path-shaped content.
	got = c.Classify("cmd", "/usr/bin/rm -rf sensitive")
	if !strings.HasPrefix(got, "[REDACTED_CMD ") {
		t.Errorf("Expected text redaction before path heuristic, got %q", got)
	}
}

func TestKeySetExtension(t *testing.T) {
	keys, err := DefaultKeySets().Extend(map[string]Category{
		"homeDir":     PseudonymizePath,
		"avatar_url":  PseudonymizeURL,
		"环境":          RedactText,
		"plugin_name": PreserveVerbatim,
	})
	if err != nil {
		t.Fatalf("Extend failed: %v", err)
	}

	c := NewClassifier(keys, NewPseudonymizer())

	if got := c.Classify("homeDir", "/home/carol"); !strings.HasPrefix(got, "/redacted/path/") {
		t.Errorf("Extended path key not honored: %q", got)
	}
	if got := c.Classify("avatar_url", "https://cdn.example/a.png"); !strings.HasPrefix(got, "redacted://url/") {
		t.Errorf("Extended url key not honored: %q", got)
	}
	if got := c.Classify("环境", "short"); !strings.HasPrefix(got, "[REDACTED_") {
		t.Errorf("Extended text key not honored: %q", got)
	}

	_, err = DefaultKeySets().Extend(map[string]Category{"x": Category("bogus")})
	if err == nil {
		t.Error("Expected error for unknown category")
	}
}

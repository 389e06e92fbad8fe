package sanitize

import (
	"fmt"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"fixture-scrub/pkg/jsonval"
)

func mustDecode(t *testing.T, line string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Decode([]byte(line))
	if err != nil {
		t.Fatalf("Failed to decode %q: %v", line, err)
	}
	return v
}

func mustEncode(t *testing.T, v jsonval.Value) string {
	t.Helper()
	out, err := jsonval.Encode(v)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	return string(out)
}

func TestSanitizeScenarioUserMessage(t *testing.T) {
	s := New(DefaultKeySets())

	in := `{"type":"user_message","cwd":"/Users/alice/proj","content":"fix the bug in parser.py"}`
	got := mustEncode(t, s.Sanitize(mustDecode(t, in)))

	expected := fmt.Sprintf(
		`{"type":"user_message","cwd":"/redacted/path/%s","content":"[REDACTED_CONTENT len=24 sha=%s]"}`,
		Digest("/Users/alice/proj", 10),
		Digest("fix the bug in parser.py", 8),
	)
	if got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}

func TestSanitizeTimestampRecordUnchanged(t *testing.T) {
	s := New(DefaultKeySets())

	in := `{"timestamp":"2026-02-23T10:00:00Z"}`
	if got := mustEncode(t, s.Sanitize(mustDecode(t, in))); got != in {
		t.Errorf("Expected %s unchanged, got %s", in, got)
	}
}

func TestSanitizeStableTokensAcrossRecords(t *testing.T) {
	s := New(DefaultKeySets())

	first := mustEncode(t, s.Sanitize(mustDecode(t, `{"cwd":"/Users/alice/proj"}`)))
	second := mustEncode(t, s.Sanitize(mustDecode(t, `{"cwd":"/Users/alice/proj","type":"turn"}`)))

	token := "/redacted/path/" + Digest("/Users/alice/proj", 10)
	if !strings.Contains(first, token) || !strings.Contains(second, token) {
		t.Errorf("Expected identical path token in both records:\n%s\n%s", first, second)
	}
}

func TestSanitizeStructurePreservation(t *testing.T) {
	s := New(DefaultKeySets())

	in := `{"z_first":"ok","a_second":{"nested":[1,2,{"deep":true}],"n":null},"count":42,"ratio":0.125}`
	got := mustEncode(t, s.Sanitize(mustDecode(t, in)))

	// key order, nesting, sequence order and non-string scalars all survive
	if got != in {
		t.Errorf("Expected structure-identical output.\nin:  %s\ngot: %s", in, got)
	}
}

func TestSanitizeNumberFormattingPreserved(t *testing.T) {
	s := New(DefaultKeySets())

	in := `{"small":1e3,"precise":0.10,"big":12345678901234567890}`
	got := mustEncode(t, s.Sanitize(mustDecode(t, in)))
	if got != in {
		t.Errorf("Expected number source text preserved.\nin:  %s\ngot: %s", in, got)
	}
}

func TestSanitizeArrayInheritsKeyContext(t *testing.T) {
	s := New(DefaultKeySets())

	in := `{"arguments":["rm -rf /tmp/scratch dir","second secret arg"]}`
	got := mustEncode(t, s.Sanitize(mustDecode(t, in)))

	if strings.Contains(got, "secret") || strings.Contains(got, "scratch") {
		t.Fatalf("Array elements leaked original content: %s", got)
	}
	if strings.Count(got, "[REDACTED_ARGUMENTS ") != 2 {
		t.Errorf("Expected every element redacted under the arguments key, got %s", got)
	}
}

func TestSanitizeSameKeyAtAnyDepth(t *testing.T) {
	s := New(DefaultKeySets())

	in := `{"payload":{"inner":{"cwd":"/Users/alice/proj"}}}`
	got := mustEncode(t, s.Sanitize(mustDecode(t, in)))

	token := "/redacted/path/" + Digest("/Users/alice/proj", 10)
	if !strings.Contains(got, token) {
		t.Errorf("Expected nested cwd pseudonymized, got %s", got)
	}
}

func TestSanitizeRootString(t *testing.T) {
	s := New(DefaultKeySets())

	got := s.Sanitize("free text at the document root")
	str, ok := got.(string)
	if !ok || !strings.HasPrefix(str, "[REDACTED_STRING ") {
		t.Errorf("Expected redacted root string, got %v", got)
	}
}

func TestSanitizeDeterminism(t *testing.T) {
	in := `{"type":"turn","cwd":"/Users/alice/proj","content":"hello there","url":"https://github.com/acme/widgets"}`

	s1 := New(DefaultKeySets())
	s2 := New(DefaultKeySets())
	out1 := mustEncode(t, s1.Sanitize(mustDecode(t, in)))
	out2 := mustEncode(t, s2.Sanitize(mustDecode(t, in)))

	if out1 != out2 {
		t.Errorf("Fresh engines disagree on identical input:\n%s\n%s", out1, out2)
	}
}

func TestSanitizeOutputIsValidJSON(t *testing.T) {
	s := New(DefaultKeySets())

	in := `{"content":"text with \"quotes\" and \\ backslashes 	"}`
	out := mustEncode(t, s.Sanitize(mustDecode(t, in)))

	var check map[string]interface{}
	if err := json.Unmarshal([]byte(out), &check); err != nil {
		t.Fatalf("Sanitized output is not valid JSON: %v\n%s", err, out)
	}
}

func TestRedactRaw(t *testing.T) {
	s := New(DefaultKeySets())

	got := s.RedactRaw("this line was not json {{{")
	if !strings.HasPrefix(got, "[REDACTED_RAW len=26 sha=") {
		t.Errorf("Unexpected raw redaction: %q", got)
	}
}

func TestReportCounts(t *testing.T) {
	s := New(DefaultKeySets())

	in := `{"type":"turn","cwd":"/Users/alice/proj","url":"not-a-url","content":"hi","repository_url":"https://github.com/acme/widgets"}`
	s.Sanitize(mustDecode(t, in))

	report := s.Report()
	if report.Preserved != 1 {
		t.Errorf("Expected 1 preserved (type), got %d", report.Preserved)
	}
	if report.PathTokens != 1 {
		t.Errorf("Expected 1 path token, got %d", report.PathTokens)
	}
	if report.URLTokens != 1 {
		t.Errorf("Expected 1 url token, got %d", report.URLTokens)
	}
	if report.TextRedactions != 1 {
		t.Errorf("Expected 1 text redaction, got %d", report.TextRedactions)
	}
	if report.URLPassthrough != 1 {
		t.Errorf("Expected 1 url pass-through, got %d", report.URLPassthrough)
	}
}

func TestNewFromConfig(t *testing.T) {
	s, err := NewFromConfig(&Config{ExtraKeys: map[string]Category{"homeDir": PseudonymizePath}})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	got := mustEncode(t, s.Sanitize(mustDecode(t, `{"homeDir":"/home/carol"}`)))
	if !strings.Contains(got, "/redacted/path/") {
		t.Errorf("Extended key not applied: %s", got)
	}

	if _, err := NewFromConfig(&Config{ExtraKeys: map[string]Category{"x": "bogus"}}); err == nil {
		t.Error("Expected error for invalid config")
	}

	if _, err := NewFromConfig(nil); err != nil {
		t.Errorf("nil config must use defaults, got error: %v", err)
	}
}

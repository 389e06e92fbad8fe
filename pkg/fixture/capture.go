// Package fixture orchestrates a capture run: it walks an input
// directory of session JSONL files, transcodes each through one shared
// sanitization engine so tokens stay stable across files, and writes
// the fixture layout (raw copies, manifest, README, expected
// placeholders) into the output directory.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kumarabd/gokit/logger"

	"fixture-scrub/internal/metrics"
	"fixture-scrub/pkg/sanitize"
	"fixture-scrub/pkg/transcode"
)

// Config contains configuration for one capture run.
type Config struct {
	InputDir     string `json:"input_dir" yaml:"input_dir"`
	OutputDir    string `json:"output_dir" yaml:"output_dir"`
	FixtureDate  string `json:"fixture_date" yaml:"fixture_date"`
	SourceFamily string `json:"source_family" yaml:"source_family" default:"codex"`
}

// Handler drives capture runs.
type Handler struct {
	config     *Config
	engine     *sanitize.Sanitizer
	transcoder *transcode.Transcoder
	log        *logger.Handler
	metric     *metrics.Handler
}

// New creates a capture handler with a fresh engine for the run.
func New(config *Config, sanitizeConfig *sanitize.Config, log *logger.Handler, metric *metrics.Handler) (*Handler, error) {
	if config.InputDir == "" || config.OutputDir == "" {
		return nil, fmt.Errorf("capture requires input_dir and output_dir")
	}
	if config.FixtureDate == "" {
		return nil, fmt.Errorf("capture requires fixture_date")
	}

	engine, err := sanitize.NewFromConfig(sanitizeConfig)
	if err != nil {
		return nil, err
	}
	transcoder, err := transcode.New(engine, log, metric)
	if err != nil {
		return nil, err
	}

	return &Handler{
		config:     config,
		engine:     engine,
		transcoder: transcoder,
		log:        log,
		metric:     metric,
	}, nil
}

// Run captures and sanitizes every session file, then writes the
// fixture metadata. Returns the run statistics.
func (h *Handler) Run() (transcode.Stats, error) {
	var stats transcode.Stats

	files, err := sessionFiles(h.config.InputDir)
	if err != nil {
		return stats, err
	}

	rawOut := filepath.Join(h.config.OutputDir, "raw", "sessions")
	expectedOut := filepath.Join(h.config.OutputDir, "expected")
	for _, dir := range []string{rawOut, expectedOut} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stats, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	for _, src := range files {
		dst := filepath.Join(rawOut, filepath.Base(src))
		if err := h.transcoder.TranscodeFile(src, dst); err != nil {
			return stats, err
		}
	}

	stats = h.transcoder.Stats()

	sourceToken := h.engine.TokenizePath(h.config.InputDir)
	manifest := buildManifest(h.config, stats, len(files), sourceToken)
	if err := writeManifest(filepath.Join(h.config.OutputDir, "manifest.json"), manifest); err != nil {
		return stats, err
	}
	if err := h.writeReadme(); err != nil {
		return stats, err
	}
	if err := h.writeExpectedPlaceholders(expectedOut); err != nil {
		return stats, err
	}

	if h.log != nil {
		h.log.Info().
			Int("files", len(files)).
			Int("lines", stats.Lines).
			Int("malformed", stats.Malformed).
			Str("output", h.config.OutputDir).
			Msg("Capture complete")
	}
	return stats, nil
}

// sessionFiles lists the *.jsonl and *.jsonl.gz files of the input
// directory in name order.
func sessionFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.jsonl", "*.jsonl.gz"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list session files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func (h *Handler) writeReadme() error {
	content := strings.Join([]string{
		fmt.Sprintf("# %s Fixture %s", titleCase(h.config.SourceFamily), h.config.FixtureDate),
		"",
		fmt.Sprintf("Sanitized fixture derived from real %s session JSONL logs.", h.config.SourceFamily),
		"",
		"Sanitization guarantees:",
		"- token counts preserved",
		"- timestamps preserved",
		"- event ordering preserved",
		"- models preserved",
		"- free-text content redacted",
		"- local paths and URLs pseudonymized",
		"",
		"Notes:",
		"- `expected/` files are placeholders until parser/schema outputs are finalized.",
	}, "\n") + "\n"

	path := filepath.Join(h.config.OutputDir, "README.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write README: %w", err)
	}
	return nil
}

// writeExpectedPlaceholders creates the golden-file placeholders that
// establish the fixture layout, without clobbering finalized ones.
func (h *Handler) writeExpectedPlaceholders(dir string) error {
	placeholders := []string{
		h.config.SourceFamily + "-sessions.json",
		h.config.SourceFamily + "-stats.json",
	}
	for _, name := range placeholders {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte("{\n  \"_status\": \"pending\"\n}\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write placeholder %s: %w", name, err)
		}
	}
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

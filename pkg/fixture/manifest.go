package fixture

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"fixture-scrub/pkg/transcode"
)

// Manifest is the capture record written next to the sanitized
// fixture. Field order matters to human reviewers diffing captures, so
// it is a struct rather than a map.
type Manifest struct {
	ManifestVersion   int               `json:"manifest_version"`
	SourceFamily      string            `json:"source_family"`
	FixtureDate       string            `json:"fixture_date"`
	CaptureStatus     string            `json:"capture_status"`
	DayBoundary       DayBoundary       `json:"day_boundary"`
	Sanitization      SanitizationFlags `json:"sanitization"`
	InputFiles        InputFiles        `json:"input_files"`
	ObservedLineTypes map[string]int    `json:"observed_line_types"`
	Verification      Verification      `json:"verification"`
	ExpectedOutputs   map[string]string `json:"expected_outputs"`
}

type DayBoundary struct {
	Mode           string `json:"mode"`
	Timezone       string `json:"timezone"`
	StartInclusive string `json:"start_inclusive"`
	EndExclusive   string `json:"end_exclusive"`
}

// SanitizationFlags records which guarantees this capture carries.
type SanitizationFlags struct {
	TextRedacted         bool `json:"text_redacted"`
	PathsPseudonymized   bool `json:"paths_pseudonymized"`
	URLsPseudonymized    bool `json:"urls_pseudonymized"`
	IDsPseudonymized     bool `json:"ids_pseudonymized"`
	ModelsPreserved      bool `json:"models_preserved"`
	TokenCountsPreserved bool `json:"token_counts_preserved"`
	TimestampsPreserved  bool `json:"timestamps_preserved"`
}

type InputFiles struct {
	SessionFileCount int    `json:"session_file_count"`
	LineCountTotal   int    `json:"jsonl_line_count_total"`
	SourceDirectory  string `json:"source_directory"`
}

// Verification holds what the run could verify on its own; nil fields
// await manual verification against the raw source logs.
type Verification struct {
	Status                   string      `json:"status"`
	SessionsInScope          *int        `json:"sessions_in_scope"`
	MalformedLinesSkipped    *int        `json:"malformed_lines_skipped"`
	DuplicateEventsDetected  *int        `json:"duplicate_events_detected"`
	DuplicateEventsCollapsed *int        `json:"duplicate_events_collapsed"`
	FirstEventTimestamp      *string     `json:"first_event_timestamp"`
	LastEventTimestamp       *string     `json:"last_event_timestamp"`
	ModelsUsed               []string    `json:"models_used"`
	TokenTotals              TokenTotals `json:"token_totals"`
	Notes                    []string    `json:"notes"`
}

type TokenTotals struct {
	Input         *int64 `json:"input"`
	Output        *int64 `json:"output"`
	Total         *int64 `json:"total"`
	CacheRead     *int64 `json:"cache_read"`
	CacheCreation *int64 `json:"cache_creation"`
}

// buildManifest assembles the manifest from the run's config and
// stats. sourceToken is the pseudonymized input directory.
func buildManifest(cfg *Config, stats transcode.Stats, fileCount int, sourceToken string) Manifest {
	return Manifest{
		ManifestVersion: 1,
		SourceFamily:    cfg.SourceFamily,
		FixtureDate:     cfg.FixtureDate,
		CaptureStatus:   "sanitized_raw_captured_unverified",
		DayBoundary: DayBoundary{
			Mode:           "local",
			Timezone:       "TO_BE_FILLED",
			StartInclusive: "TO_BE_FILLED",
			EndExclusive:   "TO_BE_FILLED",
		},
		Sanitization: SanitizationFlags{
			TextRedacted:         true,
			PathsPseudonymized:   true,
			URLsPseudonymized:    true,
			IDsPseudonymized:     false,
			ModelsPreserved:      true,
			TokenCountsPreserved: true,
			TimestampsPreserved:  true,
		},
		InputFiles: InputFiles{
			SessionFileCount: fileCount,
			LineCountTotal:   stats.Lines,
			SourceDirectory:  sourceToken,
		},
		ObservedLineTypes: stats.TypeCounts,
		Verification: Verification{
			Status:                  "pending_manual_verification",
			MalformedLinesSkipped:   intPtr(stats.Malformed),
			DuplicateEventsDetected: intPtr(stats.DuplicateRecords),
			FirstEventTimestamp:     strPtr(stats.FirstTimestamp),
			LastEventTimestamp:      strPtr(stats.LastTimestamp),
			ModelsUsed:              stats.ModelsUsed,
			Notes: []string{
				fmt.Sprintf("Populate token totals after manual verification against raw source logs for %s.", cfg.FixtureDate),
			},
		},
		ExpectedOutputs: map[string]string{
			cfg.SourceFamily + "_sessions": "expected/" + cfg.SourceFamily + "-sessions.json",
			cfg.SourceFamily + "_stats":    "expected/" + cfg.SourceFamily + "-stats.json",
		},
	}
}

// writeManifest serializes the manifest with 2-space indentation.
func writeManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

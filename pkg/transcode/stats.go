package transcode

import "sort"

// MissingTypeBucket is the stats bucket for records without a string
// type field.
const MissingTypeBucket = "<missing>"

// MalformedType is the sentinel type of records synthesized from
// unparsable lines.
const MalformedType = "malformed_line"

// Stats is the per-run statistics contract consumed by the reporting
// layer: total non-blank lines, a count per observed type value, and
// the malformed-line tally, plus what the run could observe of
// preserved fields (timestamps, models) and duplicate records.
type Stats struct {
	Lines            int            `json:"lines_total"`
	TypeCounts       map[string]int `json:"type_counts"`
	Malformed        int            `json:"malformed_lines"`
	DuplicateRecords int            `json:"duplicate_records"`
	FirstTimestamp   string         `json:"first_event_timestamp,omitempty"`
	LastTimestamp    string         `json:"last_event_timestamp,omitempty"`
	ModelsUsed       []string       `json:"models_used"`
}

func newStats() Stats {
	return Stats{
		TypeCounts: make(map[string]int),
		ModelsUsed: []string{},
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

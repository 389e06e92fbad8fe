// Package transcode turns one event-log file's lines into their
// sanitized copies, one output line per non-blank input line, and
// tallies per-line statistics along the way.
package transcode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/klauspost/compress/gzip"
	"github.com/kumarabd/gokit/logger"

	"fixture-scrub/internal/metrics"
	"fixture-scrub/pkg/cache"
	"fixture-scrub/pkg/jsonval"
	"fixture-scrub/pkg/sanitize"
)

// LineKind classifies the outcome of transcoding one input line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineRecord
	LineMalformed
)

const (
	scanInitialBuf = 64 * 1024
	// session logs carry full tool outputs on single lines
	scanMaxLineBytes = 16 * 1024 * 1024

	dupDigestLen = 16
)

// Transcoder drives one sanitization run. It holds the engine (and
// therefore the run's token maps), the duplicate-record cache and the
// running stats. One writer only; build one Transcoder per run.
type Transcoder struct {
	engine *sanitize.Sanitizer
	seen   *cache.Handler
	log    *logger.Handler
	metric *metrics.Handler

	stats  Stats
	models map[string]struct{}

	published sanitize.Report
}

// New creates a transcoder around a fresh or shared engine.
func New(engine *sanitize.Sanitizer, log *logger.Handler, metric *metrics.Handler) (*Transcoder, error) {
	seen, err := cache.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize digest cache: %w", err)
	}
	return &Transcoder{
		engine: engine,
		seen:   seen,
		log:    log,
		metric: metric,
		stats:  newStats(),
		models: make(map[string]struct{}),
	}, nil
}

// TranscodeLine sanitizes a single input line. Blank lines are
// skipped. Lines that fail to parse are never dropped: they come back
// as a sentinel record carrying the redacted raw text. Every other
// line yields exactly one collapsed JSON document.
func (t *Transcoder) TranscodeLine(line string) ([]byte, LineKind, error) {
	if strings.TrimSpace(line) == "" {
		return nil, LineBlank, nil
	}

	t.stats.Lines++
	if t.metric != nil {
		t.metric.IncLinesTotal()
	}

	doc, err := jsonval.Decode([]byte(line))
	if err != nil {
		return t.malformedLine(line)
	}

	recordType := MissingTypeBucket
	if obj, ok := doc.(jsonval.Object); ok {
		if typ, ok := obj.GetString("type"); ok {
			recordType = typ
		}
		t.observeRecord(obj)
	}
	t.stats.TypeCounts[recordType]++
	if t.metric != nil {
		t.metric.IncRecordsTotal(recordType)
	}

	out, err := jsonval.Encode(t.engine.Sanitize(doc))
	if err != nil {
		return nil, LineRecord, fmt.Errorf("failed to encode sanitized record: %w", err)
	}
	t.trackDuplicate(out)
	return out, LineRecord, nil
}

// malformedLine wraps an unparsable line as a sentinel record with the
// raw text redacted, counted separately from valid records.
func (t *Transcoder) malformedLine(line string) ([]byte, LineKind, error) {
	raw := strings.TrimRightFunc(line, unicode.IsSpace)
	record := jsonval.Object{
		{Key: "type", Value: MalformedType},
		{Key: "raw", Value: t.engine.RedactRaw(raw)},
	}

	t.stats.Malformed++
	t.stats.TypeCounts[MalformedType]++
	if t.metric != nil {
		t.metric.IncMalformedLinesTotal()
		t.metric.IncRecordsTotal(MalformedType)
	}
	if t.log != nil {
		t.log.Debug().Int("length", len(raw)).Msg("Preserved malformed line as sentinel record")
	}

	out, err := jsonval.Encode(record)
	if err != nil {
		return nil, LineMalformed, fmt.Errorf("failed to encode malformed-line record: %w", err)
	}
	t.trackDuplicate(out)
	return out, LineMalformed, nil
}

// observeRecord pulls the preserved fields the stats contract reports
// on (timestamps, models) from a parsed record before sanitization.
func (t *Transcoder) observeRecord(obj jsonval.Object) {
	if ts, ok := obj.GetString("timestamp"); ok && ts != "" {
		if t.stats.FirstTimestamp == "" {
			t.stats.FirstTimestamp = ts
		}
		t.stats.LastTimestamp = ts
	}
	if model, ok := obj.GetString("model"); ok && model != "" {
		t.models[model] = struct{}{}
	}
}

func (t *Transcoder) trackDuplicate(out []byte) {
	if t.seen.Seen(sanitize.Digest(string(out), dupDigestLen)) {
		t.stats.DuplicateRecords++
	}
}

// TranscodeFile streams one session file to its sanitized copy. A
// ".gz" suffix on either side switches gzip on transparently.
func (t *Transcoder) TranscodeFile(src, dst string) error {
	start := time.Now()
	err := t.transcodeFile(src, dst)
	if t.metric != nil {
		t.metric.ObserveTranscodeLatency(time.Since(start), err == nil)
	}
	t.PublishReport()
	return err
}

func (t *Transcoder) transcodeFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer in.Close()

	var reader io.Reader = in
	if strings.HasSuffix(src, ".gz") {
		gz, err := gzip.NewReader(in)
		if err != nil {
			return fmt.Errorf("failed to open gzip stream in %s: %w", src, err)
		}
		defer gz.Close()
		reader = gz
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	var writer io.Writer = out
	var gzOut *gzip.Writer
	if strings.HasSuffix(dst, ".gz") {
		gzOut = gzip.NewWriter(out)
		writer = gzOut
	}
	buffered := bufio.NewWriter(writer)

	lines, malformed := 0, 0
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, scanInitialBuf), scanMaxLineBytes)
	for scanner.Scan() {
		record, kind, err := t.TranscodeLine(scanner.Text())
		if err != nil {
			return err
		}
		if kind == LineBlank {
			continue
		}
		if kind == LineMalformed {
			malformed++
		}
		lines++
		if _, err := buffered.Write(record); err != nil {
			return fmt.Errorf("failed to write sanitized line: %w", err)
		}
		if err := buffered.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write sanitized line: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if gzOut != nil {
		if err := gzOut.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	}

	if t.log != nil {
		t.log.Info().
			Str("src", src).
			Str("dst", dst).
			Int("lines", lines).
			Int("malformed", malformed).
			Msg("Transcoded session file")
	}
	return nil
}

// Stats returns a copy of the running statistics.
func (t *Transcoder) Stats() Stats {
	stats := t.stats
	stats.TypeCounts = make(map[string]int, len(t.stats.TypeCounts))
	for k, v := range t.stats.TypeCounts {
		stats.TypeCounts[k] = v
	}
	stats.ModelsUsed = sortedKeys(t.models)
	return stats
}

// Report returns the engine's classification counters.
func (t *Transcoder) Report() sanitize.Report {
	return t.engine.Report()
}

// PublishReport pushes the engine counter deltas since the last call
// into prometheus, and surfaces URL fail-open pass-throughs.
func (t *Transcoder) PublishReport() {
	report := t.engine.Report()
	if t.metric != nil {
		t.metric.AddRedactionsTotal("path", report.PathTokens-t.published.PathTokens)
		t.metric.AddRedactionsTotal("url", report.URLTokens-t.published.URLTokens)
		t.metric.AddRedactionsTotal("text", report.TextRedactions-t.published.TextRedactions)
		t.metric.AddURLPassthroughTotal(report.URLPassthrough - t.published.URLPassthrough)
	}
	if delta := report.URLPassthrough - t.published.URLPassthrough; delta > 0 && t.log != nil {
		t.log.Warn().
			Int("count", delta).
			Msg("URL-bearing keys held non-URL-shaped values, passed through unsanitized")
	}
	t.published = report
}

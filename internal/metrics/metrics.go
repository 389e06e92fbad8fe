package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Handler struct {
	LinesTotal          prometheus.Counter
	RecordsTotal        *prometheus.CounterVec
	MalformedLinesTotal prometheus.Counter
	RedactionsTotal     *prometheus.CounterVec
	URLPassthroughTotal prometheus.Counter
	TranscodeLatency    *prometheus.HistogramVec
	RequestsReceived    *prometheus.CounterVec
}

type Options struct {
	// Additional labels necessary
}

func New(name string) (*Handler, error) {
	return &Handler{
		LinesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanitize_lines_total",
			Help: "The total number of non-blank input lines processed",
		}),
		RecordsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sanitize_records_total",
			Help: "The total number of sanitized records by event type",
		}, []string{"type"}),
		MalformedLinesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanitize_malformed_lines_total",
			Help: "The total number of lines that failed to parse as JSON",
		}),
		RedactionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sanitize_redactions_total",
			Help: "The total number of string leaves replaced, by category",
		}, []string{"category"}),
		URLPassthroughTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanitize_url_passthrough_total",
			Help: "The total number of URL-key values passed through for lacking a recognized scheme",
		}),
		TranscodeLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sanitize_transcode_latency_seconds",
			Help:    "The latency of transcoding one session file",
			Buckets: prometheus.DefBuckets,
		}, []string{"success"}),
		RequestsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_received",
			Help: "The total number of http requests received",
		}, []string{"status"}),
	}, nil
}

// IncLinesTotal increments the processed line counter
func (h *Handler) IncLinesTotal() {
	h.LinesTotal.Inc()
}

// IncRecordsTotal increments the sanitized record counter for a type
func (h *Handler) IncRecordsTotal(recordType string) {
	h.RecordsTotal.WithLabelValues(recordType).Inc()
}

// IncMalformedLinesTotal increments the malformed line counter
func (h *Handler) IncMalformedLinesTotal() {
	h.MalformedLinesTotal.Inc()
}

// AddRedactionsTotal adds to the redaction counter for a category
func (h *Handler) AddRedactionsTotal(category string, delta int) {
	if delta > 0 {
		h.RedactionsTotal.WithLabelValues(category).Add(float64(delta))
	}
}

// AddURLPassthroughTotal adds to the URL fail-open counter
func (h *Handler) AddURLPassthroughTotal(delta int) {
	if delta > 0 {
		h.URLPassthroughTotal.Add(float64(delta))
	}
}

// ObserveTranscodeLatency records the latency of one file transcode
func (h *Handler) ObserveTranscodeLatency(duration time.Duration, success bool) {
	successStr := "true"
	if !success {
		successStr = "false"
	}
	h.TranscodeLatency.WithLabelValues(successStr).Observe(duration.Seconds())
}

// IncRequestsReceived increments the http request counter
func (h *Handler) IncRequestsReceived(status string) {
	h.RequestsReceived.WithLabelValues(status).Inc()
}

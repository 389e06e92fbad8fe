package server

import (
	"bufio"
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fixture-scrub/pkg/sanitize"
	"fixture-scrub/pkg/transcode"
)

const (
	lineScanInitialBuf = 64 * 1024
	lineScanMaxBytes   = 16 * 1024 * 1024
)

// sanitizeHandler sanitizes a JSONL request body and responds with the
// sanitized JSONL. Each request gets its own engine, so token maps are
// request-scoped and no two requests share mutable state.
func (s *HTTP) sanitizeHandler(c *gin.Context, start time.Time) {
	tr, out, ok := s.runSanitize(c)
	if !ok {
		return
	}

	stats := tr.Stats()
	c.Header("X-Sanitize-Lines", strconv.Itoa(stats.Lines))
	c.Header("X-Sanitize-Malformed", strconv.Itoa(stats.Malformed))
	c.Data(http.StatusOK, "application/x-ndjson", out)

	if s.metric != nil {
		s.metric.IncRequestsReceived("success")
	}
	if s.log != nil {
		s.log.Debug().
			Int("lines", stats.Lines).
			Dur("latency", time.Since(start)).
			Msg("Sanitized request body")
	}
}

// sanitizeStatsHandler sanitizes a JSONL request body but responds
// with the run statistics and engine report instead of the output.
func (s *HTTP) sanitizeStatsHandler(c *gin.Context, start time.Time) {
	tr, _, ok := s.runSanitize(c)
	if !ok {
		return
	}

	if s.metric != nil {
		s.metric.IncRequestsReceived("success")
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":           tr.Stats(),
		"report":          tr.Report(),
		"processing_time": time.Since(start).Seconds(),
	})
}

// runSanitize streams the request body through a fresh transcoder.
// On failure it has already written the error response.
func (s *HTTP) runSanitize(c *gin.Context) (*transcode.Transcoder, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodyBytes)

	reader, err := getBodyReader(c.Request)
	if err != nil {
		s.reject(c, http.StatusBadRequest, "invalid body", err)
		return nil, nil, false
	}
	defer reader.Close()

	engine, err := sanitize.NewFromConfig(s.sanitizeConfig)
	if err != nil {
		s.reject(c, http.StatusInternalServerError, "engine initialization failed", err)
		return nil, nil, false
	}
	tr, err := transcode.New(engine, s.log, s.metric)
	if err != nil {
		s.reject(c, http.StatusInternalServerError, "transcoder initialization failed", err)
		return nil, nil, false
	}

	var out bytes.Buffer
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, lineScanInitialBuf), lineScanMaxBytes)
	for scanner.Scan() {
		record, kind, err := tr.TranscodeLine(scanner.Text())
		if err != nil {
			s.reject(c, http.StatusInternalServerError, "sanitization failed", err)
			return nil, nil, false
		}
		if kind == transcode.LineBlank {
			continue
		}
		out.Write(record)
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		s.reject(c, http.StatusBadRequest, "failed to read body", err)
		return nil, nil, false
	}

	tr.PublishReport()
	return tr, out.Bytes(), true
}

func (s *HTTP) reject(c *gin.Context, status int, message string, err error) {
	if s.metric != nil {
		s.metric.IncRequestsReceived("error")
	}
	if s.log != nil {
		s.log.Warn().Err(err).Str("reason", message).Msg("Sanitize request rejected")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

package main

import (
	"fmt"
	"os"

	"github.com/kumarabd/gokit/logger"

	"fixture-scrub/internal/config"
	"fixture-scrub/internal/metrics"
	"fixture-scrub/pkg/fixture"
	"fixture-scrub/pkg/server"
)

// main is the entry point of the application
func main() {
	// Initialize a new logger with the application name and syslog format
	log, err := logger.New(config.ApplicationName, logger.Options{
		Format: logger.SyslogLogFormat,
	})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// Initialize a new configuration handler
	configHandler, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("")
		os.Exit(1)
	}

	// Initialize a new metrics handler with the application name
	metricsHandler, err := metrics.New(config.ApplicationName)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	switch configHandler.Mode {
	case config.ModeServe:
		runServe(configHandler, log, metricsHandler)
	case config.ModeCapture, "":
		runCapture(configHandler, log, metricsHandler)
	default:
		log.Error().Str("mode", configHandler.Mode).Msg("unknown mode")
		os.Exit(1)
	}
}

// runCapture performs one fixture capture run and exits.
func runCapture(cfg *config.Config, log *logger.Handler, metric *metrics.Handler) {
	captureHandler, err := fixture.New(cfg.Capture, cfg.Sanitize, log, metric)
	if err != nil {
		log.Error().Err(err).Msg("capture initialization failed")
		os.Exit(1)
	}
	log.Info().Msg("capture initialized")

	stats, err := captureHandler.Run()
	if err != nil {
		log.Error().Err(err).Msg("capture failed")
		os.Exit(1)
	}

	log.Info().
		Int("lines", stats.Lines).
		Int("malformed", stats.Malformed).
		Int("types", len(stats.TypeCounts)).
		Msg("capture finished")
}

// runServe starts the HTTP sanitizer and blocks until it stops.
func runServe(cfg *config.Config, log *logger.Handler, metric *metrics.Handler) {
	srv, err := server.New(log, metric, cfg.Server, cfg.Sanitize)
	if err != nil {
		log.Error().Err(err).Msg("server initialization failed")
		os.Exit(1)
	}
	log.Info().Msg("server initialized")

	// Run the server with graceful shutdown
	ch := make(chan struct{})
	srv.Start(ch)
	<-ch
	log.Info().Msg("server stopped")
}

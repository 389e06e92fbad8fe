package config

import (
	"fmt"
	"time"

	config_pkg "github.com/kumarabd/gokit/config"

	"fixture-scrub/internal/metrics"
	"fixture-scrub/pkg/fixture"
	"fixture-scrub/pkg/sanitize"
	"fixture-scrub/pkg/server"
)

var (
	ApplicationName    = "fixture-scrub"
	ApplicationVersion = "dev"
)

// Mode selects what the binary does: capture a fixture from local
// session files, or serve the sanitizer over HTTP.
const (
	ModeCapture = "capture"
	ModeServe   = "serve"
)

type Config struct {
	Mode     string           `json:"mode" yaml:"mode" default:"capture"`
	Server   *server.Config   `json:"server,omitempty" yaml:"server,omitempty"`
	Capture  *fixture.Config  `json:"capture" yaml:"capture"`
	Sanitize *sanitize.Config `json:"sanitize,omitempty" yaml:"sanitize,omitempty"`
	Metrics  *metrics.Options `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// New creates a new config instance
func New() (*Config, error) {
	// Create default config object
	configObject := &Config{
		Mode: ModeCapture,
		Server: &server.Config{
			HTTP: &server.HTTPConfig{
				Host:         "0.0.0.0",
				Port:         "8080",
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
				MaxBodyBytes: 64 << 20,
			},
		},
		Capture: &fixture.Config{
			SourceFamily: "codex",
		},
		Sanitize: &sanitize.Config{
			ExtraKeys: map[string]sanitize.Category{},
		},
		Metrics: &metrics.Options{},
	}

	// Load config using gokit config package
	finalConfig, err := config_pkg.New(configObject)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Safe type assertion
	if finalConfig == nil {
		return nil, fmt.Errorf("config is nil")
	}

	cfg, ok := finalConfig.(*Config)
	if !ok {
		return nil, fmt.Errorf("config type assertion failed: expected *Config, got %T", finalConfig)
	}

	return cfg, nil
}

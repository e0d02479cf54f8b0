package config

import (
	"errors"
	"time"

	"github.com/bndkts/molt-md-mcp/internal/logging"
	"github.com/bndkts/molt-md-mcp/internal/telemetry"
)

const (
	// DefaultBaseURL is the production molt-md API endpoint.
	DefaultBaseURL = "https://molt-md.com/api/v1"

	// DefaultRequestTimeout bounds each API request.
	DefaultRequestTimeout = 30 * time.Second
)

// Config is the root configuration for the molt-mcp server.
type Config struct {
	Molt      MoltConfig       `koanf:"molt"`
	Logging   logging.Config   `koanf:"logging"`
	Telemetry telemetry.Config `koanf:"telemetry"`
}

// MoltConfig configures access to the molt-md API.
type MoltConfig struct {
	// APIKey authenticates every request. A read key permits reads only;
	// a write key permits mutations. Required.
	APIKey Secret `koanf:"api_key"`

	// WorkspaceID scopes document lookups to a workspace. Optional.
	WorkspaceID string `koanf:"workspace_id"`

	// BaseURL is the API root, without a trailing slash.
	BaseURL string `koanf:"base_url"`

	// RequestTimeout bounds each HTTP request to the API.
	RequestTimeout Duration `koanf:"request_timeout"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Molt.BaseURL == "" {
		cfg.Molt.BaseURL = DefaultBaseURL
	}
	if cfg.Molt.RequestTimeout.Duration() == 0 {
		cfg.Molt.RequestTimeout = Duration(DefaultRequestTimeout)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "molt-mcp"
	}
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = "dev"
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.Molt.APIKey.Value() == "" {
		return errors.New("MOLT_API_KEY is required: set it to a molt-md read or write key")
	}
	return nil
}

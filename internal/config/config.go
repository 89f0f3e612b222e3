package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the search-sync service and worker.
// Environment variables are parsed from the SEARCHSYNC_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration (query API)
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Projection store
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`

	// Search index
	SearchIndexURL string `envconfig:"SEARCH_INDEX_URL" default:"weaviate:8080"`
	SearchLimit    int    `envconfig:"SEARCH_LIMIT" default:"20"`

	// Event intake
	NatsURL      string `envconfig:"NATS_URL" default:"nats://127.0.0.1:4222"`
	StreamName   string `envconfig:"STREAM_NAME" default:"bookmark-events"`
	ConsumerName string `envconfig:"CONSUMER_NAME" default:"search-sync"`

	// Page text extraction
	PageFetchTimeoutSeconds int `envconfig:"PAGE_FETCH_TIMEOUT_SECONDS" default:"2"`
	FullPageMaxChars        int `envconfig:"FULL_PAGE_MAX_CHARS" default:"13000"`

	// Bulk side effects and multi-org search fan-out
	FanoutConcurrency int `envconfig:"FANOUT_CONCURRENCY" default:"8"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"10"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"15"`
}

// ResolveDefaults validates the driver selection and derives DBDriver when
// set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = 20
	}
	if c.FanoutConcurrency <= 0 {
		c.FanoutConcurrency = 8
	}
	if c.FullPageMaxChars <= 0 {
		c.FullPageMaxChars = 13000
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: SEARCHSYNC_HTTP_PORT, SEARCHSYNC_NATS_URL.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SEARCHSYNC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("search_index_url", cfg.SearchIndexURL).
		Str("nats_url", cfg.NatsURL).
		Str("stream", cfg.StreamName).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		DBDriver:                  "sqlite",
		SQLitePath:                ":memory:",
		SearchIndexURL:            "localhost:8082",
		SearchLimit:               20,
		NatsURL:                   "nats://127.0.0.1:4222",
		StreamName:                "bookmark-events-test",
		ConsumerName:              "search-sync-test",
		PageFetchTimeoutSeconds:   2,
		FullPageMaxChars:          13000,
		FanoutConcurrency:         4,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		BootstrapTimeoutSeconds:   5,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

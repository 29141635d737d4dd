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

// Config holds the configuration for the plan service.
// Environment variables are parsed from the PLAN_SERVICE_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Durable store. DB_DRIVER selects postgres or sqlite; "auto" picks
	// postgres when a DSN is present, sqlite otherwise.
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`

	// Reference corpus. A directory of markdown sources to chunk at boot,
	// or a prebuilt JSON index; the index wins when both are set.
	CorpusDir         string `envconfig:"CORPUS_DIR" default:""`
	PrebuiltIndexPath string `envconfig:"PREBUILT_INDEX_PATH" default:""`

	// Generative provider
	GenerativeEnabled     bool   `envconfig:"GENERATIVE_ENABLED" default:"false"`
	GenerativeClosingDays bool   `envconfig:"GENERATIVE_CLOSING_DAYS" default:"false"`
	ProviderURL           string `envconfig:"PROVIDER_URL" default:"http://localhost:11434"`
	ProviderModel         string `envconfig:"PROVIDER_MODEL" default:"llama3.1"`
	ProviderTimeoutSecs   int    `envconfig:"PROVIDER_TIMEOUT_SECS" default:"90"`

	// Generation tuning
	LengthMinutes  int  `envconfig:"LENGTH_MINUTES" default:"10"`
	LockTTLSeconds int  `envconfig:"LOCK_TTL_SECONDS" default:"120"`
	DebugLogging   bool `envconfig:"DEBUG_LOGGING" default:"false"`

	// Health monitoring
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates the driver selection and derives it when "auto".
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
	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		c.SQLitePath = "./data/plan-service.db"
	}

	if c.LengthMinutes <= 0 {
		c.LengthMinutes = 10
	}
	if c.LockTTLSeconds <= 0 {
		c.LockTTLSeconds = 120
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with PLAN_SERVICE_
// Example: PLAN_SERVICE_HTTP_PORT, PLAN_SERVICE_POSTGRES_DSN
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PLAN_SERVICE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Str("sqlite_path", cfg.SQLitePath).
		Str("corpus_dir", cfg.CorpusDir).
		Str("prebuilt_index", cfg.PrebuiltIndexPath).
		Bool("generative", cfg.GenerativeEnabled).
		Str("provider_model", cfg.ProviderModel).
		Int("length_minutes", cfg.LengthMinutes).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:         EnvTesting,
		HTTPPort:            8080,
		DBDriver:            "sqlite",
		SQLitePath:          ":memory:",
		ProviderURL:         "http://localhost:11434",
		ProviderModel:       "llama3.1",
		ProviderTimeoutSecs: 5,
		LengthMinutes:       10,
		LockTTLSeconds:      120,
	}
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

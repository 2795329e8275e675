// Package config manages environment variables.
//
// It reads variables from the `.env` file,
// loads them into structured Go types (struct), and
// validates that required values are present so they
// can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for every block, so a bare `demo-api` starts locally.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: triggers godotenv's autoload feature.
	// If a `.env` file exists, it gets loaded into process env
	// before any env var is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the prefix DEMO_.
	Keys are lowercased and the prefix removed, then "__" is turned into the
	koanf "." delimiter so nested struct fields can be addressed:

		DEMO_SERVER__PORT                  -> server.port
		DEMO_SERVER__READ_TIMEOUT          -> server.read_timeout
		DEMO_OBSERVABILITY__LOGGING__LEVEL -> observability.logging.level

	Single underscores stay inside the key, which keeps snake_case koanf tags usable.
*/

// EnvPrefix is the prefix every configuration env var must carry.
const EnvPrefix = "DEMO_"

// ServiceName is forced onto the observability block so logs and traces
// always carry the same service label.
const ServiceName = "demo-api"

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf should map values from.
// The `validate:"..."` tags are enforced by go-playground/validator.
type Config struct {
	Primary       Primary             `koanf:"primary"`
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// Usually used to tag logs/traces and switch behavior based on env.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string          `koanf:"port" validate:"required"`
	ReadTimeout        int             `koanf:"read_timeout" validate:"min=1"`
	WriteTimeout       int             `koanf:"write_timeout" validate:"min=1"`
	IdleTimeout        int             `koanf:"idle_timeout" validate:"min=1"`
	ShutdownTimeout    int             `koanf:"shutdown_timeout" validate:"min=1"`
	CORSAllowedOrigins []string        `koanf:"cors_allowed_origins" validate:"required,min=1"`
	RateLimit          RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig configures the per-client token bucket in front of the API.
type RateLimitConfig struct {
	Enabled bool `koanf:"enabled"`

	// RequestsPerSecond is the steady refill rate of each client's bucket.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`

	// Burst is the bucket size. Zero means RequestsPerSecond rounded up, at least one.
	Burst int `koanf:"burst" validate:"gte=0"`

	// ExpiresIn is how long an idle client's bucket is remembered.
	ExpiresIn time.Duration `koanf:"expires_in"`
}

// DefaultConfig returns the configuration used when no env var overrides a value.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{
			Env: "development",
		},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			ShutdownTimeout:    30,
			CORSAllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 20,
				Burst:             40,
				ExpiresIn:         3 * time.Minute,
			},
		},
		Observability: *DefaultObservabilityConfig(),
	}
}

// envKey maps a raw env var name to a koanf key path.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig loads configuration from environment variables, unmarshals it over
// DefaultConfig, validates it, and returns the resulting config.
//
// Behavior summary:
//   - Loads env vars with prefix DEMO_
//   - Converts env keys into koanf keys using "." nesting
//   - Unmarshals into Config, keeping defaults for keys that are absent
//   - Validates struct tags, then the observability block's own rules
//   - Overrides observability service name + environment
func LoadConfig() (*Config, error) {
	// The "." is the key-path delimiter koanf uses to represent nesting.
	k := koanf.New(".")

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := DefaultConfig()

	// Unmarshal reads the flat key-value store and fills mainConfig.
	// "" means "unmarshal everything from the root".
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	// Force service name and environment values regardless of what user set,
	// so tracing/logging sees consistent labels.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

// Validate runs the struct-tag validator over the whole tree, then the
// hand-written observability checks.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

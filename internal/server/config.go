package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the serving configuration, loaded from serving.yaml. Every
// field has a default, so an absent file yields a working server; flags
// on the serve command override file values.
type Config struct {
	// Bind is the listen address. The default matches the container
	// contract: all interfaces, port 10000.
	Bind string `yaml:"bind"`

	// ModelDir is the directory holding the model artifacts.
	ModelDir string `yaml:"modelDir"`

	// LogLevel sets the zerolog level for the serving path.
	LogLevel string `yaml:"logLevel"`

	// CORS configures cross-origin access for browser clients.
	CORS CORSConfig `yaml:"cors"`

	// RateLimit configures the per-client token bucket. A zero
	// RequestsPerSecond disables limiting.
	RateLimit RateLimitConfig `yaml:"rateLimit"`

	// Timeouts bound request handling and shutdown draining.
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	// AllowedOrigins is an exact-match list; the single entry "*"
	// allows any origin.
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// RateLimitConfig holds the token-bucket parameters applied per client IP.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requestsPerSecond"`
	Burst             int `yaml:"burst"`
}

// TimeoutConfig bounds the server's I/O and shutdown behavior.
type TimeoutConfig struct {
	Read     time.Duration `yaml:"read"`
	Write    time.Duration `yaml:"write"`
	Shutdown time.Duration `yaml:"shutdown"`
}

// DefaultConfig returns the configuration used when no serving.yaml
// exists.
func DefaultConfig() Config {
	return Config{
		Bind:     "0.0.0.0:10000",
		ModelDir: "models",
		LogLevel: "info",
		CORS: CORSConfig{
			// The API is consumed by a browser frontend; origins are
			// expected to be narrowed per deployment via serving.yaml.
			AllowedOrigins: []string{"*"},
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Timeouts: TimeoutConfig{
			Read:     10 * time.Second,
			Write:    30 * time.Second,
			Shutdown: 15 * time.Second,
		},
	}
}

// LoadConfig reads a YAML config file and merges it over the defaults.
// A missing file is not an error — the defaults apply; a present but
// malformed file is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// validate rejects values the server cannot run with.
func (c *Config) validate() error {
	if c.Bind == "" {
		return fmt.Errorf("bind must not be empty")
	}
	if c.ModelDir == "" {
		return fmt.Errorf("modelDir must not be empty")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rateLimit values must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		// A zero burst with a positive rate would reject every request.
		c.RateLimit.Burst = c.RateLimit.RequestsPerSecond
	}
	return nil
}

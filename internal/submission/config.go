package submission

import (
	"fmt"
	"os"
	"time"
)

// Config holds settings for the downstream logistics gateway.
type Config struct {
	BaseURL    string `toml:"base_url"`
	SubmitPath string `toml:"submit_path"`
	PingPath   string `toml:"ping_path"`
	APIKey     string `toml:"api_key"`
	Timeout    string `toml:"timeout"`
}

// Env maps submission config fields to environment variable names.
type Env struct {
	BaseURL string
	APIKey  string
	Timeout string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay where non-empty.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.SubmitPath != "" {
		c.SubmitPath = overlay.SubmitPath
	}
	if overlay.PingPath != "" {
		c.PingPath = overlay.PingPath
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

// TimeoutDuration returns the parsed request timeout. Finalize validates the
// value, so parsing here cannot fail.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *Config) loadDefaults() {
	if c.SubmitPath == "" {
		c.SubmitPath = "/documents"
	}
	if c.PingPath == "" {
		c.PingPath = "/ping"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("submission base url is required")
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid submission timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("submission timeout must be positive, got %q", c.Timeout)
	}
	return nil
}

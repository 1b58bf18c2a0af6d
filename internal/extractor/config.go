package extractor

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds extraction strategy settings. When Enabled is false or
// Command is empty, the deterministic template strategy is used.
type Config struct {
	Enabled bool     `toml:"enabled"`
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	TempDir string   `toml:"temp_dir"`
	Timeout string   `toml:"timeout"`
}

// Env maps extraction config fields to environment variable names.
type Env struct {
	Enabled string
	Command string
	TempDir string
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

// Merge overwrites fields from overlay. Enabled always applies; other fields
// only apply when non-empty.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled

	if overlay.Command != "" {
		c.Command = overlay.Command
	}
	if overlay.Args != nil {
		c.Args = overlay.Args
	}
	if overlay.TempDir != "" {
		c.TempDir = overlay.TempDir
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

// TimeoutDuration returns the parsed timeout. Finalize validates the value,
// so parsing here cannot fail.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *Config) loadDefaults() {
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.Command != "" {
		if v := os.Getenv(env.Command); v != "" {
			c.Command = v
		}
	}
	if env.TempDir != "" {
		if v := os.Getenv(env.TempDir); v != "" {
			c.TempDir = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid extraction timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("extraction timeout must be positive, got %q", c.Timeout)
	}
	if c.Enabled && c.Command == "" {
		return fmt.Errorf("extraction command required when extraction enabled")
	}
	return nil
}

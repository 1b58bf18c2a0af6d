package scheduler

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds background processing settings.
type Config struct {
	Enabled   bool   `toml:"enabled"`
	Interval  string `toml:"interval"`
	BatchSize int    `toml:"batch_size"`
}

// Env maps scheduler config fields to environment variable names.
type Env struct {
	Enabled   string
	Interval  string
	BatchSize string
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
// only apply when non-zero.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled

	if overlay.Interval != "" {
		c.Interval = overlay.Interval
	}
	if overlay.BatchSize > 0 {
		c.BatchSize = overlay.BatchSize
	}
}

// IntervalDuration returns the parsed sweep interval. Finalize validates the
// value, so parsing here cannot fail.
func (c *Config) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

func (c *Config) loadDefaults() {
	if c.Interval == "" {
		c.Interval = "30s"
	}
	if c.BatchSize == 0 {
		c.BatchSize = 5
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
	if env.Interval != "" {
		if v := os.Getenv(env.Interval); v != "" {
			c.Interval = v
		}
	}
	if env.BatchSize != "" {
		if v := os.Getenv(env.BatchSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.BatchSize = n
			}
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return fmt.Errorf("invalid scheduler interval %q: %w", c.Interval, err)
	}
	if d <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %q", c.Interval)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("scheduler batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}

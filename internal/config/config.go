// Package config loads the root service configuration from TOML files with
// environment variable overrides. A base config.toml may be overlaid by
// config.<env>.toml selected through WAYBILL_ENV.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/waybill/internal/extractor"
	"github.com/JaimeStill/waybill/internal/scheduler"
	"github.com/JaimeStill/waybill/internal/submission"
	"github.com/JaimeStill/waybill/pkg/database"
	"github.com/JaimeStill/waybill/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvWaybillEnv             = "WAYBILL_ENV"
	EnvWaybillShutdownTimeout = "WAYBILL_SHUTDOWN_TIMEOUT"
	EnvWaybillVersion         = "WAYBILL_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "WAYBILL_DB_HOST",
	Port:            "WAYBILL_DB_PORT",
	Name:            "WAYBILL_DB_NAME",
	User:            "WAYBILL_DB_USER",
	Password:        "WAYBILL_DB_PASSWORD",
	SSLMode:         "WAYBILL_DB_SSL_MODE",
	MaxOpenConns:    "WAYBILL_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "WAYBILL_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "WAYBILL_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "WAYBILL_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "WAYBILL_STORAGE_CONTAINER_NAME",
	ConnectionString: "WAYBILL_STORAGE_CONNECTION_STRING",
}

var extractionEnv = &extractor.Env{
	Enabled: "WAYBILL_EXTRACTION_ENABLED",
	Command: "WAYBILL_EXTRACTION_COMMAND",
	TempDir: "WAYBILL_EXTRACTION_TEMP_DIR",
	Timeout: "WAYBILL_EXTRACTION_TIMEOUT",
}

var schedulerEnv = &scheduler.Env{
	Enabled:   "WAYBILL_SCHEDULER_ENABLED",
	Interval:  "WAYBILL_SCHEDULER_INTERVAL",
	BatchSize: "WAYBILL_SCHEDULER_BATCH_SIZE",
}

var submissionEnv = &submission.Env{
	BaseURL: "WAYBILL_SUBMISSION_BASE_URL",
	APIKey:  "WAYBILL_SUBMISSION_API_KEY",
	Timeout: "WAYBILL_SUBMISSION_TIMEOUT",
}

// Config is the root configuration for the Waybill service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	API             APIConfig         `toml:"api"`
	Extraction      extractor.Config  `toml:"extraction"`
	Scheduler       scheduler.Config  `toml:"scheduler"`
	Submission      submission.Config `toml:"submission"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the WAYBILL_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvWaybillEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Extraction.Merge(&overlay.Extraction)
	c.Scheduler.Merge(&overlay.Scheduler)
	c.Submission.Merge(&overlay.Submission)
}

// Finalize applies defaults, environment overrides, and validation across
// the root config and every sub-config.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Extraction.Finalize(extractionEnv); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if err := c.Scheduler.Finalize(schedulerEnv); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.Submission.Finalize(submissionEnv); err != nil {
		return fmt.Errorf("submission: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvWaybillShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvWaybillVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvWaybillEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

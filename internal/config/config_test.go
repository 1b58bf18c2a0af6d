package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/waybill/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WAYBILL_DB_NAME", "waybill")
	t.Setenv("WAYBILL_DB_USER", "waybill")
	t.Setenv("WAYBILL_STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")
	t.Setenv("WAYBILL_SUBMISSION_BASE_URL", "http://localhost:9000")
}

func TestFinalizeDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := &config.Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ShutdownTimeout != "30s" {
		t.Errorf("shutdown_timeout = %s, want 30s", cfg.ShutdownTimeout)
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown duration = %s", cfg.ShutdownTimeoutDuration())
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Storage.ContainerName != "documents" {
		t.Errorf("container = %s, want documents", cfg.Storage.ContainerName)
	}
	if cfg.Scheduler.Interval != "30s" || cfg.Scheduler.BatchSize != 5 {
		t.Errorf("scheduler defaults = %s/%d", cfg.Scheduler.Interval, cfg.Scheduler.BatchSize)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("base path = %s, want /api", cfg.API.BasePath)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WAYBILL_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("WAYBILL_DB_HOST", "db.internal")
	t.Setenv("WAYBILL_SCHEDULER_INTERVAL", "2m")
	t.Setenv("WAYBILL_SUBMISSION_API_KEY", "from-env")

	cfg := &config.Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ShutdownTimeout != "5s" {
		t.Errorf("shutdown_timeout = %s, want 5s", cfg.ShutdownTimeout)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("database host = %s", cfg.Database.Host)
	}
	if cfg.Scheduler.Interval != "2m" {
		t.Errorf("scheduler interval = %s", cfg.Scheduler.Interval)
	}
	if cfg.Submission.APIKey != "from-env" {
		t.Errorf("submission api key = %s", cfg.Submission.APIKey)
	}
}

func TestFinalizeMissingSubmissionBaseURL(t *testing.T) {
	t.Setenv("WAYBILL_DB_NAME", "waybill")
	t.Setenv("WAYBILL_DB_USER", "waybill")
	t.Setenv("WAYBILL_STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")

	cfg := &config.Config{}
	err := cfg.Finalize()
	if err == nil {
		t.Fatal("expected error without submission base url")
	}
	if !strings.Contains(err.Error(), "submission") {
		t.Errorf("error should name the failing section: %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := &config.Config{ShutdownTimeout: "30s", Version: "0.1.0"}
	base.Database.Host = "localhost"
	base.Scheduler.BatchSize = 5

	overlay := &config.Config{Version: "1.2.0"}
	overlay.Database.Host = "db.prod"
	overlay.Submission.BaseURL = "https://logistics.example.com"

	base.Merge(overlay)

	if base.Version != "1.2.0" {
		t.Errorf("version = %s, want 1.2.0", base.Version)
	}
	if base.ShutdownTimeout != "30s" {
		t.Errorf("empty overlay field should not clear shutdown_timeout")
	}
	if base.Database.Host != "db.prod" {
		t.Errorf("database host = %s, want db.prod", base.Database.Host)
	}
	if base.Scheduler.BatchSize != 5 {
		t.Errorf("scheduler batch size = %d, want 5", base.Scheduler.BatchSize)
	}
	if base.Submission.BaseURL != "https://logistics.example.com" {
		t.Errorf("submission base url = %s", base.Submission.BaseURL)
	}
}

func TestEnvName(t *testing.T) {
	cfg := &config.Config{}
	if cfg.Env() != "local" {
		t.Errorf("env = %s, want local", cfg.Env())
	}

	t.Setenv("WAYBILL_ENV", "staging")
	if cfg.Env() != "staging" {
		t.Errorf("env = %s, want staging", cfg.Env())
	}
}

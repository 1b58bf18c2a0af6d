package extractor_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/JaimeStill/waybill/internal/extractor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProcess(t *testing.T, script, timeout string) *extractor.Process {
	t.Helper()

	cfg := &extractor.Config{
		Enabled: true,
		Command: "/bin/sh",
		Args:    []string{"-c", script},
		TempDir: t.TempDir(),
		Timeout: timeout,
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	return extractor.NewProcess(cfg, testLogger())
}

func TestProcessSuccess(t *testing.T) {
	p := newProcess(t, `echo '{"driver": "J. Weber", "vehicle": "HH-AB 123"}'`, "5s")

	result := p.Extract(context.Background(), []byte("%PDF-1.4"), "report.pdf")
	if !result.Success {
		t.Fatalf("expected success, got failure: %s", result.Err)
	}
	if result.NeedsReview {
		t.Error("successful process extraction should not require review")
	}

	var payload map[string]string
	if err := json.Unmarshal(result.Payload, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload["driver"] != "J. Weber" {
		t.Errorf("driver = %q", payload["driver"])
	}
	if result.Fields["driver"] != "J. Weber" {
		t.Errorf("header fields not extracted: %v", result.Fields)
	}
}

func TestProcessExitFailure(t *testing.T) {
	p := newProcess(t, `echo "boom" >&2; exit 3`, "5s")

	result := p.Extract(context.Background(), []byte("%PDF-1.4"), "report.pdf")
	if result.Success {
		t.Fatal("expected fallback on process failure")
	}
	if !strings.Contains(result.Err, "boom") {
		t.Errorf("failure should carry stderr detail: %s", result.Err)
	}
	if !json.Valid(result.Payload) {
		t.Error("fallback payload should still be valid JSON")
	}
}

func TestProcessMalformedOutput(t *testing.T) {
	p := newProcess(t, `echo 'not json at all'`, "5s")

	result := p.Extract(context.Background(), []byte("%PDF-1.4"), "report.pdf")
	if result.Success {
		t.Fatal("expected fallback on malformed output")
	}
	if !strings.Contains(result.Err, "malformed") {
		t.Errorf("unexpected failure reason: %s", result.Err)
	}
}

func TestProcessEmptyOutput(t *testing.T) {
	p := newProcess(t, `true`, "5s")

	result := p.Extract(context.Background(), []byte("%PDF-1.4"), "report.pdf")
	if result.Success {
		t.Fatal("expected fallback on empty output")
	}
	if !strings.Contains(result.Err, "no output") {
		t.Errorf("unexpected failure reason: %s", result.Err)
	}
}

func TestProcessTimeout(t *testing.T) {
	p := newProcess(t, `sleep 5`, "100ms")

	result := p.Extract(context.Background(), []byte("%PDF-1.4"), "report.pdf")
	if result.Success {
		t.Fatal("expected fallback on timeout")
	}
	if !strings.Contains(result.Err, "timed out") {
		t.Errorf("unexpected failure reason: %s", result.Err)
	}
}

func TestProcessFallbackUsesTemplate(t *testing.T) {
	p := newProcess(t, `exit 1`, "5s")

	result := p.Extract(context.Background(), []byte("%PDF-1.4"),
		"PODReport_M03_714019_101270380_6X503_20260115.pdf")

	var payload struct {
		Client string `json:"client"`
		Tour   string `json:"tour"`
	}
	if err := json.Unmarshal(result.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Client != "M03" || payload.Tour != "6X503" {
		t.Errorf("fallback should derive fields from the filename: %+v", payload)
	}
}

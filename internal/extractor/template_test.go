package extractor_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/JaimeStill/waybill/internal/extractor"
)

func TestTemplateDeterministic(t *testing.T) {
	tmpl := extractor.Template{}

	first := tmpl.Extract(context.Background(), []byte("%PDF-1.4"), "PODReport_M03_714019_101270380_6X503_20260115.pdf")
	second := tmpl.Extract(context.Background(), nil, "PODReport_M03_714019_101270380_6X503_20260115.pdf")

	if !bytes.Equal(first.Payload, second.Payload) {
		t.Error("template output should depend only on the filename")
	}
	if !first.Success {
		t.Error("direct template extraction should succeed")
	}
	if !first.NeedsReview {
		t.Error("template payloads always require review")
	}
}

func TestTemplateFilenameFields(t *testing.T) {
	result := extractor.Template{}.Extract(context.Background(), nil,
		"PODReport_M03_714019_101270380_6X503_20260115.pdf")

	var payload struct {
		Filename string `json:"filename"`
		Client   string `json:"client"`
		Branch   string `json:"branch"`
		Tour     string `json:"tour"`
		Driver   string `json:"driver"`
	}
	if err := json.Unmarshal(result.Payload, &payload); err != nil {
		t.Fatalf("template payload is not valid JSON: %v", err)
	}

	if payload.Client != "M03" {
		t.Errorf("client = %q, want M03", payload.Client)
	}
	if payload.Branch != "714019" {
		t.Errorf("branch = %q, want 714019", payload.Branch)
	}
	if payload.Tour != "6X503" {
		t.Errorf("tour = %q, want 6X503", payload.Tour)
	}
	if payload.Driver != "" {
		t.Errorf("driver should be an empty placeholder, got %q", payload.Driver)
	}
}

func TestTemplateShortFilename(t *testing.T) {
	result := extractor.Template{}.Extract(context.Background(), nil, "scan.pdf")

	if !json.Valid(result.Payload) {
		t.Fatal("short filename should still produce valid JSON")
	}

	var payload struct {
		Filename string `json:"filename"`
		Client   string `json:"client"`
	}
	if err := json.Unmarshal(result.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Filename != "scan.pdf" {
		t.Errorf("filename = %q, want scan.pdf", payload.Filename)
	}
	if payload.Client != "" {
		t.Errorf("client should be empty for a short filename, got %q", payload.Client)
	}
}

func TestForConfig(t *testing.T) {
	logger := testLogger()

	disabled := extractor.ForConfig(&extractor.Config{Enabled: false}, logger)
	if disabled.Name() != "template" {
		t.Errorf("disabled config should use template, got %s", disabled.Name())
	}

	cfg := &extractor.Config{Enabled: true, Command: "/usr/bin/true", Timeout: "60s"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	enabled := extractor.ForConfig(cfg, logger)
	if enabled.Name() != "process" {
		t.Errorf("enabled config should use process, got %s", enabled.Name())
	}
}

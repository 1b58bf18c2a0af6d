// Package extractor implements the extraction strategy for delivery-report
// PDFs. Two strategies produce the same result shape: an external OCR process
// invoked with a scoped temp file, and a deterministic template derived from
// the filename alone. The process strategy degrades to the template on any
// failure, so extraction never propagates an error past this package.
package extractor

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Result is the outcome of one extraction attempt. Payload is always
// well-formed JSON: the extractor's output on success, the fallback template
// otherwise. Err records the specific failure when Success is false.
// NeedsReview marks payloads that require human confirmation before the
// document can count as extracted; every template-derived payload does.
type Result struct {
	Success     bool
	NeedsReview bool
	Payload     json.RawMessage
	Err         string
	Fields      map[string]string
}

// Strategy produces structured data from raw PDF content.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, content []byte, filename string) Result
}

// ForConfig selects the strategy for the given configuration: the external
// process when enabled and configured, the deterministic template otherwise.
func ForConfig(cfg *Config, logger *slog.Logger) Strategy {
	if cfg.Enabled && cfg.Command != "" {
		return NewProcess(cfg, logger)
	}
	return Template{}
}

// headerFields pulls a few top-level string fields out of an extraction
// payload for log correlation.
func headerFields(payload []byte) map[string]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}

	fields := make(map[string]string)
	for _, key := range []string{"driver", "vehicle", "tour"} {
		var v string
		if data, ok := raw[key]; ok {
			if err := json.Unmarshal(data, &v); err == nil && v != "" {
				fields[key] = v
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

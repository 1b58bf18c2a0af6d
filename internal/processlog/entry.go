// Package processlog records pipeline diagnostics in a durable, queryable
// log alongside structured logging. Entries reference the document they
// concern so operators can trace a single report through ingest, extraction,
// review, and submission.
package processlog

import (
	"fmt"
	"strings"
	"time"
)

// Entry levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Entry is a persisted diagnostic record.
type Entry struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Level      string    `json:"level"`
	Source     string    `json:"source"`
	Message    string    `json:"message"`
	Detail     *string   `json:"detail,omitempty"`
	DocumentID *int64    `json:"document_id,omitempty"`
}

// Ref identifies the document an entry concerns. The zero value records an
// entry with no document context.
type Ref struct {
	DocumentID *int64
	Filename   string
	ExternalID string
}

// About builds a Ref for a known document.
func About(documentID int64, filename string) Ref {
	return Ref{DocumentID: &documentID, Filename: filename}
}

// decorate prefixes message with the document context, matching the format
// used across pipeline log entries.
func (r Ref) decorate(message string) string {
	parts := make([]string, 0, 3)
	if r.DocumentID != nil {
		parts = append(parts, fmt.Sprintf("id: %d", *r.DocumentID))
	}
	if r.Filename != "" {
		parts = append(parts, "file: "+r.Filename)
	}
	if r.ExternalID != "" {
		parts = append(parts, "external: "+r.ExternalID)
	}

	if len(parts) == 0 {
		return message
	}
	return "[" + strings.Join(parts, ", ") + "] " + message
}

// Package extractions maintains the versioned ledger of extraction results.
// The ledger is append-only: automated extraction writes version 1 and every
// reviewer save appends the next version, so the full revision history of a
// document survives any edit.
package extractions

import (
	"encoding/json"
	"time"
)

// Revision is one entry in a document's extraction ledger. IsValidated
// marks revisions a reviewer has confirmed; automated extraction never sets
// it. ValidationNotes carry the reviewer's remarks alongside the confirmed
// payload.
type Revision struct {
	ID              int64           `json:"id"`
	DocumentID      int64           `json:"document_id"`
	Version         int             `json:"version"`
	Payload         json.RawMessage `json:"payload"`
	ExtractedAt     time.Time       `json:"extracted_at"`
	ModifiedBy      *string         `json:"modified_by,omitempty"`
	IsValidated     bool            `json:"is_validated"`
	ValidationNotes *string         `json:"validation_notes,omitempty"`
}

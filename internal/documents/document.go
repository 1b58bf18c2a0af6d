// Package documents manages scanned delivery-report PDFs through their full
// lifecycle: ingest with duplicate detection, automated extraction, reviewer
// claims and corrections, and hand-off to submission. Raw content lives in
// blob storage; all state lives in the database.
package documents

import (
	"time"
)

// Document is the metadata record for one ingested delivery-report PDF.
type Document struct {
	ID              int64      `json:"id"`
	ExternalID      string     `json:"external_id"`
	Filename        string     `json:"filename"`
	SizeBytes       int64      `json:"size_bytes"`
	Fingerprint     string     `json:"fingerprint"`
	PageCount       *int       `json:"page_count,omitempty"`
	StorageKey      string     `json:"storage_key"`
	Status          Status     `json:"status"`
	ProcessingError *string    `json:"processing_error,omitempty"`
	SourceSystem    *string    `json:"source_system,omitempty"`
	ReceivedAt      time.Time  `json:"received_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ClaimedBy       *string    `json:"claimed_by,omitempty"`
	ClaimedName     *string    `json:"claimed_name,omitempty"`
	ClaimedAt       *time.Time `json:"claimed_at,omitempty"`
	HasExtraction   bool       `json:"has_extraction"`
}

// Claimed reports whether any reviewer currently holds the document.
func (d *Document) Claimed() bool {
	return d.ClaimedBy != nil && *d.ClaimedBy != ""
}

// EditableBy reports whether the given reviewer may modify the document:
// either it is unclaimed or the reviewer holds the claim.
func (d *Document) EditableBy(userID string) bool {
	return !d.Claimed() || *d.ClaimedBy == userID
}

// ReceiveCommand carries everything needed to ingest one document.
type ReceiveCommand struct {
	ExternalID   string
	Filename     string
	Content      []byte
	SourceSystem *string
}

// DocumentFilters narrows document list queries.
type DocumentFilters struct {
	Status       *string `json:"status,omitempty"`
	ExternalID   *string `json:"external_id,omitempty"`
	Filename     *string `json:"filename,omitempty"`
	SourceSystem *string `json:"source_system,omitempty"`
	ClaimedBy    *string `json:"claimed_by,omitempty"`
}

package documents

import (
	"fmt"

	"github.com/JaimeStill/waybill/pkg/query"
	"github.com/JaimeStill/waybill/pkg/repository"
)

// projection maps view properties to document columns. has_extraction is
// computed so list views can show extraction presence without a join fetch.
var projection = query.NewProjectionMap("public", "documents", "d").
	Project("id", "id").
	Project("external_id", "external_id").
	Project("filename", "filename").
	Project("size_bytes", "size_bytes").
	Project("fingerprint", "fingerprint").
	Project("page_count", "page_count").
	Project("storage_key", "storage_key").
	Project("status", "status").
	Project("processing_error", "processing_error").
	Project("source_system", "source_system").
	Project("received_at", "received_at").
	Project("processed_at", "processed_at").
	Project("claimed_by", "claimed_by").
	Project("claimed_name", "claimed_name").
	Project("claimed_at", "claimed_at").
	ProjectExpr("EXISTS (SELECT 1 FROM extractions e WHERE e.document_id = d.id)", "has_extraction")

func newBuilder() *query.Builder {
	return query.NewBuilder(projection, query.SortField{Field: "received_at", Descending: true})
}

func applyFilters(b *query.Builder, filters DocumentFilters) {
	b.WhereEquals("status", filters.Status).
		WhereEquals("external_id", filters.ExternalID).
		WhereContains("filename", filters.Filename).
		WhereEquals("source_system", filters.SourceSystem).
		WhereEquals("claimed_by", filters.ClaimedBy)
}

// scanDocument scans a projected row. The stored status string is validated
// on the way out so database corruption surfaces as an error.
func scanDocument(s repository.Scanner) (Document, error) {
	var (
		doc    Document
		status string
	)

	err := s.Scan(
		&doc.ID,
		&doc.ExternalID,
		&doc.Filename,
		&doc.SizeBytes,
		&doc.Fingerprint,
		&doc.PageCount,
		&doc.StorageKey,
		&status,
		&doc.ProcessingError,
		&doc.SourceSystem,
		&doc.ReceivedAt,
		&doc.ProcessedAt,
		&doc.ClaimedBy,
		&doc.ClaimedName,
		&doc.ClaimedAt,
		&doc.HasExtraction,
	)
	if err != nil {
		return doc, err
	}

	doc.Status, err = ParseStatus(status)
	if err != nil {
		return doc, fmt.Errorf("document %d: %w", doc.ID, err)
	}

	return doc, nil
}

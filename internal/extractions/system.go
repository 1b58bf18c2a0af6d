package extractions

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
)

// System manages the extraction ledger.
type System interface {
	Handler() *Handler

	// Append writes the next revision for a document. Versions are assigned
	// by the ledger, not the caller; a concurrent append is retried.
	Append(ctx context.Context, documentID int64, payload json.RawMessage, modifiedBy *string) (*Revision, error)
	// Current returns the highest-version revision for a document.
	Current(ctx context.Context, documentID int64) (*Revision, error)
	// History returns all revisions for a document, newest first.
	History(ctx context.Context, documentID int64) ([]Revision, error)
}

// New creates an extractions system backed by the given database.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "extractions"),
	}
}

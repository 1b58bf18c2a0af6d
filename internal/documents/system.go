package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/JaimeStill/waybill/internal/extractions"
	"github.com/JaimeStill/waybill/internal/extractor"
	"github.com/JaimeStill/waybill/internal/notifications"
	"github.com/JaimeStill/waybill/internal/processlog"
	"github.com/JaimeStill/waybill/pkg/pagination"
	"github.com/JaimeStill/waybill/pkg/storage"
)

// System manages the document lifecycle.
type System interface {
	Handler(maxUploadBytes int64) *Handler

	// Receive ingests one document: duplicate detection, content storage,
	// metadata persistence, then a synchronous first-pass extraction that
	// leaves the document in pending_review. A duplicate is rejected with a
	// *DuplicateError naming the conflicting document.
	Receive(ctx context.Context, cmd ReceiveCommand) (*Document, error)
	// Process runs the extraction pipeline for a document in the received
	// state. It is a no-op when another worker already picked the document up.
	Process(ctx context.Context, id int64) error

	List(ctx context.Context, req pagination.PageRequest, filters DocumentFilters) (*pagination.PageResult[Document], error)
	Find(ctx context.Context, id int64) (*Document, error)
	// Content returns the document metadata along with its raw PDF bytes.
	Content(ctx context.Context, id int64) (*Document, []byte, error)
	// Queue returns the oldest documents awaiting processing.
	Queue(ctx context.Context, limit int) ([]Document, error)

	// SaveExtraction appends a validated reviewer revision, with optional
	// validation notes, and moves the document to reviewed. The save is
	// rejected when the document is claimed by another reviewer or is not
	// in a reviewable state.
	SaveExtraction(ctx context.Context, id int64, payload json.RawMessage, notes *string, userID, userName string) (*extractions.Revision, error)

	// Claim takes exclusive review ownership. Returns false without error
	// when another reviewer already holds the document.
	Claim(ctx context.Context, id int64, userID, userName string) (bool, error)
	// Unclaim releases ownership. Returns false without error when the
	// caller does not hold the claim.
	Unclaim(ctx context.Context, id int64, userID string) (bool, error)
	CanEdit(ctx context.Context, id int64, userID string) (bool, error)

	// Transition moves a document to the given status, enforcing the
	// lifecycle state machine against the current committed state.
	Transition(ctx context.Context, id int64, to Status) error

	Delete(ctx context.Context, id int64) error
	// DeleteAll removes every document and reports how many were deleted.
	DeleteAll(ctx context.Context) (int64, error)
}

// Options collects the collaborators a document system needs.
type Options struct {
	DB         *sql.DB
	Store      storage.System
	Strategy   extractor.Strategy
	Logs       processlog.System
	Notifier   notifications.Sink
	Logger     *slog.Logger
	Pagination pagination.Config
}

// New creates a document system.
func New(opts Options) System {
	return &repo{
		db:       opts.DB,
		store:    opts.Store,
		strategy: opts.Strategy,
		logs:     opts.Logs,
		notifier: opts.Notifier,
		logger:   opts.Logger.With("system", "documents"),
		pages:    opts.Pagination,
	}
}

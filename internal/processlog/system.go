package processlog

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// System records and queries persisted pipeline diagnostics. The record
// methods (Info, Warn, Error) are fire-and-forget: a failed write is reported
// through structured logging but never interrupts the pipeline.
type System interface {
	Handler() *Handler

	Info(ctx context.Context, source, message string, ref Ref)
	Warn(ctx context.Context, source, message string, ref Ref)
	Error(ctx context.Context, source, message string, detail *string, ref Ref)

	Recent(ctx context.Context, count int) ([]Entry, error)
	Range(ctx context.Context, from, to time.Time) ([]Entry, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) (int64, error)
	Prune(ctx context.Context, keepDays int) (int64, error)
}

// New creates a processlog system backed by the given database.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "processlog"),
	}
}

package processlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/waybill/pkg/repository"
)

const entryColumns = "id, timestamp, level, source, message, detail, document_id"

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Info(ctx context.Context, source, message string, ref Ref) {
	r.record(ctx, LevelInfo, source, ref.decorate(message), nil, ref.DocumentID)
}

func (r *repo) Warn(ctx context.Context, source, message string, ref Ref) {
	r.record(ctx, LevelWarning, source, ref.decorate(message), nil, ref.DocumentID)
}

func (r *repo) Error(ctx context.Context, source, message string, detail *string, ref Ref) {
	r.record(ctx, LevelError, source, ref.decorate(message), detail, ref.DocumentID)
}

func (r *repo) record(ctx context.Context, level, source, message string, detail *string, documentID *int64) {
	query := `
		INSERT INTO processing_logs (timestamp, level, source, message, detail, document_id)
		VALUES (NOW(), $1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query, level, source, message, detail, documentID); err != nil {
		r.logger.Error("log entry write failed",
			"level", level,
			"source", source,
			"message", message,
			"error", err)
	}
}

func (r *repo) Recent(ctx context.Context, count int) ([]Entry, error) {
	if count < 1 {
		count = 100
	}

	query := fmt.Sprintf(`
		SELECT %s FROM processing_logs
		ORDER BY timestamp DESC
		LIMIT $1`, entryColumns)

	return repository.QueryMany(ctx, r.db, query, []any{count}, scanEntry)
}

func (r *repo) Range(ctx context.Context, from, to time.Time) ([]Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM processing_logs
		WHERE timestamp >= $1 AND timestamp <= $2
		ORDER BY timestamp DESC`, entryColumns)

	return repository.QueryMany(ctx, r.db, query, []any{from, to}, scanEntry)
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM processing_logs WHERE id = $1", id)
	return repository.MapError(err, ErrNotFound, nil)
}

func (r *repo) Clear(ctx context.Context) (int64, error) {
	return repository.ExecAffected(ctx, r.db, "DELETE FROM processing_logs")
}

func (r *repo) Prune(ctx context.Context, keepDays int) (int64, error) {
	if keepDays < 1 {
		return 0, fmt.Errorf("keep days must be positive, got %d", keepDays)
	}

	removed, err := repository.ExecAffected(ctx, r.db,
		"DELETE FROM processing_logs WHERE timestamp < NOW() - make_interval(days => $1)",
		keepDays)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		r.logger.Info("log entries pruned", "removed", removed, "keep_days", keepDays)
	}
	return removed, nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var entry Entry
	err := s.Scan(
		&entry.ID,
		&entry.Timestamp,
		&entry.Level,
		&entry.Source,
		&entry.Message,
		&entry.Detail,
		&entry.DocumentID,
	)
	return entry, err
}

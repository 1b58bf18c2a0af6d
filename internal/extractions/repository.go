package extractions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/waybill/pkg/repository"
)

const revisionColumns = "id, document_id, version, payload, extracted_at, modified_by, is_validated, validation_notes"

const appendAttempts = 3

// AppendIn writes the next revision for a document using the given querier,
// allowing callers to compose the append with other statements in one
// transaction. The version is computed from the current ledger maximum; the
// unique (document_id, version) constraint catches concurrent appends, which
// surface as ErrVersionConflict.
func AppendIn(ctx context.Context, q repository.Querier, documentID int64, payload json.RawMessage, modifiedBy *string, validated bool, notes *string) (Revision, error) {
	if !json.Valid(payload) {
		return Revision{}, ErrInvalidPayload
	}

	query := fmt.Sprintf(`
		INSERT INTO extractions (document_id, version, payload, extracted_at, modified_by, is_validated, validation_notes)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2, NOW(), $3, $4, $5
		FROM extractions WHERE document_id = $1
		RETURNING %s`, revisionColumns)

	revision, err := repository.QueryOne(ctx, q, query,
		[]any{documentID, payload, modifiedBy, validated, notes}, scanRevision)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return Revision{}, ErrVersionConflict
		}
		return Revision{}, err
	}

	return revision, nil
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Append(ctx context.Context, documentID int64, payload json.RawMessage, modifiedBy *string) (*Revision, error) {
	var lastErr error

	for attempt := 0; attempt < appendAttempts; attempt++ {
		revision, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Revision, error) {
			return AppendIn(ctx, tx, documentID, payload, modifiedBy, false, nil)
		})
		if err == nil {
			r.logger.Info("revision appended",
				"document_id", documentID,
				"version", revision.Version)
			return &revision, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (r *repo) Current(ctx context.Context, documentID int64) (*Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM extractions
		WHERE document_id = $1
		ORDER BY version DESC
		LIMIT 1`, revisionColumns)

	revision, err := repository.QueryOne(ctx, r.db, query, []any{documentID}, scanRevision)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, nil)
	}
	return &revision, nil
}

func (r *repo) History(ctx context.Context, documentID int64) ([]Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM extractions
		WHERE document_id = $1
		ORDER BY version DESC`, revisionColumns)

	return repository.QueryMany(ctx, r.db, query, []any{documentID}, scanRevision)
}

func scanRevision(s repository.Scanner) (Revision, error) {
	var revision Revision
	err := s.Scan(
		&revision.ID,
		&revision.DocumentID,
		&revision.Version,
		&revision.Payload,
		&revision.ExtractedAt,
		&revision.ModifiedBy,
		&revision.IsValidated,
		&revision.ValidationNotes,
	)
	return revision, err
}

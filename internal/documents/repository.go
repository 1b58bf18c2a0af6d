package documents

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/waybill/internal/extractions"
	"github.com/JaimeStill/waybill/internal/extractor"
	"github.com/JaimeStill/waybill/internal/notifications"
	"github.com/JaimeStill/waybill/internal/processlog"
	"github.com/JaimeStill/waybill/pkg/pagination"
	"github.com/JaimeStill/waybill/pkg/query"
	"github.com/JaimeStill/waybill/pkg/repository"
	"github.com/JaimeStill/waybill/pkg/storage"
)

// errSaveRejected marks a reviewer save whose conditional update touched no
// rows; the cause is classified afterwards from committed state.
var errSaveRejected = errors.New("save rejected")

type repo struct {
	db       *sql.DB
	store    storage.System
	strategy extractor.Strategy
	logs     processlog.System
	notifier notifications.Sink
	logger   *slog.Logger
	pages    pagination.Config
}

func (r *repo) Handler(maxUploadBytes int64) *Handler {
	return NewHandler(r, maxUploadBytes, r.pages, r.logger)
}

func (r *repo) Receive(ctx context.Context, cmd ReceiveCommand) (*Document, error) {
	if cmd.ExternalID == "" {
		return nil, fmt.Errorf("%w: external id is required", ErrInvalidFile)
	}
	if len(cmd.Content) == 0 || !bytes.HasPrefix(cmd.Content, []byte("%PDF")) {
		return nil, ErrInvalidFile
	}

	sum := sha256.Sum256(cmd.Content)
	fingerprint := hex.EncodeToString(sum[:])

	if dup, err := r.duplicateOf(ctx, cmd.ExternalID, fingerprint); err != nil {
		return nil, err
	} else if dup != nil {
		r.logs.Warn(ctx, "documents.receive", "duplicate rejected: "+dup.Error(),
			processlog.Ref{DocumentID: &dup.DocumentID, Filename: cmd.Filename, ExternalID: cmd.ExternalID})
		return nil, dup
	}

	key := fmt.Sprintf("documents/%s/%s", uuid.NewString(), cmd.Filename)
	if err := r.store.Upload(ctx, key, bytes.NewReader(cmd.Content), "application/pdf"); err != nil {
		return nil, fmt.Errorf("store document content: %w", err)
	}

	doc, err := r.insert(ctx, cmd, fingerprint, key, countPages(cmd.Content, r.logger))
	if err != nil {
		if cleanupErr := r.store.Delete(ctx, key); cleanupErr != nil {
			r.logger.Warn("orphaned blob cleanup failed", "key", key, "error", cleanupErr)
		}
		if repository.IsUniqueViolation(err) {
			// lost an ingest race; report the winner
			if dup, dupErr := r.duplicateOf(ctx, cmd.ExternalID, fingerprint); dupErr == nil && dup != nil {
				return nil, dup
			}
			return nil, ErrDuplicate
		}
		return nil, err
	}

	ref := processlog.Ref{DocumentID: &doc.ID, Filename: doc.Filename, ExternalID: doc.ExternalID}
	r.logs.Info(ctx, "documents.receive", "document received", ref)
	r.logger.Info("document received",
		"id", doc.ID,
		"external_id", doc.ExternalID,
		"filename", doc.Filename,
		"size_bytes", doc.SizeBytes)
	r.notifier.DocumentReceived(doc.ID, doc.Filename)

	if err := r.firstPass(ctx, doc, cmd.Content); err != nil {
		// the document is persisted; the scheduler retries anything still
		// in the received state
		return nil, fmt.Errorf("document %d received but extraction failed: %w", doc.ID, err)
	}

	return r.Find(ctx, doc.ID)
}

// firstPass runs the synchronous ingest extraction: appends revision v1 and
// advances the document to pending_review for reviewer confirmation. On
// failure the document stays received and the scheduler picks it up.
func (r *repo) firstPass(ctx context.Context, doc *Document, content []byte) error {
	ref := processlog.Ref{DocumentID: &doc.ID, Filename: doc.Filename, ExternalID: doc.ExternalID}

	result := r.strategy.Extract(ctx, content, doc.Filename)

	var note *string
	if !result.Success {
		note = &result.Err
		r.logs.Warn(ctx, "documents.receive", "extraction fell back to template: "+result.Err, ref)
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (extractions.Revision, error) {
		revision, err := extractions.AppendIn(ctx, tx, doc.ID, result.Payload, nil, false, nil)
		if err != nil {
			return revision, fmt.Errorf("append initial revision: %w", err)
		}

		err = repository.ExecExpectOne(ctx, tx, `
			UPDATE documents
			SET status = $2, processing_error = $3, processed_at = NOW()
			WHERE id = $1 AND status = $4`,
			doc.ID, StatusPendingReview, note, StatusReceived)
		if errors.Is(err, sql.ErrNoRows) {
			return revision, &TransitionError{From: StatusReceived, To: StatusPendingReview}
		}
		return revision, err
	})
	if err != nil {
		detail := err.Error()
		r.logs.Error(ctx, "documents.receive", "first-pass extraction failed", &detail, ref)
		return err
	}

	r.logs.Info(ctx, "documents.receive", "awaiting review", ref)
	r.logger.Info("first-pass extraction complete",
		"id", doc.ID,
		"strategy", r.strategy.Name())
	r.notifier.DocumentStatusChanged(doc.ID, string(StatusPendingReview))
	return nil
}

func (r *repo) Process(ctx context.Context, id int64) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	started, err := r.beginProcessing(ctx, id)
	if err != nil {
		return err
	}
	if !started {
		return nil
	}

	ref := processlog.Ref{DocumentID: &id, Filename: doc.Filename, ExternalID: doc.ExternalID}

	_, content, err := r.Content(ctx, id)
	if err != nil {
		detail := err.Error()
		r.logs.Error(ctx, "documents.process", "content retrieval failed", &detail, ref)
		note := "content retrieval failed: " + err.Error()
		if finishErr := r.finishProcessing(ctx, id, StatusError, &note); finishErr != nil {
			return errors.Join(err, finishErr)
		}
		return err
	}

	result := r.strategy.Extract(ctx, content, doc.Filename)

	outcome := StatusExtracted
	var note *string
	if result.NeedsReview {
		outcome = StatusPendingReview
	}
	if !result.Success {
		note = &result.Err
		r.logs.Warn(ctx, "documents.process", "extraction fell back to template: "+result.Err, ref)
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (extractions.Revision, error) {
		revision, err := extractions.AppendIn(ctx, tx, id, result.Payload, nil, false, nil)
		if err != nil {
			return revision, fmt.Errorf("append initial revision: %w", err)
		}
		return revision, finishProcessingIn(ctx, tx, id, outcome, note)
	})
	if err != nil {
		detail := err.Error()
		r.logs.Error(ctx, "documents.process", "processing failed", &detail, ref)
		errNote := err.Error()
		if finishErr := r.finishProcessing(ctx, id, StatusError, &errNote); finishErr != nil {
			return errors.Join(err, finishErr)
		}
		r.notifier.DocumentStatusChanged(id, string(StatusError))
		return err
	}

	r.logs.Info(ctx, "documents.process", "processing complete: "+string(outcome), ref)
	r.logger.Info("document processed",
		"id", id,
		"status", outcome,
		"strategy", r.strategy.Name())
	r.notifier.DocumentStatusChanged(id, string(outcome))
	return nil
}

func (r *repo) List(ctx context.Context, req pagination.PageRequest, filters DocumentFilters) (*pagination.PageResult[Document], error) {
	if filters.Status != nil {
		if _, err := ParseStatus(*filters.Status); err != nil {
			return nil, err
		}
	}

	b := newBuilder()
	applyFilters(b, filters)
	b.WhereSearch(req.Search, "filename", "external_id").
		OrderByFields(req.Sort)

	countQuery, countArgs := b.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	pageQuery, pageArgs := b.BuildPage(req.Page, req.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageQuery, pageArgs, scanDocument)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(docs, total, req.Page, req.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Document, error) {
	stmt, args := newBuilder().BuildSingle("id", id)

	doc, err := repository.QueryOne(ctx, r.db, stmt, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, nil)
	}
	return &doc, nil
}

func (r *repo) Content(ctx context.Context, id int64) (*Document, []byte, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	reader, err := r.store.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("download document %d content: %w", id, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("read document %d content: %w", id, err)
	}

	return doc, content, nil
}

func (r *repo) Queue(ctx context.Context, limit int) ([]Document, error) {
	if limit < 1 {
		limit = 1
	}

	status := string(StatusReceived)
	b := newBuilder()
	b.WhereEquals("status", &status).
		OrderByFields([]query.SortField{{Field: "received_at"}})

	stmt, args := b.BuildPage(1, limit)
	return repository.QueryMany(ctx, r.db, stmt, args, scanDocument)
}

func (r *repo) SaveExtraction(ctx context.Context, id int64, payload json.RawMessage, notes *string, userID, userName string) (*extractions.Revision, error) {
	if !json.Valid(payload) {
		return nil, extractions.ErrInvalidPayload
	}
	if userID == "" {
		return nil, fmt.Errorf("reviewer identity required")
	}

	modifiedBy := userName
	if modifiedBy == "" {
		modifiedBy = userID
	}

	revision, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (extractions.Revision, error) {
		affected, err := repository.ExecAffected(ctx, tx, `
			UPDATE documents
			SET status = $2, processed_at = NOW()
			WHERE id = $1
			  AND status IN ('extracted', 'pending_review', 'reviewed')
			  AND (claimed_by IS NULL OR claimed_by = $3)`,
			id, StatusReviewed, userID)
		if err != nil {
			return extractions.Revision{}, err
		}
		if affected == 0 {
			return extractions.Revision{}, errSaveRejected
		}

		return extractions.AppendIn(ctx, tx, id, payload, &modifiedBy, true, notes)
	})
	if errors.Is(err, errSaveRejected) {
		return nil, r.classifySaveRejection(ctx, id, userID)
	}
	if err != nil {
		return nil, err
	}

	r.logs.Info(ctx, "documents.review",
		fmt.Sprintf("revision %d saved by %s", revision.Version, modifiedBy),
		processlog.About(id, ""))
	r.notifier.DocumentStatusChanged(id, string(StatusReviewed))
	return &revision, nil
}

func (r *repo) Claim(ctx context.Context, id int64, userID, userName string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("reviewer identity required")
	}

	affected, err := repository.ExecAffected(ctx, r.db, `
		UPDATE documents
		SET claimed_by = $2, claimed_name = $3, claimed_at = NOW()
		WHERE id = $1 AND (claimed_by IS NULL OR claimed_by = $2)`,
		id, userID, userName)
	if err != nil {
		return false, err
	}

	if affected == 0 {
		// missing document vs held by another reviewer
		if _, err := r.Find(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}

	r.logger.Info("document claimed", "id", id, "user", userID)
	return true, nil
}

func (r *repo) Unclaim(ctx context.Context, id int64, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("reviewer identity required")
	}

	affected, err := repository.ExecAffected(ctx, r.db, `
		UPDATE documents
		SET claimed_by = NULL, claimed_name = NULL, claimed_at = NULL
		WHERE id = $1 AND claimed_by = $2`,
		id, userID)
	if err != nil {
		return false, err
	}

	if affected == 0 {
		if _, err := r.Find(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}

	r.logger.Info("document released", "id", id, "user", userID)
	return true, nil
}

func (r *repo) CanEdit(ctx context.Context, id int64, userID string) (bool, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return false, err
	}
	return doc.EditableBy(userID), nil
}

func (r *repo) Transition(ctx context.Context, id int64, to Status) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	if !doc.Status.CanTransition(to) {
		return &TransitionError{From: doc.Status, To: to}
	}

	err = repository.ExecExpectOne(ctx, r.db,
		"UPDATE documents SET status = $2 WHERE id = $1 AND status = $3",
		id, to, doc.Status)
	if errors.Is(err, sql.ErrNoRows) {
		// the status moved underneath us
		return &TransitionError{From: doc.Status, To: to}
	}
	if err != nil {
		return err
	}

	r.logs.Info(ctx, "documents.transition",
		fmt.Sprintf("status changed: %s -> %s", doc.Status, to),
		processlog.Ref{DocumentID: &id, Filename: doc.Filename, ExternalID: doc.ExternalID})
	r.notifier.DocumentStatusChanged(id, string(to))
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	err = repository.ExecExpectOne(ctx, r.db, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, nil)
	}

	if err := r.store.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("blob delete failed", "id", id, "key", doc.StorageKey, "error", err)
	}

	r.logs.Info(ctx, "documents.delete", "document deleted",
		processlog.Ref{DocumentID: &id, Filename: doc.Filename, ExternalID: doc.ExternalID})
	r.notifier.DocumentDeleted(id)
	return nil
}

func (r *repo) DeleteAll(ctx context.Context) (int64, error) {
	keys, err := repository.QueryMany(ctx, r.db,
		"SELECT storage_key FROM documents", nil,
		func(s repository.Scanner) (string, error) {
			var key string
			err := s.Scan(&key)
			return key, err
		})
	if err != nil {
		return 0, err
	}

	removed, err := repository.ExecAffected(ctx, r.db, "DELETE FROM documents")
	if err != nil {
		return 0, err
	}

	for _, key := range keys {
		if err := r.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("blob delete failed", "key", key, "error", err)
		}
	}

	r.logs.Info(ctx, "documents.delete", fmt.Sprintf("all documents deleted (%d)", removed), processlog.Ref{})
	r.logger.Info("all documents deleted", "removed", removed)
	return removed, nil
}

func (r *repo) insert(ctx context.Context, cmd ReceiveCommand, fingerprint, key string, pageCount *int) (*Document, error) {
	doc := Document{
		ExternalID:   cmd.ExternalID,
		Filename:     cmd.Filename,
		SizeBytes:    int64(len(cmd.Content)),
		Fingerprint:  fingerprint,
		PageCount:    pageCount,
		StorageKey:   key,
		Status:       StatusReceived,
		SourceSystem: cmd.SourceSystem,
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO documents
			(external_id, filename, size_bytes, fingerprint, page_count,
			 storage_key, status, source_system, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, received_at`,
		doc.ExternalID, doc.Filename, doc.SizeBytes, doc.Fingerprint,
		doc.PageCount, doc.StorageKey, doc.Status, doc.SourceSystem,
	).Scan(&doc.ID, &doc.ReceivedAt)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

func (r *repo) duplicateOf(ctx context.Context, externalID, fingerprint string) (*DuplicateError, error) {
	if dup, err := r.findBy(ctx, "external_id", externalID); err != nil {
		return nil, err
	} else if dup != nil {
		return &DuplicateError{
			DocumentID: dup.ID,
			ExternalID: dup.ExternalID,
			Filename:   dup.Filename,
			Match:      MatchExternalID,
		}, nil
	}

	if dup, err := r.findBy(ctx, "fingerprint", fingerprint); err != nil {
		return nil, err
	} else if dup != nil {
		return &DuplicateError{
			DocumentID: dup.ID,
			ExternalID: dup.ExternalID,
			Filename:   dup.Filename,
			Match:      MatchFingerprint,
		}, nil
	}

	return nil, nil
}

func (r *repo) findBy(ctx context.Context, field string, value any) (*Document, error) {
	stmt, args := newBuilder().BuildSingle(field, value)

	doc, err := repository.QueryOne(ctx, r.db, stmt, args, scanDocument)
	if err != nil {
		mapped := repository.MapError(err, ErrNotFound, nil)
		if errors.Is(mapped, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *repo) beginProcessing(ctx context.Context, id int64) (bool, error) {
	affected, err := repository.ExecAffected(ctx, r.db,
		"UPDATE documents SET status = $2 WHERE id = $1 AND status = $3",
		id, StatusProcessing, StatusReceived)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repo) finishProcessing(ctx context.Context, id int64, outcome Status, note *string) error {
	return finishProcessingIn(ctx, r.db, id, outcome, note)
}

func finishProcessingIn(ctx context.Context, e repository.Executor, id int64, outcome Status, note *string) error {
	err := repository.ExecExpectOne(ctx, e, `
		UPDATE documents
		SET status = $2, processing_error = $3, processed_at = NOW()
		WHERE id = $1 AND status = $4`,
		id, outcome, note, StatusProcessing)
	if errors.Is(err, sql.ErrNoRows) {
		return &TransitionError{From: StatusProcessing, To: outcome}
	}
	return err
}

// countPages inspects the PDF for its page count. Scanned reports sometimes
// carry structures pdfcpu rejects, so a failure only costs the metadata.
func countPages(content []byte, logger *slog.Logger) *int {
	count, err := api.PageCount(bytes.NewReader(content), nil)
	if err != nil {
		logger.Warn("page count failed", "error", err)
		return nil
	}
	return &count
}

func (r *repo) classifySaveRejection(ctx context.Context, id int64, userID string) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}
	if !doc.EditableBy(userID) {
		return ErrClaimConflict
	}
	return &TransitionError{From: doc.Status, To: StatusReviewed}
}

package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/waybill/internal/documents"
	"github.com/JaimeStill/waybill/internal/extractions"
	"github.com/JaimeStill/waybill/internal/processlog"
)

var ErrNoExtraction = errors.New("document has no extraction data")

// Documents is the slice of the document system submission consumes.
type Documents interface {
	Find(ctx context.Context, id int64) (*documents.Document, error)
	Transition(ctx context.Context, id int64, to documents.Status) error
}

// Ledger is the slice of the extraction ledger submission consumes.
type Ledger interface {
	Current(ctx context.Context, documentID int64) (*extractions.Revision, error)
}

// Outcome is the structured result of one submission attempt.
type Outcome struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DocumentID int64  `json:"document_id"`
	Version    int    `json:"version,omitempty"`
}

// System submits reviewed documents downstream.
type System interface {
	Handler() *Handler

	// Submit delivers the current revision of a reviewed document. A gateway
	// failure yields a failed Outcome, not an error; the document stays
	// reviewed so the submission can be retried.
	Submit(ctx context.Context, documentID int64) (*Outcome, error)
	// CheckConnection verifies the gateway is reachable.
	CheckConnection(ctx context.Context) error
}

type system struct {
	gateway Gateway
	docs    Documents
	ledger  Ledger
	logs    processlog.System
	logger  *slog.Logger
}

// New creates a submission system.
func New(gateway Gateway, docs Documents, ledger Ledger, logs processlog.System, logger *slog.Logger) System {
	return &system{
		gateway: gateway,
		docs:    docs,
		ledger:  ledger,
		logs:    logs,
		logger:  logger.With("system", "submission"),
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) Submit(ctx context.Context, documentID int64) (*Outcome, error) {
	doc, err := s.docs.Find(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if doc.Status != documents.StatusReviewed {
		return nil, &documents.TransitionError{From: doc.Status, To: documents.StatusSubmitted}
	}

	revision, err := s.ledger.Current(ctx, documentID)
	if err != nil {
		if errors.Is(err, extractions.ErrNotFound) {
			return nil, fmt.Errorf("%w: document %d", ErrNoExtraction, documentID)
		}
		return nil, err
	}

	ref := processlog.Ref{DocumentID: &documentID, Filename: doc.Filename, ExternalID: doc.ExternalID}

	if err := s.gateway.Submit(ctx, doc.ExternalID, doc.Filename, revision.Payload); err != nil {
		detail := err.Error()
		s.logs.Error(ctx, "submission.submit", "submission failed", &detail, ref)
		s.logger.Warn("submission failed",
			"id", documentID,
			"version", revision.Version,
			"error", err)

		return &Outcome{
			Success:    false,
			Message:    "submission failed: " + err.Error(),
			DocumentID: documentID,
			Version:    revision.Version,
		}, nil
	}

	if err := s.docs.Transition(ctx, documentID, documents.StatusSubmitted); err != nil {
		// the gateway accepted the payload; the stale local status needs
		// operator attention
		detail := err.Error()
		s.logs.Error(ctx, "submission.submit",
			"submitted downstream but status update failed", &detail, ref)
		return nil, err
	}

	s.logs.Info(ctx, "submission.submit",
		fmt.Sprintf("revision %d submitted", revision.Version), ref)
	s.logger.Info("document submitted",
		"id", documentID,
		"version", revision.Version)

	return &Outcome{
		Success:    true,
		Message:    "document submitted",
		DocumentID: documentID,
		Version:    revision.Version,
	}, nil
}

func (s *system) CheckConnection(ctx context.Context) error {
	return s.gateway.Ping(ctx)
}

package submission_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JaimeStill/waybill/internal/documents"
	"github.com/JaimeStill/waybill/internal/extractions"
	"github.com/JaimeStill/waybill/internal/processlog"
	"github.com/JaimeStill/waybill/internal/submission"
)

type submitted struct {
	externalID string
	filename   string
}

type fakeGateway struct {
	submitErr error
	pingErr   error
	submitted []submitted
}

func (f *fakeGateway) Submit(_ context.Context, externalID, filename string, _ json.RawMessage) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, submitted{externalID: externalID, filename: filename})
	return nil
}

func (f *fakeGateway) Ping(context.Context) error { return f.pingErr }

type fakeDocuments struct {
	doc         *documents.Document
	findErr     error
	transitions []documents.Status
}

func (f *fakeDocuments) Find(context.Context, int64) (*documents.Document, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.doc, nil
}

func (f *fakeDocuments) Transition(_ context.Context, _ int64, to documents.Status) error {
	f.transitions = append(f.transitions, to)
	return nil
}

type fakeLedger struct {
	revision *extractions.Revision
	err      error
}

func (f *fakeLedger) Current(context.Context, int64) (*extractions.Revision, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.revision, nil
}

type nopLogs struct{}

func (nopLogs) Handler() *processlog.Handler                                           { return nil }
func (nopLogs) Info(context.Context, string, string, processlog.Ref)                   {}
func (nopLogs) Warn(context.Context, string, string, processlog.Ref)                   {}
func (nopLogs) Error(context.Context, string, string, *string, processlog.Ref)        {}
func (nopLogs) Recent(context.Context, int) ([]processlog.Entry, error)                { return nil, nil }
func (nopLogs) Range(context.Context, time.Time, time.Time) ([]processlog.Entry, error) {
	return nil, nil
}
func (nopLogs) Delete(context.Context, int64) error    { return nil }
func (nopLogs) Clear(context.Context) (int64, error)   { return 0, nil }
func (nopLogs) Prune(context.Context, int) (int64, error) { return 0, nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func reviewedDoc() *documents.Document {
	return &documents.Document{
		ID:         1,
		ExternalID: "EXT-1",
		Filename:   "report.pdf",
		Status:     documents.StatusReviewed,
	}
}

func revision(version int) *extractions.Revision {
	return &extractions.Revision{
		DocumentID: 1,
		Version:    version,
		Payload:    json.RawMessage(`{"driver": "J. Weber"}`),
	}
}

func TestSubmitSuccess(t *testing.T) {
	gateway := &fakeGateway{}
	docs := &fakeDocuments{doc: reviewedDoc()}
	ledger := &fakeLedger{revision: revision(3)}

	s := submission.New(gateway, docs, ledger, nopLogs{}, testLogger())

	outcome, err := s.Submit(context.Background(), 1)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("expected success: %s", outcome.Message)
	}
	if outcome.Version != 3 {
		t.Errorf("outcome version = %d, want 3", outcome.Version)
	}
	if len(gateway.submitted) != 1 {
		t.Fatalf("gateway received %v", gateway.submitted)
	}
	if got := gateway.submitted[0]; got.externalID != "EXT-1" || got.filename != "report.pdf" {
		t.Errorf("submission keyed by %q/%q, want EXT-1/report.pdf", got.externalID, got.filename)
	}
	if len(docs.transitions) != 1 || docs.transitions[0] != documents.StatusSubmitted {
		t.Errorf("document should transition to submitted, got %v", docs.transitions)
	}
}

func TestSubmitGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{submitErr: errors.New("gateway rejected submission: 500")}
	docs := &fakeDocuments{doc: reviewedDoc()}
	ledger := &fakeLedger{revision: revision(1)}

	s := submission.New(gateway, docs, ledger, nopLogs{}, testLogger())

	outcome, err := s.Submit(context.Background(), 1)
	if err != nil {
		t.Fatalf("gateway failure should not be an error: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected failed outcome")
	}
	if len(docs.transitions) != 0 {
		t.Errorf("document must stay reviewed on gateway failure, got %v", docs.transitions)
	}
}

func TestSubmitWrongStatus(t *testing.T) {
	doc := reviewedDoc()
	doc.Status = documents.StatusPendingReview

	s := submission.New(&fakeGateway{}, &fakeDocuments{doc: doc},
		&fakeLedger{revision: revision(1)}, nopLogs{}, testLogger())

	_, err := s.Submit(context.Background(), 1)
	if !errors.Is(err, documents.ErrInvalidTransition) {
		t.Errorf("expected invalid transition, got %v", err)
	}
}

func TestSubmitMissingExtraction(t *testing.T) {
	s := submission.New(&fakeGateway{}, &fakeDocuments{doc: reviewedDoc()},
		&fakeLedger{err: extractions.ErrNotFound}, nopLogs{}, testLogger())

	_, err := s.Submit(context.Background(), 1)
	if !errors.Is(err, submission.ErrNoExtraction) {
		t.Errorf("expected ErrNoExtraction, got %v", err)
	}
}

func TestSubmitMissingDocument(t *testing.T) {
	s := submission.New(&fakeGateway{}, &fakeDocuments{findErr: documents.ErrNotFound},
		&fakeLedger{}, nopLogs{}, testLogger())

	_, err := s.Submit(context.Background(), 1)
	if !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckConnection(t *testing.T) {
	s := submission.New(&fakeGateway{pingErr: errors.New("unreachable")},
		&fakeDocuments{}, &fakeLedger{}, nopLogs{}, testLogger())

	if err := s.CheckConnection(context.Background()); err == nil {
		t.Error("expected connection error")
	}
}

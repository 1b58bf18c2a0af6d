package documents_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/waybill/internal/documents"
)

func TestDuplicateError(t *testing.T) {
	dup := &documents.DuplicateError{
		DocumentID: 7,
		ExternalID: "EXT-42",
		Filename:   "PODReport_M03_714019_101270380_6X503_20260115.pdf",
		Match:      documents.MatchExternalID,
	}

	if !errors.Is(dup, documents.ErrDuplicate) {
		t.Error("DuplicateError should match ErrDuplicate")
	}
	if !strings.Contains(dup.Error(), "EXT-42") {
		t.Errorf("message should name the external id: %s", dup.Error())
	}

	fingerprint := &documents.DuplicateError{
		DocumentID: 7,
		ExternalID: "EXT-42",
		Filename:   "report.pdf",
		Match:      documents.MatchFingerprint,
	}
	if !strings.Contains(fingerprint.Error(), "content") {
		t.Errorf("fingerprint match should mention content: %s", fingerprint.Error())
	}
}

func TestTransitionError(t *testing.T) {
	err := &documents.TransitionError{
		From: documents.StatusSubmitted,
		To:   documents.StatusReviewed,
	}

	if !errors.Is(err, documents.ErrInvalidTransition) {
		t.Error("TransitionError should match ErrInvalidTransition")
	}
	if !strings.Contains(err.Error(), "submitted") || !strings.Contains(err.Error(), "reviewed") {
		t.Errorf("message should name both statuses: %s", err.Error())
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", documents.ErrNotFound, http.StatusNotFound},
		{"duplicate", documents.ErrDuplicate, http.StatusConflict},
		{"duplicate detail", &documents.DuplicateError{Match: documents.MatchExternalID}, http.StatusConflict},
		{"invalid transition", documents.ErrInvalidTransition, http.StatusConflict},
		{"transition detail", &documents.TransitionError{}, http.StatusConflict},
		{"claim conflict", documents.ErrClaimConflict, http.StatusConflict},
		{"invalid file", documents.ErrInvalidFile, http.StatusBadRequest},
		{"unknown status", documents.ErrUnknownStatus, http.StatusBadRequest},
		{"file too large", documents.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("find failed: %w", documents.ErrNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := documents.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

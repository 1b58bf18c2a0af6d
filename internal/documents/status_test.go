package documents_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/waybill/internal/documents"
)

func TestParseStatus(t *testing.T) {
	valid := []string{
		"received", "processing", "extracted",
		"pending_review", "reviewed", "submitted", "error",
	}

	for _, s := range valid {
		t.Run(s, func(t *testing.T) {
			status, err := documents.ParseStatus(s)
			if err != nil {
				t.Fatalf("ParseStatus(%q) failed: %v", s, err)
			}
			if string(status) != s {
				t.Errorf("ParseStatus(%q) = %q", s, status)
			}
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		_, err := documents.ParseStatus("archived")
		if !errors.Is(err, documents.ErrUnknownStatus) {
			t.Errorf("expected ErrUnknownStatus, got %v", err)
		}
	})

	t.Run("empty status", func(t *testing.T) {
		if _, err := documents.ParseStatus(""); err == nil {
			t.Error("expected error for empty status")
		}
	})
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from documents.Status
		to   documents.Status
		want bool
	}{
		{"received to processing", documents.StatusReceived, documents.StatusProcessing, true},
		{"received to pending review", documents.StatusReceived, documents.StatusPendingReview, true},
		{"received to extracted", documents.StatusReceived, documents.StatusExtracted, false},
		{"processing to extracted", documents.StatusProcessing, documents.StatusExtracted, true},
		{"processing to pending review", documents.StatusProcessing, documents.StatusPendingReview, true},
		{"processing to error", documents.StatusProcessing, documents.StatusError, true},
		{"processing to submitted", documents.StatusProcessing, documents.StatusSubmitted, false},
		{"extracted to reviewed", documents.StatusExtracted, documents.StatusReviewed, true},
		{"pending review to reviewed", documents.StatusPendingReview, documents.StatusReviewed, true},
		{"reviewed to submitted", documents.StatusReviewed, documents.StatusSubmitted, true},
		{"reviewed to reviewed", documents.StatusReviewed, documents.StatusReviewed, true},
		{"submitted is terminal", documents.StatusSubmitted, documents.StatusReviewed, false},
		{"error is terminal", documents.StatusError, documents.StatusProcessing, false},
		{"extracted to submitted", documents.StatusExtracted, documents.StatusSubmitted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestReviewable(t *testing.T) {
	tests := []struct {
		status documents.Status
		want   bool
	}{
		{documents.StatusReceived, false},
		{documents.StatusProcessing, false},
		{documents.StatusExtracted, true},
		{documents.StatusPendingReview, true},
		{documents.StatusReviewed, true},
		{documents.StatusSubmitted, false},
		{documents.StatusError, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Reviewable(); got != tt.want {
				t.Errorf("Reviewable(%s) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

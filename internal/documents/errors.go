package documents

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("document already exists")
	ErrInvalidFile       = errors.New("file content is empty or not a PDF")
	ErrFileTooLarge      = errors.New("file exceeds the maximum upload size")
	ErrUnknownStatus     = errors.New("unknown document status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrClaimConflict     = errors.New("document is claimed by another reviewer")
)

// Duplicate match kinds.
const (
	MatchExternalID  = "external_id"
	MatchFingerprint = "fingerprint"
)

// DuplicateError reports an ingest rejected by duplicate detection, carrying
// the conflicting document so callers can point at the prior ingest.
type DuplicateError struct {
	DocumentID int64
	ExternalID string
	Filename   string
	Match      string
}

func (e *DuplicateError) Error() string {
	switch e.Match {
	case MatchFingerprint:
		return fmt.Sprintf(
			"document content already ingested as %q (id %d, external id %s)",
			e.Filename, e.DocumentID, e.ExternalID)
	default:
		return fmt.Sprintf(
			"external id %s already ingested as %q (id %d)",
			e.ExternalID, e.Filename, e.DocumentID)
	}
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// TransitionError reports a lifecycle move the state machine forbids.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition document from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// MapHTTPStatus translates document errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrClaimConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidFile), errors.Is(err, ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

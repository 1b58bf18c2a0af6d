package extractions

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound        = errors.New("extraction not found")
	ErrInvalidPayload  = errors.New("extraction payload is not valid JSON")
	ErrVersionConflict = errors.New("extraction version conflict")
)

// MapHTTPStatus translates extraction errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

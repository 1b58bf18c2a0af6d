package processlog

import (
	"errors"
	"net/http"
)

var ErrNotFound = errors.New("log entry not found")

// MapHTTPStatus translates processlog errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

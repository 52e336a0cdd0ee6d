package errors

import "net/http"

// Canonical error kinds shared by every handler. Domain specific codes travel in
// ErrorResponse.Code while the kind decides the HTTP status.
const (
	KindNotFound     = "not_found"
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
	KindConflict     = "conflict"
	KindBadRequest   = "bad_request"
	KindUnavailable  = "unavailable"
	KindInternal     = "internal"
)

// ErrorResponse represents the canonical error envelope returned by FocusNest APIs.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// ToStatusCode maps an error kind to an HTTP status for default responses.
func ToStatusCode(kind string) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

package errors

import (
	"net/http"
	"testing"
)

func TestToStatusCode(t *testing.T) {
	cases := map[string]int{
		KindNotFound:     http.StatusNotFound,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindConflict:     http.StatusConflict,
		KindBadRequest:   http.StatusBadRequest,
		KindUnavailable:  http.StatusServiceUnavailable,
		KindInternal:     http.StatusInternalServerError,
		"whatever":       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := ToStatusCode(kind); got != want {
			t.Fatalf("ToStatusCode(%q) = %d, want %d", kind, got, want)
		}
	}
}

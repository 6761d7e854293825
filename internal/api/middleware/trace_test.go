package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pverel/imageforge-api/internal/api/shared"
)

func TestNewTraceMiddleware(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var first, second string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first == "" {
			first = shared.GetTraceID(r.Context())
		} else {
			second = shared.GetTraceID(r.Context())
		}
		w.WriteHeader(http.StatusNoContent)
	})

	wrapped := NewTraceMiddleware(logger)(handler)

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	// Every request gets its own non-empty trace ID.
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed(t *testing.T, status int, prepare func(*http.Request)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)

	h := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest("POST", "/api/v1/backtests", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	if prepare != nil {
		prepare(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "http request", entries[0].Message)
	return w, entries[0].ContextMap()
}

func TestLoggingMiddleware_Fields(t *testing.T) {
	_, fields := observed(t, http.StatusAccepted, nil)

	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/v1/backtests", fields["path"])
	assert.EqualValues(t, http.StatusAccepted, fields["status"])
	assert.Equal(t, "192.168.1.1:12345", fields["client_ip"])
	assert.Contains(t, fields, "duration_ms")
}

func TestLoggingMiddleware_GeneratesRequestID(t *testing.T) {
	w, fields := observed(t, http.StatusOK, nil)

	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	assert.Len(t, id, 36)
	assert.Equal(t, id, fields["request_id"])
}

func TestLoggingMiddleware_ReusesRequestID(t *testing.T) {
	w, fields := observed(t, http.StatusOK, func(r *http.Request) {
		r.Header.Set(RequestIDHeader, "upstream-42")
	})

	assert.Equal(t, "upstream-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "upstream-42", fields["request_id"])
}

func TestLoggingMiddleware_ForwardedFor(t *testing.T) {
	_, fields := observed(t, http.StatusOK, func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	})

	assert.Equal(t, "203.0.113.7", fields["client_ip"])
}

func TestLoggingMiddleware_ErrorStatus(t *testing.T) {
	_, fields := observed(t, http.StatusUnauthorized, nil)
	assert.EqualValues(t, http.StatusUnauthorized, fields["status"])
}

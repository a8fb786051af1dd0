package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithLogger(buf *bytes.Buffer) *http.Request {
	log := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.WithValue(context.Background(), TraceIDKey, "test-trace-id")
	ctx = logger.WithLogger(ctx, log)
	return httptest.NewRequest(http.MethodGet, "/api/tasks", nil).WithContext(ctx)
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, map[string]int{"count": 2})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":2}`, w.Body.String())
}

func TestRespondWithJSON_EncodingError(t *testing.T) {
	var buf bytes.Buffer
	w := httptest.NewRecorder()

	RespondWithJSON(w, requestWithLogger(&buf), http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "failed to encode JSON response")
}

func TestRespondWithError(t *testing.T) {
	var buf bytes.Buffer
	w := httptest.NewRecorder()

	RespondWithError(w, requestWithLogger(&buf), http.StatusNotFound, "Task not found")

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", response.Error)
	assert.Equal(t, "test-trace-id", response.TraceID)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		elevate   bool
		wantLevel string
	}{
		{name: "server error", status: http.StatusInternalServerError, wantLevel: "level=ERROR"},
		{name: "client error", status: http.StatusBadRequest, wantLevel: "level=DEBUG"},
		{name: "elevated client error", status: http.StatusUnauthorized, elevate: true, wantLevel: "level=WARN"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantLevel: "level=WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := httptest.NewRecorder()
			cause := errors.New("dial tcp: password=hunter2secret failed")

			var opts []ResponseOption
			if tt.elevate {
				opts = append(opts, WithElevatedLogLevel())
			}
			RespondWithErrorAndLog(w, requestWithLogger(&buf), tt.status, "Something failed", cause, opts...)

			assert.Equal(t, tt.status, w.Code)
			assert.NotContains(t, w.Body.String(), "hunter2", "raw errors never reach the client")

			logs := buf.String()
			assert.Contains(t, logs, tt.wantLevel)
			assert.Contains(t, logs, "trace_id=test-trace-id")
			assert.Contains(t, logs, "error_type=*errors.errorString")
			assert.NotContains(t, logs, "hunter2secret", "logged errors are redacted")
		})
	}
}

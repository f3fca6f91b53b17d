package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusioncli/internal/shared/testutil"
)

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "api error",
			err:        ErrInvalidParameter,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "calendar unavailable",
			err:        ErrCalendarLoad,
			wantStatus: http.StatusBadGateway,
			wantType:   TypeUpstream,
		},
		{
			name:       "data insufficiency",
			err:        fmt.Errorf("build: %w", NewDataInsufficiencyError("ES", 10, 120)),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataInsufficient,
		},
		{
			name:       "source failure",
			err:        NewSourceError("calendar", fmt.Errorf("timeout")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeSourceFailed,
		},
		{
			name:       "configuration",
			err:        NewConfigurationError("row length mismatch", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeConfiguration,
		},
		{
			name:       "unknown",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/phase", nil)
			rec := httptest.NewRecorder()
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/v1/phase", body["instance"])
			_, hasStack := body["stack"]
			assert.False(t, hasStack)

			testutil.AssertLogContains(t, logs, slog.LevelError, "request failed")
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, logs.Count())
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_AppErrorContextBecomesExtensions(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/build", nil)
	pd := h.ErrorToProblem(NewDataInsufficiencyError("ZN", 3, 120), req)

	assert.Equal(t, "ZN", pd.Extensions["instrument"])
	assert.Equal(t, 120, pd.Extensions["min_bars"])
	assert.Equal(t, string(ErrTypeDataInsufficient), pd.Extensions["error_type"])
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("classifier exploded")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/phase", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "classifier exploded", body["panic"])
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestErrorMiddleware_LogLevels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  slog.Level
	}{
		{name: "ok", status: http.StatusOK, level: slog.LevelInfo},
		{name: "client error", status: http.StatusBadRequest, level: slog.LevelWarn},
		{name: "server error", status: http.StatusBadGateway, level: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			mw := NewErrorMiddleware(NewErrorHandler(logger, false), logger)

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			rec := httptest.NewRecorder()
			mw.Handler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health?verbose=1", nil))

			assert.Equal(t, tt.status, rec.Code)
			testutil.AssertLogContains(t, logs, tt.level, "http request")
			testutil.AssertLogAttr(t, logs, "query", "verbose=1")
		})
	}
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "fusioncli/internal/errors"
	"fusioncli/internal/middleware"
	"fusioncli/internal/phase"
	"fusioncli/internal/services"
	"fusioncli/pkg/contracts/domain"
)

var (
	cpiDay = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	// 08:30 EDT
	cpiRelease = time.Date(2024, 3, 12, 12, 30, 0, 0, time.UTC)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubLoader struct {
	calls int
	err   error
}

func (l *stubLoader) load(_ context.Context, day string) ([]domain.CalendarEvent, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	if day != cpiDay.Format(time.DateOnly) {
		return nil, nil
	}
	return []domain.CalendarEvent{
		{EventDate: cpiDay, EventTime: "08:30 ET", Impact: domain.ImpactHigh, Name: "CPI m/m"},
	}, nil
}

func newTestRouter(t *testing.T, loader *stubLoader, now time.Time, checks map[string]services.CheckFunc) http.Handler {
	t.Helper()

	logger := quietLogger()
	errorHandler := apierrors.NewErrorHandler(logger, false)
	phaseSvc := services.NewPhaseService(loader.load, phase.DefaultWindows(), logger,
		services.WithClock(func() time.Time { return now }))
	health := services.NewHealthService("test", logger)
	for name, check := range checks {
		health.Register(name, check)
	}

	return NewRouter(RouterDeps{
		Phase:   NewPhaseHandler(phaseSvc, logger, errorHandler),
		Health:  NewHealthHandler(health, logger, errorHandler),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, "# metrics\n") }),
		Limiter: middleware.NewRateLimiter(1000, 1000, logger),
		Errors:  errorHandler,
		Logger:  logger,
	})
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body map[string]interface{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestPhaseHandlerGetPhase(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		target     string
		wantStatus int
		wantPhase  string
		wantDay    string
		wantLabel  string
	}{
		{
			name:       "current imminent",
			now:        cpiRelease.Add(-10 * time.Minute),
			target:     "/api/v1/phase",
			wantStatus: http.StatusOK,
			wantPhase:  "IMMINENT",
			wantDay:    "2024-03-12",
			wantLabel:  "IMMINENT: CPI m/m in 10m",
		},
		{
			name:       "current clear",
			now:        cpiRelease.Add(-4 * time.Hour),
			target:     "/api/v1/phase/",
			wantStatus: http.StatusOK,
			wantPhase:  "CLEAR",
			wantDay:    "2024-03-12",
		},
		{
			name:       "at digesting",
			now:        cpiRelease.Add(-4 * time.Hour),
			target:     "/api/v1/phase?at=2024-03-12T12:50:00Z",
			wantStatus: http.StatusOK,
			wantPhase:  "DIGESTING",
			wantDay:    "2024-03-12",
			wantLabel:  "CPI m/m",
		},
		{
			name:       "at with offset",
			now:        cpiRelease.Add(-4 * time.Hour),
			target:     "/api/v1/phase?at=2024-03-12T08:27:00-04:00",
			wantStatus: http.StatusOK,
			wantPhase:  "BLACKOUT",
			wantDay:    "2024-03-12",
			wantLabel:  "CPI m/m",
		},
		{
			name:       "at another day",
			now:        cpiRelease,
			target:     "/api/v1/phase?at=2024-03-13T12:30:00Z",
			wantStatus: http.StatusOK,
			wantPhase:  "CLEAR",
			wantDay:    "2024-03-13",
		},
		{
			name:       "bad at",
			now:        cpiRelease,
			target:     "/api/v1/phase?at=noon",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &stubLoader{}, tt.now, nil)

			rec, body := do(t, router, http.MethodGet, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "/errors/validation", body["type"])
				assert.Equal(t, "INVALID_PARAMETER", body["error_code"])
				return
			}

			assert.Equal(t, tt.wantPhase, body["phase"])
			assert.Equal(t, tt.wantDay, body["exchange_day"])
			if tt.wantLabel != "" {
				assert.Contains(t, body["label"], tt.wantLabel)
			}
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestPhaseHandlerCalendarFailure(t *testing.T) {
	router := newTestRouter(t, &stubLoader{err: errors.New("connection refused")}, cpiRelease, nil)

	rec, body := do(t, router, http.MethodGet, "/api/v1/phase")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, apierrors.TypeUpstream, body["type"])
	assert.Equal(t, "CALENDAR_UNAVAILABLE", body["error_code"])
	assert.Contains(t, body["details"], "connection refused")
}

func TestPhaseHandlerRefreshAndCache(t *testing.T) {
	loader := &stubLoader{}
	router := newTestRouter(t, loader, cpiRelease.Add(-10*time.Minute), nil)

	rec, _ := do(t, router, http.MethodGet, "/api/v1/phase")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, router, http.MethodGet, "/api/v1/phase")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, loader.calls)

	rec, body := do(t, router, http.MethodPost, "/api/v1/phase/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IMMINENT", body["phase"])
	assert.Equal(t, 2, loader.calls)

	rec, body = do(t, router, http.MethodGet, "/api/v1/phase/cache")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-12", body["day"])
	assert.Equal(t, float64(1), body["events"])
	assert.Equal(t, float64(1), body["hit_count"])
	assert.Equal(t, float64(2), body["miss_count"])

	rec, body = do(t, router, http.MethodGet, "/api/v1/phase/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, float64(http.StatusMethodNotAllowed), body["status"])
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]services.CheckFunc
		target     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "ready without checks",
			target:     "/api/v1/health",
			wantStatus: http.StatusOK,
			wantBody:   "ready",
		},
		{
			name: "ready with passing check",
			checks: map[string]services.CheckFunc{
				"calendar": func(context.Context) error { return nil },
			},
			target:     "/api/v1/health/ready",
			wantStatus: http.StatusOK,
			wantBody:   "ready",
		},
		{
			name: "not ready",
			checks: map[string]services.CheckFunc{
				"calendar": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
			},
			target:     "/api/v1/health",
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "not_ready",
		},
		{
			name: "liveness ignores checks",
			checks: map[string]services.CheckFunc{
				"redis": func(context.Context) error { return errors.New("down") },
			},
			target:     "/api/v1/health?probe=live",
			wantStatus: http.StatusOK,
			wantBody:   "alive",
		},
		{
			name:       "live route",
			target:     "/api/v1/health/live",
			wantStatus: http.StatusOK,
			wantBody:   "alive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &stubLoader{}, cpiRelease, tt.checks)

			rec, body := do(t, router, http.MethodGet, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantBody, body["status"])
			assert.Equal(t, "test", body["version"])
		})
	}
}

func TestHealthHandlerBadProbe(t *testing.T) {
	router := newTestRouter(t, &stubLoader{}, cpiRelease, nil)

	rec, body := do(t, router, http.MethodGet, "/api/v1/health?probe=deep")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
}

func TestRouterNotFoundAndMetrics(t *testing.T) {
	router := newTestRouter(t, &stubLoader{}, cpiRelease, nil)

	rec, body := do(t, router, http.MethodGet, "/api/v1/unknown")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeNotFound, body["type"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics\n", rec.Body.String())
}

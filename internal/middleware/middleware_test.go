package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusioncli/internal/config"
	apierrors "fusioncli/internal/errors"
	"fusioncli/internal/infrastructure"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "generated", header: ""},
		{name: "propagated", header: "client-supplied-id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen, chiSeen, traceSeen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
				chiSeen = chimw.GetReqID(r.Context())
				traceSeen = infrastructure.GetTraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			if tt.header != "" {
				assert.Equal(t, tt.header, seen)
			}
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			assert.Equal(t, seen, chiSeen)
			assert.Equal(t, seen, traceSeen)
		})
	}
}

func TestGetRequestIDFallsBackToTraceID(t *testing.T) {
	ctx := infrastructure.WithTraceID(context.Background(), "trace-1")
	assert.Equal(t, "trace-1", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, quietLogger())
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/phase", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, float64(http.StatusTooManyRequests), body["status"])
			assert.Equal(t, "/errors/rate-limit-exceeded", body["type"])
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestOTelMiddlewareRecordsRoutes(t *testing.T) {
	tel, err := infrastructure.InitializeOTel(config.TelemetryConfig{
		ServiceName:    "fusion-test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    1,
	}, quietLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	mw, err := NewOTelMiddleware(tel)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mw.Handler)
	r.Get("/api/v1/phase/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/phase/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	metrics := httptest.NewRecorder()
	tel.PrometheusHTTP.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := metrics.Body.String()

	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/api/v1/phase/{id}"`)
	assert.NotContains(t, body, `route="/api/v1/phase/42"`)
}

func TestQueryParamValidator(t *testing.T) {
	v := NewQueryParamValidator(quietLogger(), apierrors.NewErrorHandler(quietLogger(), false))

	t.Run("time", func(t *testing.T) {
		tests := []struct {
			name        string
			query       string
			wantPresent bool
			wantOK      bool
			want        time.Time
		}{
			{name: "absent", query: "", wantPresent: false, wantOK: true},
			{name: "utc", query: "?at=2024-03-12T12:30:00Z", wantPresent: true, wantOK: true,
				want: time.Date(2024, 3, 12, 12, 30, 0, 0, time.UTC)},
			{name: "offset", query: "?at=2024-03-12T08:30:00-04:00", wantPresent: true, wantOK: true,
				want: time.Date(2024, 3, 12, 12, 30, 0, 0, time.UTC)},
			{name: "garbage", query: "?at=yesterday", wantPresent: true, wantOK: false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := httptest.NewRecorder()
				got, present, ok := v.ValidateTime(rec, httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), "at")

				assert.Equal(t, tt.wantPresent, present)
				assert.Equal(t, tt.wantOK, ok)
				if !tt.wantOK {
					assert.Equal(t, http.StatusBadRequest, rec.Code)
					assert.Contains(t, rec.Body.String(), "/errors/validation")
					return
				}
				assert.True(t, tt.want.Equal(got), "got %s", got)
			})
		}
	})

	t.Run("enum", func(t *testing.T) {
		allowed := []string{"ready", "live"}

		rec := httptest.NewRecorder()
		got, ok := v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/", nil), "probe", allowed, "ready")
		assert.True(t, ok)
		assert.Equal(t, "ready", got)

		got, ok = v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?probe=live", nil), "probe", allowed, "ready")
		assert.True(t, ok)
		assert.Equal(t, "live", got)

		rec = httptest.NewRecorder()
		_, ok = v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?probe=deep", nil), "probe", allowed, "ready")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

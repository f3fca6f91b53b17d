package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fusioncli/internal/config"
	apierrors "fusioncli/internal/errors"
	"fusioncli/internal/middleware"
)

// RouterDeps are the collaborators mounted by NewRouter. Nil optional fields
// leave their routes or middleware out.
type RouterDeps struct {
	Phase   *PhaseHandler
	Health  *HealthHandler
	Metrics http.Handler
	OTel    *middleware.OTelMiddleware
	Limiter *middleware.RateLimiter
	Errors  *apierrors.ErrorHandler
	Logger  *slog.Logger
}

// NewRouter builds the server routes. Middleware order is RequestID, RealIP,
// OTel, request logging with recovery, then security headers and rate
// limiting on the API group.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if deps.OTel != nil {
		r.Use(deps.OTel.Handler)
	}
	r.Use(apierrors.NewErrorMiddleware(deps.Errors, deps.Logger).Handler)

	r.NotFound(deps.Errors.NotFound)
	r.MethodNotAllowed(deps.Errors.MethodNotAllowed)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Handler)
		}
		if deps.Phase != nil {
			r.Mount("/phase", deps.Phase.Routes())
		}
		if deps.Health != nil {
			r.Mount("/health", deps.Health.Routes())
		}
	})

	if deps.Metrics != nil {
		r.Handle(config.MetricsEndpoint, deps.Metrics)
	}

	return r
}

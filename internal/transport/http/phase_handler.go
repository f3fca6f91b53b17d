package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "fusioncli/internal/errors"
	"fusioncli/internal/middleware"
	"fusioncli/internal/services"
)

// PhaseHandler serves the live event phase.
type PhaseHandler struct {
	service      *services.PhaseService
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPhaseHandler creates a new phase handler
func NewPhaseHandler(service *services.PhaseService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PhaseHandler {
	return &PhaseHandler{
		service:      service,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("handler", "phase")),
		errorHandler: errorHandler,
	}
}

// Routes returns the phase routes
func (h *PhaseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetPhase)
	r.Post("/refresh", h.Refresh)
	r.Get("/cache", h.CacheStats)

	return r
}

// GetPhase handles GET /api/v1/phase
func (h *PhaseHandler) GetPhase(w http.ResponseWriter, r *http.Request) {
	at, present, ok := h.query.ValidateTime(w, r, "at")
	if !ok {
		return
	}

	var (
		snap services.PhaseSnapshot
		err  error
	)
	if present {
		snap, err = h.service.At(r.Context(), at)
	} else {
		snap, err = h.service.Current(r.Context())
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, calendarError(err))
		return
	}

	render.JSON(w, r, snap)
}

// Refresh handles POST /api/v1/phase/refresh
func (h *PhaseHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Refresh(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, calendarError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "calendar refreshed via api",
		slog.String("phase", string(snap.Phase)),
		slog.String("exchange_day", snap.Day))
	render.JSON(w, r, snap)
}

// CacheStats handles GET /api/v1/phase/cache
func (h *PhaseHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.CacheStats())
}

// calendarError reports loader failures as an upstream problem. Cancellation
// passes through so it maps to a timeout.
func calendarError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apierrors.NewWithDetails(apierrors.ErrCalendarLoad.StatusCode, apierrors.ErrCalendarLoad.ErrorCode,
		apierrors.ErrCalendarLoad.Message, err.Error())
}

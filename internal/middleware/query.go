package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apierrors "fusioncli/internal/errors"
)

// QueryParamValidator validates query parameters and writes the problem
// response itself when one is invalid.
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// ValidateTime parses an RFC 3339 instant. present is false when the
// parameter is absent; ok is false when a response has been written.
func (v *QueryParamValidator) ValidateTime(w http.ResponseWriter, r *http.Request, param string) (t time.Time, present, ok bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return time.Time{}, false, true
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		v.logger.DebugContext(r.Context(), "invalid time parameter",
			slog.String("param", param),
			slog.String("value", value))
		v.errorHandler.HandleError(w, r, apierrors.InvalidParameter(param, fmt.Errorf("%s must be an RFC 3339 timestamp", param)))
		return time.Time{}, true, false
	}
	return t, true, true
}

// ValidateEnum validates an enum query parameter
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}

	for _, a := range allowed {
		if value == a {
			return value, true
		}
	}

	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", "))))
	return "", false
}

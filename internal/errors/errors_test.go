package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewSourceError("calendar", cause)

	assert.Equal(t, "[SOURCE] failed to load calendar: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "calendar", err.Context["source"])

	plain := NewAppValidationError("bad window")
	assert.Equal(t, "[VALIDATION] bad window", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantConfig   bool
		wantShort    bool
		wantTypeName ErrorType
	}{
		{
			name:         "configuration",
			err:          NewConfigurationError("row has 10 cells, catalogue has 12", nil),
			wantConfig:   true,
			wantTypeName: ErrTypeConfiguration,
		},
		{
			name:         "wrapped insufficiency",
			err:          fmt.Errorf("build ES: %w", NewDataInsufficiencyError("ES", 50, 120)),
			wantShort:    true,
			wantTypeName: ErrTypeDataInsufficient,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
		},
		{
			name: "nil",
			err:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantConfig, IsConfigurationError(tt.err))
			assert.Equal(t, tt.wantShort, IsDataInsufficiency(tt.err))
			assert.Equal(t, tt.wantTypeName, TypeOf(tt.err))
		})
	}
}

func TestNewDataInsufficiencyError_Context(t *testing.T) {
	err := NewDataInsufficiencyError("NQ", 7, 120)
	assert.Equal(t, "NQ", err.Context["instrument"])
	assert.Equal(t, 7, err.Context["bars"])
	assert.Equal(t, 120, err.Context["min_bars"])
	assert.Contains(t, err.Error(), "NQ has 7 bars, need at least 120")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/api/v1/phase").
		WithExtension("trace_id", "abc")

	raw, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, TypeNotFound, got["type"])
	assert.Equal(t, float64(404), got["status"])
	assert.Equal(t, "abc", got["trace_id"])
	assert.Equal(t, "/api/v1/phase", got["instance"])
	_, hasDetail := got["detail"]
	assert.False(t, hasDetail)
}

func TestAPIErrorRender(t *testing.T) {
	tests := []struct {
		name        string
		err         *APIError
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails interface{}
	}{
		{
			name:        "invalid parameter",
			err:         InvalidParameter("at", errors.New("not RFC3339")),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "INVALID_PARAMETER",
			wantMessage: "Invalid value for at",
			wantDetails: "not RFC3339",
		},
		{
			name:        "validation",
			err:         ErrValidation("probe", "must be one of live, ready"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_FAILED",
			wantMessage: "Request validation failed",
			wantDetails: map[string]interface{}{"field": "probe", "message": "must be one of live, ready"},
		},
		{
			name:        "calendar",
			err:         ErrCalendarLoad,
			wantStatus:  http.StatusBadGateway,
			wantCode:    "CALENDAR_UNAVAILABLE",
			wantMessage: "Economic calendar could not be loaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, render.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error_code"])
			assert.Equal(t, tt.wantMessage, body["message"])
			assert.Equal(t, tt.wantDetails, body["details"])
		})
	}
}

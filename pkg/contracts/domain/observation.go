package domain

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Frequency is the publication cadence of a macro series.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// ParseFrequency converts a label such as "Weekly" or "q" to a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "d":
		return FrequencyDaily, nil
	case "weekly", "w":
		return FrequencyWeekly, nil
	case "monthly", "m":
		return FrequencyMonthly, nil
	case "quarterly", "q":
		return FrequencyQuarterly, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", s)
	}
}

// SeriesMetadata identifies a macro series and its cadence.
type SeriesMetadata struct {
	SeriesID  string    `json:"series_id" db:"series_id" validate:"required"`
	Frequency Frequency `json:"frequency" db:"frequency" validate:"required,oneof=daily weekly monthly quarterly"`
}

// ObservationPoint is one published value of a macro series. Date is the
// nominal observation date; Value is invalid on non-publication days.
type ObservationPoint struct {
	Date  time.Time       `json:"date" db:"date"`
	Value sql.NullFloat64 `json:"value" db:"value"`
}

// Observation builds a valid point.
func Observation(date time.Time, v float64) ObservationPoint {
	return ObservationPoint{Date: date, Value: sql.NullFloat64{Float64: v, Valid: true}}
}

// MissingObservation builds a point with no value.
func MissingObservation(date time.Time) ObservationPoint {
	return ObservationPoint{Date: date}
}

// MacroSeriesData pairs metadata with its observations.
type MacroSeriesData struct {
	Meta   SeriesMetadata     `json:"meta"`
	Points []ObservationPoint `json:"points"`
}

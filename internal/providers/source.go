package providers

import (
	"context"
	"time"

	"fusioncli/internal/matrix"
	"fusioncli/pkg/contracts/domain"
)

// BarSource returns the ordered bar sequence of an instrument.
type BarSource interface {
	Bars(ctx context.Context, in matrix.Instrument) (domain.BarSeries, error)
}

// ObservationSource returns the observations of a macro series.
type ObservationSource interface {
	Observations(ctx context.Context, ms matrix.MacroSeries) (domain.MacroSeriesData, error)
}

// CalendarSource returns calendar events with EventDate in [from, to].
// A zero bound is open.
type CalendarSource interface {
	Events(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error)
}

// Sources groups one backend per category.
type Sources struct {
	Bars     BarSource
	Macro    ObservationSource
	Calendar CalendarSource
}

func inRange(d, from, to time.Time) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

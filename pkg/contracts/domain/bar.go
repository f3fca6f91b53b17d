package domain

import (
	"time"
)

// Bar is one OHLCV interval for an instrument. Sequences handed to the engine
// are strictly increasing by Timestamp with no duplicates.
type Bar struct {
	Timestamp time.Time `json:"timestamp" db:"ts" validate:"required"`
	Open      float64   `json:"open" db:"open"`
	High      float64   `json:"high" db:"high" validate:"gtefield=Low"`
	Low       float64   `json:"low" db:"low"`
	Close     float64   `json:"close" db:"close"`
	Volume    float64   `json:"volume" db:"volume" validate:"gte=0"`
}

// IsValid reports whether the bar has a usable price range.
func (b Bar) IsValid() bool {
	if b.Timestamp.IsZero() {
		return false
	}
	if b.High < b.Low || b.Close <= 0 {
		return false
	}
	return b.Volume >= 0
}

// BarSeries is an ordered bar sequence for one instrument.
type BarSeries struct {
	Instrument string `json:"instrument"`
	Bars       []Bar  `json:"bars"`
}

// Len returns the number of bars.
func (s BarSeries) Len() int { return len(s.Bars) }

// Closes returns the close prices in order.
func (s BarSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high prices in order.
func (s BarSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low prices in order.
func (s BarSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Opens returns the open prices in order.
func (s BarSeries) Opens() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Open
	}
	return out
}

// Volumes returns the volumes in order.
func (s BarSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Timestamps returns the bar timestamps in order.
func (s BarSeries) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Timestamp
	}
	return out
}

// StrictlyIncreasing reports whether timestamps strictly increase, returning
// the first offending index otherwise.
func (s BarSeries) StrictlyIncreasing() (int, bool) {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Timestamp.After(s.Bars[i-1].Timestamp) {
			return i, false
		}
	}
	return -1, true
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarIsValid(t *testing.T) {
	ts := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		bar  Bar
		want bool
	}{
		{"valid", Bar{Timestamp: ts, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100}, true},
		{"zero timestamp", Bar{Open: 10, High: 11, Low: 9, Close: 10.5}, false},
		{"inverted range", Bar{Timestamp: ts, High: 9, Low: 11, Close: 10}, false},
		{"non-positive close", Bar{Timestamp: ts, High: 1, Low: 0, Close: 0}, false},
		{"negative volume", Bar{Timestamp: ts, High: 11, Low: 9, Close: 10, Volume: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bar.IsValid())
		})
	}
}

func TestBarSeriesAccessors(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := BarSeries{Instrument: "MES", Bars: []Bar{
		{Timestamp: t0, Open: 1, High: 3, Low: 0.5, Close: 2, Volume: 10},
		{Timestamp: t0.Add(time.Hour), Open: 2, High: 4, Low: 1.5, Close: 3, Volume: 20},
	}}

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []float64{2, 3}, s.Closes())
	assert.Equal(t, []float64{3, 4}, s.Highs())
	assert.Equal(t, []float64{0.5, 1.5}, s.Lows())
	assert.Equal(t, []float64{1, 2}, s.Opens())
	assert.Equal(t, []float64{10, 20}, s.Volumes())

	idx, ok := s.StrictlyIncreasing()
	assert.True(t, ok)
	assert.Equal(t, -1, idx)

	s.Bars = append(s.Bars, Bar{Timestamp: t0.Add(time.Hour)})
	idx, ok = s.StrictlyIncreasing()
	require.False(t, ok)
	assert.Equal(t, 2, idx)
}

func TestParseFrequencyAndImpact(t *testing.T) {
	f, err := ParseFrequency(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, f)

	_, err = ParseFrequency("hourly")
	assert.Error(t, err)

	imp, err := ParseImpact("HIGH")
	require.NoError(t, err)
	assert.Equal(t, ImpactHigh, imp)

	_, err = ParseImpact("extreme")
	assert.Error(t, err)
}

func TestCalendarEventHelpers(t *testing.T) {
	e := CalendarEvent{
		EventDate: time.Date(2024, 7, 11, 0, 0, 0, 0, time.UTC),
		EventTime: "08:30 ET",
		Impact:    ImpactHigh,
		Name:      "CPI m/m",
	}
	assert.True(t, e.Tradeable())
	assert.True(t, e.NameContains("cpi"))
	assert.False(t, e.NameContains("payroll"))
	assert.True(t, e.SameDay(time.Date(2024, 7, 11, 23, 0, 0, 0, time.UTC)))

	e.Impact = ImpactLow
	assert.False(t, e.Tradeable())
}

package matrix

import (
	"fmt"
	"time"

	"fusioncli/internal/align"
	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/surprise"
	"fusioncli/pkg/contracts/domain"
)

// MinPrimaryBars is the shortest primary series a build accepts. It covers
// the longest indicator warmup.
const MinPrimaryBars = 120

// Job describes one output matrix.
type Job struct {
	Name        string
	Primary     Instrument
	Cross       []Instrument
	Macro       []MacroSeries
	Surprise    map[surprise.Indicator]float64 // release series and composite weights
	Horizons    []int                          // label horizons in hours
	Interval    time.Duration                  // primary bar spacing
	MaxGapHours float64                        // cross-asset forward-fill tolerance
	Features    []string                       // optional column subset
}

// Inputs are the series loaded once per run and shared read-only by jobs.
type Inputs struct {
	Bars     map[Instrument]domain.BarSeries
	Macro    map[MacroSeries]domain.MacroSeriesData
	Calendar []domain.CalendarEvent
}

// WithDefaults fills unset fields.
func (j Job) WithDefaults() Job {
	if j.Interval <= 0 {
		j.Interval = time.Hour
	}
	if len(j.Horizons) == 0 {
		j.Horizons = []int{1, 4}
	}
	if j.MaxGapHours <= 0 {
		j.MaxGapHours = align.DefaultMaxGapHours
	}
	if j.Name == "" {
		j.Name = j.Primary.Prefix()
	}
	return j
}

// Validate rejects internally inconsistent jobs.
func (j Job) Validate() error {
	if _, ok := instrumentCodes[j.Primary]; !ok {
		return apperrors.NewConfigurationError(fmt.Sprintf("job %s: unknown primary instrument %d", j.Name, int(j.Primary)), nil)
	}
	seen := map[Instrument]bool{j.Primary: true}
	for _, c := range j.Cross {
		if seen[c] {
			return apperrors.NewConfigurationError(fmt.Sprintf("job %s: instrument %s listed twice", j.Name, c), nil)
		}
		seen[c] = true
	}
	seenMacro := map[MacroSeries]bool{}
	for _, m := range j.Macro {
		if _, ok := macroSpecs[m]; !ok || seenMacro[m] {
			return apperrors.NewConfigurationError(fmt.Sprintf("job %s: invalid or repeated macro series %d", j.Name, int(m)), nil)
		}
		seenMacro[m] = true
	}
	if j.Interval <= 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("job %s: bar interval must be positive", j.Name), nil)
	}
	for _, h := range j.Horizons {
		if h <= 0 {
			return apperrors.NewConfigurationError(fmt.Sprintf("job %s: label horizon %d must be positive", j.Name, h), nil)
		}
		if _, ok := j.barsFor(h); !ok {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("job %s: label horizon %dh is not a whole number of %s bars", j.Name, h, j.Interval), nil).
				WithContext("horizon", h)
		}
	}
	return nil
}

// barsFor converts a span in hours to a bar count. It reports false when the
// span is not a positive whole multiple of the bar interval.
func (j Job) barsFor(hours int) (int, bool) {
	span := time.Duration(hours) * time.Hour
	if j.Interval <= 0 || span < j.Interval || span%j.Interval != 0 {
		return 0, false
	}
	return int(span / j.Interval), true
}

func (j Job) hasMacro(ms ...MacroSeries) bool {
	for _, want := range ms {
		found := false
		for _, m := range j.Macro {
			if m == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (j Job) hasCross(in Instrument) bool {
	for _, c := range j.Cross {
		if c == in {
			return true
		}
	}
	return false
}

// surpriseIndicators returns the configured release series in fixed order.
func (j Job) surpriseIndicators() []surprise.Indicator {
	var out []surprise.Indicator
	for _, ind := range surprise.Indicators {
		if w, ok := j.Surprise[ind]; ok && w > 0 {
			out = append(out, ind)
		}
	}
	return out
}

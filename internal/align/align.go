// Package align maps an irregular secondary bar stream onto a reference
// timestamp grid with bounded forward fill.
package align

import (
	"time"

	"fusioncli/internal/series"
	"fusioncli/pkg/contracts/domain"
)

// DefaultMaxGapHours is the forward-fill tolerance used by the assembler.
const DefaultMaxGapHours = 4

// Aligner forward-fills values across gaps no longer than MaxGap.
type Aligner struct {
	MaxGap time.Duration
}

// New returns an Aligner tolerating gaps of maxGapHours.
func New(maxGapHours float64) Aligner {
	return Aligner{MaxGap: time.Duration(maxGapHours * float64(time.Hour))}
}

// Align projects secondary (keyed by Unix milliseconds) onto ref. An exact
// match is used and remembered; otherwise the remembered value is carried
// while ref[i] is within MaxGap of it. Past that, the position is null and
// the remembered value is dropped.
func (a Aligner) Align(ref []time.Time, secondary map[int64]float64) series.Series {
	out := series.New(len(ref))
	var (
		lastTime time.Time
		lastVal  float64
		have     bool
	)
	for i, ts := range ref {
		if v, ok := secondary[ts.UnixMilli()]; ok {
			lastTime, lastVal, have = ts, v, true
			out.Set(i, v)
			continue
		}
		if !have {
			continue
		}
		if ts.Sub(lastTime) <= a.MaxGap {
			out.Set(i, lastVal)
			continue
		}
		have = false
	}
	return out
}

// AlignSeries aligns a series sampled at times. Null entries are not
// treated as observations.
func (a Aligner) AlignSeries(ref, times []time.Time, values series.Series) series.Series {
	m := make(map[int64]float64, len(times))
	for i, ts := range times {
		if values.Valid(i) {
			m[ts.UnixMilli()] = values.V[i]
		}
	}
	return a.Align(ref, m)
}

// AlignedBars holds the fields of a secondary instrument on the reference grid.
type AlignedBars struct {
	Close  series.Series
	Volume series.Series
	Exact  []bool
}

// AlignBars aligns the close and volume of bars onto ref.
func (a Aligner) AlignBars(ref []time.Time, bars []domain.Bar) AlignedBars {
	closes := make(map[int64]float64, len(bars))
	volumes := make(map[int64]float64, len(bars))
	for _, b := range bars {
		k := b.Timestamp.UnixMilli()
		closes[k] = b.Close
		volumes[k] = b.Volume
	}
	exact := make([]bool, len(ref))
	for i, ts := range ref {
		_, exact[i] = closes[ts.UnixMilli()]
	}
	return AlignedBars{
		Close:  a.Align(ref, closes),
		Volume: a.Align(ref, volumes),
		Exact:  exact,
	}
}

// Coverage is the share of reference positions with a value.
func Coverage(s series.Series) float64 {
	if s.Len() == 0 {
		return 0
	}
	return float64(s.CountValid()) / float64(s.Len())
}

// Package surprise standardizes economic release deltas against their own
// trailing history and combines them into a weighted composite index.
package surprise

import (
	"slices"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"fusioncli/internal/asof"
	"fusioncli/internal/exchtime"
	"fusioncli/internal/series"
	"fusioncli/pkg/contracts/domain"
)

const (
	// Lookback is the trailing window of deltas used for the scale.
	Lookback = 1096 * 24 * time.Hour
	// MinObservations is the trailing delta count required for a z-score.
	MinObservations = 8
)

// Release is one published value of an indicator.
type Release struct {
	Time   time.Time
	Actual float64
}

// Score is the standardized surprise of one release.
type Score struct {
	Time  time.Time
	Date  asof.DateKey
	Delta float64
	Z     float64
}

// ReleasesFromEvents extracts the indicator's releases with an actual value.
// An unparseable clock label places the release at the end of its local day.
func ReleasesFromEvents(events []domain.CalendarEvent, ind Indicator) []Release {
	var out []Release
	for _, e := range events {
		if !e.Actual.Valid || !ind.Matches(e) {
			continue
		}
		ts, err := exchtime.ParseEventTime(e.EventDate, e.EventTime)
		if err != nil {
			y, m, d := e.EventDate.Date()
			ts = exchtime.Wall(y, m, d, 23, 59)
		}
		out = append(out, Release{Time: ts, Actual: e.Actual.Float64})
	}
	return out
}

// ZScores scores every release after the first: delta over the previous
// actual divided by the population standard deviation of all deltas released
// within Lookback up to and including this one. Releases with fewer than
// MinObservations trailing deltas or a zero scale are not scored.
func ZScores(releases []Release) []Score {
	rel := dedupe(releases)
	type point struct {
		t time.Time
		d float64
	}
	deltas := make([]point, 0, len(rel))
	var out []Score
	for j := 1; j < len(rel); j++ {
		d := rel[j].Actual - rel[j-1].Actual
		deltas = append(deltas, point{rel[j].Time, d})

		cutoff := rel[j].Time.Add(-Lookback)
		first := sort.Search(len(deltas), func(i int) bool { return !deltas[i].t.Before(cutoff) })
		if len(deltas)-first < MinObservations {
			continue
		}
		window := make([]float64, 0, len(deltas)-first)
		for _, p := range deltas[first:] {
			window = append(window, p.d)
		}
		_, sd := stat.PopMeanStdDev(window, nil)
		if sd == 0 {
			continue
		}
		out = append(out, Score{Time: rel[j].Time, Date: asof.KeyOf(rel[j].Time), Delta: d, Z: d / sd})
	}
	return out
}

// dedupe sorts releases by time, keeping the last of any repeated instant.
func dedupe(releases []Release) []Release {
	rel := slices.Clone(releases)
	sort.SliceStable(rel, func(i, j int) bool { return rel[i].Time.Before(rel[j].Time) })
	out := rel[:0]
	for _, r := range rel {
		if n := len(out); n > 0 && out[n-1].Time.Equal(r.Time) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out
}

// ByDate keys scores by release date. A later release on the same date wins.
func ByDate(scores []Score) map[asof.DateKey]float64 {
	out := make(map[asof.DateKey]float64, len(scores))
	for _, s := range scores {
		out[s.Date] = s.Z
	}
	return out
}

// Timeline indexes scores by release instant for as-of reads.
type Timeline struct {
	ix *asof.Index[int64]
}

// NewTimeline builds a timeline from scores.
func NewTimeline(scores []Score) *Timeline {
	m := make(map[int64]float64, len(scores))
	for _, s := range scores {
		m[s.Time.UnixMilli()] = s.Z
	}
	return &Timeline{ix: asof.NewIndex(m)}
}

// At returns the latest z released at or before ts.
func (tl *Timeline) At(ts time.Time) series.Opt {
	if tl == nil {
		return series.None
	}
	return tl.ix.Lookup(ts.UnixMilli())
}

// Composite is the weighted mean of the available component z-scores.
// Components without a z or with a non-positive weight are left out.
func Composite(z map[Indicator]series.Opt, weights map[Indicator]float64) series.Opt {
	var num, den float64
	for _, ind := range Indicators {
		v, w := z[ind], weights[ind]
		if !v.OK || w <= 0 {
			continue
		}
		num += w * v.V
		den += w
	}
	if den == 0 {
		return series.None
	}
	return series.Some(num / den)
}

// Index evaluates per-indicator and composite surprise at arbitrary instants.
type Index struct {
	timelines map[Indicator]*Timeline
	weights   map[Indicator]float64
}

// NewIndex scores every indicator in weights from the calendar.
func NewIndex(events []domain.CalendarEvent, weights map[Indicator]float64) *Index {
	ix := &Index{timelines: make(map[Indicator]*Timeline, len(weights)), weights: weights}
	for ind := range weights {
		ix.timelines[ind] = NewTimeline(ZScores(ReleasesFromEvents(events, ind)))
	}
	return ix
}

// At returns the indicator's latest z at ts.
func (ix *Index) At(ind Indicator, ts time.Time) series.Opt {
	return ix.timelines[ind].At(ts)
}

// CompositeAt returns the composite index at ts.
func (ix *Index) CompositeAt(ts time.Time) series.Opt {
	z := make(map[Indicator]series.Opt, len(ix.timelines))
	for ind, tl := range ix.timelines {
		z[ind] = tl.At(ts)
	}
	return Composite(z, ix.weights)
}

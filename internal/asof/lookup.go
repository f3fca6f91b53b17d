package asof

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"time"

	"fusioncli/internal/series"
	"fusioncli/pkg/contracts/domain"
)

// Lookup returns values[k] for the rightmost k in keys with k <= target.
// keys must be ascending. The result does not depend on call order.
func Lookup[K cmp.Ordered](keys []K, values map[K]float64, target K) series.Opt {
	i := sort.Search(len(keys), func(i int) bool { return keys[i] > target })
	if i == 0 {
		return series.None
	}
	v, ok := values[keys[i-1]]
	if !ok {
		return series.None
	}
	return series.Some(v)
}

// Index is an immutable sorted key/value table supporting as-of lookups.
type Index[K cmp.Ordered] struct {
	keys []K
	vals []float64
}

// NewIndex builds an index from unordered entries. Later duplicates of a key
// replace earlier ones.
func NewIndex[K cmp.Ordered](entries map[K]float64) *Index[K] {
	keys := make([]K, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	vals := make([]float64, len(keys))
	for i, k := range keys {
		vals[i] = entries[k]
	}
	return &Index[K]{keys: keys, vals: vals}
}

// Len returns the number of keys.
func (ix *Index[K]) Len() int { return len(ix.keys) }

// Keys returns the ascending keys. The slice must not be modified.
func (ix *Index[K]) Keys() []K { return ix.keys }

// Lookup returns the value at the rightmost key <= target.
func (ix *Index[K]) Lookup(target K) series.Opt {
	i := sort.Search(len(ix.keys), func(i int) bool { return ix.keys[i] > target })
	if i == 0 {
		return series.None
	}
	return series.Some(ix.vals[i-1])
}

// LookupKey is Lookup that also returns the matched key.
func (ix *Index[K]) LookupKey(target K) (K, series.Opt) {
	var zero K
	i := sort.Search(len(ix.keys), func(i int) bool { return ix.keys[i] > target })
	if i == 0 {
		return zero, series.None
	}
	return ix.keys[i-1], series.Some(ix.vals[i-1])
}

// NewDateIndex indexes observations by UTC date, dropping missing values so
// that a lookup falls back to the last published number.
func NewDateIndex(points []domain.ObservationPoint) *Index[DateKey] {
	entries := make(map[DateKey]float64, len(points))
	for _, p := range points {
		if v := series.FromNull(p.Value); v.OK {
			entries[KeyOf(p.Date)] = v.V
		}
	}
	return NewIndex(entries)
}

// LaggedSeries is a macro series whose lookups apply its cadence's lag.
type LaggedSeries struct {
	Meta  domain.SeriesMetadata
	index *Index[DateKey]
}

// NewLaggedSeries validates the cadence and indexes the observations.
func NewLaggedSeries(data domain.MacroSeriesData) (*LaggedSeries, error) {
	if _, err := domain.ParseFrequency(string(data.Meta.Frequency)); err != nil {
		return nil, fmt.Errorf("series %s: %w", data.Meta.SeriesID, err)
	}
	return &LaggedSeries{Meta: data.Meta, index: NewDateIndex(data.Points)}, nil
}

// Lag returns the series' publication lag in days.
func (s *LaggedSeries) Lag() int { return ConservativeLag(s.Meta.Frequency) }

// Len returns the number of indexed observations.
func (s *LaggedSeries) Len() int { return s.index.Len() }

// At returns the value a row stamped ts may observe.
func (s *LaggedSeries) At(ts time.Time) series.Opt {
	return s.index.Lookup(EffectiveKey(ts, s.Meta.Frequency))
}

// AtKey returns the value visible on calendar day k after lag.
func (s *LaggedSeries) AtKey(k DateKey) series.Opt {
	return s.index.Lookup(k.AddDays(-s.Lag()))
}

// Grid is a dense daily array of lagged values starting at Start.
type Grid struct {
	Start  DateKey
	Values series.Series
}

// Grid materializes lagged values for every day in [from, to].
func (s *LaggedSeries) Grid(from, to DateKey) Grid {
	if to < from {
		return Grid{Start: from, Values: series.New(0)}
	}
	g := Grid{Start: from, Values: series.New(int(to-from) + 1)}
	for k := from; k <= to; k++ {
		g.Values.SetOpt(int(k-from), s.AtKey(k))
	}
	return g
}

// Pos returns the grid offset of k, or -1 when outside the grid.
func (g Grid) Pos(k DateKey) int {
	p := int(k - g.Start)
	if p < 0 || p >= g.Values.Len() {
		return -1
	}
	return p
}

// At returns the grid value on day k.
func (g Grid) At(k DateKey) series.Opt {
	return g.Values.At(g.Pos(k))
}

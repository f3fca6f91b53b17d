package surprise

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusioncli/internal/asof"
	"fusioncli/internal/series"
	"fusioncli/pkg/contracts/domain"
)

var firstRelease = time.Date(2020, 1, 14, 13, 30, 0, 0, time.UTC)

func monthly(actuals ...float64) []Release {
	out := make([]Release, len(actuals))
	for i, a := range actuals {
		out[i] = Release{Time: firstRelease.AddDate(0, i, 0), Actual: a}
	}
	return out
}

func TestZScoresNeedMinimumHistory(t *testing.T) {
	// deltas alternate +1/-1, population sd 1
	acts := []float64{0}
	for i := 0; i < 12; i++ {
		acts = append(acts, acts[len(acts)-1]+float64(1-2*(i%2)))
	}
	scores := ZScores(monthly(acts...))

	// first scored release is the one that completes MinObservations deltas
	require.Len(t, scores, 12-MinObservations+1)
	assert.Equal(t, firstRelease.AddDate(0, MinObservations, 0), scores[0].Time)
	// even-length windows hold as many +1 as -1 deltas
	for _, k := range []int{0, 2, 4} {
		assert.InDelta(t, 1.0, math.Abs(scores[k].Z), 1e-12)
	}
	for _, s := range scores {
		assert.Equal(t, math.Signbit(s.Delta), math.Signbit(s.Z))
	}
}

func TestZScoresZeroScaleSkipped(t *testing.T) {
	// constant deltas have zero dispersion
	constant := monthly(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	assert.Empty(t, ZScores(constant))
	assert.Empty(t, ZScores(nil))
	assert.Empty(t, ZScores(monthly(1)))
}

func TestZScoresLookbackDropsOldDeltas(t *testing.T) {
	var rel []Release
	// 10 huge swings long ago, then 10 small ones four years later
	for i := 0; i < 11; i++ {
		rel = append(rel, Release{Time: firstRelease.AddDate(0, i, 0), Actual: float64(100 * (i % 2))})
	}
	later := firstRelease.AddDate(4, 0, 0)
	for i := 0; i < 11; i++ {
		rel = append(rel, Release{Time: later.AddDate(0, i, 0), Actual: float64(i % 2)})
	}
	scores := ZScores(rel)
	last := scores[len(scores)-1]
	assert.Equal(t, later.AddDate(0, 10, 0), last.Time)
	// window: one zero delta plus five +1 and five -1
	assert.InDelta(t, math.Sqrt(1.1), math.Abs(last.Z), 1e-12)
}

func TestZScoresBackwardLooking(t *testing.T) {
	base := monthly(1, 3, 2, 5, 4, 4.5, 6, 5, 7, 6.5, 8, 7)
	before := ZScores(base)
	extended := append(append([]Release{}, base...), Release{Time: firstRelease.AddDate(2, 0, 0), Actual: 500})
	after := ZScores(extended)
	require.Greater(t, len(after), len(before))
	assert.Equal(t, before, after[:len(before)])
}

func TestZScoresDeduplicatesAndSorts(t *testing.T) {
	rel := monthly(1, 3, 2, 5, 4, 4.5, 6, 5, 7, 6.5)
	shuffled := []Release{rel[5], rel[0], rel[9], rel[2], rel[1], rel[3], rel[4], rel[8], rel[6], rel[7]}
	assert.Equal(t, ZScores(rel), ZScores(shuffled))

	dup := append([]Release{{Time: rel[9].Time, Actual: -100}}, rel...)
	assert.Equal(t, ZScores(rel), ZScores(dup), "later duplicate replaces earlier")
}

func TestByDateAndTimeline(t *testing.T) {
	scores := []Score{
		{Time: firstRelease, Date: asof.KeyOf(firstRelease), Z: 1},
		{Time: firstRelease.Add(2 * time.Hour), Date: asof.KeyOf(firstRelease), Z: 2},
	}
	m := ByDate(scores)
	assert.Equal(t, map[asof.DateKey]float64{asof.KeyOf(firstRelease): 2}, m)

	tl := NewTimeline(scores)
	assert.False(t, tl.At(firstRelease.Add(-time.Minute)).OK)
	assert.Equal(t, series.Some(1), tl.At(firstRelease.Add(time.Hour)))
	assert.Equal(t, series.Some(2), tl.At(firstRelease.Add(3*time.Hour)))

	var nilTL *Timeline
	assert.False(t, nilTL.At(firstRelease).OK)
}

func TestComposite(t *testing.T) {
	weights := map[Indicator]float64{CPI: 1, NFP: 1, GDP: 0.5, PPI: 0}
	tests := []struct {
		name string
		z    map[Indicator]series.Opt
		want series.Opt
	}{
		{"all missing", map[Indicator]series.Opt{CPI: series.None}, series.None},
		{"missing excluded not zero filled", map[Indicator]series.Opt{CPI: series.Some(2), NFP: series.None}, series.Some(2)},
		{"weighted", map[Indicator]series.Opt{CPI: series.Some(2), GDP: series.Some(-1)}, series.Some(1)},
		{"zero weight ignored", map[Indicator]series.Opt{PPI: series.Some(9), NFP: series.Some(1)}, series.Some(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Composite(tt.z, weights))
		})
	}
}

func event(date time.Time, clock, name string, actual float64) domain.CalendarEvent {
	return domain.CalendarEvent{
		EventDate: date,
		EventTime: clock,
		Impact:    domain.ImpactHigh,
		Name:      name,
		Actual:    sql.NullFloat64{Float64: actual, Valid: true},
	}
}

func TestReleasesFromEvents(t *testing.T) {
	d := time.Date(2024, 7, 11, 0, 0, 0, 0, time.UTC)
	events := []domain.CalendarEvent{
		event(d, "08:30 ET", "CPI m/m", 0.3),
		event(d, "08:30 ET", "Core CPI m/m", 0.2),
		event(d, "Tentative", "CPI y/y", 3.0),
		{EventDate: d, EventTime: "08:30 ET", Name: "CPI index", Impact: domain.ImpactHigh},
	}
	rel := ReleasesFromEvents(events, CPI)
	require.Len(t, rel, 2)
	assert.Equal(t, time.Date(2024, 7, 11, 12, 30, 0, 0, time.UTC), rel[0].Time)
	assert.Equal(t, 0.3, rel[0].Actual)
	assert.Equal(t, time.Date(2024, 7, 12, 3, 59, 0, 0, time.UTC), rel[1].Time, "unparseable time goes to end of day")

	core := ReleasesFromEvents(events, CoreCPI)
	require.Len(t, core, 1)
	assert.Equal(t, 0.2, core[0].Actual)
}

func TestIndexCompositeAt(t *testing.T) {
	var events []domain.CalendarEvent
	cpi := []float64{1, 3, 2, 5, 4, 4.5, 6, 5, 7, 6.5, 8, 7}
	for i, a := range cpi {
		d := time.Date(2022, time.Month(1+i), 12, 0, 0, 0, 0, time.UTC)
		events = append(events, event(d, "08:30 ET", "CPI m/m", a))
	}
	ix := NewIndex(events, map[Indicator]float64{CPI: 1, NFP: 1})
	late := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	z := ix.At(CPI, late)
	require.True(t, z.OK)
	assert.Equal(t, z, ix.CompositeAt(late), "NFP has no history and is excluded")
	assert.False(t, ix.At(NFP, late).OK)
	assert.False(t, ix.CompositeAt(time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)).OK)
}

func TestIndicatorNames(t *testing.T) {
	for _, ind := range Indicators {
		got, err := ParseIndicator(ind.Name())
		require.NoError(t, err)
		assert.Equal(t, ind, got)
		assert.Greater(t, ind.DefaultWeight(), 0.0)
	}
	_, err := ParseIndicator("bitcoin")
	assert.Error(t, err)
}

package align

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fusioncli/internal/series"
	"fusioncli/pkg/contracts/domain"
)

var t0 = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func hourly(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = t0.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestAlign(t *testing.T) {
	ref := hourly(12)
	sec := map[int64]float64{
		ref[1].UnixMilli(): 10,
		ref[2].UnixMilli(): 11,
		ref[9].UnixMilli(): 20,
	}
	got := New(3).Align(ref, sec)

	want := []series.Opt{
		series.None,     // nothing known yet
		series.Some(10), // exact
		series.Some(11), // exact
		series.Some(11), // +1h
		series.Some(11), // +2h
		series.Some(11), // +3h, at the limit
		series.None,     // +4h, reset
		series.None,     // stays null after reset
		series.None,
		series.Some(20),
		series.Some(20),
		series.Some(20),
	}
	for i, w := range want {
		assert.Equal(t, w, got.At(i), "index %d", i)
	}
}

func TestAlignSeriesSkipsNulls(t *testing.T) {
	ref := hourly(4)
	vals := series.FromOpts([]series.Opt{series.Some(1), series.None, series.Some(3)})
	got := New(1).AlignSeries(ref, ref[:3], vals)
	assert.Equal(t, series.Some(1), got.At(0))
	assert.Equal(t, series.Some(1), got.At(1))
	assert.Equal(t, series.Some(3), got.At(2))
	assert.Equal(t, series.Some(3), got.At(3))
}

func TestAlignBars(t *testing.T) {
	ref := hourly(4)
	bars := []domain.Bar{
		{Timestamp: ref[0], Close: 100, Volume: 5},
		{Timestamp: ref[0].Add(30 * time.Minute), Close: 999, Volume: 1},
		{Timestamp: ref[2], Close: 102, Volume: 7},
	}
	got := New(DefaultMaxGapHours).AlignBars(ref, bars)
	assert.Equal(t, []bool{true, false, true, false}, got.Exact)
	assert.Equal(t, series.Some(100), got.Close.At(1))
	assert.Equal(t, series.Some(102), got.Close.At(3))
	assert.Equal(t, series.Some(7), got.Volume.At(3))
	assert.Equal(t, 1.0, Coverage(got.Close))
	assert.Equal(t, 0.0, Coverage(series.New(0)))
}

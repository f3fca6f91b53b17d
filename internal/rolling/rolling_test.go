package rolling

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusioncli/internal/series"
)

func syntheticCloses(n int) []float64 {
	out := make([]float64, n)
	price := 5000.0
	for i := range out {
		price += 3*math.Sin(float64(i)/7) + 0.25*float64(i%5-2)
		out[i] = price
	}
	return out
}

func TestMeanWarmupAndValue(t *testing.T) {
	closes := syntheticCloses(300)
	m := Mean(series.FromValues(closes), 24)

	for i := 0; i < 23; i++ {
		assert.False(t, m.Valid(i), "index %d should be warmup", i)
	}
	for i := 23; i < 300; i++ {
		assert.True(t, m.Valid(i), "index %d should be numeric", i)
	}

	var sum float64
	for _, v := range closes[227:251] {
		sum += v
	}
	assert.InDelta(t, sum/24, m.V[250], 1e-9)
}

func TestStdIsPopulation(t *testing.T) {
	s := Std(series.FromValues([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 8)
	require.True(t, s.Valid(7))
	assert.InDelta(t, 2.0, s.V[7], 1e-12)
	assert.False(t, s.Valid(6))
}

func TestWindowWithNullIsNull(t *testing.T) {
	v := series.FromValues([]float64{1, 2, 3, 4, 5})
	v.Clear(2)
	m := Mean(v, 2)
	assert.Equal(t, series.Some(1.5), m.At(1))
	assert.False(t, m.Valid(2))
	assert.False(t, m.Valid(3))
	assert.Equal(t, series.Some(4.5), m.At(4))
}

func TestMinMaxAndSum(t *testing.T) {
	lo, hi := MinMax(series.FromValues([]float64{3, 1, 4, 1, 5, 9, 2}), 3)
	assert.False(t, lo.Valid(1))
	assert.Equal(t, series.Some(1), lo.At(2))
	assert.Equal(t, series.Some(4), hi.At(2))
	assert.Equal(t, series.Some(2), lo.At(6))
	assert.Equal(t, series.Some(9), hi.At(6))

	s := Sum(series.FromValues([]float64{1, 2, 3}), 2)
	assert.Equal(t, series.Some(5), s.At(2))
}

func TestZeroWindowIsAllNull(t *testing.T) {
	m := Mean(series.FromValues([]float64{1, 2, 3}), 0)
	assert.Equal(t, 0, m.CountValid())
}

func TestPercentile(t *testing.T) {
	arr := series.FromValues([]float64{5, 1, 2, 3, 4, 6, 0})
	tests := []struct {
		name string
		i    int
		w    int
		want series.Opt
	}{
		{"too few observations", 4, 10, series.None},
		{"max of window", 5, 10, series.Some(5.0 / 6.0)},
		{"min of window", 6, 10, series.Some(0)},
		{"window limited", 6, 6, series.Some(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentile(arr, tt.i, tt.w))
		})
	}

	withNull := series.FromValues([]float64{1, 2, 3, 4, 5, 6, 7})
	withNull.Clear(6)
	assert.False(t, Percentile(withNull, 6, 10).OK)
}

func TestPercentileBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	vals := make([]float64, 500)
	for i := range vals {
		vals[i] = rng.NormFloat64()
	}
	arr := series.FromValues(vals)
	for i := 0; i < len(vals); i += 5 {
		arr.Clear(i)
	}
	p := PercentileSeries(arr, 20)
	for i := range vals {
		if o := p.At(i); o.OK {
			assert.GreaterOrEqual(t, o.V, 0.0)
			assert.LessOrEqual(t, o.V, 1.0)
		}
	}
}

func TestPearsonCorr(t *testing.T) {
	xs := make([]float64, 30)
	ys := make([]float64, 30)
	zs := make([]float64, 30)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = 2*float64(i) + 1
		zs[i] = -float64(i)
	}
	x, y, z := series.FromValues(xs), series.FromValues(ys), series.FromValues(zs)

	assert.InDelta(t, 1.0, PearsonCorr(x, y, 29, 21, 10).V, 1e-12)
	assert.InDelta(t, -1.0, PearsonCorr(x, z, 29, 21, 10).V, 1e-12)
	assert.False(t, PearsonCorr(x, y, 5, 21, 10).OK, "below minPairs")
	assert.True(t, PearsonCorr(x, y, 9, 21, 0).OK, "default minPairs is 10")
	assert.False(t, PearsonCorr(x, y, 8, 21, 0).OK)

	flat := series.FromValues(make([]float64, 30))
	assert.False(t, PearsonCorr(x, flat, 29, 21, 10).OK, "constant side")

	sparse := series.FromValues(ys)
	for i := 10; i < 30; i += 2 {
		sparse.Clear(i)
	}
	// 21 slots, 10 of them null on one side
	assert.False(t, PearsonCorr(x, sparse, 29, 21, 12).OK)
	assert.True(t, PearsonCorr(x, sparse, 29, 21, 11).OK)
}

func TestCorrSeriesBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a, b := make([]float64, 300), make([]float64, 300)
	for i := range a {
		a[i] = rng.NormFloat64()
		b[i] = 0.5*a[i] + rng.NormFloat64()
	}
	c := CorrSeries(series.FromValues(a), series.FromValues(b), 21, 10)
	for i := 0; i < c.Len(); i++ {
		if o := c.At(i); o.OK {
			assert.GreaterOrEqual(t, o.V, -1.0)
			assert.LessOrEqual(t, o.V, 1.0)
		}
	}
	assert.False(t, c.Valid(8))
	assert.True(t, c.Valid(9))
}

func TestDeltaBack(t *testing.T) {
	arr := series.FromValues([]float64{100, 0, 110, 121})
	assert.Equal(t, series.Some(21), DeltaBack(arr, 3, 3))
	assert.Equal(t, series.Some(121), DeltaBack(arr, 3, 2))
	assert.False(t, DeltaBack(arr, 1, 2).OK)
	assert.InDelta(t, 0.1, PctDeltaBack(arr, 3, 1).V, 1e-12)
	assert.False(t, PctDeltaBack(arr, 2, 1).OK, "zero base")
	assert.False(t, PctDeltaBack(arr, 0, 1).OK)

	arr.Clear(0)
	assert.False(t, DeltaBack(arr, 2, 2).OK)

	d := DeltaSeries(arr, 1)
	assert.False(t, d.Valid(1))
	assert.Equal(t, series.Some(11), d.At(3))
	p := PctDeltaSeries(arr, 1)
	assert.InDelta(t, 0.1, p.V[3], 1e-12)
}

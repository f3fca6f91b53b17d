package filters

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusioncli/internal/series"
)

type ohlc struct {
	highs, lows, closes []float64
}

func randomWalk(n int, seed int64) ohlc {
	rng := rand.New(rand.NewSource(seed))
	out := ohlc{make([]float64, n), make([]float64, n), make([]float64, n)}
	price := 5000.0
	for i := 0; i < n; i++ {
		price += rng.NormFloat64() * 4
		spread := 1 + math.Abs(rng.NormFloat64())*3
		out.closes[i] = price
		out.highs[i] = price + spread*rng.Float64()
		out.lows[i] = price - spread*rng.Float64()
	}
	return out
}

// assertCausal checks that rewriting bars after cut leaves outputs at or
// before cut unchanged.
func assertCausal(t *testing.T, name string, run func(ohlc) []series.Series) {
	t.Helper()
	base := randomWalk(300, 1)
	alt := randomWalk(300, 1)
	const cut = 200
	for i := cut + 1; i < 300; i++ {
		alt.closes[i] *= 1.05
		alt.highs[i] *= 1.07
		alt.lows[i] *= 0.97
	}
	a, b := run(base), run(alt)
	for k := range a {
		for i := 0; i <= cut; i++ {
			require.Equal(t, a[k].At(i), b[k].At(i), "%s output %d index %d", name, k, i)
		}
	}
}

func TestFiltersAreCausal(t *testing.T) {
	assertCausal(t, "rsi", func(d ohlc) []series.Series { return []series.Series{RSI(d.closes, 14)} })
	assertCausal(t, "cycle", func(d ohlc) []series.Series {
		return []series.Series{CyclePosition(d.closes, DefaultCycleParams())}
	})
	assertCausal(t, "squeeze", func(d ohlc) []series.Series {
		r := Squeeze(d.highs, d.lows, d.closes, DefaultSqueezeParams())
		return []series.Series{r.State, r.Momentum, r.Bars}
	})
	assertCausal(t, "vixfix", func(d ohlc) []series.Series {
		r := VixFix(d.lows, d.closes, DefaultVixFixParams())
		return []series.Series{r.Value, r.UpperBand, r.RangeHigh, r.Signal, r.Percentile}
	})
	assertCausal(t, "macd", func(d ohlc) []series.Series {
		r := MACD(d.closes, DefaultMACDParams())
		return []series.Series{r.Line, r.Signal, r.Hist, r.Color}
	})
}

func TestEMA(t *testing.T) {
	e := EMA([]float64{1, 2, 3, 4, 5}, 3)
	assert.False(t, e.Valid(1))
	assert.Equal(t, series.Some(2), e.At(2))
	assert.Equal(t, series.Some(3), e.At(3))
	assert.Equal(t, series.Some(4), e.At(4))
	assert.Equal(t, 0, EMA([]float64{1, 2}, 3).CountValid())
}

func TestTrueRange(t *testing.T) {
	tr := TrueRange([]float64{10, 12, 11}, []float64{9, 11, 7}, []float64{9.5, 11.5, 8})
	assert.Equal(t, []float64{1, 2.5, 4.5}, tr)
}

func TestRSI(t *testing.T) {
	r := RSI([]float64{1, 2, 1, 2, 1}, 2)
	assert.False(t, r.Valid(1))
	assert.InDelta(t, 50, r.V[2], 1e-12)
	assert.InDelta(t, 75, r.V[3], 1e-12)
	assert.InDelta(t, 37.5, r.V[4], 1e-12)

	up := make([]float64, 30)
	flat := make([]float64, 30)
	for i := range up {
		up[i] = float64(i)
		flat[i] = 7
	}
	assert.Equal(t, series.Some(100), RSI(up, 14).At(29))
	assert.Equal(t, series.Some(50), RSI(flat, 14).At(29))
	assert.Equal(t, 0, RSI(up[:14], 14).CountValid())
}

func TestRSIWarmupAndBounds(t *testing.T) {
	d := randomWalk(200, 5)
	r := RSI(d.closes, DefaultRSIPeriod)
	assert.Equal(t, RSIWarmup(DefaultRSIPeriod)-1, r.FirstValid())
	for i := r.FirstValid(); i < r.Len(); i++ {
		require.True(t, r.Valid(i))
		assert.GreaterOrEqual(t, r.V[i], 0.0)
		assert.LessOrEqual(t, r.V[i], 100.0)
	}
}

func TestCyclePositionWarmupAndBounds(t *testing.T) {
	p := DefaultCycleParams()
	d := randomWalk(400, 9)
	c := CyclePosition(d.closes, p)

	assert.Equal(t, 68, p.Warmup())
	assert.Equal(t, p.Warmup()-1, c.FirstValid())
	for i := c.FirstValid(); i < c.Len(); i++ {
		require.True(t, c.Valid(i))
		assert.GreaterOrEqual(t, c.V[i], 0.0)
		assert.LessOrEqual(t, c.V[i], 1.0)
	}

	assert.Equal(t, 0, CyclePosition(d.closes[:p.Warmup()-1], p).CountValid())
}

func TestCyclePositionFlatFallsBackToNeutral(t *testing.T) {
	flat := make([]float64, 120)
	for i := range flat {
		flat[i] = 4321.25
	}
	c := CyclePosition(flat, DefaultCycleParams())
	for i := c.FirstValid(); i < c.Len(); i++ {
		assert.InDelta(t, 0.5, c.V[i], 1e-9)
	}
}

func TestCyclePositionClampsOvershoot(t *testing.T) {
	// A step followed by a reversal drives the smoothed stochastic past its bounds.
	closes := make([]float64, 200)
	for i := range closes {
		switch {
		case i < 100:
			closes[i] = 100 + 0.5*math.Sin(float64(i))
		case i < 110:
			closes[i] = 100 + float64(i-99)*8
		default:
			closes[i] = 180 - float64(i-110)*9
		}
	}
	c := CyclePosition(closes, DefaultCycleParams())
	for i := c.FirstValid(); i < c.Len(); i++ {
		assert.GreaterOrEqual(t, c.V[i], 0.0)
		assert.LessOrEqual(t, c.V[i], 1.0)
	}
}

func squeezeScenario() ohlc {
	n := 100
	d := ohlc{make([]float64, n), make([]float64, n), make([]float64, n)}
	for i := 0; i < n; i++ {
		c := 100 + 0.01*math.Sin(float64(i))
		hiOff, loOff := 1.0, 1.0
		if i >= 60 {
			c = 100 + float64(i-59)*5
			hiOff, loOff = 0.1, 0.1
		}
		d.closes[i], d.highs[i], d.lows[i] = c, c+hiOff, c-loOff
	}
	return d
}

func TestSqueezeStates(t *testing.T) {
	d := squeezeScenario()
	r := Squeeze(d.highs, d.lows, d.closes, DefaultSqueezeParams())

	assert.False(t, r.State.Valid(18))
	require.True(t, r.State.Valid(19))
	assert.Equal(t, float64(SqueezeNarrow), r.State.V[39])
	assert.Equal(t, float64(39-19+1), r.Bars.V[39])

	fired := -1
	for i := 60; i < 100; i++ {
		if SqueezeState(r.State.V[i]) == SqueezeFired {
			fired = i
			break
		}
	}
	require.NotEqual(t, -1, fired, "breakout should fire")
	assert.True(t, SqueezeState(r.State.V[fired-1]).InSqueeze())
	assert.Equal(t, float64(SqueezeNone), r.State.V[fired+1])
	assert.Equal(t, 0.0, r.Bars.V[fired])

	for i := 0; i < r.State.Len(); i++ {
		if o := r.State.At(i); o.OK {
			assert.Contains(t, []float64{0, 1, 2, 3, 4}, o.V)
		}
	}
}

func TestSqueezeMomentumOnLinearTrend(t *testing.T) {
	n := 60
	h, l, c := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		c[i] = float64(i)
		h[i] = float64(i) + 0.5
		l[i] = float64(i) - 0.5
	}
	r := Squeeze(h, l, c, DefaultSqueezeParams())
	assert.False(t, r.Momentum.Valid(37))
	require.True(t, r.Momentum.Valid(38))
	assert.InDelta(t, 9.5, r.Momentum.V[38], 1e-9)
	assert.InDelta(t, 9.5, r.Momentum.V[59], 1e-9)
}

func TestSqueezeStateString(t *testing.T) {
	assert.Equal(t, "none", SqueezeNone.String())
	assert.Equal(t, "wide", SqueezeWide.String())
	assert.Equal(t, "normal", SqueezeNormal.String())
	assert.Equal(t, "narrow", SqueezeNarrow.String())
	assert.Equal(t, "fired", SqueezeFired.String())
}

func TestVixFix(t *testing.T) {
	p := VixFixParams{Period: 3, BBLength: 2, BBMult: 2, RangeLookback: 2, RangeHigh: 0.85}
	r := VixFix([]float64{9, 11, 10, 8}, []float64{10, 12, 11, 9}, p)

	assert.False(t, r.Value.Valid(1))
	assert.InDelta(t, 200.0/12, r.Value.V[2], 1e-9)
	assert.InDelta(t, 400.0/12, r.Value.V[3], 1e-9)
	assert.InDelta(t, 1.0, r.Percentile.V[3], 1e-12)
	assert.False(t, r.Percentile.Valid(2), "range window still warming up")
	assert.Equal(t, series.Some(1), r.Signal.At(3))
}

func TestVixFixBounds(t *testing.T) {
	d := randomWalk(400, 21)
	r := VixFix(d.lows, d.closes, DefaultVixFixParams())
	assert.Equal(t, 21, r.Value.FirstValid())
	for i := 0; i < r.Value.Len(); i++ {
		if o := r.Percentile.At(i); o.OK {
			assert.GreaterOrEqual(t, o.V, 0.0)
			assert.LessOrEqual(t, o.V, 1.0)
		}
		if o := r.Signal.At(i); o.OK {
			assert.Contains(t, []float64{0, 1}, o.V)
		}
	}
}

func TestMACD(t *testing.T) {
	d := randomWalk(200, 3)
	r := MACD(d.closes, DefaultMACDParams())
	assert.Equal(t, 25, r.Line.FirstValid())
	assert.Equal(t, 33, r.Signal.FirstValid())
	assert.Equal(t, 33, r.Hist.FirstValid())
	assert.Equal(t, 34, r.Color.FirstValid())
	for i := 34; i < 200; i++ {
		assert.InDelta(t, r.Line.V[i]-r.Signal.V[i], r.Hist.V[i], 1e-12)
		assert.Contains(t, []float64{0, 1, 2, 3}, r.Color.V[i])
	}
}

func TestHistColor(t *testing.T) {
	tests := []struct {
		name      string
		cur, prev float64
		want      HistColor
	}{
		{"above rising", 2, 1, HistAboveRising},
		{"above falling", 1, 2, HistAboveFalling},
		{"zero flat counts above", 0, 0, HistAboveFalling},
		{"below rising", -1, -2, HistBelowRising},
		{"below falling", -2, -1, HistBelowFalling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, histColor(tt.cur, tt.prev))
		})
	}
}

package filters

import (
	"math"

	"fusioncli/internal/rolling"
	"fusioncli/internal/series"
)

// SMA is the simple moving average of a dense slice.
func SMA(values []float64, n int) series.Series {
	return rolling.Mean(series.FromValues(values), n)
}

// EMA is the exponential moving average with alpha 2/(n+1), seeded with the
// SMA of the first n values. Positions before n-1 are null.
func EMA(values []float64, n int) series.Series {
	out := series.New(len(values))
	if n <= 0 || len(values) < n {
		return out
	}
	alpha := 2.0 / float64(n+1)
	var seed float64
	for _, v := range values[:n] {
		seed += v
	}
	prev := seed / float64(n)
	out.Set(n-1, prev)
	for i := n; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out.Set(i, prev)
	}
	return out
}

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|). The first bar
// uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		tr := highs[i] - lows[i]
		if i > 0 {
			tr = math.Max(tr, math.Abs(highs[i]-closes[i-1]))
			tr = math.Max(tr, math.Abs(lows[i]-closes[i-1]))
		}
		out[i] = tr
	}
	return out
}

// Highest is the rolling maximum of a dense slice.
func Highest(values []float64, n int) series.Series {
	_, hi := rolling.MinMax(series.FromValues(values), n)
	return hi
}

// Lowest is the rolling minimum of a dense slice.
func Lowest(values []float64, n int) series.Series {
	lo, _ := rolling.MinMax(series.FromValues(values), n)
	return lo
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

package rolling

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"fusioncli/internal/series"
)

// DefaultMinPairs is the minimum number of complete pairs for a correlation.
const DefaultMinPairs = 10

// minPercentileObs is the count a percentile must exceed.
const minPercentileObs = 5

// window copies values[i-w+1..i] into buf. It reports false when the window
// starts before index 0 or contains a null.
func window(values series.Series, i, w int, buf []float64) ([]float64, bool) {
	start := i - w + 1
	if w <= 0 || start < 0 || i >= values.Len() {
		return buf[:0], false
	}
	buf = buf[:0]
	for j := start; j <= i; j++ {
		if !values.OK[j] {
			return buf, false
		}
		buf = append(buf, values.V[j])
	}
	return buf, true
}

// Mean is the rolling arithmetic mean. The first w-1 positions are null, as
// is any window containing a null.
func Mean(values series.Series, w int) series.Series {
	out := series.New(values.Len())
	buf := make([]float64, 0, max(w, 0))
	for i := range values.V {
		win, ok := window(values, i, w, buf)
		if !ok {
			continue
		}
		out.Set(i, stat.Mean(win, nil))
	}
	return out
}

// Std is the rolling population standard deviation (divide by n).
func Std(values series.Series, w int) series.Series {
	out := series.New(values.Len())
	buf := make([]float64, 0, max(w, 0))
	for i := range values.V {
		win, ok := window(values, i, w, buf)
		if !ok {
			continue
		}
		_, std := stat.PopMeanStdDev(win, nil)
		out.Set(i, std)
	}
	return out
}

// MinMax returns the rolling minimum and maximum.
func MinMax(values series.Series, w int) (lo, hi series.Series) {
	lo, hi = series.New(values.Len()), series.New(values.Len())
	buf := make([]float64, 0, max(w, 0))
	for i := range values.V {
		win, ok := window(values, i, w, buf)
		if !ok {
			continue
		}
		lo.Set(i, floats.Min(win))
		hi.Set(i, floats.Max(win))
	}
	return lo, hi
}

// Sum is the rolling sum.
func Sum(values series.Series, w int) series.Series {
	out := series.New(values.Len())
	buf := make([]float64, 0, max(w, 0))
	for i := range values.V {
		win, ok := window(values, i, w, buf)
		if !ok {
			continue
		}
		out.Set(i, floats.Sum(win))
	}
	return out
}

// Percentile is the fraction of non-null values in arr[i-w+1..i] strictly
// below arr[i]. It needs more than five valid values in the window.
func Percentile(arr series.Series, i, w int) series.Opt {
	cur := arr.At(i)
	if !cur.OK || w <= 0 {
		return series.None
	}
	var n, below int
	for j := max(0, i-w+1); j <= i; j++ {
		if !arr.OK[j] {
			continue
		}
		n++
		if arr.V[j] < cur.V {
			below++
		}
	}
	if n <= minPercentileObs {
		return series.None
	}
	return series.Some(float64(below) / float64(n))
}

// PercentileSeries applies Percentile at every index.
func PercentileSeries(arr series.Series, w int) series.Series {
	out := series.New(arr.Len())
	for i := range arr.V {
		out.SetOpt(i, Percentile(arr, i, w))
	}
	return out
}

// PearsonCorr is Pearson's r over the pairs in [i-w+1, i] where both sides
// are present. It is null with fewer than minPairs pairs or when either side
// is constant.
func PearsonCorr(xs, ys series.Series, i, w, minPairs int) series.Opt {
	if minPairs <= 0 {
		minPairs = DefaultMinPairs
	}
	if i >= xs.Len() || i >= ys.Len() || w <= 0 {
		return series.None
	}
	var x, y []float64
	for j := max(0, i-w+1); j <= i; j++ {
		if xs.OK[j] && ys.OK[j] {
			x = append(x, xs.V[j])
			y = append(y, ys.V[j])
		}
	}
	if len(x) < minPairs || len(x) < 2 {
		return series.None
	}
	r := series.Some(stat.Correlation(x, y, nil))
	if !r.OK {
		return series.None
	}
	return series.Some(min(1, max(-1, r.V)))
}

// CorrSeries applies PearsonCorr at every index.
func CorrSeries(xs, ys series.Series, w, minPairs int) series.Series {
	n := min(xs.Len(), ys.Len())
	out := series.New(n)
	for i := 0; i < n; i++ {
		out.SetOpt(i, PearsonCorr(xs, ys, i, w, minPairs))
	}
	return out
}

// DeltaBack is arr[i] - arr[i-lookback].
func DeltaBack(arr series.Series, i, lookback int) series.Opt {
	if lookback < 0 || i-lookback < 0 {
		return series.None
	}
	return arr.At(i).Sub(arr.At(i - lookback))
}

// PctDeltaBack is arr[i]/arr[i-lookback] - 1; null when the base is zero.
func PctDeltaBack(arr series.Series, i, lookback int) series.Opt {
	if lookback < 0 || i-lookback < 0 {
		return series.None
	}
	cur, prev := arr.At(i), arr.At(i-lookback)
	if !cur.OK || !prev.OK || prev.V == 0 {
		return series.None
	}
	return series.Some(cur.V/prev.V - 1)
}

// DeltaSeries applies DeltaBack at every index.
func DeltaSeries(arr series.Series, lookback int) series.Series {
	out := series.New(arr.Len())
	for i := range arr.V {
		out.SetOpt(i, DeltaBack(arr, i, lookback))
	}
	return out
}

// PctDeltaSeries applies PctDeltaBack at every index.
func PctDeltaSeries(arr series.Series, lookback int) series.Series {
	out := series.New(arr.Len())
	for i := range arr.V {
		out.SetOpt(i, PctDeltaBack(arr, i, lookback))
	}
	return out
}

package filters

import (
	"gonum.org/v1/gonum/stat"

	"fusioncli/internal/rolling"
	"fusioncli/internal/series"
)

// SqueezeState classifies Bollinger/Keltner compression.
type SqueezeState int

const (
	SqueezeNone SqueezeState = iota
	SqueezeWide
	SqueezeNormal
	SqueezeNarrow
	SqueezeFired
)

func (s SqueezeState) String() string {
	switch s {
	case SqueezeWide:
		return "wide"
	case SqueezeNormal:
		return "normal"
	case SqueezeNarrow:
		return "narrow"
	case SqueezeFired:
		return "fired"
	default:
		return "none"
	}
}

// InSqueeze reports whether the state is one of the compression levels.
func (s SqueezeState) InSqueeze() bool {
	return s == SqueezeWide || s == SqueezeNormal || s == SqueezeNarrow
}

// SqueezeParams configures the detector. KC multiples must be ascending.
type SqueezeParams struct {
	BBLength     int
	BBMult       float64
	KCLength     int
	KCMultNarrow float64
	KCMultNormal float64
	KCMultWide   float64
}

// DefaultSqueezeParams returns BB 20x2.0 against KC 20 at 1.0/1.5/2.0.
func DefaultSqueezeParams() SqueezeParams {
	return SqueezeParams{
		BBLength:     20,
		BBMult:       2.0,
		KCLength:     20,
		KCMultNarrow: 1.0,
		KCMultNormal: 1.5,
		KCMultWide:   2.0,
	}
}

// SqueezeResult holds the parallel squeeze outputs.
type SqueezeResult struct {
	State    series.Series // SqueezeState as float
	Momentum series.Series // linear-regression momentum
	Bars     series.Series // consecutive bars in compression
}

// Squeeze compares the Bollinger band against Keltner channels built from the
// SMA of true range at three multiples. Momentum is the end point of a
// least-squares fit over KCLength bars of close minus the midline
// avg(avg(highest high, lowest low), SMA close).
func Squeeze(highs, lows, closes []float64, p SqueezeParams) SqueezeResult {
	n := len(closes)
	res := SqueezeResult{State: series.New(n), Momentum: series.New(n), Bars: series.New(n)}
	if p.BBLength <= 0 || p.KCLength <= 0 {
		return res
	}

	closeS := series.FromValues(closes)
	bbBasis := rolling.Mean(closeS, p.BBLength)
	bbDev := rolling.Std(closeS, p.BBLength)
	kcBasis := rolling.Mean(closeS, p.KCLength)
	rangeMA := SMA(TrueRange(highs, lows, closes), p.KCLength)

	prev := series.None
	run := 0
	for i := 0; i < n; i++ {
		if !bbBasis.OK[i] || !bbDev.OK[i] || !kcBasis.OK[i] || !rangeMA.OK[i] {
			continue
		}
		upper := bbBasis.V[i] + p.BBMult*bbDev.V[i]
		lower := bbBasis.V[i] - p.BBMult*bbDev.V[i]
		inside := func(mult float64) bool {
			return upper < kcBasis.V[i]+mult*rangeMA.V[i] && lower > kcBasis.V[i]-mult*rangeMA.V[i]
		}

		state := SqueezeNone
		switch {
		case inside(p.KCMultNarrow):
			state = SqueezeNarrow
		case inside(p.KCMultNormal):
			state = SqueezeNormal
		case inside(p.KCMultWide):
			state = SqueezeWide
		case prev.OK && SqueezeState(prev.V).InSqueeze():
			state = SqueezeFired
		}
		if state.InSqueeze() {
			run++
		} else {
			run = 0
		}
		res.State.Set(i, float64(state))
		res.Bars.Set(i, float64(run))
		prev = series.Some(float64(state))
	}

	res.Momentum = squeezeMomentum(highs, lows, closes, p.KCLength)
	return res
}

func squeezeMomentum(highs, lows, closes []float64, length int) series.Series {
	n := len(closes)
	hh := Highest(highs, length)
	ll := Lowest(lows, length)
	mid := SMA(closes, length)

	delta := series.New(n)
	for i := 0; i < n; i++ {
		if hh.OK[i] && ll.OK[i] && mid.OK[i] {
			delta.Set(i, closes[i]-((hh.V[i]+ll.V[i])/2+mid.V[i])/2)
		}
	}

	out := series.New(n)
	xs := make([]float64, length)
	for j := range xs {
		xs[j] = float64(j)
	}
	ys := make([]float64, length)
	for i := length - 1; i < n; i++ {
		complete := true
		for j := 0; j < length; j++ {
			k := i - length + 1 + j
			if !delta.OK[k] {
				complete = false
				break
			}
			ys[j] = delta.V[k]
		}
		if !complete {
			continue
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		out.Set(i, alpha+beta*float64(length-1))
	}
	return out
}

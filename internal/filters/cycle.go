package filters

import (
	"math"

	"fusioncli/internal/series"
)

// CycleParams configures the cycle-position oscillator.
type CycleParams struct {
	UpperPeriod int // high-pass cutoff, bars
	LowerPeriod int // super-smoother cutoff, bars
	Length      int // stochastic window
}

// DefaultCycleParams returns 48/10/20.
func DefaultCycleParams() CycleParams {
	return CycleParams{UpperPeriod: 48, LowerPeriod: 10, Length: 20}
}

// Warmup is the number of bars needed before the oscillator is reported.
func (p CycleParams) Warmup() int { return p.UpperPeriod + p.Length }

// flatRange is the stochastic range under which the window is treated as flat.
const flatRange = 1e-10

// superSmoother holds two-pole Butterworth coefficients.
type superSmoother struct{ c1, c2, c3 float64 }

func newSuperSmoother(period int) superSmoother {
	a := math.Exp(-math.Sqrt2 * math.Pi / float64(period))
	b := 2 * a * math.Cos(math.Sqrt2*math.Pi/float64(period))
	c2, c3 := b, -a*a
	return superSmoother{c1: 1 - c2 - c3, c2: c2, c3: c3}
}

// step returns the next output given the current and previous input and the
// two previous outputs.
func (s superSmoother) step(x0, x1, y1, y2 float64) float64 {
	return s.c1*(x0+x1)/2 + s.c2*y1 + s.c3*y2
}

// CyclePosition runs a roofing filter (two-pole high-pass at UpperPeriod then
// a super smoother at LowerPeriod), normalizes the result stochastically over
// Length bars and super-smooths the stochastic. Flat windows read 0.5 and the
// final value is clamped to [0,1]. Output starts at index Warmup()-1.
func CyclePosition(closes []float64, p CycleParams) series.Series {
	n := len(closes)
	out := series.New(n)
	if p.UpperPeriod <= 0 || p.LowerPeriod <= 0 || p.Length <= 0 || n < p.Warmup() {
		return out
	}

	w := 0.707 * 2 * math.Pi / float64(p.UpperPeriod)
	alpha := (math.Cos(w) + math.Sin(w) - 1) / math.Cos(w)
	k0 := (1 - alpha/2) * (1 - alpha/2)
	k1 := 2 * (1 - alpha)
	k2 := (1 - alpha) * (1 - alpha)
	ss := newSuperSmoother(p.LowerPeriod)

	hp := make([]float64, n)
	filt := make([]float64, n)
	stoc := make([]float64, n)
	smooth := make([]float64, n)

	for i := 0; i < n; i++ {
		if i >= 2 {
			hp[i] = k0*(closes[i]-2*closes[i-1]+closes[i-2]) + k1*hp[i-1] - k2*hp[i-2]
			filt[i] = ss.step(hp[i], hp[i-1], filt[i-1], filt[i-2])
		}

		stoc[i] = 0.5
		if i >= p.Length-1 {
			hi, lo := filt[i], filt[i]
			for j := i - p.Length + 1; j < i; j++ {
				hi = math.Max(hi, filt[j])
				lo = math.Min(lo, filt[j])
			}
			if hi-lo >= flatRange {
				stoc[i] = (filt[i] - lo) / (hi - lo)
			}
		}

		if i >= 2 {
			smooth[i] = ss.step(stoc[i], stoc[i-1], smooth[i-1], smooth[i-2])
		} else {
			smooth[i] = stoc[i]
		}

		if i >= p.Warmup()-1 {
			out.Set(i, clamp01(smooth[i]))
		}
	}
	return out
}

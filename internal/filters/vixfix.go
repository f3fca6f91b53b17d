package filters

import (
	"fusioncli/internal/rolling"
	"fusioncli/internal/series"
)

// VixFixParams configures the Williams VIX fix.
type VixFixParams struct {
	Period        int     // highest-close lookback
	BBLength      int     // Bollinger length on the fix
	BBMult        float64 // Bollinger multiple
	RangeLookback int     // recent-range window
	RangeHigh     float64 // fraction of the range high that triggers
}

// DefaultVixFixParams returns 22 / 20x2.0 / 50 / 0.85.
func DefaultVixFixParams() VixFixParams {
	return VixFixParams{Period: 22, BBLength: 20, BBMult: 2.0, RangeLookback: 50, RangeHigh: 0.85}
}

// VixFixResult holds the fix and its thresholds.
type VixFixResult struct {
	Value      series.Series
	UpperBand  series.Series
	RangeHigh  series.Series
	Signal     series.Series // 1 when Value reaches either threshold
	Percentile series.Series // Value / highest Value over RangeLookback
}

// VixFix computes (highestClose(N) - low) / highestClose(N) * 100.
func VixFix(lows, closes []float64, p VixFixParams) VixFixResult {
	n := len(closes)
	res := VixFixResult{
		Value:      series.New(n),
		UpperBand:  series.New(n),
		RangeHigh:  series.New(n),
		Signal:     series.New(n),
		Percentile: series.New(n),
	}
	if p.Period <= 0 {
		return res
	}

	hc := Highest(closes, p.Period)
	for i := 0; i < n; i++ {
		if hc.OK[i] && hc.V[i] != 0 {
			res.Value.Set(i, (hc.V[i]-lows[i])/hc.V[i]*100)
		}
	}

	mid := rolling.Mean(res.Value, p.BBLength)
	sd := rolling.Std(res.Value, p.BBLength)
	_, rangeMax := rolling.MinMax(res.Value, p.RangeLookback)

	for i := 0; i < n; i++ {
		if mid.OK[i] && sd.OK[i] {
			res.UpperBand.Set(i, mid.V[i]+p.BBMult*sd.V[i])
		}
		if rangeMax.OK[i] {
			res.RangeHigh.Set(i, rangeMax.V[i]*p.RangeHigh)
			if rangeMax.V[i] > 0 {
				res.Percentile.Set(i, res.Value.V[i]/rangeMax.V[i])
			}
		}
		if res.UpperBand.OK[i] && res.RangeHigh.OK[i] {
			v := res.Value.V[i]
			if v >= res.UpperBand.V[i] || v >= res.RangeHigh.V[i] {
				res.Signal.Set(i, 1)
			} else {
				res.Signal.Set(i, 0)
			}
		}
	}
	return res
}

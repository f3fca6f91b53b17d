package filters

import (
	"fusioncli/internal/rolling"
	"fusioncli/internal/series"
)

// HistColor is the four-state MACD histogram classification.
type HistColor int

const (
	HistBelowFalling HistColor = iota // negative and not rising
	HistBelowRising                   // negative and rising
	HistAboveFalling                  // non-negative and not rising
	HistAboveRising                   // non-negative and rising
)

// MACDParams configures MACD.
type MACDParams struct {
	Fast   int
	Slow   int
	Signal int
}

// DefaultMACDParams returns 12/26/9.
func DefaultMACDParams() MACDParams { return MACDParams{Fast: 12, Slow: 26, Signal: 9} }

// MACDResult holds the MACD outputs.
type MACDResult struct {
	Line   series.Series
	Signal series.Series
	Hist   series.Series
	Color  series.Series // HistColor as float
}

// MACD computes EMA(fast)-EMA(slow), an SMA signal of that difference, the
// histogram and its color by sign and slope.
func MACD(closes []float64, p MACDParams) MACDResult {
	fast := EMA(closes, p.Fast)
	slow := EMA(closes, p.Slow)
	line := series.Zip(fast, slow, func(f, s float64) float64 { return f - s })
	signal := rolling.Mean(line, p.Signal)
	hist := series.Zip(line, signal, func(l, s float64) float64 { return l - s })

	color := series.New(len(closes))
	for i := 1; i < hist.Len(); i++ {
		if !hist.OK[i] || !hist.OK[i-1] {
			continue
		}
		color.Set(i, float64(histColor(hist.V[i], hist.V[i-1])))
	}
	return MACDResult{Line: line, Signal: signal, Hist: hist, Color: color}
}

func histColor(cur, prev float64) HistColor {
	rising := cur > prev
	switch {
	case cur >= 0 && rising:
		return HistAboveRising
	case cur >= 0:
		return HistAboveFalling
	case rising:
		return HistBelowRising
	default:
		return HistBelowFalling
	}
}

package filters

import "fusioncli/internal/series"

// DefaultRSIPeriod is the standard Wilder period.
const DefaultRSIPeriod = 14

// RSIWarmup is the number of bars needed before RSI produces a value.
func RSIWarmup(period int) int { return period + 1 }

// RSI is Wilder's relative strength index on a 0-100 scale. The first value
// appears at index period; averages then update as (prev*(p-1)+x)/p.
func RSI(closes []float64, period int) series.Series {
	out := series.New(len(closes))
	if period <= 0 || len(closes) < RSIWarmup(period) {
		return out
	}
	p := float64(period)
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		g, l := gainLoss(closes[i] - closes[i-1])
		avgGain += g
		avgLoss += l
	}
	avgGain /= p
	avgLoss /= p
	out.Set(period, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(closes); i++ {
		g, l := gainLoss(closes[i] - closes[i-1])
		avgGain = (avgGain*(p-1) + g) / p
		avgLoss = (avgLoss*(p-1) + l) / p
		out.Set(i, rsiValue(avgGain, avgLoss))
	}
	return out
}

func gainLoss(d float64) (float64, float64) {
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

// rsiValue maps averages to RSI. A flat market reads 50, one with no losses 100.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

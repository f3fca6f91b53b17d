package asof

import (
	"time"

	"fusioncli/pkg/contracts/domain"
)

// Publication lags in days. Each exceeds the worst observed release delay for
// its cadence.
const (
	LagDaily     = 1
	LagWeekly    = 8
	LagMonthly   = 35
	LagQuarterly = 100
)

// ConservativeLag returns the lag in days for a cadence. Unrecognized
// cadences get the quarterly lag.
func ConservativeLag(f domain.Frequency) int {
	switch f {
	case domain.FrequencyDaily:
		return LagDaily
	case domain.FrequencyWeekly:
		return LagWeekly
	case domain.FrequencyMonthly:
		return LagMonthly
	default:
		return LagQuarterly
	}
}

// EffectiveKey is the latest observation date a row stamped ts may see for a
// series of cadence f.
func EffectiveKey(ts time.Time, f domain.Frequency) DateKey {
	return KeyOf(ts).AddDays(-ConservativeLag(f))
}

package matrix

// VIXRegime buckets the volatility index level.
type VIXRegime int

const (
	LowVol VIXRegime = iota
	ModerateVol
	ElevatedVol
	HighVol
)

func (r VIXRegime) String() string {
	switch r {
	case LowVol:
		return "LOW_VOL"
	case ModerateVol:
		return "MODERATE"
	case ElevatedVol:
		return "ELEVATED"
	case HighVol:
		return "HIGH_VOL"
	default:
		return "UNKNOWN"
	}
}

// ClassifyVIX maps a VIX level to its regime: >=20 high, >=18 elevated,
// <16 low, otherwise moderate.
func ClassifyVIX(level float64) VIXRegime {
	switch {
	case level >= 20:
		return HighVol
	case level >= 18:
		return ElevatedVol
	case level < 16:
		return LowVol
	default:
		return ModerateVol
	}
}

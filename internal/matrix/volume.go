package matrix

// VolumeRegime buckets a bar's volume against its trailing 24-hour mean.
type VolumeRegime int

const (
	LowVolume VolumeRegime = iota
	NormalVolume
	HighVolume
)

func (r VolumeRegime) String() string {
	switch r {
	case LowVolume:
		return "LOW"
	case NormalVolume:
		return "NORMAL"
	case HighVolume:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ClassifyVolume maps a volume ratio to its regime: >=1.5 high, <=0.5 low,
// otherwise normal.
func ClassifyVolume(ratio float64) VolumeRegime {
	switch {
	case ratio >= 1.5:
		return HighVolume
	case ratio <= 0.5:
		return LowVolume
	default:
		return NormalVolume
	}
}

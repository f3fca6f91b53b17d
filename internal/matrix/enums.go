package matrix

import (
	"fmt"
	"strings"

	"fusioncli/pkg/contracts/domain"
)

// Instrument is a supported bar series. The set is closed: storage names and
// column prefixes come from the accessors below, never from user input.
type Instrument int

const (
	ES Instrument = iota
	NQ
	YM
	RTY
	ZN
	ZB
	GC
	CL
	DX
	BTC
)

// Instruments lists every supported instrument.
var Instruments = []Instrument{ES, NQ, YM, RTY, ZN, ZB, GC, CL, DX, BTC}

var instrumentCodes = map[Instrument]string{
	ES: "ES", NQ: "NQ", YM: "YM", RTY: "RTY", ZN: "ZN",
	ZB: "ZB", GC: "GC", CL: "CL", DX: "DX", BTC: "BTC",
}

// Code is the upper-case ticker, used as item id and file name.
func (in Instrument) Code() string {
	if c, ok := instrumentCodes[in]; ok {
		return c
	}
	return fmt.Sprintf("INSTRUMENT_%d", int(in))
}

func (in Instrument) String() string { return in.Code() }

// Prefix is the lower-case column prefix for cross-asset features.
func (in Instrument) Prefix() string { return strings.ToLower(in.Code()) }

// Table is the bar table holding this instrument.
func (in Instrument) Table() string {
	if in == BTC {
		return "crypto_bars"
	}
	return "futures_bars"
}

// ParseInstrument resolves a ticker such as "es" or "NQ".
func ParseInstrument(s string) (Instrument, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, in := range Instruments {
		if instrumentCodes[in] == s {
			return in, nil
		}
	}
	return 0, fmt.Errorf("unknown instrument %q", s)
}

// MacroSeries is a supported macro observation series.
type MacroSeries int

const (
	DGS10 MacroSeries = iota
	DGS2
	DFII10
	VIX
	HYOAS
	IGOAS
	FedUpper
	FedLower
	UNRATE
	CPIIndex
	ICSA
	GDPLevel
	DGS30
	DollarIndex
	WTI
	FedAssets
	ReverseRepo
)

// MacroSeriesAll lists every supported macro series.
var MacroSeriesAll = []MacroSeries{
	DGS10, DGS2, DFII10, VIX, HYOAS, IGOAS, FedUpper, FedLower, UNRATE, CPIIndex, ICSA, GDPLevel,
	DGS30, DollarIndex, WTI, FedAssets, ReverseRepo,
}

type macroSpec struct {
	id     string
	column string
	freq   domain.Frequency
}

// FedAssets is reported in millions of dollars, ReverseRepo in billions.
var macroSpecs = map[MacroSeries]macroSpec{
	DGS10:       {"DGS10", "dgs10", domain.FrequencyDaily},
	DGS2:        {"DGS2", "dgs2", domain.FrequencyDaily},
	DFII10:      {"DFII10", "dfii10", domain.FrequencyDaily},
	VIX:         {"VIXCLS", "vix", domain.FrequencyDaily},
	HYOAS:       {"BAMLH0A0HYM2", "hy_oas", domain.FrequencyDaily},
	IGOAS:       {"BAMLC0A0CM", "ig_oas", domain.FrequencyDaily},
	FedUpper:    {"DFEDTARU", "fed_upper", domain.FrequencyDaily},
	FedLower:    {"DFEDTARL", "fed_lower", domain.FrequencyDaily},
	UNRATE:      {"UNRATE", "unrate", domain.FrequencyMonthly},
	CPIIndex:    {"CPIAUCSL", "cpi_index", domain.FrequencyMonthly},
	ICSA:        {"ICSA", "icsa", domain.FrequencyWeekly},
	GDPLevel:    {"GDP", "gdp_level", domain.FrequencyQuarterly},
	DGS30:       {"DGS30", "dgs30", domain.FrequencyDaily},
	DollarIndex: {"DTWEXBGS", "dollar_index", domain.FrequencyDaily},
	WTI:         {"DCOILWTICO", "wti", domain.FrequencyDaily},
	FedAssets:   {"WALCL", "fed_assets", domain.FrequencyWeekly},
	ReverseRepo: {"RRPONTSYD", "rrp", domain.FrequencyDaily},
}

// ID is the vendor series id.
func (m MacroSeries) ID() string { return macroSpecs[m].id }

// Column is the feature column carrying the raw lagged value.
func (m MacroSeries) Column() string { return macroSpecs[m].column }

// Frequency is the publication cadence that decides the lag.
func (m MacroSeries) Frequency() domain.Frequency { return macroSpecs[m].freq }

// Table is the observation table holding this series.
func (m MacroSeries) Table() string { return "macro_observations" }

// Meta returns the series metadata implied by the enum.
func (m MacroSeries) Meta() domain.SeriesMetadata {
	return domain.SeriesMetadata{SeriesID: m.ID(), Frequency: m.Frequency()}
}

func (m MacroSeries) String() string { return m.ID() }

// ParseMacroSeries resolves a vendor id ("VIXCLS") or column name ("vix").
func ParseMacroSeries(s string) (MacroSeries, error) {
	s = strings.TrimSpace(s)
	for _, m := range MacroSeriesAll {
		spec := macroSpecs[m]
		if strings.EqualFold(spec.id, s) || strings.EqualFold(spec.column, s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown macro series %q", s)
}

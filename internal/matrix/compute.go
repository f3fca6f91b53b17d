package matrix

import (
	"fmt"
	"math"
	"sort"
	"time"

	"fusioncli/internal/align"
	"fusioncli/internal/asof"
	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/exchtime"
	"fusioncli/internal/filters"
	"fusioncli/internal/phase"
	"fusioncli/internal/rolling"
	"fusioncli/internal/series"
	"fusioncli/internal/surprise"
	"fusioncli/pkg/contracts/domain"
)

// env is the read-only input of one build, shared by every block.
type env struct {
	job        Job
	primary    domain.BarSeries
	times      []time.Time
	closes     series.Series
	volumes    series.Series
	lagged     map[MacroSeries]*asof.LaggedSeries
	bars       map[Instrument]domain.BarSeries
	events     []domain.CalendarEvent
	classifier phase.Classifier
}

func newEnv(j Job, in *Inputs, lagged map[MacroSeries]*asof.LaggedSeries, classifier phase.Classifier) *env {
	primary := in.Bars[j.Primary]
	return &env{
		job:        j,
		primary:    primary,
		times:      primary.Timestamps(),
		closes:     series.FromValues(primary.Closes()),
		volumes:    series.FromValues(primary.Volumes()),
		lagged:     lagged,
		bars:       in.Bars,
		events:     in.Calendar,
		classifier: classifier,
	}
}

// spanned applies fn to the bar count covering hours. Spans that are not a
// whole number of bars give an all-null column.
func (e *env) spanned(hours int, fn func(bars int) series.Series) series.Series {
	n, ok := e.job.barsFor(hours)
	if !ok {
		return series.New(len(e.times))
	}
	return fn(n)
}

// frame holds every derived column over the primary grid. It is written only
// during bulk compute and read-only during row assembly.
type frame struct {
	n        int
	cols     map[string]series.Series
	declared map[string]bool
	stray    []string
}

func newFrame(n int) *frame {
	return &frame{n: n, cols: make(map[string]series.Series, 128), declared: make(map[string]bool, 128)}
}

// put stores a column. Columns no block declared are recorded as stray.
func (f *frame) put(name string, s series.Series) {
	if !f.declared[name] {
		f.stray = append(f.stray, name)
		return
	}
	f.cols[name] = s
}

func (f *frame) get(name string) (series.Series, bool) {
	s, ok := f.cols[name]
	return s, ok
}

// col returns a column produced by an earlier block.
func (f *frame) col(name string) series.Series { return f.cols[name] }

// block declares a family of columns next to the code producing them. Blocks
// run in order and may read the columns of earlier blocks.
type block struct {
	name    string
	columns func(j Job) []Column
	compute func(f *frame, e *env)
}

var blocks = []block{
	{name: "price", columns: priceColumns, compute: computePrice},
	{name: "indicator", columns: indicatorColumns, compute: computeIndicators},
	{name: "macro", columns: macroColumns, compute: computeMacro},
	{name: "cross_asset", columns: crossColumns, compute: computeCross},
	{name: "calendar", columns: func(Job) []Column { return calendarColumns }, compute: computeCalendar},
	{name: "surprise", columns: surpriseColumns, compute: computeSurprise},
	{name: "label", columns: labelColumns, compute: computeLabels},
}

// computeFrame runs every block over the primary series.
func computeFrame(e *env) (*frame, error) {
	return runBlocks(blocks, e)
}

// runBlocks fails when a block leaves a declared column unproduced or writes
// one it never declared.
func runBlocks(bs []block, e *env) (*frame, error) {
	f := newFrame(len(e.times))
	for _, b := range bs {
		cols := b.columns(e.job)
		for _, c := range cols {
			f.declared[c.Name] = true
		}
		b.compute(f, e)
		if len(f.stray) > 0 {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("%s block produced undeclared column %q", b.name, f.stray[0]), nil).
				WithContext("column", f.stray[0])
		}
		for _, c := range cols {
			if _, ok := f.cols[c.Name]; !ok {
				return nil, apperrors.NewConfigurationError(
					fmt.Sprintf("%s block has no producer for column %q", b.name, c.Name), nil).
					WithContext("column", c.Name)
			}
		}
	}
	return f, nil
}

// feature is one column and its producer.
type feature struct {
	Column
	produce func(f *frame, e *env) series.Series
}

func featureColumns(fs []feature) []Column {
	out := make([]Column, len(fs))
	for i, ft := range fs {
		out[i] = ft.Column
	}
	return out
}

// relative is num/den - 1, null on a zero or missing base.
func relative(num, den series.Series) series.Series {
	return series.Zip(num, den, func(x, y float64) float64 { return x/y - 1 })
}

// quotient is num/den, null on a zero or missing base.
func quotient(num, den series.Series) series.Series {
	return series.Zip(num, den, func(x, y float64) float64 { return x / y })
}

func priceFeature(name string, t ColumnType, produce func(f *frame, e *env) series.Series) feature {
	return feature{Column: Column{Name: name, Type: t, Role: RolePast, Group: GroupPrice}, produce: produce}
}

func returnFeature(h int) feature {
	return priceFeature(fmt.Sprintf("ret_%dh", h), TypeFloat, func(_ *frame, e *env) series.Series {
		return e.spanned(h, func(n int) series.Series { return rolling.PctDeltaSeries(e.closes, n) })
	})
}

func maDistanceFeature(h int) feature {
	return priceFeature(fmt.Sprintf("dist_ma%d", h), TypeFloat, func(_ *frame, e *env) series.Series {
		return e.spanned(h, func(n int) series.Series { return relative(e.closes, rolling.Mean(e.closes, n)) })
	})
}

// extremeDistanceFeature is the close relative to the highest high, or the
// lowest low, over h hours.
func extremeDistanceFeature(name string, h int, high bool) feature {
	return priceFeature(name, TypeFloat, func(_ *frame, e *env) series.Series {
		return e.spanned(h, func(n int) series.Series {
			if high {
				return relative(e.closes, filters.Highest(e.primary.Highs(), n))
			}
			return relative(e.closes, filters.Lowest(e.primary.Lows(), n))
		})
	})
}

// stdFeature is the dispersion of hourly returns over h hours.
func stdFeature(h int) feature {
	return priceFeature(fmt.Sprintf("std%d", h), TypeFloat, func(f *frame, e *env) series.Series {
		return e.spanned(h, func(n int) series.Series { return rolling.Std(f.col("ret_1h"), n) })
	})
}

var priceFeatures = []feature{
	returnFeature(1), returnFeature(4), returnFeature(8), returnFeature(24),
	priceFeature("range", TypeFloat, func(_ *frame, e *env) series.Series {
		highs, lows, closes := e.primary.Highs(), e.primary.Lows(), e.primary.Closes()
		out := series.New(len(closes))
		for i := range closes {
			if closes[i] != 0 {
				out.Set(i, (highs[i]-lows[i])/closes[i])
			}
		}
		return out
	}),
	priceFeature("body_ratio", TypeFloat, func(_ *frame, e *env) series.Series {
		highs, lows, closes, opens := e.primary.Highs(), e.primary.Lows(), e.primary.Closes(), e.primary.Opens()
		out := series.New(len(closes))
		for i := range closes {
			if highs[i] > lows[i] {
				out.Set(i, math.Abs(closes[i]-opens[i])/(highs[i]-lows[i]))
			}
		}
		return out
	}),
	maDistanceFeature(8), maDistanceFeature(24), maDistanceFeature(120),
	extremeDistanceFeature("dist_hi24", 24, true),
	extremeDistanceFeature("dist_lo24", 24, false),
	extremeDistanceFeature("dist_hi120", 120, true),
	stdFeature(8), stdFeature(24),
	priceFeature("vol_ratio", TypeFloat, func(_ *frame, e *env) series.Series {
		return e.spanned(24, func(n int) series.Series { return quotient(e.volumes, rolling.Mean(e.volumes, n)) })
	}),
	// one-hour change in the volume ratio
	priceFeature("vol_accel", TypeFloat, func(f *frame, e *env) series.Series {
		return e.spanned(1, func(n int) series.Series { return rolling.DeltaSeries(f.col("vol_ratio"), n) })
	}),
	priceFeature("vol_regime", TypeInt, func(f *frame, _ *env) series.Series {
		return f.col("vol_ratio").Map(func(r float64) float64 { return float64(ClassifyVolume(r)) })
	}),
	priceFeature("vol_of_vol", TypeFloat, func(f *frame, e *env) series.Series {
		return e.spanned(24, func(n int) series.Series { return rolling.Std(f.col("std8"), n) })
	}),
	priceFeature("rsi_14", TypeFloat, func(_ *frame, e *env) series.Series {
		return filters.RSI(e.primary.Closes(), filters.DefaultRSIPeriod)
	}),
}

func priceColumns(Job) []Column { return featureColumns(priceFeatures) }

func computePrice(f *frame, e *env) {
	for _, ft := range priceFeatures {
		f.put(ft.Name, ft.produce(f, e))
	}
}

func indicatorColumns(Job) []Column {
	var cols []Column
	cols = append(cols, past(GroupIndicator, TypeFloat, "edss", "sqz_mom")...)
	cols = append(cols, past(GroupIndicator, TypeBool, "sqz_mom_rising", "sqz_mom_positive")...)
	cols = append(cols, past(GroupIndicator, TypeInt, "sqz_state", "sqz_bars_in_squeeze")...)
	cols = append(cols, past(GroupIndicator, TypeFloat, "wvf_value")...)
	cols = append(cols, past(GroupIndicator, TypeBool, "wvf_signal")...)
	cols = append(cols, past(GroupIndicator, TypeFloat, "wvf_percentile", "macd_line", "macd_signal", "macd_hist")...)
	cols = append(cols, past(GroupIndicator, TypeInt, "macd_hist_color")...)
	return cols
}

func computeIndicators(f *frame, e *env) {
	closes, highs, lows := e.primary.Closes(), e.primary.Highs(), e.primary.Lows()

	f.put("edss", filters.CyclePosition(closes, filters.DefaultCycleParams()))

	sq := filters.Squeeze(highs, lows, closes, filters.DefaultSqueezeParams())
	rising := series.New(f.n)
	positive := series.New(f.n)
	for i := 0; i < f.n; i++ {
		cur := sq.Momentum.At(i)
		if !cur.OK {
			continue
		}
		positive.SetOpt(i, boolOpt(cur.V > 0))
		if prev := sq.Momentum.At(i - 1); prev.OK {
			rising.SetOpt(i, boolOpt(cur.V > prev.V))
		}
	}
	f.put("sqz_mom", sq.Momentum)
	f.put("sqz_mom_rising", rising)
	f.put("sqz_mom_positive", positive)
	f.put("sqz_state", sq.State)
	f.put("sqz_bars_in_squeeze", sq.Bars)

	wvf := filters.VixFix(lows, closes, filters.DefaultVixFixParams())
	f.put("wvf_value", wvf.Value)
	f.put("wvf_signal", wvf.Signal)
	f.put("wvf_percentile", wvf.Percentile)

	macd := filters.MACD(closes, filters.DefaultMACDParams())
	f.put("macd_line", macd.Line)
	f.put("macd_signal", macd.Signal)
	f.put("macd_hist", macd.Hist)
	f.put("macd_hist_color", macd.Color)
}

// macroLookback is how many days before the first row the daily grid starts,
// enough for the 20-day percentile and the weekly changes.
const macroLookback = 40

// macroEnv holds the lagged macro values of one build: per-row values and
// dense daily grids for day-over-day changes.
type macroEnv struct {
	n      int
	keys   []asof.DateKey
	from   asof.DateKey
	to     asof.DateKey
	raw    map[MacroSeries]series.Series
	lagged map[MacroSeries]*asof.LaggedSeries
	grids  map[MacroSeries]asof.Grid
}

func (m *macroEnv) grid(s MacroSeries) asof.Grid {
	if g, ok := m.grids[s]; ok {
		return g
	}
	ls := m.lagged[s]
	var g asof.Grid
	switch {
	case len(m.keys) == 0:
		g = asof.Grid{Values: series.New(0)}
	case ls == nil:
		g = asof.Grid{Start: m.from, Values: series.New(int(m.to-m.from) + 1)}
	default:
		g = ls.Grid(m.from, m.to)
	}
	m.grids[s] = g
	return g
}

// change is the difference between the lagged value and its value days
// calendar days earlier.
func (m *macroEnv) change(s MacroSeries, days int) series.Series {
	g := m.grid(s)
	out := series.New(m.n)
	for i, k := range m.keys {
		out.SetOpt(i, rolling.DeltaBack(g.Values, g.Pos(k), days))
	}
	return out
}

// momentum is change relative to the earlier value.
func (m *macroEnv) momentum(s MacroSeries, days int) series.Series {
	g := m.grid(s)
	out := series.New(m.n)
	for i, k := range m.keys {
		out.SetOpt(i, rolling.PctDeltaBack(g.Values, g.Pos(k), days))
	}
	return out
}

func (m *macroEnv) combine(a, b MacroSeries, fn func(x, y float64) float64) series.Series {
	return series.Zip(m.raw[a], m.raw[b], fn)
}

// macroFeature is a derived macro column, present when the job loads every
// series it needs.
type macroFeature struct {
	Column
	needs   []MacroSeries
	produce func(m *macroEnv) series.Series
}

func derived(name string, t ColumnType, needs []MacroSeries, produce func(m *macroEnv) series.Series) macroFeature {
	return macroFeature{
		Column:  Column{Name: name, Type: t, Role: RolePast, Group: GroupMacro},
		needs:   needs,
		produce: produce,
	}
}

func dailyChange(name string, s MacroSeries, days int) macroFeature {
	return derived(name, TypeFloat, []MacroSeries{s}, func(m *macroEnv) series.Series { return m.change(s, days) })
}

func dailyMomentum(name string, s MacroSeries, days int) macroFeature {
	return derived(name, TypeFloat, []MacroSeries{s}, func(m *macroEnv) series.Series { return m.momentum(s, days) })
}

func difference(x, y float64) float64 { return x - y }

var macroFeatures = []macroFeature{
	derived("yield_curve_slope", TypeFloat, []MacroSeries{DGS10, DGS2}, func(m *macroEnv) series.Series {
		return m.combine(DGS10, DGS2, difference)
	}),
	derived("real_rate_10y", TypeFloat, []MacroSeries{DFII10}, func(m *macroEnv) series.Series { return m.raw[DFII10] }),
	derived("credit_spread_diff", TypeFloat, []MacroSeries{HYOAS, IGOAS}, func(m *macroEnv) series.Series {
		return m.combine(HYOAS, IGOAS, difference)
	}),
	dailyChange("vix_1d_change", VIX, 1),
	dailyChange("dgs10_velocity_5d", DGS10, 5),
	derived("vix_percentile_20d", TypeFloat, []MacroSeries{VIX}, func(m *macroEnv) series.Series {
		g := m.grid(VIX)
		pct := rolling.PercentileSeries(g.Values, 20)
		out := series.New(m.n)
		for i, k := range m.keys {
			out.SetOpt(i, pct.At(g.Pos(k)))
		}
		return out
	}),
	derived("fed_midpoint", TypeFloat, []MacroSeries{FedUpper, FedLower}, func(m *macroEnv) series.Series {
		return m.combine(FedUpper, FedLower, func(a, b float64) float64 { return (a + b) / 2 })
	}),
	derived("vix_regime", TypeInt, []MacroSeries{VIX}, func(m *macroEnv) series.Series {
		return m.raw[VIX].Map(func(v float64) float64 { return float64(ClassifyVIX(v)) })
	}),
	// net liquidity in billions: balance sheet less reverse repo usage
	derived("fed_liquidity", TypeFloat, []MacroSeries{FedAssets, ReverseRepo}, func(m *macroEnv) series.Series {
		return m.combine(FedAssets, ReverseRepo, func(assets, rrp float64) float64 { return assets/1000 - rrp })
	}),
	dailyChange("y10y_1d_change", DGS10, 1),
	dailyChange("y30y_1d_change", DGS30, 1),
	dailyChange("tips10y_1d_change", DFII10, 1),
	dailyChange("ig_oas_1d_change", IGOAS, 1),
	dailyChange("hy_oas_1d_change", HYOAS, 1),
	dailyMomentum("dollar_momentum_5d", DollarIndex, 5),
	dailyMomentum("wti_momentum_5d", WTI, 5),
	dailyChange("fed_assets_change_1w", FedAssets, 7),
	dailyChange("rrp_change_1d", ReverseRepo, 1),
	dailyChange("claims_change_1w", ICSA, 7),
}

func macroColumns(j Job) []Column {
	var cols []Column
	for _, m := range j.Macro {
		cols = append(cols, past(GroupMacro, TypeFloat, m.Column())...)
	}
	for _, ft := range macroFeatures {
		if j.hasMacro(ft.needs...) {
			cols = append(cols, ft.Column)
		}
	}
	return cols
}

func computeMacro(f *frame, e *env) {
	m := &macroEnv{
		n:      f.n,
		keys:   make([]asof.DateKey, len(e.times)),
		raw:    make(map[MacroSeries]series.Series, len(e.job.Macro)),
		lagged: e.lagged,
		grids:  make(map[MacroSeries]asof.Grid),
	}
	for i, ts := range e.times {
		m.keys[i] = asof.KeyOf(ts)
	}
	if len(m.keys) > 0 {
		m.from, m.to = m.keys[0].AddDays(-macroLookback), m.keys[len(m.keys)-1]
	}

	for _, ms := range e.job.Macro {
		s := series.New(f.n)
		if ls := e.lagged[ms]; ls != nil {
			for i, ts := range e.times {
				s.SetOpt(i, ls.At(ts))
			}
		}
		m.raw[ms] = s
		f.put(ms.Column(), s)
	}
	for _, ft := range macroFeatures {
		if e.job.hasMacro(ft.needs...) {
			f.put(ft.Name, ft.produce(m))
		}
	}
}

var crossSuffixes = []string{
	"_ret_1h", "_ret_4h", "_ret_24h", "_dist_ma24", "_vol_ratio",
	"_edss", "_corr_21d", "_minus_primary_1h",
}

func crossColumns(j Job) []Column {
	var cols []Column
	for _, c := range j.Cross {
		for _, s := range crossSuffixes {
			cols = append(cols, past(GroupCross, TypeFloat, c.Prefix()+s)...)
		}
	}
	if len(j.Cross) > 0 {
		cols = append(cols, past(GroupCross, TypeFloat, "concordance_1h")...)
	}
	if j.hasCross(ZN) {
		cols = append(cols, past(GroupCross, TypeBool, "equity_bond_diverge")...)
	}
	return cols
}

func computeCross(f *frame, e *env) {
	j := e.job
	if len(j.Cross) == 0 {
		return
	}
	aligner := align.New(j.MaxGapHours)
	ret1 := f.col("ret_1h")

	signs := make([]series.Series, 0, len(j.Cross))
	for _, c := range j.Cross {
		p := c.Prefix()
		sec := e.bars[c]
		ab := aligner.AlignBars(e.times, sec.Bars)

		pctOver := func(h int) series.Series {
			return e.spanned(h, func(n int) series.Series { return rolling.PctDeltaSeries(ab.Close, n) })
		}
		pret1 := pctOver(1)
		f.put(p+"_ret_1h", pret1)
		f.put(p+"_ret_4h", pctOver(4))
		f.put(p+"_ret_24h", pctOver(24))
		f.put(p+"_dist_ma24", e.spanned(24, func(n int) series.Series {
			return relative(ab.Close, rolling.Mean(ab.Close, n))
		}))
		f.put(p+"_vol_ratio", e.spanned(24, func(n int) series.Series {
			return quotient(ab.Volume, rolling.Mean(ab.Volume, n))
		}))

		native := filters.CyclePosition(sec.Closes(), filters.DefaultCycleParams())
		f.put(p+"_edss", aligner.AlignSeries(e.times, sec.Timestamps(), native))

		f.put(p+"_corr_21d", e.spanned(21*24, func(n int) series.Series {
			return rolling.CorrSeries(ret1, pret1, n, rolling.DefaultMinPairs)
		}))
		f.put(p+"_minus_primary_1h", series.Zip(pret1, ret1, difference))
		signs = append(signs, pret1)
	}

	conc := series.New(f.n)
	for i := 0; i < f.n; i++ {
		base := ret1.At(i)
		if !base.OK {
			continue
		}
		var match, total int
		for _, s := range signs {
			v := s.At(i)
			if !v.OK {
				continue
			}
			total++
			if sign(v.V) == sign(base.V) {
				match++
			}
		}
		if total > 0 {
			conc.Set(i, float64(match)/float64(total))
		}
	}
	f.put("concordance_1h", conc)

	// Flags days where the primary and the 10-year note moved the same way,
	// against the usual risk-on/risk-off opposition.
	if j.hasCross(ZN) {
		eq, bond := f.col("ret_24h"), f.col(ZN.Prefix()+"_ret_24h")
		div := series.New(f.n)
		for i := 0; i < f.n; i++ {
			a, b := eq.At(i), bond.At(i)
			if a.OK && b.OK {
				div.SetOpt(i, boolOpt(sign(a.V) != 0 && sign(a.V) == sign(b.V)))
			}
		}
		f.put("equity_bond_diverge", div)
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// calendarIndex groups calendar events for per-row lookups.
type calendarIndex struct {
	byDay      map[string][]phase.Scheduled
	highDays   map[string]bool
	fomcDays   map[string]bool
	cpiDays    map[string]bool
	nfpDays    map[string]bool
	highImpact []time.Time
}

func newCalendarIndex(events []domain.CalendarEvent) *calendarIndex {
	ci := &calendarIndex{
		byDay:    make(map[string][]phase.Scheduled),
		highDays: make(map[string]bool),
		fomcDays: make(map[string]bool),
		cpiDays:  make(map[string]bool),
		nfpDays:  make(map[string]bool),
	}
	for _, e := range events {
		day := e.EventDate.Format(time.DateOnly)
		if e.Impact == domain.ImpactHigh {
			ci.highDays[day] = true
		}
		if e.NameContains("fomc", "fed interest rate", "federal funds rate") {
			ci.fomcDays[day] = true
		}
		if e.NameContains("cpi", "consumer price") {
			ci.cpiDays[day] = true
		}
		if e.NameContains("non-farm", "nonfarm", "non farm") {
			ci.nfpDays[day] = true
		}
	}
	for _, s := range phase.Prepare(events) {
		day := exchtime.LocalDate(s.At)
		ci.byDay[day] = append(ci.byDay[day], s)
		if s.Event.Impact == domain.ImpactHigh {
			ci.highImpact = append(ci.highImpact, s.At)
		}
	}
	return ci
}

// hoursToNextHigh is the time to the first high-impact release strictly after ts.
func (ci *calendarIndex) hoursToNextHigh(ts time.Time) series.Opt {
	i := sort.Search(len(ci.highImpact), func(i int) bool { return ci.highImpact[i].After(ts) })
	if i == len(ci.highImpact) {
		return series.None
	}
	return series.Some(ci.highImpact[i].Sub(ts).Hours())
}


func knownColumn(t ColumnType, name string) Column {
	return Column{Name: name, Type: t, Role: RoleKnown, Group: GroupCalendar}
}

var calendarColumns = []Column{
	knownColumn(TypeInt, "hour_utc"),
	knownColumn(TypeInt, "day_of_week"),
	knownColumn(TypeBool, "is_us_session"),
	knownColumn(TypeBool, "is_high_impact_day"),
	knownColumn(TypeBool, "is_fomc_day"),
	knownColumn(TypeBool, "is_cpi_day"),
	knownColumn(TypeBool, "is_nfp_day"),
	knownColumn(TypeFloat, "hours_to_next_high_impact"),
	knownColumn(TypeInt, "event_phase"),
	knownColumn(TypeFloat, "phase_confidence"),
}

func computeCalendar(f *frame, e *env) {
	ci := newCalendarIndex(e.events)
	cols := make(map[string]series.Series, len(calendarColumns))
	for _, c := range calendarColumns {
		cols[c.Name] = series.New(f.n)
		f.put(c.Name, cols[c.Name])
	}

	for i, ts := range e.times {
		utc := ts.UTC()
		day := exchtime.LocalDate(ts)
		cols["hour_utc"].Set(i, float64(utc.Hour()))
		cols["day_of_week"].Set(i, float64((int(utc.Weekday())+6)%7))
		cols["is_us_session"].SetOpt(i, boolOpt(exchtime.IsUSSession(ts)))
		cols["is_high_impact_day"].SetOpt(i, boolOpt(ci.highDays[day]))
		cols["is_fomc_day"].SetOpt(i, boolOpt(ci.fomcDays[day]))
		cols["is_cpi_day"].SetOpt(i, boolOpt(ci.cpiDays[day]))
		cols["is_nfp_day"].SetOpt(i, boolOpt(ci.nfpDays[day]))
		cols["hours_to_next_high_impact"].SetOpt(i, ci.hoursToNextHigh(ts))

		ctx := e.classifier.ClassifyScheduled(ts, ci.byDay[day])
		cols["event_phase"].Set(i, float64(ctx.Phase.Code()))
		cols["phase_confidence"].Set(i, ctx.ConfidenceAdjustment)
	}
}

func surpriseColumns(j Job) []Column {
	inds := j.surpriseIndicators()
	var cols []Column
	for _, ind := range inds {
		cols = append(cols, past(GroupSurprise, TypeFloat, surpriseColumn(ind.Name()))...)
	}
	if len(inds) > 0 {
		cols = append(cols, past(GroupSurprise, TypeFloat, "econ_surprise_index")...)
	}
	return cols
}

func computeSurprise(f *frame, e *env) {
	inds := e.job.surpriseIndicators()
	if len(inds) == 0 {
		return
	}
	ix := surprise.NewIndex(e.events, e.job.Surprise)
	for _, ind := range inds {
		s := series.New(f.n)
		for i, ts := range e.times {
			s.SetOpt(i, ix.At(ind, ts))
		}
		f.put(surpriseColumn(ind.Name()), s)
	}
	composite := series.New(f.n)
	for i, ts := range e.times {
		composite.SetOpt(i, ix.CompositeAt(ts))
	}
	f.put("econ_surprise_index", composite)
}

func labelColumns(j Job) []Column {
	var cols []Column
	for _, h := range j.Horizons {
		cols = append(cols,
			Column{Name: labelReturn(h), Type: TypeFloat, Role: RoleLabel, Group: GroupLabel},
			Column{Name: labelDirection(h), Type: TypeInt, Role: RoleLabel, Group: GroupLabel},
			Column{Name: labelNormalized(h), Type: TypeFloat, Role: RoleLabel, Group: GroupLabel},
		)
	}
	return cols
}

// computeLabels writes the forward return over each horizon, its direction,
// and the return scaled by trailing hourly volatility (std24 * sqrt(h)).
func computeLabels(f *frame, e *env) {
	vol := f.col("std24")
	for _, h := range e.job.Horizons {
		ret := series.New(f.n)
		dir := series.New(f.n)
		norm := series.New(f.n)
		if ahead, ok := e.job.barsFor(h); ok {
			scale := math.Sqrt(float64(h))
			for i := 0; i+ahead < f.n; i++ {
				r := rolling.PctDeltaBack(e.closes, i+ahead, ahead)
				ret.SetOpt(i, r)
				if !r.OK {
					continue
				}
				dir.SetOpt(i, boolOpt(r.V > 0))
				if sd := vol.At(i); sd.OK && sd.V > 0 {
					norm.Set(i, r.V/(sd.V*scale))
				}
			}
		}
		f.put(labelReturn(h), ret)
		f.put(labelDirection(h), dir)
		f.put(labelNormalized(h), norm)
	}
}

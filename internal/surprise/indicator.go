package surprise

import (
	"fmt"
	"strings"

	"fusioncli/pkg/contracts/domain"
)

// Indicator is a release series tracked by the surprise normalizer.
type Indicator int

const (
	CPI Indicator = iota
	CoreCPI
	NFP
	Unemployment
	RetailSales
	PPI
	JoblessClaims
	ISMManufacturing
	GDP
)

// Indicators lists every supported release series.
var Indicators = []Indicator{CPI, CoreCPI, NFP, Unemployment, RetailSales, PPI, JoblessClaims, ISMManufacturing, GDP}

var indicatorNames = map[Indicator]string{
	CPI:              "cpi",
	CoreCPI:          "core_cpi",
	NFP:              "nfp",
	Unemployment:     "unemployment",
	RetailSales:      "retail_sales",
	PPI:              "ppi",
	JoblessClaims:    "jobless_claims",
	ISMManufacturing: "ism_manufacturing",
	GDP:              "gdp",
}

// Name is the lowercase identifier used in column names.
func (ind Indicator) Name() string {
	if n, ok := indicatorNames[ind]; ok {
		return n
	}
	return fmt.Sprintf("indicator_%d", int(ind))
}

func (ind Indicator) String() string { return ind.Name() }

// ParseIndicator resolves an identifier such as "core_cpi".
func ParseIndicator(s string) (Indicator, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for ind, name := range indicatorNames {
		if name == s {
			return ind, nil
		}
	}
	return 0, fmt.Errorf("unknown release indicator %q", s)
}

// DefaultWeight is the indicator's importance in the composite index.
func (ind Indicator) DefaultWeight() float64 {
	switch ind {
	case CPI, NFP:
		return 1.0
	case CoreCPI:
		return 0.9
	case Unemployment, RetailSales:
		return 0.7
	case PPI, ISMManufacturing, GDP:
		return 0.5
	case JoblessClaims:
		return 0.3
	default:
		return 0
	}
}

// Matches reports whether a calendar event belongs to the indicator.
func (ind Indicator) Matches(e domain.CalendarEvent) bool {
	switch ind {
	case CPI:
		return e.NameContains("cpi", "consumer price") && !e.NameContains("core")
	case CoreCPI:
		return e.NameContains("core cpi", "core consumer price")
	case NFP:
		return e.NameContains("non-farm", "nonfarm", "non farm")
	case Unemployment:
		return e.NameContains("unemployment rate")
	case RetailSales:
		return e.NameContains("retail sales") && !e.NameContains("core")
	case PPI:
		return e.NameContains("ppi", "producer price") && !e.NameContains("core")
	case JoblessClaims:
		return e.NameContains("jobless claims", "initial claims")
	case ISMManufacturing:
		return e.NameContains("ism manufacturing")
	case GDP:
		return e.NameContains("gdp")
	default:
		return false
	}
}

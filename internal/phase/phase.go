package phase

import (
	"fmt"
	"math"
	"sort"
	"time"

	"fusioncli/internal/exchtime"
	"fusioncli/internal/series"
	"fusioncli/pkg/contracts/domain"
)

// Phase is the event-proximity regime.
type Phase string

const (
	Clear       Phase = "CLEAR"
	Approaching Phase = "APPROACHING"
	Imminent    Phase = "IMMINENT"
	Blackout    Phase = "BLACKOUT"
	Digesting   Phase = "DIGESTING"
	Settled     Phase = "SETTLED"
)

// Phases lists every phase in numeric-code order.
var Phases = []Phase{Clear, Approaching, Imminent, Blackout, Digesting, Settled}

// Multiplier is the confidence scale applied to signals in this phase.
func (p Phase) Multiplier() float64 {
	switch p {
	case Clear:
		return 1.0
	case Approaching:
		return 0.8
	case Imminent:
		return 0.5
	case Blackout:
		return 0.0
	case Digesting:
		return 0.4
	case Settled:
		return 0.75
	default:
		return 0
	}
}

// Code is the phase's numeric encoding in feature rows.
func (p Phase) Code() int {
	for i, q := range Phases {
		if q == p {
			return i
		}
	}
	return -1
}

// Windows are the phase boundaries in minutes. Bounds are inclusive.
type Windows struct {
	BlackoutBefore float64
	Imminent       float64
	Approach       float64
	BlackoutAfter  float64
	Digesting      float64
	Settled        float64
}

// DefaultWindows returns 5/15/60 minutes before and 5/30/90 after.
func DefaultWindows() Windows {
	return Windows{
		BlackoutBefore: 5,
		Imminent:       15,
		Approach:       60,
		BlackoutAfter:  5,
		Digesting:      30,
		Settled:        90,
	}
}

// Scheduled is a calendar event resolved to an instant.
type Scheduled struct {
	Event domain.CalendarEvent
	At    time.Time
}

// EventRef describes the event driving a phase.
type EventRef struct {
	Name     string        `json:"name"`
	Impact   domain.Impact `json:"impact"`
	Time     time.Time     `json:"time"`
	Actual   series.Opt    `json:"actual"`
	Forecast series.Opt    `json:"forecast"`
}

// Context is the classification result.
type Context struct {
	Phase                Phase      `json:"phase"`
	ConfidenceAdjustment float64    `json:"confidence_adjustment"`
	Label                string     `json:"label"`
	NearestEvent         *EventRef  `json:"nearest_event"`
	MinutesTo            series.Opt `json:"minutes_to"`
	MinutesSince         series.Opt `json:"minutes_since"`
	Surprise             series.Opt `json:"surprise"`
}

// Prepare keeps high and medium impact events with a parseable clock time,
// resolved to UTC and sorted by instant.
func Prepare(events []domain.CalendarEvent) []Scheduled {
	out := make([]Scheduled, 0, len(events))
	for _, e := range events {
		if !e.Tradeable() {
			continue
		}
		at, err := exchtime.ParseEventTime(e.EventDate, e.EventTime)
		if err != nil {
			continue
		}
		out = append(out, Scheduled{Event: e, At: at})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// Classifier maps (now, events) to a Context.
type Classifier struct {
	Windows Windows
}

// NewClassifier returns a classifier with the default windows.
func NewClassifier() Classifier {
	return Classifier{Windows: DefaultWindows()}
}

// Classify prepares events and classifies now.
func (c Classifier) Classify(now time.Time, events []domain.CalendarEvent) Context {
	return c.ClassifyScheduled(now, Prepare(events))
}

// ClassifyScheduled classifies now against prepared events. An event at
// exactly now counts as past.
func (c Classifier) ClassifyScheduled(now time.Time, events []Scheduled) Context {
	var past, next *Scheduled
	for i := range events {
		e := &events[i]
		if !e.At.After(now) {
			if past == nil || !e.At.Before(past.At) {
				past = e
			}
		} else if next == nil || e.At.Before(next.At) {
			next = e
		}
	}

	ctx := Context{Phase: Clear}
	if past != nil {
		ctx.MinutesSince = series.Some(now.Sub(past.At).Minutes())
		ctx.Surprise = surpriseOf(past.Event)
	}
	if next != nil {
		ctx.MinutesTo = series.Some(next.At.Sub(now).Minutes())
	}

	w := c.Windows
	var driver *Scheduled
	switch since, to := ctx.MinutesSince, ctx.MinutesTo; {
	case since.OK && since.V <= w.BlackoutAfter:
		ctx.Phase, driver = Blackout, past
	case since.OK && since.V <= w.Digesting:
		ctx.Phase, driver = Digesting, past
	case since.OK && since.V <= w.Settled:
		ctx.Phase, driver = Settled, past
	case to.OK && to.V <= w.BlackoutBefore:
		ctx.Phase, driver = Blackout, next
	case to.OK && to.V <= w.Imminent:
		ctx.Phase, driver = Imminent, next
	case to.OK && to.V <= w.Approach:
		ctx.Phase, driver = Approaching, next
	default:
		driver = nearest(now, past, next)
	}

	ctx.ConfidenceAdjustment = ctx.Phase.Multiplier()
	if driver != nil {
		ctx.NearestEvent = &EventRef{
			Name:     driver.Event.Name,
			Impact:   driver.Event.Impact,
			Time:     driver.At,
			Actual:   series.FromNull(driver.Event.Actual),
			Forecast: series.FromNull(driver.Event.Forecast),
		}
	}
	ctx.Label = label(ctx, driver != nil && driver == past)
	return ctx
}

func nearest(now time.Time, past, next *Scheduled) *Scheduled {
	switch {
	case past == nil:
		return next
	case next == nil:
		return past
	case now.Sub(past.At) <= next.At.Sub(now):
		return past
	default:
		return next
	}
}

// surpriseOf is actual minus forecast when both are published.
func surpriseOf(e domain.CalendarEvent) series.Opt {
	return series.FromNull(e.Actual).Sub(series.FromNull(e.Forecast))
}

func label(ctx Context, isPast bool) string {
	if ctx.NearestEvent == nil {
		return "CLEAR: no scheduled events"
	}
	name := ctx.NearestEvent.Name
	if isPast {
		return fmt.Sprintf("%s: %s released %s ago", ctx.Phase, name, minutes(ctx.MinutesSince.V))
	}
	return fmt.Sprintf("%s: %s in %s", ctx.Phase, name, minutes(ctx.MinutesTo.V))
}

func minutes(m float64) string {
	m = math.Round(m)
	if m >= 120 {
		return fmt.Sprintf("%.0fh", math.Floor(m/60))
	}
	return fmt.Sprintf("%.0fm", m)
}

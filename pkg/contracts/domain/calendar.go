package domain

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Impact is the importance rating attached to a calendar event.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// ParseImpact normalizes vendor impact labels.
func ParseImpact(s string) (Impact, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "h", "3":
		return ImpactHigh, nil
	case "medium", "med", "m", "2":
		return ImpactMedium, nil
	case "low", "l", "1", "":
		return ImpactLow, nil
	default:
		return "", fmt.Errorf("unknown impact %q", s)
	}
}

// CalendarEvent is a scheduled economic release. EventTime is the exchange
// local clock label as published, e.g. "08:30 ET".
type CalendarEvent struct {
	EventDate time.Time       `json:"event_date" db:"event_date" validate:"required"`
	EventTime string          `json:"event_time" db:"event_time"`
	Impact    Impact          `json:"impact" db:"impact" validate:"oneof=high medium low"`
	Name      string          `json:"name" db:"name" validate:"required"`
	Actual    sql.NullFloat64 `json:"actual" db:"actual"`
	Forecast  sql.NullFloat64 `json:"forecast" db:"forecast"`
	Previous  sql.NullFloat64 `json:"previous" db:"previous"`
}

// Tradeable reports whether the event is rated high or medium.
func (e CalendarEvent) Tradeable() bool {
	return e.Impact == ImpactHigh || e.Impact == ImpactMedium
}

// SameDay reports whether the event's nominal date equals the given date.
func (e CalendarEvent) SameDay(d time.Time) bool {
	y1, m1, d1 := e.EventDate.Date()
	y2, m2, d2 := d.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// NameContains reports a case-insensitive match against any of the tokens.
func (e CalendarEvent) NameContains(tokens ...string) bool {
	name := strings.ToLower(e.Name)
	for _, t := range tokens {
		if strings.Contains(name, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

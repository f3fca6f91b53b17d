// Package exchtime converts between UTC and the US exchange clock using the
// fixed federal daylight-saving rule: EDT from 02:00 on the second Sunday of
// March until 02:00 on the first Sunday of November, EST otherwise.
package exchtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// EST is UTC-5.
	EST = time.FixedZone("EST", -5*3600)
	// EDT is UTC-4.
	EDT = time.FixedZone("EDT", -4*3600)
)

// ErrNoTime is returned for labels that carry no clock time.
var ErrNoTime = errors.New("event time label has no clock time")

// nthSunday returns the day of month of the n-th Sunday of month m.
func nthSunday(year int, m time.Month, n int) int {
	first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	offset := (7 - int(first.Weekday())) % 7
	return 1 + offset + 7*(n-1)
}

// DSTBounds returns the UTC instants where daylight time starts and ends.
func DSTBounds(year int) (start, end time.Time) {
	start = time.Date(year, time.March, nthSunday(year, time.March, 2), 2, 0, 0, 0, EST)
	end = time.Date(year, time.November, nthSunday(year, time.November, 1), 2, 0, 0, 0, EDT)
	return start.UTC(), end.UTC()
}

// IsDST reports whether daylight time is in effect at instant t.
func IsDST(t time.Time) bool {
	u := t.UTC()
	start, end := DSTBounds(u.Year())
	return !u.Before(start) && u.Before(end)
}

// isDSTWall decides daylight time for a wall-clock reading on a local date.
// The skipped hour in March is read as daylight time and the repeated hour
// in November as standard time.
func isDSTWall(year int, m time.Month, day, hour int) bool {
	startDay := nthSunday(year, time.March, 2)
	endDay := nthSunday(year, time.November, 1)
	switch {
	case m > time.March && m < time.November:
		return true
	case m == time.March:
		return day > startDay || (day == startDay && hour >= 2)
	case m == time.November:
		return day < endDay || (day == endDay && hour < 1)
	default:
		return false
	}
}

// Zone returns the exchange zone in effect at instant t.
func Zone(t time.Time) *time.Location {
	if IsDST(t) {
		return EDT
	}
	return EST
}

// ToLocal converts t to exchange local time.
func ToLocal(t time.Time) time.Time {
	return t.In(Zone(t))
}

// LocalDate returns the exchange calendar date of t as YYYY-MM-DD.
func LocalDate(t time.Time) string {
	return ToLocal(t).Format(time.DateOnly)
}

// Wall builds the instant for a local wall-clock reading on the given date.
func Wall(year int, m time.Month, day, hour, min int) time.Time {
	loc := EST
	if isDSTWall(year, m, day, hour) {
		loc = EDT
	}
	return time.Date(year, m, day, hour, min, 0, 0, loc).UTC()
}

var clockLayouts = []string{"15:04", "3:04PM", "3:04 PM", "3PM", "3 PM"}

// ParseClock parses a label such as "08:30 ET", "8:30am" or "14:00" into
// hour and minute.
func ParseClock(label string) (hour, minute int, err error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	for _, suffix := range []string{" ET", " EST", " EDT", "ET", "EST", "EDT"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	if s == "" || strings.Contains(s, "ALL DAY") || strings.Contains(s, "TENTATIVE") {
		return 0, 0, fmt.Errorf("%w: %q", ErrNoTime, label)
	}
	for _, layout := range clockLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("unrecognized event time %q", label)
}

// ParseEventTime resolves a local clock label on a calendar date to a UTC
// instant. Only the year, month and day of date are used.
func ParseEventTime(date time.Time, label string) (time.Time, error) {
	h, m, err := ParseClock(label)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.Date()
	return Wall(y, mo, d, h, m), nil
}

// IsUSSession reports whether t falls in the 09:30-16:00 cash session on a
// weekday.
func IsUSSession(t time.Time) bool {
	local := ToLocal(t)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	mins := local.Hour()*60 + local.Minute()
	return mins >= 9*60+30 && mins < 16*60
}

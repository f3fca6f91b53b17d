package asof

import (
	"fmt"
	"time"
)

// DateKey is a UTC calendar date stored as days since 1970-01-01.
type DateKey int32

const secondsPerDay = 86400

// KeyOf returns the UTC calendar date of ts.
func KeyOf(ts time.Time) DateKey {
	y, m, d := ts.UTC().Date()
	return DateKey(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// ParseKey parses a YYYY-MM-DD date.
func ParseKey(s string) (DateKey, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date key %q: %w", s, err)
	}
	return KeyOf(t), nil
}

// Time returns midnight UTC of the key's date.
func (k DateKey) Time() time.Time {
	return time.Unix(int64(k)*secondsPerDay, 0).UTC()
}

// AddDays shifts the key by n whole days.
func (k DateKey) AddDays(n int) DateKey { return k + DateKey(n) }

// String formats the key as YYYY-MM-DD.
func (k DateKey) String() string { return k.Time().Format(time.DateOnly) }

// ShiftDays shifts ts by n whole UTC days, keeping the time of day.
func ShiftDays(ts time.Time, n int) time.Time {
	return ts.UTC().AddDate(0, 0, n)
}

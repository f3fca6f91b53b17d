package phase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fusioncli/internal/exchtime"
	"fusioncli/pkg/contracts/domain"
)

// Loader fetches the calendar events for one exchange-local date (YYYY-MM-DD).
type Loader func(ctx context.Context, localDate string) ([]domain.CalendarEvent, error)

// DayCache holds the prepared schedule for the current exchange day. It
// reloads when the exchange date rolls over or after Refresh.
type DayCache struct {
	loader Loader

	mutex     sync.RWMutex
	day       string
	events    []Scheduled
	loadedAt  time.Time
	hitCount  atomic.Int64
	missCount atomic.Int64
}

// NewDayCache creates an empty cache backed by loader.
func NewDayCache(loader Loader) *DayCache {
	return &DayCache{loader: loader}
}

// Events returns the schedule for the exchange day containing now.
func (c *DayCache) Events(ctx context.Context, now time.Time) ([]Scheduled, error) {
	day := exchtime.LocalDate(now)

	c.mutex.RLock()
	if c.day == day && c.events != nil {
		events := c.events
		c.mutex.RUnlock()
		c.hitCount.Add(1)
		return events, nil
	}
	c.mutex.RUnlock()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.day == day && c.events != nil {
		c.hitCount.Add(1)
		return c.events, nil
	}
	c.missCount.Add(1)

	raw, err := c.loader(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar for %s: %w", day, err)
	}
	prepared := Prepare(raw)
	if prepared == nil {
		prepared = []Scheduled{}
	}
	c.day, c.events, c.loadedAt = day, prepared, time.Now()
	return prepared, nil
}

// Refresh drops the cached schedule so the next call reloads it.
func (c *DayCache) Refresh() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.day, c.events = "", nil
}

// Day returns the cached exchange date, or "" when empty.
func (c *DayCache) Day() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.day
}

// GetStats returns cache statistics.
func (c *DayCache) GetStats() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	hits, misses := c.hitCount.Load(), c.missCount.Load()
	hitRatio := float64(0)
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}
	return map[string]interface{}{
		"day":        c.day,
		"events":     len(c.events),
		"loaded_at":  c.loadedAt,
		"hit_count":  hits,
		"miss_count": misses,
		"hit_ratio":  hitRatio,
	}
}

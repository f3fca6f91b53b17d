package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandlerCaptures(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Debug("debug msg")
	logger.Info("build run completed", slog.String("run_id", "r1"), slog.Int("jobs", 2))
	logger.Error("export failed")

	require.Equal(t, 3, handler.Count())
	assert.True(t, handler.ContainsMessage("run completed"))
	assert.False(t, handler.ContainsMessage("phase transition"))
	assert.True(t, handler.ContainsAttr("run_id", "r1"))
	assert.True(t, handler.ContainsAttr("jobs", int64(2)))
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)

	handler.Clear()
	assert.Zero(t, handler.Count())
}

func TestBufferedSlogHandlerDerivedLoggers(t *testing.T) {
	logger, handler := NewTestLogger(t)

	svc := logger.With(slog.String("service", "phase"))
	svc.Info("phase transition", slog.String("to", "IMMINENT"))
	svc.WithGroup("event").Info("event loaded", slog.String("name", "CPI m/m"),
		slog.Group("window", slog.Int("before", 15)))

	records := handler.GetRecords()
	require.Len(t, records, 2)

	v, ok := records[0].Attr("service")
	require.True(t, ok)
	assert.Equal(t, "phase", v)
	v, _ = records[0].Attr("to")
	assert.Equal(t, "IMMINENT", v)

	v, _ = records[1].Attr("service")
	assert.Equal(t, "phase", v)
	v, _ = records[1].Attr("event.name")
	assert.Equal(t, "CPI m/m", v)
	v, _ = records[1].Attr("event.window.before")
	assert.Equal(t, int64(15), v)
	_, ok = records[1].Attr("name")
	assert.False(t, ok)
}

func TestAssertionHelpers(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("calendar day cached", slog.String("component", "phase_cache"))
	logger.Warn("unrecognized files in data directory")

	AssertLogContains(t, handler, slog.LevelInfo, "day cached")
	AssertLogContains(t, handler, slog.LevelWarn, "unrecognized")
	AssertLogAttr(t, handler, "component", "phase_cache")
	AssertNoErrors(t, handler)
}

func TestBufferedSlogHandlerConcurrent(t *testing.T) {
	logger, handler := NewTestLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.With(slog.Int("job", n)).Info("job built")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, handler.Count())
	assert.True(t, handler.ContainsAttr("job", int64(7)))
}

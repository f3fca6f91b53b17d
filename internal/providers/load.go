package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"fusioncli/internal/matrix"
	"fusioncli/internal/phase"
	"fusioncli/pkg/contracts/domain"
)

// Request lists what a run needs.
type Request struct {
	Instruments  []matrix.Instrument
	Macro        []matrix.MacroSeries
	CalendarFrom time.Time
	CalendarTo   time.Time
}

// RequestFor collects the union of what the jobs need, without duplicates.
func RequestFor(jobs []matrix.Job) Request {
	var req Request
	seenIn := map[matrix.Instrument]bool{}
	seenMacro := map[matrix.MacroSeries]bool{}
	addIn := func(in matrix.Instrument) {
		if !seenIn[in] {
			seenIn[in] = true
			req.Instruments = append(req.Instruments, in)
		}
	}
	for _, j := range jobs {
		addIn(j.Primary)
		for _, c := range j.Cross {
			addIn(c)
		}
		for _, m := range j.Macro {
			if !seenMacro[m] {
				seenMacro[m] = true
				req.Macro = append(req.Macro, m)
			}
		}
	}
	return req
}

// LoadInputs reads every requested series. Each category is loaded by one
// goroutine, so the three backends are queried concurrently but each sees a
// sequential stream of requests. A nil calendar source yields no events.
func LoadInputs(ctx context.Context, src Sources, req Request, logger *slog.Logger) (*matrix.Inputs, error) {
	start := time.Now()
	var (
		bars     = make(map[matrix.Instrument]domain.BarSeries, len(req.Instruments))
		macro    = make(map[matrix.MacroSeries]domain.MacroSeriesData, len(req.Macro))
		calendar []domain.CalendarEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(req.Instruments) > 0 && src.Bars == nil {
			return fmt.Errorf("no bar source configured")
		}
		for _, in := range req.Instruments {
			s, err := src.Bars.Bars(gctx, in)
			if err != nil {
				return err
			}
			bars[in] = s
		}
		return nil
	})
	g.Go(func() error {
		if len(req.Macro) > 0 && src.Macro == nil {
			return fmt.Errorf("no macro source configured")
		}
		for _, m := range req.Macro {
			d, err := src.Macro.Observations(gctx, m)
			if err != nil {
				return err
			}
			macro[m] = d
		}
		return nil
	})
	g.Go(func() error {
		if src.Calendar == nil {
			return nil
		}
		events, err := src.Calendar.Events(gctx, req.CalendarFrom, req.CalendarTo)
		if err != nil {
			return err
		}
		calendar = events
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}

	logger.InfoContext(ctx, "inputs loaded",
		slog.Int("instruments", len(bars)),
		slog.Int("macro_series", len(macro)),
		slog.Int("calendar_events", len(calendar)),
		slog.Duration("duration", time.Since(start)),
	)
	return &matrix.Inputs{Bars: bars, Macro: macro, Calendar: calendar}, nil
}

// DayLoader adapts a calendar source to the phase day cache, loading the
// events dated on one exchange-local day.
func DayLoader(src CalendarSource) phase.Loader {
	return func(ctx context.Context, localDate string) ([]domain.CalendarEvent, error) {
		day, err := time.Parse(time.DateOnly, localDate)
		if err != nil {
			return nil, err
		}
		return src.Events(ctx, day, day)
	}
}

func mkdirFor(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

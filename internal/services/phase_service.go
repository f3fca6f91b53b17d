package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fusioncli/internal/exchtime"
	"fusioncli/internal/infrastructure"
	"fusioncli/internal/phase"
)

// PhaseSnapshot is a classification stamped with the instant it describes.
type PhaseSnapshot struct {
	phase.Context
	At  time.Time `json:"at"`
	Day string    `json:"exchange_day"`
}

// PhaseService classifies the live event phase from a per-day calendar cache
// and reports transitions.
type PhaseService struct {
	cache      *phase.DayCache
	loader     phase.Loader
	classifier phase.Classifier
	clock      func() time.Time
	publisher  PhasePublisher
	metrics    *infrastructure.BuildMetrics
	logger     *slog.Logger

	mu   sync.Mutex
	last phase.Phase
}

// PhaseOption customizes a PhaseService.
type PhaseOption func(*PhaseService)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) PhaseOption {
	return func(s *PhaseService) { s.clock = clock }
}

// WithPublisher sends each transition to p.
func WithPublisher(p PhasePublisher) PhaseOption {
	return func(s *PhaseService) { s.publisher = p }
}

// WithPhaseMetrics records classifications.
func WithPhaseMetrics(m *infrastructure.BuildMetrics) PhaseOption {
	return func(s *PhaseService) { s.metrics = m }
}

// NewPhaseService creates a phase service over loader.
func NewPhaseService(loader phase.Loader, windows phase.Windows, logger *slog.Logger, opts ...PhaseOption) *PhaseService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PhaseService{
		cache:      phase.NewDayCache(loader),
		loader:     loader,
		classifier: phase.Classifier{Windows: windows},
		clock:      time.Now,
		logger:     logger.With(slog.String("service", "phase")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current classifies the present instant. A change from the previously
// observed phase, including the first observation, is published.
func (s *PhaseService) Current(ctx context.Context) (PhaseSnapshot, error) {
	now := s.clock().UTC()
	events, err := s.cache.Events(ctx, now)
	if err != nil {
		return PhaseSnapshot{}, err
	}
	snap := s.snapshot(now, events)
	s.observe(ctx, snap)
	return snap, nil
}

// At classifies an arbitrary instant. Days other than the current exchange
// day are loaded directly and not cached.
func (s *PhaseService) At(ctx context.Context, at time.Time) (PhaseSnapshot, error) {
	at = at.UTC()
	if exchtime.LocalDate(at) == exchtime.LocalDate(s.clock()) {
		events, err := s.cache.Events(ctx, at)
		if err != nil {
			return PhaseSnapshot{}, err
		}
		return s.snapshot(at, events), nil
	}

	raw, err := s.loader(ctx, exchtime.LocalDate(at))
	if err != nil {
		return PhaseSnapshot{}, err
	}
	return s.snapshot(at, phase.Prepare(raw)), nil
}

// Refresh drops the cached day and classifies again.
func (s *PhaseService) Refresh(ctx context.Context) (PhaseSnapshot, error) {
	s.cache.Refresh()
	s.logger.InfoContext(ctx, "phase calendar refreshed")
	return s.Current(ctx)
}

// CacheStats exposes the day cache counters.
func (s *PhaseService) CacheStats() map[string]interface{} {
	return s.cache.GetStats()
}

// Check loads today's schedule; it serves as a readiness probe.
func (s *PhaseService) Check(ctx context.Context) error {
	_, err := s.cache.Events(ctx, s.clock())
	return err
}

func (s *PhaseService) snapshot(at time.Time, events []phase.Scheduled) PhaseSnapshot {
	return PhaseSnapshot{
		Context: s.classifier.ClassifyScheduled(at, events),
		At:      at,
		Day:     exchtime.LocalDate(at),
	}
}

func (s *PhaseService) observe(ctx context.Context, snap PhaseSnapshot) {
	s.mu.Lock()
	prev := s.last
	changed := prev != snap.Phase
	s.last = snap.Phase
	s.mu.Unlock()

	s.metrics.RecordPhase(ctx, string(snap.Phase), changed)
	if !changed {
		return
	}

	s.logger.InfoContext(ctx, "phase transition",
		slog.String("from", string(prev)),
		slog.String("to", string(snap.Phase)),
		slog.String("label", snap.Label))

	if s.publisher == nil {
		return
	}
	t := Transition{From: prev, To: snap.Phase, At: snap.At, Context: snap.Context}
	if err := s.publisher.PublishTransition(ctx, t); err != nil {
		s.logger.WarnContext(ctx, "failed to publish phase transition", slog.String("error", err.Error()))
	}
}

// Watch reclassifies every interval until ctx is done, so transitions are
// published even when nobody queries the service. Load failures are logged
// and retried on the next tick.
func (s *PhaseService) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Current(ctx); err != nil && ctx.Err() == nil {
			s.logger.WarnContext(ctx, "phase poll failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

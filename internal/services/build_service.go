package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"fusioncli/internal/exporter"
	"fusioncli/internal/infrastructure"
	"fusioncli/internal/matrix"
	"fusioncli/internal/providers"
)

// BuildService loads inputs once and builds every job against them.
type BuildService struct {
	sources      providers.Sources
	builder      *matrix.Builder
	exporter     *exporter.Exporter
	formats      exporter.Formats
	metrics      *infrastructure.BuildMetrics
	logger       *slog.Logger
	calendarFrom time.Time
	parallelism  int
}

// BuildOption customizes a BuildService.
type BuildOption func(*BuildService)

// WithBuildMetrics records build metrics.
func WithBuildMetrics(m *infrastructure.BuildMetrics) BuildOption {
	return func(s *BuildService) { s.metrics = m }
}

// WithCalendarFrom bounds the calendar load from below.
func WithCalendarFrom(t time.Time) BuildOption {
	return func(s *BuildService) { s.calendarFrom = t }
}

// WithParallelism caps concurrent job builds. Values below 1 mean unlimited.
func WithParallelism(n int) BuildOption {
	return func(s *BuildService) { s.parallelism = n }
}

// NewBuildService creates a build service.
func NewBuildService(sources providers.Sources, builder *matrix.Builder, exp *exporter.Exporter, formats exporter.Formats, logger *slog.Logger, opts ...BuildOption) *BuildService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &BuildService{
		sources:  sources,
		builder:  builder,
		exporter: exp,
		formats:  formats,
		logger:   logger.With(slog.String("service", "build")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// JobResult summarizes one written matrix.
type JobResult struct {
	Job       string         `json:"job"`
	Rows      int            `json:"rows"`
	Columns   int            `json:"columns"`
	NullRatio float64        `json:"null_ratio"`
	Files     exporter.Files `json:"files"`
	Duration  time.Duration  `json:"duration"`
}

// RunResult summarizes a run.
type RunResult struct {
	RunID    string        `json:"run_id"`
	Jobs     []JobResult   `json:"jobs"`
	Duration time.Duration `json:"duration"`
	RunLog   string        `json:"run_log,omitempty"`
}

// Run loads the union of inputs the jobs need and builds the jobs in
// parallel. Each job writes its own files. The first failing job cancels the
// rest and its error is returned.
func (s *BuildService) Run(ctx context.Context, jobs []matrix.Job) (*RunResult, error) {
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}
	start := time.Now()
	runID := infrastructure.GenerateTraceID()
	ctx = infrastructure.WithTraceID(ctx, runID)

	ctx, span := infrastructure.StartSpan(ctx, "build.run",
		attribute.String("run_id", runID),
		attribute.Int("jobs", len(jobs)))
	defer span.End()

	req := providers.RequestFor(jobs)
	req.CalendarFrom = s.calendarFrom

	s.logger.InfoContext(ctx, "build run started",
		slog.Int("jobs", len(jobs)),
		slog.Int("instruments", len(req.Instruments)),
		slog.Int("macro_series", len(req.Macro)))

	loadStart := time.Now()
	inputs, err := providers.LoadInputs(ctx, s.sources, req, s.logger)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	s.metrics.RecordInputLoad(ctx, time.Since(loadStart))

	results := make([]JobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if s.parallelism > 0 {
		g.SetLimit(s.parallelism)
	}
	for i, job := range jobs {
		g.Go(func() error {
			res, err := s.runJob(gctx, job, inputs)
			if err != nil {
				return fmt.Errorf("build %s: %w", job.WithDefaults().Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "build run failed", slog.String("error", err.Error()))
		return nil, err
	}

	out := &RunResult{RunID: runID, Jobs: results, Duration: time.Since(start)}
	s.appendRunLog(ctx, out)
	s.logger.InfoContext(ctx, "build run completed",
		slog.Int("jobs", len(results)),
		slog.Duration("duration", out.Duration))
	return out, nil
}

func (s *BuildService) runJob(ctx context.Context, job matrix.Job, inputs *matrix.Inputs) (JobResult, error) {
	start := time.Now()
	name := job.WithDefaults().Name

	ctx, span := infrastructure.StartSpan(ctx, "build.job", attribute.String("job", name))
	defer span.End()

	m, err := s.builder.Build(ctx, job, inputs)
	if err != nil {
		s.metrics.RecordBuild(ctx, name, 0, 0, time.Since(start), err)
		infrastructure.RecordError(ctx, err)
		return JobResult{}, err
	}

	files, err := s.exporter.Export(ctx, m, s.formats)
	if err != nil {
		s.metrics.RecordBuild(ctx, name, 0, 0, time.Since(start), err)
		infrastructure.RecordError(ctx, err)
		return JobResult{}, err
	}

	nullRatio := m.NullRatio()
	s.metrics.RecordBuild(ctx, name, len(m.Rows), nullRatio, time.Since(start), nil)
	return JobResult{
		Job:       m.Job,
		Rows:      len(m.Rows),
		Columns:   len(m.Columns),
		NullRatio: nullRatio,
		Files:     files,
		Duration:  time.Since(start),
	}, nil
}

// appendRunLog records the run in the exporter's ledger. A ledger failure
// leaves the written matrices in place and is only logged.
func (s *BuildService) appendRunLog(ctx context.Context, res *RunResult) {
	entries := make([]exporter.RunLogEntry, len(res.Jobs))
	for i, j := range res.Jobs {
		entries[i] = exporter.RunLogEntry{
			Job:       j.Job,
			Rows:      j.Rows,
			Columns:   j.Columns,
			NullRatio: j.NullRatio,
			CSV:       j.Files.CSV,
		}
	}
	path, err := s.exporter.AppendRunLog(res.RunID, time.Now(), entries)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to append run log",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	res.RunLog = path
}

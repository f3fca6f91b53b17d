package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BuildMetrics holds the feature build and phase instruments. A nil
// *BuildMetrics records nothing.
type BuildMetrics struct {
	BuildsTotal          metric.Int64Counter
	RowsTotal            metric.Int64Counter
	BuildDuration        metric.Float64Histogram
	NullRatio            metric.Float64Gauge
	InputLoadDuration    metric.Float64Histogram
	PhaseClassifications metric.Int64Counter
	PhaseTransitions     metric.Int64Counter
}

// NewBuildMetrics creates the instruments on meter.
func NewBuildMetrics(meter metric.Meter) (*BuildMetrics, error) {
	buildsTotal, err := meter.Int64Counter(
		"matrix_builds_total",
		metric.WithDescription("Total number of matrix builds by job and status"),
	)
	if err != nil {
		return nil, err
	}

	rowsTotal, err := meter.Int64Counter(
		"matrix_rows_total",
		metric.WithDescription("Total number of matrix rows written"),
	)
	if err != nil {
		return nil, err
	}

	buildDuration, err := meter.Float64Histogram(
		"matrix_build_duration_seconds",
		metric.WithDescription("Matrix build duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	nullRatio, err := meter.Float64Gauge(
		"matrix_null_ratio",
		metric.WithDescription("Share of null covariate cells in the last build"),
	)
	if err != nil {
		return nil, err
	}

	inputLoad, err := meter.Float64Histogram(
		"input_load_duration_seconds",
		metric.WithDescription("Time spent loading bars, observations and calendar events"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	classifications, err := meter.Int64Counter(
		"phase_classifications_total",
		metric.WithDescription("Total number of event phase classifications by phase"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"phase_transitions_total",
		metric.WithDescription("Total number of observed event phase transitions"),
	)
	if err != nil {
		return nil, err
	}

	return &BuildMetrics{
		BuildsTotal:          buildsTotal,
		RowsTotal:            rowsTotal,
		BuildDuration:        buildDuration,
		NullRatio:            nullRatio,
		InputLoadDuration:    inputLoad,
		PhaseClassifications: classifications,
		PhaseTransitions:     transitions,
	}, nil
}

// RecordBuild records one job's outcome.
func (m *BuildMetrics) RecordBuild(ctx context.Context, job string, rows int, nullRatio float64, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	jobAttr := attribute.String("job", job)
	m.BuildsTotal.Add(ctx, 1, metric.WithAttributes(jobAttr, attribute.String("status", status)))
	m.BuildDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(jobAttr))
	if err != nil {
		return
	}
	m.RowsTotal.Add(ctx, int64(rows), metric.WithAttributes(jobAttr))
	m.NullRatio.Record(ctx, nullRatio, metric.WithAttributes(jobAttr))
}

// RecordInputLoad records the shared input load time.
func (m *BuildMetrics) RecordInputLoad(ctx context.Context, duration time.Duration) {
	if m == nil {
		return
	}
	m.InputLoadDuration.Record(ctx, duration.Seconds())
}

// RecordPhase counts one classification, and a transition when changed is set.
func (m *BuildMetrics) RecordPhase(ctx context.Context, phase string, changed bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("phase", phase))
	m.PhaseClassifications.Add(ctx, 1, attrs)
	if changed {
		m.PhaseTransitions.Add(ctx, 1, attrs)
	}
}

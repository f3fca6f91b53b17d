package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fusioncli/internal/config"
	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/exporter"
	"fusioncli/internal/files"
	"fusioncli/internal/infrastructure"
	"fusioncli/internal/matrix"
	"fusioncli/internal/providers"
	"fusioncli/internal/services"
)

// Build runs every job in cfg once and exports the matrices under
// cfg.Output.Dir. The run is bounded by cfg.Sources.Timeout when set.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services.RunResult, error) {
	jobs, err := cfg.MatrixJobs()
	if err != nil {
		return nil, err
	}
	if err := files.EnsureWritable(cfg.Output.Dir); err != nil {
		return nil, apperrors.NewConfigurationError("invalid output directory", err)
	}
	if err := preflight(cfg.Sources, jobs, logger); err != nil {
		return nil, err
	}

	tel, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.WarnContext(ctx, "telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.NewBuildMetrics(tel.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	if cfg.Sources.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Sources.Timeout)
		defer cancel()
	}

	set, err := services.OpenSources(ctx, cfg.Sources, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := set.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close sources", slog.String("error", err.Error()))
		}
	}()

	builder := matrix.NewBuilder(logger).WithWindows(cfg.Phase.Windows())
	formats := exporter.Formats{Parquet: cfg.Output.Parquet, XLSX: cfg.Output.XLSX, BOM: cfg.Output.BOM}
	svc := services.NewBuildService(set.Sources, builder, exporter.New(cfg.Output.Dir, logger), formats, logger,
		services.WithBuildMetrics(metrics),
		services.WithCalendarFrom(cfg.Sources.CalendarStart()))

	return svc.Run(ctx, jobs)
}

// preflight fails fast when a file-backed source lacks inputs the jobs need,
// naming every missing file at once.
func preflight(cfg config.SourcesConfig, jobs []matrix.Job, logger *slog.Logger) error {
	barExt := files.ExtCSV
	switch cfg.Kind {
	case config.SourceCSV:
	case config.SourceParquet:
		barExt = files.ExtParquet
	default:
		return nil
	}

	inv, err := files.Discover(cfg.Dir)
	if err != nil {
		return apperrors.NewSourceError("data directory", err)
	}
	if len(inv.Unrecognized) > 0 {
		logger.Warn("unrecognized files in data directory",
			slog.String("dir", cfg.Dir),
			slog.Any("files", inv.Unrecognized))
	}
	if missing := inv.Missing(providers.RequestFor(jobs), barExt); len(missing) > 0 {
		return apperrors.NewSourceError("data directory",
			fmt.Errorf("missing input files: %s", strings.Join(missing, ", ")))
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"fusioncli/internal/config"
	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/providers"
)

// SourceSet is an opened set of providers with its lifecycle hooks.
type SourceSet struct {
	providers.Sources
	Kind  string
	Close func() error
	Check CheckFunc
}

// OpenSources builds the providers for the configured source kind.
func OpenSources(ctx context.Context, cfg config.SourcesConfig, logger *slog.Logger) (*SourceSet, error) {
	noop := func() error { return nil }
	dirCheck := func(context.Context) error {
		info, err := os.Stat(cfg.Dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", cfg.Dir)
		}
		return nil
	}

	switch cfg.Kind {
	case config.SourceCSV:
		csv := providers.NewCSVSource(cfg.Dir, logger)
		return &SourceSet{
			Sources: providers.Sources{Bars: csv, Macro: csv, Calendar: csv},
			Kind:    cfg.Kind,
			Close:   noop,
			Check:   dirCheck,
		}, nil

	case config.SourceParquet:
		csv := providers.NewCSVSource(cfg.Dir, logger)
		return &SourceSet{
			Sources: providers.Sources{Bars: providers.NewParquetBarSource(cfg.Dir), Macro: csv, Calendar: csv},
			Kind:    cfg.Kind,
			Close:   noop,
			Check:   dirCheck,
		}, nil

	case config.SourcePostgres, config.SourceClickHouse:
		driver := providers.DriverPostgres
		if cfg.Kind == config.SourceClickHouse {
			driver = providers.DriverClickHouse
		}
		store, err := providers.OpenSQLStore(ctx, driver, cfg.DSN, cfg.QPS)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "sql store opened",
			slog.String("driver", driver),
			slog.Float64("qps", cfg.QPS))
		return &SourceSet{
			Sources: providers.Sources{Bars: store, Macro: store, Calendar: store},
			Kind:    cfg.Kind,
			Close:   store.Close,
			Check:   store.Ping,
		}, nil

	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported source kind %q", cfg.Kind), nil)
	}
}

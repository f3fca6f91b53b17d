package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"fusioncli/internal/config"
	apierrors "fusioncli/internal/errors"
	"fusioncli/internal/infrastructure"
	"fusioncli/internal/middleware"
	"fusioncli/internal/providers"
	"fusioncli/internal/services"
	handlers "fusioncli/internal/transport/http"
)

// Application is the phase server: calendar sources, the phase service, and
// the HTTP surface over them.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
	Metrics   *infrastructure.BuildMetrics
	Sources   *services.SourceSet
	Phase     *services.PhaseService
	Health    *services.HealthService
	Router    *chi.Mux
	Server    *http.Server

	redis       *redis.Client
	stopWatch   context.CancelFunc
	watchDone   chan struct{}
	serverError chan error
}

// NewApplication wires the phase server from cfg. Nothing listens until Start.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	a := &Application{Config: cfg, Logger: logger, serverError: make(chan error, 1)}

	tel, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.Telemetry = tel

	a.Metrics, err = infrastructure.NewBuildMetrics(tel.Meter)
	if err != nil {
		a.cleanup(ctx)
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a.Sources, err = services.OpenSources(ctx, cfg.Sources, logger)
	if err != nil {
		a.cleanup(ctx)
		return nil, err
	}

	opts := []services.PhaseOption{services.WithPhaseMetrics(a.Metrics)}
	if cfg.Redis.Enabled {
		a.redis, err = services.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			a.cleanup(ctx)
			return nil, err
		}
		opts = append(opts, services.WithPublisher(services.NewRedisPhasePublisher(a.redis, cfg.Redis.Channel)))
	}
	a.Phase = services.NewPhaseService(providers.DayLoader(a.Sources.Calendar), cfg.Phase.Windows(), logger, opts...)

	a.Health = services.NewHealthService(config.AppVersion, logger)
	a.Health.Register("sources", a.Sources.Check)
	a.Health.Register("calendar", a.Phase.Check)
	if a.redis != nil {
		a.Health.Register("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}

	if err := a.setupRouter(); err != nil {
		a.cleanup(ctx)
		return nil, err
	}
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func (a *Application) setupRouter() error {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	otelMiddleware, err := middleware.NewOTelMiddleware(a.Telemetry)
	if err != nil {
		return err
	}

	var limiter *middleware.RateLimiter
	if a.Config.Server.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(a.Config.Server.RateLimitRPS, a.Config.Server.RateLimitBurst, a.Logger)
	}

	a.Router = handlers.NewRouter(handlers.RouterDeps{
		Phase:   handlers.NewPhaseHandler(a.Phase, a.Logger, errorHandler),
		Health:  handlers.NewHealthHandler(a.Health, a.Logger, errorHandler),
		Metrics: a.Telemetry.PrometheusHTTP,
		OTel:    otelMiddleware,
		Limiter: limiter,
		Errors:  errorHandler,
		Logger:  a.Logger,
	})
	return nil
}

// Start begins serving and, when configured, polling the phase in the
// background. Listener failures are reported by Run.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "starting phase server",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("sources", a.Sources.Kind))

	if interval := a.Config.Phase.PollInterval; interval > 0 {
		watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		a.stopWatch = cancel
		a.watchDone = make(chan struct{})
		go func() {
			defer close(a.watchDone)
			a.Phase.Watch(watchCtx, interval)
		}()
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.serverError <- err
		}
	}()
	return nil
}

// Stop shuts the server down within the configured timeout and releases
// every resource NewApplication opened.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down phase server")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if a.stopWatch != nil {
		a.stopWatch()
		<-a.watchDone
	}
	errs = append(errs, a.cleanup(shutdownCtx))

	a.Logger.InfoContext(ctx, "phase server stopped")
	return errors.Join(errs...)
}

func (a *Application) cleanup(ctx context.Context) error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if a.Sources != nil && a.Sources.Close != nil {
		if err := a.Sources.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sources close: %w", err))
		}
	}
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run serves until SIGINT, SIGTERM, ctx cancellation or a listener failure,
// then stops gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "received shutdown signal")
	case serveErr = <-a.serverError:
		a.Logger.ErrorContext(ctx, "server error", slog.String("error", serveErr.Error()))
	}

	return errors.Join(serveErr, a.Stop(context.WithoutCancel(ctx)))
}

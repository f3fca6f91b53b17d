package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"
)

// CheckFunc probes one dependency. A nil error means ready.
type CheckFunc func(ctx context.Context) error

// HealthService reports liveness and dependency readiness
type HealthService struct {
	version   string
	startTime time.Time
	logger    *slog.Logger

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// NewHealthService creates a health service with no registered checks.
func NewHealthService(version string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
		checks:    map[string]CheckFunc{},
	}
}

// Register adds or replaces a named readiness check.
func (hs *HealthService) Register(name string, check CheckFunc) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.checks[name] = check
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck runs every registered check with a per-check timeout.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	hs.mu.RLock()
	names := make([]string, 0, len(hs.checks))
	for name := range hs.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(hs.checks))
	for k, v := range hs.checks {
		checks[k] = v
	}
	hs.mu.RUnlock()
	sort.Strings(names)

	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]ServiceHealth, len(names)),
	}

	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		start := time.Now()
		err := checks[name](cctx)
		cancel()

		sh := ServiceHealth{Status: "ready", Latency: time.Since(start).String()}
		if err != nil {
			sh.Status = "not_ready"
			sh.Message = fmt.Sprintf("%s check failed: %v", name, err)
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("check", name),
				slog.String("error", err.Error()))
		}
		status.Services[name] = sh
	}
	return status
}

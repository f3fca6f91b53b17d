// Package services holds the application services shared by the binaries.
//
// BuildService loads the union of inputs a set of matrix jobs needs, builds
// the jobs concurrently and exports each matrix. PhaseService classifies the
// live event phase from a per-day calendar cache and publishes transitions.
// HealthService aggregates named readiness checks for the phase server.
//
// Services log through slog, report metrics through the OpenTelemetry
// instruments in package infrastructure, and return errors from package
// errors so callers can branch on configuration, source and data
// insufficiency failures.
package services

// Package http implements the HTTP handlers of the phase server. Handlers stay
// thin: they parse and validate the request, call a service, and render JSON.
// Service errors are converted to RFC 7807 problem responses by the shared
// error handler.
//
// Routes:
//
//	GET  /api/v1/phase           current phase, or the phase at ?at=<RFC 3339>
//	POST /api/v1/phase/refresh   drop the cached calendar day and reclassify
//	GET  /api/v1/phase/cache     calendar cache counters
//	GET  /api/v1/health          readiness, or liveness with ?probe=live
//	GET  /api/v1/health/live     liveness
//	GET  /api/v1/health/ready    readiness
//	GET  /metrics                Prometheus exposition
package http

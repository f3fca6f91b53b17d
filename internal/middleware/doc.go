// Package middleware holds the HTTP middleware of the phase server: request
// IDs, rate limiting, security headers, OpenTelemetry spans and request
// metrics, and query parameter validation.
package middleware

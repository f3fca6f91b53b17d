// Package series holds the explicit null representation used throughout the
// feature engine: Opt for single values and Series, a parallel value/valid
// pair of slices, for per-bar arrays consumed by filter loops.
package series

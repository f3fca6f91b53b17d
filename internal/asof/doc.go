// Package asof implements point-in-time joins: UTC calendar date keys, the
// publication-lag policy per release cadence, and binary-search lookups that
// return the latest observation at or before a target key.
//
// Lags are fixed constants so that every run applies the same anti-leakage
// rule; they are deliberately not configurable.
package asof

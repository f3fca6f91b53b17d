// Package providers loads bars, macro observations and calendar events for a
// build. Sources are read once per category before any computation starts;
// the engine itself never performs I/O.
//
// Three backends are available: a CSV directory, Parquet bar files and a SQL
// database (Postgres or ClickHouse). Table names come only from the closed
// instrument and series enums in package matrix.
package providers

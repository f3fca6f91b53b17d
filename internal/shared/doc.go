// Package shared holds helpers used across packages that belong to no single
// layer. The testutil subpackage captures slog output so tests can assert on
// log records.
package shared

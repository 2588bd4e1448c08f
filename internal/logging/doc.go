// Package logging assembles structured slog loggers and formatting helpers used
// across veritas.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so engine stages automatically
// tag log lines with correlation IDs, stage names, and the evidence path. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging

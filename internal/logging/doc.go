// Package logging assembles structured slog loggers and formatting helpers used
// across mediamirror.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the run id, stage, and task label automatically. A JSON copy of
// every record can be teed to a log file. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging

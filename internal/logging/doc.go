// Package logging assembles structured slog loggers and formatting helpers used
// across the stitcher.
//
// It owns the console and JSON handlers, mirrors records into an optional log
// file, and exposes context-aware helpers so worker code automatically tags
// lines with the run id, worker index, and group identifier. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging

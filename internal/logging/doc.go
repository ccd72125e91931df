// Package logging assembles structured slog loggers and formatting helpers used
// across dockerps.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so gateway code can tag log
// lines with the connection correlation ID, remote address, and task. The
// daemon log file always receives JSON so it stays machine readable when the
// terminal uses the console format. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging

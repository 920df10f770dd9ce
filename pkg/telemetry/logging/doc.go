// Package logging configures the process-wide structured logger.
//
// Loggers are plain *slog.Logger values built from the telemetry
// configuration section. Components receive their logger at construction
// and attach a "component" attribute; there is no package-level logger
// state beyond what callers choose to install with slog.SetDefault.
package logging

// Package logging provides the minimal logging interface used across agentloop
// together with slog based implementations.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn,
// Error) with slog-style key/value arguments. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping a *slog.Logger
//   - StructuredLogger with run/component context and domain helpers
//   - NoOpLogger for silent operation (the default everywhere)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	r := runner.New(llm, catalogSource, func(o *runner.Options) { o.Logger = logger })
package logging

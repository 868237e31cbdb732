// Package logging provides a minimal logging interface and adapters for the
// Resistance simulator.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn,
// Error) that the engine, the runner and the strategies use. This package
// includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - GameLogger with component/game/run context and game/batch helpers
//   - NoOpLogger for silent operation (tests, benchmarks)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	g, _ := engine.NewGame(players, engine.WithLogger(logger))
package logging

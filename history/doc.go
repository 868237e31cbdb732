// Package history houses the in-memory transcript store for played games.
//
// The engine emits one core.Event per public broadcast. Registering an
// engine.RecorderCallback backed by an InMemoryStore keeps the complete,
// ordered transcript of every game, keyed by game ID. The store is safe for
// concurrent use so a batch runner can share it across worker goroutines.
//
// Summarize condenses a transcript into the handful of numbers the runner
// aggregates (proposals, rejected teams, executed missions).
package history

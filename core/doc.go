// Package core provides the foundational domain types shared by the engine,
// the strategies and the batch tooling:
//
//   - Player, the callback contract every strategy implements
//   - PlayerID, Team, Votes and SpySet value types
//   - Event, the public record of one broadcast step of a game
//   - ConfigError / ProtocolError, the engine's error taxonomy
//   - CallLimiter, a per-game budget for expensive strategy decisions
//
// The package keeps orchestration (engine) and decision logic (agent) out of
// scope, exposing small types so custom strategies can be plugged in.
package core

// Package engine runs games of The Resistance.
//
// A Game owns the roster and the secret spy set and plays five rounds. Each
// Round makes up to five proposal attempts, and each attempt is a Mission
// that moves through propose, vote and, when approved, betrayal collection.
// Players are only reached through the core.Player callbacks, one call at a
// time, in the order documented on that interface.
//
// # Lifecycle
//
//	g, _ := engine.NewGame(players, engine.WithRand(rng))
//	_ = g.AllocateSpiesRandomly()
//	res, err := g.Play()
//
// Spies are allocated exactly once, by one of AllocateSpiesRandomly,
// AllocateSpiesByType, AllocateSpies, AllocateSingleSpy or
// AllocateSingleResistance. Play is single-use.
//
// # Leader rotation
//
// The first round is led by seat 0. Within a round the proposer advances by
// one seat per rejected vote; the next round's leader is the current leader
// plus the number of proposals made, modulo the roster size.
//
// # Errors
//
// Setup mistakes are reported as *core.ConfigError wrapping one of the
// sentinels of this package. A player that proposes a malformed team, or a
// resistance member that betrays, aborts the game with *core.ProtocolError.
//
// # Callbacks
//
// Every broadcast is mirrored as a core.Event to the CallbackManager after
// the players have been notified. Callbacks can log (LoggingCallback),
// record transcripts (RecorderCallback) or run arbitrary code
// (FunctionCallback); an error returned by a callback aborts the game.
package engine

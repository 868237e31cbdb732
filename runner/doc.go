// Package runner implements the batch experiment layer of the simulator.
//
// A Runner plays many independent games concurrently, bounded by
// Options.Workers, and folds the outcomes into a Report. Each game is
// single-threaded; nothing is shared between concurrent games except the
// transcript store and the report slots, one per game.
//
// # Responsibilities (abridged)
//   - Squad creation by strategy kind (SquadCreator)
//   - Spy allocation per matchup (roles, kind, random, single spy, single resistance)
//   - Reproducible seeding: game i of a run always draws from PCG(seed, i)
//   - Aggregate statistics per matchup and player count, CSV export
//   - Cancellation of a running batch by run ID
//
// See runner.go for the operational implementation details.
package runner

// Package agent contains the strategy implementations that sit behind
// core.Player. The package focuses on three concerns:
//
//  1. Shared bookkeeping (BaseAgent, TeamBuilder, Options)
//  2. Hand-written strategies of increasing sophistication: RandomAgent,
//     baseline RandomAgent, ReflexAgent, BayesianAgent, DeterministicAgent
//  3. A language model backed strategy (ModelAgent)
//
// Design principles:
//   - Strategies never return an illegal move: team builders always pad from
//     the whole roster and resistance players never betray
//   - Randomness comes from an injected *rand.Rand so games are reproducible
//   - Numeric state is clamped inside the strategy; the engine never checks it
//
// Evolvable parameters (Genetics and Penalties) live here so that the
// evolution package can seed and mutate them without an import cycle.
package agent

package agent

import (
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/logging"
	"github.com/hupe1980/resistance/rules"
)

// BaseAgent bundles the bookkeeping every strategy needs: identity, the
// personalised spy view, round and failure counters and a private random
// source. Embed it in concrete strategies and override the decision methods.
//
// Strategies overriding NewGame, VoteOutcome or RoundOutcome must call the
// embedded method so the counters stay correct.
type BaseAgent struct {
	name   string
	rng    *rand.Rand
	logger logging.Logger

	players        int
	self           core.PlayerID
	spies          core.SpySet
	spyList        []core.PlayerID
	round          int
	attempt        int
	missionsFailed int
}

// NewBaseAgent constructs a BaseAgent from resolved options.
func NewBaseAgent(name string, opts Options) BaseAgent {
	return BaseAgent{name: name, rng: opts.Rand, logger: opts.Logger}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// NewGame resets the per-game state.
func (b *BaseAgent) NewGame(players int, self core.PlayerID, spies []core.PlayerID) {
	b.players = players
	b.self = self
	b.spies = core.NewSpySet(spies)
	b.spyList = slices.Clone(spies)
	b.round = 0
	b.attempt = 0
	b.missionsFailed = 0
}

// Players returns the roster size.
func (b *BaseAgent) Players() int { return b.players }

// Self returns the agent's seat.
func (b *BaseAgent) Self() core.PlayerID { return b.self }

// IsSpy reports whether this agent is a spy in the current game.
func (b *BaseAgent) IsSpy() bool { return b.spies.Has(b.self) }

// Spies returns the known spies; empty for resistance members.
func (b *BaseAgent) Spies() []core.PlayerID { return slices.Clone(b.spyList) }

// KnownSpy reports whether p is known to be a spy. Always false for resistance.
func (b *BaseAgent) KnownSpy(p core.PlayerID) bool { return b.spies.Has(p) }

// Round returns the 0-based index of the current round.
func (b *BaseAgent) Round() int { return b.round }

// Attempt returns the 0-based proposal attempt within the current round.
func (b *BaseAgent) Attempt() int { return b.attempt }

// FinalAttempt reports whether the current proposal is the last before the
// round fails automatically.
func (b *BaseAgent) FinalAttempt() bool { return b.attempt == rules.MaxProposals-1 }

// MissionsFailed returns the failed mission count seen so far.
func (b *BaseAgent) MissionsFailed() int { return b.missionsFailed }

// SpyCount returns the number of spies in the current game.
func (b *BaseAgent) SpyCount() int { return rules.MustSpyCount(b.players) }

// BetrayalsRequired returns the betrayals needed to fail the current mission.
func (b *BaseAgent) BetrayalsRequired() int { return rules.MustFailsRequired(b.players, b.round) }

// Rand returns the agent's random source.
func (b *BaseAgent) Rand() *rand.Rand { return b.rng }

// Logger returns the agent's logger.
func (b *BaseAgent) Logger() logging.Logger { return b.logger }

// Prior is the initial probability that any other player is a spy.
func (b *BaseAgent) Prior() float64 {
	return float64(b.SpyCount()) / float64(b.players-1)
}

// SpiesOn returns the known spies on team, in team order.
func (b *BaseAgent) SpiesOn(team core.Team) []core.PlayerID {
	var out []core.PlayerID
	for _, p := range team {
		if b.spies.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// VoteOutcome advances the attempt counter.
func (b *BaseAgent) VoteOutcome(_ core.Team, _ core.PlayerID, votes core.Votes) {
	if votes.Approvals()*2 <= b.players {
		b.attempt++
	}
}

// MissionOutcome is a no-op.
func (b *BaseAgent) MissionOutcome(core.Team, core.PlayerID, int, bool) {}

// RoundOutcome records progress and resets the attempt counter.
func (b *BaseAgent) RoundOutcome(roundsCompleted, missionsFailed int) {
	b.round = roundsCompleted
	b.attempt = 0
	b.missionsFailed = missionsFailed
}

// GameOutcome is a no-op.
func (b *BaseAgent) GameOutcome(bool, []core.PlayerID) {}

// betrayCheck guards Betray: resistance never betrays.
func (b *BaseAgent) betrayCheck() bool { return b.IsSpy() }

// maxID returns the highest seat in ids; ids must be non-empty.
func maxID(ids []core.PlayerID) core.PlayerID {
	return slices.Max(ids)
}

package agent

import (
	"github.com/hupe1980/resistance/core"
)

// RandomAgent ignores all history: it proposes uniformly random teams, votes
// for a team with probability VoteProbability and, as a spy, betrays with
// probability BetrayProbability.
type RandomAgent struct {
	BaseAgent
	voteProbability   float64
	betrayProbability float64
}

// NewRandomAgent creates a coin-flip agent (both probabilities 0.5).
func NewRandomAgent(name string, optFns ...func(o *Options)) *RandomAgent {
	return newRandomAgent(name, 0.5, 0.5, optFns)
}

// NewBaselineAgent creates the reference agent: random teams, 50% approval
// and a 30% betrayal rate as a spy.
func NewBaselineAgent(name string, optFns ...func(o *Options)) *RandomAgent {
	return newRandomAgent(name, 0.5, 0.3, optFns)
}

func newRandomAgent(name string, vote, betray float64, optFns []func(o *Options)) *RandomAgent {
	opts := resolveOptions(optFns)
	return &RandomAgent{
		BaseAgent:         NewBaseAgent(name, opts),
		voteProbability:   vote,
		betrayProbability: betray,
	}
}

// ProposeMission implements core.Player.
func (a *RandomAgent) ProposeMission(teamSize, _ int) core.Team {
	return NewTeamBuilder(a.rng, a.players).Build(teamSize)
}

// Vote implements core.Player.
func (a *RandomAgent) Vote(core.Team, core.PlayerID) bool {
	return a.rng.Float64() < a.voteProbability
}

// Betray implements core.Player.
func (a *RandomAgent) Betray(core.Team, core.PlayerID) bool {
	if !a.betrayCheck() {
		return false
	}
	return a.rng.Float64() < a.betrayProbability
}

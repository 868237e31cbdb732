package agent

import (
	"cmp"
	"slices"

	"github.com/hupe1980/resistance/core"
)

// SpyCatcherAgent plays for the resistance. It keeps a suspicion table,
// seeded with the prior spy probability and moved by mission outcomes, and
// keeps the most suspected players off the teams it proposes and approves.
// As a spy it plays like the baseline agent.
type SpyCatcherAgent struct {
	BaseAgent
	suspicion []float64
}

// NewSpyCatcherAgent creates a SpyCatcherAgent.
func NewSpyCatcherAgent(name string, optFns ...func(o *Options)) *SpyCatcherAgent {
	return &SpyCatcherAgent{BaseAgent: NewBaseAgent(name, resolveOptions(optFns))}
}

// NewGame implements core.Player.
func (a *SpyCatcherAgent) NewGame(players int, self core.PlayerID, spies []core.PlayerID) {
	a.BaseAgent.NewGame(players, self, spies)
	a.suspicion = make([]float64, players)
	for i := range a.suspicion {
		if core.PlayerID(i) != self {
			a.suspicion[i] = a.Prior()
		}
	}
}

// Suspicion returns the current spy probability estimate for p.
func (a *SpyCatcherAgent) Suspicion(p core.PlayerID) float64 {
	if int(p) < 0 || int(p) >= len(a.suspicion) {
		return 0
	}
	return a.suspicion[p]
}

// Suspects returns the SpyCount most suspected other players, most
// suspected first.
func (a *SpyCatcherAgent) Suspects() []core.PlayerID {
	r := a.ranking()
	slices.SortStableFunc(r, func(x, y core.PlayerID) int {
		return cmp.Compare(a.suspicion[y], a.suspicion[x])
	})
	return r[:min(a.SpyCount(), len(r))]
}

// ranking orders the other players from least to most suspected.
func (a *SpyCatcherAgent) ranking() []core.PlayerID {
	out := make([]core.PlayerID, 0, a.players-1)
	for i := range a.players {
		if core.PlayerID(i) != a.self {
			out = append(out, core.PlayerID(i))
		}
	}
	slices.SortStableFunc(out, func(x, y core.PlayerID) int {
		return cmp.Compare(a.suspicion[x], a.suspicion[y])
	})
	return out
}

// ProposeMission implements core.Player.
func (a *SpyCatcherAgent) ProposeMission(teamSize, _ int) core.Team {
	tb := NewTeamBuilder(a.rng, a.players)
	if a.IsSpy() {
		return tb.Build(teamSize)
	}
	return tb.Build(teamSize, []core.PlayerID{a.self}, a.ranking())
}

// Vote implements core.Player. A resistance member approves the final
// proposal of a round and any team free of the prime suspects.
func (a *SpyCatcherAgent) Vote(team core.Team, _ core.PlayerID) bool {
	if a.IsSpy() {
		return a.rng.Float64() < 0.5
	}
	if a.FinalAttempt() {
		return true
	}
	for _, p := range a.Suspects() {
		if team.Contains(p) {
			return false
		}
	}
	return true
}

// Betray implements core.Player.
func (a *SpyCatcherAgent) Betray(core.Team, core.PlayerID) bool {
	if !a.betrayCheck() {
		return false
	}
	return a.rng.Float64() < 0.3
}

// MissionOutcome implements core.Player. Betrayals are spread over the other
// team members; when they account for every other member those members are
// certain spies. Clean missions halve the suspicion of their members.
func (a *SpyCatcherAgent) MissionOutcome(team core.Team, _ core.PlayerID, betrayals int, _ bool) {
	others := slices.DeleteFunc(team.Clone(), func(p core.PlayerID) bool { return p == a.self })
	if len(others) == 0 || a.IsSpy() {
		return
	}
	for _, p := range others {
		switch {
		case betrayals == 0:
			a.suspicion[p] /= 2
		case betrayals >= len(others):
			a.suspicion[p] = 1
		default:
			a.suspicion[p] = clamp01(a.suspicion[p] + float64(betrayals)/float64(len(others)))
		}
	}
}

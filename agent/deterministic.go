package agent

import (
	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/rules"
)

// Likelihoods used by DeterministicAgent's posterior update.
const (
	pSuccessGivenSpy        = 0.3
	pSuccessGivenResistance = 1.0
	pFailGivenSpy           = 0.7
	pFailGivenResistance    = 0.3
)

// DeterministicAgent keeps a per-player spy probability updated by Bayes'
// rule after every mission and acts on the fixed thresholds in Genetics.
// Randomness only enters through team shuffling and the all-spy betrayal
// gamble.
type DeterministicAgent struct {
	BaseAgent
	collusion bool
	genetics  Genetics

	p       []float64
	burnt   map[core.PlayerID]struct{}
	known   map[core.PlayerID]struct{}
	targets map[core.PlayerID]struct{}
}

// NewDeterministicAgent creates a threshold-driven agent.
func NewDeterministicAgent(name string, optFns ...func(o *Options)) *DeterministicAgent {
	opts := resolveOptions(optFns)
	return &DeterministicAgent{
		BaseAgent: NewBaseAgent(name, opts),
		collusion: opts.Collusion,
		genetics:  opts.Genetics,
	}
}

// SetCollusion toggles collusion mode.
func (a *DeterministicAgent) SetCollusion(on bool) { a.collusion = on }

// SpyProbability returns the agent's current belief that p is a spy.
func (a *DeterministicAgent) SpyProbability(p core.PlayerID) float64 { return a.p[p] }

// NewGame implements core.Player.
func (a *DeterministicAgent) NewGame(players int, self core.PlayerID, spies []core.PlayerID) {
	a.BaseAgent.NewGame(players, self, spies)
	a.burnt = map[core.PlayerID]struct{}{}
	a.known = map[core.PlayerID]struct{}{}
	a.targets = map[core.PlayerID]struct{}{}

	prior := a.Prior()
	a.p = make([]float64, players)
	for i := range a.p {
		a.p[i] = prior
	}
}

func (a *DeterministicAgent) confirm(p core.PlayerID, burnt bool) {
	a.known[p] = struct{}{}
	a.p[p] = 1
	if burnt {
		a.burnt[p] = struct{}{}
	}
}

// ProposeMission implements core.Player.
func (a *DeterministicAgent) ProposeMission(teamSize, betrayalsRequired int) core.Team {
	tb := NewTeamBuilder(a.rng, a.players)
	clean := tb.Filter(func(p core.PlayerID) bool { return !has(a.known, p) })

	var required []core.PlayerID
	if a.IsSpy() && has(a.known, a.self) {
		// A burnt spy poisons the vote by proposing itself.
		required = append(required, a.self)
	} else if (a.players-1)-teamSize < a.SpyCount() {
		required = append(required, a.self)
	}

	if a.round == 0 || !a.IsSpy() {
		trusted := tb.Filter(func(p core.PlayerID) bool {
			return !has(a.known, p) && (p == a.self || a.p[p] < a.genetics.Distrust)
		})
		return tb.Build(teamSize, required, tb.Shuffled(trusted), tb.Shuffled(clean))
	}

	var viable []core.PlayerID
	for _, p := range tb.Shuffled(a.Spies()) {
		if !has(a.known, p) {
			viable = append(viable, p)
		}
	}
	need := max(betrayalsRequired-len(a.SpiesOn(core.Team(required))), 0)
	required = append(required, viable[:min(need, len(viable))]...)

	return tb.Build(teamSize, required, tb.Shuffled(clean))
}

// Vote implements core.Player.
func (a *DeterministicAgent) Vote(team core.Team, proposer core.PlayerID) bool {
	if a.round == 0 {
		return true
	}

	if a.IsSpy() {
		if has(a.burnt, a.self) {
			return false
		}
		if anyIn(team, a.burnt) {
			return false
		}
		if (len(a.targets) > 0 && allIn(a.targets, team)) || has(a.targets, proposer) {
			return false
		}
		if len(a.SpiesOn(team)) == 0 {
			return (rules.Rounds-1)-a.round >= rules.FailsToLose-a.missionsFailed
		}
		return true
	}

	if has(a.known, proposer) || anyIn(team, a.known) {
		return false
	}
	for _, p := range team {
		if p != a.self && a.p[p] >= a.genetics.Vote {
			return false
		}
	}
	return true
}

// VoteOutcome implements core.Player.
func (a *DeterministicAgent) VoteOutcome(team core.Team, proposer core.PlayerID, votes core.Votes) {
	a.BaseAgent.VoteOutcome(team, proposer, votes)
	if anyIn(team, a.burnt) {
		a.confirm(proposer, true)
	}
}

// Betray implements core.Player.
func (a *DeterministicAgent) Betray(team core.Team, _ core.PlayerID) bool {
	if !a.betrayCheck() {
		return false
	}

	onMission := a.SpiesOn(team)
	required := a.BetrayalsRequired()
	if len(onMission) < required {
		return false
	}

	pressure := float64(a.round) / float64(rules.Rounds-1)
	if pressure == 1 || a.missionsFailed == rules.FailsToLose-1 {
		return true
	}

	if a.collusion && len(onMission) > 1 && required == 1 {
		return a.self == maxID(onMission)
	}

	if has(a.burnt, a.self) {
		return true
	}
	if len(onMission) == 1 && pressure >= 0.5 {
		return true
	}

	if len(onMission) > 1 {
		if pressure <= 0.5 && a.missionsFailed == 1 {
			return false
		}
		if len(onMission) == len(team) && a.round <= 1 {
			return a.rng.Float64() > a.genetics.Betray
		}
	}

	return true
}

// MissionOutcome implements core.Player.
func (a *DeterministicAgent) MissionOutcome(team core.Team, _ core.PlayerID, betrayals int, succeeded bool) {
	if betrayals == len(team) {
		for _, p := range team {
			a.confirm(p, true)
		}
		return
	}

	for _, p := range team {
		if has(a.known, p) || p == a.self {
			continue
		}
		a.p[p] = posterior(a.p[p], succeeded)
	}

	if a.IsSpy() {
		if !succeeded {
			for _, q := range team {
				if !a.KnownSpy(q) {
					a.targets[q] = struct{}{}
				}
			}
		}
		return
	}

	if team.Contains(a.self) && betrayals == len(team)-1 {
		for _, p := range team {
			if p != a.self {
				a.confirm(p, false)
			}
		}
	}
}

// posterior applies Bayes' rule to prior p given a mission outcome. The
// result is clamped to [0,1] so rounding never leaks out of range.
func posterior(p float64, succeeded bool) float64 {
	var num, den float64
	if succeeded {
		num = pSuccessGivenSpy * p
		den = num + pSuccessGivenResistance*(1-p)
	} else {
		num = pFailGivenSpy * p
		den = num + pFailGivenResistance*(1-p)
	}
	if den <= 0 {
		return clamp01(p)
	}
	return clamp01(num / den)
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

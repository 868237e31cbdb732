package agent

import (
	"math"
	"slices"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/rules"
)

// ConfirmedDistrust marks a player known to be a spy. It sits above every
// reachable aggregated score so confirmed players always rank last.
const ConfirmedDistrust = 2.0

// Assessment is one agent's private opinion of another player.
type Assessment struct {
	MissionDistrust  float64
	VoteDistrust     float64
	ProposalDistrust float64

	// Distrust is the aggregate, refreshed at the end of every round, or
	// ConfirmedDistrust once the player is known to be a spy.
	Distrust float64

	// Burnt players exposed themselves publicly, so every agent knows.
	Burnt bool
}

// Confirmed reports whether the player is known to be a spy.
func (a Assessment) Confirmed() bool { return a.Distrust >= ConfirmedDistrust }

func (a *Assessment) confirm(burnt bool) {
	a.Distrust = ConfirmedDistrust
	a.Burnt = a.Burnt || burnt
}

// BayesianAgent keeps an opponent model of distrust scores built from
// mission outcomes, votes and proposals, weighted by Penalties. As a spy it
// frames resistance members and times its betrayals by round pressure.
type BayesianAgent struct {
	BaseAgent
	collusion bool
	genetics  Genetics
	penalties Penalties

	assessments []Assessment
	targets     map[core.PlayerID]struct{}

	winner     bool
	identified int
}

// NewBayesianAgent creates a Bayesian opponent model agent.
func NewBayesianAgent(name string, optFns ...func(o *Options)) *BayesianAgent {
	opts := resolveOptions(optFns)
	return &BayesianAgent{
		BaseAgent: NewBaseAgent(name, opts),
		collusion: opts.Collusion,
		genetics:  opts.Genetics,
		penalties: opts.Penalties,
		targets:   map[core.PlayerID]struct{}{},
	}
}

// SetCollusion toggles collusion mode: the highest seated spy on a mission
// betrays alone when one betrayal suffices.
func (a *BayesianAgent) SetCollusion(on bool) { a.collusion = on }

// Genetics returns the agent's thresholds.
func (a *BayesianAgent) Genetics() Genetics { return a.genetics }

// Penalties returns the agent's penalty weights.
func (a *BayesianAgent) Penalties() Penalties { return a.penalties }

// Assessment returns the agent's current view of player p.
func (a *BayesianAgent) Assessment(p core.PlayerID) Assessment { return a.assessments[p] }

// Winner reports whether the agent's side won the last game.
func (a *BayesianAgent) Winner() bool { return a.winner }

// IdentifiedSpies returns how many of the most distrusted players in the
// last game were real spies.
func (a *BayesianAgent) IdentifiedSpies() int { return a.identified }

// NewGame implements core.Player.
func (a *BayesianAgent) NewGame(players int, self core.PlayerID, spies []core.PlayerID) {
	a.BaseAgent.NewGame(players, self, spies)
	a.winner = false
	a.identified = 0
	a.targets = map[core.PlayerID]struct{}{}

	prior := a.Prior()
	a.assessments = make([]Assessment, players)
	for i := range a.assessments {
		a.assessments[i] = Assessment{MissionDistrust: prior, Distrust: prior}
	}
}

// ranking returns all other players from least to most distrusted.
func (a *BayesianAgent) ranking() []core.PlayerID {
	out := make([]core.PlayerID, 0, a.players-1)
	for i := range a.players {
		if core.PlayerID(i) != a.self {
			out = append(out, core.PlayerID(i))
		}
	}
	slices.SortStableFunc(out, func(x, y core.PlayerID) int {
		dx, dy := a.assessments[x].Distrust, a.assessments[y].Distrust
		switch {
		case dx < dy:
			return -1
		case dx > dy:
			return 1
		}
		return 0
	})
	return out
}

// suspects returns the k most distrusted players whose distrust exceeds the
// genetic threshold, most distrusted first.
func (a *BayesianAgent) suspects(k int) []core.PlayerID {
	r := a.ranking()
	var out []core.PlayerID
	for i := len(r) - 1; i >= 0 && len(out) < k; i-- {
		if a.assessments[r[i]].Distrust > a.genetics.Distrust {
			out = append(out, r[i])
		}
	}
	return out
}

func (a *BayesianAgent) isBurnt(p core.PlayerID) bool { return a.assessments[p].Burnt }

func (a *BayesianAgent) confirmed(p core.PlayerID) bool { return a.assessments[p].Confirmed() }

// ProposeMission implements core.Player.
func (a *BayesianAgent) ProposeMission(teamSize, betrayalsRequired int) core.Team {
	tb := NewTeamBuilder(a.rng, a.players)

	if !a.IsSpy() {
		excluded := a.ranking()
		excluded = excluded[max(len(excluded)-a.SpyCount(), 0):]

		var required []core.PlayerID
		// Two-player missions are choke points used to test others.
		if teamSize > 2 {
			required = append(required, a.self)
		}
		trusted := tb.Filter(func(p core.PlayerID) bool {
			return !a.confirmed(p) && !slices.Contains(excluded, p) && (teamSize > 2 || p != a.self)
		})
		notConfirmed := tb.Filter(func(p core.PlayerID) bool { return !a.confirmed(p) })
		return tb.Build(teamSize, required, tb.Shuffled(trusted), tb.Shuffled(notConfirmed))
	}

	required := []core.PlayerID{a.self}
	viable := slices.DeleteFunc(a.Spies(), func(p core.PlayerID) bool { return a.confirmed(p) || p == a.self })
	suspects := a.suspects(a.SpyCount())
	best := slices.DeleteFunc(slices.Clone(viable), func(p core.PlayerID) bool { return slices.Contains(suspects, p) })

	candidates := append(tb.Shuffled(best), tb.Shuffled(viable)...)
	need := max(betrayalsRequired-1, 0)
	for _, p := range candidates {
		if need == 0 {
			break
		}
		if !slices.Contains(required, p) {
			required = append(required, p)
			need--
		}
	}

	// Pad with the least suspicious players, resistance first.
	var cover []core.PlayerID
	for _, p := range a.ranking() {
		if !a.confirmed(p) && !a.KnownSpy(p) {
			cover = append(cover, p)
		}
	}
	return tb.Build(teamSize, required, cover)
}

// Vote implements core.Player.
func (a *BayesianAgent) Vote(team core.Team, proposer core.PlayerID) bool {
	if a.round == 0 {
		return true
	}

	if a.IsSpy() {
		if a.isBurnt(a.self) {
			return false
		}
		return a.spyVote(team, proposer)
	}
	return a.resistanceVote(team, proposer)
}

func (a *BayesianAgent) spyVote(team core.Team, proposer core.PlayerID) bool {
	if team.Count(a.isBurnt) > 0 {
		return false
	}
	if (len(a.targets) > 0 && allIn(a.targets, team)) || has(a.targets, proposer) {
		return false
	}
	if len(a.SpiesOn(team)) == 0 {
		// Allow a clean mission only while the spies can still win without it.
		return (rules.Rounds-1)-a.round >= rules.FailsToLose-a.missionsFailed
	}
	return true
}

func (a *BayesianAgent) resistanceVote(team core.Team, proposer core.PlayerID) bool {
	if a.FinalAttempt() {
		return true
	}
	if a.confirmed(proposer) {
		return false
	}
	if team.Count(a.confirmed) > 0 {
		return false
	}
	if a.round != 1 {
		for _, s := range a.suspects(2) {
			if team.Contains(s) {
				a.assessments[proposer].ProposalDistrust += a.penalties.ProposeSuspect
				return false
			}
		}
	}
	return true
}

// VoteOutcome implements core.Player.
func (a *BayesianAgent) VoteOutcome(team core.Team, proposer core.PlayerID, votes core.Votes) {
	final := a.FinalAttempt()
	approved := votes.Approvals()*2 > a.players
	a.BaseAgent.VoteOutcome(team, proposer, votes)

	if !final && team.Count(a.isBurnt) > 0 {
		a.assessments[proposer].confirm(true)
	}

	if final && !approved {
		for p, yes := range votes {
			if yes {
				a.assessments[p].VoteDistrust -= a.penalties.VoteFail
			} else {
				a.assessments[p].VoteDistrust += a.penalties.VoteFail * float64(a.round)
			}
		}
	}

	if team.Count(a.confirmed) > 0 {
		for p, yes := range votes {
			if yes && p != a.self {
				a.assessments[p].VoteDistrust += a.penalties.VoteSpy
			}
		}
	}

	r := a.ranking()
	if len(r) > 0 {
		prime := r[len(r)-1]
		if team.Contains(prime) && proposer != prime {
			a.assessments[proposer].ProposalDistrust += a.penalties.ProposeSuspect
		}
	}
}

// Betray implements core.Player.
func (a *BayesianAgent) Betray(team core.Team, _ core.PlayerID) bool {
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

	if a.isBurnt(a.self) {
		return true
	}

	if len(onMission) == 1 && pressure > 0.5 {
		return true
	}

	if len(onMission) > 1 {
		if pressure <= 0.5 && a.missionsFailed == 1 {
			return false
		}
		if len(onMission) == len(team) && a.round <= 1 {
			return a.rng.Float64() > math.Pow(0.85, float64(a.round))
		}
	}

	return true
}

// MissionOutcome implements core.Player.
func (a *BayesianAgent) MissionOutcome(team core.Team, proposer core.PlayerID, betrayals int, succeeded bool) {
	if betrayals == len(team) {
		for _, p := range team {
			a.assessments[p].confirm(true)
		}
		return
	}

	for _, p := range team {
		as := &a.assessments[p]
		if as.Burnt {
			continue
		}
		if succeeded {
			as.MissionDistrust -= (1 - as.Distrust) * a.penalties.FailedMission
		} else {
			pBetrayal := float64(betrayals) / float64(len(team)) * as.Distrust
			as.MissionDistrust += pBetrayal * a.penalties.FailedMission
		}
	}
	if !succeeded {
		a.assessments[proposer].ProposalDistrust += a.penalties.ProposedFailedMission
	}

	if a.IsSpy() {
		if !succeeded {
			for _, p := range team {
				if !a.KnownSpy(p) {
					a.targets[p] = struct{}{}
				}
			}
		}
		return
	}

	if team.Contains(a.self) && betrayals == len(team)-1 {
		for _, p := range team {
			if p != a.self {
				a.assessments[p].confirm(false)
			}
		}
	}
}

// RoundOutcome implements core.Player.
func (a *BayesianAgent) RoundOutcome(roundsCompleted, missionsFailed int) {
	a.BaseAgent.RoundOutcome(roundsCompleted, missionsFailed)

	for i := range a.assessments {
		as := &a.assessments[i]
		if as.Confirmed() {
			continue
		}
		as.Distrust = as.MissionDistrust + as.VoteDistrust + as.ProposalDistrust
	}
}

// GameOutcome implements core.Player.
func (a *BayesianAgent) GameOutcome(spiesWin bool, spies []core.PlayerID) {
	a.winner = a.IsSpy() == spiesWin

	r := a.ranking()
	k := len(spies)
	if a.IsSpy() {
		k--
	}
	identified := 0
	for i := len(r) - 1; i >= 0 && i >= len(r)-k; i-- {
		if slices.Contains(spies, r[i]) {
			identified++
		}
	}
	a.identified = identified
}

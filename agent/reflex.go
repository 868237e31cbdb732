package agent

import (
	"slices"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/rules"
)

// ReflexAgent only remembers major events: spies that burnt themselves by
// betraying a mission to the last member, spies revealed to it personally,
// and, as a spy, resistance members worth framing. It plays on simple rules
// rather than a model of other players.
type ReflexAgent struct {
	BaseAgent
	collusion bool

	burnt     map[core.PlayerID]struct{}
	confirmed map[core.PlayerID]struct{}
	suspected map[core.PlayerID]struct{}
	targets   map[core.PlayerID]struct{}
}

// NewReflexAgent creates a reflex agent.
func NewReflexAgent(name string, optFns ...func(o *Options)) *ReflexAgent {
	opts := resolveOptions(optFns)
	a := &ReflexAgent{BaseAgent: NewBaseAgent(name, opts), collusion: opts.Collusion}
	a.reset()
	return a
}

func (a *ReflexAgent) reset() {
	a.burnt = map[core.PlayerID]struct{}{}
	a.confirmed = map[core.PlayerID]struct{}{}
	a.suspected = map[core.PlayerID]struct{}{}
	a.targets = map[core.PlayerID]struct{}{}
}

// SetCollusion toggles collusion mode. Reflex spies always coordinate on the
// lead spy; collusion additionally ignores suspicion when picking it.
func (a *ReflexAgent) SetCollusion(on bool) { a.collusion = on }

// Confirmed returns the players this agent knows to be spies.
func (a *ReflexAgent) Confirmed() []core.PlayerID { return sortedKeys(a.confirmed) }

// NewGame implements core.Player.
func (a *ReflexAgent) NewGame(players int, self core.PlayerID, spies []core.PlayerID) {
	a.BaseAgent.NewGame(players, self, spies)
	a.reset()
}

// ProposeMission implements core.Player.
func (a *ReflexAgent) ProposeMission(teamSize, betrayalsRequired int) core.Team {
	tb := NewTeamBuilder(a.rng, a.players)
	clean := tb.Shuffled(tb.Filter(func(p core.PlayerID) bool { return !has(a.confirmed, p) }))

	var required []core.PlayerID
	// Without ourselves the team would be forced to contain a spy.
	if (a.players-1)-teamSize < a.SpyCount() {
		required = append(required, a.self)
	}

	if a.round == 0 || !a.IsSpy() {
		return tb.Build(teamSize, required, clean)
	}

	if has(a.confirmed, a.self) {
		required = append(required, a.self)
	}
	viable := tb.Shuffled(slices.DeleteFunc(a.Spies(), func(p core.PlayerID) bool { return has(a.confirmed, p) }))
	need := max(betrayalsRequired-len(a.SpiesOn(core.Team(required))), 0)
	required = append(required, viable[:min(need, len(viable))]...)

	return tb.Build(teamSize, required, clean)
}

// Vote implements core.Player.
func (a *ReflexAgent) Vote(team core.Team, proposer core.PlayerID) bool {
	if a.round == 0 {
		return true
	}

	if a.IsSpy() {
		if has(a.confirmed, a.self) {
			return false
		}
		return a.spyVote(team)
	}

	if has(a.confirmed, proposer) {
		return false
	}
	return !anyIn(team, a.confirmed)
}

func (a *ReflexAgent) spyVote(team core.Team) bool {
	// Never back a burnt asset.
	if anyIn(team, a.confirmed) {
		return false
	}
	// Keep the framing target off successful missions.
	if len(a.targets) > 0 && allIn(a.targets, team) {
		return false
	}
	if len(a.SpiesOn(team)) < len(team) {
		return (a.round+1)-a.missionsFailed > 0
	}
	return true
}

// VoteOutcome implements core.Player.
func (a *ReflexAgent) VoteOutcome(team core.Team, proposer core.PlayerID, votes core.Votes) {
	a.BaseAgent.VoteOutcome(team, proposer, votes)

	// Only a spy proposes a team with a burnt agent.
	if anyIn(team, a.burnt) {
		a.confirmed[proposer] = struct{}{}
	}
}

// Betray implements core.Player.
func (a *ReflexAgent) Betray(team core.Team, _ core.PlayerID) bool {
	if !a.betrayCheck() {
		return false
	}

	onMission := a.SpiesOn(team)
	required := a.BetrayalsRequired()
	if len(onMission) < required {
		return false
	}

	if len(onMission) == len(team) {
		switch {
		case a.round == 0:
			return false
		case a.round == 2 && a.missionsFailed == 0:
			return a.rng.Float64() < 1/float64(len(team))+0.1
		default:
			return a.rng.Float64() < 1/float64(len(team))-0.1
		}
	}

	if a.round == rules.Rounds-1 {
		return true
	}

	if len(onMission) > 1 && required == 1 {
		var suspects []core.PlayerID
		if !a.collusion {
			for _, p := range team {
				if has(a.suspected, p) {
					suspects = append(suspects, p)
				}
			}
		}
		if len(suspects) > 0 {
			return has(a.suspected, a.self) && a.self == maxID(suspects)
		}
		return a.self == maxID(onMission)
	}

	return true
}

// MissionOutcome implements core.Player.
func (a *ReflexAgent) MissionOutcome(team core.Team, _ core.PlayerID, betrayals int, succeeded bool) {
	if betrayals == len(team) {
		for _, p := range team {
			a.burnt[p] = struct{}{}
			a.confirmed[p] = struct{}{}
		}
		a.logger.Debug("spies burnt", "agent", a.name, "round", a.round, "team", team.String())
		return
	}

	if a.IsSpy() {
		if !succeeded {
			for _, p := range team {
				if !a.KnownSpy(p) {
					a.targets[p] = struct{}{}
				}
			}
		}
		if betrayals == len(team)-1 {
			for _, p := range a.SpiesOn(team) {
				a.suspected[p] = struct{}{}
			}
		}
		return
	}

	if team.Contains(a.self) && betrayals == len(team)-1 {
		for _, p := range team {
			if p != a.self {
				a.confirmed[p] = struct{}{}
			}
		}
	}
}

func has(set map[core.PlayerID]struct{}, p core.PlayerID) bool {
	_, ok := set[p]
	return ok
}

func anyIn(team core.Team, set map[core.PlayerID]struct{}) bool {
	for _, p := range team {
		if has(set, p) {
			return true
		}
	}
	return false
}

func allIn(set map[core.PlayerID]struct{}, team core.Team) bool {
	for p := range set {
		if !team.Contains(p) {
			return false
		}
	}
	return true
}

func sortedKeys(set map[core.PlayerID]struct{}) []core.PlayerID {
	out := make([]core.PlayerID, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

package agent

import (
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/resistance/core"
)

// TeamBuilder assembles proposals by drawing from candidate groups without
// replacement. Groups are consumed in order and each group in its given
// order; when every group is exhausted the remaining seats are filled from
// the whole roster, so Build always returns a valid team.
type TeamBuilder struct {
	rng     *rand.Rand
	players int
}

// NewTeamBuilder creates a builder for a roster of the given size.
func NewTeamBuilder(rng *rand.Rand, players int) TeamBuilder {
	return TeamBuilder{rng: rng, players: players}
}

// Build returns size distinct players drawn from groups, padded from the
// roster when the groups run dry, in shuffled order.
func (tb TeamBuilder) Build(size int, groups ...[]core.PlayerID) core.Team {
	size = min(max(size, 0), tb.players)
	team := make(core.Team, 0, size)
	seen := make(map[core.PlayerID]struct{}, size)

	take := func(ids []core.PlayerID) {
		for _, id := range ids {
			if len(team) == size {
				return
			}
			if id < 0 || int(id) >= tb.players {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			team = append(team, id)
		}
	}

	for _, g := range groups {
		take(g)
	}
	take(tb.Shuffled(tb.All()))

	tb.rng.Shuffle(len(team), func(i, j int) { team[i], team[j] = team[j], team[i] })
	return team
}

// All returns every seat in ascending order.
func (tb TeamBuilder) All() []core.PlayerID {
	out := make([]core.PlayerID, tb.players)
	for i := range out {
		out[i] = core.PlayerID(i)
	}
	return out
}

// Shuffled returns a shuffled copy of ids.
func (tb TeamBuilder) Shuffled(ids []core.PlayerID) []core.PlayerID {
	out := slices.Clone(ids)
	tb.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Filter returns the seats for which keep is true, in ascending order.
func (tb TeamBuilder) Filter(keep func(core.PlayerID) bool) []core.PlayerID {
	var out []core.PlayerID
	for _, id := range tb.All() {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}

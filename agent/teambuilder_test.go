package agent

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resistance/core"
)

func seeded(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed+1)) }

func assertValidTeam(t *testing.T, team core.Team, size, players int) {
	t.Helper()
	require.Len(t, team, size)
	seen := map[core.PlayerID]bool{}
	for _, p := range team {
		assert.GreaterOrEqual(t, int(p), 0)
		assert.Less(t, int(p), players)
		assert.False(t, seen[p], "duplicate seat %d in %s", p, team)
		seen[p] = true
	}
}

func TestTeamBuilder_Build(t *testing.T) {
	tb := NewTeamBuilder(seeded(1), 5)

	t.Run("groups first", func(t *testing.T) {
		team := tb.Build(3, []core.PlayerID{1, 1, 7, -1}, []core.PlayerID{2})
		assertValidTeam(t, team, 3, 5)
		assert.Contains(t, team, core.PlayerID(1))
		assert.Contains(t, team, core.PlayerID(2))
	})

	t.Run("pads from roster", func(t *testing.T) {
		for range 50 {
			assertValidTeam(t, tb.Build(4), 4, 5)
		}
	})

	t.Run("clamps size", func(t *testing.T) {
		assertValidTeam(t, tb.Build(9), 5, 5)
		assert.Empty(t, tb.Build(-1))
	})

	t.Run("group order wins", func(t *testing.T) {
		team := tb.Build(2, []core.PlayerID{4, 3}, []core.PlayerID{0, 1})
		assert.ElementsMatch(t, core.Team{3, 4}, team)
	})
}

func TestTeamBuilder_Helpers(t *testing.T) {
	tb := NewTeamBuilder(seeded(2), 6)

	assert.Equal(t, []core.PlayerID{0, 1, 2, 3, 4, 5}, tb.All())
	assert.ElementsMatch(t, tb.All(), tb.Shuffled(tb.All()))
	assert.Equal(t, []core.PlayerID{1, 3, 5}, tb.Filter(func(p core.PlayerID) bool { return p%2 == 1 }))
}

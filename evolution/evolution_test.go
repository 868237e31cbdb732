package evolution

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resistance/agent"
	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/engine"
	"github.com/hupe1980/resistance/rules"
)

func seeded(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }

func inUnit(t *testing.T, v float64) {
	t.Helper()
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 1.0)
}

func TestOriginator_Create(t *testing.T) {
	o := NewOriginator(func(o *OriginatorOptions) { o.Rand = seeded(1) })

	a, b := o.Create(), o.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Genetics, b.Genetics)
	assert.Zero(t, a.Generation)
	assert.Empty(t, a.Parent)

	for _, g := range []float64{a.Genetics.Distrust, a.Genetics.Vote, a.Genetics.Betray,
		a.Penalties.FailedMission, a.Penalties.ProposedFailedMission, a.Penalties.VoteFail,
		a.Penalties.VoteSpy, a.Penalties.ProposeSuspect} {
		inUnit(t, g)
	}
}

func TestOriginator_Evolve(t *testing.T) {
	o := NewOriginator(func(o *OriginatorOptions) { o.Rand = seeded(2) })
	parent := Specimen{
		ID:        "parent",
		Genetics:  agent.Genetics{Distrust: 0.02, Vote: 0.5, Betray: 0.99},
		Penalties: agent.DefaultPenalties(),
	}

	for range 200 {
		child := o.Evolve(parent)
		assert.Equal(t, "parent", child.Parent)
		assert.Equal(t, 1, child.Generation)
		assert.Equal(t, parent.Penalties, child.Penalties)

		for _, pair := range [][2]float64{
			{parent.Genetics.Distrust, child.Genetics.Distrust},
			{parent.Genetics.Vote, child.Genetics.Vote},
			{parent.Genetics.Betray, child.Genetics.Betray},
		} {
			inUnit(t, pair[1])
			assert.LessOrEqual(t, pair[1]-pair[0], DefaultMutation+1e-12)
			assert.GreaterOrEqual(t, pair[1]-pair[0], -DefaultMutation-1e-12)
		}
	}

	still := NewOriginator(func(o *OriginatorOptions) { o.Rand = seeded(3); o.Mutation = 0 })
	assert.Equal(t, parent.Genetics, still.Evolve(parent).Genetics)
}

func TestSpecimen_NewAgent(t *testing.T) {
	s := Specimen{Genetics: agent.Genetics{Distrust: 0.1, Vote: 0.2, Betray: 0.3}, Penalties: agent.DefaultPenalties()}
	a := s.NewAgent("x", agent.WithGenetics(agent.DefaultGenetics()))
	assert.Equal(t, s.Genetics, a.Genetics())
	assert.Equal(t, s.Penalties, a.Penalties())
}

func TestWorld_Genesis(t *testing.T) {
	w := NewWorld(func(o *Options) { o.Rand = seeded(4) })

	for _, n := range []int{4, 11} {
		err := w.Genesis(n)
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.ErrorIs(t, err, rules.ErrInvalidPlayerCount)
	}

	require.NoError(t, w.Genesis(7))
	assert.Len(t, w.Population(), 7)

	_, err := NewWorld().TrialOfChampions(1)
	assert.ErrorIs(t, err, ErrNoPopulation)
	_, err = NewWorld().Evolve(1, 1)
	assert.ErrorIs(t, err, ErrNoPopulation)
}

func TestWorld_TrialOfChampions(t *testing.T) {
	var games int
	cb := engine.NewFunctionCallback(engine.CallbackGameOutcome, func(*engine.CallbackContext) error {
		games++
		return nil
	})
	w := NewWorld(func(o *Options) {
		o.Rand = seeded(5)
		o.Callbacks = []engine.Callback{cb}
	})
	require.NoError(t, w.Genesis(5))

	standings, err := w.TrialOfChampions(40)
	require.NoError(t, err)
	require.Len(t, standings, 5)
	assert.Equal(t, 40, games)

	spyGames := 0
	for i, st := range standings {
		assert.Equal(t, 40, st.Games())
		assert.LessOrEqual(t, st.Wins(), st.Games())
		spyGames += st.SpyGames
		if i > 0 {
			assert.GreaterOrEqual(t, standings[i-1].Wins(), st.Wins())
		}
	}
	// Two spies per five-player game.
	assert.Equal(t, 80, spyGames)
}

func TestWorld_Evolve(t *testing.T) {
	w := NewWorld(func(o *Options) {
		o.Rand = seeded(6)
		o.Survivors = 2
		o.Collusion = true
	})
	require.NoError(t, w.Genesis(6))
	founders := w.Population()

	gens, err := w.Evolve(3, 10)
	require.NoError(t, err)
	require.Len(t, gens, 3)

	for i, g := range gens {
		assert.Equal(t, i, g.Index)
		assert.Len(t, g.Standings, 6)
		assert.Equal(t, g.Standings[0], g.Champion())
	}

	// Survivors of the first trial open the second generation.
	second := gens[1].Standings
	ids := map[string]bool{}
	for _, st := range second {
		ids[st.Specimen.ID] = true
	}
	for _, st := range gens[0].Standings[:2] {
		assert.True(t, ids[st.Specimen.ID])
	}

	pop := w.Population()
	require.Len(t, pop, 6)
	last := gens[2].Standings
	assert.Equal(t, last[0].Specimen.ID, pop[0].ID)
	assert.Equal(t, last[1].Specimen.ID, pop[1].ID)
	for _, child := range pop[2:] {
		assert.Contains(t, []string{pop[0].ID, pop[1].ID}, child.Parent)
	}
	assert.NotEqual(t, founders, pop)
}

func TestRank_TiesFollowPopulationOrder(t *testing.T) {
	standings := []Standing{
		{Index: 2, Specimen: Specimen{ID: "a"}, ResistanceWins: 1, ResistanceGames: 2},
		{Index: 0, Specimen: Specimen{ID: "c"}, ResistanceWins: 1, ResistanceGames: 2},
		{Index: 1, Specimen: Specimen{ID: "b"}, ResistanceWins: 2, ResistanceGames: 2},
	}
	rank(standings)

	var order []int
	for _, st := range standings {
		order = append(order, st.Index)
	}
	assert.Equal(t, []int{1, 0, 2}, order)
}

func TestWorld_EvolveReproducible(t *testing.T) {
	run := func() []Generation {
		w := NewWorld(func(o *Options) {
			o.Rand = seeded(9)
			o.Survivors = 2
		})
		require.NoError(t, w.Genesis(5))
		gens, err := w.Evolve(3, 8)
		require.NoError(t, err)
		return gens
	}

	first, second := run(), run()
	require.Len(t, second, len(first))
	for g := range first {
		for i := range first[g].Standings {
			a, b := first[g].Standings[i], second[g].Standings[i]
			assert.Equal(t, a.Index, b.Index, "generation %d rank %d", g, i)
			assert.Equal(t, a.Wins(), b.Wins(), "generation %d rank %d", g, i)
			assert.Equal(t, a.Specimen.Genetics, b.Specimen.Genetics, "generation %d rank %d", g, i)
		}
	}
}

package engine

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/internal/testutil"
)

// proposeFromSelf proposes the teamSize seats starting at the proposer.
func proposeFromSelf(self core.PlayerID, players, teamSize int) core.Team {
	t := make(core.Team, teamSize)
	for i := range t {
		t[i] = core.PlayerID((int(self) + i) % players)
	}
	return t
}

func rotatingPlayers(n int) []*testutil.ScriptedPlayer {
	out := make([]*testutil.ScriptedPlayer, n)
	for i := range out {
		out[i] = testutil.NewPlayerBuilder(string(rune('a' + i))).
			ProposeWith(proposeFromSelf).
			BetrayWhenSpy().
			Build()
	}
	return out
}

func newGame(t *testing.T, ps []*testutil.ScriptedPlayer, opts ...func(o *Options)) (*Game, *testutil.Recorder) {
	t.Helper()
	rec := &testutil.Recorder{}
	opts = append(opts, WithCallbacks(NewRecorderCallback(rec)), WithRand(rand.New(rand.NewPCG(1, 2))))
	g, err := NewGame(testutil.AsPlayers(ps), opts...)
	require.NoError(t, err)
	return g, rec
}

func TestGame_ScenarioA(t *testing.T) {
	ps := rotatingPlayers(5)
	g, rec := newGame(t, ps)
	require.NoError(t, g.AllocateSpies(0, 1))

	res, err := g.Play()
	require.NoError(t, err)

	// Leaders 0,1,2,3,4 propose [0 1], [1 2 3], [2 3], [3 4 0], [4 0 1].
	assert.Equal(t, 4, res.MissionsFailed)
	assert.Equal(t, 4, g.MissionsLost())
	assert.True(t, res.SpiesWin)
	assert.Equal(t, []core.PlayerID{0, 1}, res.Spies)
	require.Len(t, res.Rounds, 5)

	wantBetrayals := []int{2, 1, 0, 1, 2}
	for i, r := range res.Rounds {
		assert.Equal(t, core.PlayerID(i), r.Leader)
		assert.Equal(t, 1, r.Attempts)
		assert.True(t, r.Executed)
		assert.Equal(t, wantBetrayals[i], r.Betrayals, "round %d", i)
	}

	assert.Len(t, rec.Events(), 22)
	assert.Equal(t, core.EventNewGame, rec.Events()[0].Kind)
	assert.Equal(t, core.EventGameOutcome, rec.Events()[21].Kind)

	for i, p := range ps {
		spiesWin, spies, ok := p.Outcome()
		require.True(t, ok)
		assert.True(t, spiesWin)
		assert.Equal(t, []core.PlayerID{0, 1}, spies)
		assert.Equal(t, []int{1, 2, 2, 3, 4}, p.RoundOutcomes())
		assert.Equal(t, 5, p.CallCount("Vote"), "player %d", i)
	}
}

func TestGame_SpyVisibility(t *testing.T) {
	ps := rotatingPlayers(5)
	g, _ := newGame(t, ps)
	require.NoError(t, g.AllocateSpies(4, 2))

	_, err := g.Play()
	require.NoError(t, err)

	assert.Equal(t, []core.PlayerID{2, 4}, ps[2].SpyView())
	assert.Equal(t, []core.PlayerID{2, 4}, ps[4].SpyView())
	assert.Empty(t, ps[0].SpyView())
	assert.NotNil(t, ps[0].SpyView())
}

func TestGame_EarlyFinish(t *testing.T) {
	ps := rotatingPlayers(5)
	g, rec := newGame(t, ps, WithEarlyFinish())
	require.NoError(t, g.AllocateSpies(0, 1))

	res, err := g.Play()
	require.NoError(t, err)
	assert.Equal(t, 3, res.MissionsFailed)
	assert.True(t, res.SpiesWin)
	assert.Len(t, res.Rounds, 4)
	assert.Equal(t, core.EventGameOutcome, rec.Events()[len(rec.Events())-1].Kind)
}

func TestGame_Deterministic(t *testing.T) {
	run := func() ([]core.Event, int) {
		ps := rotatingPlayers(7)
		g, rec := newGame(t, ps)
		require.NoError(t, g.AllocateSpies(1, 3, 6))
		res, err := g.Play()
		require.NoError(t, err)
		return rec.Events(), res.MissionsFailed
	}

	a, failedA := run()
	b, failedB := run()

	assert.Equal(t, failedA, failedB)
	require.Len(t, b, len(a))
	for i := range a {
		assert.True(t, a[i].Equivalent(b[i]), "event %d differs: %+v vs %+v", i, a[i], b[i])
	}
}

func TestGame_AllRejected(t *testing.T) {
	ps := make([]*testutil.ScriptedPlayer, 7)
	for i := range ps {
		ps[i] = testutil.NewPlayerBuilder("p").
			ProposeWith(proposeFromSelf).
			VoteWith(func(self core.PlayerID, _ core.Team, proposer core.PlayerID) bool { return self == proposer }).
			Build()
	}
	g, rec := newGame(t, ps)
	require.NoError(t, g.AllocateSpies(0, 1, 2))

	res, err := g.Play()
	require.NoError(t, err)
	assert.Equal(t, 5, res.MissionsFailed)

	leaders := make([]core.PlayerID, 0, 5)
	for _, r := range res.Rounds {
		assert.Equal(t, 5, r.Attempts)
		assert.False(t, r.Executed)
		assert.Zero(t, r.Betrayals)
		leaders = append(leaders, r.Leader)
	}
	// Leader advances by five proposals per round, modulo seven.
	assert.Equal(t, []core.PlayerID{0, 5, 3, 1, 6}, leaders)

	for _, ev := range rec.Events() {
		assert.NotEqual(t, core.EventMissionOutcome, ev.Kind)
	}
	for _, p := range ps {
		assert.Zero(t, p.CallCount("Betray"))
	}
}

func TestGame_TieRejects(t *testing.T) {
	ps := make([]*testutil.ScriptedPlayer, 6)
	for i := range ps {
		b := testutil.NewPlayerBuilder("p").AlwaysApprove()
		if i >= 3 {
			b.AlwaysReject()
		}
		ps[i] = b.Build()
	}
	g, rec := newGame(t, ps)
	require.NoError(t, g.AllocateSpies(0, 1))

	res, err := g.Play()
	require.NoError(t, err)
	assert.Equal(t, 5, res.MissionsFailed)

	for _, ev := range rec.Events() {
		if ev.Kind == core.EventVoteOutcome {
			assert.Equal(t, 3, ev.Votes.Approvals())
			assert.False(t, ev.Approved)
		}
	}
}

func TestGame_ConfigErrors(t *testing.T) {
	t.Run("roster too small", func(t *testing.T) {
		_, err := NewGame(testutil.AsPlayers(testutil.Players(4)))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("roster too large", func(t *testing.T) {
		_, err := NewGame(testutil.AsPlayers(testutil.Players(11)))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("play before allocation", func(t *testing.T) {
		g, _ := newGame(t, testutil.Players(5))
		_, err := g.Play()
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.ErrorIs(t, err, ErrSpiesNotAllocated)
	})

	t.Run("allocate twice", func(t *testing.T) {
		g, _ := newGame(t, testutil.Players(5))
		require.NoError(t, g.AllocateSpiesRandomly())
		err := g.AllocateSpies(0, 1)
		assert.ErrorIs(t, err, ErrSpiesAlreadyAllocated)
	})

	t.Run("play twice", func(t *testing.T) {
		g, _ := newGame(t, testutil.Players(5))
		require.NoError(t, g.AllocateSpies(3, 4))
		_, err := g.Play()
		require.NoError(t, err)
		_, err = g.Play()
		assert.ErrorIs(t, err, ErrAlreadyPlayed)
	})

	t.Run("by type mismatch", func(t *testing.T) {
		g, _ := newGame(t, testutil.Players(5))
		err := g.AllocateSpiesByType(func(p core.Player) bool { return p.Name() == "p0" })
		assert.ErrorIs(t, err, ErrSpyCountMismatch)
		assert.Nil(t, g.Spies())
	})

	t.Run("duplicate explicit spies", func(t *testing.T) {
		g, _ := newGame(t, testutil.Players(5))
		assert.ErrorIs(t, g.AllocateSpies(1, 1), ErrSpyCountMismatch)
	})

	t.Run("unknown name", func(t *testing.T) {
		g, _ := newGame(t, testutil.Players(5))
		assert.ErrorIs(t, g.AllocateSingleSpy("nobody"), ErrUnknownPlayer)
	})
}

func TestGame_Allocation(t *testing.T) {
	t.Run("random is seeded", func(t *testing.T) {
		a, _ := newGame(t, testutil.Players(10))
		b, _ := newGame(t, testutil.Players(10))
		require.NoError(t, a.AllocateSpiesRandomly())
		require.NoError(t, b.AllocateSpiesRandomly())
		assert.Len(t, a.Spies(), 4)
		assert.Equal(t, a.Spies(), b.Spies())
	})

	t.Run("by type", func(t *testing.T) {
		g, _ := newGame(t, testutil.Players(5))
		err := g.AllocateSpiesByType(func(p core.Player) bool { return p.Name() == "p1" || p.Name() == "p3" })
		require.NoError(t, err)
		assert.Equal(t, []core.PlayerID{1, 3}, g.Spies())
	})

	t.Run("single spy", func(t *testing.T) {
		g, _ := newGame(t, testutil.Players(8))
		require.NoError(t, g.AllocateSingleSpy("p6"))
		assert.True(t, g.IsSpy(6))
		assert.Len(t, g.Spies(), 3)
	})

	t.Run("single resistance", func(t *testing.T) {
		for seed := range uint64(20) {
			g, err := NewGame(testutil.AsPlayers(testutil.Players(5)), WithRand(rand.New(rand.NewPCG(seed, seed))))
			require.NoError(t, err)
			require.NoError(t, g.AllocateSingleResistance("p2"))
			assert.False(t, g.IsSpy(2))
			assert.Len(t, g.Spies(), 2)
		}
	})
}

func TestGame_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name    string
		propose func(core.PlayerID, int, int) core.Team
		call    core.Call
	}{
		{"wrong size", func(core.PlayerID, int, int) core.Team { return core.Team{0} }, core.CallProposeMission},
		{"duplicate", func(core.PlayerID, int, int) core.Team { return core.Team{1, 1} }, core.CallProposeMission},
		{"out of range", func(core.PlayerID, int, int) core.Team { return core.Team{0, 5} }, core.CallProposeMission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := testutil.Players(5)
			ps[0] = testutil.NewPlayerBuilder("bad").ProposeWith(tt.propose).Build()
			g, _ := newGame(t, ps)
			require.NoError(t, g.AllocateSpies(3, 4))

			_, err := g.Play()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrProtocolViolation)

			var pe *core.ProtocolError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, core.PlayerID(0), pe.Player)
			assert.Equal(t, "bad", pe.Name)
			assert.Equal(t, tt.call, pe.Call)
		})
	}

	t.Run("resistance betrays", func(t *testing.T) {
		ps := testutil.Players(5)
		ps[1] = testutil.NewPlayerBuilder("traitor").AlwaysBetray().Build()
		g, _ := newGame(t, ps)
		require.NoError(t, g.AllocateSpies(3, 4))

		var aborted error
		g.opts.Callbacks.RegisterCallback(NewFunctionCallback(CallbackOnError, func(c *CallbackContext) error {
			aborted = c.Err
			return nil
		}))

		_, err := g.Play()
		var pe *core.ProtocolError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, core.CallBetray, pe.Call)
		assert.Equal(t, core.PlayerID(1), pe.Player)
		assert.ErrorIs(t, aborted, core.ErrProtocolViolation)
	})
}

func TestGame_CallbackErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	g, err := NewGame(testutil.AsPlayers(testutil.Players(5)),
		WithCallbacks(NewFunctionCallback(CallbackMissionOutcome, func(*CallbackContext) error { return boom })),
	)
	require.NoError(t, err)
	require.NoError(t, g.AllocateSpies(0, 1))

	_, err = g.Play()
	assert.ErrorIs(t, err, boom)
}

func TestGame_CallOrder(t *testing.T) {
	ps := testutil.Players(5)
	g, _ := newGame(t, ps)
	require.NoError(t, g.AllocateSpies(3, 4))

	_, err := g.Play()
	require.NoError(t, err)

	// Default proposals are [0 1] style teams led by seat 0.
	calls := ps[0].Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "NewGame", calls[0])
	assert.Equal(t, []string{"ProposeMission", "Vote", "VoteOutcome", "Betray", "MissionOutcome", "RoundOutcome"}, calls[1:7])
	assert.Equal(t, "GameOutcome", calls[len(calls)-1])
}

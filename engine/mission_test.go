package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/internal/testutil"
)

func spyRoster(n int, spies ...core.PlayerID) ([]core.Player, core.SpySet) {
	set := core.NewSpySet(spies)
	ps := make([]core.Player, n)
	for i := range ps {
		ps[i] = testutil.NewPlayerBuilder("p").BetrayWhenSpy().Build()
		// BetrayWhenSpy reads the spy view handed out by NewGame.
		var view []core.PlayerID
		if set.Has(core.PlayerID(i)) {
			view = spies
		}
		ps[i].NewGame(n, core.PlayerID(i), view)
	}
	return ps, set
}

func TestMission_Lifecycle(t *testing.T) {
	roster, spies := spyRoster(5, 0, 1)
	m := NewMission(2, 2, 1, roster, spies)
	assert.Equal(t, MissionPending, m.State())

	_, err := m.Resolve()
	assert.ErrorIs(t, err, ErrInvalidState)

	team, err := m.Propose()
	require.NoError(t, err)
	assert.Equal(t, core.Team{0, 1}, team)
	assert.Equal(t, MissionProposed, m.State())

	_, err = m.Propose()
	assert.ErrorIs(t, err, ErrInvalidState)

	approved, err := m.CollectVotes()
	require.NoError(t, err)
	assert.True(t, approved)
	assert.True(t, m.Approved())
	assert.Equal(t, 5, m.Votes().Approvals())

	ok, err := m.Resolve()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, MissionFailed, m.State())
	assert.Equal(t, 2, m.Betrayals())
	assert.Equal(t, "failed", m.State().String())
}

func TestMission_Rejected(t *testing.T) {
	ps := testutil.Players(5)
	for i := range 3 {
		ps[i] = testutil.NewPlayerBuilder("no").AlwaysReject().Build()
	}
	m := NewMission(0, 2, 1, testutil.AsPlayers(ps), core.NewSpySet([]core.PlayerID{3, 4}))

	_, err := m.Propose()
	require.NoError(t, err)
	approved, err := m.CollectVotes()
	require.NoError(t, err)
	assert.False(t, approved)
	assert.Equal(t, MissionRejected, m.State())

	_, err = m.Resolve()
	assert.ErrorIs(t, err, ErrInvalidState)
}

// Eight players, fourth round: two betrayals are needed to fail the mission.
func TestRound_ScenarioB(t *testing.T) {
	tests := []struct {
		name      string
		team      core.Team
		succeeded bool
		betrayals int
	}{
		{"two spies betray", core.Team{0, 1, 3, 4, 5}, false, 2},
		{"one spy betrays", core.Team{0, 3, 4, 5, 6}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roster, spies := spyRoster(8, 0, 1, 2)
			roster[0] = testutil.NewPlayerBuilder("leader").BetrayWhenSpy().ProposeFixed(tt.team...).Build()
			roster[0].NewGame(8, 0, []core.PlayerID{0, 1, 2})

			r, err := NewRound(3, 0, roster, spies)
			require.NoError(t, err)
			assert.Equal(t, 5, r.TeamSize())
			assert.Equal(t, 2, r.BetrayalsRequired())

			ok, err := r.Play()
			require.NoError(t, err)
			assert.Equal(t, tt.succeeded, ok)
			assert.Equal(t, tt.betrayals, r.Betrayals())
			require.NotNil(t, r.Executed())
			assert.Equal(t, tt.team, r.Executed().Team())
		})
	}
}

// Every proposal rejected: the round fails with no mission executed and the
// proposer cycles through five seats.
func TestRound_ScenarioC(t *testing.T) {
	ps := make([]core.Player, 6)
	for i := range ps {
		p := testutil.NewPlayerBuilder("p").
			VoteWith(func(self core.PlayerID, _ core.Team, proposer core.PlayerID) bool { return self == proposer }).
			Build()
		// Seats are only known after NewGame.
		p.NewGame(len(ps), core.PlayerID(i), nil)
		ps[i] = p
	}

	r, err := NewRound(0, 4, ps, core.NewSpySet([]core.PlayerID{0, 1}))
	require.NoError(t, err)

	ok, err := r.Play()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, r.Executed())
	assert.Zero(t, r.Betrayals())
	assert.Equal(t, 5, r.Attempts())

	var proposers []core.PlayerID
	for _, m := range r.Missions() {
		proposers = append(proposers, m.Proposer())
		assert.Equal(t, MissionRejected, m.State())
	}
	assert.Equal(t, []core.PlayerID{4, 5, 0, 1, 2}, proposers)

	_, err = r.Play()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNewRound_Errors(t *testing.T) {
	roster := testutil.AsPlayers(testutil.Players(5))
	_, err := NewRound(5, 0, roster, nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = NewRound(0, 7, roster, nil)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestCheckTeam(t *testing.T) {
	assert.Empty(t, checkTeam(core.Team{4, 0}, 2, 5))
	assert.Contains(t, checkTeam(core.Team{0}, 2, 5), "want 2")
	assert.Contains(t, checkTeam(core.Team{-1, 0}, 2, 5), "out of range")
	assert.Contains(t, checkTeam(core.Team{2, 2}, 2, 5), "duplicate")
}

package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeam(t *testing.T) {
	team := Team{3, 1, 4}
	assert.True(t, team.Contains(1))
	assert.False(t, team.Contains(2))
	assert.Equal(t, "[3 1 4]", team.String())
	assert.Equal(t, 2, team.Count(func(p PlayerID) bool { return p > 1 }))

	c := team.Clone()
	c[0] = 9
	assert.Equal(t, PlayerID(3), team[0])
	assert.Nil(t, Team(nil).Clone())
}

func TestVotes(t *testing.T) {
	v := Votes{0: true, 1: false, 2: true}
	assert.Equal(t, 2, v.Approvals())

	c := v.Clone()
	c[1] = true
	assert.False(t, v[1])
}

func TestSpySet(t *testing.T) {
	s := NewSpySet([]PlayerID{4, 0})
	assert.True(t, s.Has(0))
	assert.False(t, s.Has(1))
	assert.Equal(t, []PlayerID{0, 4}, s.Sorted())
}

func TestConfigError(t *testing.T) {
	sentinel := errors.New("spies not allocated")
	err := fmt.Errorf("play: %w", NewConfigError("Play", sentinel))

	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, sentinel)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Play", ce.Op)
	assert.Contains(t, err.Error(), "spies not allocated")
}

func TestProtocolError(t *testing.T) {
	var err error = &ProtocolError{Player: 2, Name: "p2", Call: CallProposeMission, Reason: "duplicate player 1"}
	assert.ErrorIs(t, err, ErrProtocolViolation)
	assert.Contains(t, err.Error(), "player 2 (p2) ProposeMission")
}

func TestEventEquivalent(t *testing.T) {
	a := Event{GameID: "a", Seq: 1, Kind: EventVoteOutcome, Team: Team{1, 2}, Votes: Votes{0: true, 1: false}}
	b := a
	b.GameID = "b"
	b.Votes = a.Votes.Clone()
	assert.True(t, a.Equivalent(b))

	b.Votes[1] = true
	assert.False(t, a.Equivalent(b))
}

func TestCallLimiter(t *testing.T) {
	l := NewCallLimiter(2)
	require.NoError(t, l.Increment())
	require.NoError(t, l.Increment())
	assert.Equal(t, 0, l.Remaining())
	assert.ErrorIs(t, l.Increment(), ErrCallBudgetExhausted)
	assert.Equal(t, 2, l.Count())
	assert.Equal(t, 1, l.Refused())

	l.Reset()
	assert.Equal(t, 2, l.Remaining())
	assert.Zero(t, l.Refused())
	assert.Equal(t, -1, NewCallLimiter(0).Remaining())
}

func TestNewID(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
	assert.Len(t, NewID(), 36)
}

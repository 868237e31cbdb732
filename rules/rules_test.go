package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpyCount_ResistanceMajority(t *testing.T) {
	for n := MinPlayers; n <= MaxPlayers; n++ {
		spies, err := SpyCount(n)
		require.NoError(t, err)
		assert.LessOrEqualf(t, spies, n-spies-1, "spies must be a strict minority for n=%d", n)
	}
}

func TestSpyCount_Table(t *testing.T) {
	want := map[int]int{5: 2, 6: 2, 7: 3, 8: 3, 9: 3, 10: 4}
	for n, c := range want {
		got, err := SpyCount(n)
		require.NoError(t, err)
		assert.Equal(t, c, got, "n=%d", n)
	}
}

func TestMissionSizes(t *testing.T) {
	sizes, err := MissionSizes(5)
	require.NoError(t, err)
	assert.Equal(t, [Rounds]int{2, 3, 2, 3, 3}, sizes)

	sizes, err = MissionSizes(10)
	require.NoError(t, err)
	assert.Equal(t, [Rounds]int{3, 4, 4, 5, 5}, sizes)

	for n := MinPlayers; n <= MaxPlayers; n++ {
		sizes, err := MissionSizes(n)
		require.NoError(t, err)
		for r, s := range sizes {
			assert.Less(t, s, n, "team must leave someone behind (n=%d round=%d)", n, r)
			got, err := TeamSize(n, r)
			require.NoError(t, err)
			assert.Equal(t, s, got)
		}
	}
}

func TestFailsRequired(t *testing.T) {
	for n := MinPlayers; n <= MaxPlayers; n++ {
		for r := 0; r < Rounds; r++ {
			f, err := FailsRequired(n, r)
			require.NoError(t, err)
			if r == 3 && n >= 7 {
				assert.Equal(t, 2, f, "n=%d round=%d", n, r)
			} else {
				assert.Equal(t, 1, f, "n=%d round=%d", n, r)
			}
		}
	}
}

func TestInvalidPlayerCount(t *testing.T) {
	for _, n := range []int{0, 4, 11, -1} {
		_, err := SpyCount(n)
		assert.ErrorIs(t, err, ErrInvalidPlayerCount)
		_, err = MissionSizes(n)
		assert.ErrorIs(t, err, ErrInvalidPlayerCount)
		_, err = FailsRequired(n, 0)
		assert.ErrorIs(t, err, ErrInvalidPlayerCount)
	}

	_, err := FailsRequired(5, 5)
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)
	_, err = TeamSize(5, -1)
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)

	assert.Panics(t, func() { MustSpyCount(3) })
	assert.Equal(t, 2, MustFailsRequired(8, 3))
}

// Package rules holds the static per-player-count tables of The Resistance:
// team sizes, spy counts and betrayal thresholds for each of the five rounds.
package rules

import (
	"errors"
	"fmt"
)

const (
	// MinPlayers is the smallest supported roster.
	MinPlayers = 5
	// MaxPlayers is the largest supported roster.
	MaxPlayers = 10
	// Rounds is the number of rounds (missions) in a game.
	Rounds = 5
	// MaxProposals is the number of proposal attempts per round before it auto-fails.
	MaxProposals = 5
	// FailsToLose is the number of failed missions that hands the game to the spies.
	FailsToLose = 3
)

// ErrInvalidPlayerCount is returned for rosters outside [MinPlayers, MaxPlayers]
// and for round indexes outside [0, Rounds).
var ErrInvalidPlayerCount = errors.New("invalid player count")

var missionSizes = map[int][Rounds]int{
	5:  {2, 3, 2, 3, 3},
	6:  {2, 3, 4, 3, 4},
	7:  {2, 3, 3, 4, 4},
	8:  {3, 4, 4, 5, 5},
	9:  {3, 4, 4, 5, 5},
	10: {3, 4, 4, 5, 5},
}

var spyCount = map[int]int{5: 2, 6: 2, 7: 3, 8: 3, 9: 3, 10: 4}

var failsRequired = map[int][Rounds]int{
	5:  {1, 1, 1, 1, 1},
	6:  {1, 1, 1, 1, 1},
	7:  {1, 1, 1, 2, 1},
	8:  {1, 1, 1, 2, 1},
	9:  {1, 1, 1, 2, 1},
	10: {1, 1, 1, 2, 1},
}

// ValidPlayers reports whether n is a supported roster size.
func ValidPlayers(n int) bool {
	return n >= MinPlayers && n <= MaxPlayers
}

func checkPlayers(n int) error {
	if !ValidPlayers(n) {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidPlayerCount, n, MinPlayers, MaxPlayers)
	}
	return nil
}

func checkRound(n, round int) error {
	if err := checkPlayers(n); err != nil {
		return err
	}
	if round < 0 || round >= Rounds {
		return fmt.Errorf("%w: round %d not in [0,%d)", ErrInvalidPlayerCount, round, Rounds)
	}
	return nil
}

// MissionSizes returns the team size of every round for n players.
func MissionSizes(n int) ([Rounds]int, error) {
	if err := checkPlayers(n); err != nil {
		return [Rounds]int{}, err
	}
	return missionSizes[n], nil
}

// TeamSize returns the team size of a single round.
func TeamSize(n, round int) (int, error) {
	if err := checkRound(n, round); err != nil {
		return 0, err
	}
	return missionSizes[n][round], nil
}

// SpyCount returns how many spies play in an n-player game.
func SpyCount(n int) (int, error) {
	if err := checkPlayers(n); err != nil {
		return 0, err
	}
	return spyCount[n], nil
}

// FailsRequired returns the betrayal threshold of a round: the number of
// betrayals that fail the mission.
func FailsRequired(n, round int) (int, error) {
	if err := checkRound(n, round); err != nil {
		return 0, err
	}
	return failsRequired[n][round], nil
}

// MustSpyCount is SpyCount for callers that already validated n. It panics on
// an invalid roster.
func MustSpyCount(n int) int {
	c, err := SpyCount(n)
	if err != nil {
		panic(err)
	}
	return c
}

// MustFailsRequired is FailsRequired for callers that already validated n and
// round. It panics on invalid input.
func MustFailsRequired(n, round int) int {
	f, err := FailsRequired(n, round)
	if err != nil {
		panic(err)
	}
	return f
}

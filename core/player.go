package core

import (
	"fmt"
	"slices"
	"strings"
)

// PlayerID is a player's seat index in [0, N).
type PlayerID int

// Team is an ordered list of distinct players sent on a mission. The order
// is the betrayal collection order; strategies should not read meaning into
// it beyond that.
type Team []PlayerID

// Contains reports whether p is on the team.
func (t Team) Contains(p PlayerID) bool {
	return slices.Contains(t, p)
}

// Clone returns an independent copy of the team.
func (t Team) Clone() Team {
	if t == nil {
		return nil
	}
	return slices.Clone(t)
}

// Count returns how many team members satisfy pred.
func (t Team) Count(pred func(PlayerID) bool) int {
	n := 0
	for _, p := range t {
		if pred(p) {
			n++
		}
	}
	return n
}

// String renders the team as "[0 3 4]".
func (t Team) String() string {
	parts := make([]string, len(t))
	for i, p := range t {
		parts[i] = fmt.Sprint(int(p))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Votes maps every player to their approval of a proposed team.
type Votes map[PlayerID]bool

// Approvals counts the true votes.
func (v Votes) Approvals() int {
	n := 0
	for _, yes := range v {
		if yes {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the vote map.
func (v Votes) Clone() Votes {
	out := make(Votes, len(v))
	for k, b := range v {
		out[k] = b
	}
	return out
}

// Player is the contract every strategy satisfies. The engine talks to
// players only through these callbacks, strictly one at a time.
//
// Ordering guarantees strategies may rely on:
//   - Vote is called in ascending player order
//   - Betray is called in team order and only on team members
//   - VoteOutcome, MissionOutcome, RoundOutcome and GameOutcome reach every
//     player in ascending player order
//
// Arguments are copies; mutating them never affects the engine.
type Player interface {
	// Name identifies the player instance in logs, allocation and reports.
	Name() string

	// NewGame resets the player for a new game. spies is the full spy set when
	// the player is a spy and empty otherwise.
	NewGame(players int, self PlayerID, spies []PlayerID)

	// ProposeMission is called on the current proposer only and must return
	// teamSize distinct players in [0, players).
	ProposeMission(teamSize, betrayalsRequired int) Team

	// Vote approves (true) or rejects (false) a proposed team.
	Vote(team Team, proposer PlayerID) bool

	// VoteOutcome reveals every player's vote.
	VoteOutcome(team Team, proposer PlayerID, votes Votes)

	// Betray is called on team members of an approved mission. Resistance
	// players must return false.
	Betray(team Team, proposer PlayerID) bool

	// MissionOutcome reports how many members betrayed and whether the mission succeeded.
	MissionOutcome(team Team, proposer PlayerID, betrayals int, succeeded bool)

	// RoundOutcome reports progress after each round.
	RoundOutcome(roundsCompleted, missionsFailed int)

	// GameOutcome reveals the winner and the true spy set.
	GameOutcome(spiesWin bool, spies []PlayerID)
}

// SpySet is a read-only membership view over a spy slice.
type SpySet map[PlayerID]struct{}

// NewSpySet builds a SpySet from ids.
func NewSpySet(ids []PlayerID) SpySet {
	s := make(SpySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is a spy.
func (s SpySet) Has(id PlayerID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s SpySet) Sorted() []PlayerID {
	out := make([]PlayerID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

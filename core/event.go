package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind tags what an Event records.
type EventKind string

const (
	EventNewGame        EventKind = "new_game"
	EventProposal       EventKind = "proposal"
	EventVoteOutcome    EventKind = "vote_outcome"
	EventMissionOutcome EventKind = "mission_outcome"
	EventRoundOutcome   EventKind = "round_outcome"
	EventGameOutcome    EventKind = "game_outcome"
)

// Event is an immutable record of one public step of a game. The engine emits
// one Event per broadcast (not per recipient) so a transcript replays exactly
// what every player was told, in order. Fields not relevant to Kind are zero.
type Event struct {
	GameID    string     `json:"game_id"`
	Seq       int        `json:"seq"`
	Kind      EventKind  `json:"kind"`
	Round     int        `json:"round"`
	Attempt   int        `json:"attempt"`
	Proposer  PlayerID   `json:"proposer"`
	Team      Team       `json:"team,omitempty"`
	Votes     Votes      `json:"votes,omitempty"`
	Approved  bool       `json:"approved,omitempty"`
	Betrayals int        `json:"betrayals"`
	Succeeded bool       `json:"succeeded,omitempty"`
	Failed    int        `json:"missions_failed"`
	SpiesWin  bool       `json:"spies_win,omitempty"`
	Spies     []PlayerID `json:"spies,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Equivalent compares two events ignoring GameID and Timestamp, which differ
// between otherwise identical runs.
func (e Event) Equivalent(o Event) bool {
	if e.Seq != o.Seq || e.Kind != o.Kind || e.Round != o.Round || e.Attempt != o.Attempt ||
		e.Proposer != o.Proposer || e.Approved != o.Approved || e.Betrayals != o.Betrayals ||
		e.Succeeded != o.Succeeded || e.Failed != o.Failed || e.SpiesWin != o.SpiesWin {
		return false
	}
	if len(e.Team) != len(o.Team) || len(e.Votes) != len(o.Votes) || len(e.Spies) != len(o.Spies) {
		return false
	}
	for i := range e.Team {
		if e.Team[i] != o.Team[i] {
			return false
		}
	}
	for k, v := range e.Votes {
		if ov, ok := o.Votes[k]; !ok || ov != v {
			return false
		}
	}
	for i := range e.Spies {
		if e.Spies[i] != o.Spies[i] {
			return false
		}
	}
	return true
}

// NewID generates a new unique identifier for games and runs.
func NewID() string {
	return uuid.NewString()
}

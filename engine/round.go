package engine

import (
	"fmt"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/rules"
)

// Round runs up to rules.MaxProposals proposal attempts. The first approved
// team is sent on the mission; five rejections fail the round outright.
type Round struct {
	index     int
	leader    core.PlayerID
	size      int
	threshold int
	roster    []core.Player
	spies     core.SpySet
	bc        *broadcaster

	missions []*Mission
	executed *Mission
	played   bool
}

// NewRound prepares round index (0-based) with leader as the first proposer.
func NewRound(index int, leader core.PlayerID, roster []core.Player, spies core.SpySet) (*Round, error) {
	n := len(roster)
	size, err := rules.TeamSize(n, index)
	if err != nil {
		return nil, core.NewConfigError("NewRound", err)
	}
	threshold, err := rules.FailsRequired(n, index)
	if err != nil {
		return nil, core.NewConfigError("NewRound", err)
	}
	if leader < 0 || int(leader) >= n {
		return nil, core.NewConfigError("NewRound", fmt.Errorf("%w: leader %d", ErrUnknownPlayer, leader))
	}

	return &Round{
		index:     index,
		leader:    leader,
		size:      size,
		threshold: threshold,
		roster:    roster,
		spies:     spies,
	}, nil
}

// Index returns the 0-based round index.
func (r *Round) Index() int { return r.index }

// Leader returns the first proposer of the round.
func (r *Round) Leader() core.PlayerID { return r.leader }

// TeamSize returns the mission size for this round.
func (r *Round) TeamSize() int { return r.size }

// BetrayalsRequired returns the betrayals needed to fail the mission.
func (r *Round) BetrayalsRequired() int { return r.threshold }

// Missions returns every attempt made so far.
func (r *Round) Missions() []*Mission {
	out := make([]*Mission, len(r.missions))
	copy(out, r.missions)
	return out
}

// Attempts returns the number of proposals made.
func (r *Round) Attempts() int { return len(r.missions) }

// Executed returns the approved mission, or nil when every proposal was rejected.
func (r *Round) Executed() *Mission { return r.executed }

// Betrayals returns the betrayals of the executed mission, zero otherwise.
func (r *Round) Betrayals() int {
	if r.executed == nil {
		return 0
	}
	return r.executed.Betrayals()
}

// Play runs the round and reports whether it was won by the resistance.
func (r *Round) Play() (bool, error) {
	if r.played {
		return false, fmt.Errorf("round %d already played: %w", r.index+1, ErrInvalidState)
	}
	r.played = true

	n := len(r.roster)
	for attempt := range rules.MaxProposals {
		proposer := core.PlayerID((int(r.leader) + attempt) % n)

		m := NewMission(proposer, r.size, r.threshold, r.roster, r.spies)
		m.round = r.index
		m.attempt = attempt
		m.bc = r.bc
		r.missions = append(r.missions, m)

		if _, err := m.Propose(); err != nil {
			return false, err
		}

		approved, err := m.CollectVotes()
		if err != nil {
			return false, err
		}
		if !approved {
			continue
		}

		r.executed = m
		return m.Resolve()
	}

	return false, nil
}

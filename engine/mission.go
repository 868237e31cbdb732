package engine

import (
	"fmt"

	"github.com/hupe1980/resistance/core"
)

// MissionState tracks where a mission is in its lifecycle.
type MissionState int

const (
	MissionPending MissionState = iota
	MissionProposed
	MissionVoting
	MissionApproved
	MissionRejected
	MissionResolving
	MissionSucceeded
	MissionFailed
)

var missionStateNames = [...]string{
	"pending", "proposed", "voting", "approved", "rejected", "resolving", "succeeded", "failed",
}

func (s MissionState) String() string {
	if int(s) < len(missionStateNames) {
		return missionStateNames[s]
	}
	return fmt.Sprintf("MissionState(%d)", int(s))
}

// Mission is one proposal attempt: a proposed team, a vote, and if approved,
// the betrayal collection. Steps must be called in order: Propose,
// CollectVotes, Resolve.
type Mission struct {
	proposer  core.PlayerID
	size      int
	threshold int
	roster    []core.Player
	spies     core.SpySet

	round   int
	attempt int
	bc      *broadcaster

	state     MissionState
	team      core.Team
	votes     core.Votes
	betrayals int
}

// NewMission prepares an attempt where proposer must pick size players and
// threshold betrayals fail the mission.
func NewMission(proposer core.PlayerID, size, threshold int, roster []core.Player, spies core.SpySet) *Mission {
	return &Mission{
		proposer:  proposer,
		size:      size,
		threshold: threshold,
		roster:    roster,
		spies:     spies,
	}
}

// State returns the current lifecycle state.
func (m *Mission) State() MissionState { return m.state }

// Proposer returns the proposing player.
func (m *Mission) Proposer() core.PlayerID { return m.proposer }

// Team returns a copy of the proposed team, or nil before Propose.
func (m *Mission) Team() core.Team { return m.team.Clone() }

// Votes returns a copy of the recorded votes, or nil before CollectVotes.
func (m *Mission) Votes() core.Votes {
	if m.votes == nil {
		return nil
	}
	return m.votes.Clone()
}

// Betrayals returns the number of betrayals recorded by Resolve.
func (m *Mission) Betrayals() int { return m.betrayals }

// Approved reports whether the vote passed.
func (m *Mission) Approved() bool {
	return m.state >= MissionApproved && m.state != MissionRejected
}

// Succeeded reports whether the mission was executed and succeeded.
func (m *Mission) Succeeded() bool { return m.state == MissionSucceeded }

// Propose asks the proposer for a team and validates it.
func (m *Mission) Propose() (core.Team, error) {
	if m.state != MissionPending {
		return nil, fmt.Errorf("propose in state %s: %w", m.state, ErrInvalidState)
	}

	p := m.roster[m.proposer]
	team := p.ProposeMission(m.size, m.threshold)
	if reason := checkTeam(team, m.size, len(m.roster)); reason != "" {
		return nil, &core.ProtocolError{Player: m.proposer, Name: p.Name(), Call: core.CallProposeMission, Reason: reason}
	}

	m.team = team.Clone()
	m.state = MissionProposed

	if err := m.bc.emit(core.Event{
		Kind:     core.EventProposal,
		Round:    m.round,
		Attempt:  m.attempt,
		Proposer: m.proposer,
		Team:     m.team.Clone(),
	}); err != nil {
		return nil, err
	}

	return m.team.Clone(), nil
}

// CollectVotes polls every player in ascending order, then reveals the vote
// to everyone. A team is approved only by a strict majority.
func (m *Mission) CollectVotes() (bool, error) {
	if m.state != MissionProposed {
		return false, fmt.Errorf("collect votes in state %s: %w", m.state, ErrInvalidState)
	}
	m.state = MissionVoting

	votes := make(core.Votes, len(m.roster))
	for i, p := range m.roster {
		votes[core.PlayerID(i)] = p.Vote(m.team.Clone(), m.proposer)
	}
	m.votes = votes

	approved := votes.Approvals()*2 > len(m.roster)
	if approved {
		m.state = MissionApproved
	} else {
		m.state = MissionRejected
	}

	for _, p := range m.roster {
		p.VoteOutcome(m.team.Clone(), m.proposer, votes.Clone())
	}

	if err := m.bc.emit(core.Event{
		Kind:     core.EventVoteOutcome,
		Round:    m.round,
		Attempt:  m.attempt,
		Proposer: m.proposer,
		Team:     m.team.Clone(),
		Votes:    votes.Clone(),
		Approved: approved,
	}); err != nil {
		return false, err
	}

	return approved, nil
}

// Resolve asks every team member, in team order, whether to betray. The
// mission fails once betrayals reach the threshold.
func (m *Mission) Resolve() (bool, error) {
	if m.state != MissionApproved {
		return false, fmt.Errorf("resolve in state %s: %w", m.state, ErrInvalidState)
	}
	m.state = MissionResolving

	betrayals := 0
	for _, member := range m.team {
		p := m.roster[member]
		if p.Betray(m.team.Clone(), m.proposer) {
			if !m.spies.Has(member) {
				return false, &core.ProtocolError{Player: member, Name: p.Name(), Call: core.CallBetray, Reason: "resistance member betrayed"}
			}
			betrayals++
		}
	}
	m.betrayals = betrayals

	succeeded := betrayals < m.threshold
	if succeeded {
		m.state = MissionSucceeded
	} else {
		m.state = MissionFailed
	}

	for _, p := range m.roster {
		p.MissionOutcome(m.team.Clone(), m.proposer, betrayals, succeeded)
	}

	if err := m.bc.emit(core.Event{
		Kind:      core.EventMissionOutcome,
		Round:     m.round,
		Attempt:   m.attempt,
		Proposer:  m.proposer,
		Team:      m.team.Clone(),
		Betrayals: betrayals,
		Succeeded: succeeded,
	}); err != nil {
		return false, err
	}

	return succeeded, nil
}

// checkTeam returns a non-empty reason when team is not a valid proposal.
func checkTeam(team core.Team, size, players int) string {
	if len(team) != size {
		return fmt.Sprintf("team has %d members, want %d", len(team), size)
	}
	seen := make(map[core.PlayerID]struct{}, len(team))
	for _, id := range team {
		if id < 0 || int(id) >= players {
			return fmt.Sprintf("player %d out of range", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Sprintf("duplicate player %d", id)
		}
		seen[id] = struct{}{}
	}
	return ""
}

package testutil

import (
	"github.com/hupe1980/resistance/core"
)

// EventBuilder provides a fluent helper for constructing expected events in tests.
// Example:
//
//	ev := NewEventBuilder(core.EventProposal).Round(0).Proposer(1).Team(1, 2).Build()
//
// Chain only the parts you need; unset fields stay zero.
type EventBuilder struct {
	ev core.Event
}

// NewEventBuilder creates a builder for an event of the given kind.
func NewEventBuilder(kind core.EventKind) *EventBuilder {
	return &EventBuilder{ev: core.Event{Kind: kind}}
}

// Seq sets the sequence number (chainable).
func (b *EventBuilder) Seq(s int) *EventBuilder { b.ev.Seq = s; return b }

// Round sets the 0-based round index (chainable).
func (b *EventBuilder) Round(r int) *EventBuilder { b.ev.Round = r; return b }

// Attempt sets the 0-based proposal attempt (chainable).
func (b *EventBuilder) Attempt(a int) *EventBuilder { b.ev.Attempt = a; return b }

// Proposer sets the proposing player (chainable).
func (b *EventBuilder) Proposer(p core.PlayerID) *EventBuilder { b.ev.Proposer = p; return b }

// Team sets the team (chainable).
func (b *EventBuilder) Team(ids ...core.PlayerID) *EventBuilder { b.ev.Team = core.Team(ids); return b }

// Votes sets the vote map from a slice indexed by player (chainable).
func (b *EventBuilder) Votes(approvals ...bool) *EventBuilder {
	v := make(core.Votes, len(approvals))
	for i, yes := range approvals {
		v[core.PlayerID(i)] = yes
	}
	b.ev.Votes = v
	b.ev.Approved = v.Approvals()*2 > len(approvals)
	return b
}

// Betrayals sets the betrayal count and derives Succeeded from threshold (chainable).
func (b *EventBuilder) Betrayals(n, threshold int) *EventBuilder {
	b.ev.Betrayals = n
	b.ev.Succeeded = n < threshold
	return b
}

// Failed sets the failed mission count (chainable).
func (b *EventBuilder) Failed(n int) *EventBuilder { b.ev.Failed = n; return b }

// SpiesWin sets the winner and spy set of a game outcome (chainable).
func (b *EventBuilder) SpiesWin(win bool, spies ...core.PlayerID) *EventBuilder {
	b.ev.SpiesWin = win
	b.ev.Spies = spies
	return b
}

// Build returns the constructed event.
func (b *EventBuilder) Build() core.Event { return b.ev }

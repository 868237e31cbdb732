package testutil

import (
	"fmt"
	"sync"

	"github.com/hupe1980/resistance/core"
)

// ScriptedPlayer is a core.Player whose decisions are fixed functions. It
// records every callback so tests can assert on ordering and arguments.
type ScriptedPlayer struct {
	name    string
	propose func(self core.PlayerID, players, teamSize int) core.Team
	vote    func(self core.PlayerID, team core.Team, proposer core.PlayerID) bool
	betray  func(self core.PlayerID, team core.Team, proposer core.PlayerID) bool

	mu       sync.Mutex
	calls    []string
	players  int
	self     core.PlayerID
	spies    []core.PlayerID
	outcomes []int
	spiesWin *bool
	revealed []core.PlayerID
}

// PlayerBuilder helps construct scripted players with fluent chaining.
// Example:
//
//	p := NewPlayerBuilder("p0").AlwaysApprove().BetrayWhenSpy().Build()
type PlayerBuilder struct {
	p *ScriptedPlayer
}

// NewPlayerBuilder creates a player that proposes the first teamSize seats,
// approves everything and never betrays.
func NewPlayerBuilder(name string) *PlayerBuilder {
	return &PlayerBuilder{p: &ScriptedPlayer{
		name: name,
		propose: func(_ core.PlayerID, _ int, teamSize int) core.Team {
			t := make(core.Team, teamSize)
			for i := range t {
				t[i] = core.PlayerID(i)
			}
			return t
		},
		vote:   func(core.PlayerID, core.Team, core.PlayerID) bool { return true },
		betray: func(core.PlayerID, core.Team, core.PlayerID) bool { return false },
	}}
}

// AlwaysApprove votes yes on every team (chainable).
func (b *PlayerBuilder) AlwaysApprove() *PlayerBuilder {
	b.p.vote = func(core.PlayerID, core.Team, core.PlayerID) bool { return true }
	return b
}

// AlwaysReject votes no on every team (chainable).
func (b *PlayerBuilder) AlwaysReject() *PlayerBuilder {
	b.p.vote = func(core.PlayerID, core.Team, core.PlayerID) bool { return false }
	return b
}

// VoteWith installs a custom vote function (chainable).
func (b *PlayerBuilder) VoteWith(fn func(self core.PlayerID, team core.Team, proposer core.PlayerID) bool) *PlayerBuilder {
	b.p.vote = fn
	return b
}

// BetrayWhenSpy betrays on every mission when allocated as a spy (chainable).
func (b *PlayerBuilder) BetrayWhenSpy() *PlayerBuilder {
	p := b.p
	p.betray = func(core.PlayerID, core.Team, core.PlayerID) bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return len(p.spies) > 0
	}
	return b
}

// AlwaysBetray betrays regardless of role (chainable). Used to provoke
// protocol violations.
func (b *PlayerBuilder) AlwaysBetray() *PlayerBuilder {
	b.p.betray = func(core.PlayerID, core.Team, core.PlayerID) bool { return true }
	return b
}

// ProposeWith installs a custom proposal function (chainable).
func (b *PlayerBuilder) ProposeWith(fn func(self core.PlayerID, players, teamSize int) core.Team) *PlayerBuilder {
	b.p.propose = fn
	return b
}

// ProposeFixed always proposes the given team regardless of size (chainable).
func (b *PlayerBuilder) ProposeFixed(ids ...core.PlayerID) *PlayerBuilder {
	b.p.propose = func(core.PlayerID, int, int) core.Team { return core.Team(ids).Clone() }
	return b
}

// Build returns the scripted player.
func (b *PlayerBuilder) Build() *ScriptedPlayer { return b.p }

// Players builds n default players named p0..p(n-1).
func Players(n int) []*ScriptedPlayer {
	out := make([]*ScriptedPlayer, n)
	for i := range out {
		out[i] = NewPlayerBuilder(fmt.Sprintf("p%d", i)).Build()
	}
	return out
}

// AsPlayers converts scripted players to the core interface.
func AsPlayers(ps []*ScriptedPlayer) []core.Player {
	out := make([]core.Player, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

// Name implements core.Player.
func (p *ScriptedPlayer) Name() string { return p.name }

// NewGame implements core.Player.
func (p *ScriptedPlayer) NewGame(players int, self core.PlayerID, spies []core.PlayerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.players, p.self, p.spies = players, self, spies
	p.outcomes, p.spiesWin, p.revealed = nil, nil, nil
	p.calls = append(p.calls, "NewGame")
}

// ProposeMission implements core.Player.
func (p *ScriptedPlayer) ProposeMission(teamSize, _ int) core.Team {
	p.record("ProposeMission")
	return p.propose(p.self, p.players, teamSize)
}

// Vote implements core.Player.
func (p *ScriptedPlayer) Vote(team core.Team, proposer core.PlayerID) bool {
	p.record("Vote")
	return p.vote(p.self, team, proposer)
}

// VoteOutcome implements core.Player.
func (p *ScriptedPlayer) VoteOutcome(core.Team, core.PlayerID, core.Votes) { p.record("VoteOutcome") }

// Betray implements core.Player.
func (p *ScriptedPlayer) Betray(team core.Team, proposer core.PlayerID) bool {
	p.record("Betray")
	return p.betray(p.self, team, proposer)
}

// MissionOutcome implements core.Player.
func (p *ScriptedPlayer) MissionOutcome(core.Team, core.PlayerID, int, bool) {
	p.record("MissionOutcome")
}

// RoundOutcome implements core.Player.
func (p *ScriptedPlayer) RoundOutcome(_, missionsFailed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, missionsFailed)
	p.calls = append(p.calls, "RoundOutcome")
}

// GameOutcome implements core.Player.
func (p *ScriptedPlayer) GameOutcome(spiesWin bool, spies []core.PlayerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spiesWin = &spiesWin
	p.revealed = spies
	p.calls = append(p.calls, "GameOutcome")
}

func (p *ScriptedPlayer) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

// Calls returns the callback names received, in order.
func (p *ScriptedPlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// CallCount counts how often call was received.
func (p *ScriptedPlayer) CallCount(call string) int {
	n := 0
	for _, c := range p.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// SpyView returns the spy list received in NewGame.
func (p *ScriptedPlayer) SpyView() []core.PlayerID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spies
}

// RoundOutcomes returns the failed-mission counts received after each round.
func (p *ScriptedPlayer) RoundOutcomes() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.outcomes...)
}

// Outcome returns the revealed winner and spies; ok is false before GameOutcome.
func (p *ScriptedPlayer) Outcome() (spiesWin bool, spies []core.PlayerID, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spiesWin == nil {
		return false, nil, false
	}
	return *p.spiesWin, p.revealed, true
}

// Recorder collects events from an engine callback.
type Recorder struct {
	mu     sync.Mutex
	events []core.Event
}

// AppendEvent implements engine.EventSink.
func (r *Recorder) AppendEvent(_ string, ev core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns the recorded events.
func (r *Recorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events.
func (r *Recorder) Kinds() []core.EventKind {
	evs := r.Events()
	out := make([]core.EventKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

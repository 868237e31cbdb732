package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/logging"
	"github.com/hupe1980/resistance/rules"
)

var (
	// ErrSpiesAlreadyAllocated is returned by a second allocation call.
	ErrSpiesAlreadyAllocated = errors.New("spies already allocated")

	// ErrSpyCountMismatch is returned when an allocation selects the wrong
	// number of spies for the roster size.
	ErrSpyCountMismatch = errors.New("spy count does not match player count")

	// ErrSpiesNotAllocated is returned by Play before any allocation.
	ErrSpiesNotAllocated = errors.New("spies not allocated")

	// ErrAlreadyPlayed is returned by a second Play call.
	ErrAlreadyPlayed = errors.New("game already played")

	// ErrUnknownPlayer is returned when a named or numbered player is not seated.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrInvalidState is returned when a mission step is invoked out of order.
	ErrInvalidState = errors.New("invalid mission state")
)

// Options configures a Game using the functional options pattern.
//
// Example:
//
//	g, err := engine.NewGame(players,
//	    engine.WithRand(rand.New(rand.NewPCG(1, 2))),
//	    engine.WithLogger(logger),
//	)
type Options struct {
	// GameID labels events and log lines. Defaults to a fresh UUID.
	GameID string

	// Rand drives spy allocation. Defaults to an unseeded PCG source; supply
	// a seeded one for reproducible games.
	Rand *rand.Rand

	// Logger receives one debug line per round and one info line per game.
	// Defaults to NoOp logger if nil.
	Logger logging.Logger

	// Callbacks observe every broadcast event.
	Callbacks *CallbackManager

	// EarlyFinish stops the game once either side has three missions,
	// instead of always playing all five rounds.
	EarlyFinish bool
}

// WithGameID sets the identifier carried by events and logs.
func WithGameID(id string) func(o *Options) {
	return func(o *Options) { o.GameID = id }
}

// WithRand sets the random source used for spy allocation.
func WithRand(r *rand.Rand) func(o *Options) {
	return func(o *Options) { o.Rand = r }
}

// WithLogger sets the game logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithCallbacks registers lifecycle callbacks.
func WithCallbacks(callbacks ...Callback) func(o *Options) {
	return func(o *Options) {
		if o.Callbacks == nil {
			o.Callbacks = NewCallbackManager()
		}
		for _, cb := range callbacks {
			o.Callbacks.RegisterCallback(cb)
		}
	}
}

// WithEarlyFinish ends the game as soon as the outcome is decided.
func WithEarlyFinish() func(o *Options) {
	return func(o *Options) { o.EarlyFinish = true }
}

// Result summarises a finished game.
type Result struct {
	GameID         string
	Players        int
	Spies          []core.PlayerID
	MissionsFailed int
	SpiesWin       bool
	Rounds         []RoundRecord
	Duration       time.Duration
}

// ResistanceWins reports whether the resistance won.
func (r *Result) ResistanceWins() bool { return !r.SpiesWin }

// RoundRecord is the public summary of one played round.
type RoundRecord struct {
	Index     int
	Leader    core.PlayerID
	Attempts  int
	Executed  bool
	Team      core.Team
	Proposer  core.PlayerID
	Betrayals int
	Succeeded bool
}

// Game owns the roster, the spy set and the round sequence of one game.
//
// A Game is single-use and single-goroutine: allocate spies once, call Play
// once. Different Game values share nothing and may run concurrently.
type Game struct {
	opts      Options
	players   []core.Player
	spies     core.SpySet
	spyList   []core.PlayerID
	allocated bool
	played    bool
	rounds    []*Round
	lost      int
	bc        *broadcaster
}

// NewGame validates the roster and creates an unallocated game.
func NewGame(players []core.Player, optFns ...func(o *Options)) (*Game, error) {
	if !rules.ValidPlayers(len(players)) {
		return nil, core.NewConfigError("NewGame", fmt.Errorf("%w: %d", rules.ErrInvalidPlayerCount, len(players)))
	}
	for i, p := range players {
		if p == nil {
			return nil, core.NewConfigError("NewGame", fmt.Errorf("player %d is nil", i))
		}
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.GameID == "" {
		opts.GameID = core.NewID()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	roster := make([]core.Player, len(players))
	copy(roster, players)

	return &Game{
		opts:    opts,
		players: roster,
		bc:      &broadcaster{gameID: opts.GameID, callbacks: opts.Callbacks},
	}, nil
}

// ID returns the game identifier.
func (g *Game) ID() string { return g.opts.GameID }

// Players returns the roster in seat order.
func (g *Game) Players() []core.Player {
	out := make([]core.Player, len(g.players))
	copy(out, g.players)
	return out
}

// Spies returns the allocated spies in ascending order, or nil before allocation.
func (g *Game) Spies() []core.PlayerID {
	if !g.allocated {
		return nil
	}
	out := make([]core.PlayerID, len(g.spyList))
	copy(out, g.spyList)
	return out
}

// IsSpy reports whether seat id was allocated as a spy.
func (g *Game) IsSpy(id core.PlayerID) bool { return g.spies.Has(id) }

// MissionsLost returns the number of failed missions so far.
func (g *Game) MissionsLost() int { return g.lost }

// Rounds returns the rounds played so far.
func (g *Game) Rounds() []*Round {
	out := make([]*Round, len(g.rounds))
	copy(out, g.rounds)
	return out
}

// Play runs the game to completion.
//
// Every player is told about the new game, then rounds are played in order
// with the leader advancing by the previous round's proposal count. The game
// ends after five rounds, or earlier with WithEarlyFinish once the result is
// fixed. Spies win when at least three missions failed.
//
// A ConfigError is returned when Play is called before allocation or twice;
// a ProtocolError aborts the game when a player returns a malformed decision.
func (g *Game) Play() (*Result, error) {
	if g.played {
		return nil, core.NewConfigError("Play", ErrAlreadyPlayed)
	}
	if !g.allocated {
		return nil, core.NewConfigError("Play", ErrSpiesNotAllocated)
	}
	g.played = true

	start := time.Now()
	res, err := g.play()
	if err != nil {
		_ = g.opts.Callbacks.ExecuteCallbacks(CallbackOnError, &CallbackContext{GameID: g.opts.GameID, Err: err})
		g.opts.Logger.Error("game aborted", "game_id", g.opts.GameID, "error", err)
		return nil, err
	}
	res.Duration = time.Since(start)

	g.opts.Logger.Info("game finished",
		"game_id", g.opts.GameID,
		"players", len(g.players),
		"missions_failed", res.MissionsFailed,
		"spies_win", res.SpiesWin,
	)

	return res, nil
}

func (g *Game) play() (*Result, error) {
	n := len(g.players)

	for i, p := range g.players {
		var view []core.PlayerID
		if g.spies.Has(core.PlayerID(i)) {
			view = g.Spies()
		} else {
			view = []core.PlayerID{}
		}
		p.NewGame(n, core.PlayerID(i), view)
	}
	if err := g.bc.emit(core.Event{Kind: core.EventNewGame}); err != nil {
		return nil, err
	}

	res := &Result{GameID: g.opts.GameID, Players: n}

	leader := 0
	for i := range rules.Rounds {
		r, err := NewRound(i, core.PlayerID(leader), g.players, g.spies)
		if err != nil {
			return nil, err
		}
		r.bc = g.bc
		g.rounds = append(g.rounds, r)

		ok, err := r.Play()
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}
		if !ok {
			g.lost++
		}

		rec := RoundRecord{Index: i, Leader: core.PlayerID(leader), Attempts: r.Attempts(), Succeeded: ok}
		if m := r.Executed(); m != nil {
			rec.Executed = true
			rec.Team = m.Team()
			rec.Proposer = m.Proposer()
			rec.Betrayals = m.Betrayals()
		}
		res.Rounds = append(res.Rounds, rec)

		for _, p := range g.players {
			p.RoundOutcome(i+1, g.lost)
		}
		if err := g.bc.emit(core.Event{Kind: core.EventRoundOutcome, Round: i, Failed: g.lost}); err != nil {
			return nil, err
		}

		g.opts.Logger.Debug("round finished",
			"game_id", g.opts.GameID,
			"round", i+1,
			"leader", leader,
			"attempts", r.Attempts(),
			"succeeded", ok,
			"missions_failed", g.lost,
		)

		leader = (leader + r.Attempts()) % n

		won := (i + 1) - g.lost
		if g.opts.EarlyFinish && (g.lost >= rules.FailsToLose || won >= rules.FailsToLose) {
			break
		}
	}

	res.MissionsFailed = g.lost
	res.SpiesWin = g.lost >= rules.FailsToLose
	res.Spies = g.Spies()

	for _, p := range g.players {
		p.GameOutcome(res.SpiesWin, g.Spies())
	}
	if err := g.bc.emit(core.Event{
		Kind:     core.EventGameOutcome,
		Round:    len(g.rounds) - 1,
		Failed:   g.lost,
		SpiesWin: res.SpiesWin,
		Spies:    g.Spies(),
	}); err != nil {
		return nil, err
	}

	return res, nil
}

// broadcaster stamps and forwards events to the callback manager. A nil
// broadcaster drops events so Mission and Round work standalone.
type broadcaster struct {
	gameID    string
	seq       int
	callbacks *CallbackManager
}

func (b *broadcaster) emit(ev core.Event) error {
	if b == nil {
		return nil
	}
	b.seq++
	ev.GameID = b.gameID
	ev.Seq = b.seq
	ev.Timestamp = time.Now()
	return b.callbacks.dispatch(b.gameID, &ev)
}

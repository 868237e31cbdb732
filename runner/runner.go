package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/engine"
	"github.com/hupe1980/resistance/history"
	"github.com/hupe1980/resistance/logging"
	"github.com/hupe1980/resistance/rules"
)

// Allocation selects how a batch game assigns spies.
type Allocation string

const (
	// AllocateRoles seats spy_count(n) spy-kind agents as the spies.
	AllocateRoles Allocation = "roles"
	// AllocateByKind lets the engine pick every agent of the spy kind.
	AllocateByKind Allocation = "kind"
	// AllocateRandom ignores kinds and draws spies uniformly.
	AllocateRandom Allocation = "random"
	// AllocateSingleSpy forces one spy-kind agent to be a spy; the rest are random.
	AllocateSingleSpy Allocation = "single-spy"
	// AllocateSingleResistance forces one resistance-kind agent into the
	// resistance; the rest are random.
	AllocateSingleResistance Allocation = "single-resistance"
)

var (
	// ErrUnknownAllocation is returned for an unsupported allocation mode.
	ErrUnknownAllocation = errors.New("unknown allocation mode")

	// ErrKindAllocationSameKind is returned when AllocateByKind is asked to
	// pick spies from a squad of a single kind, which would make every seat a spy.
	ErrKindAllocationSameKind = errors.New("kind allocation needs distinct resistance and spy kinds")
)

// Validate reports whether the matchup can be played.
func (m Matchup) Validate() error {
	if m.Allocation == AllocateByKind && m.Resistance == m.Spy {
		return fmt.Errorf("%w: %s", ErrKindAllocationSameKind, m)
	}
	return nil
}

// Matchup pairs a resistance strategy with a spy strategy.
type Matchup struct {
	Resistance Kind
	Spy        Kind
	Allocation Allocation
}

// String renders "resistance vs spy (allocation)".
func (m Matchup) String() string {
	alloc := m.Allocation
	if alloc == "" {
		alloc = AllocateRoles
	}
	return fmt.Sprintf("%s vs %s (%s)", m.Resistance, m.Spy, alloc)
}

// Options holds configuration overrides passed to New().
type Options struct {
	// Games is the number of games per matchup and player count.
	Games int
	// Players lists the roster sizes to play. Defaults to 5 through 10.
	Players []int
	// Seed makes a run reproducible: game i always uses the same streams.
	Seed uint64
	// Workers bounds the number of concurrently played games.
	Workers int
	// EarlyFinish stops games as soon as the winner is fixed.
	EarlyFinish bool
	// StopOnError aborts the run on the first failed game.
	StopOnError bool
	// Store records game transcripts. Defaults to a bounded in-memory store.
	Store *history.InMemoryStore
	// Creator builds the squads. Defaults to NewSquadCreator().
	Creator *SquadCreator
	// Callbacks are registered on every game.
	Callbacks []engine.Callback
	Logger    logging.Logger
}

// Runner plays batches of independent games concurrently and aggregates
// their results. Public methods are safe for concurrent use.
type Runner struct {
	opts Options

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		Games:   100,
		Players: []int{5, 6, 7, 8, 9, 10},
		Seed:    rand.Uint64(),
		Workers: runtime.GOMAXPROCS(0),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Creator == nil {
		opts.Creator = NewSquadCreator()
	}
	if opts.Store == nil {
		opts.Store = history.NewInMemoryStore(func(o *history.Options) {
			o.MaxGames = max(1024, 4*opts.Workers)
		})
	}

	return &Runner{opts: opts, activeRuns: make(map[string]context.CancelFunc)}
}

// Store returns the transcript store.
func (r *Runner) Store() *history.InMemoryStore { return r.opts.Store }

// Cancel cancels a running batch by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

// job is one game of a batch.
type job struct {
	index   int
	matchup Matchup
	players int
}

// Run plays Options.Games games for every matchup and player count and
// returns the aggregated report. Games that fail are counted in the report;
// with StopOnError the first failure cancels the run instead.
func (r *Runner) Run(ctx context.Context, matchups ...Matchup) (*Report, error) {
	if len(matchups) == 0 {
		return nil, errors.New("no matchups given")
	}
	for _, m := range matchups {
		if err := m.Validate(); err != nil {
			return nil, core.NewConfigError("runner", err)
		}
	}
	for _, n := range r.opts.Players {
		if !rules.ValidPlayers(n) {
			return nil, core.NewConfigError("runner", fmt.Errorf("%w: %d", rules.ErrInvalidPlayerCount, n))
		}
	}

	runID := core.NewID()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.activeRuns, runID)
		r.mu.Unlock()
	}()

	var jobs []job
	for _, m := range matchups {
		for _, n := range r.opts.Players {
			for range r.opts.Games {
				jobs = append(jobs, job{index: len(jobs), matchup: m, players: n})
			}
		}
	}

	start := time.Now()
	records := make([]GameRecord, len(jobs))
	jobCh := make(chan job)
	errCh := make(chan error, 1)

	var wg sync.WaitGroup
	for range min(r.opts.Workers, max(len(jobs), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				rec := r.playOne(runID, j)
				records[j.index] = rec
				if rec.Err != nil && r.opts.StopOnError {
					select {
					case errCh <- fmt.Errorf("game %s failed: %w", rec.GameID, rec.Err):
					default:
					}
					cancel()
				}
			}
		}()
	}

feed:
	for _, j := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case jobCh <- j:
		}
	}
	close(jobCh)
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s cancelled: %w", runID, err)
	}

	report := newReport(runID, records, time.Since(start))
	r.logReport(report)
	return report, nil
}

// playOne runs a single game and never panics on strategy errors.
func (r *Runner) playOne(runID string, j job) GameRecord {
	rng := rand.New(rand.NewPCG(r.opts.Seed, uint64(j.index)))
	rec := GameRecord{
		RunID:   runID,
		GameID:  core.NewID(),
		Index:   j.index,
		Matchup: j.matchup,
		Players: j.players,
	}

	start := time.Now()
	res, err := r.play(rec.GameID, j, rng)
	rec.Duration = time.Since(start)
	if err != nil {
		rec.Err = err
		r.logGame(rec)
		return rec
	}

	rec.SpiesWin = res.SpiesWin
	rec.MissionsFailed = res.MissionsFailed
	rec.Spies = res.Spies
	for _, round := range res.Rounds {
		rec.Proposals += round.Attempts
		rec.Betrayals += round.Betrayals
		if round.Executed {
			rec.Rejected += round.Attempts - 1
		} else {
			rec.Rejected += round.Attempts
		}
	}
	if events, err := r.opts.Store.Transcript(rec.GameID); err == nil {
		sum := history.Summarize(events)
		rec.Proposals = sum.Proposals
		rec.Rejected = sum.Rejected
		rec.Betrayals = sum.Betrayals
	}

	r.logGame(rec)
	return rec
}

func (r *Runner) play(gameID string, j job, rng *rand.Rand) (*engine.Result, error) {
	m := j.matchup
	var (
		squad Squad
		err   error
	)
	if m.Resistance == m.Spy {
		squad, err = r.opts.Creator.CreateSingleKind(j.players, m.Spy, rng)
	} else {
		squad, err = r.opts.Creator.CreateWithRoles(j.players, m.Resistance, m.Spy, rng)
	}
	if err != nil {
		return nil, err
	}

	callbacks := append([]engine.Callback{engine.NewRecorderCallback(r.opts.Store)}, r.opts.Callbacks...)
	optFns := []func(o *engine.Options){
		engine.WithGameID(gameID),
		engine.WithRand(rng),
		engine.WithLogger(r.opts.Logger),
		engine.WithCallbacks(callbacks...),
	}
	if r.opts.EarlyFinish {
		optFns = append(optFns, engine.WithEarlyFinish())
	}

	g, err := engine.NewGame(squad.Players, optFns...)
	if err != nil {
		return nil, err
	}
	if err := allocate(g, squad, m); err != nil {
		return nil, err
	}
	return g.Play()
}

// allocate assigns spies according to the matchup's allocation mode.
func allocate(g *engine.Game, squad Squad, m Matchup) error {
	switch m.Allocation {
	case "", AllocateRoles:
		if len(squad.Spies) == 0 {
			return g.AllocateSpiesRandomly()
		}
		return g.AllocateSpies(squad.Spies...)
	case AllocateByKind:
		return g.AllocateSpiesByType(func(p core.Player) bool {
			for i, q := range squad.Players {
				if q == p {
					return squad.Kinds[i] == m.Spy
				}
			}
			return false
		})
	case AllocateRandom:
		return g.AllocateSpiesRandomly()
	case AllocateSingleSpy:
		seats := squad.SeatsOf(m.Spy)
		if len(seats) == 0 {
			return fmt.Errorf("%w: no %s agent to make a spy", ErrUnknownAllocation, m.Spy)
		}
		return g.AllocateSingleSpy(squad.Players[seats[0]].Name())
	case AllocateSingleResistance:
		seats := squad.SeatsOf(m.Resistance)
		if len(seats) == 0 {
			return fmt.Errorf("%w: no %s agent to keep in the resistance", ErrUnknownAllocation, m.Resistance)
		}
		return g.AllocateSingleResistance(squad.Players[seats[len(seats)-1]].Name())
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAllocation, m.Allocation)
	}
}

type gameLogger interface {
	LogGame(gameID string, players, missionsFailed int, spiesWin bool, dur time.Duration, err error)
	LogBatch(matchup string, games, resistanceWins int, dur time.Duration)
}

func (r *Runner) logGame(rec GameRecord) {
	if gl, ok := r.opts.Logger.(gameLogger); ok {
		gl.LogGame(rec.GameID, rec.Players, rec.MissionsFailed, rec.SpiesWin, rec.Duration, rec.Err)
		return
	}
	if rec.Err != nil {
		r.opts.Logger.Warn("game failed", "game_id", rec.GameID, "matchup", rec.Matchup.String(), "error", rec.Err)
	}
}

func (r *Runner) logReport(rep *Report) {
	gl, ok := r.opts.Logger.(gameLogger)
	for _, s := range rep.Stats {
		label := fmt.Sprintf("%s n=%d", s.Matchup, s.Players)
		if ok {
			gl.LogBatch(label, s.Games, s.ResistanceWins, rep.Duration)
			continue
		}
		r.opts.Logger.Info("batch finished",
			"matchup", label,
			"games", s.Games,
			"resistance_wins", s.ResistanceWins,
			"errors", s.Errors)
	}
}

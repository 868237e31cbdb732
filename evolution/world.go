package evolution

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/hupe1980/resistance/agent"
	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/engine"
	"github.com/hupe1980/resistance/logging"
	"github.com/hupe1980/resistance/rules"
)

// ErrNoPopulation is returned when a trial runs before Genesis.
var ErrNoPopulation = errors.New("world has no population; call Genesis first")

// Standing is a specimen's record over one trial.
type Standing struct {
	// Index is the specimen's position in the population during the trial.
	Index           int      `json:"index"`
	Specimen        Specimen `json:"specimen"`
	ResistanceWins  int      `json:"resistance_wins"`
	SpyWins         int      `json:"spy_wins"`
	ResistanceGames int      `json:"resistance_games"`
	SpyGames        int      `json:"spy_games"`
	IdentifiedSpies int      `json:"identified_spies"`
}

// Wins returns the total wins on either side.
func (s Standing) Wins() int { return s.ResistanceWins + s.SpyWins }

// Games returns the number of games played.
func (s Standing) Games() int { return s.ResistanceGames + s.SpyGames }

// WinRate returns Wins over Games, or 0 before any game.
func (s Standing) WinRate() float64 {
	if s.Games() == 0 {
		return 0
	}
	return float64(s.Wins()) / float64(s.Games())
}

// Generation summarises one Evolve step.
type Generation struct {
	Index     int        `json:"index"`
	Standings []Standing `json:"standings"`
}

// Champion returns the best ranked standing of the generation.
func (g Generation) Champion() Standing { return g.Standings[0] }

// Options configures a World.
type Options struct {
	Rand       *rand.Rand
	Logger     logging.Logger
	Originator *Originator

	// Collusion is passed to every seeded agent.
	Collusion bool

	// Survivors is how many top specimens seed the next generation.
	// Defaults to half the population, at least one.
	Survivors int

	// Callbacks are registered on every trial game.
	Callbacks []engine.Callback
}

// World holds a population and runs trials over it.
type World struct {
	opts       Options
	population []Specimen
}

// NewWorld creates an empty world.
func NewWorld(optFns ...func(o *Options)) *World {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Originator == nil {
		opts.Originator = NewOriginator(func(o *OriginatorOptions) {
			o.Rand = rand.New(rand.NewPCG(opts.Rand.Uint64(), opts.Rand.Uint64()))
		})
	}
	return &World{opts: opts}
}

// Population returns a copy of the current population.
func (w *World) Population() []Specimen {
	return append([]Specimen(nil), w.population...)
}

// Genesis seeds a fresh population of n specimens; n is also the number of
// players in every trial game.
func (w *World) Genesis(n int) error {
	if !rules.ValidPlayers(n) {
		return core.NewConfigError("genesis", fmt.Errorf("%w: %d", rules.ErrInvalidPlayerCount, n))
	}
	w.population = make([]Specimen, n)
	for i := range w.population {
		w.population[i] = w.opts.Originator.Create()
		w.opts.Logger.Debug("specimen seeded",
			"id", w.population[i].ID,
			"genetics", w.population[i].Genetics.String())
	}
	return nil
}

// TrialOfChampions plays games with the whole population seated in a fresh
// random order each game and returns the standings ranked by wins, then win
// rate, then population index.
func (w *World) TrialOfChampions(games int) ([]Standing, error) {
	if len(w.population) == 0 {
		return nil, ErrNoPopulation
	}

	agents := make([]*agent.BayesianAgent, len(w.population))
	standings := make([]Standing, len(w.population))
	for i, s := range w.population {
		agents[i] = s.NewAgent(fmt.Sprintf("specimen-%d", i),
			agent.WithRand(rand.New(rand.NewPCG(w.opts.Rand.Uint64(), uint64(i)))),
			agent.WithLogger(w.opts.Logger),
			agent.WithCollusion(w.opts.Collusion))
		standings[i].Index = i
		standings[i].Specimen = s
	}

	for range games {
		order := w.opts.Rand.Perm(len(agents))
		seated := make([]core.Player, len(agents))
		for seat, idx := range order {
			seated[seat] = agents[idx]
		}

		g, err := engine.NewGame(seated,
			engine.WithRand(w.opts.Rand),
			engine.WithLogger(w.opts.Logger),
			engine.WithCallbacks(w.opts.Callbacks...))
		if err != nil {
			return nil, err
		}
		if err := g.AllocateSpiesRandomly(); err != nil {
			return nil, err
		}
		if _, err := g.Play(); err != nil {
			return nil, fmt.Errorf("trial game %s: %w", g.ID(), err)
		}

		for seat, idx := range order {
			a, st := agents[idx], &standings[idx]
			spy := g.IsSpy(core.PlayerID(seat))
			if spy {
				st.SpyGames++
			} else {
				st.ResistanceGames++
				st.IdentifiedSpies += a.IdentifiedSpies()
			}
			if a.Winner() {
				if spy {
					st.SpyWins++
				} else {
					st.ResistanceWins++
				}
			}
		}
	}

	rank(standings)
	w.opts.Logger.Info("trial finished",
		"games", games,
		"champion", standings[0].Specimen.ID,
		"wins", standings[0].Wins(),
		"genetics", standings[0].Specimen.Genetics.String())
	return standings, nil
}

func rank(standings []Standing) {
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Wins() != b.Wins() {
			return a.Wins() > b.Wins()
		}
		if a.WinRate() != b.WinRate() {
			return a.WinRate() > b.WinRate()
		}
		return a.Index < b.Index
	})
}

// Evolve runs generations of trial, selection and mutation. The survivors
// of each trial stay in the population and the rest is replaced by mutated
// children of the survivors, best first.
func (w *World) Evolve(generations, gamesPerGeneration int) ([]Generation, error) {
	if len(w.population) == 0 {
		return nil, ErrNoPopulation
	}

	survivors := w.opts.Survivors
	if survivors <= 0 {
		survivors = len(w.population) / 2
	}
	survivors = min(max(survivors, 1), len(w.population))

	out := make([]Generation, 0, generations)
	for gen := range generations {
		standings, err := w.TrialOfChampions(gamesPerGeneration)
		if err != nil {
			return out, fmt.Errorf("generation %d: %w", gen, err)
		}
		out = append(out, Generation{Index: gen, Standings: standings})

		next := make([]Specimen, 0, len(w.population))
		for _, st := range standings[:survivors] {
			next = append(next, st.Specimen)
		}
		for i := 0; len(next) < len(w.population); i++ {
			next = append(next, w.opts.Originator.Evolve(standings[i%survivors].Specimen))
		}
		w.population = next

		w.opts.Logger.Debug("generation evolved",
			"generation", gen,
			"survivors", survivors,
			"champion", standings[0].Specimen.ID)
	}
	return out, nil
}

package runner

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"

	"github.com/hupe1980/resistance/agent"
	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/logging"
	"github.com/hupe1980/resistance/model"
	"github.com/hupe1980/resistance/rules"
)

// Kind names a strategy the SquadCreator can build.
type Kind string

const (
	KindRandom        Kind = "random"
	KindBaseline      Kind = "baseline"
	KindReflex        Kind = "reflex"
	KindBayesian      Kind = "bayesian"
	KindDeterministic Kind = "deterministic"
	KindSpyCatcher    Kind = "spycatcher"
	KindModel         Kind = "model"
)

var (
	// ErrUnknownKind is returned for a strategy kind with no registered factory.
	ErrUnknownKind = errors.New("unknown agent kind")

	// ErrModelNotConfigured is returned when a model-backed agent is requested
	// without a model.
	ErrModelNotConfigured = errors.New("model agent requested but no model configured")
)

// Factory builds one strategy instance. opts carries the per-player random
// source and the squad-wide strategy parameters.
type Factory func(name string, opts SquadOptions, rng *rand.Rand) (core.Player, error)

// SquadOptions configures every agent a SquadCreator builds.
type SquadOptions struct {
	Collusion bool
	Genetics  agent.Genetics
	Penalties agent.Penalties

	// Model backs KindModel agents.
	Model model.Model

	// ModelOptions are applied to every KindModel agent.
	ModelOptions []func(o *agent.ModelAgentOptions)

	// FallbackKind decides for KindModel agents whenever the model cannot.
	FallbackKind Kind

	Logger logging.Logger
}

// AgentOptions converts the squad options into strategy options.
func (o SquadOptions) AgentOptions(rng *rand.Rand) []func(*agent.Options) {
	return []func(*agent.Options){
		agent.WithRand(rng),
		agent.WithLogger(o.Logger),
		agent.WithCollusion(o.Collusion),
		agent.WithGenetics(o.Genetics),
		agent.WithPenalties(o.Penalties),
	}
}

// Squad is a seated roster plus the seats its creator intends as spies.
type Squad struct {
	Players []core.Player
	Kinds   []Kind
	Spies   []core.PlayerID
}

// SeatsOf returns the seats holding kind.
func (s Squad) SeatsOf(kind Kind) []core.PlayerID {
	var out []core.PlayerID
	for i, k := range s.Kinds {
		if k == kind {
			out = append(out, core.PlayerID(i))
		}
	}
	return out
}

// SquadCreator builds rosters of strategies by kind name. It is safe for
// concurrent use.
type SquadCreator struct {
	opts SquadOptions

	mu        sync.RWMutex
	factories map[Kind]Factory
}

// NewSquadCreator creates a creator with the built-in strategy kinds registered.
func NewSquadCreator(optFns ...func(o *SquadOptions)) *SquadCreator {
	opts := SquadOptions{
		Genetics:     agent.DefaultGenetics(),
		Penalties:    agent.DefaultPenalties(),
		FallbackKind: KindBayesian,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	sc := &SquadCreator{opts: opts, factories: make(map[Kind]Factory)}
	sc.Register(KindRandom, func(name string, o SquadOptions, rng *rand.Rand) (core.Player, error) {
		return agent.NewRandomAgent(name, o.AgentOptions(rng)...), nil
	})
	sc.Register(KindBaseline, func(name string, o SquadOptions, rng *rand.Rand) (core.Player, error) {
		return agent.NewBaselineAgent(name, o.AgentOptions(rng)...), nil
	})
	sc.Register(KindReflex, func(name string, o SquadOptions, rng *rand.Rand) (core.Player, error) {
		return agent.NewReflexAgent(name, o.AgentOptions(rng)...), nil
	})
	sc.Register(KindBayesian, func(name string, o SquadOptions, rng *rand.Rand) (core.Player, error) {
		return agent.NewBayesianAgent(name, o.AgentOptions(rng)...), nil
	})
	sc.Register(KindDeterministic, func(name string, o SquadOptions, rng *rand.Rand) (core.Player, error) {
		return agent.NewDeterministicAgent(name, o.AgentOptions(rng)...), nil
	})
	sc.Register(KindSpyCatcher, func(name string, o SquadOptions, rng *rand.Rand) (core.Player, error) {
		return agent.NewSpyCatcherAgent(name, o.AgentOptions(rng)...), nil
	})
	sc.Register(KindModel, sc.newModelAgent)
	return sc
}

// Options returns the squad-wide options.
func (sc *SquadCreator) Options() SquadOptions { return sc.opts }

// Register adds or replaces the factory for kind.
func (sc *SquadCreator) Register(kind Kind, f Factory) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.factories[kind] = f
}

// Kinds returns the registered kinds in sorted order.
func (sc *SquadCreator) Kinds() []Kind {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	out := make([]Kind, 0, len(sc.factories))
	for k := range sc.factories {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Create builds a single agent.
func (sc *SquadCreator) Create(kind Kind, name string, rng *rand.Rand) (core.Player, error) {
	sc.mu.RLock()
	f, ok := sc.factories[kind]
	sc.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return f(name, sc.opts, rng)
}

// CreateWithRoles builds an n-player squad with spy_count(n) agents of
// spyKind and the rest of resistanceKind, seated in random order. The
// returned Squad.Spies lists the spy-kind seats.
func (sc *SquadCreator) CreateWithRoles(n int, resistanceKind, spyKind Kind, rng *rand.Rand) (Squad, error) {
	spies, err := rules.SpyCount(n)
	if err != nil {
		return Squad{}, err
	}

	kinds := make([]Kind, n)
	for i := range kinds {
		if i < spies {
			kinds[i] = spyKind
		} else {
			kinds[i] = resistanceKind
		}
	}
	order := rng.Perm(n)

	squad := Squad{Players: make([]core.Player, n), Kinds: make([]Kind, n)}
	for seat, idx := range order {
		squad.Kinds[seat] = kinds[idx]
		if idx < spies {
			squad.Spies = append(squad.Spies, core.PlayerID(seat))
		}
	}
	if err := sc.fill(&squad, rng); err != nil {
		return Squad{}, err
	}
	return squad, nil
}

// CreateSingleKind builds an n-player squad of one kind. Squad.Spies is
// empty; the caller allocates spies.
func (sc *SquadCreator) CreateSingleKind(n int, kind Kind, rng *rand.Rand) (Squad, error) {
	if !rules.ValidPlayers(n) {
		return Squad{}, fmt.Errorf("%w: %d", rules.ErrInvalidPlayerCount, n)
	}
	squad := Squad{Players: make([]core.Player, n), Kinds: make([]Kind, n)}
	for i := range squad.Kinds {
		squad.Kinds[i] = kind
	}
	if err := sc.fill(&squad, rng); err != nil {
		return Squad{}, err
	}
	return squad, nil
}

// fill instantiates one agent per seat. Each agent gets its own random
// stream derived from rng so seat order alone fixes every decision.
func (sc *SquadCreator) fill(squad *Squad, rng *rand.Rand) error {
	for seat, kind := range squad.Kinds {
		p, err := sc.Create(kind, fmt.Sprintf("%s-%d", kind, seat), rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())))
		if err != nil {
			return err
		}
		squad.Players[seat] = p
	}
	slices.Sort(squad.Spies)
	return nil
}

func (sc *SquadCreator) newModelAgent(name string, o SquadOptions, rng *rand.Rand) (core.Player, error) {
	if o.Model == nil {
		return nil, ErrModelNotConfigured
	}
	if o.FallbackKind == KindModel {
		return nil, fmt.Errorf("%w: fallback cannot be %q", ErrUnknownKind, KindModel)
	}
	fallback, err := sc.Create(o.FallbackKind, name+"/fallback", rng)
	if err != nil {
		return nil, err
	}

	optFns := append([]func(*agent.ModelAgentOptions){func(mo *agent.ModelAgentOptions) {
		mo.Fallback = fallback
		mo.Logger = o.Logger
	}}, o.ModelOptions...)
	return agent.NewModelAgent(name, o.Model, optFns...), nil
}

// Package resistance provides a high-level façade over the game engine, the
// batch runner and the evolution world. Most applications interact with this
// package by:
//  1. Loading an experiment with config.Load (or starting from config.Default)
//  2. Creating a Simulator via New(), optionally overriding the logger or model
//  3. Calling Batch for strategy matchups or Evolve for a genetic search
//
// Single games with hand-built rosters go through PlayGame.
package resistance

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/resistance/agent"
	"github.com/hupe1980/resistance/config"
	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/engine"
	"github.com/hupe1980/resistance/evolution"
	"github.com/hupe1980/resistance/history"
	"github.com/hupe1980/resistance/logging"
	"github.com/hupe1980/resistance/model"
	"github.com/hupe1980/resistance/model/anthropic"
	"github.com/hupe1980/resistance/model/openai"
	"github.com/hupe1980/resistance/runner"
)

// Options configures the Simulator.
type Options struct {
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger

	// Model backs "model" agents. When nil and the experiment uses model
	// agents, one is built from the experiment's model settings.
	Model model.Model

	// Store records game transcripts (defaults to a bounded in-memory store).
	Store *history.InMemoryStore

	// Callbacks are registered on every game the simulator plays.
	Callbacks []engine.Callback
}

// Simulator aggregates the runner and evolution world behind one experiment.
type Simulator struct {
	cfg    *config.Config
	opts   Options
	runner *runner.Runner
}

// New validates cfg and wires a Simulator for it.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Simulator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == nil && cfg.UsesModel() {
		m, err := NewModel(cfg.Model)
		if err != nil {
			return nil, err
		}
		opts.Model = m
	}

	creator := runner.NewSquadCreator(func(o *runner.SquadOptions) {
		o.Collusion = cfg.Agents.Collusion
		o.Genetics = cfg.Agents.Genetics
		o.Penalties = cfg.Agents.Penalties
		o.Model = opts.Model
		o.FallbackKind = runner.Kind(cfg.Model.Fallback)
		o.ModelOptions = []func(*agent.ModelAgentOptions){modelAgentOptions(cfg.Model)}
		o.Logger = opts.Logger
	})

	r := runner.New(func(o *runner.Options) {
		o.Games = cfg.Games
		o.Players = cfg.Players
		o.Seed = cfg.Seed
		if cfg.Workers > 0 {
			o.Workers = cfg.Workers
		}
		o.EarlyFinish = cfg.EarlyFinish
		o.Store = opts.Store
		o.Creator = creator
		o.Callbacks = opts.Callbacks
		o.Logger = opts.Logger
	})

	return &Simulator{cfg: cfg, opts: opts, runner: r}, nil
}

// Config returns the experiment.
func (s *Simulator) Config() *config.Config { return s.cfg }

// Runner returns the underlying batch runner.
func (s *Simulator) Runner() *runner.Runner { return s.runner }

// Batch plays every configured matchup.
func (s *Simulator) Batch(ctx context.Context) (*runner.Report, error) {
	return s.runner.Run(ctx, s.cfg.RunnerMatchups()...)
}

// Evolve seeds a population and runs the configured number of generations.
func (s *Simulator) Evolve() ([]evolution.Generation, error) {
	ev := s.cfg.Evolution
	rng := rand.New(rand.NewPCG(s.cfg.Seed, s.cfg.Seed^0x9e3779b97f4a7c15))

	world := evolution.NewWorld(func(o *evolution.Options) {
		o.Rand = rng
		o.Logger = s.opts.Logger
		o.Collusion = s.cfg.Agents.Collusion
		o.Survivors = ev.Survivors
		o.Callbacks = s.opts.Callbacks
		o.Originator = evolution.NewOriginator(func(oo *evolution.OriginatorOptions) {
			oo.Rand = rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))
			if ev.Mutation > 0 {
				oo.Mutation = ev.Mutation
			}
		})
	})
	if err := world.Genesis(ev.Population); err != nil {
		return nil, err
	}
	return world.Evolve(ev.Generations, ev.Games)
}

// PlayGame plays one game with the given roster and random spies.
func (s *Simulator) PlayGame(players []core.Player, optFns ...func(o *engine.Options)) (*engine.Result, error) {
	base := []func(o *engine.Options){
		engine.WithLogger(s.opts.Logger),
		engine.WithCallbacks(append([]engine.Callback{engine.NewRecorderCallback(s.runner.Store())}, s.opts.Callbacks...)...),
	}
	if s.cfg.EarlyFinish {
		base = append(base, engine.WithEarlyFinish())
	}
	g, err := engine.NewGame(players, append(base, optFns...)...)
	if err != nil {
		return nil, err
	}
	if err := g.AllocateSpiesRandomly(); err != nil {
		return nil, err
	}
	return g.Play()
}

// Transcript returns the recorded events of a finished game.
func (s *Simulator) Transcript(gameID string) ([]core.Event, error) {
	return s.runner.Store().Transcript(gameID)
}

// NewModel builds the language model described by mc. API keys are taken
// from the provider's usual environment variable.
func NewModel(mc config.ModelConfig) (model.Model, error) {
	switch strings.ToLower(mc.Provider) {
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if mc.Name != "" {
				o.Model = anthropicsdk.Model(mc.Name)
			}
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxTokens = int64(mc.MaxTokens)
			}
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(mc.MaxTokens)
			}
		}), nil
	case "mock":
		name := mc.Name
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name, "mock"), nil
	default:
		return nil, core.NewConfigError("model", fmt.Errorf("unknown provider %q", mc.Provider))
	}
}

func modelAgentOptions(mc config.ModelConfig) func(o *agent.ModelAgentOptions) {
	return func(o *agent.ModelAgentOptions) {
		o.EnableStreaming = mc.Streaming
		if mc.Timeout > 0 {
			o.CallTimeout = mc.Timeout
		}
		o.MaxCallsPerGame = mc.MaxCallsPerGame
		o.MaxHistoryLines = mc.MaxHistoryLines
	}
}

// NewLogger builds a GameLogger from the experiment's log settings.
func NewLogger(lc config.LogConfig, w io.Writer) *logging.GameLogger {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.ParseLevel(lc.Level)
	if lc.Format != "" {
		cfg.Format = strings.ToLower(lc.Format)
	}
	cfg.AddSource = lc.AddSource
	if w != nil {
		cfg.Output = w
	}
	return logging.NewLogger(cfg)
}

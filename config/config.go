package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/resistance/agent"
	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/rules"
	"github.com/hupe1980/resistance/runner"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid experiment config")

// Mode selects what the CLI does with an experiment.
type Mode string

const (
	ModeBatch  Mode = "batch"
	ModeEvolve Mode = "evolve"
)

// LogConfig configures logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// AgentConfig holds the strategy parameters shared by every agent.
type AgentConfig struct {
	Collusion bool            `yaml:"collusion"`
	Genetics  agent.Genetics  `yaml:"genetics"`
	Penalties agent.Penalties `yaml:"penalties"`
}

// MatchupConfig is one resistance-versus-spy pairing.
type MatchupConfig struct {
	Resistance string `yaml:"resistance"`
	Spy        string `yaml:"spy"`
	Allocation string `yaml:"allocation,omitempty"`
}

// EvolutionConfig configures evolve mode.
type EvolutionConfig struct {
	Population  int     `yaml:"population"`
	Generations int     `yaml:"generations"`
	Games       int     `yaml:"games"`
	Survivors   int     `yaml:"survivors"`
	Mutation    float64 `yaml:"mutation"`
}

// ModelConfig configures the language model behind "model" agents. API keys
// are read by the provider SDKs from their usual environment variables.
type ModelConfig struct {
	Provider        string        `yaml:"provider"`
	Name            string        `yaml:"name"`
	Temperature     float64       `yaml:"temperature"`
	MaxTokens       int           `yaml:"max_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxCallsPerGame int           `yaml:"max_calls_per_game"`
	MaxHistoryLines int           `yaml:"max_history_lines"`
	Fallback        string        `yaml:"fallback"`
	Streaming       bool          `yaml:"streaming"`
}

// Config models an experiment file.
type Config struct {
	Mode        Mode            `yaml:"mode"`
	Seed        uint64          `yaml:"seed"`
	Games       int             `yaml:"games"`
	Players     []int           `yaml:"players"`
	Workers     int             `yaml:"workers"`
	EarlyFinish bool            `yaml:"early_finish"`
	CSV         string          `yaml:"csv,omitempty"`
	GamesCSV    string          `yaml:"games_csv,omitempty"`
	Log         LogConfig       `yaml:"log"`
	Agents      AgentConfig     `yaml:"agents"`
	Matchups    []MatchupConfig `yaml:"matchups"`
	Evolution   EvolutionConfig `yaml:"evolution"`
	Model       ModelConfig     `yaml:"model"`
}

// Default returns a runnable experiment: every built-in hand-written
// strategy as resistance against the Bayesian spies.
func Default() *Config {
	return &Config{
		Mode:    ModeBatch,
		Seed:    1,
		Games:   100,
		Players: []int{5, 6, 7, 8, 9, 10},
		Workers: 4,
		Log:     LogConfig{Level: "info", Format: "text"},
		Agents: AgentConfig{
			Genetics:  agent.DefaultGenetics(),
			Penalties: agent.DefaultPenalties(),
		},
		Matchups: []MatchupConfig{
			{Resistance: string(runner.KindRandom), Spy: string(runner.KindBayesian)},
			{Resistance: string(runner.KindReflex), Spy: string(runner.KindBayesian)},
			{Resistance: string(runner.KindDeterministic), Spy: string(runner.KindBayesian)},
			{Resistance: string(runner.KindSpyCatcher), Spy: string(runner.KindReflex)},
			{Resistance: string(runner.KindBayesian), Spy: string(runner.KindBayesian), Allocation: string(runner.AllocateRandom)},
		},
		Evolution: EvolutionConfig{
			Population:  5,
			Generations: 10,
			Games:       200,
			Mutation:    0.1,
		},
		Model: ModelConfig{
			Provider:        "anthropic",
			Temperature:     0.2,
			MaxTokens:       512,
			Timeout:         30 * time.Second,
			MaxCallsPerGame: 100,
			Fallback:        string(runner.KindBayesian),
		},
	}
}

// Load reads and validates an experiment file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys
// are rejected.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

var builtinKinds = []runner.Kind{
	runner.KindRandom, runner.KindBaseline, runner.KindReflex,
	runner.KindBayesian, runner.KindDeterministic, runner.KindSpyCatcher, runner.KindModel,
}

var allocations = []runner.Allocation{
	"", runner.AllocateRoles, runner.AllocateByKind, runner.AllocateRandom,
	runner.AllocateSingleSpy, runner.AllocateSingleResistance,
}

var providers = []string{"anthropic", "openai", "mock"}

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.Mode {
	case ModeBatch, ModeEvolve:
	default:
		fail("mode %q (want batch or evolve)", c.Mode)
	}
	if c.Games < 1 {
		fail("games must be positive, got %d", c.Games)
	}
	if len(c.Players) == 0 {
		fail("players must not be empty")
	}
	for _, n := range c.Players {
		if !rules.ValidPlayers(n) {
			fail("players: %v", fmt.Errorf("%w: %d", rules.ErrInvalidPlayerCount, n))
		}
	}
	if c.Workers < 0 {
		fail("workers must not be negative, got %d", c.Workers)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		fail("log.format %q (want text or json)", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		fail("log.level %q", c.Log.Level)
	}

	for name, v := range map[string]float64{
		"agents.genetics.distrust": c.Agents.Genetics.Distrust,
		"agents.genetics.vote":     c.Agents.Genetics.Vote,
		"agents.genetics.betray":   c.Agents.Genetics.Betray,
	} {
		if v < 0 || v > 1 {
			fail("%s must be in [0,1], got %g", name, v)
		}
	}
	for name, v := range map[string]float64{
		"agents.penalties.failed_mission":          c.Agents.Penalties.FailedMission,
		"agents.penalties.proposed_failed_mission": c.Agents.Penalties.ProposedFailedMission,
		"agents.penalties.vote_fail":               c.Agents.Penalties.VoteFail,
		"agents.penalties.vote_spy":                c.Agents.Penalties.VoteSpy,
		"agents.penalties.propose_suspect":         c.Agents.Penalties.ProposeSuspect,
	} {
		if v < 0 {
			fail("%s must not be negative, got %g", name, v)
		}
	}

	usesModel := false
	if c.Mode == ModeBatch && len(c.Matchups) == 0 {
		fail("matchups must not be empty in batch mode")
	}
	for i, m := range c.Matchups {
		for _, k := range []string{m.Resistance, m.Spy} {
			if !slices.Contains(builtinKinds, runner.Kind(k)) {
				fail("matchups[%d]: unknown agent kind %q", i, k)
			}
			usesModel = usesModel || runner.Kind(k) == runner.KindModel
		}
		if !slices.Contains(allocations, runner.Allocation(m.Allocation)) {
			fail("matchups[%d]: unknown allocation %q", i, m.Allocation)
		}
		rm := runner.Matchup{Resistance: runner.Kind(m.Resistance), Spy: runner.Kind(m.Spy), Allocation: runner.Allocation(m.Allocation)}
		if err := rm.Validate(); err != nil {
			fail("matchups[%d]: %v", i, err)
		}
	}

	if c.Mode == ModeEvolve {
		if !rules.ValidPlayers(c.Evolution.Population) {
			fail("evolution.population: %v", fmt.Errorf("%w: %d", rules.ErrInvalidPlayerCount, c.Evolution.Population))
		}
		if c.Evolution.Generations < 1 {
			fail("evolution.generations must be positive, got %d", c.Evolution.Generations)
		}
		if c.Evolution.Games < 1 {
			fail("evolution.games must be positive, got %d", c.Evolution.Games)
		}
		if c.Evolution.Survivors < 0 || c.Evolution.Survivors > c.Evolution.Population {
			fail("evolution.survivors must be in [0,%d], got %d", c.Evolution.Population, c.Evolution.Survivors)
		}
		if c.Evolution.Mutation < 0 || c.Evolution.Mutation > 1 {
			fail("evolution.mutation must be in [0,1], got %g", c.Evolution.Mutation)
		}
	}

	if usesModel {
		if !slices.Contains(providers, c.Model.Provider) {
			fail("model.provider %q (want one of %s)", c.Model.Provider, strings.Join(providers, ", "))
		}
		if k := runner.Kind(c.Model.Fallback); k == runner.KindModel || !slices.Contains(builtinKinds, k) {
			fail("model.fallback %q must be a hand-written agent kind", c.Model.Fallback)
		}
		if c.Model.Timeout < 0 || c.Model.MaxCallsPerGame < 0 || c.Model.MaxTokens < 0 {
			fail("model limits must not be negative")
		}
	}

	if len(errs) > 0 {
		return core.NewConfigError("config", errors.Join(errs...))
	}
	return nil
}

// RunnerMatchups converts the configured matchups.
func (c *Config) RunnerMatchups() []runner.Matchup {
	out := make([]runner.Matchup, len(c.Matchups))
	for i, m := range c.Matchups {
		out[i] = runner.Matchup{
			Resistance: runner.Kind(m.Resistance),
			Spy:        runner.Kind(m.Spy),
			Allocation: runner.Allocation(m.Allocation),
		}
	}
	return out
}

// UsesModel reports whether any matchup needs a language model.
func (c *Config) UsesModel() bool {
	for _, m := range c.Matchups {
		if m.Resistance == string(runner.KindModel) || m.Spy == string(runner.KindModel) {
			return true
		}
	}
	return false
}

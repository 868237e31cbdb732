package agent

import (
	"fmt"
	"math/rand/v2"

	"github.com/hupe1980/resistance/logging"
)

// DefaultGene is the neutral value of every Genetics field.
const DefaultGene = 0.65

// Genetics are the evolvable thresholds of a strategy.
//
//   - Distrust: distrust above which a player is treated as a suspect
//   - Vote: distrust of any team member above which a resistance member rejects
//   - Betray: probability floor a spy must beat before betraying an all-spy team
type Genetics struct {
	Distrust float64 `yaml:"distrust" json:"distrust"`
	Vote     float64 `yaml:"vote" json:"vote"`
	Betray   float64 `yaml:"betray" json:"betray"`
}

// DefaultGenetics returns the neutral genetics.
func DefaultGenetics() Genetics {
	return Genetics{Distrust: DefaultGene, Vote: DefaultGene, Betray: DefaultGene}
}

func (g Genetics) String() string {
	return fmt.Sprintf("Distrust %.4f | Vote %.4f | Betray %.4f", g.Distrust, g.Vote, g.Betray)
}

// Penalties weight how strongly observed actions move distrust.
type Penalties struct {
	// FailedMission scales distrust changes for mission members.
	FailedMission float64 `yaml:"failed_mission" json:"failed_mission"`
	// ProposedFailedMission is added to the proposer of a failed mission.
	ProposedFailedMission float64 `yaml:"proposed_failed_mission" json:"proposed_failed_mission"`
	// VoteFail punishes rejecting the final proposal of a round.
	VoteFail float64 `yaml:"vote_fail" json:"vote_fail"`
	// VoteSpy punishes approving a team with a confirmed spy.
	VoteSpy float64 `yaml:"vote_spy" json:"vote_spy"`
	// ProposeSuspect punishes proposing a team with the prime suspect.
	ProposeSuspect float64 `yaml:"propose_suspect" json:"propose_suspect"`
}

// DefaultPenalties returns the hand-tuned penalties.
func DefaultPenalties() Penalties {
	return Penalties{
		FailedMission:         0.1,
		ProposedFailedMission: 0.05,
		VoteFail:              0.3,
		VoteSpy:               0.05,
		ProposeSuspect:        0.05,
	}
}

func (p Penalties) String() string {
	return fmt.Sprintf("On Failed: %.4f | Propose Failed: %.4f | Aborting Vote: %.4f | Suspect Vote: %.4f | Propose Suspect: %.4f",
		p.FailedMission, p.ProposedFailedMission, p.VoteFail, p.VoteSpy, p.ProposeSuspect)
}

// Options configures a strategy using the functional options pattern. Each
// strategy reads the fields it needs and ignores the rest.
type Options struct {
	// Rand drives every random decision. Defaults to an unseeded PCG source.
	Rand *rand.Rand

	// Logger receives decision traces at debug level. Defaults to NoOp logger.
	Logger logging.Logger

	// Collusion lets spies agree ex ante that the highest seated spy on a
	// mission betrays alone.
	Collusion bool

	Genetics  Genetics
	Penalties Penalties
}

// WithRand sets the strategy's random source.
func WithRand(r *rand.Rand) func(o *Options) {
	return func(o *Options) { o.Rand = r }
}

// WithLogger sets the strategy's logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithCollusion enables or disables collusion mode.
func WithCollusion(on bool) func(o *Options) {
	return func(o *Options) { o.Collusion = on }
}

// WithGenetics sets the evolvable thresholds.
func WithGenetics(g Genetics) func(o *Options) {
	return func(o *Options) { o.Genetics = g }
}

// WithPenalties sets the distrust penalties.
func WithPenalties(p Penalties) func(o *Options) {
	return func(o *Options) { o.Penalties = p }
}

func resolveOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Genetics:  DefaultGenetics(),
		Penalties: DefaultPenalties(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return opts
}

package evolution

import (
	"math/rand/v2"

	"github.com/hupe1980/resistance/agent"
	"github.com/hupe1980/resistance/core"
)

// DefaultMutation is the maximum change applied to a gene per generation.
const DefaultMutation = 0.1

// Specimen is one member of the population: a parameter set plus lineage.
type Specimen struct {
	ID         string          `json:"id" yaml:"id"`
	Parent     string          `json:"parent,omitempty" yaml:"parent,omitempty"`
	Generation int             `json:"generation" yaml:"generation"`
	Genetics   agent.Genetics  `json:"genetics" yaml:"genetics"`
	Penalties  agent.Penalties `json:"penalties" yaml:"penalties"`
}

// NewAgent builds a BayesianAgent carrying the specimen's parameters.
func (s Specimen) NewAgent(name string, optFns ...func(o *agent.Options)) *agent.BayesianAgent {
	optFns = append(optFns, agent.WithGenetics(s.Genetics), agent.WithPenalties(s.Penalties))
	return agent.NewBayesianAgent(name, optFns...)
}

// OriginatorOptions configures an Originator.
type OriginatorOptions struct {
	Rand *rand.Rand
	// Mutation bounds the uniform change applied to every gene by Evolve.
	Mutation float64
}

// Originator seeds and mutates specimens.
type Originator struct {
	rng      *rand.Rand
	mutation float64
}

// NewOriginator creates an Originator.
func NewOriginator(optFns ...func(o *OriginatorOptions)) *Originator {
	opts := OriginatorOptions{Mutation: DefaultMutation}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Originator{rng: opts.Rand, mutation: opts.Mutation}
}

// Create seeds a specimen with uniformly random genes and penalties.
func (o *Originator) Create() Specimen {
	return Specimen{
		ID: core.NewID(),
		Genetics: agent.Genetics{
			Distrust: o.rng.Float64(),
			Vote:     o.rng.Float64(),
			Betray:   o.rng.Float64(),
		},
		Penalties: agent.Penalties{
			FailedMission:         o.rng.Float64(),
			ProposedFailedMission: o.rng.Float64(),
			VoteFail:              o.rng.Float64(),
			VoteSpy:               o.rng.Float64(),
			ProposeSuspect:        o.rng.Float64(),
		},
	}
}

// Evolve returns a child of parent whose genes are each shifted by a
// uniform amount in [-Mutation, +Mutation] and clamped to [0,1]. Penalties
// are inherited unchanged.
func (o *Originator) Evolve(parent Specimen) Specimen {
	return Specimen{
		ID:         core.NewID(),
		Parent:     parent.ID,
		Generation: parent.Generation + 1,
		Genetics: agent.Genetics{
			Distrust: o.mutate(parent.Genetics.Distrust),
			Vote:     o.mutate(parent.Genetics.Vote),
			Betray:   o.mutate(parent.Genetics.Betray),
		},
		Penalties: parent.Penalties,
	}
}

func (o *Originator) mutate(gene float64) float64 {
	delta := (o.rng.Float64()*2 - 1) * o.mutation
	return min(max(gene+delta, 0), 1)
}

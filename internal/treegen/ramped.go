package treegen

import (
	"fmt"
	"math"
	"math/rand"

	"treegp/internal/genome"
	"treegp/internal/grammar"
)

// Options control population initialization.
type Options struct {
	PopulationSize int
	MaxTreeDepth   int
}

// Initializer emits an initial population of genomes to a sink.
type Initializer interface {
	Initialize(opts Options, sink func(genome.Tree)) error
}

// RampedDelegate can take over emission of individual trees, typically to
// pin a specific root function or root type. Returning true means the
// delegate produced the tree itself.
type RampedDelegate interface {
	GenerateFull(gen *Generator, b *genome.Builder, maxDepth int) (bool, error)
	GenerateGrow(gen *Generator, b *genome.Builder, maxDepth int) (bool, error)
}

// RampedHalfAndHalf initializes a population with target depths ramping
// linearly from 1 towards the depth limit; the first half of the population
// is built with the Full strategy, the second half with Grow.
type RampedHalfAndHalf struct {
	gen      *Generator
	delegate RampedDelegate
}

// NewRampedHalfAndHalf returns a ramped half-and-half initializer. The
// delegate may be nil.
func NewRampedHalfAndHalf(g *grammar.Grammar, rng *rand.Rand, delegate RampedDelegate) (*RampedHalfAndHalf, error) {
	gen, err := NewGenerator(g, rng)
	if err != nil {
		return nil, err
	}
	return &RampedHalfAndHalf{gen: gen, delegate: delegate}, nil
}

// Initialize emits opts.PopulationSize genomes to the sink.
func (r *RampedHalfAndHalf) Initialize(opts Options, sink func(genome.Tree)) error {
	if opts.PopulationSize == 0 {
		return fmt.Errorf("treegen: population size is required")
	}
	size := opts.PopulationSize
	depthDelta := float64(opts.MaxTreeDepth) / (float64(size) / 2)

	emit := func(depth int, full bool) error {
		var t genome.Tree
		b := genome.NewBuilder(&t)
		handled := false
		var err error
		if r.delegate != nil {
			if full {
				handled, err = r.delegate.GenerateFull(r.gen, b, depth)
			} else {
				handled, err = r.delegate.GenerateGrow(r.gen, b, depth)
			}
			if err != nil {
				return err
			}
		}
		if !handled {
			if full {
				err = r.gen.GenerateFull(b, depth, grammar.InvalidType)
			} else {
				err = r.gen.GenerateGrow(b, depth, grammar.InvalidType)
			}
			if err != nil {
				return err
			}
		}
		sink(t)
		return nil
	}

	i := 0
	depth := 1.0
	for ; i < size/2; i, depth = i+1, depth+depthDelta {
		if err := emit(int(math.Floor(depth)), true); err != nil {
			return err
		}
	}
	depth = 1.0
	for ; i < size; i, depth = i+1, depth+depthDelta {
		if err := emit(int(math.Floor(depth)), false); err != nil {
			return err
		}
	}
	return nil
}

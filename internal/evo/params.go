// Package evo runs the evolutionary loop over a population of GP genomes:
// tournament selection with elitism, type-aware subtree crossover and
// subtree mutation.
package evo

import (
	"fmt"
	"math/rand"
)

// Parameters control the evolutionary process. The RNG is the single source
// of randomness for selection, mutation and crossover; runs are
// bit-reproducible for a fixed seed as long as nobody else advances it.
type Parameters struct {
	RNG           *rand.Rand
	MutationRate  float64
	CrossoverRate float64
}

// NewParameters returns seeded parameters with validated rates.
func NewParameters(seed int64, mutationRate, crossoverRate float64) (*Parameters, error) {
	if mutationRate < 0 {
		return nil, fmt.Errorf("evo: mutation rate must be >= 0, got %v", mutationRate)
	}
	if crossoverRate < 0 {
		return nil, fmt.Errorf("evo: crossover rate must be >= 0, got %v", crossoverRate)
	}
	if mutationRate+crossoverRate > 1 {
		return nil, fmt.Errorf("evo: mutation rate + crossover rate must be <= 1, got %v", mutationRate+crossoverRate)
	}
	return &Parameters{
		RNG:           rand.New(rand.NewSource(seed)),
		MutationRate:  mutationRate,
		CrossoverRate: crossoverRate,
	}, nil
}

package evo

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"treegp/internal/genome"
	"treegp/internal/grammar"
	"treegp/internal/render"
	"treegp/internal/treegen"
)

// ErrNoTypeMatch is reported when a crossover partner has no node of the
// required type. The failure is recovered locally: the pair is left
// unchanged and the loop proceeds.
var ErrNoTypeMatch = errors.New("evo: partner has no node of matching type")

// Delegate supplies the host-side logic the evolution loop depends on.
type Delegate interface {
	// ComputeFitness fills fitnesses, one score per individual.
	ComputeFitness(individuals []genome.Tree, fitnesses []float64) error
	// GenerateRandomTreeOfType returns a fresh subtree whose root has the
	// given result type; used by subtree mutation.
	GenerateRandomTreeOfType(typ grammar.TypeID) (genome.Tree, error)
	// Grammar returns the grammar the genomes are drawn from.
	Grammar() *grammar.Grammar
}

// PrinterProvider is an optional Delegate extension supplying a custom
// terminal renderer for dumps.
type PrinterProvider interface {
	PrinterDelegate() render.PrinterDelegate
}

// Config assembles a population.
type Config struct {
	Size     int
	Params   *Parameters
	Delegate Delegate
	// Logger receives crossover failures and generation summaries.
	// Defaults to a no-op logger.
	Logger *zap.Logger
}

// Population holds the individuals of one evolving population and their
// fitness scores. Individuals are owned exclusively by their slot.
type Population struct {
	individuals []genome.Tree
	fitnesses   []float64
	params      *Parameters
	delegate    Delegate
	logger      *zap.Logger

	generation          int
	evaluatedGeneration int
	bestIndex           int
}

// NewPopulation validates the configuration and returns an empty population
// ready to be initialized.
func NewPopulation(cfg Config) (*Population, error) {
	if cfg.Size == 0 {
		return nil, fmt.Errorf("evo: population size must be > 0")
	}
	if cfg.Params == nil || cfg.Params.RNG == nil {
		return nil, fmt.Errorf("evo: parameters with a random source are required")
	}
	if cfg.Delegate == nil {
		return nil, fmt.Errorf("evo: delegate is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Population{
		fitnesses:           make([]float64, cfg.Size),
		params:              cfg.Params,
		delegate:            cfg.Delegate,
		logger:              logger,
		evaluatedGeneration: -1,
	}, nil
}

// Len returns the population size.
func (p *Population) Len() int { return len(p.fitnesses) }

// Generation returns the current generation number, starting at 0.
func (p *Population) Generation() int { return p.generation }

// Individual returns the genome at index i for reading.
func (p *Population) Individual(i int) *genome.Tree {
	return &p.individuals[i]
}

// Initialize fills the population using the given initializer.
func (p *Population) Initialize(maxDepth int, init treegen.Initializer) error {
	opts := treegen.Options{
		PopulationSize: len(p.fitnesses),
		MaxTreeDepth:   maxDepth,
	}
	if err := init.Initialize(opts, func(t genome.Tree) {
		p.individuals = append(p.individuals, t)
	}); err != nil {
		return fmt.Errorf("evo: initialize population: %w", err)
	}
	if len(p.individuals) != len(p.fitnesses) {
		return fmt.Errorf("evo: initializer emitted %d genomes, want %d", len(p.individuals), len(p.fitnesses))
	}
	return nil
}

// EvaluateGeneration asks the delegate for fitnesses, at most once per
// generation, and returns the index of the best individual.
func (p *Population) EvaluateGeneration() (int, error) {
	if p.evaluatedGeneration == p.generation {
		return p.bestIndex, nil
	}
	if err := p.delegate.ComputeFitness(p.individuals, p.fitnesses); err != nil {
		return 0, fmt.Errorf("evo: compute fitness for generation %d: %w", p.generation, err)
	}
	best := 0
	for i := 1; i < len(p.fitnesses); i++ {
		if p.fitnesses[i] > p.fitnesses[best] {
			best = i
		}
	}
	p.bestIndex = best
	p.evaluatedGeneration = p.generation
	return best, nil
}

// Stats summarizes the current generation's fitness scores.
type Stats struct {
	AverageFitness float64
	BestFitness    float64
	BestIndex      int
}

// GetStats computes statistics from the current fitness scores.
func (p *Population) GetStats() Stats {
	var stats Stats
	stats.BestFitness = p.fitnesses[0]
	for i, fitness := range p.fitnesses {
		stats.AverageFitness += fitness
		if fitness > stats.BestFitness {
			stats.BestFitness = fitness
			stats.BestIndex = i
		}
	}
	stats.AverageFitness /= float64(len(p.fitnesses))
	return stats
}

func (p *Population) selectRandomNode(g *genome.Tree) int {
	return p.params.RNG.Intn(g.NodeCount())
}

// mutate replaces a uniformly chosen subtree with a freshly generated tree
// of the same result type.
func (p *Population) mutate(g *genome.Tree) error {
	nodeID := p.selectRandomNode(g)
	gr := p.delegate.Grammar()
	typ := gr.DefinitionForValue(g.At(nodeID).Value).Type
	sub, err := p.delegate.GenerateRandomTreeOfType(typ)
	if err != nil {
		return fmt.Errorf("evo: generate mutation subtree: %w", err)
	}
	return g.Replace(nodeID, &sub)
}

// selectRandomNodeWithType returns a uniformly chosen node index whose
// definition has the given result type.
func (p *Population) selectRandomNodeWithType(g *genome.Tree, typ grammar.TypeID) (int, bool) {
	gr := p.delegate.Grammar()
	var nodes []int
	for i := 0; i < g.NodeCount(); i++ {
		if gr.DefinitionForValue(g.At(i).Value).Type == typ {
			nodes = append(nodes, i)
		}
	}
	if len(nodes) == 0 {
		return 0, false
	}
	return nodes[p.params.RNG.Intn(len(nodes))], true
}

// crossover swaps the subtree of g at index i with a same-typed subtree of
// other. ErrNoTypeMatch is returned when other has no node of the type.
func (p *Population) crossover(g *genome.Tree, i int, typ grammar.TypeID, other *genome.Tree) error {
	j, ok := p.selectRandomNodeWithType(other, typ)
	if !ok {
		return ErrNoTypeMatch
	}
	x, err := g.Subtree(i)
	if err != nil {
		return err
	}
	y, err := other.Subtree(j)
	if err != nil {
		return err
	}
	if err := g.Replace(i, &y); err != nil {
		return err
	}
	return other.Replace(j, &x)
}

// NextGeneration rewrites the population: the best individual seeds two
// elite slots up front, tournament selection fills all but one of the rest,
// the variation pass applies mutation and crossover in place (the elites
// included), and one pristine copy of the best individual is appended last.
func (p *Population) NextGeneration() error {
	best, err := p.EvaluateGeneration()
	if err != nil {
		return err
	}
	size := len(p.individuals)
	if size < 3 {
		return fmt.Errorf("evo: population of %d is too small to evolve", size)
	}

	newGen := make([]genome.Tree, 0, size)
	newGen = append(newGen, p.individuals[best].Copy(), p.individuals[best].Copy())
	for i := 0; i < size-3; i++ {
		newGen = append(newGen, p.individuals[tournamentPick(p.params.RNG, p.fitnesses)].Copy())
	}

	for i := 0; i < len(newGen); i++ {
		pr := p.params.RNG.Float64()
		switch {
		case pr <= p.params.MutationRate:
			if err := p.mutate(&newGen[i]); err != nil {
				return fmt.Errorf("evo: mutate in generation %d: %w", p.generation, err)
			}
		case pr <= p.params.MutationRate+p.params.CrossoverRate:
			next := i + 1
			if next == len(newGen) {
				next = p.params.RNG.Intn(len(newGen))
				if next == i {
					next = i - 1
				}
			}
			nodeID := p.selectRandomNode(&newGen[i])
			typ := p.delegate.Grammar().DefinitionForValue(newGen[i].At(nodeID).Value).Type
			if err := p.crossover(&newGen[i], nodeID, typ, &newGen[next]); err != nil {
				if !errors.Is(err, ErrNoTypeMatch) {
					return fmt.Errorf("evo: crossover in generation %d: %w", p.generation, err)
				}
				p.logger.Warn("crossover failed: no node of matching type in partner",
					zap.Int("generation", p.generation),
					zap.Int("individual", i),
					zap.Int("partner", next))
			}
			// Both partners are consumed.
			i++
		}
	}

	newGen = append(newGen, p.individuals[best].Copy())
	p.individuals = newGen
	p.generation++

	p.logger.Debug("advanced generation",
		zap.Int("generation", p.generation),
		zap.Int("population", len(p.individuals)))
	return nil
}

// Dump writes a generation summary, and optionally every individual, as
// S-expressions.
func (p *Population) Dump(w io.Writer, printIndividuals bool) error {
	stats := p.GetStats()
	var printerDelegate render.PrinterDelegate
	if provider, ok := p.delegate.(PrinterProvider); ok {
		printerDelegate = provider.PrinterDelegate()
	}
	printer := render.NewPrinter(p.delegate.Grammar(), printerDelegate)

	fmt.Fprintln(w, "-----")
	fmt.Fprintf(w, "Generation:\t%d\n", p.generation)
	fmt.Fprintf(w, "Average fitness:\t%g\n", stats.AverageFitness)
	fmt.Fprintf(w, "Best fitness:\t%g\n", stats.BestFitness)
	fmt.Fprint(w, "Best individual:\t")
	if err := printer.Print(&p.individuals[stats.BestIndex], w); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if printIndividuals {
		for i := range p.individuals {
			fmt.Fprintf(w, "\t#%d:\t", i)
			if err := printer.Print(&p.individuals[i], w); err != nil {
				return err
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w, "-----")
	return nil
}

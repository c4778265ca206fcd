package problem

import (
	"fmt"
	"io"
	"math"

	"treegp/internal/eval"
	"treegp/internal/evo"
	"treegp/internal/genome"
	"treegp/internal/grammar"
	"treegp/internal/render"
	"treegp/internal/treegen"
)

func init() {
	p, err := newFunctionProblem()
	if err != nil {
		panic(err)
	}
	mustRegister(p)
}

// functionTarget is the function the run tries to rediscover:
// (+ (* $0 $1) (- $1 (* $0 $0)))
func functionTarget(x, y int) int {
	return x*y + (y - x*x)
}

var functionCases = [][2]int{
	{1, 2}, {4, 5}, {6, 7}, {8, 9}, {10, 11}, {45, 11}, {450, 660}, {2017, 13},
}

const functionParameterCount = 2

// functionProblem is single-target symbolic regression over integers. The
// "parameter" terminal spreads its weight range across the parameter
// indices, so the node code itself selects which parameter a leaf reads.
type functionProblem struct {
	grammar   *grammar.Grammar
	parameter grammar.Definition
	one       grammar.Definition
	add       grammar.Definition
	sub       grammar.Definition
	mul       grammar.Definition
}

func newFunctionProblem() (*functionProblem, error) {
	intType := grammar.NewType("int")
	g, err := grammar.New([]grammar.Type{intType}, []grammar.Spec{
		grammar.Terminal("parameter", intType, 50),
		grammar.Terminal("1", intType, 50),
		grammar.Binary("+", intType, [2]grammar.Type{intType, intType}, 50),
		grammar.Binary("-", intType, [2]grammar.Type{intType, intType}, 50),
		grammar.Binary("*", intType, [2]grammar.Type{intType, intType}, 50),
	})
	if err != nil {
		return nil, fmt.Errorf("problem: build function grammar: %w", err)
	}
	return &functionProblem{
		grammar:   g,
		parameter: g.MustDefinition("parameter"),
		one:       g.MustDefinition("1"),
		add:       g.MustDefinition("+"),
		sub:       g.MustDefinition("-"),
		mul:       g.MustDefinition("*"),
	}, nil
}

func (p *functionProblem) Name() string { return "function" }

func (p *functionProblem) Description() string {
	return "rediscover x*y + (y - x*x) from sampled points"
}

func (p *functionProblem) Grammar() *grammar.Grammar { return p.grammar }

// parameterID maps a parameter-terminal node code to the parameter index it
// reads; each parameter owns an equal slice of the definition's code range.
func (p *functionProblem) parameterID(node genome.Node) int {
	offset := int(node.Value - p.parameter.NodeValue)
	return offset / (int(p.parameter.Weight) / functionParameterCount)
}

func (p *functionProblem) NewDelegate(params *evo.Parameters) (evo.Delegate, error) {
	gen, err := treegen.NewGenerator(p.grammar, params.RNG)
	if err != nil {
		return nil, err
	}
	cache, err := newFitnessCache()
	if err != nil {
		return nil, err
	}
	return &functionDelegate{problem: p, gen: gen, cache: cache}, nil
}

func (p *functionProblem) NewInitializer(params *evo.Parameters) (treegen.Initializer, error) {
	return treegen.NewRampedHalfAndHalf(p.grammar, params.RNG, nil)
}

type functionDelegate struct {
	problem *functionProblem
	gen     *treegen.Generator
	cache   *fitnessCache
}

func (d *functionDelegate) Grammar() *grammar.Grammar { return d.problem.grammar }

func (d *functionDelegate) GenerateRandomTreeOfType(typ grammar.TypeID) (genome.Tree, error) {
	return d.gen.GenerateTree(2, treegen.Grow, typ)
}

func (d *functionDelegate) evaluate(t *genome.Tree, parameters [2]int) int {
	p := d.problem
	e := eval.New(p.grammar, eval.Callbacks[int]{
		Terminal: func(id int, node genome.Node) int {
			if id == p.parameter.ID {
				return parameters[p.parameterID(node)]
			}
			return 1
		},
		Binary: func(id int, _ genome.Node, x, y int) int {
			switch id {
			case p.add.ID:
				return x + y
			case p.sub.ID:
				return x - y
			default:
				return x * y
			}
		},
	})
	return e.Evaluate(t)
}

func (d *functionDelegate) fitnessFor(t *genome.Tree) float64 {
	if fitness, ok := d.cache.get(t); ok {
		return fitness
	}
	fitness := 0.0
	for _, c := range functionCases {
		expected := functionTarget(c[0], c[1])
		answer := d.evaluate(t, c)
		fitness += 1.0 - math.Abs(float64(answer-expected))/1000.0
	}
	fitness /= float64(len(functionCases))
	// Penalize large trees.
	fitness -= math.Log10(math.Ceil(float64(t.NodeCount()) / 30.0))
	d.cache.put(t, fitness)
	return fitness
}

func (d *functionDelegate) ComputeFitness(individuals []genome.Tree, fitnesses []float64) error {
	for i := range individuals {
		fitnesses[i] = d.fitnessFor(&individuals[i])
	}
	return nil
}

// PrinterDelegate renders parameter terminals as $0, $1, ...
func (d *functionDelegate) PrinterDelegate() render.PrinterDelegate {
	return parameterPrinter{problem: d.problem}
}

type parameterPrinter struct {
	problem *functionProblem
}

func (p parameterPrinter) PrintTerminal(def grammar.Definition, node genome.Node, w io.Writer) (bool, error) {
	if def.ID != p.problem.parameter.ID {
		return false, nil
	}
	_, err := fmt.Fprintf(w, "$%d", p.problem.parameterID(node))
	return true, err
}

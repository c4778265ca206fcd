package problem

import (
	"fmt"
	"math"

	"treegp/internal/eval"
	"treegp/internal/evo"
	"treegp/internal/genome"
	"treegp/internal/grammar"
	"treegp/internal/treegen"
)

func init() {
	p, err := newMultiFunctionProblem()
	if err != nil {
		panic(err)
	}
	mustRegister(p)
}

func multiBase(x, y int) int {
	return x*y - (y*y + x)
}

// multiTarget composes the helper with itself; an individual has to evolve
// both a base function and a main expression that calls it.
func multiTarget(x, y int) int {
	return multiBase(x+1+1, multiBase(x, y)) - multiBase(y, x*y)
}

var multiCases = [][2]int{
	{1, 2}, {4, 5}, {6, 7}, {8, 9}, {10, 11}, {45, 11}, {450, 660}, {2017, 13},
}

// multiFunctionProblem evolves a two-part genome rooted at "functions": the
// first child is a helper function over its own parameters u and v, the
// second is the main expression, whose "call" nodes invoke the helper.
type multiFunctionProblem struct {
	grammar *grammar.Grammar
	setType grammar.TypeID

	x, y, one           grammar.Definition
	add, sub, mul, call grammar.Definition
	u, v, unit          grammar.Definition
	uadd, usub, umul    grammar.Definition
	functions           grammar.Definition
}

func newMultiFunctionProblem() (*multiFunctionProblem, error) {
	baseType := grammar.NewType("int-base")
	fnType := grammar.NewType("int")
	setType := grammar.NewType("function-set")
	g, err := grammar.New([]grammar.Type{baseType, fnType, setType}, []grammar.Spec{
		grammar.Terminal("x", fnType, 25),
		grammar.Terminal("y", fnType, 25),
		grammar.Terminal("1", fnType, 50),
		grammar.Binary("+", fnType, [2]grammar.Type{fnType, fnType}, 50),
		grammar.Binary("-", fnType, [2]grammar.Type{fnType, fnType}, 50),
		grammar.Binary("*", fnType, [2]grammar.Type{fnType, fnType}, 50),
		grammar.Binary("call", fnType, [2]grammar.Type{fnType, fnType}, 200),

		grammar.Terminal("u", baseType, 25),
		grammar.Terminal("v", baseType, 25),
		grammar.Terminal("unit", baseType, 50),
		grammar.Binary("add", baseType, [2]grammar.Type{baseType, baseType}, 50),
		grammar.Binary("sub", baseType, [2]grammar.Type{baseType, baseType}, 50),
		grammar.Binary("mul", baseType, [2]grammar.Type{baseType, baseType}, 50),

		grammar.Binary("functions", setType, [2]grammar.Type{baseType, fnType}, 50),
	})
	if err != nil {
		return nil, fmt.Errorf("problem: build multifunction grammar: %w", err)
	}
	st, _ := g.TypeByName("function-set")
	return &multiFunctionProblem{
		grammar:   g,
		setType:   st,
		x:         g.MustDefinition("x"),
		y:         g.MustDefinition("y"),
		one:       g.MustDefinition("1"),
		add:       g.MustDefinition("+"),
		sub:       g.MustDefinition("-"),
		mul:       g.MustDefinition("*"),
		call:      g.MustDefinition("call"),
		u:         g.MustDefinition("u"),
		v:         g.MustDefinition("v"),
		unit:      g.MustDefinition("unit"),
		uadd:      g.MustDefinition("add"),
		usub:      g.MustDefinition("sub"),
		umul:      g.MustDefinition("mul"),
		functions: g.MustDefinition("functions"),
	}, nil
}

func (p *multiFunctionProblem) Name() string { return "multifunction" }

func (p *multiFunctionProblem) Description() string {
	return "co-evolve a helper function and a main expression calling it"
}

func (p *multiFunctionProblem) Grammar() *grammar.Grammar { return p.grammar }

func (p *multiFunctionProblem) NewDelegate(params *evo.Parameters) (evo.Delegate, error) {
	gen, err := treegen.NewGenerator(p.grammar, params.RNG)
	if err != nil {
		return nil, err
	}
	cache, err := newFitnessCache()
	if err != nil {
		return nil, err
	}
	return &multiFunctionDelegate{problem: p, gen: gen, cache: cache}, nil
}

func (p *multiFunctionProblem) NewInitializer(params *evo.Parameters) (treegen.Initializer, error) {
	return treegen.NewRampedHalfAndHalf(p.grammar, params.RNG, typedRootDelegate{rootType: p.setType})
}

// typedRootDelegate forces every initial genome to be rooted in a given
// type instead of the global definition set.
type typedRootDelegate struct {
	rootType grammar.TypeID
}

func (d typedRootDelegate) GenerateFull(gen *treegen.Generator, b *genome.Builder, maxDepth int) (bool, error) {
	if err := gen.GenerateFull(b, maxDepth, d.rootType); err != nil {
		return false, err
	}
	return true, nil
}

func (d typedRootDelegate) GenerateGrow(gen *treegen.Generator, b *genome.Builder, maxDepth int) (bool, error) {
	if err := gen.GenerateGrow(b, maxDepth, d.rootType); err != nil {
		return false, err
	}
	return true, nil
}

type multiFunctionDelegate struct {
	problem *multiFunctionProblem
	gen     *treegen.Generator
	cache   *fitnessCache
}

func (d *multiFunctionDelegate) Grammar() *grammar.Grammar { return d.problem.grammar }

func (d *multiFunctionDelegate) GenerateRandomTreeOfType(typ grammar.TypeID) (genome.Tree, error) {
	return d.gen.GenerateTree(2, treegen.Grow, typ)
}

// evaluateBase computes the helper function body for one call.
func (d *multiFunctionDelegate) evaluateBase(base genome.Node, bu, bv int) int {
	p := d.problem
	e := eval.New(p.grammar, eval.Callbacks[int]{
		Terminal: func(id int, _ genome.Node) int {
			switch id {
			case p.u.ID:
				return bu
			case p.v.ID:
				return bv
			default:
				return 1
			}
		},
		Binary: func(id int, _ genome.Node, x, y int) int {
			switch id {
			case p.uadd.ID:
				return x + y
			case p.usub.ID:
				return x - y
			default:
				return x * y
			}
		},
	})
	return e.EvaluateNode(base)
}

func (d *multiFunctionDelegate) evaluate(t *genome.Tree, px, py int) (int, error) {
	p := d.problem
	root := t.Root()
	rootDef := p.grammar.DefinitionForValue(root.Value)
	if rootDef.ID != p.functions.ID {
		return 0, fmt.Errorf("problem: genome root is %q, want %q", rootDef.Name, p.functions.Name)
	}
	base := root.Child(0)
	main := root.Child(1)

	e := eval.New(p.grammar, eval.Callbacks[int]{
		Terminal: func(id int, _ genome.Node) int {
			switch id {
			case p.x.ID:
				return px
			case p.y.ID:
				return py
			default:
				return 1
			}
		},
		Binary: func(id int, _ genome.Node, x, y int) int {
			switch id {
			case p.add.ID:
				return x + y
			case p.sub.ID:
				return x - y
			case p.call.ID:
				return d.evaluateBase(base, x, y)
			default:
				return x * y
			}
		},
	})
	return e.EvaluateNode(main), nil
}

func (d *multiFunctionDelegate) fitnessFor(t *genome.Tree) (float64, error) {
	if fitness, ok := d.cache.get(t); ok {
		return fitness, nil
	}
	fitness := 0.0
	for _, c := range multiCases {
		expected := multiTarget(c[0], c[1])
		answer, err := d.evaluate(t, c[0], c[1])
		if err != nil {
			return 0, err
		}
		fitness += 1.0 - math.Abs(float64(answer-expected))/1000.0
	}
	fitness /= float64(len(multiCases))
	fitness -= math.Log10(math.Ceil(float64(t.NodeCount()) / 30.0))
	d.cache.put(t, fitness)
	return fitness, nil
}

func (d *multiFunctionDelegate) ComputeFitness(individuals []genome.Tree, fitnesses []float64) error {
	for i := range individuals {
		fitness, err := d.fitnessFor(&individuals[i])
		if err != nil {
			return err
		}
		fitnesses[i] = fitness
	}
	return nil
}

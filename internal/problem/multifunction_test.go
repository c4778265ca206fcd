package problem

import (
	"testing"

	"treegp/internal/evo"
	"treegp/internal/genome"
	"treegp/internal/treegen"
)

func TestMultiFunctionGenomesStayRootedInFunctionSet(t *testing.T) {
	p, err := Resolve("multifunction")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	mp := p.(*multiFunctionProblem)

	params, err := evo.NewParameters(11, 0.1, 0.5)
	if err != nil {
		t.Fatalf("new parameters: %v", err)
	}
	init, err := p.NewInitializer(params)
	if err != nil {
		t.Fatalf("new initializer: %v", err)
	}

	count := 0
	opts := treegen.Options{PopulationSize: 20, MaxTreeDepth: 6}
	err = init.Initialize(opts, func(tr genome.Tree) {
		count++
		rootDef := mp.grammar.DefinitionForValue(tr.Root().Value)
		if rootDef.ID != mp.functions.ID {
			t.Fatalf("genome rooted at %q, want %q", rootDef.Name, mp.functions.Name)
		}
		if tr.Root().Len() != 2 {
			t.Fatalf("root has %d children, want 2", tr.Root().Len())
		}
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if count != 20 {
		t.Fatalf("emitted %d genomes, want 20", count)
	}
}

func TestMultiFunctionExactSolutionIsPerfect(t *testing.T) {
	p, err := Resolve("multifunction")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	mp := p.(*multiFunctionProblem)

	// Helper: u*v - (v*v + u); main: call(x+1+1, call(x, y)) - call(y, x*y).
	var tr genome.Tree
	b := genome.NewBuilder(&tr)
	b.Push(mp.functions.NodeValue)
	{
		b.Push(mp.usub.NodeValue)
		b.Push(mp.umul.NodeValue)
		b.Add(mp.u.NodeValue)
		b.Add(mp.v.NodeValue)
		b.Pop()
		b.Push(mp.uadd.NodeValue)
		b.Push(mp.umul.NodeValue)
		b.Add(mp.v.NodeValue)
		b.Add(mp.v.NodeValue)
		b.Pop()
		b.Add(mp.u.NodeValue)
		b.Pop()
		b.Pop()
	}
	{
		b.Push(mp.sub.NodeValue)
		b.Push(mp.call.NodeValue)
		b.Push(mp.add.NodeValue)
		b.Push(mp.add.NodeValue)
		b.Add(mp.x.NodeValue)
		b.Add(mp.one.NodeValue)
		b.Pop()
		b.Add(mp.one.NodeValue)
		b.Pop()
		b.Push(mp.call.NodeValue)
		b.Add(mp.x.NodeValue)
		b.Add(mp.y.NodeValue)
		b.Pop()
		b.Pop()
		b.Push(mp.call.NodeValue)
		b.Add(mp.y.NodeValue)
		b.Push(mp.mul.NodeValue)
		b.Add(mp.x.NodeValue)
		b.Add(mp.y.NodeValue)
		b.Pop()
		b.Pop()
		b.Pop()
	}
	b.Pop()

	params, err := evo.NewParameters(1, 0.1, 0.5)
	if err != nil {
		t.Fatalf("new parameters: %v", err)
	}
	delegate, err := p.NewDelegate(params)
	if err != nil {
		t.Fatalf("new delegate: %v", err)
	}

	fitnesses := make([]float64, 1)
	if err := delegate.ComputeFitness([]genome.Tree{tr}, fitnesses); err != nil {
		t.Fatalf("compute fitness: %v", err)
	}
	if fitnesses[0] != 1.0 {
		t.Fatalf("exact solution fitness = %v, want 1.0", fitnesses[0])
	}
}

func TestMultiFunctionProblemEvolves(t *testing.T) {
	pop, history := runProblem(t, "multifunction", 42, 100, 100, 6)

	if pop.Generation() != 100 {
		t.Fatalf("generation = %d, want 100", pop.Generation())
	}
	if pop.Len() != 100 {
		t.Fatalf("population size = %d, want 100", pop.Len())
	}
	for i := 1; i < len(history); i++ {
		if history[i] < history[i-1] {
			t.Fatalf("best fitness regressed at generation %d: %v -> %v", i, history[i-1], history[i])
		}
	}
	last := history[len(history)-1]
	if last <= history[0] && last < 1.0 {
		t.Fatalf("no improvement over the run: first %v, last %v", history[0], last)
	}
}

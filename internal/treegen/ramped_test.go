package treegen

import (
	"math/rand"
	"testing"

	"treegp/internal/genome"
	"treegp/internal/grammar"
)

func rampedFixture(t *testing.T) *grammar.Grammar {
	t.Helper()
	intType := grammar.NewType("int")
	g, err := grammar.New([]grammar.Type{intType}, []grammar.Spec{
		grammar.Terminal("x", intType, 10),
		grammar.Terminal("y", intType, 10),
		grammar.Binary("+", intType, [2]grammar.Type{intType, intType}, 5),
		grammar.Binary("*", intType, [2]grammar.Type{intType, intType}, 5),
		grammar.Ternary("rgb", intType, [3]grammar.Type{intType, intType, intType}, 2),
	})
	if err != nil {
		t.Fatalf("new grammar: %v", err)
	}
	return g
}

type rootDelegate struct {
	root grammar.NodeValue
}

func (d rootDelegate) generate(gen *Generator, b *genome.Builder, maxDepth int, full bool) (bool, error) {
	b.Push(d.root)
	for i := 0; i < 3; i++ {
		var err error
		if full {
			err = gen.GenerateFull(b, maxDepth, grammar.InvalidType)
		} else {
			err = gen.GenerateGrow(b, maxDepth, grammar.InvalidType)
		}
		if err != nil {
			return false, err
		}
	}
	b.Pop()
	return true, nil
}

func (d rootDelegate) GenerateFull(gen *Generator, b *genome.Builder, maxDepth int) (bool, error) {
	return d.generate(gen, b, maxDepth, true)
}

func (d rootDelegate) GenerateGrow(gen *Generator, b *genome.Builder, maxDepth int) (bool, error) {
	return d.generate(gen, b, maxDepth, false)
}

func TestRampedInitializerWithRootDelegate(t *testing.T) {
	g := rampedFixture(t)
	rgb := g.MustDefinition("rgb")

	rng := rand.New(rand.NewSource(11))
	init, err := NewRampedHalfAndHalf(g, rng, rootDelegate{root: rgb.NodeValue})
	if err != nil {
		t.Fatalf("new initializer: %v", err)
	}

	count := 0
	err = init.Initialize(Options{PopulationSize: 2, MaxTreeDepth: 1}, func(tr genome.Tree) {
		count++
		root := tr.Root()
		if root.Value != rgb.NodeValue {
			t.Fatalf("root value = %d, want rgb (%d)", root.Value, rgb.NodeValue)
		}
		if root.Len() != 3 {
			t.Fatalf("root child count = %d, want 3", root.Len())
		}
		for child := range root.Children {
			if !child.IsLeaf() {
				t.Fatalf("child %d is not a terminal", child.ID)
			}
		}
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if count != 2 {
		t.Fatalf("emitted %d genomes, want 2", count)
	}
}

func TestRampedInitializerPopulation(t *testing.T) {
	g := rampedFixture(t)
	rng := rand.New(rand.NewSource(29))
	init, err := NewRampedHalfAndHalf(g, rng, nil)
	if err != nil {
		t.Fatalf("new initializer: %v", err)
	}

	const size = 40
	const maxDepth = 6
	var trees []genome.Tree
	err = init.Initialize(Options{PopulationSize: size, MaxTreeDepth: maxDepth}, func(tr genome.Tree) {
		trees = append(trees, tr)
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if len(trees) != size {
		t.Fatalf("emitted %d genomes, want %d", len(trees), size)
	}

	depthSeen := map[int]bool{}
	for _, tr := range trees {
		if tr.NodeCount() == 0 {
			t.Fatal("empty genome emitted")
		}
		d := depthOf(tr.Root())
		if d > maxDepth+1 {
			t.Fatalf("tree depth %d far exceeds ramp target %d", d, maxDepth)
		}
		depthSeen[d] = true
	}
	if len(depthSeen) < 3 {
		t.Fatalf("expected depth diversity across the ramp, got depths %v", depthSeen)
	}
}

func TestRampedInitializerRejectsZeroPopulation(t *testing.T) {
	g := rampedFixture(t)
	init, err := NewRampedHalfAndHalf(g, rand.New(rand.NewSource(1)), nil)
	if err != nil {
		t.Fatalf("new initializer: %v", err)
	}
	if err := init.Initialize(Options{PopulationSize: 0, MaxTreeDepth: 3}, func(genome.Tree) {}); err == nil {
		t.Fatal("expected error for zero population size")
	}
}

package eval

import (
	"testing"

	"treegp/internal/genome"
	"treegp/internal/grammar"
)

func fixture(t *testing.T) *grammar.Grammar {
	t.Helper()
	intType := grammar.NewType("int")
	g, err := grammar.New([]grammar.Type{intType}, []grammar.Spec{
		grammar.Terminal("one", intType, 4),
		grammar.Terminal("two", intType, 4),
		grammar.Unary("neg", intType, intType, 4),
		grammar.Binary("+", intType, [2]grammar.Type{intType, intType}, 4),
		grammar.Ternary("clamp3", intType, [3]grammar.Type{intType, intType, intType}, 4),
	})
	if err != nil {
		t.Fatalf("new grammar: %v", err)
	}
	return g
}

func TestEvaluatorDispatch(t *testing.T) {
	g := fixture(t)
	one := g.MustDefinition("one")
	two := g.MustDefinition("two")
	neg := g.MustDefinition("neg")
	add := g.MustDefinition("+")
	clamp := g.MustDefinition("clamp3")

	// (+ (neg one) (clamp3 two two one)) = -1 + (2+2+1) = 4
	var tr genome.Tree
	b := genome.NewBuilder(&tr)
	b.Push(add.NodeValue)
	b.Push(neg.NodeValue)
	b.Add(one.NodeValue)
	b.Pop()
	b.Push(clamp.NodeValue)
	b.Add(two.NodeValue)
	b.Add(two.NodeValue)
	b.Add(one.NodeValue)
	b.Pop()
	b.Pop()

	e := New(g, Callbacks[int]{
		Terminal: func(id int, _ genome.Node) int {
			if id == one.ID {
				return 1
			}
			return 2
		},
		Unary: func(id int, _ genome.Node, x int) int {
			if id != neg.ID {
				t.Fatalf("unexpected unary definition %d", id)
			}
			return -x
		},
		Binary: func(id int, _ genome.Node, x, y int) int {
			if id != add.ID {
				t.Fatalf("unexpected binary definition %d", id)
			}
			return x + y
		},
		Function: func(id int, _ genome.Node, args []int) int {
			if id != clamp.ID || len(args) != 3 {
				t.Fatalf("unexpected n-ary dispatch: id=%d args=%d", id, len(args))
			}
			return args[0] + args[1] + args[2]
		},
	})

	if got := e.Evaluate(&tr); got != 4 {
		t.Fatalf("evaluated %d, want 4", got)
	}
}

func TestEvaluatorDefaults(t *testing.T) {
	g := fixture(t)
	one := g.MustDefinition("one")
	neg := g.MustDefinition("neg")
	add := g.MustDefinition("+")

	callbacks := Callbacks[int]{
		Terminal: func(int, genome.Node) int { return 7 },
	}
	e := New(g, callbacks)

	// Unary defaults to identity.
	var unary genome.Tree
	b := genome.NewBuilder(&unary)
	b.Push(neg.NodeValue)
	b.Add(one.NodeValue)
	b.Pop()
	if got := e.Evaluate(&unary); got != 7 {
		t.Fatalf("unary default = %d, want 7", got)
	}

	// Binary defaults to the zero value.
	var binary genome.Tree
	b = genome.NewBuilder(&binary)
	b.Push(add.NodeValue)
	b.Add(one.NodeValue)
	b.Add(one.NodeValue)
	b.Pop()
	if got := e.Evaluate(&binary); got != 0 {
		t.Fatalf("binary default = %d, want 0", got)
	}
}

// Package treegen produces random GP trees under grammar type constraints
// and seeds initial populations with them.
package treegen

import (
	"errors"
	"fmt"
	"math/rand"

	"treegp/internal/genome"
	"treegp/internal/grammar"
)

// ErrDepthExhausted is returned when generation keeps descending through
// types without terminals long past the requested depth.
var ErrDepthExhausted = errors.New("treegen: no terminal reachable within the depth ceiling")

// depthOverdraw is how many levels below the requested depth generation may
// keep descending through terminal-less types before the tree fails.
const depthOverdraw = 64

// Strategy selects how trees approach the depth limit.
type Strategy int

const (
	// Full grows every branch to exactly the depth limit.
	Full Strategy = iota
	// Grow may stop a branch early by drawing a terminal.
	Grow
)

// Generator draws random trees from a grammar. All randomness comes from the
// single shared RNG, so runs are reproducible for a fixed seed.
type Generator struct {
	grammar *grammar.Grammar
	rng     *rand.Rand
}

// NewGenerator returns a generator over the given grammar. The grammar must
// contain at least one terminal.
func NewGenerator(g *grammar.Grammar, rng *rand.Rand) (*Generator, error) {
	if g == nil {
		return nil, fmt.Errorf("treegen: grammar is required")
	}
	if rng == nil {
		return nil, fmt.Errorf("treegen: random source is required")
	}
	if g.TerminalLimit() == 0 {
		return nil, fmt.Errorf("treegen: grammar has no terminals")
	}
	return &Generator{grammar: g, rng: rng}, nil
}

// Grammar returns the generator's grammar.
func (g *Generator) Grammar() *grammar.Grammar { return g.grammar }

func (g *Generator) random(min, max grammar.NodeValue) grammar.NodeValue {
	return min + grammar.NodeValue(g.rng.Intn(int(max-min)))
}

// RandomTerminalValue draws a weight-proportional terminal code from the set.
func (g *Generator) RandomTerminalValue(set *grammar.DefinitionSet) grammar.NodeValue {
	return set.GlobalValue(g.random(0, set.TerminalLimit()))
}

// RandomFunctionValue draws a weight-proportional function code from the set.
func (g *Generator) RandomFunctionValue(set *grammar.DefinitionSet) grammar.NodeValue {
	return set.GlobalValue(g.random(set.TerminalLimit(), set.FunctionLimit()))
}

// RandomNodeValue draws a weight-proportional code from the whole set.
func (g *Generator) RandomNodeValue(set *grammar.DefinitionSet) grammar.NodeValue {
	return set.GlobalValue(g.random(0, set.FunctionLimit()))
}

// Generate emits one random subtree of the required type into the builder.
// A type of grammar.InvalidType allows any node.
func (g *Generator) Generate(b *genome.Builder, maxDepth int, strategy Strategy, typ grammar.TypeID) error {
	set := g.grammar.DefinitionSetForType(typ)
	if !set.HasTerminals() && !set.HasFunctions() {
		return fmt.Errorf("treegen: type %q has no definitions", g.grammar.TypeName(typ))
	}
	if maxDepth <= 1 {
		if set.HasTerminals() {
			b.Add(g.RandomTerminalValue(set))
			return nil
		}
		// The bottom layer needs a terminal of this type and there is
		// none, so descend into a function instead; the overdraw
		// ceiling keeps a terminal-less cycle from recursing forever.
		if maxDepth <= -depthOverdraw {
			if typ != grammar.InvalidType {
				return fmt.Errorf("%w: type %q", ErrDepthExhausted, g.grammar.TypeName(typ))
			}
			return ErrDepthExhausted
		}
	}

	var value grammar.NodeValue
	if strategy == Full && set.HasFunctions() {
		value = g.RandomFunctionValue(set)
	} else if strategy == Full {
		// Nothing but terminals for this type; stop the branch short.
		value = g.RandomTerminalValue(set)
	} else {
		value = g.RandomNodeValue(set)
	}
	def := g.grammar.DefinitionForValue(value)
	if def.IsTerminal() {
		b.Add(value)
		return nil
	}

	b.Push(value)
	for i := 0; i < def.NumArguments(); i++ {
		if err := g.Generate(b, maxDepth-1, strategy, def.Args[i]); err != nil {
			return err
		}
	}
	b.Pop()
	return nil
}

// GenerateFull emits a tree whose branches all reach maxDepth.
func (g *Generator) GenerateFull(b *genome.Builder, maxDepth int, typ grammar.TypeID) error {
	return g.Generate(b, maxDepth, Full, typ)
}

// GenerateGrow emits a tree that may stop short of maxDepth.
func (g *Generator) GenerateGrow(b *genome.Builder, maxDepth int, typ grammar.TypeID) error {
	return g.Generate(b, maxDepth, Grow, typ)
}

// GenerateTree is a convenience wrapper building a standalone tree.
func (g *Generator) GenerateTree(maxDepth int, strategy Strategy, typ grammar.TypeID) (genome.Tree, error) {
	var t genome.Tree
	b := genome.NewBuilder(&t)
	if err := g.Generate(b, maxDepth, strategy, typ); err != nil {
		return genome.Tree{}, err
	}
	return t, nil
}

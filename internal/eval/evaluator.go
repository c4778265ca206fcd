// Package eval walks GP trees in post order and dispatches host callbacks
// per node arity.
package eval

import (
	"treegp/internal/genome"
	"treegp/internal/grammar"
)

// Callbacks holds the host-supplied evaluation functions, keyed by arity.
// Terminal is required; the others default to identity (unary) or the zero
// value (binary, n-ary) when nil.
type Callbacks[T any] struct {
	Terminal func(definitionID int, node genome.Node) T
	Unary    func(definitionID int, node genome.Node, x T) T
	Binary   func(definitionID int, node genome.Node, x, y T) T
	Function func(definitionID int, node genome.Node, args []T) T
}

// Evaluator computes a value of type T for a genome by recursive post-order
// dispatch over the grammar definitions.
type Evaluator[T any] struct {
	grammar   *grammar.Grammar
	callbacks Callbacks[T]
}

// New returns an evaluator over the grammar.
func New[T any](g *grammar.Grammar, callbacks Callbacks[T]) *Evaluator[T] {
	return &Evaluator[T]{grammar: g, callbacks: callbacks}
}

// EvaluateNode computes the value of the subtree rooted at node.
func (e *Evaluator[T]) EvaluateNode(node genome.Node) T {
	def := e.grammar.DefinitionForValue(node.Value)
	if def.IsTerminal() {
		return e.callbacks.Terminal(def.ID, node)
	}

	args := make([]T, 0, node.Len())
	for child := range node.Children {
		args = append(args, e.EvaluateNode(child))
	}
	switch len(args) {
	case 1:
		if e.callbacks.Unary == nil {
			return args[0]
		}
		return e.callbacks.Unary(def.ID, node, args[0])
	case 2:
		if e.callbacks.Binary == nil {
			var zero T
			return zero
		}
		return e.callbacks.Binary(def.ID, node, args[0], args[1])
	default:
		if e.callbacks.Function == nil {
			var zero T
			return zero
		}
		return e.callbacks.Function(def.ID, node, args)
	}
}

// Evaluate computes the value of the tree's root.
func (e *Evaluator[T]) Evaluate(t *genome.Tree) T {
	return e.EvaluateNode(t.Root())
}

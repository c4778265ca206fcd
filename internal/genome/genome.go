// Package genome fixes the tree container instantiation used for GP genomes.
package genome

import (
	"treegp/internal/grammar"
	"treegp/internal/tree"
)

// Tree is a packed tree of grammar node codes.
type Tree = tree.Tree[grammar.NodeValue]

// Node is a view of one genome node.
type Node = tree.Node[grammar.NodeValue]

// Builder constructs genomes in preorder.
type Builder = tree.Builder[grammar.NodeValue]

// NewBuilder returns a builder appending into t.
func NewBuilder(t *Tree) *Builder {
	return tree.NewBuilder(t)
}

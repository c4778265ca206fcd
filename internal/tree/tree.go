// Package tree implements the packed tree container used for GP genomes.
//
// A tree is stored as a preorder slice of nodes; every node records the size
// of the subtree rooted at it, so the slice [i, i+size) is exactly that
// subtree. Subtree extraction and replacement are bulk slice operations.
package tree

import "fmt"

// NodeStorage is one packed node.
type NodeStorage[T any] struct {
	Value T
	// ChildCount is the number of direct children of this node.
	ChildCount int
	// SubtreeSize is the number of nodes in the subtree rooted here,
	// including this node.
	SubtreeSize int
}

// Tree is a packed preorder tree. The zero value is an empty tree.
type Tree[T any] struct {
	nodes []NodeStorage[T]
}

// NodeCount returns the number of nodes in the tree.
func (t *Tree[T]) NodeCount() int {
	return len(t.nodes)
}

// Copy returns an independent copy of the tree.
func (t *Tree[T]) Copy() Tree[T] {
	nodes := make([]NodeStorage[T], len(t.nodes))
	copy(nodes, t.nodes)
	return Tree[T]{nodes: nodes}
}

// Storage returns the raw node at index i.
func (t *Tree[T]) Storage(i int) NodeStorage[T] {
	return t.nodes[i]
}

// Node is a non-owning view of the node at a given index. It is invalidated
// by any mutation of the tree it references.
type Node[T any] struct {
	tree *Tree[T]
	// ID is the preorder index of the node.
	ID int
	// Value is the node's stored value.
	Value T
}

// At returns a view of the node at index i.
func (t *Tree[T]) At(i int) Node[T] {
	return Node[T]{tree: t, ID: i, Value: t.nodes[i].Value}
}

// Root returns a view of the root node. The tree must be non-empty.
func (t *Tree[T]) Root() Node[T] {
	return t.At(0)
}

// Len returns the number of direct children of the node.
func (n Node[T]) Len() int {
	return n.tree.nodes[n.ID].ChildCount
}

// IsLeaf reports whether the node has no children.
func (n Node[T]) IsLeaf() bool {
	return n.Len() == 0
}

// Children iterates over the direct children of the node. Sibling positions
// are obtained by stepping over each child's subtree.
func (n Node[T]) Children(yield func(Node[T]) bool) {
	end := n.ID + n.tree.nodes[n.ID].SubtreeSize
	for i := n.ID + 1; i < end; i += n.tree.nodes[i].SubtreeSize {
		if !yield(n.tree.At(i)) {
			return
		}
	}
}

// Child returns the i-th direct child of the node.
func (n Node[T]) Child(i int) Node[T] {
	if i >= n.Len() {
		panic(fmt.Sprintf("tree: child index %d out of range (%d children)", i, n.Len()))
	}
	pos := n.ID + 1
	for j := 0; j < i; j++ {
		pos += n.tree.nodes[pos].SubtreeSize
	}
	return n.tree.At(pos)
}

// First returns the first direct child of the node.
func (n Node[T]) First() Node[T] {
	return n.Child(0)
}

// Roots iterates over the root-level nodes of the tree. A well-formed genome
// has exactly one, but the container itself does not require it.
func (t *Tree[T]) Roots(yield func(Node[T]) bool) {
	for i := 0; i < len(t.nodes); i += t.nodes[i].SubtreeSize {
		if !yield(t.At(i)) {
			return
		}
	}
}

// Subtree returns an independent copy of the subtree rooted at index i.
// Subtree sizes inside the slice stay valid because they are relative.
func (t *Tree[T]) Subtree(i int) (Tree[T], error) {
	if i >= len(t.nodes) {
		return Tree[T]{}, fmt.Errorf("tree: subtree index %d out of range (%d nodes)", i, len(t.nodes))
	}
	size := t.nodes[i].SubtreeSize
	nodes := make([]NodeStorage[T], size)
	copy(nodes, t.nodes[i:i+size])
	return Tree[T]{nodes: nodes}, nil
}

// Replace substitutes the subtree rooted at index i with sub, then restores
// the subtree sizes along the spine by a preorder walk from the root. Child
// counts are untouched: the spliced subtree fills the same single child slot.
func (t *Tree[T]) Replace(i int, sub *Tree[T]) error {
	if i >= len(t.nodes) {
		return fmt.Errorf("tree: replace index %d out of range (%d nodes)", i, len(t.nodes))
	}
	// Splice from a private copy so that an aliased sub stays intact.
	incoming := make([]NodeStorage[T], len(sub.nodes))
	copy(incoming, sub.nodes)

	old := t.nodes[i].SubtreeSize
	nodes := make([]NodeStorage[T], 0, len(t.nodes)-old+len(incoming))
	nodes = append(nodes, t.nodes[:i]...)
	nodes = append(nodes, incoming...)
	nodes = append(nodes, t.nodes[i+old:]...)
	t.nodes = nodes

	pos := 0
	t.recomputeSubtreeSizes(&pos)
	return nil
}

// recomputeSubtreeSizes rebuilds SubtreeSize for the node at *pos and its
// descendants from the child counts, advancing *pos past the subtree.
func (t *Tree[T]) recomputeSubtreeSizes(pos *int) int {
	i := *pos
	*pos++
	childCount := t.nodes[i].ChildCount
	if childCount == 0 {
		t.nodes[i].SubtreeSize = 1
		return 1
	}
	size := 1
	for c := 0; c < childCount; c++ {
		size += t.recomputeSubtreeSizes(pos)
	}
	t.nodes[i].SubtreeSize = size
	return size
}

// Builder constructs a tree in preorder. Push opens an internal node, Add
// appends a leaf, Pop closes the most recently opened node.
type Builder[T any] struct {
	tree  *Tree[T]
	stack []int
}

// NewBuilder returns a builder that appends into t.
func NewBuilder[T any](t *Tree[T]) *Builder[T] {
	return &Builder[T]{tree: t}
}

func (b *Builder[T]) appendNode(value T) int {
	b.tree.nodes = append(b.tree.nodes, NodeStorage[T]{Value: value, SubtreeSize: 1})
	return len(b.tree.nodes) - 1
}

// Push opens a new node with the given value.
func (b *Builder[T]) Push(value T) {
	if len(b.stack) > 0 {
		b.tree.nodes[b.stack[len(b.stack)-1]].ChildCount++
	}
	b.stack = append(b.stack, b.appendNode(value))
}

// Add appends a leaf node with the given value.
func (b *Builder[T]) Add(value T) {
	b.appendNode(value)
	if len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		b.tree.nodes[top].ChildCount++
		b.tree.nodes[top].SubtreeSize++
	}
}

// Pop closes the most recently pushed node and propagates its subtree size
// onto the parent.
func (b *Builder[T]) Pop() {
	if len(b.stack) == 0 {
		panic("tree: pop on empty builder stack")
	}
	size := b.tree.nodes[b.stack[len(b.stack)-1]].SubtreeSize
	b.stack = b.stack[:len(b.stack)-1]
	if len(b.stack) > 0 {
		b.tree.nodes[b.stack[len(b.stack)-1]].SubtreeSize += size
	}
}

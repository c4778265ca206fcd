package tree

import (
	"fmt"
	"strings"
	"testing"
)

const (
	plus = iota
	one
	zero
)

func describe(node Node[int]) string {
	switch node.Value {
	case plus:
		var sb strings.Builder
		sb.WriteString("(+")
		for child := range node.Children {
			sb.WriteString(" ")
			sb.WriteString(describe(child))
		}
		sb.WriteString(")")
		return sb.String()
	case one:
		return "1"
	case zero:
		return "0"
	}
	return "?"
}

func describeTree(t *Tree[int]) string {
	var parts []string
	for node := range t.Roots {
		parts = append(parts, describe(node))
	}
	return strings.Join(parts, " ")
}

func checkInvariants(t *testing.T, tr *Tree[int]) {
	t.Helper()
	if tr.NodeCount() == 0 {
		return
	}
	if got := tr.Storage(0).SubtreeSize; got != tr.NodeCount() {
		t.Fatalf("root subtree size %d != node count %d", got, tr.NodeCount())
	}
	for i := 0; i < tr.NodeCount(); i++ {
		sum := 1
		children := 0
		for child := range tr.At(i).Children {
			sum += tr.Storage(child.ID).SubtreeSize
			children++
		}
		if sum != tr.Storage(i).SubtreeSize {
			t.Fatalf("node %d: subtree size %d, children sum %d", i, tr.Storage(i).SubtreeSize, sum)
		}
		if children != tr.Storage(i).ChildCount {
			t.Fatalf("node %d: child count %d, laid out %d", i, tr.Storage(i).ChildCount, children)
		}
	}
}

func TestBuilderPreorderLayout(t *testing.T) {
	// Construct a tree that looks like this:
	//               2
	//            /  |  \
	//          11   42   90
	//              /|\
	//            13 0 9
	//                 |
	//                 7
	var tr Tree[int]
	b := NewBuilder(&tr)
	b.Push(2)
	b.Add(11)
	b.Push(42)
	b.Add(13)
	b.Add(0)
	b.Push(9)
	b.Add(7)
	b.Pop()
	b.Pop()
	b.Add(90)
	b.Pop()

	if tr.NodeCount() != 8 {
		t.Fatalf("node count = %d, want 8", tr.NodeCount())
	}
	checkInvariants(t, &tr)

	root := tr.Root()
	if root.Value != 2 || root.Len() != 3 {
		t.Fatalf("root = %d with %d children, want 2 with 3", root.Value, root.Len())
	}
	if root.First().Value != 11 {
		t.Fatalf("first child = %d, want 11", root.First().Value)
	}

	x0, x1, x2 := root.Child(0), root.Child(1), root.Child(2)
	if x0.Value != 11 || !x0.IsLeaf() {
		t.Fatalf("child 0 = %d (leaf=%v), want leaf 11", x0.Value, x0.IsLeaf())
	}
	if x1.Value != 42 || x1.Len() != 3 {
		t.Fatalf("child 1 = %d with %d children, want 42 with 3", x1.Value, x1.Len())
	}
	if x2.Value != 90 || !x2.IsLeaf() {
		t.Fatalf("child 2 = %d (leaf=%v), want leaf 90", x2.Value, x2.IsLeaf())
	}
	y := x1.Child(2)
	if y.Value != 9 || y.Len() != 1 {
		t.Fatalf("grandchild = %d with %d children, want 9 with 1", y.Value, y.Len())
	}
	if y.Child(0).Value != 7 {
		t.Fatalf("leaf below 9 = %d, want 7", y.Child(0).Value)
	}

	if tr.Storage(x1.ID).SubtreeSize != 5 {
		t.Fatalf("subtree size of node 42 = %d, want 5", tr.Storage(x1.ID).SubtreeSize)
	}
	if tr.Storage(y.ID).SubtreeSize != 2 {
		t.Fatalf("subtree size of node 9 = %d, want 2", tr.Storage(y.ID).SubtreeSize)
	}

	var preorder []int
	var walk func(Node[int])
	walk = func(n Node[int]) {
		preorder = append(preorder, n.Value)
		for child := range n.Children {
			walk(child)
		}
	}
	for n := range tr.Roots {
		walk(n)
	}
	want := []int{2, 11, 42, 13, 0, 9, 7, 90}
	if fmt.Sprint(preorder) != fmt.Sprint(want) {
		t.Fatalf("preorder = %v, want %v", preorder, want)
	}
}

func TestBuilderSmall(t *testing.T) {
	var tr Tree[int]
	b := NewBuilder(&tr)
	b.Push(plus)
	b.Add(one)
	b.Add(zero)
	b.Pop()
	if tr.NodeCount() != 3 {
		t.Fatalf("node count = %d, want 3", tr.NodeCount())
	}
	if got := describeTree(&tr); got != "(+ 1 0)" {
		t.Fatalf("tree = %q, want %q", got, "(+ 1 0)")
	}
	checkInvariants(t, &tr)
}

func buildNested(t *testing.T) Tree[int] {
	t.Helper()
	// (+ (+ 1 1) 0)
	var tr Tree[int]
	b := NewBuilder(&tr)
	b.Push(plus)
	b.Push(plus)
	b.Add(one)
	b.Add(one)
	b.Pop()
	b.Add(zero)
	b.Pop()
	return tr
}

func TestSubtreeReplace(t *testing.T) {
	genome := buildNested(t)
	if got := describeTree(&genome); got != "(+ (+ 1 1) 0)" {
		t.Fatalf("tree = %q", got)
	}

	sub, err := genome.Subtree(1)
	if err != nil {
		t.Fatalf("subtree: %v", err)
	}
	if sub.NodeCount() != 3 || describeTree(&sub) != "(+ 1 1)" {
		t.Fatalf("subtree = %q with %d nodes", describeTree(&sub), sub.NodeCount())
	}

	if err := genome.Replace(4, &sub); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if genome.NodeCount() != 7 || describeTree(&genome) != "(+ (+ 1 1) (+ 1 1))" {
		t.Fatalf("after replace(4) = %q with %d nodes", describeTree(&genome), genome.NodeCount())
	}
	checkInvariants(t, &genome)
	if describeTree(&sub) != "(+ 1 1)" {
		t.Fatalf("subtree mutated by replace: %q", describeTree(&sub))
	}

	if err := genome.Replace(0, &sub); err != nil {
		t.Fatalf("replace root: %v", err)
	}
	if genome.NodeCount() != 3 || describeTree(&genome) != "(+ 1 1)" {
		t.Fatalf("after replace(0) = %q with %d nodes", describeTree(&genome), genome.NodeCount())
	}
	checkInvariants(t, &genome)

	var zeroTree Tree[int]
	NewBuilder(&zeroTree).Add(zero)
	if err := genome.Replace(2, &zeroTree); err != nil {
		t.Fatalf("replace leaf: %v", err)
	}
	if describeTree(&genome) != "(+ 1 0)" {
		t.Fatalf("after leaf replace = %q", describeTree(&genome))
	}
	if err := genome.Replace(1, &zeroTree); err != nil {
		t.Fatalf("replace leaf: %v", err)
	}
	if describeTree(&genome) != "(+ 0 0)" {
		t.Fatalf("after leaf replace = %q", describeTree(&genome))
	}

	if err := genome.Replace(2, &sub); err != nil {
		t.Fatalf("replace with subtree: %v", err)
	}
	if genome.NodeCount() != 5 || describeTree(&genome) != "(+ 0 (+ 1 1))" {
		t.Fatalf("after growing replace = %q", describeTree(&genome))
	}
	checkInvariants(t, &genome)

	zero2, err := genome.Subtree(1)
	if err != nil {
		t.Fatalf("subtree: %v", err)
	}
	if zero2.NodeCount() != 1 || describeTree(&zero2) != "0" {
		t.Fatalf("single-node subtree = %q", describeTree(&zero2))
	}
	if err := genome.Replace(2, &zero2); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if genome.NodeCount() != 3 || describeTree(&genome) != "(+ 0 0)" {
		t.Fatalf("after shrinking replace = %q", describeTree(&genome))
	}
	checkInvariants(t, &genome)
}

func TestReplaceIntoDeeperPosition(t *testing.T) {
	genome := buildNested(t)
	rootCopy, err := genome.Subtree(0)
	if err != nil {
		t.Fatalf("subtree: %v", err)
	}
	if rootCopy.NodeCount() != 5 || describeTree(&rootCopy) != "(+ (+ 1 1) 0)" {
		t.Fatalf("root subtree = %q", describeTree(&rootCopy))
	}

	sub, err := genome.Subtree(1)
	if err != nil {
		t.Fatalf("subtree: %v", err)
	}
	if err := genome.Replace(2, &sub); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if genome.NodeCount() != 7 || describeTree(&genome) != "(+ (+ (+ 1 1) 1) 0)" {
		t.Fatalf("after replace = %q with %d nodes", describeTree(&genome), genome.NodeCount())
	}
	checkInvariants(t, &genome)

	again, err := genome.Subtree(0)
	if err != nil {
		t.Fatalf("subtree: %v", err)
	}
	if again.NodeCount() != 7 || describeTree(&again) != "(+ (+ (+ 1 1) 1) 0)" {
		t.Fatalf("root subtree after replace = %q", describeTree(&again))
	}
}

func TestSubtreeRoundTrip(t *testing.T) {
	genome := buildNested(t)
	before := describeTree(&genome)
	sub, err := genome.Subtree(1)
	if err != nil {
		t.Fatalf("subtree: %v", err)
	}
	if err := genome.Replace(1, &sub); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if describeTree(&genome) != before {
		t.Fatalf("round trip changed tree: %q -> %q", before, describeTree(&genome))
	}
	checkInvariants(t, &genome)
}

func TestOutOfRange(t *testing.T) {
	genome := buildNested(t)
	if _, err := genome.Subtree(5); err == nil {
		t.Fatal("expected error for out-of-range subtree index")
	}
	sub, _ := genome.Subtree(1)
	if err := genome.Replace(5, &sub); err == nil {
		t.Fatal("expected error for out-of-range replace index")
	}
}

package render

import (
	"fmt"
	"io"
	"strings"

	"treegp/internal/genome"
	"treegp/internal/grammar"
)

// CompilerDelegate customizes the source-like rendering. PrintTerminal and
// PrintFunction return true when the delegate wrote the node itself;
// PrintAsOperator selects operator rendering: infix for binary functions,
// prefix `(op a)` for unary ones.
type CompilerDelegate interface {
	PrintTerminal(def grammar.Definition, node genome.Node, w io.Writer) (bool, error)
	PrintFunction(def grammar.Definition, node genome.Node, w io.Writer) (bool, error)
	PrintAsOperator(def grammar.Definition) bool
}

// Compiler renders a genome as a source-like expression: `fn(a, b)` for
// calls, `(a op b)` or `(op a)` for functions the delegate marks as
// operators.
type Compiler struct {
	grammar  *grammar.Grammar
	delegate CompilerDelegate
}

// NewCompiler returns a compiler over the grammar. The delegate may be nil,
// in which case every function renders as a call.
func NewCompiler(g *grammar.Grammar, delegate CompilerDelegate) *Compiler {
	return &Compiler{grammar: g, delegate: delegate}
}

// PrintNode writes the subtree rooted at node.
func (c *Compiler) PrintNode(node genome.Node, w io.Writer) error {
	def := c.grammar.DefinitionForValue(node.Value)
	if def.IsTerminal() {
		if c.delegate != nil {
			handled, err := c.delegate.PrintTerminal(def, node, w)
			if err != nil || handled {
				return err
			}
		}
		_, err := io.WriteString(w, def.Name)
		return err
	}
	if node.Len() != def.NumArguments() {
		return fmt.Errorf("render: node %q has %d children, definition wants %d", def.Name, node.Len(), def.NumArguments())
	}
	if c.delegate != nil {
		handled, err := c.delegate.PrintFunction(def, node, w)
		if err != nil || handled {
			return err
		}
		if c.delegate.PrintAsOperator(def) {
			switch node.Len() {
			case 1:
				if _, err := fmt.Fprintf(w, "(%s ", def.Name); err != nil {
					return err
				}
				if err := c.PrintNode(node.Child(0), w); err != nil {
					return err
				}
				_, err := io.WriteString(w, ")")
				return err
			case 2:
				if _, err := io.WriteString(w, "("); err != nil {
					return err
				}
				if err := c.PrintNode(node.Child(0), w); err != nil {
					return err
				}
				if _, err := fmt.Fprintf(w, " %s ", def.Name); err != nil {
					return err
				}
				if err := c.PrintNode(node.Child(1), w); err != nil {
					return err
				}
				_, err := io.WriteString(w, ")")
				return err
			default:
				return fmt.Errorf("render: operator %q takes %d arguments", def.Name, node.Len())
			}
		}
	}
	if _, err := fmt.Fprintf(w, "%s(", def.Name); err != nil {
		return err
	}
	first := true
	for child := range node.Children {
		if !first {
			if _, err := io.WriteString(w, ", "); err != nil {
				return err
			}
		}
		if err := c.PrintNode(child, w); err != nil {
			return err
		}
		first = false
	}
	_, err := io.WriteString(w, ")")
	return err
}

// Print writes every root-level node of the tree.
func (c *Compiler) Print(t *genome.Tree, w io.Writer) error {
	for node := range t.Roots {
		if err := c.PrintNode(node, w); err != nil {
			return err
		}
	}
	return nil
}

// Sprint renders the tree to a string.
func (c *Compiler) Sprint(t *genome.Tree) (string, error) {
	var sb strings.Builder
	if err := c.Print(t, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

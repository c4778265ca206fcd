// Package render turns GP genomes into text: S-expressions for dumps and
// diagnostics, and source-like expressions for exporting evolved programs.
package render

import (
	"fmt"
	"io"
	"strings"

	"treegp/internal/genome"
	"treegp/internal/grammar"
)

// PrinterDelegate customizes rendering of specific terminals. Returning true
// means the delegate wrote the node itself.
type PrinterDelegate interface {
	PrintTerminal(def grammar.Definition, node genome.Node, w io.Writer) (bool, error)
}

// Printer renders genomes as S-expressions: a function node prints as
// "(name child ...)", a terminal as its name.
type Printer struct {
	grammar  *grammar.Grammar
	delegate PrinterDelegate
}

// NewPrinter returns a printer over the grammar. The delegate may be nil.
func NewPrinter(g *grammar.Grammar, delegate PrinterDelegate) *Printer {
	return &Printer{grammar: g, delegate: delegate}
}

// PrintNode writes the subtree rooted at node.
func (p *Printer) PrintNode(node genome.Node, w io.Writer) error {
	def := p.grammar.DefinitionForValue(node.Value)
	if def.IsTerminal() {
		if p.delegate != nil {
			handled, err := p.delegate.PrintTerminal(def, node, w)
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
	if _, err := fmt.Fprintf(w, "(%s", def.Name); err != nil {
		return err
	}
	for child := range node.Children {
		if _, err := io.WriteString(w, " "); err != nil {
			return err
		}
		if err := p.PrintNode(child, w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ")")
	return err
}

// Print writes every root-level node of the tree.
func (p *Printer) Print(t *genome.Tree, w io.Writer) error {
	for node := range t.Roots {
		if err := p.PrintNode(node, w); err != nil {
			return err
		}
	}
	return nil
}

// Sprint renders the tree to a string.
func (p *Printer) Sprint(t *genome.Tree) (string, error) {
	var sb strings.Builder
	if err := p.Print(t, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

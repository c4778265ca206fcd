// Package grammar defines the typed node grammar for GP trees.
//
// Every definition owns a dense half-open range [NodeValue, NodeValue+Weight)
// of node codes. A uniform draw over a code range is therefore a
// weight-proportional pick, and any code in the range resolves back to its
// definition.
package grammar

import (
	"fmt"
	"math"
	"sort"
)

// NodeValue is the dense integer code stored in tree nodes.
type NodeValue uint32

// TypeID is a dense index into the grammar's type table.
type TypeID uint32

// InvalidType means "any type"; it selects the global definition set.
const InvalidType TypeID = math.MaxUint32

// Kind partitions definitions into terminals and functions.
type Kind int

const (
	KindTerminal Kind = iota
	KindFunction
)

// Type is a named node type, declared before grammar construction.
type Type struct {
	Name string
}

// NewType declares a type with the given name.
func NewType(name string) Type {
	return Type{Name: name}
}

// Spec describes one definition prior to construction.
type Spec struct {
	Name     string
	Result   Type
	Args     []Type
	Weight   NodeValue
	function bool
}

// Terminal declares a leaf producer.
func Terminal(name string, result Type, weight NodeValue) Spec {
	return Spec{Name: name, Result: result, Weight: weight}
}

// Unary declares a one-argument function.
func Unary(name string, result, arg Type, weight NodeValue) Spec {
	return Spec{Name: name, Result: result, Args: []Type{arg}, Weight: weight, function: true}
}

// Binary declares a two-argument function.
func Binary(name string, result Type, args [2]Type, weight NodeValue) Spec {
	return Spec{Name: name, Result: result, Args: args[:], Weight: weight, function: true}
}

// Ternary declares a three-argument function.
func Ternary(name string, result Type, args [3]Type, weight NodeValue) Spec {
	return Spec{Name: name, Result: result, Args: args[:], Weight: weight, function: true}
}

// Function declares an n-argument function.
func Function(name string, result Type, args []Type, weight NodeValue) Spec {
	return Spec{Name: name, Result: result, Args: args, Weight: weight, function: true}
}

// Definition is one resolved grammar entry.
type Definition struct {
	Name string
	// ID is the dense definition index in canonical partition order.
	ID int
	// NodeValue is the first code of the definition's [NodeValue,
	// NodeValue+Weight) range.
	NodeValue NodeValue
	Weight    NodeValue
	Kind      Kind
	Type      TypeID
	Args      []TypeID
}

// IsTerminal reports whether the definition takes no arguments.
func (d Definition) IsTerminal() bool { return d.Kind == KindTerminal }

// IsFunction reports whether the definition takes arguments.
func (d Definition) IsFunction() bool { return d.Kind == KindFunction }

// NumArguments returns the number of arguments.
func (d Definition) NumArguments() int { return len(d.Args) }

// Contains reports whether the code v falls inside the definition's range.
func (d Definition) Contains(v NodeValue) bool {
	return v >= d.NodeValue && v < d.NodeValue+d.Weight
}

type typeRange struct {
	// Half-open index ranges into the canonical definition order.
	terminalStart, terminalEnd int
	functionStart, functionEnd int
}

// Grammar owns the definition table and its derived indexes. It is immutable
// after construction and may be shared across populations.
type Grammar struct {
	types     []Type
	typeIDs   map[string]TypeID
	defs      []Definition
	defByName map[string]int
	ranges    []typeRange

	terminalLimit NodeValue
	functionLimit NodeValue

	sets      []DefinitionSet
	globalSet DefinitionSet
}

// New constructs a grammar from declared types and definition specs.
//
// Definitions are reordered into the canonical layout: for each type in
// declaration order, all its terminals; then for each type, all its
// functions. Within a (type, kind) bucket declaration order is preserved.
// Node values are assigned by a running prefix sum of weights.
func New(types []Type, specs []Spec) (*Grammar, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("grammar: at least one type is required")
	}
	g := &Grammar{
		types:   make([]Type, len(types)),
		typeIDs: make(map[string]TypeID, len(types)),
	}
	copy(g.types, types)
	for i, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("grammar: type %d has an empty name", i)
		}
		if _, ok := g.typeIDs[t.Name]; ok {
			return nil, fmt.Errorf("grammar: duplicate type %q", t.Name)
		}
		g.typeIDs[t.Name] = TypeID(i)
	}

	type resolved struct {
		spec   Spec
		result TypeID
		args   []TypeID
	}
	byType := make([][]resolved, len(types))
	names := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("grammar: definition with an empty name")
		}
		if _, ok := names[spec.Name]; ok {
			return nil, fmt.Errorf("grammar: duplicate definition %q", spec.Name)
		}
		names[spec.Name] = struct{}{}
		if spec.Weight == 0 {
			return nil, fmt.Errorf("grammar: definition %q has zero weight", spec.Name)
		}
		if spec.function && len(spec.Args) == 0 {
			return nil, fmt.Errorf("grammar: function %q has no arguments", spec.Name)
		}
		result, ok := g.typeIDs[spec.Result.Name]
		if !ok {
			return nil, fmt.Errorf("grammar: definition %q has unknown result type %q", spec.Name, spec.Result.Name)
		}
		var args []TypeID
		for i, arg := range spec.Args {
			argID, ok := g.typeIDs[arg.Name]
			if !ok {
				return nil, fmt.Errorf("grammar: definition %q argument %d has unknown type %q", spec.Name, i, arg.Name)
			}
			args = append(args, argID)
		}
		byType[result] = append(byType[result], resolved{spec: spec, result: result, args: args})
	}

	g.defs = make([]Definition, 0, len(specs))
	g.defByName = make(map[string]int, len(specs))
	g.ranges = make([]typeRange, len(types))

	appendDef := func(r resolved, kind Kind) {
		id := len(g.defs)
		g.defs = append(g.defs, Definition{
			Name: r.spec.Name,
			ID:   id,
			// NodeValue assigned by the prefix sum below.
			Weight: r.spec.Weight,
			Kind:   kind,
			Type:   r.result,
			Args:   r.args,
		})
		g.defByName[r.spec.Name] = id
	}

	for t := range types {
		g.ranges[t].terminalStart = len(g.defs)
		for _, r := range byType[t] {
			if len(r.args) == 0 {
				appendDef(r, KindTerminal)
			}
		}
		g.ranges[t].terminalEnd = len(g.defs)
	}
	terminalCount := len(g.defs)
	for t := range types {
		g.ranges[t].functionStart = len(g.defs)
		for _, r := range byType[t] {
			if len(r.args) > 0 {
				appendDef(r, KindFunction)
			}
		}
		g.ranges[t].functionEnd = len(g.defs)
	}

	var value NodeValue
	for i := range g.defs {
		g.defs[i].NodeValue = value
		value += g.defs[i].Weight
		if i < terminalCount {
			g.terminalLimit += g.defs[i].Weight
		} else {
			g.functionLimit += g.defs[i].Weight
		}
	}

	g.sets = make([]DefinitionSet, len(types))
	for t := range types {
		g.sets[t] = g.buildSet(TypeID(t))
	}
	g.globalSet = g.buildSet(InvalidType)
	return g, nil
}

// TypeCount returns the number of declared types.
func (g *Grammar) TypeCount() int { return len(g.types) }

// TypeByName resolves a type name to its dense id.
func (g *Grammar) TypeByName(name string) (TypeID, bool) {
	id, ok := g.typeIDs[name]
	return id, ok
}

// TypeName returns the declared name of a type.
func (g *Grammar) TypeName(t TypeID) string {
	return g.types[t].Name
}

// DefinitionCount returns the number of definitions.
func (g *Grammar) DefinitionCount() int { return len(g.defs) }

// Definition returns the definition with the given dense id.
func (g *Grammar) Definition(id int) Definition {
	return g.defs[id]
}

// DefinitionByName is the accessor dictionary.
func (g *Grammar) DefinitionByName(name string) (Definition, bool) {
	id, ok := g.defByName[name]
	if !ok {
		return Definition{}, false
	}
	return g.defs[id], true
}

// MustDefinition returns the named definition or panics; intended for
// fixtures that register the name themselves.
func (g *Grammar) MustDefinition(name string) Definition {
	d, ok := g.DefinitionByName(name)
	if !ok {
		panic(fmt.Sprintf("grammar: unknown definition %q", name))
	}
	return d
}

// DefinitionForValue resolves any code inside a definition's range back to
// the definition in O(log k).
func (g *Grammar) DefinitionForValue(v NodeValue) Definition {
	i := sort.Search(len(g.defs), func(i int) bool {
		return g.defs[i].NodeValue > v
	})
	return g.defs[i-1]
}

// DefinitionIDForValue returns the dense id of the definition containing v.
func (g *Grammar) DefinitionIDForValue(v NodeValue) int {
	return g.DefinitionForValue(v).ID
}

// TerminalsForType returns the contiguous canonical-order slice of terminals
// with the given result type.
func (g *Grammar) TerminalsForType(t TypeID) []Definition {
	r := g.ranges[t]
	return g.defs[r.terminalStart:r.terminalEnd]
}

// FunctionsForType returns the contiguous canonical-order slice of functions
// with the given result type.
func (g *Grammar) FunctionsForType(t TypeID) []Definition {
	r := g.ranges[t]
	return g.defs[r.functionStart:r.functionEnd]
}

// HasTerminals reports whether the type has at least one terminal.
func (g *Grammar) HasTerminals(t TypeID) bool {
	return len(g.TerminalsForType(t)) > 0
}

// HasFunctions reports whether the type has at least one function.
func (g *Grammar) HasFunctions(t TypeID) bool {
	return len(g.FunctionsForType(t)) > 0
}

// TerminalLimit is the sum of all terminal weights.
func (g *Grammar) TerminalLimit() NodeValue { return g.terminalLimit }

// FunctionLimit is the sum of all function weights.
func (g *Grammar) FunctionLimit() NodeValue { return g.functionLimit }

// NodeLimit is the total code space width.
func (g *Grammar) NodeLimit() NodeValue { return g.terminalLimit + g.functionLimit }

// DefinitionSetForType returns the constrained view for a type, or the
// global set for InvalidType.
func (g *Grammar) DefinitionSetForType(t TypeID) *DefinitionSet {
	if t == InvalidType {
		return &g.globalSet
	}
	return &g.sets[t]
}

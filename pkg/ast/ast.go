// Package ast defines the Expanded-SHDL abstract syntax tree (§3.1): the
// surface-level representation produced by the parser, complete with
// generators, bit-slice expanders, named constants, and nested component
// instances. It is grounded on the shape of the teacher's pkg/corset/ast
// package (a Node interface, typed Declaration variants, explicit
// SymbolDefinition/Symbol distinctions) adapted from Corset's constraint
// declarations to SHDL's component/port/connection model.
package ast

import "github.com/shdl-lang/shdlc/pkg/source"

// Node is implemented by every AST element that carries a source span, the
// minimum needed for diagnostic reporting throughout the pipeline.
type Node interface {
	Span() source.Span
}

// Module is the root of a single parsed SHDL file: a filename-derived name,
// its ordered imports, and its component definitions keyed by name.
type Module struct {
	Name       string
	Imports    []*Import
	Components map[string]*ComponentDef
	// Order preserves declaration order for deterministic re-emission
	// (§4.3.5's "deterministic ordering" requirement begins here).
	Order []*ComponentDef
}

// Import represents a single `use m::{A,B};` statement.
type Import struct {
	ModuleName string
	Symbols    []string
	span       source.Span
}

// NewImport constructs an Import.
func NewImport(moduleName string, symbols []string, span source.Span) *Import {
	return &Import{moduleName, symbols, span}
}

// Span implements Node.
func (i *Import) Span() source.Span { return i.span }

// Port is a named, positive-width signal declared on a component's input or
// output port list. Bit indices into a port are 1-based and LSB-first
// (§6.1): bit 1 is the LSB, bit Width is the MSB.
type Port struct {
	Name  string
	Width uint
	span  source.Span
}

// NewPort constructs a Port.
func NewPort(name string, width uint, span source.Span) Port {
	return Port{name, width, span}
}

// Span implements Node.
func (p Port) Span() source.Span { return p.span }

// BodyItem is implemented by every kind of statement that can appear
// directly in a component's body: instance declarations, named constants,
// top-level generators (which expand to instance declarations, §4.3 phase
//2), and the single connect block.
type BodyItem interface {
	Node
	isBodyItem()
}

func (*InstanceDecl) isBodyItem()  {}
func (*Constant) isBodyItem()      {}
func (*Generator) isBodyItem()     {}
func (*ConnectBlock) isBodyItem()  {}

// ComponentDef is a single `component NAME(ins) -> (outs) { body }`
// definition. Body preserves source order across instance declarations,
// constants, generators, and the connect block; order between these kinds
// carries no semantics (§3.1) but is retained anyway since the flattener's
// determinism guarantee (§4.3.5) is defined in terms of source position.
type ComponentDef struct {
	Name    string
	Inputs  []Port
	Outputs []Port
	Body    []BodyItem
	span    source.Span
}

// NewComponentDef constructs a ComponentDef.
func NewComponentDef(name string, inputs, outputs []Port, span source.Span) *ComponentDef {
	return &ComponentDef{Name: name, Inputs: inputs, Outputs: outputs, span: span}
}

// Span implements Node.
func (c *ComponentDef) Span() source.Span { return c.span }

// ExtendSpan widens this component's span to also cover end; used by the
// parser once the closing brace of the component body has been consumed.
func (c *ComponentDef) ExtendSpan(end source.Span) {
	c.span = c.span.Merge(end)
}

// Instances returns the instance declarations directly in this component's
// body (not those nested inside a top-level generator; the flattener
// expands those first).
func (c *ComponentDef) Instances() []*InstanceDecl {
	var out []*InstanceDecl

	for _, item := range c.Body {
		if d, ok := item.(*InstanceDecl); ok {
			out = append(out, d)
		}
	}

	return out
}

// Constants returns the named constants declared in this component's body.
func (c *ComponentDef) Constants() []*Constant {
	var out []*Constant

	for _, item := range c.Body {
		if d, ok := item.(*Constant); ok {
			out = append(out, d)
		}
	}

	return out
}

// Generators returns the top-level generators (those producing instance
// declarations rather than connections) declared in this component's body.
func (c *ComponentDef) Generators() []*Generator {
	var out []*Generator

	for _, item := range c.Body {
		if g, ok := item.(*Generator); ok {
			out = append(out, g)
		}
	}

	return out
}

// Connect returns this component's connect block, or nil if absent (an
// edge case the flattener reports as an error since every component needs
// at least its output ports driven).
func (c *ComponentDef) Connect() *ConnectBlock {
	for _, item := range c.Body {
		if b, ok := item.(*ConnectBlock); ok {
			return b
		}
	}

	return nil
}

// InstanceDecl is a `name: Type;` instance declaration. Type is either one
// of the six primitive keywords or another component's name. Declarations
// may appear directly in a component body or inside a Generator, in which
// case Name typically carries a `{i}` template substitution (§4.3 phase 2).
type InstanceDecl struct {
	Name TemplatedIdent
	Type string
	span source.Span
}

// NewInstanceDecl constructs an InstanceDecl.
func NewInstanceDecl(name TemplatedIdent, typ string, span source.Span) *InstanceDecl {
	return &InstanceDecl{name, typ, span}
}

// Span implements Node.
func (d *InstanceDecl) Span() source.Span { return d.span }

// Constant is a named value: `NAME[width] = value;`. Width is 0 when not
// explicitly given in source, in which case the inferred width is
// ceil(log2(value+1)), or 1 for value 0 (§3.1).
type Constant struct {
	Name          string
	ExplicitWidth uint // 0 if not given
	Value         uint64
	span          source.Span
}

// NewConstant constructs a Constant.
func NewConstant(name string, explicitWidth uint, value uint64, span source.Span) *Constant {
	return &Constant{name, explicitWidth, value, span}
}

// Span implements Node.
func (c *Constant) Span() source.Span { return c.span }

// InferredWidth returns this constant's width: the explicit width if given,
// else ceil(log2(value+1)) (or 1 for value 0).
func (c *Constant) InferredWidth() uint {
	if c.ExplicitWidth != 0 {
		return c.ExplicitWidth
	}

	return BitsFor(c.Value)
}

// BitsFor returns the number of bits needed to represent v: ceil(log2(v+1)),
// or 1 when v is 0.
func BitsFor(v uint64) uint {
	if v == 0 {
		return 1
	}

	var n uint

	for v > 0 {
		n++
		v >>= 1
	}

	return n
}

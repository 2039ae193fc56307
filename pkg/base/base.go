// Package base defines the Base SHDL intermediate representation (§3.2):
// the flat output of the flattener, with hierarchy, generators, expanders,
// and named constants all gone, leaving only primitive instances and
// single-bit connections. It is grounded on the teacher's distinction
// between Corset's surface AST and its post-compilation HIR/MIR/AIR
// schemas (pkg/ir/hir, pkg/ir/mir, pkg/ir/air): a deliberately small,
// tree-shaped IR with none of the surface language's sugar.
package base

import (
	"fmt"

	"github.com/shdl-lang/shdlc/pkg/ast"
)

// Kind identifies a primitive instance's gate type. The six primitives
// (§6.1) are the only instance kinds that can exist in Base SHDL.
type Kind uint8

// Primitive kinds.
const (
	AND Kind = iota
	OR
	NOT
	XOR
	VCC
	GND
)

// String renders a Kind for diagnostics and as the codegen's symbol
// fragment (e.g. "AND_O_0").
func (k Kind) String() string {
	switch k {
	case AND:
		return "AND"
	case OR:
		return "OR"
	case NOT:
		return "NOT"
	case XOR:
		return "XOR"
	case VCC:
		return "VCC"
	case GND:
		return "GND"
	default:
		return "?"
	}
}

// IsBinary reports whether this kind has two inputs (A, B); NOT has only
// A, and VCC/GND have none.
func (k Kind) IsBinary() bool {
	return k == AND || k == OR || k == XOR
}

// Kinds lists every primitive kind in a fixed, deterministic order; codegen
// iterates KIND buckets in this order so identical Base IR always produces
// byte-identical output (§4.5.5).
var Kinds = [...]Kind{AND, OR, NOT, XOR, VCC, GND}

// Instance is a single primitive gate or constant source, named uniquely
// within its owning Component by a path-like concatenation reflecting its
// hierarchical origin (§4.3 phase 5, §3.2).
type Instance struct {
	Name string
	Kind Kind
}

// Endpoint identifies one bit of either a component port or a primitive
// instance's port. It is the unit every Base-level Connection relates:
// every signal reference has been bit-expanded to exactly one bit by the
// time the flattener is done (§3.2's "Widths" invariant).
type Endpoint struct {
	// IsPort is true when this endpoint names a component port bit rather
	// than an instance port.
	IsPort bool
	// PortName and Bit apply when IsPort is true. Bit is 1-based LSB-first
	// (§6.1).
	PortName string
	Bit      uint
	// Instance and Port apply when IsPort is false. Port is one of "A",
	// "B", or "O" for a primitive instance (§6.1's fixed primitive port
	// sets); Bit is then always 1, since every primitive port is a single
	// bit. Before hierarchy inlining (§4.3 phase 5) completes, Port may
	// instead name a not-yet-inlined subcomponent instance's declared
	// port, in which case Bit selects the referenced bit of that port.
	Instance string
	Port     string
}

// ComponentPort constructs an Endpoint naming a component port bit.
func ComponentPort(name string, bit uint) Endpoint {
	return Endpoint{IsPort: true, PortName: name, Bit: bit}
}

// InstancePort constructs an Endpoint naming a primitive instance's
// single-bit port.
func InstancePort(instance, port string) Endpoint {
	return Endpoint{Instance: instance, Port: port, Bit: 1}
}

// InstancePortBit constructs an Endpoint naming one bit of a (possibly
// not yet inlined) instance's named port.
func InstancePortBit(instance, port string, bit uint) Endpoint {
	return Endpoint{Instance: instance, Port: port, Bit: bit}
}

// String renders an endpoint for diagnostics and deterministic sorting.
func (e Endpoint) String() string {
	if e.IsPort {
		return fmt.Sprintf("%s[%d]", e.PortName, e.Bit)
	}

	return fmt.Sprintf("%s.%s[%d]", e.Instance, e.Port, e.Bit)
}

// Connection is a single-bit wire: exactly one Src drives exactly one Dst
// (§3.2's "Drivers" invariant, enforced by the analyzer rather than this
// type itself, which is just a pair).
type Connection struct {
	Src Endpoint
	Dst Endpoint
}

// Component is the flat, hierarchy-free Base SHDL representation of a
// single SHDL component (§3.2): the original port list, a list of
// primitive instances, and a list of single-bit connections between them.
type Component struct {
	Name        string
	Inputs      []ast.Port
	Outputs     []ast.Port
	Instances   []Instance
	Connections []Connection
}

// InputWidth returns the bit width of the named input port, or 0 if there
// is no such port.
func (c *Component) InputWidth(name string) uint {
	for _, p := range c.Inputs {
		if p.Name == name {
			return p.Width
		}
	}

	return 0
}

// OutputWidth returns the bit width of the named output port, or 0 if
// there is no such port.
func (c *Component) OutputWidth(name string) uint {
	for _, p := range c.Outputs {
		if p.Name == name {
			return p.Width
		}
	}

	return 0
}

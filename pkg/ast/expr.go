package ast

import (
	"strconv"

	"github.com/shdl-lang/shdlc/pkg/source"
)

// IndexExpr is an integer-arithmetic expression appearing inside a signal
// index or bit range, evaluated over generator-variable bindings at
// flatten time (§3.1, §4.3 phase 2). It supports "+", "-", "*", integer
// literals, generator variables, and grouping.
type IndexExpr interface {
	Node
	isIndexExpr()
}

// IntLit is a literal integer appearing in an index expression.
type IntLit struct {
	Value int
	span  source.Span
}

// NewIntLit constructs an IntLit.
func NewIntLit(value int, span source.Span) *IntLit { return &IntLit{value, span} }

func (*IntLit) isIndexExpr()          {}
func (e *IntLit) Span() source.Span   { return e.span }

// VarRef refers to an enclosing generator's loop variable by name.
type VarRef struct {
	Name string
	span source.Span
}

// NewVarRef constructs a VarRef.
func NewVarRef(name string, span source.Span) *VarRef { return &VarRef{name, span} }

func (*VarRef) isIndexExpr()        {}
func (e *VarRef) Span() source.Span { return e.span }

// BinOp is a binary arithmetic operation over two index expressions.
type BinOp struct {
	Op    byte // '+', '-', or '*'
	Left  IndexExpr
	Right IndexExpr
	span  source.Span
}

// NewBinOp constructs a BinOp.
func NewBinOp(op byte, left, right IndexExpr, span source.Span) *BinOp {
	return &BinOp{op, left, right, span}
}

func (*BinOp) isIndexExpr()        {}
func (e *BinOp) Span() source.Span { return e.span }

// Eval evaluates an index expression to an integer given a binding of
// generator variables to their current iteration value. Arithmetic is
// performed over unbounded (machine int) integers per §9's design note;
// range-checking against enclosing port widths happens at the use site,
// not here.
func Eval(e IndexExpr, bindings map[string]int) int {
	switch n := e.(type) {
	case *IntLit:
		return n.Value
	case *VarRef:
		v, ok := bindings[n.Name]
		if !ok {
			panic("unbound generator variable: " + n.Name)
		}

		return v
	case *BinOp:
		l, r := Eval(n.Left, bindings), Eval(n.Right, bindings)

		switch n.Op {
		case '+':
			return l + r
		case '-':
			return l - r
		case '*':
			return l * r
		default:
			panic("unknown operator")
		}
	default:
		panic("unknown index expression kind")
	}
}

// TemplatedIdent is an identifier that may carry a single trailing `{expr}`
// substitution, the special form described in §4.3 phase 2: `name{i}`
// expands to `name` concatenated with the decimal representation of i. It
// covers instance names and signal-reference bases/members that appear
// inside a generator body (e.g. `g{i}` in `>i[3]{g{i}:AND;}`); outside a
// generator, Expr is nil and Base is used verbatim.
type TemplatedIdent struct {
	Base string
	Expr IndexExpr // nil if this identifier has no {...} suffix
	span source.Span
}

// NewPlainIdent constructs a TemplatedIdent with no substitution.
func NewPlainIdent(base string, span source.Span) TemplatedIdent {
	return TemplatedIdent{Base: base, span: span}
}

// NewTemplatedIdent constructs a TemplatedIdent with a `{expr}` suffix.
func NewTemplatedIdent(base string, expr IndexExpr, span source.Span) TemplatedIdent {
	return TemplatedIdent{Base: base, Expr: expr, span: span}
}

// Span implements Node.
func (t TemplatedIdent) Span() source.Span { return t.span }

// Resolve renders this identifier to its final flat name given a binding
// of enclosing generator variables to their current values.
func (t TemplatedIdent) Resolve(bindings map[string]int) string {
	if t.Expr == nil {
		return t.Base
	}

	return t.Base + strconv.Itoa(Eval(t.Expr, bindings))
}

package ast

import "github.com/shdl-lang/shdlc/pkg/source"

// RangeItem is one comma-separated item of a generator's range list
// `[R]` (§3.1, §4.2 `range`). A bare integer k means "1..k" only when it
// is the sole item in a single-item range list at the top level of a
// generator header; otherwise a bare integer is the singleton {k}. Lo/Hi
// follow the same open-bound convention as IndexSpec: a nil Hi means the
// range is upper-open (`a:`), adopting the enclosing signal's width at use
// site; Lo is never nil for a closed or open-upper range, but is nil for
// the `:b` form, defaulting to 1.
type RangeItem struct {
	// Bare is true for a plain integer item (`k`), which is disambiguated
	// into "1..k" vs "singleton k" by the generator that owns it.
	Bare    bool
	BareVal int
	Lo, Hi  *int // nil Lo defaults to 1; nil Hi is open (upper-bounded elsewhere)
}

// NewBareRange constructs the bare-integer RangeItem form.
func NewBareRange(k int) RangeItem { return RangeItem{Bare: true, BareVal: k} }

// NewClosedRange constructs an explicit a:b RangeItem.
func NewClosedRange(lo, hi int) RangeItem { return RangeItem{Lo: &lo, Hi: &hi} }

// NewOpenUpperRange constructs an a: RangeItem (open upper bound).
func NewOpenUpperRange(lo int) RangeItem { return RangeItem{Lo: &lo} }

// NewOpenLowerRange constructs a :b RangeItem (open lower bound, defaults
// to 1).
func NewOpenLowerRange(hi int) RangeItem { return RangeItem{Hi: &hi} }

// GenItem is implemented by everything a generator body may contain:
// instance declarations, connections, and nested generators (§3.1).
type GenItem interface {
	Node
	isGenItem()
}

func (*InstanceDecl) isGenItem() {}
func (*Connection) isGenItem()   {}
func (*Generator) isGenItem()    {}

// Generator is the `> v [R] { body }` iteration construct (§3.1, §4.2
// `gen`). Ranges holds the (possibly multi-item) range list; Body holds the
// ordered statements to be repeated once per bound value of Var.
type Generator struct {
	Var    string
	Ranges []RangeItem
	Body   []GenItem
	span   source.Span
}

// NewGenerator constructs a Generator.
func NewGenerator(v string, ranges []RangeItem, body []GenItem, span source.Span) *Generator {
	return &Generator{v, ranges, body, span}
}

// Span implements Node.
func (g *Generator) Span() source.Span { return g.span }

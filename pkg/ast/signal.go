package ast

import "github.com/shdl-lang/shdlc/pkg/source"

// IndexSpec is the optional `[ idx_or_range ]` suffix on a signal reference
// (§4.2 grammar: idx_or_range). Exactly one of Single or {Lo,Hi} applies,
// selected by IsRange. In a range, either Lo or Hi (but not both) may be
// nil, representing the open forms `[:n]` and `[n:]`; an open lower bound
// adopts 1, an open upper bound adopts the enclosing port's width at the
// use site (§4.3 phase 2/3).
type IndexSpec struct {
	IsRange bool
	Single  IndexExpr
	Lo, Hi  IndexExpr
}

// NewSingleIndex constructs an IndexSpec selecting one bit.
func NewSingleIndex(e IndexExpr) IndexSpec {
	return IndexSpec{Single: e}
}

// NewRangeIndex constructs an IndexSpec selecting an inclusive bit range;
// lo or hi may be nil for an open bound.
func NewRangeIndex(lo, hi IndexExpr) IndexSpec {
	return IndexSpec{IsRange: true, Lo: lo, Hi: hi}
}

// SignalRef is a reference to a signal within a connection or generator
// body: `IDENT [ "." IDENT ] [ "[" idx_or_range "]" ]` (§4.2). Base names
// either a component port, a local instance, or a named constant; an
// optional Member selects a named instance's port (e.g. `g.O`); an
// optional Index selects a bit or bit range of the resulting signal. Base
// and Member are TemplatedIdents since either may carry a generator-body
// `{i}` substitution.
type SignalRef struct {
	Base   TemplatedIdent
	Member TemplatedIdent // zero value (Base=="") if this reference has no ".member" suffix
	Index  *IndexSpec
	span   source.Span
}

// NewSignalRef constructs a SignalRef.
func NewSignalRef(base, member TemplatedIdent, index *IndexSpec, span source.Span) *SignalRef {
	return &SignalRef{base, member, index, span}
}

// Span implements Node.
func (s *SignalRef) Span() source.Span { return s.span }

// HasMember reports whether this reference names an instance port.
func (s *SignalRef) HasMember() bool { return s.Member.Base != "" }

// Connection is a single `src -> dst;` wiring statement.
type Connection struct {
	Src  *SignalRef
	Dst  *SignalRef
	span source.Span
}

// NewConnection constructs a Connection.
func NewConnection(src, dst *SignalRef, span source.Span) *Connection {
	return &Connection{src, dst, span}
}

// Span implements Node.
func (c *Connection) Span() source.Span { return c.span }

// ConnectItem is implemented by both Connection and Generator: a connect
// block's body is an ordered sequence of the two (§3.1's Connect block).
type ConnectItem interface {
	Node
	isConnectItem()
}

func (*Connection) isConnectItem() {}
func (*Generator) isConnectItem()  {}

// ConnectBlock is a component's single `connect { ... }` block: an ordered
// sequence of connections and generators. Ordering is syntactic only —
// semantics are concurrent (§3.1).
type ConnectBlock struct {
	Items []ConnectItem
	span  source.Span
}

// NewConnectBlock constructs a ConnectBlock.
func NewConnectBlock(items []ConnectItem, span source.Span) *ConnectBlock {
	return &ConnectBlock{items, span}
}

// Span implements Node.
func (c *ConnectBlock) Span() source.Span { return c.span }

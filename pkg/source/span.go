package source

import "fmt"

// Span represents a contiguous slice of some original source file. Rather
// than retain a string slice directly, we retain the physical indices so
// that, e.g., the enclosing line can be recovered later for diagnostics.
type Span struct {
	// FileID identifies which source file this span is relative to.
	FileID uint
	// Line is the 1-based line number at which this span begins.
	Line uint
	// Column is the 1-based column number at which this span begins.
	Column uint
	// start is the first rune index of this span within its file.
	start int
	// end is one past the final rune index of this span within its file.
	end int
}

// NewSpan constructs a new span, checking the internal invariant that start
// cannot exceed end.
func NewSpan(fileID uint, line, column uint, start, end int) Span {
	if start > end {
		panic("invalid span")
	}

	return Span{fileID, line, column, start, end}
}

// Start returns the starting rune index of this span within its file.
func (p Span) Start() int { return p.start }

// End returns one past the final rune index of this span within its file.
func (p Span) End() int { return p.end }

// Length returns the number of runes covered by this span.
func (p Span) Length() int { return p.end - p.start }

// Merge combines this span with another, producing the smallest span
// covering both. Both spans must belong to the same file.
func (p Span) Merge(other Span) Span {
	start := min(p.start, other.start)
	end := max(p.end, other.end)
	line, column := p.Line, p.Column

	if other.start < p.start {
		line, column = other.Line, other.Column
	}

	return Span{p.FileID, line, column, start, end}
}

// String renders a span as "line:column" for use in diagnostic output.
func (p Span) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Package source provides the low-level file, span, and source-map
// machinery shared by every later stage of the pipeline, from the lexer
// through to the code generator's diagnostics. It is grounded on the
// teacher's pkg/sexp source-handling trio (source_file.go, source_map.go,
// error.go), generalized to work over tokens rather than s-expressions.
package source

// File represents a single SHDL source file, already decoded to runes so
// later stages never have to think about UTF-8 boundaries again.
type File struct {
	// id is a small integer uniquely identifying this file within a
	// compilation. Spans carry a FileID rather than a *File pointer so they
	// remain comparable and safe to use as map keys.
	id uint
	// name is the file's path as given on the command line or resolved via
	// the -I search path.
	name string
	// contents holds the decoded source text.
	contents []rune
	// lineStarts[i] is the rune index at which line i+1 (1-based) begins.
	lineStarts []int
}

// NewFile decodes raw bytes into a File, pre-computing line-start offsets so
// that Span->Line/Column lookups are O(log n).
func NewFile(id uint, name string, bytes []byte) *File {
	contents := []rune(string(bytes))
	lineStarts := []int{0}

	for i, r := range contents {
		if r == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}

	return &File{id, name, contents, lineStarts}
}

// ID returns this file's small integer identifier.
func (f *File) ID() uint { return f.id }

// Name returns the file's path.
func (f *File) Name() string { return f.name }

// Contents returns the decoded source text.
func (f *File) Contents() []rune { return f.contents }

// Span constructs a Span covering [start,end) of this file, deriving the
// line/column of start via binary search over the pre-computed line starts.
func (f *File) Span(start, end int) Span {
	line, col := f.lineAndColumn(start)
	return NewSpan(f.id, line, col, start, end)
}

// lineAndColumn finds the 1-based line and column of a rune offset.
func (f *File) lineAndColumn(offset int) (uint, uint) {
	lo, hi := 0, len(f.lineStarts)-1

	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	return uint(lo + 1), uint(offset - f.lineStarts[lo] + 1)
}

// Line returns the raw text of the given 1-based line number, or "" if out
// of range. Used when rendering a diagnostic's source excerpt.
func (f *File) Line(number uint) string {
	if number < 1 || int(number) > len(f.lineStarts) {
		return ""
	}

	start := f.lineStarts[number-1]
	end := len(f.contents)

	if int(number) < len(f.lineStarts) {
		end = f.lineStarts[number]
	}
	// Trim trailing newline, if any.
	for end > start && (f.contents[end-1] == '\n' || f.contents[end-1] == '\r') {
		end--
	}

	return string(f.contents[start:end])
}

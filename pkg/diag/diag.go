// Package diag implements the structured diagnostic model from the
// language specification's error-handling design: every compiler phase
// produces either an IR advance or one or more {code, severity, message,
// span, notes} diagnostics, and a non-empty error Bag aborts the pipeline
// before the next phase runs. It is grounded on the teacher's
// pkg/sexp.SyntaxError, generalized with the severity/code/notes fields the
// distilled spec's taxonomy requires.
package diag

import (
	"fmt"

	"github.com/shdl-lang/shdlc/pkg/source"
)

// Severity distinguishes diagnostics that abort compilation from those that
// merely inform the user.
type Severity uint8

const (
	// Error diagnostics cause the pipeline to stop before the next phase.
	Error Severity = iota
	// Warning diagnostics are reported but never block compilation.
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}

	return "error"
}

// Code identifies the family and specific kind of a diagnostic, following
// the ExNNxx taxonomy from the specification (§7, §6.2).
type Code string

// Lex errors (E01xx).
const (
	CodeLexInvalid              Code = "E0101"
	CodeLexUnterminatedComment  Code = "E0102"
	CodeLexBadNumber            Code = "E0103"
)

// Parse errors (E02xx).
const (
	CodeParseMissingArrow     Code = "E0201"
	CodeParseMissingSemicolon Code = "E0202"
	CodeParseUnbalanced       Code = "E0203"
	CodeParseExpectedIdent    Code = "E0204"
	CodeParseUnexpectedEquals Code = "E0205"
	CodeParseBadWidth         Code = "E0206"
	CodeParseBadRange         Code = "E0207"
	CodeParseUnexpectedToken  Code = "E0208"
)

// Name-resolution errors (E03xx).
const (
	CodeUndefinedComponent Code = "E0301"
	CodeUndefinedPort      Code = "E0302"
	CodeUndefinedInstance  Code = "E0303"
	CodeDuplicateInstance  Code = "E0304"
	CodeDuplicatePort      Code = "E0305"
	CodeShadowedVariable   Code = "E0306"
)

// Type/width errors (E04xx).
const (
	CodeWidthMismatch  Code = "E0401"
	CodeIndexOutOfRange Code = "E0402"
	CodeNonPositiveWidth Code = "E0403"
)

// Connection errors (E05xx) — the analyzer's exclusive domain.
const (
	CodeMultiDriver      Code = "E0501"
	CodeUnconnectedInput Code = "E0502"
	CodeUnconnectedOutput Code = "E0503"
)

// Generator errors (E06xx).
const (
	CodeBadGeneratorRange Code = "E0601"
	CodeGeneratorShadow   Code = "E0606"
)

// Import errors (E07xx).
const (
	CodeMissingImport  Code = "E0701"
	CodeCyclicImport   Code = "E0702"
	CodeUnknownImportedSymbol Code = "E0703"
)

// Constant errors (E08xx).
const (
	CodeConstantWidth Code = "E0801"
)

// Warnings (W01xx).
const (
	WarnUnusedPort          Code = "W0101"
	WarnUnusedConstant      Code = "W0102"
	WarnImplicitWidthShort  Code = "W0103"
	WarnShadowedVariable    Code = "W0106"
)

// Diagnostic is a single structured report from a compiler phase.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Span     source.Span
	Notes    []string
}

// New constructs an error-severity diagnostic.
func New(code Code, span source.Span, format string, args ...any) Diagnostic {
	return Diagnostic{code, Error, fmt.Sprintf(format, args...), span, nil}
}

// NewWarning constructs a warning-severity diagnostic.
func NewWarning(code Code, span source.Span, format string, args ...any) Diagnostic {
	return Diagnostic{code, Warning, fmt.Sprintf(format, args...), span, nil}
}

// WithNote attaches an additional note to a diagnostic and returns it.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// Error implements the error interface so a Diagnostic can be returned (or
// wrapped) anywhere a plain error is expected.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Span.String(), d.Code, d.Message)
}

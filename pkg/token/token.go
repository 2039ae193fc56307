// Package token implements the SHDL lexer (§4.1): a character stream to
// token stream conversion recognizing literals, identifiers, punctuation,
// and the three keywords component/use/connect, while eliding comments. It
// is grounded on the shape of the teacher's pkg/sexp.Parser.Next tokenizer,
// generalized from a single-character s-expression alphabet to SHDL's
// richer punctuation and keyword set.
package token

import "github.com/shdl-lang/shdlc/pkg/source"

// Kind identifies the lexical category of a Token.
type Kind uint8

// Token kinds.
const (
	IDENT Kind = iota
	INT
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	SEMI
	COLON
	DOT
	ARROW      // ->
	DCOLON     // ::
	GT         // >
	EQUALS     // =
	PLUS
	MINUS
	STAR
	KwComponent
	KwUse
	KwConnect
	EOF
)

var keywords = map[string]Kind{
	"component": KwComponent,
	"use":       KwUse,
	"connect":   KwConnect,
}

// Token is a single lexeme together with its source span and, for INT
// tokens, the decoded value.
type Token struct {
	Kind  Kind
	Text  string
	Value uint64 // populated for INT tokens
	Span  source.Span
}

// String renders a token kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case IDENT:
		return "identifier"
	case INT:
		return "integer"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case LBRACE:
		return "{"
	case RBRACE:
		return "}"
	case LBRACKET:
		return "["
	case RBRACKET:
		return "]"
	case COMMA:
		return ","
	case SEMI:
		return ";"
	case COLON:
		return ":"
	case DOT:
		return "."
	case ARROW:
		return "->"
	case DCOLON:
		return "::"
	case GT:
		return ">"
	case EQUALS:
		return "="
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case KwComponent:
		return "component"
	case KwUse:
		return "use"
	case KwConnect:
		return "connect"
	case EOF:
		return "end-of-file"
	default:
		return "?"
	}
}

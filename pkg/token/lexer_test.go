package token

import (
	"testing"

	"github.com/shdl-lang/shdlc/pkg/source"
)

func lex(t *testing.T, src string) []Token {
	t.Helper()

	file := source.NewFile(1, "test.shdl", []byte(src))

	toks, err := Tokenize(file)
	if err != nil {
		t.Fatalf("unexpected lex error: %s", err)
	}

	return toks
}

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}

	return out
}

func Test_Lexer_Punctuation(t *testing.T) {
	toks := lex(t, "(){}[],;:.->::>=+-*")

	want := []Kind{
		LPAREN, RPAREN, LBRACE, RBRACE, LBRACKET, RBRACKET, COMMA, SEMI, COLON,
		DOT, ARROW, DCOLON, GT, EQUALS, PLUS, MINUS, STAR, EOF,
	}

	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func Test_Lexer_Keywords(t *testing.T) {
	toks := lex(t, "component use connect")

	want := []Kind{KwComponent, KwUse, KwConnect, EOF}

	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func Test_Lexer_PrimitiveNamesAreIdents(t *testing.T) {
	// __VCC__/__GND__/AND/OR/NOT/XOR carry no special lexical status: the
	// flattener recognizes them by Type-string comparison, not the lexer.
	toks := lex(t, "__VCC__ __GND__ AND")

	for i, tok := range toks[:3] {
		if tok.Kind != IDENT {
			t.Errorf("token %d: got %s, want identifier", i, tok.Kind)
		}
	}
}

func Test_Lexer_DecimalInt(t *testing.T) {
	toks := lex(t, "42")

	if toks[0].Kind != INT || toks[0].Value != 42 {
		t.Fatalf("got %v, want INT(42)", toks[0])
	}
}

func Test_Lexer_HexInt(t *testing.T) {
	toks := lex(t, "0xFF")

	if toks[0].Kind != INT || toks[0].Value != 255 {
		t.Fatalf("got %v, want INT(255)", toks[0])
	}
}

func Test_Lexer_LineComment(t *testing.T) {
	toks := lex(t, "A # a trailing comment\nB")

	if len(toks) != 3 { // A, B, EOF
		t.Fatalf("comment not elided: %v", toks)
	}
}

func Test_Lexer_QuotedComment(t *testing.T) {
	toks := lex(t, "A \"an inline remark\" B")

	if len(toks) != 3 { // A, B, EOF
		t.Fatalf("quoted comment not elided: %v", toks)
	}
}

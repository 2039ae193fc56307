// Package parser implements the SHDL recursive-descent parser (§4.2): a
// token stream is converted into an Expanded-SHDL module AST, one module
// per file. It is grounded on the teacher's pkg/corset/compiler/parser.go
// (a Parser struct wrapping a token cursor, one parseX method per grammar
// production, diagnostics collected into a bag so a single pass can report
// many errors) generalized from Corset's s-expression-based grammar to
// SHDL's own token grammar.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/shdl-lang/shdlc/pkg/ast"
	"github.com/shdl-lang/shdlc/pkg/diag"
	"github.com/shdl-lang/shdlc/pkg/source"
	"github.com/shdl-lang/shdlc/pkg/token"
)

// Parser holds the state needed to parse a single source file's token
// stream into a Module. Errors are recoverable to the next statement or
// block boundary (§4.2) so a single Parse call can surface many problems;
// callers should check Bag.HasErrors() before trusting the returned AST.
type Parser struct {
	file   *source.File
	tokens []token.Token
	pos    int
	bag    diag.Bag
}

// Parse tokenizes and parses a single source file into a Module. The
// module's name is derived from the file's base name without extension
// (§3.1), matching e.g. "adder.shdl" naming module "adder".
func Parse(file *source.File) (*ast.Module, diag.Bag) {
	var bag diag.Bag

	tokens, err := token.Tokenize(file)
	if err != nil {
		if d, ok := err.(diag.Diagnostic); ok {
			bag.Add(d)
		} else {
			bag.Add(diag.New(diag.CodeLexInvalid, file.Span(0, 0), "%s", err.Error()))
		}

		return nil, bag
	}

	p := &Parser{file: file, tokens: tokens}
	mod := p.parseModule()
	bag.Merge(p.bag)

	return mod, bag
}

func moduleNameOf(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ---- token cursor helpers ----

func (p *Parser) cur() token.Token { return p.tokens[p.pos] }

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}

	return t
}

// expect consumes the current token if it matches k, else records a
// diagnostic and returns the zero Token without advancing past EOF.
func (p *Parser) expect(k token.Kind, code diag.Code) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}

	p.bag.Add(diag.New(code, p.cur().Span, "expected %s but found %s", k, p.cur().Kind))

	return token.Token{}, false
}

// recover advances past tokens until it finds a SEMI (consumed) or RBRACE
// (not consumed) or EOF, implementing the "recover to next statement or
// block boundary" policy from §4.2/§7.
func (p *Parser) recover() {
	for !p.at(token.EOF) && !p.at(token.RBRACE) {
		if p.at(token.SEMI) {
			p.advance()
			return
		}

		p.advance()
	}
}

// ---- grammar ----

func (p *Parser) parseModule() *ast.Module {
	mod := &ast.Module{
		Name:       moduleNameOf(p.file.Name()),
		Components: make(map[string]*ast.ComponentDef),
	}

	for p.at(token.KwUse) {
		if imp := p.parseImport(); imp != nil {
			mod.Imports = append(mod.Imports, imp)
		}
	}

	for p.at(token.KwComponent) {
		comp := p.parseComponent()
		if comp == nil {
			continue
		}

		if _, dup := mod.Components[comp.Name]; dup {
			p.bag.Add(diag.New(diag.CodeDuplicateInstance, comp.Span(),
				"duplicate component definition %q", comp.Name))
		}

		mod.Components[comp.Name] = comp
		mod.Order = append(mod.Order, comp)
	}

	if !p.at(token.EOF) {
		p.bag.Add(diag.New(diag.CodeParseUnexpectedToken, p.cur().Span,
			"unexpected token %s at module scope", p.cur().Kind))
	}

	return mod
}

func (p *Parser) parseImport() *ast.Import {
	start := p.cur().Span
	p.advance() // 'use'

	nameTok, ok := p.expect(token.IDENT, diag.CodeParseExpectedIdent)
	if !ok {
		p.recover()
		return nil
	}

	if _, ok := p.expect(token.DCOLON, diag.CodeParseUnexpectedToken); !ok {
		p.recover()
		return nil
	}

	if _, ok := p.expect(token.LBRACE, diag.CodeParseUnbalanced); !ok {
		p.recover()
		return nil
	}

	var symbols []string

	for {
		sym, ok := p.expect(token.IDENT, diag.CodeParseExpectedIdent)
		if !ok {
			p.recover()
			return nil
		}

		symbols = append(symbols, sym.Text)

		if p.at(token.COMMA) {
			p.advance()
			continue
		}

		break
	}

	end, ok := p.expect(token.RBRACE, diag.CodeParseUnbalanced)
	if !ok {
		p.recover()
		return nil
	}

	if _, ok := p.expect(token.SEMI, diag.CodeParseMissingSemicolon); !ok {
		p.recover()
		return nil
	}

	return ast.NewImport(nameTok.Text, symbols, start.Merge(end.Span))
}

func (p *Parser) parsePortList() []ast.Port {
	var ports []ast.Port

	if p.at(token.RPAREN) {
		return ports
	}

	for {
		ports = append(ports, p.parsePort())

		if p.at(token.COMMA) {
			p.advance()
			continue
		}

		break
	}

	return ports
}

func (p *Parser) parsePort() ast.Port {
	nameTok, _ := p.expect(token.IDENT, diag.CodeParseExpectedIdent)
	width := uint(1)
	span := nameTok.Span

	if p.at(token.LBRACKET) {
		p.advance()

		w, _ := p.expect(token.INT, diag.CodeParseBadWidth)
		end, _ := p.expect(token.RBRACKET, diag.CodeParseUnbalanced)
		span = span.Merge(end.Span)

		if w.Value == 0 {
			p.bag.Add(diag.New(diag.CodeNonPositiveWidth, w.Span, "port width must be positive"))
		} else {
			width = uint(w.Value)
		}
	}

	return ast.NewPort(nameTok.Text, width, span)
}

func (p *Parser) parseComponent() *ast.ComponentDef {
	start := p.cur().Span
	p.advance() // 'component'

	nameTok, ok := p.expect(token.IDENT, diag.CodeParseExpectedIdent)
	if !ok {
		p.recover()
		return nil
	}

	if _, ok := p.expect(token.LPAREN, diag.CodeParseUnbalanced); !ok {
		p.recover()
		return nil
	}

	inputs := p.parsePortList()

	if _, ok := p.expect(token.RPAREN, diag.CodeParseUnbalanced); !ok {
		p.recover()
		return nil
	}

	if _, ok := p.expect(token.ARROW, diag.CodeParseMissingArrow); !ok {
		p.recover()
		return nil
	}

	if _, ok := p.expect(token.LPAREN, diag.CodeParseUnbalanced); !ok {
		p.recover()
		return nil
	}

	outputs := p.parsePortList()

	if _, ok := p.expect(token.RPAREN, diag.CodeParseUnbalanced); !ok {
		p.recover()
		return nil
	}

	if _, ok := p.expect(token.LBRACE, diag.CodeParseUnbalanced); !ok {
		p.recover()
		return nil
	}

	comp := ast.NewComponentDef(nameTok.Text, inputs, outputs, start)

	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		item := p.parseBodyItem()
		if item != nil {
			comp.Body = append(comp.Body, item)
		}
	}

	end, _ := p.expect(token.RBRACE, diag.CodeParseUnbalanced)
	comp.ExtendSpan(end.Span)

	return comp
}

func (p *Parser) parseBodyItem() ast.BodyItem {
	switch p.cur().Kind {
	case token.KwConnect:
		return p.parseConnectBlock()
	case token.GT:
		return p.parseGenerator()
	case token.IDENT:
		return p.parseDeclOrConstant()
	default:
		p.bag.Add(diag.New(diag.CodeParseUnexpectedToken, p.cur().Span,
			"unexpected token %s in component body", p.cur().Kind))
		p.recover()

		return nil
	}
}

func (p *Parser) parseDeclOrConstant() ast.BodyItem {
	nameTok, _ := p.expect(token.IDENT, diag.CodeParseExpectedIdent)

	switch {
	case p.at(token.COLON):
		p.advance()

		typTok, ok := p.expect(token.IDENT, diag.CodeParseExpectedIdent)
		if !ok {
			p.recover()
			return nil
		}

		end, ok := p.expect(token.SEMI, diag.CodeParseMissingSemicolon)
		if !ok {
			p.recover()
			return nil
		}

		return ast.NewInstanceDecl(ast.NewPlainIdent(nameTok.Text, nameTok.Span), typTok.Text,
			nameTok.Span.Merge(end.Span))

	case p.at(token.LBRACKET) || p.at(token.EQUALS):
		width := uint(0)

		if p.at(token.LBRACKET) {
			p.advance()

			w, _ := p.expect(token.INT, diag.CodeParseBadWidth)
			if _, ok := p.expect(token.RBRACKET, diag.CodeParseUnbalanced); !ok {
				p.recover()
				return nil
			}

			if w.Value == 0 {
				p.bag.Add(diag.New(diag.CodeNonPositiveWidth, w.Span, "constant width must be positive"))
			} else {
				width = uint(w.Value)
			}
		}

		if _, ok := p.expect(token.EQUALS, diag.CodeParseUnexpectedEquals); !ok {
			p.recover()
			return nil
		}

		valTok, ok := p.expect(token.INT, diag.CodeParseUnexpectedToken)
		if !ok {
			p.recover()
			return nil
		}

		end, ok := p.expect(token.SEMI, diag.CodeParseMissingSemicolon)
		if !ok {
			p.recover()
			return nil
		}

		return ast.NewConstant(nameTok.Text, width, valTok.Value, nameTok.Span.Merge(end.Span))

	default:
		p.bag.Add(diag.New(diag.CodeParseUnexpectedToken, p.cur().Span,
			"expected ':' or '=' after identifier, found %s", p.cur().Kind))
		p.recover()

		return nil
	}
}

func (p *Parser) parseConnectBlock() *ast.ConnectBlock {
	start := p.cur().Span
	p.advance() // 'connect'

	if _, ok := p.expect(token.LBRACE, diag.CodeParseUnbalanced); !ok {
		p.recover()
		return nil
	}

	var items []ast.ConnectItem

	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		item := p.parseGenItemAsConnectItem()
		if item != nil {
			items = append(items, item)
		}
	}

	end, _ := p.expect(token.RBRACE, diag.CodeParseUnbalanced)

	return ast.NewConnectBlock(items, start.Merge(end.Span))
}

// parseGenItemAsConnectItem parses one statement within a connect block:
// either a generator or a connection (instance declarations are not legal
// here; a misplaced decl is parsed as a connection and reported as
// missing its "->").
func (p *Parser) parseGenItemAsConnectItem() ast.ConnectItem {
	if p.at(token.GT) {
		return p.parseGenerator()
	}

	return p.parseConnection()
}

func (p *Parser) parseGenerator() *ast.Generator {
	start := p.cur().Span
	p.advance() // '>'

	varTok, ok := p.expect(token.IDENT, diag.CodeParseExpectedIdent)
	if !ok {
		p.recover()
		return nil
	}

	if _, ok := p.expect(token.LBRACKET, diag.CodeParseUnbalanced); !ok {
		p.recover()
		return nil
	}

	var ranges []ast.RangeItem

	for {
		ranges = append(ranges, p.parseRangeItem())

		if p.at(token.COMMA) {
			p.advance()
			continue
		}

		break
	}

	if _, ok := p.expect(token.RBRACKET, diag.CodeParseUnbalanced); !ok {
		p.recover()
		return nil
	}

	if _, ok := p.expect(token.LBRACE, diag.CodeParseUnbalanced); !ok {
		p.recover()
		return nil
	}

	var body []ast.GenItem

	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		item := p.parseGenBodyItem()
		if item != nil {
			body = append(body, item)
		}
	}

	end, _ := p.expect(token.RBRACE, diag.CodeParseUnbalanced)

	return ast.NewGenerator(varTok.Text, ranges, body, start.Merge(end.Span))
}

func (p *Parser) parseGenBodyItem() ast.GenItem {
	if p.at(token.GT) {
		return p.parseGenerator()
	}
	// Both instance declarations and connections start with an identifier
	// (possibly templated); disambiguate on the token following it.
	if !p.at(token.IDENT) {
		p.bag.Add(diag.New(diag.CodeParseUnexpectedToken, p.cur().Span,
			"unexpected token %s in generator body", p.cur().Kind))
		p.recover()

		return nil
	}

	save := p.pos
	ident := p.parseTemplatedIdent()

	if p.at(token.COLON) {
		p.advance()

		typTok, ok := p.expect(token.IDENT, diag.CodeParseExpectedIdent)
		if !ok {
			p.recover()
			return nil
		}

		end, ok := p.expect(token.SEMI, diag.CodeParseMissingSemicolon)
		if !ok {
			p.recover()
			return nil
		}

		return ast.NewInstanceDecl(ident, typTok.Text, ident.Span().Merge(end.Span))
	}
	// Not a decl: rewind and parse as a connection (it owns its own
	// leading-identifier parsing via parseSignal).
	p.pos = save

	return p.parseConnection()
}

func (p *Parser) parseConnection() *ast.Connection {
	src := p.parseSignal()
	if src == nil {
		p.recover()
		return nil
	}

	if _, ok := p.expect(token.ARROW, diag.CodeParseMissingArrow); !ok {
		p.recover()
		return nil
	}

	dst := p.parseSignal()
	if dst == nil {
		p.recover()
		return nil
	}

	end, ok := p.expect(token.SEMI, diag.CodeParseMissingSemicolon)
	if !ok {
		p.recover()
		return nil
	}

	return ast.NewConnection(src, dst, src.Span().Merge(end.Span))
}

// parseTemplatedIdent reads an IDENT and, if immediately followed by a
// "{" ... "}" group, parses it as the identifier's generator-variable
// substitution (§4.3 phase 2's `name{i}` form).
func (p *Parser) parseTemplatedIdent() ast.TemplatedIdent {
	tok, _ := p.expect(token.IDENT, diag.CodeParseExpectedIdent)

	if !p.at(token.LBRACE) {
		return ast.NewPlainIdent(tok.Text, tok.Span)
	}

	p.advance() // '{'

	e := p.parseExpr()
	end, _ := p.expect(token.RBRACE, diag.CodeParseUnbalanced)

	return ast.NewTemplatedIdent(tok.Text, e, tok.Span.Merge(end.Span))
}

func (p *Parser) parseSignal() *ast.SignalRef {
	if !p.at(token.IDENT) {
		p.bag.Add(diag.New(diag.CodeParseExpectedIdent, p.cur().Span,
			"expected signal reference, found %s", p.cur().Kind))

		return nil
	}

	base := p.parseTemplatedIdent()
	span := base.Span()

	var member ast.TemplatedIdent

	if p.at(token.DOT) {
		p.advance()
		member = p.parseTemplatedIdent()
		span = span.Merge(member.Span())
	}

	var index *ast.IndexSpec

	if p.at(token.LBRACKET) {
		p.advance()
		spec := p.parseIdxOrRange()
		index = &spec
		end, _ := p.expect(token.RBRACKET, diag.CodeParseUnbalanced)
		span = span.Merge(end.Span)
	}

	return ast.NewSignalRef(base, member, index, span)
}

// parseIdxOrRange parses the bracket contents of a signal reference:
// `expr | expr:expr | :expr | expr:` (§4.2 idx_or_range).
func (p *Parser) parseIdxOrRange() ast.IndexSpec {
	if p.at(token.COLON) {
		p.advance()

		hi := p.parseExpr()

		return ast.NewRangeIndex(nil, hi)
	}

	lo := p.parseExpr()

	if !p.at(token.COLON) {
		return ast.NewSingleIndex(lo)
	}

	p.advance()

	if p.at(token.RBRACKET) {
		return ast.NewRangeIndex(lo, nil)
	}

	hi := p.parseExpr()

	return ast.NewRangeIndex(lo, hi)
}

// parseRangeItem parses one comma-separated item of a generator's `[R]`
// range list (§4.2 `range`).
func (p *Parser) parseRangeItem() ast.RangeItem {
	if p.at(token.COLON) {
		p.advance()

		hi, _ := p.expect(token.INT, diag.CodeParseBadRange)

		return ast.NewOpenLowerRange(int(hi.Value))
	}

	lo, _ := p.expect(token.INT, diag.CodeParseBadRange)

	if !p.at(token.COLON) {
		return ast.NewBareRange(int(lo.Value))
	}

	p.advance()

	if p.at(token.COMMA) || p.at(token.RBRACKET) {
		return ast.NewOpenUpperRange(int(lo.Value))
	}

	hi, _ := p.expect(token.INT, diag.CodeParseBadRange)

	return ast.NewClosedRange(int(lo.Value), int(hi.Value))
}

// parseExpr parses the integer-arithmetic grammar used inside indices and
// identifier templates: "+"/"-" (left-assoc, lowest precedence) over terms
// built from "*" (left-assoc) over atoms (INT literal, generator VarRef, or
// a "{" expr "}" group).
func (p *Parser) parseExpr() ast.IndexExpr {
	left := p.parseTerm()

	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := byte('+')
		if p.at(token.MINUS) {
			op = '-'
		}

		opSpan := p.cur().Span
		p.advance()
		right := p.parseTerm()
		left = ast.NewBinOp(op, left, right, opSpan.Merge(right.Span()))
	}

	return left
}

func (p *Parser) parseTerm() ast.IndexExpr {
	left := p.parseAtom()

	for p.at(token.STAR) {
		opSpan := p.cur().Span
		p.advance()
		right := p.parseAtom()
		left = ast.NewBinOp('*', left, right, opSpan.Merge(right.Span()))
	}

	return left
}

func (p *Parser) parseAtom() ast.IndexExpr {
	switch {
	case p.at(token.INT):
		t := p.advance()
		return ast.NewIntLit(int(t.Value), t.Span)
	case p.at(token.IDENT):
		t := p.advance()
		return ast.NewVarRef(t.Text, t.Span)
	case p.at(token.LBRACE):
		p.advance()

		e := p.parseExpr()
		p.expect(token.RBRACE, diag.CodeParseUnbalanced)

		return e
	default:
		t := p.cur()
		p.bag.Add(diag.New(diag.CodeParseUnexpectedToken, t.Span,
			"expected integer, identifier, or '{', found %s", t.Kind))

		return ast.NewIntLit(0, t.Span)
	}
}

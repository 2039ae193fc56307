package ast

import (
	"testing"

	"github.com/shdl-lang/shdlc/pkg/source"
)

func Test_Eval_IntLit(t *testing.T) {
	e := NewIntLit(7, source.Span{})
	if got := Eval(e, nil); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func Test_Eval_VarRef(t *testing.T) {
	e := NewVarRef("i", source.Span{})
	if got := Eval(e, map[string]int{"i": 3}); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func Test_Eval_VarRef_Unbound(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for an unbound generator variable")
		}
	}()

	Eval(NewVarRef("j", source.Span{}), map[string]int{"i": 3})
}

func Test_Eval_BinOp(t *testing.T) {
	cases := []struct {
		op   byte
		l, r int
		want int
	}{
		{'+', 2, 3, 5},
		{'-', 5, 3, 2},
		{'*', 4, 3, 12},
	}

	for _, c := range cases {
		e := NewBinOp(c.op, NewIntLit(c.l, source.Span{}), NewIntLit(c.r, source.Span{}), source.Span{})
		if got := Eval(e, nil); got != c.want {
			t.Errorf("%d %c %d = %d, want %d", c.l, c.op, c.r, got, c.want)
		}
	}
}

func Test_TemplatedIdent_Plain(t *testing.T) {
	id := NewPlainIdent("g", source.Span{})
	if got := id.Resolve(nil); got != "g" {
		t.Errorf("got %q, want %q", got, "g")
	}
}

func Test_TemplatedIdent_Substitution(t *testing.T) {
	id := NewTemplatedIdent("g", NewVarRef("i", source.Span{}), source.Span{})
	if got := id.Resolve(map[string]int{"i": 4}); got != "g4" {
		t.Errorf("got %q, want %q", got, "g4")
	}
}

package base

import (
	"testing"

	"github.com/shdl-lang/shdlc/pkg/ast"
	"github.com/shdl-lang/shdlc/pkg/source"
)

func Test_Endpoint_String_ComponentPort(t *testing.T) {
	e := ComponentPort("sum", 3)
	if got, want := e.String(), "sum[3]"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func Test_Endpoint_String_InstancePort(t *testing.T) {
	e := InstancePort("g0", "O")
	if got, want := e.String(), "g0.O[1]"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func Test_Endpoint_InstancePortBit(t *testing.T) {
	e := InstancePortBit("adder0", "sum", 4)
	if got, want := e.String(), "adder0.sum[4]"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func Test_Kind_String(t *testing.T) {
	cases := map[Kind]string{AND: "AND", OR: "OR", NOT: "NOT", XOR: "XOR", VCC: "VCC", GND: "GND"}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func Test_Kind_IsBinary(t *testing.T) {
	for _, k := range []Kind{AND, OR, XOR} {
		if !k.IsBinary() {
			t.Errorf("%s: want IsBinary() true", k)
		}
	}

	for _, k := range []Kind{NOT, VCC, GND} {
		if k.IsBinary() {
			t.Errorf("%s: want IsBinary() false", k)
		}
	}
}

func Test_Component_PortWidth(t *testing.T) {
	c := &Component{
		Name:    "half_adder",
		Inputs:  []ast.Port{ast.NewPort("a", 1, source.Span{}), ast.NewPort("b", 1, source.Span{})},
		Outputs: []ast.Port{ast.NewPort("sum", 1, source.Span{}), ast.NewPort("carry", 1, source.Span{})},
	}

	if c.InputWidth("a") != 1 {
		t.Errorf("InputWidth(a) = %d, want 1", c.InputWidth("a"))
	}

	if c.InputWidth("nope") != 0 {
		t.Errorf("InputWidth(nope) = %d, want 0", c.InputWidth("nope"))
	}

	if c.OutputWidth("carry") != 1 {
		t.Errorf("OutputWidth(carry) = %d, want 1", c.OutputWidth("carry"))
	}
}

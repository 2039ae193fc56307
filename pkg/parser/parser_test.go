package parser

import (
	"testing"

	"github.com/shdl-lang/shdlc/pkg/ast"
	"github.com/shdl-lang/shdlc/pkg/source"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()

	file := source.NewFile(1, "test.shdl", []byte(src))

	mod, bag := Parse(file)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", bag.Errors())
	}

	return mod
}

const halfAdderSrc = `
component half_adder(a, b) -> (sum, carry) {
  x0: XOR;
  a0: AND;

  connect {
    a -> x0.A;
    b -> x0.B;
    a -> a0.A;
    b -> a0.B;
    x0.O -> sum;
    a0.O -> carry;
  }
}
`

func Test_Parse_HalfAdder_Ports(t *testing.T) {
	mod := parse(t, halfAdderSrc)

	def, ok := mod.Components["half_adder"]
	if !ok {
		t.Fatalf("half_adder not found in %v", mod.Components)
	}

	if len(def.Inputs) != 2 || def.Inputs[0].Name != "a" || def.Inputs[1].Name != "b" {
		t.Errorf("got inputs %v, want [a b]", def.Inputs)
	}

	if len(def.Outputs) != 2 || def.Outputs[0].Name != "sum" || def.Outputs[1].Name != "carry" {
		t.Errorf("got outputs %v, want [sum carry]", def.Outputs)
	}

	for _, p := range append(append([]ast.Port{}, def.Inputs...), def.Outputs...) {
		if p.Width != 1 {
			t.Errorf("port %q: got width %d, want default 1", p.Name, p.Width)
		}
	}
}

func Test_Parse_HalfAdder_InstancesAndConnect(t *testing.T) {
	mod := parse(t, halfAdderSrc)
	def := mod.Components["half_adder"]

	insts := def.Instances()
	if len(insts) != 2 {
		t.Fatalf("got %d instances, want 2: %v", len(insts), insts)
	}

	types := map[string]string{}
	for _, in := range insts {
		types[in.Name.Resolve(nil)] = in.Type
	}

	if types["x0"] != "XOR" || types["a0"] != "AND" {
		t.Errorf("got instance types %v, want x0:XOR a0:AND", types)
	}

	block := def.Connect()
	if block == nil {
		t.Fatalf("connect block missing")
	}

	if len(block.Items) != 6 {
		t.Errorf("got %d connect items, want 6", len(block.Items))
	}
}

func Test_Parse_Order_PreservesDeclarationOrder(t *testing.T) {
	mod := parse(t, `
component a() -> (o) { connect { __VCC__.O -> o; } }
component b() -> (o) { connect { __VCC__.O -> o; } }
`)

	if len(mod.Order) != 2 || mod.Order[0].Name != "a" || mod.Order[1].Name != "b" {
		t.Fatalf("got order %v, want [a b]", mod.Order)
	}
}

func Test_Parse_ExplicitWidth(t *testing.T) {
	mod := parse(t, `
component buf(a[4]) -> (o[4]) {
  connect { a -> o; }
}
`)

	def := mod.Components["buf"]
	if def.Inputs[0].Width != 4 || def.Outputs[0].Width != 4 {
		t.Errorf("got widths %d/%d, want 4/4", def.Inputs[0].Width, def.Outputs[0].Width)
	}
}

func Test_Parse_NamedConstant(t *testing.T) {
	mod := parse(t, `
component withconst() -> (o[4]) {
  k[4] = 0xA;
  connect { k -> o; }
}
`)

	def := mod.Components["withconst"]
	consts := def.Constants()
	if len(consts) != 1 || consts[0].Name != "k" || consts[0].Value != 10 || consts[0].ExplicitWidth != 4 {
		t.Fatalf("got constants %+v, want one k=10 width 4", consts)
	}
}

func Test_Parse_Import(t *testing.T) {
	mod := parse(t, `use gates::{xor2, and2};

component top() -> (o) { connect { __GND__.O -> o; } }
`)

	if len(mod.Imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(mod.Imports))
	}

	imp := mod.Imports[0]
	if imp.ModuleName != "gates" || len(imp.Symbols) != 2 || imp.Symbols[0] != "xor2" || imp.Symbols[1] != "and2" {
		t.Errorf("got import %+v", imp)
	}
}

func Test_Parse_Generator(t *testing.T) {
	mod := parse(t, `
component bus_and(a[4], b[4]) -> (o[4]) {
  > i [1:4] {
    g{i}: AND;
  }
  connect {
    > i [1:4] {
      a[i] -> g{i}.A;
      b[i] -> g{i}.B;
      g{i}.O -> o[i];
    }
  }
}
`)

	def := mod.Components["bus_and"]
	gens := def.Generators()
	if len(gens) != 1 {
		t.Fatalf("got %d top-level generators, want 1", len(gens))
	}

	if gens[0].Var != "i" || len(gens[0].Body) != 1 {
		t.Errorf("got generator %+v", gens[0])
	}
}

func Test_Parse_DuplicateComponent_IsError(t *testing.T) {
	file := source.NewFile(1, "dup.shdl", []byte(`
component dup() -> (o) { connect { __VCC__.O -> o; } }
component dup() -> (o) { connect { __VCC__.O -> o; } }
`))

	_, bag := Parse(file)
	if !bag.HasErrors() {
		t.Fatalf("expected a duplicate-component error")
	}
}

func Test_Parse_ZeroWidthPort_IsError(t *testing.T) {
	file := source.NewFile(1, "zero.shdl", []byte(`
component bad(a[0]) -> (o) { connect { __VCC__.O -> o; } }
`))

	_, bag := Parse(file)
	if !bag.HasErrors() {
		t.Fatalf("expected a non-positive-width error")
	}
}

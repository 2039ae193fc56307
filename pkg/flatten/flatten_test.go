package flatten

import (
	"testing"

	"github.com/shdl-lang/shdlc/pkg/ast"
	"github.com/shdl-lang/shdlc/pkg/diag"
	"github.com/shdl-lang/shdlc/pkg/parser"
	"github.com/shdl-lang/shdlc/pkg/source"
)

func components(t *testing.T, src string) map[string]*ast.ComponentDef {
	t.Helper()

	file := source.NewFile(1, "test.shdl", []byte(src))

	mod, bag := parser.Parse(file)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", bag.Errors())
	}

	return mod.Components
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

func Test_Flatten_HalfAdder(t *testing.T) {
	env := components(t, halfAdderSrc)

	comp, bag := Flatten(env, "half_adder")
	if bag.HasErrors() {
		t.Fatalf("unexpected flatten errors: %v", bag.Errors())
	}

	if len(comp.Instances) != 2 {
		t.Fatalf("got %d instances, want 2: %v", len(comp.Instances), comp.Instances)
	}

	if len(comp.Connections) != 6 {
		t.Fatalf("got %d connections, want 6 (one per single-bit wire)", len(comp.Connections))
	}
}

func Test_Flatten_RippleAdder_InlinesSubcomponent(t *testing.T) {
	env := components(t, `
component half_adder(a, b) -> (sum, carry) {
  x0: XOR;
  a0: AND;
  connect {
    a -> x0.A; b -> x0.B;
    a -> a0.A; b -> a0.B;
    x0.O -> sum; a0.O -> carry;
  }
}

component ripple2(a[2], b[2]) -> (sum[2], carry) {
  h0: half_adder;
  h1: half_adder;
  o0: OR;

  connect {
    a[1] -> h0.a; b[1] -> h0.b;
    a[2] -> h1.a; b[2] -> h1.b;
    h0.sum -> sum[1];
    h1.sum -> sum[2];
    h0.carry -> o0.A;
    h1.carry -> o0.B;
    o0.O -> carry;
  }
}
`)

	comp, bag := Flatten(env, "ripple2")
	if bag.HasErrors() {
		t.Fatalf("unexpected flatten errors: %v", bag.Errors())
	}

	// Two half_adders (XOR+AND each) plus the carry-combining OR: 5
	// primitive instances total, with half_adder itself gone from the
	// result (§4.3 phase 5: "hierarchy inlining").
	if len(comp.Instances) != 5 {
		t.Fatalf("got %d instances, want 5: %v", len(comp.Instances), comp.Instances)
	}

	for _, inst := range comp.Instances {
		if inst.Kind.String() == "?" {
			t.Errorf("instance %q has an unrecognized kind", inst.Name)
		}
	}
}

func Test_Flatten_UndefinedComponent_IsError(t *testing.T) {
	env := components(t, `
component top() -> (o) {
  m0: missing_component;
  connect { m0.O -> o; }
}
`)

	_, bag := Flatten(env, "top")
	if !bag.HasErrors() {
		t.Fatalf("expected an undefined-component error")
	}
}

func Test_Flatten_WidthMismatch_IsError(t *testing.T) {
	env := components(t, `
component top(a[2]) -> (o) {
  connect { a -> o; }
}
`)

	_, bag := Flatten(env, "top")
	if !bag.HasErrors() {
		t.Fatalf("expected a width-mismatch error connecting a 2-bit source to a 1-bit sink")
	}
}

func Test_Flatten_NamedConstant_MaterializesVccGnd(t *testing.T) {
	env := components(t, `
component top() -> (o[4]) {
  k[4] = 0x5;
  connect { k -> o; }
}
`)

	comp, bag := Flatten(env, "top")
	if bag.HasErrors() {
		t.Fatalf("unexpected flatten errors: %v", bag.Errors())
	}

	var vcc, gnd int

	for _, inst := range comp.Instances {
		switch inst.Kind.String() {
		case "VCC":
			vcc++
		case "GND":
			gnd++
		}
	}

	// 0x5 = 0b0101: bits 1 and 3 set (1-based LSB-first), bits 2 and 4
	// clear.
	if vcc != 2 || gnd != 2 {
		t.Errorf("got vcc=%d gnd=%d materialized for constant 0x5 over 4 bits, want 2/2", vcc, gnd)
	}
}

func Test_Flatten_Generator_ExpandsOneInstancePerIteration(t *testing.T) {
	env := components(t, `
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

	comp, bag := Flatten(env, "bus_and")
	if bag.HasErrors() {
		t.Fatalf("unexpected flatten errors: %v", bag.Errors())
	}

	if len(comp.Instances) != 4 {
		t.Fatalf("got %d instances, want 4 (one AND per generator iteration)", len(comp.Instances))
	}

	if len(comp.Connections) != 12 {
		t.Fatalf("got %d connections, want 12 (3 per iteration x 4 iterations)", len(comp.Connections))
	}
}

func Test_Flatten_Feedback_Latch(t *testing.T) {
	env := components(t, `
component latch(set) -> (q) {
  o0: OR;
  connect {
    set -> o0.A;
    o0.O -> o0.B;
    o0.O -> q;
  }
}
`)

	comp, bag := Flatten(env, "latch")
	if bag.HasErrors() {
		t.Fatalf("unexpected flatten errors: %v", bag.Errors())
	}

	if len(comp.Instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(comp.Instances))
	}
}

// Indexing a named constant past its inferred width is a constant-width
// problem (§4.3 phase 4), not a bare index-range one, even though both
// are detected by the same bit-selection code as ports and instance ports.
func Test_Flatten_ConstantIndex_PastInferredWidth_IsConstantWidthError(t *testing.T) {
	env := components(t, `
component bad() -> (o) {
  k = 0x5;
  connect {
    k[5] -> o;
  }
}
`)

	_, bag := Flatten(env, "bad")
	if !bag.HasErrors() {
		t.Fatalf("expected a flatten error")
	}

	errs := bag.Errors()
	if len(errs) != 1 || errs[0].Code != diag.CodeConstantWidth {
		t.Fatalf("got errors %v, want exactly one %s", errs, diag.CodeConstantWidth)
	}
}

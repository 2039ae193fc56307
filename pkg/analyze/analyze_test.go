package analyze

import (
	"testing"

	"github.com/shdl-lang/shdlc/pkg/base"
	"github.com/shdl-lang/shdlc/pkg/flatten"
	"github.com/shdl-lang/shdlc/pkg/parser"
	"github.com/shdl-lang/shdlc/pkg/source"
)

func flattened(t *testing.T, src, entry string) *base.Component {
	t.Helper()

	file := source.NewFile(1, "test.shdl", []byte(src))

	mod, bag := parser.Parse(file)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", bag.Errors())
	}

	comp, fbag := flatten.Flatten(mod.Components, entry)
	if fbag.HasErrors() {
		t.Fatalf("unexpected flatten errors: %v", fbag.Errors())
	}

	return comp
}

func Test_Analyze_HalfAdder_NoErrors(t *testing.T) {
	comp := flattened(t, halfAdderSrc, "half_adder")

	res := Analyze(comp)
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected analysis errors: %v", res.Bag.Errors())
	}

	if len(res.Drivers) == 0 {
		t.Fatalf("expected a non-empty driver map")
	}
}

func Test_Analyze_MultiDriver_IsError(t *testing.T) {
	comp := flattened(t, `
component top(a, b) -> (o) {
  connect {
    a -> o;
    b -> o;
  }
}
`, "top")

	res := Analyze(comp)
	if !res.Bag.HasErrors() {
		t.Fatalf("expected a multi-driver error on o")
	}
}

func Test_Analyze_Unconnected_IsError(t *testing.T) {
	comp := flattened(t, `
component top(a) -> (o) {
  n0: NOT;
  connect {
    a -> n0.A;
  }
}
`, "top")

	res := Analyze(comp)
	if !res.Bag.HasErrors() {
		t.Fatalf("expected an unconnected-sink error: output o is never driven")
	}
}

func Test_Analyze_Feedback_ReportedNotErrored(t *testing.T) {
	comp := flattened(t, `
component latch(set) -> (q) {
  o0: OR;
  connect {
    set -> o0.A;
    o0.O -> o0.B;
    o0.O -> q;
  }
}
`, "latch")

	res := Analyze(comp)
	if res.Bag.HasErrors() {
		t.Fatalf("feedback must not be reported as an error: %v", res.Bag.Errors())
	}

	if len(res.Feedback) != 1 || res.Feedback[0] != "o0" {
		t.Errorf("got feedback %v, want [o0]", res.Feedback)
	}
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

package codegen

import (
	"strings"
	"testing"

	"github.com/shdl-lang/shdlc/pkg/analyze"
	"github.com/shdl-lang/shdlc/pkg/base"
	"github.com/shdl-lang/shdlc/pkg/flatten"
	"github.com/shdl-lang/shdlc/pkg/parser"
	"github.com/shdl-lang/shdlc/pkg/source"
)

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

func flattenAndAnalyze(t *testing.T, src, entry string) (*base.Component, analyze.Result) {
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

	return comp, analyze.Analyze(comp)
}

func Test_AssignLanes_OneLanePerInstance(t *testing.T) {
	comp, _ := flattenAndAnalyze(t, halfAdderSrc, "half_adder")

	lm := AssignLanes(comp)
	if lm == nil {
		t.Fatalf("AssignLanes returned nil")
	}

	for _, inst := range comp.Instances {
		if _, ok := lm.Lookup(inst.Name); !ok {
			t.Errorf("instance %q has no lane", inst.Name)
		}
	}
}

func Test_Generate_HalfAdder_EmitsABI(t *testing.T) {
	comp, res := flattenAndAnalyze(t, halfAdderSrc, "half_adder")

	src, err := Generate(comp, res)
	if err != nil {
		t.Fatalf("unexpected Generate error: %s", err)
	}

	for _, want := range []string{"reset", "poke", "peek", "step"} {
		if !strings.Contains(src, want) {
			t.Errorf("generated source missing %q symbol:\n%s", want, src)
		}
	}
}

func Test_Generate_RejectsUnanalyzedErrors(t *testing.T) {
	comp, _ := flattenAndAnalyze(t, `
component top(a, b) -> (o) {
  connect {
    a -> o;
    b -> o;
  }
}
`, "top")

	res := analyze.Analyze(comp)
	if !res.Bag.HasErrors() {
		t.Fatalf("expected the multi-driver analysis to fail")
	}

	if _, err := Generate(comp, res); err == nil {
		t.Fatalf("expected Generate to refuse a component with unresolved analysis errors")
	}
}

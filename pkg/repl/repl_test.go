package repl

import (
	"testing"

	"github.com/shdl-lang/shdlc/pkg/analyze"
	"github.com/shdl-lang/shdlc/pkg/flatten"
	"github.com/shdl-lang/shdlc/pkg/resolver"
)

const shdlDir = "../../testdata/shdl"

func buildEngine(t *testing.T, path, entry string) *Engine {
	t.Helper()

	env, bag := resolver.Resolve(path, []string{shdlDir})
	if bag.HasErrors() {
		t.Fatalf("resolve: %v", bag.Errors())
	}

	comp, fbag := flatten.Flatten(env.Components, entry)
	if fbag.HasErrors() {
		t.Fatalf("flatten: %v", fbag.Errors())
	}

	res := analyze.Analyze(comp)
	if res.Bag.HasErrors() {
		t.Fatalf("analyze: %v", res.Bag.Errors())
	}

	return NewEngine(comp, res)
}

func poke(t *testing.T, e *Engine, name string, v uint64) {
	t.Helper()
	if err := e.Poke(name, v); err != nil {
		t.Fatalf("poke %s: %v", name, err)
	}
}

func peek(t *testing.T, e *Engine, name string) uint64 {
	t.Helper()
	v, err := e.Peek(name)
	if err != nil {
		t.Fatalf("peek %s: %v", name, err)
	}
	return v
}

// S1: a purely combinational half-adder settles within a single tick,
// since its two gates read the primary inputs a and b directly.
func Test_Engine_HalfAdder_TruthTable(t *testing.T) {
	e := buildEngine(t, shdlDir+"/half_adder.shdl", "half_adder")

	for a := uint64(0); a <= 1; a++ {
		for b := uint64(0); b <= 1; b++ {
			e.Reset()
			poke(t, e, "a", a)
			poke(t, e, "b", b)
			e.Step(1)

			wantSum := a ^ b
			wantCarry := a & b
			if got := peek(t, e, "sum"); got != wantSum {
				t.Errorf("a=%d b=%d: sum = %d, want %d", a, b, got, wantSum)
			}
			if got := peek(t, e, "carry"); got != wantCarry {
				t.Errorf("a=%d b=%d: carry = %d, want %d", a, b, got, wantCarry)
			}
		}
	}
}

// S2: the ripple-adder's carry chain runs through several layers of
// inlined half_adder instances, each lagging the one feeding it by a
// tick (§4.5.3) -- settleCycles is a generous upper bound on that
// depth, not a computed exact value, since further ticks on a
// feedback-free circuit never disturb an already-settled result.
const settleCycles = 24

func Test_Engine_RippleAdder_NumericSums(t *testing.T) {
	e := buildEngine(t, shdlDir+"/ripple_adder.shdl", "ripple_adder4")

	cases := []struct{ a, b, cin uint64 }{
		{0, 0, 0},
		{1, 0, 0},
		{0, 0, 1},
		{7, 8, 0},
		{15, 15, 1},
		{9, 6, 1},
	}

	for _, c := range cases {
		e.Reset()
		poke(t, e, "a", c.a)
		poke(t, e, "b", c.b)
		poke(t, e, "cin", c.cin)
		e.Step(settleCycles)

		total := c.a + c.b + c.cin
		wantSum := total & 0xF
		wantCout := (total >> 4) & 1

		if got := peek(t, e, "sum"); got != wantSum {
			t.Errorf("a=%d b=%d cin=%d: sum = %#x, want %#x", c.a, c.b, c.cin, got, wantSum)
		}
		if got := peek(t, e, "cout"); got != wantCout {
			t.Errorf("a=%d b=%d cin=%d: cout = %d, want %d", c.a, c.b, c.cin, got, wantCout)
		}
	}
}

// S5: pulsing set for one cycle and releasing it must leave q at 1
// forever after, not just on the very next peek -- this is the
// regression the original AND/OR/NOT sr_latch fixture failed, since
// its two feedback paths settled at different gate depths and the
// latch never reached a fixed point (it alternated q=1,0,1,0,...).
func Test_Engine_SRLatch_SetPulseHoldsForever(t *testing.T) {
	e := buildEngine(t, shdlDir+"/sr_latch.shdl", "sr_latch")

	e.Reset()
	poke(t, e, "set", 1)
	e.Step(1)
	poke(t, e, "set", 0)
	e.Step(1)

	if got := peek(t, e, "q"); got != 1 {
		t.Fatalf("q = %d immediately after the set pulse, want 1", got)
	}

	for i := 0; i < 10; i++ {
		e.Step(1)
		if got := peek(t, e, "q"); got != 1 {
			t.Fatalf("q = %d after %d further ticks, want 1 (latch did not hold)", got, i+1)
		}
		if got := peek(t, e, "qbar"); got != 0 {
			t.Fatalf("qbar = %d after %d further ticks, want 0", got, i+1)
		}
	}
}

func Test_Engine_SRLatch_ResetPulseHoldsForever(t *testing.T) {
	e := buildEngine(t, shdlDir+"/sr_latch.shdl", "sr_latch")

	e.Reset()
	poke(t, e, "reset", 1)
	e.Step(1)
	poke(t, e, "reset", 0)
	e.Step(1)

	if got := peek(t, e, "qbar"); got != 1 {
		t.Fatalf("qbar = %d immediately after the reset pulse, want 1", got)
	}

	for i := 0; i < 10; i++ {
		e.Step(1)
		if got := peek(t, e, "q"); got != 0 {
			t.Fatalf("q = %d after %d further ticks, want 0 (latch did not hold)", got, i+1)
		}
		if got := peek(t, e, "qbar"); got != 1 {
			t.Fatalf("qbar = %d after %d further ticks, want 1", got, i+1)
		}
	}
}

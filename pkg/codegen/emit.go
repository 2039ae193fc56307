package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shdl-lang/shdlc/pkg/analyze"
	"github.com/shdl-lang/shdlc/pkg/base"
)

// stateKinds lists the primitive kinds that own a packed state word;
// VCC/GND are synthesized at every use site instead (§4.5.2).
var stateKinds = []base.Kind{base.AND, base.OR, base.NOT, base.XOR}

// Generate emits a self-contained C source implementing the
// reset/poke/peek/step/eval ABI (§4.5, §6.3) for an analyzed component.
// result must come from a prior analyze.Analyze call that reported no
// errors; Generate does not re-validate the driver map.
func Generate(c *base.Component, result analyze.Result) (string, error) {
	if result.Bag.HasErrors() {
		return "", fmt.Errorf("codegen: cannot emit from a component with unresolved analysis errors")
	}

	lm := AssignLanes(c)
	e := &emitter{c: c, lm: lm, drivers: result.Drivers}

	return e.render(), nil
}

type emitter struct {
	c       *base.Component
	lm      *LaneMap
	drivers map[string]base.Endpoint
	b       strings.Builder
}

func (e *emitter) render() string {
	e.header()
	e.declarations()
	e.computeNext()
	e.commit()
	e.refreshOutputs()
	e.reset()
	e.poke()
	e.peek()
	e.evalAndStep()

	return e.b.String()
}

func (e *emitter) printf(format string, args ...any) { fmt.Fprintf(&e.b, format, args...) }

func (e *emitter) header() {
	e.printf("// Code generated by shdlc for component %q. DO NOT EDIT.\n", e.c.Name)
	e.printf("#include <stdint.h>\n#include <stdio.h>\n#include <string.h>\n\n")
}

func (e *emitter) declarations() {
	for _, kind := range stateKinds {
		for chunk := uint(0); chunk < e.lm.Chunks(kind); chunk++ {
			name := WordName(kind, chunk)
			e.printf("static uint64_t %s = 0;\n", name)
			e.printf("static uint64_t %s_next = 0;\n", name)
		}
	}

	for _, p := range e.c.Inputs {
		e.printf("static uint64_t in_%s = 0;\n", p.Name)
	}

	for _, p := range e.c.Outputs {
		e.printf("static uint64_t out_%s = 0;\n", p.Name)
	}

	e.printf("static int pending_valid = 0;\n")
	e.printf("static int outputs_valid = 0;\n\n")
}

// bitCurrent renders the current-cycle value of endpoint src as a C
// expression evaluating to 0 or 1, used while gathering compute_next's
// A/B vectors — always over the committed state, never the pending one
// (§4.5.3: tick reads the previous S).
func (e *emitter) bitCurrent(src base.Endpoint) string {
	if src.IsPort {
		return fmt.Sprintf("((in_%s >> %d) & 1ULL)", src.PortName, src.Bit-1)
	}

	if kind, ok := e.lm.ConstKind(src.Instance); ok {
		if kind == base.VCC {
			return "1ULL"
		}

		return "0ULL"
	}

	pos, _ := e.lm.Lookup(src.Instance)

	return fmt.Sprintf("((%s >> %d) & 1ULL)", WordName(pos.Kind, pos.Chunk), pos.Lane)
}

// bitVisible renders src's value as seen by peek/poke between cycles: the
// pending next-state if eval has computed one and nothing has
// invalidated it since, else the last committed state (§4.5.4).
func (e *emitter) bitVisible(src base.Endpoint) string {
	if src.IsPort {
		return fmt.Sprintf("((in_%s >> %d) & 1ULL)", src.PortName, src.Bit-1)
	}

	if kind, ok := e.lm.ConstKind(src.Instance); ok {
		if kind == base.VCC {
			return "1ULL"
		}

		return "0ULL"
	}

	pos, _ := e.lm.Lookup(src.Instance)
	cur := WordName(pos.Kind, pos.Chunk)

	return fmt.Sprintf("(pending_valid ? ((%s_next >> %d) & 1ULL) : ((%s >> %d) & 1ULL))", cur, pos.Lane, cur, pos.Lane)
}

func (e *emitter) driverOf(instance, port string) base.Endpoint {
	return e.drivers[base.InstancePort(instance, port).String()]
}

// deposit renders the branchless lane-deposit pattern from §4.5.3 step 1.
func deposit(bitExpr string, lane uint) string {
	return fmt.Sprintf("((-(uint64_t)(%s)) & (1ULL << %d))", bitExpr, lane)
}

func (e *emitter) vector(kind base.Kind, chunk uint, port string) string {
	var terms []string

	for _, name := range e.lm.Order(kind) {
		pos, _ := e.lm.Lookup(name)
		if pos.Chunk != chunk {
			continue
		}

		drv := e.driverOf(name, port)
		terms = append(terms, deposit(e.bitCurrent(drv), pos.Lane))
	}

	if len(terms) == 0 {
		return "0ULL"
	}

	return strings.Join(terms, " | ")
}

func (e *emitter) computeNext() {
	e.printf("static void compute_next(void) {\n")

	for _, kind := range stateKinds {
		for chunk := uint(0); chunk < e.lm.Chunks(kind); chunk++ {
			word := WordName(kind, chunk)
			a := e.vector(kind, chunk, "A")

			switch kind {
			case base.NOT:
				mask := e.lm.ActiveMask(kind, chunk)
				e.printf("  %s_next = (~(%s)) & 0x%xULL;\n", word, a, mask)
			case base.AND:
				e.printf("  %s_next = (%s) & (%s);\n", word, a, e.vector(kind, chunk, "B"))
			case base.OR:
				e.printf("  %s_next = (%s) | (%s);\n", word, a, e.vector(kind, chunk, "B"))
			case base.XOR:
				e.printf("  %s_next = (%s) ^ (%s);\n", word, a, e.vector(kind, chunk, "B"))
			}
		}
	}

	e.printf("}\n\n")
}

func (e *emitter) commit() {
	e.printf("static void commit(void) {\n")

	for _, kind := range stateKinds {
		for chunk := uint(0); chunk < e.lm.Chunks(kind); chunk++ {
			word := WordName(kind, chunk)
			e.printf("  %s = %s_next;\n", word, word)
		}
	}

	e.printf("}\n\n")
}

func (e *emitter) refreshOutputs() {
	e.printf("static void refresh_outputs(void) {\n")

	for _, p := range e.c.Outputs {
		e.printf("  out_%s = 0;\n", p.Name)

		for bit := uint(1); bit <= p.Width; bit++ {
			drv := e.drivers[base.ComponentPort(p.Name, bit).String()]
			e.printf("  out_%s |= (%s) << %d;\n", p.Name, e.bitVisible(drv), bit-1)
		}
	}

	e.printf("  outputs_valid = 1;\n")
	e.printf("}\n\n")
}

func (e *emitter) reset() {
	e.printf("void reset(void) {\n")

	for _, kind := range stateKinds {
		for chunk := uint(0); chunk < e.lm.Chunks(kind); chunk++ {
			word := WordName(kind, chunk)
			e.printf("  %s = 0; %s_next = 0;\n", word, word)
		}
	}

	for _, p := range e.c.Inputs {
		e.printf("  in_%s = 0;\n", p.Name)
	}

	for _, p := range e.c.Outputs {
		e.printf("  out_%s = 0;\n", p.Name)
	}

	e.printf("  pending_valid = 0;\n  outputs_valid = 0;\n")
	e.printf("}\n\n")
}

func widthMask(width uint) string {
	if width >= 64 { //nolint:gomnd // uint64_t lane width, §4.5
		return "0xffffffffffffffffULL"
	}

	return fmt.Sprintf("0x%xULL", (uint64(1)<<width)-1)
}

func (e *emitter) poke() {
	e.printf("void poke(const char *name, uint64_t value) {\n")

	for _, p := range e.c.Inputs {
		e.printf("  if (strcmp(name, %q) == 0) { in_%s = value & %s; pending_valid = 0; outputs_valid = 0; return; }\n",
			p.Name, p.Name, widthMask(p.Width))
	}

	e.printf("  fprintf(stderr, \"shdlc: poke: unknown signal %%s\\n\", name);\n")
	e.printf("}\n\n")
}

func (e *emitter) peek() {
	e.printf("uint64_t peek(const char *name) {\n")

	for _, p := range e.c.Inputs {
		e.printf("  if (strcmp(name, %q) == 0) { return in_%s; }\n", p.Name, p.Name)
	}

	for _, p := range e.c.Outputs {
		e.printf("  if (strcmp(name, %q) == 0) { if (!outputs_valid) refresh_outputs(); return out_%s; }\n",
			p.Name, p.Name)
	}

	for _, kind := range stateKinds {
		for chunk := uint(0); chunk < e.lm.Chunks(kind); chunk++ {
			word := WordName(kind, chunk)
			e.printf("  if (strcmp(name, %q) == 0) { return %s; }\n", word, word)
		}
	}

	e.printf("  fprintf(stderr, \"shdlc: peek: unknown signal %%s\\n\", name);\n  return 0;\n")
	e.printf("}\n\n")
}

func (e *emitter) evalAndStep() {
	e.printf("void eval(void) {\n")
	e.printf("  if (pending_valid) { return; }\n")
	e.printf("  compute_next();\n  pending_valid = 1;\n  outputs_valid = 0;\n")
	e.printf("}\n\n")

	e.printf("void step(int32_t cycles) {\n")
	e.printf("  for (int32_t i = 0; i < cycles; i++) { compute_next(); commit(); }\n")
	e.printf("  pending_valid = 0;\n  outputs_valid = 0;\n")
	e.printf("}\n")
}

// PortNames returns every poke/peek-recognized signal name for a
// component, in sorted order (an introspection helper).
func PortNames(c *base.Component) []string {
	var names []string

	for _, p := range c.Inputs {
		names = append(names, p.Name)
	}

	for _, p := range c.Outputs {
		names = append(names, p.Name)
	}

	lm := AssignLanes(c)
	for _, kind := range stateKinds {
		for chunk := uint(0); chunk < lm.Chunks(kind); chunk++ {
			names = append(names, WordName(kind, chunk))
		}
	}

	sort.Strings(names)

	return names
}

// Package analyze implements the semantic analyzer (§2 row 5, §4.4): it
// walks a flattened Base SHDL component and enforces the single-driver
// invariant (every sink is driven by exactly one source), checks that
// every declared port and primitive input is actually driven, and reports
// self-feedback (a gate's output feeding back into its own input cone)
// as informational rather than an error, since SHDL permits latch-style
// feedback (§3.2, §6.1). It is grounded on the teacher's
// pkg/corset/compiler/resolver.go, which walks a flat intermediate form
// building up a symbol table and reporting structural errors the same way
// this package reports wiring errors — and on its use of
// bits-and-blooms/bitset for the teacher's column-allocation bitmaps,
// adapted here to track which sink bits have already been claimed by a
// driver.
package analyze

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/shdl-lang/shdlc/pkg/base"
	"github.com/shdl-lang/shdlc/pkg/diag"
	"github.com/shdl-lang/shdlc/pkg/source"
)

// Result is the analyzer's report: the component is safe to hand to
// codegen only if Bag.HasErrors() is false.
type Result struct {
	Bag diag.Bag
	// Feedback lists instance names that participate in a combinational
	// feedback cycle (reachable from their own output), reported as notes
	// rather than errors (§3.2: "self-feedback ... is detected but
	// permitted").
	Feedback []string
	// Drivers is the driver map (§4.4): every sink endpoint that has at
	// least one driver, mapped to that driver (for a multi-driven sink, the
	// last connection in source order). It is the only structure codegen
	// needs from analysis.
	Drivers map[string]base.Endpoint
}

// Analyze validates a flattened component's wiring.
func Analyze(c *base.Component) Result {
	var res Result

	sinks := sinkIndex(c)
	driverCount := make(map[string]uint, len(sinks))
	order := make([]string, 0, len(sinks))
	res.Drivers = make(map[string]base.Endpoint, len(sinks))

	for _, conn := range c.Connections {
		k := conn.Dst.String()
		if _, ok := driverCount[k]; !ok {
			order = append(order, k)
		}

		driverCount[k]++
		res.Drivers[k] = conn.Src
	}

	sort.Strings(order)

	for _, k := range order {
		if driverCount[k] > 1 {
			res.Bag.Add(diag.New(diag.CodeMultiDriver, source.Span{},
				"%s is driven by %d sources, expected exactly one", k, driverCount[k]))
		}
	}

	checkUnconnected(c, driverCount, &res.Bag)

	res.Feedback = detectFeedback(c)

	return res
}

// sinkIndex enumerates every endpoint that must be driven: each output
// port bit of the component, and each input bit of every primitive
// instance (VCC/GND, having no inputs, contribute none).
func sinkIndex(c *base.Component) []base.Endpoint {
	var out []base.Endpoint

	for _, p := range c.Outputs {
		for bit := uint(1); bit <= p.Width; bit++ {
			out = append(out, base.ComponentPort(p.Name, bit))
		}
	}

	for _, inst := range c.Instances {
		for _, port := range inputPorts(inst.Kind) {
			out = append(out, base.InstancePort(inst.Name, port))
		}
	}

	return out
}

func inputPorts(k base.Kind) []string {
	switch k {
	case base.NOT:
		return []string{"A"}
	case base.VCC, base.GND:
		return nil
	default:
		return []string{"A", "B"}
	}
}

// checkUnconnected reports every sink from sinkIndex that received no
// driver at all (§3.2's "Drivers" invariant, the complementary half of the
// multi-driver check above). A bitset tracks which sinks were claimed,
// indexed by position in a stable enumeration rather than by string, so
// the hot path for wide buses is a bit test rather than a map lookup.
func checkUnconnected(c *base.Component, driverCount map[string]uint, bag *diag.Bag) {
	sinks := sinkIndex(c)
	claimed := bitset.New(uint(len(sinks)))

	for i, s := range sinks {
		if driverCount[s.String()] > 0 {
			claimed.Set(uint(i))
		}
	}

	for i, s := range sinks {
		if claimed.Test(uint(i)) {
			continue
		}

		if s.IsPort {
			bag.Add(diag.New(diag.CodeUnconnectedOutput, source.Span{},
				"output %s is never driven", s.String()))
		} else {
			bag.Add(diag.New(diag.CodeUnconnectedInput, source.Span{},
				"%s is never driven", s.String()))
		}
	}
}

// detectFeedback reports every primitive instance reachable from its own
// output along the Connection graph, i.e. participating in a
// combinational cycle. SHDL permits this (it is how a latch is built,
// §6.1's worked feedback-latch scenario) so these are carried as notes on
// the Result rather than diagnostics.
func detectFeedback(c *base.Component) []string {
	adj := make(map[string][]string) // instance -> instances its output feeds (directly)

	for _, conn := range c.Connections {
		if conn.Src.IsPort || conn.Dst.IsPort {
			continue
		}

		adj[conn.Src.Instance] = append(adj[conn.Src.Instance], conn.Dst.Instance)
	}

	var out []string

	for _, inst := range c.Instances {
		if reaches(adj, inst.Name, inst.Name, make(map[string]bool)) {
			out = append(out, inst.Name)
		}
	}

	sort.Strings(out)

	return out
}

func reaches(adj map[string][]string, target, from string, visited map[string]bool) bool {
	for _, next := range adj[from] {
		if next == target {
			return true
		}

		if visited[next] {
			continue
		}

		visited[next] = true

		if reaches(adj, target, next, visited) {
			return true
		}
	}

	return false
}

// Summary renders a short human-readable description of a Result.
func Summary(r Result) string {
	if !r.Bag.HasErrors() {
		if len(r.Feedback) == 0 {
			return "no wiring errors"
		}

		return fmt.Sprintf("no wiring errors; feedback through: %v", r.Feedback)
	}

	return fmt.Sprintf("%d wiring error(s)", len(r.Bag.Errors()))
}

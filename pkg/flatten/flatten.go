// Package flatten implements the five-phase flattener (§4.3): lexical
// stripping (delegated to the already-flat pkg/resolver environment this
// package is handed), generator expansion, bit-slice expansion, constant
// materialization, and hierarchy inlining, in that order, producing a
// single primitive-only pkg/base.Component for the requested entry
// component. It is grounded on the teacher's pkg/corset/compiler package: a
// small stateful driver type threading a diagnostic bag through an ordered
// sequence of lowering passes, each consuming the previous pass's output
// type rather than mutating in place.
package flatten

import (
	"github.com/shdl-lang/shdlc/pkg/ast"
	"github.com/shdl-lang/shdlc/pkg/base"
	"github.com/shdl-lang/shdlc/pkg/diag"
	"github.com/shdl-lang/shdlc/pkg/source"
)

// Flatten lowers entryName, plus everything it transitively instantiates,
// from the resolved component environment into Base SHDL IR.
func Flatten(env map[string]*ast.ComponentDef, entryName string) (*base.Component, diag.Bag) {
	st := &flattenState{
		env:        env,
		cache:      make(map[string]*base.Component),
		inProgress: make(map[string]bool),
	}

	var bag diag.Bag

	comp := st.flatten(entryName, &bag)

	return comp, bag
}

// flattenState caches one fully-flattened (primitives only, phase 5
// complete) Base IR per component name, so a component instantiated from
// several places in the hierarchy is only lowered once (§4.3 phase 5).
type flattenState struct {
	env        map[string]*ast.ComponentDef
	cache      map[string]*base.Component
	inProgress map[string]bool
}

func (st *flattenState) flatten(name string, bag *diag.Bag) *base.Component {
	if c, ok := st.cache[name]; ok {
		return c
	}

	if st.inProgress[name] {
		bag.Add(diag.New(diag.CodeUndefinedComponent, source.Span{},
			"component %q instantiates itself (directly or transitively)", name))

		return nil
	}

	def, ok := st.env[name]
	if !ok {
		bag.Add(diag.New(diag.CodeUndefinedComponent, source.Span{}, "undefined component %q", name))
		return nil
	}

	st.inProgress[name] = true

	partial := buildPartial(st.env, def, bag)
	final := st.inline(partial, bag)

	delete(st.inProgress, name)

	if final != nil {
		st.cache[name] = final
	}

	return final
}

// instanceRef is a phase-1/2-resolved instance: a flat name (no more `{i}`
// templating) and its declared type, either a primitive keyword or another
// component's name.
type instanceRef struct {
	Name string
	Type string
}

// partialComponent is the output of phases 2-4: generators expanded,
// signal references bit-expanded, named constants replaced by VCC/GND
// wiring. Its instances and connections may still reference
// not-yet-inlined subcomponent instances; phase 5 (hierarchy.go) removes
// those.
type partialComponent struct {
	name        string
	span        source.Span
	inputs      []ast.Port
	outputs     []ast.Port
	instances   []instanceRef
	connections []base.Connection
}

// primitiveKind recognizes the six reserved primitive type names (§6.1).
// __VCC__ and __GND__ are the source-level spellings; phase 4 also
// synthesizes instances of these kinds directly (bypassing this lookup)
// when materializing named constants.
func primitiveKind(typ string) (base.Kind, bool) {
	switch typ {
	case "AND":
		return base.AND, true
	case "OR":
		return base.OR, true
	case "NOT":
		return base.NOT, true
	case "XOR":
		return base.XOR, true
	case "__VCC__":
		return base.VCC, true
	case "__GND__":
		return base.GND, true
	default:
		return 0, false
	}
}

func validPrimitivePort(kind base.Kind, port string) bool {
	switch kind {
	case base.NOT:
		return port == "A" || port == "O"
	case base.VCC, base.GND:
		return port == "O"
	default:
		return port == "A" || port == "B" || port == "O"
	}
}

func findPort(ports []ast.Port, name string) (ast.Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}

	return ast.Port{}, false
}

func allPorts(def *ast.ComponentDef) []ast.Port {
	out := make([]ast.Port, 0, len(def.Inputs)+len(def.Outputs))
	out = append(out, def.Inputs...)
	out = append(out, def.Outputs...)

	return out
}

func cloneBindings(b map[string]int) map[string]int {
	out := make(map[string]int, len(b)+1)
	for k, v := range b {
		out[k] = v
	}

	return out
}

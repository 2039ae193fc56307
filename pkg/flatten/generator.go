package flatten

import (
	"github.com/shdl-lang/shdlc/pkg/ast"
	"github.com/shdl-lang/shdlc/pkg/diag"
	"github.com/shdl-lang/shdlc/pkg/source"
)

// flatInstance is an instance declaration after `{i}` template resolution,
// still paired with its originating span for diagnostics.
type flatInstance struct {
	Name string
	Type string
	Span source.Span
}

// flatConnection is a single `src -> dst;` statement after generator
// expansion: Src/Dst carry plain (non-templated) bases and members, but
// their Index expressions are left untouched and must be evaluated against
// Bindings, the generator-variable snapshot captured when this connection
// was produced (§4.3 phase 2).
type flatConnection struct {
	Src, Dst *ast.SignalRef
	Bindings map[string]int
	Span     source.Span
}

// workingComponent accumulates a single component's instances and
// connections across phase 1 (direct body items) and phase 2 (generator
// expansion), before any bit-level or hierarchy processing.
type workingComponent struct {
	instances   []flatInstance
	connections []flatConnection
	seen        map[string]bool
}

func (wc *workingComponent) addInstance(name, typ string, span source.Span, bag *diag.Bag) {
	if wc.seen[name] {
		bag.Add(diag.New(diag.CodeDuplicateInstance, span, "instance %q already declared", name))
		return
	}

	wc.seen[name] = true
	wc.instances = append(wc.instances, flatInstance{Name: name, Type: typ, Span: span})
}

// phase1and2 walks a component's body and connect block, expanding every
// generator (nested arbitrarily deep, in either position) into concrete
// instance declarations and connections (§4.3 phase 2).
func phase1and2(def *ast.ComponentDef, bag *diag.Bag) *workingComponent {
	wc := &workingComponent{seen: make(map[string]bool)}

	for _, inst := range def.Instances() {
		wc.addInstance(inst.Name.Resolve(nil), inst.Type, inst.Span(), bag)
	}

	for _, gen := range def.Generators() {
		expandGenItems(gen.Body, gen.Ranges, gen.Var, nil, wc, bag, gen.Span())
	}

	cb := def.Connect()
	if cb == nil {
		bag.Add(diag.New(diag.CodeUndefinedPort, def.Span(), "component %q has no connect block", def.Name))
		return wc
	}

	for _, item := range cb.Items {
		expandConnectItem(item, nil, wc, bag)
	}

	return wc
}

func expandConnectItem(item ast.ConnectItem, bindings map[string]int, wc *workingComponent, bag *diag.Bag) {
	switch it := item.(type) {
	case *ast.Connection:
		wc.connections = append(wc.connections, flatConnection{Src: it.Src, Dst: it.Dst, Bindings: bindings, Span: it.Span()})
	case *ast.Generator:
		expandGenItems(it.Body, it.Ranges, it.Var, bindings, wc, bag, it.Span())
	}
}

// expandGenItems repeats body once per value the generator's range list
// produces, binding v to that value, and dispatches every resulting item
// by its concrete kind. Generators may nest, and — per this implementation's
// resolution of the grammar's otherwise-ambiguous placement rules — may
// mix instance declarations and connections regardless of whether the
// generator sits directly in a component body or inside a connect block;
// the distinction is only made once these are consumed (phase 5 treats an
// unresolved instance-typed reference as hierarchy to inline, never a
// generator placement concern).
func expandGenItems(body []ast.GenItem, ranges []ast.RangeItem, v string, bindings map[string]int, wc *workingComponent, bag *diag.Bag, span source.Span) {
	for _, value := range rangeValues(ranges, bag, span) {
		b2 := cloneBindings(bindings)
		b2[v] = value

		for _, item := range body {
			switch it := item.(type) {
			case *ast.InstanceDecl:
				wc.addInstance(it.Name.Resolve(b2), it.Type, it.Span(), bag)
			case *ast.Connection:
				wc.connections = append(wc.connections, flatConnection{Src: it.Src, Dst: it.Dst, Bindings: b2, Span: it.Span()})
			case *ast.Generator:
				expandGenItems(it.Body, it.Ranges, it.Var, b2, wc, bag, it.Span())
			}
		}
	}
}

// rangeValues expands a generator's range list (§3.1, §4.2 `range`) into
// the concrete sequence of values it iterates over. A lone bare integer k
// means 1..k; a bare integer among several items is the singleton {k}.
// Open-ended range items (`a:`, `:b`) have no enclosing signal to borrow a
// width from in a generator header (unlike the otherwise-identical index
// syntax used inside `[...]`, §4.3 phase 3), so this implementation treats
// them as invalid here — no worked example in the specification uses an
// open range in a generator header.
func rangeValues(ranges []ast.RangeItem, bag *diag.Bag, span source.Span) []int {
	if len(ranges) == 1 && ranges[0].Bare {
		k := ranges[0].BareVal
		if k < 1 {
			bag.Add(diag.New(diag.CodeBadGeneratorRange, span, "generator range must be positive, got %d", k))
			return nil
		}

		out := make([]int, 0, k)
		for i := 1; i <= k; i++ {
			out = append(out, i)
		}

		return out
	}

	var out []int

	for _, r := range ranges {
		switch {
		case r.Bare:
			out = append(out, r.BareVal)
		case r.Lo == nil || r.Hi == nil:
			bag.Add(diag.New(diag.CodeBadGeneratorRange, span,
				"open-ended range requires an enclosing signal width, not supported in a generator header"))
		case *r.Lo > *r.Hi:
			bag.Add(diag.New(diag.CodeBadGeneratorRange, span, "range %d:%d is empty", *r.Lo, *r.Hi))
		default:
			for i := *r.Lo; i <= *r.Hi; i++ {
				out = append(out, i)
			}
		}
	}

	return out
}

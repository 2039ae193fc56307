package flatten

import (
	"fmt"

	"github.com/shdl-lang/shdlc/pkg/ast"
	"github.com/shdl-lang/shdlc/pkg/base"
	"github.com/shdl-lang/shdlc/pkg/diag"
	"github.com/shdl-lang/shdlc/pkg/source"
)

// exprCtx resolves signal references within one component during phases 3
// (bit-slice expansion) and 4 (constant materialization). Both phases
// reduce to the same operation — turning a SignalRef bit into a concrete
// base.Endpoint — so this implementation resolves them in a single pass
// over each connection rather than building an intermediate AST in
// between.
type exprCtx struct {
	env       map[string]*ast.ComponentDef
	def       *ast.ComponentDef
	instances map[string]string // instance name -> declared type
	constants map[string]*ast.Constant
	wc        *workingComponent
	bag       *diag.Bag
	constInst map[string]bool // names already materialized, to dedupe repeated bit references
}

// bitEndpoint resolves one 1-based bit of a signal reference to a base
// Endpoint.
type bitEndpoint func(bit uint) base.Endpoint

func buildPartial(env map[string]*ast.ComponentDef, def *ast.ComponentDef, bag *diag.Bag) *partialComponent {
	wc := phase1and2(def, bag)

	for _, in := range wc.instances {
		if _, isPrim := primitiveKind(in.Type); isPrim {
			continue
		}

		if _, ok := env[in.Type]; !ok {
			bag.Add(diag.New(diag.CodeUndefinedComponent, in.Span, "undefined component type %q", in.Type))
		}
	}

	constants := make(map[string]*ast.Constant)

	for _, c := range def.Constants() {
		if _, dup := constants[c.Name]; dup {
			bag.Add(diag.New(diag.CodeDuplicateInstance, c.Span(), "constant %q already declared", c.Name))
			continue
		}

		if c.ExplicitWidth != 0 && ast.BitsFor(c.Value) > c.ExplicitWidth {
			bag.Add(diag.New(diag.CodeConstantWidth, c.Span(),
				"constant %q value %d does not fit in %d bits", c.Name, c.Value, c.ExplicitWidth))
		}

		constants[c.Name] = c
	}

	ctx := &exprCtx{
		env:       env,
		def:       def,
		instances: instanceTypes(wc),
		constants: constants,
		wc:        wc,
		bag:       bag,
		constInst: make(map[string]bool),
	}

	var conns []base.Connection

	for _, fc := range wc.connections {
		conns = append(conns, ctx.expandConnection(fc)...)
	}

	pc := &partialComponent{name: def.Name, span: def.Span(), inputs: def.Inputs, outputs: def.Outputs, connections: conns}
	for _, in := range wc.instances {
		pc.instances = append(pc.instances, instanceRef{Name: in.Name, Type: in.Type})
	}

	return pc
}

func instanceTypes(wc *workingComponent) map[string]string {
	out := make(map[string]string, len(wc.instances))
	for _, in := range wc.instances {
		out[in.Name] = in.Type
	}

	return out
}

// expandConnection bit-expands one `src -> dst;` statement into one
// single-bit base.Connection per bit, validating that both sides carry the
// same number of bits (§3.2 "Widths").
func (ctx *exprCtx) expandConnection(fc flatConnection) []base.Connection {
	srcWidth, srcBit, srcConst, ok := ctx.resolve(fc.Src)
	if !ok {
		return nil
	}

	dstWidth, dstBit, dstConst, ok := ctx.resolve(fc.Dst)
	if !ok {
		return nil
	}

	srcBits, ok := bitsFor(fc.Src.Index, srcWidth, fc.Bindings, ctx.bag, fc.Span, outOfRangeCode(srcConst))
	if !ok {
		return nil
	}

	dstBits, ok := bitsFor(fc.Dst.Index, dstWidth, fc.Bindings, ctx.bag, fc.Span, outOfRangeCode(dstConst))
	if !ok {
		return nil
	}

	if len(srcBits) != len(dstBits) {
		ctx.bag.Add(diag.New(diag.CodeWidthMismatch, fc.Span,
			"connection width mismatch: %d bit(s) on the left, %d bit(s) on the right", len(srcBits), len(dstBits)))

		return nil
	}

	out := make([]base.Connection, len(srcBits))
	for i := range srcBits {
		out[i] = base.Connection{Src: srcBit(srcBits[i]), Dst: dstBit(dstBits[i])}
	}

	return out
}

// resolve determines the bit width of ref, a function resolving any one of
// its bits to a concrete Endpoint, and whether the base name denotes a
// named constant (as opposed to a component port or, with a `.member`
// suffix, an instance's port) -- callers need that to pick the right
// out-of-range diagnostic.
func (ctx *exprCtx) resolve(ref *ast.SignalRef) (uint, bitEndpoint, bool, bool) {
	baseName := ref.Base.Resolve(nil)

	if ref.HasMember() {
		width, bit, ok := ctx.resolveMember(ref, baseName)
		return width, bit, false, ok
	}

	if port, ok := findPort(allPorts(ctx.def), baseName); ok {
		return port.Width, func(bit uint) base.Endpoint { return base.ComponentPort(baseName, bit) }, false, true
	}

	if c, ok := ctx.constants[baseName]; ok {
		return c.InferredWidth(), func(bit uint) base.Endpoint { return ctx.constBit(c, bit) }, true, true
	}

	if _, ok := ctx.instances[baseName]; ok {
		ctx.bag.Add(diag.New(diag.CodeUndefinedPort, ref.Span(), "instance %q referenced without a .port", baseName))
		return 0, nil, false, false
	}

	ctx.bag.Add(diag.New(diag.CodeUndefinedPort, ref.Span(), "undefined signal %q", baseName))

	return 0, nil, false, false
}

func (ctx *exprCtx) resolveMember(ref *ast.SignalRef, baseName string) (uint, bitEndpoint, bool) {
	memberName := ref.Member.Resolve(nil)

	typ, ok := ctx.instances[baseName]
	if !ok {
		ctx.bag.Add(diag.New(diag.CodeUndefinedInstance, ref.Span(), "undefined instance %q", baseName))
		return 0, nil, false
	}

	if kind, isPrim := primitiveKind(typ); isPrim {
		if !validPrimitivePort(kind, memberName) {
			ctx.bag.Add(diag.New(diag.CodeUndefinedPort, ref.Span(), "primitive %q has no port %q", typ, memberName))
			return 0, nil, false
		}

		return 1, func(uint) base.Endpoint { return base.InstancePort(baseName, memberName) }, true
	}

	subDef, ok := ctx.env[typ]
	if !ok {
		ctx.bag.Add(diag.New(diag.CodeUndefinedComponent, ref.Span(), "undefined component %q", typ))
		return 0, nil, false
	}

	port, ok := findPort(allPorts(subDef), memberName)
	if !ok {
		ctx.bag.Add(diag.New(diag.CodeUndefinedPort, ref.Span(), "component %q has no port %q", typ, memberName))
		return 0, nil, false
	}

	return port.Width, func(bit uint) base.Endpoint { return base.InstancePortBit(baseName, memberName, bit) }, true
}

// outOfRangeCode picks the diagnostic bitsFor raises for an out-of-bounds
// index: a named constant reports it as a constant-width problem (§4.3
// phase 4), everything else as a plain index-range problem.
func outOfRangeCode(isConstant bool) diag.Code {
	if isConstant {
		return diag.CodeConstantWidth
	}

	return diag.CodeIndexOutOfRange
}

// bitsFor evaluates an (optional) index spec against a signal's width,
// producing the ordered list of 1-based bits it selects. A nil spec
// selects the whole signal, low bit first (§6.1). outOfRangeCode lets
// callers pick the diagnostic raised on an out-of-bounds index: ports and
// instance ports get CodeIndexOutOfRange, while a named constant indexed
// beyond its inferred width gets CodeConstantWidth (§4.3 phase 4 treats
// both the "too narrow for the literal" and "indexed past the inferred
// width" cases as the same constant-width error).
func bitsFor(idx *ast.IndexSpec, width uint, bindings map[string]int, bag *diag.Bag, span source.Span, outOfRangeCode diag.Code) ([]uint, bool) {
	if idx == nil {
		out := make([]uint, width)
		for i := uint(0); i < width; i++ {
			out[i] = i + 1
		}

		return out, true
	}

	if !idx.IsRange {
		b := ast.Eval(idx.Single, bindings)
		if b < 1 || uint(b) > width {
			bag.Add(diag.New(outOfRangeCode, span, "bit index %d out of range for %d-bit signal", b, width))
			return nil, false
		}

		return []uint{uint(b)}, true
	}

	lo := 1
	if idx.Lo != nil {
		lo = ast.Eval(idx.Lo, bindings)
	}

	hi := int(width)
	if idx.Hi != nil {
		hi = ast.Eval(idx.Hi, bindings)
	}

	if lo < 1 || hi > int(width) || lo > hi {
		bag.Add(diag.New(outOfRangeCode, span, "range %d:%d out of bounds for %d-bit signal", lo, hi, width))
		return nil, false
	}

	out := make([]uint, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, uint(i))
	}

	return out, true
}

// constBit materializes one bit of a named constant as a dedicated
// CONST_bitN source instance (§4.3 phase 4): __VCC__ for a 1-bit,
// __GND__ for a 0-bit, named after the constant and the bit position so
// flattened instance names stay globally unique and traceable to their
// origin (§3.2's "Name uniqueness" invariant).
func (ctx *exprCtx) constBit(c *ast.Constant, bit uint) base.Endpoint {
	name := fmt.Sprintf("%s_bit%d", c.Name, bit)

	if !ctx.constInst[name] {
		ctx.constInst[name] = true

		typ := "__GND__"
		if (c.Value>>(bit-1))&1 == 1 {
			typ = "__VCC__"
		}

		ctx.wc.instances = append(ctx.wc.instances, flatInstance{Name: name, Type: typ})
	}

	return base.InstancePort(name, "O")
}

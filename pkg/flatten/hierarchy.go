package flatten

import (
	"strconv"

	"github.com/shdl-lang/shdlc/pkg/base"
	"github.com/shdl-lang/shdlc/pkg/diag"
)

// inline implements phase 5 (§4.3): every instance whose type is a
// user-defined component, rather than a primitive, is replaced by a
// recursively flattened copy of that component's own primitives and
// connections, renamed with an "instanceName_" prefix and rewired so that
// its former component-port endpoints disappear, replaced by whatever
// drives (or consumes) them at the call site.
func (st *flattenState) inline(pc *partialComponent, bag *diag.Bag) *base.Component {
	final := &base.Component{Name: pc.name, Inputs: pc.inputs, Outputs: pc.outputs}

	typeOf := make(map[string]string, len(pc.instances))
	for _, in := range pc.instances {
		typeOf[in.Name] = in.Type
	}

	isSub := func(name string) bool {
		typ, ok := typeOf[name]
		if !ok {
			return false
		}

		_, prim := primitiveKind(typ)

		return !prim
	}

	key := func(inst, port string, bit uint) string {
		return inst + "." + port + "#" + strconv.FormatUint(uint64(bit), 10)
	}

	// Every parent-level connection driving a subcomponent instance's
	// input port bit, captured before any rewriting.
	driverForInput := make(map[string]base.Endpoint)

	for _, c := range pc.connections {
		if !c.Dst.IsPort && isSub(c.Dst.Instance) {
			driverForInput[key(c.Dst.Instance, c.Dst.Port, c.Dst.Bit)] = c.Src
		}
	}

	// What ultimately drives each subcomponent instance's output port bit,
	// filled in as each instance is inlined below.
	outputDriver := make(map[string]base.Endpoint)

	for _, in := range pc.instances {
		if kind, prim := primitiveKind(in.Type); prim {
			final.Instances = append(final.Instances, base.Instance{Name: in.Name, Kind: kind})
			continue
		}

		sub := st.flatten(in.Type, bag)
		if sub == nil {
			continue
		}

		prefix := in.Name + "_"

		resolveSrc := func(e base.Endpoint) base.Endpoint {
			if !e.IsPort {
				return base.InstancePortBit(prefix+e.Instance, e.Port, e.Bit)
			}

			if d, ok := driverForInput[key(in.Name, e.PortName, e.Bit)]; ok {
				return d
			}

			bag.Add(diag.New(diag.CodeUnconnectedInput, pc.span,
				"instance %q input %q bit %d is not connected", in.Name, e.PortName, e.Bit))

			return base.ComponentPort("$unconnected", e.Bit)
		}

		for _, si := range sub.Instances {
			final.Instances = append(final.Instances, base.Instance{Name: prefix + si.Name, Kind: si.Kind})
		}

		for _, sc := range sub.Connections {
			if sc.Dst.IsPort {
				outputDriver[key(in.Name, sc.Dst.PortName, sc.Dst.Bit)] = resolveSrc(sc.Src)
				continue
			}

			final.Connections = append(final.Connections, base.Connection{
				Src: resolveSrc(sc.Src),
				Dst: base.InstancePortBit(prefix+sc.Dst.Instance, sc.Dst.Port, sc.Dst.Bit),
			})
		}
	}

	for _, c := range pc.connections {
		if !c.Dst.IsPort && isSub(c.Dst.Instance) {
			continue // absorbed into a subcomponent's inlined wiring above
		}

		src := c.Src
		if !src.IsPort && isSub(src.Instance) {
			if d, ok := outputDriver[key(src.Instance, src.Port, src.Bit)]; ok {
				src = d
			}
		}

		final.Connections = append(final.Connections, base.Connection{Src: src, Dst: c.Dst})
	}

	// A subcomponent's output may itself be driven straight through from a
	// sibling subcomponent's output (e.g. `A.O -> B.In; B.O -> Out;`);
	// resolve any such chains now that every instance has been inlined.
	for i := range final.Connections {
		final.Connections[i].Src = resolveChain(final.Connections[i].Src, isSub, outputDriver, key)
	}

	return final
}

func resolveChain(e base.Endpoint, isSub func(string) bool, outputDriver map[string]base.Endpoint, key func(string, string, uint) string) base.Endpoint {
	for steps := 0; steps < 64; steps++ {
		if e.IsPort || !isSub(e.Instance) {
			return e
		}

		d, ok := outputDriver[key(e.Instance, e.Port, e.Bit)]
		if !ok {
			return e
		}

		e = d
	}

	return e
}

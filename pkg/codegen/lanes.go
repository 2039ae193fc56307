// Package codegen implements the bit-packed code generator (§4.5): lane
// assignment over an analyzed Base component, followed by emission of a
// self-contained C source file exposing the `reset/poke/peek/step` ABI
// (§6.3) that the driver glue's host toolchain compiles to a shared
// object. It is grounded on the teacher's pkg/air package (the final,
// lowering-target IR stage right before the teacher's own constraint
// system is handed to its backend), generalized from "assign each
// constraint a column" to "assign each gate a lane", and on the teacher's
// use of bits-and-blooms/bitset for dense bit-indexed allocation state.
package codegen

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/shdl-lang/shdlc/pkg/base"
)

// Pos locates a primitive instance's output within the simulator's packed
// state: which 64-bit chunk of its KIND's word sequence, and which lane
// (bit) of that chunk (§4.5.1).
type Pos struct {
	Kind  base.Kind
	Chunk uint
	Lane  uint
}

// LaneMap is the result of lane assignment (§3.3): where every
// stateful primitive instance lives in the packed words, plus which
// lanes of each (KIND, chunk) word are actually populated.
type LaneMap struct {
	pos        map[string]Pos
	constKind  map[string]base.Kind // VCC/GND instances: no chunk word, just a kind
	chunkCount map[base.Kind]uint
	active     map[base.Kind]map[uint]uint64 // kind -> chunk -> bitmask of populated lanes
	order      map[base.Kind][]string        // instance names, in lane order
}

// AssignLanes buckets c's instances by KIND in their Base-IR source order
// and assigns each the next free lane, 64 lanes per chunk (§4.5.1). VCC
// and GND instances receive no chunk placement: their value is
// synthesized directly at every use site (§4.5.2).
func AssignLanes(c *base.Component) *LaneMap {
	lm := &LaneMap{
		pos:        make(map[string]Pos),
		constKind:  make(map[string]base.Kind),
		chunkCount: make(map[base.Kind]uint),
		active:     make(map[base.Kind]map[uint]uint64),
		order:      make(map[base.Kind][]string),
	}

	for _, kind := range base.Kinds {
		var names []string

		for _, inst := range c.Instances {
			if inst.Kind == kind {
				names = append(names, inst.Name)
			}
		}

		lm.order[kind] = names

		if kind == base.VCC || kind == base.GND {
			for _, n := range names {
				lm.constKind[n] = kind
			}

			continue
		}

		masks := make(map[uint]uint64)

		for i, n := range names {
			chunk := uint(i) / 64 //nolint:gomnd // §4.5.1: 64 lanes per chunk, a spec constant
			lane := uint(i) % 64
			lm.pos[n] = Pos{Kind: kind, Chunk: chunk, Lane: lane}
			masks[chunk] |= 1 << lane
		}

		lm.active[kind] = masks

		if len(names) > 0 {
			lm.chunkCount[kind] = (uint(len(names))-1)/64 + 1
		}
	}

	return lm
}

// Lookup returns the chunk/lane position of a stateful primitive
// instance.
func (lm *LaneMap) Lookup(name string) (Pos, bool) {
	p, ok := lm.pos[name]
	return p, ok
}

// ConstKind returns the kind of a VCC/GND instance, which has no lane
// position of its own.
func (lm *LaneMap) ConstKind(name string) (base.Kind, bool) {
	k, ok := lm.constKind[name]
	return k, ok
}

// Chunks returns the number of (KIND, chunk) words needed for kind.
func (lm *LaneMap) Chunks(kind base.Kind) uint { return lm.chunkCount[kind] }

// ActiveMask returns the bitmask of populated lanes within (kind, chunk);
// unpopulated high lanes of a word's final chunk must be masked out of
// NOT's bitwise-complement (§4.5.3 step 2).
func (lm *LaneMap) ActiveMask(kind base.Kind, chunk uint) uint64 {
	return lm.active[kind][chunk]
}

// Order returns kind's instances in lane order (instance at index i
// occupies lane i%64 of chunk i/64).
func (lm *LaneMap) Order(kind base.Kind) []string { return lm.order[kind] }

// WordName renders the canonical name of a (KIND, chunk) state word, e.g.
// "XOR_O_0" (§4.5.2).
func WordName(kind base.Kind, chunk uint) string {
	return fmt.Sprintf("%s_O_%d", kind.String(), chunk)
}

// ActiveLaneSet renders (kind, chunk)'s active-lane mask as a bitset, for
// introspection callers that want set-style operations rather than a raw
// uint64; the emitted C kernel itself works directly with the packed
// uint64 masks for speed.
func (lm *LaneMap) ActiveLaneSet(kind base.Kind, chunk uint) *bitset.BitSet {
	bs := bitset.New(64) //nolint:gomnd // one bit per lane, §4.5.1
	mask := lm.ActiveMask(kind, chunk)

	for i := uint(0); i < 64; i++ {
		if mask&(1<<i) != 0 {
			bs.Set(i)
		}
	}

	return bs
}

// Package repl implements an interactive poke/peek/step console
// (supplemental to the distilled spec: a manual-exploration aid, not part
// of the compile pipeline) over an in-process Go interpretation of a
// flattened Base component. It runs the same gather-then-commit tick
// model the code generator emits as C (§4.5.3), so behavior observed here
// matches a compiled kernel exactly, without needing a host C toolchain
// for quick exploration. It is grounded on the teacher's
// pkg/util/termio.Terminal for raw-mode line editing via golang.org/x/term.
package repl

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/shdl-lang/shdlc/pkg/analyze"
	"github.com/shdl-lang/shdlc/pkg/base"
)

// Engine interprets a flattened component's Base IR directly, one
// primitive instance's output bit at a time, without lane packing — a
// clarity-over-speed stand-in for the packed C kernel.
type Engine struct {
	comp    *base.Component
	drivers map[string]base.Endpoint
	state   map[string]bool // instance name -> its single output bit
	inputs  map[string]uint64
}

// NewEngine builds an Engine from an analyzed component. result must come
// from a prior analyze.Analyze call that reported no errors.
func NewEngine(comp *base.Component, result analyze.Result) *Engine {
	e := &Engine{
		comp:    comp,
		drivers: result.Drivers,
	}

	e.Reset()

	return e
}

// Reset zeroes every input and every instance's latched output.
func (e *Engine) Reset() {
	e.state = make(map[string]bool, len(e.comp.Instances))
	e.inputs = make(map[string]uint64, len(e.comp.Inputs))

	for _, inst := range e.comp.Instances {
		e.state[inst.Name] = false
	}

	for _, p := range e.comp.Inputs {
		e.inputs[p.Name] = 0
	}
}

// Poke drives an input port to value, masked to its declared width.
func (e *Engine) Poke(name string, value uint64) error {
	for _, p := range e.comp.Inputs {
		if p.Name == name {
			mask := uint64(1)<<p.Width - 1
			if p.Width >= 64 { //nolint:gomnd
				mask = ^uint64(0)
			}

			e.inputs[name] = value & mask

			return nil
		}
	}

	return fmt.Errorf("no such input %q", name)
}

// Peek reads the current value of an input, output, or internal instance
// state bit.
func (e *Engine) Peek(name string) (uint64, error) {
	for _, p := range e.comp.Inputs {
		if p.Name == name {
			return e.inputs[name], nil
		}
	}

	for _, p := range e.comp.Outputs {
		if p.Name == name {
			var v uint64

			for bit := uint(1); bit <= p.Width; bit++ {
				if e.bitValue(e.drivers[base.ComponentPort(p.Name, bit).String()]) {
					v |= 1 << (bit - 1)
				}
			}

			return v, nil
		}
	}

	for _, inst := range e.comp.Instances {
		if inst.Name == name {
			if e.state[name] {
				return 1, nil
			}

			return 0, nil
		}
	}

	return 0, fmt.Errorf("no such signal %q", name)
}

// Step advances the simulation cycles clock cycles, each one computing
// every instance's next output from the previously committed state (§4.5.3:
// gather over old S, then commit all at once).
func (e *Engine) Step(cycles int) {
	for i := 0; i < cycles; i++ {
		next := make(map[string]bool, len(e.comp.Instances))

		for _, inst := range e.comp.Instances {
			next[inst.Name] = e.evalInstance(inst)
		}

		e.state = next
	}
}

func (e *Engine) evalInstance(inst base.Instance) bool {
	switch inst.Kind {
	case base.VCC:
		return true
	case base.GND:
		return false
	case base.NOT:
		return !e.bitValue(e.drivers[base.InstancePort(inst.Name, "A").String()])
	case base.AND:
		return e.bitValue(e.drivers[base.InstancePort(inst.Name, "A").String()]) &&
			e.bitValue(e.drivers[base.InstancePort(inst.Name, "B").String()])
	case base.OR:
		return e.bitValue(e.drivers[base.InstancePort(inst.Name, "A").String()]) ||
			e.bitValue(e.drivers[base.InstancePort(inst.Name, "B").String()])
	case base.XOR:
		return e.bitValue(e.drivers[base.InstancePort(inst.Name, "A").String()]) !=
			e.bitValue(e.drivers[base.InstancePort(inst.Name, "B").String()])
	default:
		return false
	}
}

func (e *Engine) bitValue(src base.Endpoint) bool {
	if src.IsPort {
		return (e.inputs[src.PortName]>>(src.Bit-1))&1 == 1
	}

	return e.state[src.Instance]
}

// Signals lists every pokeable/peekable name, sorted, for tab-style
// discovery from the console.
func (e *Engine) Signals() []string {
	var names []string

	for _, p := range e.comp.Inputs {
		names = append(names, p.Name)
	}

	for _, p := range e.comp.Outputs {
		names = append(names, p.Name)
	}

	for _, inst := range e.comp.Instances {
		names = append(names, inst.Name)
	}

	sort.Strings(names)

	return names
}

// Run drives an interactive console against eng over in/out, reading one
// command per line until EOF or "quit": "poke NAME VALUE", "peek NAME",
// "step [N]", "reset", "list".
func Run(eng *Engine, in io.Reader, out io.Writer) error {
	fd := int(os.Stdin.Fd())

	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}

	if term.IsTerminal(fd) {
		return runRaw(eng, fd, out)
	}

	return runPlain(eng, in, out)
}

func runPlain(eng *Engine, in io.Reader, out io.Writer) error {
	scanner := newLineScanner(in)

	for {
		fmt.Fprint(out, "shdl> ")

		line, ok := scanner.next()
		if !ok {
			return nil
		}

		if strings.TrimSpace(line) == "quit" {
			return nil
		}

		dispatch(eng, line, out)
	}
}

// runRaw drives the console through golang.org/x/term's line editor, for
// an interactive TTY (arrow-key history, proper backspace handling).
func runRaw(eng *Engine, fd int, out io.Writer) error {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}

	defer term.Restore(fd, state) //nolint:errcheck

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, out}

	xterm := term.NewTerminal(screen, "shdl> ")

	for {
		line, err := xterm.ReadLine()
		if err != nil {
			return nil //nolint:nilerr // EOF/Ctrl-D ends the session cleanly
		}

		if strings.TrimSpace(line) == "quit" {
			return nil
		}

		dispatch(eng, line, xterm)
	}
}

func dispatch(eng *Engine, line string, out io.Writer) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "reset":
		eng.Reset()
		fmt.Fprintln(out, "ok")
	case "list":
		fmt.Fprintln(out, strings.Join(eng.Signals(), " "))
	case "poke":
		if len(fields) != 3 { //nolint:gomnd
			fmt.Fprintln(out, "usage: poke NAME VALUE")
			return
		}

		value, err := strconv.ParseUint(fields[2], 0, 64)
		if err != nil {
			fmt.Fprintln(out, "bad value:", err)
			return
		}

		if err := eng.Poke(fields[1], value); err != nil {
			fmt.Fprintln(out, err)
		} else {
			fmt.Fprintln(out, "ok")
		}
	case "peek":
		if len(fields) != 2 { //nolint:gomnd
			fmt.Fprintln(out, "usage: peek NAME")
			return
		}

		v, err := eng.Peek(fields[1])
		if err != nil {
			fmt.Fprintln(out, err)
		} else {
			fmt.Fprintf(out, "%d\n", v)
		}
	case "step":
		cycles := 1

		if len(fields) == 2 { //nolint:gomnd
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintln(out, "bad cycle count:", err)
				return
			}

			cycles = n
		}

		eng.Step(cycles)
		fmt.Fprintln(out, "ok")
	default:
		fmt.Fprintf(out, "unknown command %q (try: poke, peek, step, reset, list, quit)\n", fields[0])
	}
}

// lineScanner is a minimal, allocation-light line reader for the
// non-interactive (piped) path, where x/term's raw mode would refuse to
// engage.
type lineScanner struct {
	r   io.Reader
	buf []byte
}

func newLineScanner(r io.Reader) *lineScanner {
	return &lineScanner{r: r}
}

func (s *lineScanner) next() (string, bool) {
	var line []byte

	one := make([]byte, 1)

	for {
		n, err := s.r.Read(one)
		if n == 1 {
			if one[0] == '\n' {
				return string(line), true
			}

			line = append(line, one[0])
		}

		if err != nil {
			if len(line) > 0 {
				return string(line), true
			}

			return "", false
		}
	}
}

package cmd

import (
	"fmt"
	"os"

	json "github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/shdl-lang/shdlc/pkg/analyze"
	"github.com/shdl-lang/shdlc/pkg/base"
	"github.com/shdl-lang/shdlc/pkg/codegen"
	"github.com/shdl-lang/shdlc/pkg/flatten"
	"github.com/shdl-lang/shdlc/pkg/resolver"
)

// emitIRCmd dumps the post-flattener Base IR (and, on request, the lane
// assignment computed for it) instead of running codegen — a diagnostic
// escape hatch for inspecting what the flattener and analyzer produced.
var emitIRCmd = &cobra.Command{
	Use:   "emit-ir [flags] source.shdl",
	Short: "Dump the flattened Base IR for a component",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runEmitIR(cmd, args[0])
	},
}

func init() {
	emitIRCmd.Flags().StringArrayP("include", "I", nil, "additional directory to search for imported modules")
	emitIRCmd.Flags().String("component", "", "name of the top-level component (defaults to the last one declared)")
	emitIRCmd.Flags().Bool("json", false, "emit machine-readable JSON instead of a text dump")
	emitIRCmd.Flags().Bool("lanes", false, "include the codegen lane assignment in the dump")

	rootCmd.AddCommand(emitIRCmd)
}

// irDump is the --json shape: the flattened component, its driver map and
// feedback list, plus, optionally, its lane assignment.
type irDump struct {
	Component *base.Component  `json:"component"`
	Drivers   map[string]string `json:"drivers,omitempty"`
	Feedback  []string          `json:"feedback,omitempty"`
	Lanes     map[string]lanePos `json:"lanes,omitempty"`
}

type lanePos struct {
	Kind  string `json:"kind"`
	Chunk uint   `json:"chunk"`
	Lane  uint   `json:"lane"`
}

func runEmitIR(cmd *cobra.Command, path string) {
	includes := GetStringArray(cmd, "include")

	env, bag := resolver.Resolve(path, includes)
	if reportAndExit(bag, "resolve") {
		return
	}

	entry := GetString(cmd, "component")
	if entry == "" {
		entry = lastComponent(env.EntryModule.Order)
	}

	comp, flatBag := flatten.Flatten(env.Components, entry)
	if reportAndExit(flatBag, "flatten") {
		return
	}

	result := analyze.Analyze(comp)
	for _, d := range result.Bag.All() {
		fmt.Fprintf(os.Stderr, "analyze: %s: %s: %s\n", d.Severity, d.Code, d.Message)
	}

	dump := irDump{Component: comp, Feedback: result.Feedback}

	dump.Drivers = make(map[string]string, len(result.Drivers))
	for sink, src := range result.Drivers {
		dump.Drivers[sink] = src.String()
	}

	if GetFlag(cmd, "lanes") {
		dump.Lanes = lanePositions(comp)
	}

	if GetFlag(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(dump); err != nil {
			fmt.Println("shdlc:", err)
			os.Exit(1)
		}

		return
	}

	printTextDump(dump)
}

func lanePositions(comp *base.Component) map[string]lanePos {
	lm := codegen.AssignLanes(comp)
	out := make(map[string]lanePos)

	for _, inst := range comp.Instances {
		if kind, ok := lm.ConstKind(inst.Name); ok {
			out[inst.Name] = lanePos{Kind: kind.String()}
			continue
		}

		if pos, ok := lm.Lookup(inst.Name); ok {
			out[inst.Name] = lanePos{Kind: pos.Kind.String(), Chunk: pos.Chunk, Lane: pos.Lane}
		}
	}

	return out
}

func printTextDump(dump irDump) {
	c := dump.Component

	fmt.Printf("component %s\n", c.Name)

	for _, p := range c.Inputs {
		fmt.Printf("  input  %s[%d]\n", p.Name, p.Width)
	}

	for _, p := range c.Outputs {
		fmt.Printf("  output %s[%d]\n", p.Name, p.Width)
	}

	for _, inst := range c.Instances {
		fmt.Printf("  instance %s : %s\n", inst.Name, inst.Kind)
	}

	for _, conn := range c.Connections {
		fmt.Printf("  %s <- %s\n", conn.Dst.String(), conn.Src.String())
	}

	if len(dump.Feedback) > 0 {
		fmt.Printf("  feedback through: %v\n", dump.Feedback)
	}

	if dump.Lanes != nil {
		for name, pos := range dump.Lanes {
			fmt.Printf("  lane %s: %s chunk=%d lane=%d\n", name, pos.Kind, pos.Chunk, pos.Lane)
		}
	}
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shdl-lang/shdlc/pkg/analyze"
	"github.com/shdl-lang/shdlc/pkg/flatten"
	"github.com/shdl-lang/shdlc/pkg/repl"
	"github.com/shdl-lang/shdlc/pkg/resolver"
)

// replCmd opens an interactive poke/peek/step console over an in-process
// interpretation of a flattened component (supplemental to the compile
// pipeline; see pkg/repl).
var replCmd = &cobra.Command{
	Use:   "repl [flags] source.shdl",
	Short: "Interactively poke/peek/step a flattened component",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRepl(cmd, args[0])
	},
}

func init() {
	replCmd.Flags().StringArrayP("include", "I", nil, "additional directory to search for imported modules")
	replCmd.Flags().String("component", "", "name of the top-level component (defaults to the last one declared)")

	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, path string) {
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
	if reportAndExit(result.Bag, "analyze") {
		return
	}

	eng := repl.NewEngine(comp, result)

	if err := repl.Run(eng, os.Stdin, os.Stdout); err != nil {
		os.Exit(1)
	}
}

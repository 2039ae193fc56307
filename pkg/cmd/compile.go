package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/shdl-lang/shdlc/pkg/analyze"
	"github.com/shdl-lang/shdlc/pkg/ast"
	"github.com/shdl-lang/shdlc/pkg/codegen"
	"github.com/shdl-lang/shdlc/pkg/diag"
	"github.com/shdl-lang/shdlc/pkg/flatten"
	"github.com/shdl-lang/shdlc/pkg/resolver"
)

// compileCmd drives the full pipeline (§2): resolve -> flatten -> analyze ->
// codegen, then (unless -c/--compile-only) invokes the host C toolchain to
// produce a loadable shared object (§4.6).
var compileCmd = &cobra.Command{
	Use:   "compile [flags] source.shdl",
	Short: "Compile an SHDL source file down to a native simulator",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCompile(cmd, args[0])
	},
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "output path (defaults to <component>.so, or .c with -c)")
	compileCmd.Flags().StringArrayP("include", "I", nil, "additional directory to search for imported modules")
	compileCmd.Flags().BoolP("compile-only", "c", false, "emit generated C source only; do not invoke the host toolchain")
	compileCmd.Flags().UintP("optimize", "O", 3, "host C compiler optimization level {0,1,2,3}") //nolint:gomnd
	compileCmd.Flags().String("component", "", "name of the top-level component (defaults to the last one declared)")

	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, path string) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}

	includes := GetStringArray(cmd, "include")

	env, bag := resolver.Resolve(path, includes)
	if reportAndExit(bag, "resolve") {
		return
	}

	entry := GetString(cmd, "component")
	if entry == "" {
		entry = lastComponent(env.EntryModule.Order)
	}

	if entry == "" {
		fmt.Println("shdlc: no component to compile (pass --component, or declare at least one)")
		os.Exit(1)
	}

	comp, flatBag := flatten.Flatten(env.Components, entry)
	if reportAndExit(flatBag, "flatten") {
		return
	}

	result := analyze.Analyze(comp)
	if reportAndExit(result.Bag, "analyze") {
		return
	}

	for _, inst := range result.Feedback {
		log.WithFields(log.Fields{"instance": inst}).Info("combinational feedback detected (permitted)")
	}

	src, err := codegen.Generate(comp, result)
	if err != nil {
		fmt.Println("shdlc:", err)
		os.Exit(1)
	}

	compileOnly := GetFlag(cmd, "compile-only")
	out := GetString(cmd, "output")

	if compileOnly {
		if out == "" {
			out = entry + ".c"
		}

		writeOrExit(out, src)

		return
	}

	if out == "" {
		out = entry + ".so"
	}

	buildSharedObject(src, out, GetUint(cmd, "optimize"))
}

// lastComponent returns the name of the last component declared in a
// module, which is the default top-level component when --component is
// not given.
func lastComponent(order []*ast.ComponentDef) string {
	if len(order) == 0 {
		return ""
	}

	return order[len(order)-1].Name
}

func writeOrExit(path, contents string) {
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil { //nolint:gomnd
		fmt.Println("shdlc: writing", path, ":", err)
		os.Exit(1)
	}

	log.WithFields(log.Fields{"path": path}).Info("wrote output")
}

// buildSharedObject writes the generated C source to a temporary file and
// hands it to the host C toolchain (§4.6: "cc -shared -fPIC -O{level}"),
// exactly as a driver embedding this compiler would do at runtime.
func buildSharedObject(src, out string, level uint) {
	tmp, err := os.CreateTemp("", "shdlc-*.c")
	if err != nil {
		fmt.Println("shdlc:", err)
		os.Exit(1)
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(src); err != nil {
		fmt.Println("shdlc:", err)
		os.Exit(1)
	}

	if err := tmp.Close(); err != nil {
		fmt.Println("shdlc:", err)
		os.Exit(1)
	}

	cc := hostCompiler()
	optFlag := fmt.Sprintf("-O%d", level)

	absOut, err := filepath.Abs(out)
	if err != nil {
		absOut = out
	}

	command := exec.Command(cc, "-shared", "-fPIC", optFlag, "-o", absOut, tmp.Name())
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr

	log.WithFields(log.Fields{"cc": cc, "args": strings.Join(command.Args, " ")}).Debug("invoking host toolchain")

	if err := command.Run(); err != nil {
		fmt.Println("shdlc: host toolchain failed:", err)
		os.Exit(1)
	}
}

// hostCompiler honours CC, falling back to cc (§4.6 leaves the exact
// compiler a host/environment concern, not a compiler-level one).
func hostCompiler() string {
	if cc := os.Getenv("CC"); cc != "" {
		return cc
	}

	return "cc"
}

// reportAndExit prints every diagnostic in bag and, if any is error
// severity, exits the process with a non-zero status. It returns whether it
// exited.
func reportAndExit(bag diag.Bag, phase string) bool {
	for _, d := range bag.All() {
		fmt.Fprintf(os.Stderr, "%s: %s: %s: %s\n", phase, d.Severity, d.Code, d.Message)

		for _, note := range d.Notes {
			fmt.Fprintf(os.Stderr, "  note: %s\n", note)
		}
	}

	if bag.HasErrors() {
		os.Exit(1)
		return true
	}

	return false
}

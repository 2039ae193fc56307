// Command shdlc is the SHDL compiler driver: lex, parse, resolve, flatten,
// analyze, and emit a native simulator for a structural hardware
// description (§6.2).
package main

import "github.com/shdl-lang/shdlc/pkg/cmd"

func main() {
	cmd.Execute()
}

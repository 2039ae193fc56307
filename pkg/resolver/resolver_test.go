package resolver

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %s", path, err)
	}

	return path
}

func Test_Resolve_SingleFile_NoImports(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "top.shdl", `
component top() -> (o) { connect { __VCC__.O -> o; } }
`)

	env, bag := Resolve(entry, nil)
	if bag.HasErrors() {
		t.Fatalf("unexpected resolve errors: %v", bag.Errors())
	}

	if _, ok := env.Components["top"]; !ok {
		t.Fatalf("top not found in resolved environment: %v", env.Components)
	}
}

func Test_Resolve_Import(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gates.shdl", `
component and2(a, b) -> (o) {
  g0: AND;
  connect { a -> g0.A; b -> g0.B; g0.O -> o; }
}
`)

	entry := writeFile(t, dir, "top.shdl", `
use gates::{and2};

component top(a, b) -> (o) {
  u0: and2;
  connect { a -> u0.a; b -> u0.b; u0.o -> o; }
}
`)

	env, bag := Resolve(entry, []string{dir})
	if bag.HasErrors() {
		t.Fatalf("unexpected resolve errors: %v", bag.Errors())
	}

	if _, ok := env.Components["and2"]; !ok {
		t.Fatalf("and2 not spliced into environment: %v", env.Components)
	}

	if _, ok := env.Components["top"]; !ok {
		t.Fatalf("top not found in resolved environment: %v", env.Components)
	}
}

func Test_Resolve_MissingImport_IsError(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "top.shdl", `
use nosuchmodule::{whatever};

component top() -> (o) { connect { __VCC__.O -> o; } }
`)

	_, bag := Resolve(entry, []string{dir})
	if !bag.HasErrors() {
		t.Fatalf("expected a missing-import error")
	}
}

func Test_Resolve_CyclicImport_IsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.shdl", `
use b::{bcomp};
component acomp() -> (o) { connect { __VCC__.O -> o; } }
`)
	entry := writeFile(t, dir, "b.shdl", `
use a::{acomp};
component bcomp() -> (o) { connect { __VCC__.O -> o; } }
`)

	_, bag := Resolve(entry, []string{dir})
	if !bag.HasErrors() {
		t.Fatalf("expected a cyclic-import error")
	}
}

func Test_Resolve_UnknownImportedSymbol_IsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gates.shdl", `
component and2(a, b) -> (o) {
  g0: AND;
  connect { a -> g0.A; b -> g0.B; g0.O -> o; }
}
`)

	entry := writeFile(t, dir, "top.shdl", `
use gates::{nope};

component top() -> (o) { connect { __VCC__.O -> o; } }
`)

	_, bag := Resolve(entry, []string{dir})
	if !bag.HasErrors() {
		t.Fatalf("expected an unknown-imported-symbol error")
	}
}

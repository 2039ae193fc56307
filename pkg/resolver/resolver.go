// Package resolver implements module resolution (§2 row 3, §4.3 phase 1):
// a `use m::{A,B}` import statement is resolved by locating `m.shdl` on a
// search path and parsing it transitively, detecting cyclic imports along
// the way. It is grounded on the shape of the teacher's
// pkg/corset/compiler/resolver.go + environment.go pairing (a resolver
// that walks a circuit's declarations while consulting a shared
// environment of previously-resolved symbols), adapted from Corset's
// column/function scoping to SHDL's per-component symbol table.
package resolver

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/shdl-lang/shdlc/pkg/ast"
	"github.com/shdl-lang/shdlc/pkg/diag"
	"github.com/shdl-lang/shdlc/pkg/parser"
	"github.com/shdl-lang/shdlc/pkg/source"
)

// Environment is the flat symbol environment produced by phase 1: the
// entry module's components and every component reachable (and
// explicitly imported) via `use` (§4.3 phase 1). Primitive names are not
// entered here; the flattener recognizes them by name.
type Environment struct {
	// Components maps a component name to its definition. Names of
	// components defined directly in the entry file, plus any names
	// explicitly pulled in via `use`, are visible here.
	Components map[string]*ast.ComponentDef
	// EntryModule is the parsed module containing the entry component.
	EntryModule *ast.Module
}

// resolverState tracks file-backed module resolution across the whole
// transitive import graph: a cache to avoid re-parsing diamond imports,
// and a stack to detect cycles (§4.3 phase 1: "Circular imports fail").
type resolverState struct {
	searchPaths []string
	cache       map[string]*ast.Module // keyed by resolved absolute path
	stack       map[string]bool
	fileID      uint
	bag         diag.Bag
}

// Resolve parses the entry file and resolves its `use` imports (and their
// transitive imports) against the given search path, producing a flat
// component environment ready for the flattener.
func Resolve(entryPath string, searchPaths []string) (*Environment, diag.Bag) {
	st := &resolverState{
		searchPaths: searchPaths,
		cache:       make(map[string]*ast.Module),
		stack:       make(map[string]bool),
	}

	mod, ok := st.parseFile(entryPath)
	if !ok {
		return nil, st.bag
	}

	env := &Environment{
		Components:  make(map[string]*ast.ComponentDef),
		EntryModule: mod,
	}

	for name, def := range mod.Components {
		env.Components[name] = def
	}

	st.stack[absOrSelf(entryPath)] = true

	for _, imp := range mod.Imports {
		st.resolveImport(env, imp)
	}

	delete(st.stack, absOrSelf(entryPath))

	return env, st.bag
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return path
}

// resolveImport locates the target module for a single `use` statement,
// recursively resolves it, and splices the requested symbols into env.
func (st *resolverState) resolveImport(env *Environment, imp *ast.Import) {
	targetPath, found := st.locate(imp.ModuleName)
	if !found {
		st.bag.Add(diag.New(diag.CodeMissingImport, imp.Span(),
			"cannot locate module %q on search path", imp.ModuleName))

		return
	}

	abs := absOrSelf(targetPath)

	if st.stack[abs] {
		st.bag.Add(diag.New(diag.CodeCyclicImport, imp.Span(),
			"cyclic import of module %q", imp.ModuleName))

		return
	}

	targetMod, ok := st.parseFile(targetPath)
	if !ok {
		return
	}

	st.stack[abs] = true

	for _, nestedImp := range targetMod.Imports {
		st.resolveImport(env, nestedImp)
	}

	delete(st.stack, abs)

	for _, symbol := range imp.Symbols {
		def, ok := targetMod.Components[symbol]
		if !ok {
			st.bag.Add(diag.New(diag.CodeUnknownImportedSymbol, imp.Span(),
				"module %q does not define component %q", imp.ModuleName, symbol))

			continue
		}

		if existing, dup := env.Components[symbol]; dup && existing != def {
			st.bag.Add(diag.New(diag.CodeDuplicateInstance, imp.Span(),
				"component %q already defined or imported", symbol))

			continue
		}

		env.Components[symbol] = def
	}
}

// locate searches each directory of the configured search path (plus the
// current directory) for "<name>.shdl".
func (st *resolverState) locate(name string) (string, bool) {
	candidates := append([]string{"."}, st.searchPaths...)

	for _, dir := range candidates {
		candidate := filepath.Join(dir, name+".shdl")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	return "", false
}

// parseFile loads, lexes, and parses a single file, caching the result by
// absolute path so diamond imports only pay the parse cost once.
func (st *resolverState) parseFile(path string) (*ast.Module, bool) {
	abs := absOrSelf(path)
	if mod, ok := st.cache[abs]; ok {
		return mod, true
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		st.bag.Add(diag.New(diag.CodeMissingImport, source.Span{}, "cannot read %q: %s", path, err.Error()))
		return nil, false
	}

	st.fileID++
	file := source.NewFile(st.fileID, path, bytes)

	log.WithFields(log.Fields{"phase": "resolve", "file": path}).Debug("parsing source file")

	mod, parseBag := parser.Parse(file)
	st.bag.Merge(parseBag)
	st.cache[abs] = mod

	return mod, !parseBag.HasErrors()
}

package lsp

import (
	"os"
	"path/filepath"
)

// scratchFile is a temporary on-disk copy of an editor buffer, under a
// random name in the real file's directory so relative `use` imports
// still resolve.
type scratchFile struct {
	path string
}

func writeScratch(originalPath, text string) (*scratchFile, error) {
	dir := filepath.Dir(originalPath)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, ".shdlc-lsp-*.shdl")
	if err != nil {
		return nil, err
	}

	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		os.Remove(f.Name())
		return nil, err
	}

	return &scratchFile{path: f.Name()}, nil
}

func (s *scratchFile) cleanup() {
	os.Remove(s.path)
}

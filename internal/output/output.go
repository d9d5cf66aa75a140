// Package output writes analysis results to files.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"
)

// DirWriter writes rendered text files into one directory.
type DirWriter struct {
	Dir string
}

// WriteTextFile writes one output file, creating the directory as needed.
func (d DirWriter) WriteTextFile(name, contents string) error {
	path := filepath.Join(d.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir: %w", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", name, err)
	}
	return nil
}

// FuncRecord is one line in functions.jsonl.
type FuncRecord struct {
	Object       string `json:"object"`
	Segment      int    `json:"segment"`
	Name         string `json:"name,omitempty"`
	StartWord    int    `json:"start_word"`
	SizeWords    int    `json:"size_words"`
	BasicBlocks  int    `json:"basic_blocks,omitempty"`
	TotalStack   int    `json:"total_stack,omitempty"`
	SuspectedAsm bool   `json:"suspected_asm,omitempty"`
	CFG          string `json:"cfg,omitempty"`
	Warnings     int    `json:"warnings,omitempty"`
}

// WriteFunctionsJSONL writes function records to functions.jsonl.
func WriteFunctionsJSONL(dir string, recs []FuncRecord) error {
	path := filepath.Join(dir, "functions.jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("output: encode functions.jsonl: %w", err)
		}
	}
	return nil
}

// WriteCFGDot renders one function's block graph as a DOT file under
// cfg/<name>.dot.
func WriteCFGDot(dir, name string, fcfg *lattice.FuncCFG) error {
	g := &lattice.CFGGraph{Funcs: []*lattice.FuncCFG{fcfg}}
	dot := render.DOTCFG(g, name)
	path := filepath.Join(dir, "cfg", name+".dot")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir cfg: %w", err)
	}
	if err := os.WriteFile(path, []byte(dot), 0644); err != nil {
		return fmt.Errorf("output: write cfg dot %s: %w", name, err)
	}
	return nil
}

package objdb

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"goaldis/internal/cfg"
	"goaldis/internal/function"
	"goaldis/internal/linked"
	"goaldis/internal/logging"
)

// ProcessLinkData parses every object's link table into a linked File.
func (db *DB) ProcessLinkData() error {
	db.Log.Writeln(logging.Info, "- Processing Link Data...")
	start := time.Now()

	var combined linked.Stats
	err := db.ForEachObj(func(obj *ObjectFileData) error {
		f, err := linked.ParseObject(obj.Data, obj.Record.UniqueName())
		if err != nil {
			return err
		}
		obj.Linked = f
		combined.Add(&f.Stats)
		return nil
	})
	if err != nil {
		return err
	}

	db.Log.Writeln(logging.Info, "Processed Link Data:")
	db.Log.Writeln(logging.Info, " code %d bytes", combined.TotalCodeBytes)
	db.Log.Writeln(logging.Info, " v2 code %d bytes", combined.TotalV2CodeBytes)
	db.Log.Writeln(logging.Info, " v2 link data %d bytes", combined.TotalV2LinkBytes)
	db.Log.Writeln(logging.Info, " v2 pointers %d", combined.TotalV2Pointers)
	db.Log.Writeln(logging.Info, " v2 symbols %d", combined.TotalV2SymbolCount)
	db.Log.Writeln(logging.Info, " v3 code %d bytes", combined.V3CodeBytes)
	db.Log.Writeln(logging.Info, " v3 link data %d bytes", combined.V3LinkBytes)
	db.Log.Writeln(logging.Info, " v3 pointers %d", combined.V3Pointers)
	db.Log.Writeln(logging.Info, "   split %d", combined.V3SplitPointers)
	db.Log.Writeln(logging.Info, "   word  %d", combined.V3WordPointers)
	db.Log.Writeln(logging.Info, " v3 symbols %d", combined.V3SymbolCount)
	db.Log.Writeln(logging.Info, " v3 offset symbol links %d", combined.V3SymbolLinkOff)
	db.Log.Writeln(logging.Info, " v3 word symbol links %d", combined.V3SymbolLinkWord)
	db.Log.Writeln(logging.Info, " total %.3f ms", float64(time.Since(start).Microseconds())/1000)
	db.Log.Writeln(logging.Info, "")
	return nil
}

// ProcessLabels gives every label its canonical ordered name.
func (db *DB) ProcessLabels() error {
	db.Log.Writeln(logging.Info, "- Processing Labels...")
	start := time.Now()
	total := 0
	err := db.ForEachObj(func(obj *ObjectFileData) error {
		total += obj.Linked.SetOrderedLabelNames()
		return nil
	})
	if err != nil {
		return err
	}
	db.Log.Writeln(logging.Info, "Processed Labels:")
	db.Log.Writeln(logging.Info, " total %d labels", total)
	db.Log.Writeln(logging.Info, " total %.3f ms", float64(time.Since(start).Microseconds())/1000)
	db.Log.Writeln(logging.Info, "")
	return nil
}

// FindCode locates code/data zones, carves functions, disassembles them,
// and resolves fp-relative references.
func (db *DB) FindCode() error {
	db.Log.Writeln(logging.Info, "- Finding code in object files...")
	start := time.Now()

	var combined linked.Stats
	err := db.ForEachObj(func(obj *ObjectFileData) error {
		name := obj.Record.UniqueName()
		if err := obj.Linked.FindCode(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		funcs, err := function.Carve(obj.Linked)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		obj.FuncsBySeg = funcs
		function.Disassemble(obj.Linked, funcs)

		// one object in one version trips the fp resolver; skip it there
		if db.Config.GameVersion == 1 || name != "effect-control-v0" {
			if err := function.ProcessFpRelativeLinks(obj.Linked, funcs); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		} else {
			db.Log.Writeln(logging.Info, "skipping fp-relative link pass in %s", name)
		}

		stats := &obj.Linked.Stats
		if stats.CodeBytes/4 > stats.DecodedOps {
			db.Log.Writeln(logging.Warn, "Failed to decode all in %s (%d / %d)",
				name, stats.DecodedOps, stats.CodeBytes/4)
		}
		combined.Add(stats)
		return nil
	})
	if err != nil {
		return err
	}

	db.Log.Writeln(logging.Info, "Found code:")
	db.Log.Writeln(logging.Info, " code %.3f MB", float64(combined.CodeBytes)/(1<<20))
	db.Log.Writeln(logging.Info, " data %.3f MB", float64(combined.DataBytes)/(1<<20))
	db.Log.Writeln(logging.Info, " functions: %d", combined.FunctionCount)
	if combined.NFpRegUse > 0 {
		db.Log.Writeln(logging.Info, " fp uses resolved: %d / %d (%.3f %%)",
			combined.NFpRegUseResolved, combined.NFpRegUse,
			100*float64(combined.NFpRegUseResolved)/float64(combined.NFpRegUse))
	}
	if totalOps := combined.CodeBytes / 4; totalOps > 0 {
		db.Log.Writeln(logging.Info, " decoded %d / %d (%.3f %%)", combined.DecodedOps, totalOps,
			100*float64(combined.DecodedOps)/float64(totalOps))
	}
	db.Log.Writeln(logging.Info, " total %.3f ms", float64(time.Since(start).Microseconds())/1000)
	db.Log.Writeln(logging.Info, "")
	return nil
}

// AnalyzeFunctions finds basic blocks, decodes prologues, reduces each
// function's control flow graph, and names the top-level initializers.
func (db *DB) AnalyzeFunctions() error {
	db.Log.Writeln(logging.Info, "- Analyzing Functions...")

	if db.Config.FindBasicBlocks {
		start := time.Now()
		totalBlocks := 0
		unresolved := 0
		err := db.ForEachObj(func(obj *ObjectFileData) error {
			obj.Cfgs = make(map[*function.Function]*cfg.CFG)
			for seg, segFuncs := range obj.FuncsBySeg {
				for _, fn := range segFuncs {
					blocks, err := function.FindBasicBlocks(obj.Linked, seg, fn)
					if err != nil {
						return fmt.Errorf("%s: %w", obj.Record.UniqueName(), err)
					}
					fn.BasicBlocks = blocks
					totalBlocks += len(blocks)
					fn.AnalyzePrologue(obj.Linked)

					if fn.SuspectedAsm {
						for _, w := range fn.Warnings {
							db.Log.Writeln(logging.Warn, "[%s] %s", obj.Record.UniqueName(), w)
						}
						continue
					}

					c, err := cfg.Build(obj.Linked, seg, fn)
					if err != nil {
						return fmt.Errorf("%s: %w", obj.Record.UniqueName(), err)
					}
					if !c.Reduce() {
						unresolved++
					}
					obj.Cfgs[fn] = c
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		db.Log.Writeln(logging.Info, "Found %d basic blocks (%d unresolved cfgs) in %.3f ms",
			totalBlocks, unresolved, float64(time.Since(start).Microseconds())/1000)
	}

	return db.ForEachObj(func(obj *ObjectFileData) error {
		if obj.Linked.SegmentCount != 3 {
			return nil
		}
		// the top level segment holds exactly one function
		topFuncs := obj.FuncsBySeg[2]
		if len(topFuncs) != 1 {
			return fmt.Errorf("%s: %w: top-level segment has %d functions",
				obj.Record.UniqueName(), function.ErrAnalysis, len(topFuncs))
		}
		top := topFuncs[0]
		if top.GuessedName != "" {
			return fmt.Errorf("%s: %w: top-level function already named %q",
				obj.Record.UniqueName(), function.ErrAnalysis, top.GuessedName)
		}
		top.GuessedName = "(top-level-init)"
		function.FindGlobalFunctionDefs(obj.Linked, top, obj.FuncsBySeg)
		return nil
	})
}

// GenerateDgoListing renders which object files go in which containers.
func (db *DB) GenerateDgoListing() string {
	var b strings.Builder
	b.WriteString(";; DGO File Listing\n\n")

	names := append([]string(nil), db.dgoOrder...)
	sort.Strings(names)

	for _, name := range names {
		b.WriteString("(\"" + name + "\"\n")
		for _, rec := range db.objFilesByDgo[name] {
			fmt.Fprintf(&b, "  %s :version %d\n", rec.Name, rec.Version)
		}
		b.WriteString("  )\n\n")
	}
	return b.String()
}

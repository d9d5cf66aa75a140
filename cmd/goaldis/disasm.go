package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"goaldis/internal/cfg"
	"goaldis/internal/config"
	"goaldis/internal/logging"
	"goaldis/internal/objdb"
	"goaldis/internal/output"
)

var (
	disasmConfigPath string
	disasmOutDir     string
	disasmGraph      bool
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [dgo files...]",
	Short: "Ingest containers, analyze, and write disassembly output",
	Long: `Ingest the given container files (or the dgo_names from the config
file), deduplicate their objects, link, disassemble, analyze functions,
and write the configured outputs into the output directory.`,
	RunE: runDisasm,
}

func init() {
	disasmCmd.Flags().StringVarP(&disasmConfigPath, "config", "c", "goaldis.toml", "config file")
	disasmCmd.Flags().StringVarP(&disasmOutDir, "out", "o", "out", "output directory")
	disasmCmd.Flags().BoolVar(&disasmGraph, "graph", false, "write per-function CFG DOT files")
	rootCmd.AddCommand(disasmCmd)
}

func runDisasm(cmd *cobra.Command, args []string) error {
	conf, err := config.Load(disasmConfigPath)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = conf.DgoNames
	}
	if len(paths) == 0 {
		return fmt.Errorf("no containers given: pass files or set dgo_names")
	}

	log := logging.ColorSink{W: os.Stdout}
	db := objdb.New(conf, log)

	log.Writeln(logging.Info, "- Initializing ObjectFileDB...")
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := db.AddDgo(filepath.Base(path), data); err != nil {
			return err
		}
	}
	log.Writeln(logging.Info, "ObjectFileDB Initialized:")
	log.Writeln(logging.Info, " total dgos: %d", len(paths))
	log.Writeln(logging.Info, " total data: %d bytes", db.Stats.TotalDgoBytes)
	log.Writeln(logging.Info, " total objs: %d", db.Stats.TotalObjFiles)
	log.Writeln(logging.Info, " unique objs: %d", db.Stats.UniqueObjFiles)
	log.Writeln(logging.Info, " unique data: %d bytes", db.Stats.UniqueObjBytes)
	log.Writeln(logging.Info, "")

	if err := db.ProcessLinkData(); err != nil {
		return err
	}
	if err := db.ProcessLabels(); err != nil {
		return err
	}
	if err := db.FindCode(); err != nil {
		return err
	}
	if err := db.AnalyzeFunctions(); err != nil {
		return err
	}

	sink := output.DirWriter{Dir: disasmOutDir}
	if err := sink.WriteTextFile("dgo_listing.txt", db.GenerateDgoListing()); err != nil {
		return err
	}
	if conf.WriteHexdump {
		if err := db.WriteObjectFileWords(sink, conf.WriteHexdumpOnV3Only); err != nil {
			return err
		}
	}
	if conf.WriteDisassembly {
		if err := db.WriteDisassembly(sink, conf.DisassembleObjectsWithoutFunctions); err != nil {
			return err
		}
	}
	if conf.WriteScripts {
		if err := db.FindAndWriteScripts(sink); err != nil {
			return err
		}
	}

	return writeFunctionArtifacts(db, conf)
}

// writeFunctionArtifacts emits the structured per-function records and,
// when requested, DOT graphs of each function's basic blocks.
func writeFunctionArtifacts(db *objdb.DB, conf config.Config) error {
	if !conf.FindBasicBlocks {
		return nil
	}

	var recs []output.FuncRecord
	err := db.ForEachObj(func(obj *objdb.ObjectFileData) error {
		for seg, segFuncs := range obj.FuncsBySeg {
			for _, fn := range segFuncs {
				rec := output.FuncRecord{
					Object:       obj.Record.UniqueName(),
					Segment:      seg,
					Name:         fn.GuessedName,
					StartWord:    fn.StartWord,
					SizeWords:    fn.EndWord - fn.StartWord,
					BasicBlocks:  len(fn.BasicBlocks),
					TotalStack:   fn.Prologue.TotalStackUsage,
					SuspectedAsm: fn.SuspectedAsm,
					Warnings:     len(fn.Warnings),
				}
				if c, ok := obj.Cfgs[fn]; ok {
					rec.CFG = c.String()
					if disasmGraph && len(fn.BasicBlocks) > 1 {
						name := fmt.Sprintf("%s-w%d", obj.Record.UniqueName(), fn.StartWord)
						fcfg := cfg.ToLattice(obj.Linked, seg, fn, name)
						if err := output.WriteCFGDot(disasmOutDir, name, fcfg); err != nil {
							return err
						}
					}
				}
				recs = append(recs, rec)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return output.WriteFunctionsJSONL(disasmOutDir, recs)
}

package objdb

import (
	"strings"

	"goaldis/internal/function"
	"goaldis/internal/logging"
)

// TextSink receives rendered text outputs. The driver decides where they
// go; the pipeline never touches the file system.
type TextSink interface {
	WriteTextFile(name, contents string) error
}

// WriteObjectFileWords dumps every object's words with link annotations.
// When v3Only is set, data-only objects are skipped.
func (db *DB) WriteObjectFileWords(sink TextSink, v3Only bool) error {
	if v3Only {
		db.Log.Writeln(logging.Info, "- Writing object file dumps (v3 only)...")
	} else {
		db.Log.Writeln(logging.Info, "- Writing object file dumps (all)...")
	}

	totalBytes, totalFiles := 0, 0
	err := db.ForEachObj(func(obj *ObjectFileData) error {
		if obj.Linked.SegmentCount != 3 && v3Only {
			return nil
		}
		text := obj.Linked.PrintWords()
		totalBytes += len(text)
		totalFiles++
		return sink.WriteTextFile(obj.Record.UniqueName()+".txt", text)
	})
	if err != nil {
		return err
	}

	db.Log.Writeln(logging.Info, "Wrote object file dumps:")
	db.Log.Writeln(logging.Info, " total %d files", totalFiles)
	db.Log.Writeln(logging.Info, " total %.3f MB", float64(totalBytes)/(1<<20))
	db.Log.Writeln(logging.Info, "")
	return nil
}

// WriteDisassembly dumps disassembly for objects containing code. Data
// zones are dumped too.
func (db *DB) WriteDisassembly(sink TextSink, objectsWithoutFunctions bool) error {
	db.Log.Writeln(logging.Info, "- Writing functions...")

	totalBytes, totalFiles := 0, 0
	err := db.ForEachObj(func(obj *ObjectFileData) error {
		if !function.HasAnyFunctions(obj.FuncsBySeg) && !objectsWithoutFunctions {
			return nil
		}
		text := function.RenderDisassembly(obj.Linked, obj.FuncsBySeg, db.Config.WriteHexNearInstructions)
		totalBytes += len(text)
		totalFiles++
		return sink.WriteTextFile(obj.Record.UniqueName()+".func", text)
	})
	if err != nil {
		return err
	}

	db.Log.Writeln(logging.Info, "Wrote function dumps:")
	db.Log.Writeln(logging.Info, " total %d files", totalFiles)
	db.Log.Writeln(logging.Info, " total %.3f MB", float64(totalBytes)/(1<<20))
	db.Log.Writeln(logging.Info, "")
	return nil
}

// FindAndWriteScripts renders every static script table into a single
// all_scripts.lisp file. Doesn't change any state in the DB.
func (db *DB) FindAndWriteScripts(sink TextSink) error {
	db.Log.Writeln(logging.Info, "- Finding scripts in object files...")

	var all strings.Builder
	err := db.ForEachObj(func(obj *ObjectFileData) error {
		scripts := printScripts(obj.Linked)
		if scripts == "" {
			return nil
		}
		all.WriteString(";--------------------------------------\n")
		all.WriteString("; " + obj.Record.UniqueName() + "\n")
		all.WriteString(";---------------------------------------\n")
		all.WriteString(scripts)
		return nil
	})
	if err != nil {
		return err
	}

	if err := sink.WriteTextFile("all_scripts.lisp", all.String()); err != nil {
		return err
	}
	db.Log.Writeln(logging.Info, "Found scripts:")
	db.Log.Writeln(logging.Info, "")
	return nil
}

// Package objdb is a database of object files found in containers. It
// eliminates duplicate object files, assigns unique names (there may be
// different object files with the same name), and drives the analysis
// passes over every object.
package objdb

import (
	"fmt"
	"hash/crc32"

	"goaldis/internal/cfg"
	"goaldis/internal/config"
	"goaldis/internal/dgo"
	"goaldis/internal/function"
	"goaldis/internal/linked"
	"goaldis/internal/logging"
)

// crcTable is the IEEE CRC32 table, initialized once.
var crcTable = crc32.MakeTable(crc32.IEEE)

// Record identifies an object file by name, duplicate-version and content
// hash. (Name, Version) is globally unique.
type Record struct {
	Name    string
	Version int
	Hash    uint32
}

// UniqueName returns the name-vN form used for output files.
func (r Record) UniqueName() string {
	return fmt.Sprintf("%s-v%d", r.Name, r.Version)
}

// ObjectFileData is all of the data for a single object file.
type ObjectFileData struct {
	Data           []byte
	Record         Record
	ReferenceCount int

	Linked     *linked.File
	FuncsBySeg [][]*function.Function
	Cfgs       map[*function.Function]*cfg.CFG
}

// DB holds every deduplicated object file.
type DB struct {
	Config config.Config
	Log    logging.Sink

	// objFilesByName's value slices are insertion ordered; an object's
	// version is its index. Entries are never removed during a run.
	objFilesByName map[string][]*ObjectFileData
	objFilesByDgo  map[string][]Record
	dgoOrder       []string
	objFileOrder   []string

	Stats struct {
		TotalDgoBytes  int
		TotalObjFiles  int
		UniqueObjFiles int
		UniqueObjBytes int
	}
}

// New creates an empty DB.
func New(conf config.Config, log logging.Sink) *DB {
	return &DB{
		Config:         conf,
		Log:            log,
		objFilesByName: make(map[string][]*ObjectFileData),
		objFilesByDgo:  make(map[string][]Record),
	}
}

// AddDgo parses one container blob and adds its objects. baseName is the
// container's file base name.
func (db *DB) AddDgo(baseName string, data []byte) error {
	db.Stats.TotalDgoBytes += len(data)

	f, err := dgo.Parse(data, baseName)
	if err != nil {
		return err
	}
	if _, seen := db.objFilesByDgo[f.Name]; !seen {
		db.dgoOrder = append(db.dgoOrder, f.Name)
		db.objFilesByDgo[f.Name] = nil
	}
	for _, e := range f.Entries {
		db.addObjFromDgo(e.Name, e.Data, f.Name)
	}
	return nil
}

// addObjFromDgo stores one object blob, deduplicating by (size, hash)
// among entries sharing the same name.
func (db *DB) addObjFromDgo(objName string, objData []byte, dgoName string) {
	db.Stats.TotalObjFiles++

	hash := crc32.Checksum(objData, crcTable)

	for _, e := range db.objFilesByName[objName] {
		if len(e.Data) == len(objData) && e.Record.Hash == hash {
			// already got it
			e.ReferenceCount++
			db.objFilesByDgo[dgoName] = append(db.objFilesByDgo[dgoName], e.Record)
			return
		}
	}

	if len(db.objFilesByName[objName]) == 0 {
		db.objFileOrder = append(db.objFileOrder, objName)
	}
	data := &ObjectFileData{
		Data:           append([]byte(nil), objData...),
		ReferenceCount: 1,
		Record: Record{
			Name:    objName,
			Version: len(db.objFilesByName[objName]),
			Hash:    hash,
		},
	}
	db.objFilesByDgo[dgoName] = append(db.objFilesByDgo[dgoName], data.Record)
	db.objFilesByName[objName] = append(db.objFilesByName[objName], data)
	db.Stats.UniqueObjFiles++
	db.Stats.UniqueObjBytes += len(objData)
}

// ForEachObj visits every unique object in deterministic first-seen order.
func (db *DB) ForEachObj(fn func(obj *ObjectFileData) error) error {
	for _, name := range db.objFileOrder {
		for _, obj := range db.objFilesByName[name] {
			if err := fn(obj); err != nil {
				return err
			}
		}
	}
	return nil
}

// ForEachFunction visits every function of every object.
func (db *DB) ForEachFunction(visit func(fn *function.Function, seg int, obj *ObjectFileData) error) error {
	return db.ForEachObj(func(obj *ObjectFileData) error {
		for seg, segFuncs := range obj.FuncsBySeg {
			for _, fn := range segFuncs {
				if err := visit(fn, seg, obj); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Lookup returns the object stored under (name, version), or nil.
func (db *DB) Lookup(name string, version int) *ObjectFileData {
	entries := db.objFilesByName[name]
	if version < 0 || version >= len(entries) {
		return nil
	}
	return entries[version]
}

// DgoRecords returns the records listed under one container.
func (db *DB) DgoRecords(dgoName string) []Record {
	return db.objFilesByDgo[dgoName]
}

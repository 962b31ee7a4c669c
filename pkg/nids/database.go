package nids

import (
	"slices"

	"github.com/samber/lo"
)

// Function is a single named NID.
type Function struct {
	NID  NID    `json:"nid" yaml:"nid"`
	Name string `json:"name" yaml:"name"`
}

// Library groups the functions exported under one library NID.
type Library struct {
	NID       NID
	Name      string
	Functions map[NID]Function
}

// Module groups libraries.
type Module struct {
	NID       NID
	Name      string
	Libraries map[NID]*Library
}

// Stats counts what the builder kept. Modules, Libraries and Functions are
// the entries present in the finished database, so overwritten entries are
// not counted. Function collisions are counted only when an already present
// NID is overwritten with a different name; module and library NID collisions
// are counted on every overwrite.
type Stats struct {
	Modules              int `json:"modules" yaml:"modules"`
	Libraries            int `json:"libraries" yaml:"libraries"`
	Functions            int `json:"functions" yaml:"functions"`
	LibraryCollisions    int `json:"library_collisions" yaml:"library_collisions"`
	GlobalCollisions     int `json:"global_collisions" yaml:"global_collisions"`
	ModuleCollisions     int `json:"module_collisions" yaml:"module_collisions"`
	LibraryNIDCollisions int `json:"library_nid_collisions" yaml:"library_nid_collisions"`
	DegradedLibraries    int `json:"degraded_libraries" yaml:"degraded_libraries"`
}

// Database is the lookup structure produced by a Builder. It is not modified
// after Build returns.
type Database struct {
	Modules map[NID]*Module
	// AllFunctions spans every library regardless of module membership and is
	// the surface used for import resolution.
	AllFunctions map[NID]Function

	Stats Stats
}

func newDatabase() *Database {
	return &Database{
		Modules:      make(map[NID]*Module),
		AllFunctions: make(map[NID]Function),
	}
}

// Lookup finds a function by NID in the flattened index.
func (db *Database) Lookup(nid NID) (Function, bool) {
	fn, ok := db.AllFunctions[nid]
	return fn, ok
}

// ModuleNIDs returns the module keys in ascending order.
func (db *Database) ModuleNIDs() []NID {
	return sortedKeys(db.Modules)
}

// FunctionNIDs returns the keys of the flattened index in ascending order.
func (db *Database) FunctionNIDs() []NID {
	return sortedKeys(db.AllFunctions)
}

func (m *Module) LibraryNIDs() []NID {
	return sortedKeys(m.Libraries)
}

func (l *Library) FunctionNIDs() []NID {
	return sortedKeys(l.Functions)
}

func sortedKeys[V any](m map[NID]V) []NID {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

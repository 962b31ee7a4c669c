package symbolfmt

import (
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/grafana/vitanid/pkg/config"
	"github.com/grafana/vitanid/pkg/nids"
)

func WriteStats(w io.Writer, format string, s nids.Stats) error {
	if format != config.OutputConsole {
		return encode(w, format, s)
	}
	table := newTable(w, "Counter", "Value")
	for _, row := range []struct {
		name  string
		value int
	}{
		{"modules", s.Modules},
		{"libraries", s.Libraries},
		{"functions", s.Functions},
		{"library collisions", s.LibraryCollisions},
		{"global collisions", s.GlobalCollisions},
		{"module collisions", s.ModuleCollisions},
		{"library nid collisions", s.LibraryNIDCollisions},
		{"degraded libraries", s.DegradedLibraries},
	} {
		table.Append([]string{row.name, strconv.Itoa(row.value)})
	}
	table.Render()
	return nil
}

type lookupResult struct {
	NID   string `json:"nid" yaml:"nid"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Found bool   `json:"found" yaml:"found"`
}

// WriteLookup prints the function name of every NID, in the order given.
func WriteLookup(w io.Writer, format string, db *nids.Database, keys []nids.NID) error {
	results := make([]lookupResult, 0, len(keys))
	for _, nid := range keys {
		res := lookupResult{NID: nids.FormatNID(nid)}
		if fn, ok := db.Lookup(nid); ok {
			res.Name, res.Found = fn.Name, true
		}
		results = append(results, res)
	}
	if format != config.OutputConsole {
		return encode(w, format, results)
	}
	table := newTable(w, "NID", "Name")
	for _, res := range results {
		name := res.Name
		if !res.Found {
			name = "not found"
		}
		table.Append([]string{res.NID, name})
	}
	table.Render()
	return nil
}

// WriteDatabase dumps the module tree. The YAML form is a valid database
// document that can be loaded again.
func WriteDatabase(w io.Writer, format string, db *nids.Database) error {
	switch format {
	case config.OutputConsole:
		table := newTable(w, "Module", "Library", "NID", "Function")
		for _, mnid := range db.ModuleNIDs() {
			m := db.Modules[mnid]
			for _, lnid := range m.LibraryNIDs() {
				lib := m.Libraries[lnid]
				for _, fnid := range lib.FunctionNIDs() {
					table.Append([]string{m.Name, lib.Name, nids.FormatNID(fnid), lib.Functions[fnid].Name})
				}
			}
		}
		table.Render()
		return nil
	case config.OutputYAML:
		return encode(w, format, databaseNode(db))
	default:
		return encode(w, format, dumpModules(db))
	}
}

type dumpModule struct {
	Name      string        `json:"name"`
	NID       string        `json:"nid"`
	Libraries []dumpLibrary `json:"libraries"`
}

type dumpLibrary struct {
	Name      string          `json:"name"`
	NID       string          `json:"nid"`
	Functions []nids.Function `json:"functions"`
}

func dumpModules(db *nids.Database) []dumpModule {
	modules := make([]dumpModule, 0, len(db.Modules))
	for _, mnid := range db.ModuleNIDs() {
		m := db.Modules[mnid]
		dm := dumpModule{Name: m.Name, NID: nids.FormatNID(m.NID), Libraries: make([]dumpLibrary, 0, len(m.Libraries))}
		for _, lnid := range m.LibraryNIDs() {
			lib := m.Libraries[lnid]
			dl := dumpLibrary{Name: lib.Name, NID: nids.FormatNID(lib.NID), Functions: make([]nids.Function, 0, len(lib.Functions))}
			for _, fnid := range lib.FunctionNIDs() {
				dl.Functions = append(dl.Functions, lib.Functions[fnid])
			}
			dm.Libraries = append(dm.Libraries, dl)
		}
		modules = append(modules, dm)
	}
	return modules
}

// databaseNode builds the document tree by hand so that NIDs are written as
// plain 0x prefixed hex scalars.
func databaseNode(db *nids.Database) *yaml.Node {
	modules := mapping()
	for _, mnid := range db.ModuleNIDs() {
		m := db.Modules[mnid]
		libraries := mapping()
		for _, lnid := range m.LibraryNIDs() {
			lib := m.Libraries[lnid]
			functions := mapping()
			for _, fnid := range lib.FunctionNIDs() {
				appendPair(functions, lib.Functions[fnid].Name, nidNode(fnid))
			}
			library := mapping()
			appendPair(library, "nid", nidNode(lib.NID))
			appendPair(library, "functions", functions)
			appendPair(libraries, lib.Name, library)
		}
		module := mapping()
		appendPair(module, "nid", nidNode(m.NID))
		appendPair(module, "libraries", libraries)
		appendPair(modules, m.Name, module)
	}
	root := mapping()
	appendPair(root, "modules", modules)
	return root
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
}

func nidNode(nid nids.NID) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: nids.FormatNID(nid)}
}

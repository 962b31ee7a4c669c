package nids

import (
	"errors"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Builder turns a generic YAML node tree into a Database.
//
// The expected document is:
//
//	modules:
//	  SceLibKernel:
//	    nid: 0xCAE9ACE6
//	    libraries:
//	      SceLibKernel:
//	        nid: 0xCAE9ACE6
//	        functions:
//	          sceKernelGetThreadId: 0x0FB972F9
//
// Modules and libraries must be well formed or the whole build fails. A broken
// function list only degrades its own library.
type Builder struct {
	logger  log.Logger
	metrics *metrics
}

func NewBuilder(logger log.Logger, reg prometheus.Registerer) *Builder {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Builder{
		logger:  logger,
		metrics: newMetrics(reg),
	}
}

// Build walks root and returns the populated Database. The root may be a
// document node or the mapping it contains.
func (b *Builder) Build(root *yaml.Node) (*Database, error) {
	root = resolve(root)
	if root != nil && root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			root = nil
		} else {
			root = resolve(root.Content[0])
		}
	}
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, &StructureError{Path: "$", Reason: "nids db root node is not a mapping node"}
	}

	modules := resolve(lookup(root, "modules"))
	if modules == nil {
		return nil, &StructureError{Path: "modules", Reason: "no modules node in nids db"}
	}
	if modules.Kind != yaml.MappingNode {
		return nil, &StructureError{Path: "modules", Reason: "modules node is not a mapping node"}
	}

	db := newDatabase()
	err := eachPair(modules, func(name string, node *yaml.Node) error {
		m, err := b.buildModule(db, name, node)
		if err != nil {
			return err
		}
		b.addModule(db, m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	level.Debug(b.logger).Log(
		"msg", "nids db built",
		"modules", len(db.Modules),
		"functions", len(db.AllFunctions),
		"collisions", db.Stats.LibraryCollisions+db.Stats.GlobalCollisions+db.Stats.ModuleCollisions+db.Stats.LibraryNIDCollisions,
	)
	return db, nil
}

func (b *Builder) buildModule(db *Database, name string, node *yaml.Node) (*Module, error) {
	path := "modules." + name
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, &StructureError{Path: path, Reason: "module is not a mapping node"}
	}

	nid, err := ParseNID("nid", lookup(node, "nid"))
	if err != nil {
		return nil, &StructureError{Path: path + ".nid", Reason: "invalid module nid", Err: err}
	}

	libs := resolve(lookup(node, "libraries"))
	if libs == nil {
		return nil, &StructureError{Path: path + ".libraries", Reason: "no libraries node in module"}
	}
	if libs.Kind != yaml.MappingNode {
		return nil, &StructureError{Path: path + ".libraries", Reason: "libraries must be a mapping node"}
	}

	m := &Module{
		NID:       nid,
		Name:      name,
		Libraries: make(map[NID]*Library),
	}
	err = eachPair(libs, func(libName string, libNode *yaml.Node) error {
		lib, err := b.buildLibrary(db, path+".libraries."+libName, libName, libNode)
		if err != nil {
			return err
		}
		b.addLibrary(db, m, lib)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (b *Builder) buildLibrary(db *Database, path, name string, node *yaml.Node) (*Library, error) {
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, &StructureError{Path: path, Reason: "library node must be a mapping node"}
	}

	nid, err := ParseNID("nid", lookup(node, "nid"))
	if err != nil {
		return nil, &StructureError{Path: path + ".nid", Reason: "invalid library nid", Err: err}
	}

	lib := &Library{
		NID:       nid,
		Name:      name,
		Functions: make(map[NID]Function),
	}
	if err := b.addFunctions(db, lib, lookup(node, "functions")); err != nil {
		db.Stats.DegradedLibraries++
		b.metrics.degradedLibraries.Inc()
		level.Warn(b.logger).Log(
			"msg", "library function list partially loaded",
			"library", name,
			"loaded", len(lib.Functions),
			"err", err,
		)
	}
	return lib, nil
}

// addFunctions inserts functions into lib and the flattened index until the
// first malformed entry. Entries inserted before the error are kept.
func (b *Builder) addFunctions(db *Database, lib *Library, node *yaml.Node) error {
	node = resolve(node)
	if node == nil {
		return &FieldError{Library: lib.Name, Field: "functions", Err: errors.New("no functions in vita library")}
	}
	if node.Kind != yaml.MappingNode {
		return &FieldError{Library: lib.Name, Field: "functions", Err: errors.New("functions must be a mapping node")}
	}

	return eachPair(node, func(name string, value *yaml.Node) error {
		nid, err := ParseNID(name, value)
		if err != nil {
			return &FieldError{Library: lib.Name, Field: "functions", Err: err}
		}
		fn := Function{NID: nid, Name: name}

		b.addFunction(db, fn)

		if prev, ok := lib.Functions[nid]; ok && prev.Name != name {
			db.Stats.LibraryCollisions++
			b.metrics.collisions.WithLabelValues("library").Inc()
			level.Warn(b.logger).Log(
				"msg", "nid collision in library",
				"library", lib.Name,
				"nid", FormatNID(nid),
				"previous", prev.Name,
				"name", name,
			)
		}
		lib.Functions[nid] = fn
		return nil
	})
}

// addModule stores m, replacing a module registered under the same NID. The
// functions of the replaced module stay in the flattened index.
func (b *Builder) addModule(db *Database, m *Module) {
	level.Info(b.logger).Log("msg", "added module", "nid", FormatNID(m.NID), "name", m.Name)
	if prev, ok := db.Modules[m.NID]; ok {
		db.Stats.ModuleCollisions++
		b.metrics.collisions.WithLabelValues("module").Inc()
		level.Warn(b.logger).Log(
			"msg", "nid collision in modules",
			"nid", FormatNID(m.NID),
			"previous", prev.Name,
			"name", m.Name,
		)
		db.Stats.Libraries -= len(prev.Libraries)
	} else {
		db.Stats.Modules++
		b.metrics.modulesLoaded.Inc()
	}
	db.Modules[m.NID] = m
}

func (b *Builder) addLibrary(db *Database, m *Module, lib *Library) {
	if prev, ok := m.Libraries[lib.NID]; ok {
		db.Stats.LibraryNIDCollisions++
		b.metrics.collisions.WithLabelValues("library_nid").Inc()
		level.Warn(b.logger).Log(
			"msg", "nid collision in module libraries",
			"module", m.Name,
			"nid", FormatNID(lib.NID),
			"previous", prev.Name,
			"name", lib.Name,
		)
	} else {
		db.Stats.Libraries++
		b.metrics.librariesLoaded.Inc()
	}
	m.Libraries[lib.NID] = lib
}

func (b *Builder) addFunction(db *Database, fn Function) {
	level.Info(b.logger).Log("msg", "added function", "nid", FormatNID(fn.NID), "name", fn.Name)
	prev, ok := db.AllFunctions[fn.NID]
	switch {
	case !ok:
		db.Stats.Functions++
		b.metrics.functionsLoaded.Inc()
	case prev.Name != fn.Name:
		db.Stats.GlobalCollisions++
		b.metrics.collisions.WithLabelValues("global").Inc()
		level.Warn(b.logger).Log(
			"msg", "nid collision in function index",
			"nid", FormatNID(fn.NID),
			"previous", prev.Name,
			"name", fn.Name,
		)
	}
	db.AllFunctions[fn.NID] = fn
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// lookup returns the value stored under key in a mapping node. When a key is
// repeated the last occurrence wins.
func lookup(m *yaml.Node, key string) *yaml.Node {
	var found *yaml.Node
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := resolve(m.Content[i]); k != nil && k.Value == key {
			found = m.Content[i+1]
		}
	}
	return found
}

// eachPair calls fn for every key/value pair of a mapping node in document
// order and stops at the first error.
func eachPair(m *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	for i := 0; i+1 < len(m.Content); i += 2 {
		var key string
		if k := resolve(m.Content[i]); k != nil {
			key = k.Value
		}
		if err := fn(key, m.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

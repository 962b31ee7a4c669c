package symbolfmt

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/grafana/vitanid/pkg/config"
	"github.com/grafana/vitanid/pkg/image"
	"github.com/grafana/vitanid/pkg/nids"
)

const testDB = `
modules:
  SceLibKernel:
    nid: 0xCAE9ACE6
    libraries:
      SceLibKernel:
        nid: 0xCAE9ACE6
        functions:
          sceKernelFoo: 0xAAAA0001
          "0x10": 0xAAAA0003
      SceSysmem:
        nid: 0x37FE725A
        functions:
          sceKernelAllocMemBlock: 0xB9D5EBDE
  SceDisplay:
    nid: 0x5ED8F994
    libraries:
      SceDisplay:
        nid: 0x5ED8F994
        functions:
          sceDisplaySetFrameBuf: 0x7A410B64
`

func build(t *testing.T, doc []byte) *nids.Database {
	t.Helper()
	var root yaml.Node
	require.NoError(t, yaml.Unmarshal(doc, &root))
	db, err := nids.NewBuilder(nil, nil).Build(&root)
	require.NoError(t, err)
	return db
}

var testReport = Report{
	Path:  "eboot.bin",
	Base:  0x81000000,
	Entry: 0x10,
	Size:  1024,
	Symbols: []image.Symbol{
		{Kind: image.LibraryFunction, Name: "sceKernelFoo", Address: 0x1000},
		{Kind: image.LibraryFunction, Name: "unknown_2863267842", Address: 0x2000},
	},
}

func TestWriteReport_Console(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, config.OutputConsole, testReport))

	out := buf.String()
	assert.Contains(t, out, "eboot.bin: base 0x81000000, module info at +0x10, 1.0 kB mapped, 2 symbols\n")
	assert.Contains(t, out, "0x00001000")
	assert.Contains(t, out, "library-function")
	assert.Contains(t, out, "unknown_2863267842")
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, config.OutputJSON, testReport))
	assert.JSONEq(t, `{
		"path": "eboot.bin",
		"base": 2164260864,
		"entry": 16,
		"size": 1024,
		"symbols": [
			{"kind": "library-function", "name": "sceKernelFoo", "address": 4096},
			{"kind": "library-function", "name": "unknown_2863267842", "address": 8192}
		]
	}`, buf.String())
}

func TestWriteReport_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, config.OutputYAML, testReport))
	assert.YAMLEq(t, `
path: eboot.bin
base: 2164260864
entry: 16
size: 1024
symbols:
  - kind: library-function
    name: sceKernelFoo
    address: 4096
  - kind: library-function
    name: unknown_2863267842
    address: 8192
`, buf.String())
}

func TestWriteReport_UnsupportedOutput(t *testing.T) {
	require.EqualError(t, WriteReport(&bytes.Buffer{}, "xml", testReport), `unsupported output "xml"`)
}

func TestWriteStats(t *testing.T) {
	db := build(t, []byte(testDB))

	var buf bytes.Buffer
	require.NoError(t, WriteStats(&buf, config.OutputJSON, db.Stats))
	assert.JSONEq(t, `{
		"modules": 2,
		"libraries": 3,
		"functions": 4,
		"library_collisions": 0,
		"global_collisions": 0,
		"module_collisions": 0,
		"library_nid_collisions": 0,
		"degraded_libraries": 0
	}`, buf.String())

	buf.Reset()
	require.NoError(t, WriteStats(&buf, config.OutputConsole, db.Stats))
	assert.Contains(t, buf.String(), "degraded libraries")
}

func TestWriteLookup(t *testing.T) {
	db := build(t, []byte(testDB))
	keys := []nids.NID{0x7A410B64, 0xDEADBEEF}

	var buf bytes.Buffer
	require.NoError(t, WriteLookup(&buf, config.OutputYAML, db, keys))
	assert.YAMLEq(t, `
- nid: "0x7A410B64"
  name: sceDisplaySetFrameBuf
  found: true
- nid: "0xDEADBEEF"
  found: false
`, buf.String())

	buf.Reset()
	require.NoError(t, WriteLookup(&buf, config.OutputConsole, db, keys))
	assert.Contains(t, buf.String(), "sceDisplaySetFrameBuf")
	assert.Contains(t, buf.String(), "not found")
}

func TestWriteDatabase_YAMLLoadsBack(t *testing.T) {
	db := build(t, []byte(testDB))

	var buf bytes.Buffer
	require.NoError(t, WriteDatabase(&buf, config.OutputYAML, db))
	assert.Contains(t, buf.String(), "sceKernelFoo: 0xAAAA0001\n")

	reloaded := build(t, buf.Bytes())
	assert.Empty(t, cmp.Diff(db, reloaded))
}

func TestWriteDatabase_JSON(t *testing.T) {
	db := build(t, []byte(testDB))

	var buf bytes.Buffer
	require.NoError(t, WriteDatabase(&buf, config.OutputJSON, db))
	assert.JSONEq(t, `[
		{"name": "SceDisplay", "nid": "0x5ED8F994", "libraries": [
			{"name": "SceDisplay", "nid": "0x5ED8F994", "functions": [
				{"nid": 2051083108, "name": "sceDisplaySetFrameBuf"}
			]}
		]},
		{"name": "SceLibKernel", "nid": "0xCAE9ACE6", "libraries": [
			{"name": "SceSysmem", "nid": "0x37FE725A", "functions": [
				{"nid": 3117804510, "name": "sceKernelAllocMemBlock"}
			]},
			{"name": "SceLibKernel", "nid": "0xCAE9ACE6", "functions": [
				{"nid": 2863267841, "name": "sceKernelFoo"},
				{"nid": 2863267843, "name": "0x10"}
			]}
		]}
	]`, buf.String())
}

func TestWriteDatabase_Console(t *testing.T) {
	db := build(t, []byte(testDB))

	var buf bytes.Buffer
	require.NoError(t, WriteDatabase(&buf, config.OutputConsole, db))
	assert.Contains(t, buf.String(), "SceSysmem")
	assert.Contains(t, buf.String(), "0xB9D5EBDE")
}

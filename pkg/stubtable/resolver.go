// Package stubtable walks the import stub table of a loaded Vita executable
// and names every imported function using a nids database.
//
// The module info of the executable, located at the image entry point, stores
// the bounds of the import region. The region is a sequence of import records,
// each one carrying its own size, the number of imported functions and two
// parallel tables: the function NIDs and the addresses of their stubs.
package stubtable

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/vitanid/pkg/image"
	"github.com/grafana/vitanid/pkg/nids"
)

const (
	opReadBounds      = "read import bounds"
	opReadRecord      = "read import record"
	opReadLibraryName = "read library name"
	opReadNID         = "read function nid"
	opReadAddress     = "read function address"

	maxLibraryNameLen = 255
)

// Image is the loaded executable. Addresses are absolute.
type Image interface {
	BaseAddress() uint64
	// EntryPoint is relative to BaseAddress.
	EntryPoint() uint64
	Read(dst []byte, addr uint64) error
	ReadBytes(addr uint64, n int) ([]byte, error)
	DefineSymbol(kind image.SymbolKind, name string, addr uint64)
}

// Import is one function slot of an import record.
type Import struct {
	Library  string
	Record   Record
	Slot     int
	NID      nids.NID
	Address  uint64
	Name     string
	Resolved bool
}

type Resolver struct {
	logger  log.Logger
	metrics *metrics
}

func New(logger log.Logger, reg prometheus.Registerer) *Resolver {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Resolver{
		logger:  logger,
		metrics: newMetrics(reg),
	}
}

// ResolveImports defines a library function symbol for every imported function
// of img. NIDs missing from db get a placeholder name. An unreadable library
// name only costs the placeholder its library prefix. Any other read failure
// aborts the walk; symbols defined before the failure are kept.
func (r *Resolver) ResolveImports(img Image, db *nids.Database) error {
	return r.Walk(img, db, func(imp Import) error {
		img.DefineSymbol(image.LibraryFunction, imp.Name, imp.Address)
		return nil
	})
}

// Walk decodes the stub table of img and calls fn for every imported function
// in table order. An error returned by fn stops the walk and is returned as is.
func (r *Resolver) Walk(img Image, db *nids.Database, fn func(Import) error) error {
	if db == nil {
		return errors.New("nil nids database")
	}
	err := r.walk(img, db, fn)
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		r.metrics.walkErrors.WithLabelValues(resolveErr.Op).Inc()
	}
	return err
}

func (r *Resolver) walk(img Image, db *nids.Database, fn func(Import) error) error {
	base := img.BaseAddress()
	boundsAddr := base + img.EntryPoint() + importBoundsOffset

	buf := make([]byte, RecordSize)
	if err := img.Read(buf[:boundsSize], boundsAddr); err != nil {
		return &ResolveError{Op: opReadBounds, Addr: boundsAddr, Err: err}
	}
	b, err := decodeBounds(buf[:boundsSize])
	if err != nil {
		return &ResolveError{Op: opReadBounds, Addr: boundsAddr, Err: err}
	}
	start, end := base+uint64(b.start), base+uint64(b.end)
	if end < start {
		return &ResolveError{
			Op:   opReadBounds,
			Addr: boundsAddr,
			Err:  fmt.Errorf("import end 0x%x precedes start 0x%x", end, start),
		}
	}

	level.Debug(r.logger).Log("msg", "walking stub table", "start", hexAddr(start), "end", hexAddr(end))
	if start == end {
		return nil
	}

	// The boundary check happens after a record is processed, so the record
	// reaching or crossing end is still walked.
	for cursor := start; ; {
		if err := img.Read(buf, cursor); err != nil {
			return &ResolveError{Op: opReadRecord, Addr: cursor, Err: err}
		}
		rec, err := DecodeRecord(buf)
		if err != nil {
			return &ResolveError{Op: opReadRecord, Addr: cursor, Err: err}
		}
		if rec.Size == 0 {
			return &ResolveError{Op: opReadRecord, Addr: cursor, Err: errors.New("record size is zero")}
		}

		if err := r.walkRecord(img, db, rec, fn); err != nil {
			return err
		}
		r.metrics.recordsWalked.Inc()

		cursor += uint64(rec.Size)
		if cursor >= end {
			return nil
		}
	}
}

func (r *Resolver) walkRecord(img Image, db *nids.Database, rec Record, fn func(Import) error) error {
	base := img.BaseAddress()
	library, err := readLibraryName(img, rec)
	if err != nil {
		// Fallback names use the generic prefix instead.
		level.Warn(r.logger).Log("msg", "failed to read library name", "library_nid", nids.FormatNID(rec.LibraryNID), "err", err)
		library = ""
	}

	nidTable := base + uint64(rec.FuncNIDTable)
	funcTable := base + uint64(rec.FuncTable)
	for i := 0; i < int(rec.FuncCount); i++ {
		off := uint64(i) * nidSize
		nid, err := readWord(img, nidTable+off, opReadNID)
		if err != nil {
			return err
		}
		addr, err := readWord(img, funcTable+off, opReadAddress)
		if err != nil {
			return err
		}

		imp := Import{
			Library: library,
			Record:  rec,
			Slot:    i,
			NID:     nid,
			Address: uint64(addr),
		}
		if f, ok := db.Lookup(nid); ok {
			imp.Name = f.Name
			imp.Resolved = true
			r.metrics.imports.WithLabelValues(statusResolved).Inc()
		} else {
			imp.Name = fallbackName(library, nid)
			r.metrics.imports.WithLabelValues(statusFallback).Inc()
		}

		level.Info(r.logger).Log(
			"msg", "resolved import",
			"library", library,
			"nid", nids.FormatNID(nid),
			"name", imp.Name,
			"addr", hexAddr(imp.Address),
			"resolved", imp.Resolved,
		)
		if err := fn(imp); err != nil {
			return err
		}
	}
	return nil
}

func readWord(img Image, addr uint64, op string) (uint32, error) {
	b, err := img.ReadBytes(addr, nidSize)
	if err != nil {
		return 0, &ResolveError{Op: op, Addr: addr, Err: err}
	}
	if len(b) < nidSize {
		return 0, &ResolveError{Op: op, Addr: addr, Err: fmt.Errorf("short read: %d bytes", len(b))}
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readLibraryName reads the NUL terminated library name of rec. Records
// without a name offset yield an empty name.
func readLibraryName(img Image, rec Record) (string, error) {
	if rec.LibraryName == 0 {
		return "", nil
	}
	addr := img.BaseAddress() + uint64(rec.LibraryName)
	name := make([]byte, 0, 32)
	for i := uint64(0); i < maxLibraryNameLen; i++ {
		b, err := img.ReadBytes(addr+i, 1)
		if err != nil {
			return "", &ResolveError{Op: opReadLibraryName, Addr: addr, Err: err}
		}
		if len(b) == 0 || b[0] == 0 {
			break
		}
		name = append(name, b[0])
	}
	return string(name), nil
}

// fallbackName names an import whose NID is not in the database. The decimal
// NID keeps every name unique within a library.
func fallbackName(library string, nid nids.NID) string {
	prefix := "unknown"
	if library != "" {
		prefix = library
	}
	return fmt.Sprintf("%s_%d", prefix, nid)
}

func hexAddr(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

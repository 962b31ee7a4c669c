package stubtable

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Layout constants of the Vita module info and import records.
const (
	// Offset of the import table bounds (import_top, import_end) inside the
	// module info.
	importBoundsOffset = 44
	boundsSize         = 8

	// RecordSize is the number of bytes read for every import record. The
	// walk advances by the size stored in the record itself.
	RecordSize = 0x34

	nidSize = 4
)

// Record is one import descriptor of the stub table: the functions, variables
// and TLS variables a module imports from one library. Table fields are
// offsets relative to the image base address.
type Record struct {
	Size      uint8
	Version   uint16
	Attribute uint16
	FuncCount uint16
	VarCount  uint16
	TLSCount  uint16

	LibraryNID   uint32
	LibraryName  uint32
	SDKVersion   uint32
	FuncNIDTable uint32
	FuncTable    uint32
	VarNIDTable  uint32
	VarTable     uint32
	TLSNIDTable  uint32
	TLSTable     uint32
}

// DecodeRecord reads a Record from the first RecordSize bytes of b.
func DecodeRecord(b []byte) (Record, error) {
	if len(b) < RecordSize {
		return Record{}, fmt.Errorf("import record: got %d bytes, want %d: %w", len(b), RecordSize, io.ErrUnexpectedEOF)
	}
	le := binary.LittleEndian
	return Record{
		Size: b[0x00],
		// 0x01 is reserved
		Version:   le.Uint16(b[0x02:]),
		Attribute: le.Uint16(b[0x04:]),
		FuncCount: le.Uint16(b[0x06:]),
		VarCount:  le.Uint16(b[0x08:]),
		TLSCount:  le.Uint16(b[0x0A:]),
		// 0x0C is reserved
		LibraryNID:   le.Uint32(b[0x10:]),
		LibraryName:  le.Uint32(b[0x14:]),
		SDKVersion:   le.Uint32(b[0x18:]),
		FuncNIDTable: le.Uint32(b[0x1C:]),
		FuncTable:    le.Uint32(b[0x20:]),
		VarNIDTable:  le.Uint32(b[0x24:]),
		VarTable:     le.Uint32(b[0x28:]),
		TLSNIDTable:  le.Uint32(b[0x2C:]),
		TLSTable:     le.Uint32(b[0x30:]),
	}, nil
}

// Encode writes r in the on-disk layout. Reserved bytes are zero.
func (r Record) Encode() []byte {
	le := binary.LittleEndian
	b := make([]byte, RecordSize)
	b[0x00] = r.Size
	le.PutUint16(b[0x02:], r.Version)
	le.PutUint16(b[0x04:], r.Attribute)
	le.PutUint16(b[0x06:], r.FuncCount)
	le.PutUint16(b[0x08:], r.VarCount)
	le.PutUint16(b[0x0A:], r.TLSCount)
	le.PutUint32(b[0x10:], r.LibraryNID)
	le.PutUint32(b[0x14:], r.LibraryName)
	le.PutUint32(b[0x18:], r.SDKVersion)
	le.PutUint32(b[0x1C:], r.FuncNIDTable)
	le.PutUint32(b[0x20:], r.FuncTable)
	le.PutUint32(b[0x24:], r.VarNIDTable)
	le.PutUint32(b[0x28:], r.VarTable)
	le.PutUint32(b[0x2C:], r.TLSNIDTable)
	le.PutUint32(b[0x30:], r.TLSTable)
	return b
}

// bounds is the import region as offsets relative to the image base.
type bounds struct {
	start, end uint32
}

func decodeBounds(b []byte) (bounds, error) {
	if len(b) < boundsSize {
		return bounds{}, fmt.Errorf("import bounds: got %d bytes, want %d: %w", len(b), boundsSize, io.ErrUnexpectedEOF)
	}
	return bounds{
		start: binary.LittleEndian.Uint32(b[0:]),
		end:   binary.LittleEndian.Uint32(b[4:]),
	}, nil
}

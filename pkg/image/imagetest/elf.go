// Package imagetest builds minimal 32-bit little-endian ARM ELF files for
// tests.
package imagetest

import (
	"encoding/binary"
)

const (
	ehdrSize = 52
	phdrSize = 32

	ptLoad    = 1
	emARM     = 40
	etSceExec = 0xFE00
)

type Segment struct {
	Vaddr uint32
	Data  []byte
	// Memsz defaults to len(Data) when smaller.
	Memsz uint32
}

// BuildELF lays out an ELF header, one PT_LOAD program header per segment and
// the segment contents. entry is written verbatim to e_entry.
func BuildELF(entry uint32, segments ...Segment) []byte {
	le := binary.LittleEndian
	phoff := uint32(ehdrSize)
	dataOff := phoff + uint32(len(segments))*phdrSize

	buf := make([]byte, dataOff)
	copy(buf, []byte{0x7f, 'E', 'L', 'F', 1, 1, 1})
	le.PutUint16(buf[16:], etSceExec)
	le.PutUint16(buf[18:], emARM)
	le.PutUint32(buf[20:], 1)
	le.PutUint32(buf[24:], entry)
	le.PutUint32(buf[28:], phoff)
	le.PutUint16(buf[40:], ehdrSize)
	le.PutUint16(buf[42:], phdrSize)
	le.PutUint16(buf[44:], uint16(len(segments)))
	le.PutUint16(buf[46:], 40)

	for i, s := range segments {
		memsz := max(s.Memsz, uint32(len(s.Data)))
		ph := buf[phoff+uint32(i)*phdrSize:]
		le.PutUint32(ph[0:], ptLoad)
		le.PutUint32(ph[4:], uint32(len(buf)))
		le.PutUint32(ph[8:], s.Vaddr)
		le.PutUint32(ph[12:], s.Vaddr)
		le.PutUint32(ph[16:], uint32(len(s.Data)))
		le.PutUint32(ph[20:], memsz)
		le.PutUint32(ph[24:], 5)
		le.PutUint32(ph[28:], 0x10)
		buf = append(buf, s.Data...)
	}
	return buf
}

package image

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/spf13/afero"

	"github.com/grafana/vitanid/pkg/fileutil"
)

// The ELF entry field of a Vita executable locates the module info rather than
// code: the top two bits select the program header, the rest is the offset
// inside that segment.
const (
	moduleInfoSegmentShift = 30
	moduleInfoOffsetMask   = 1<<moduleInfoSegmentShift - 1
)

// maxSegmentSize bounds the memory size of a single segment. It is half the
// address space available to a Vita application.
const maxSegmentSize = 256 << 20

// Open reads a (possibly compressed) Vita ELF from fs and maps it.
func Open(fs afero.Fs, path string) (*Memory, error) {
	data, err := fileutil.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	m, err := LoadELF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return m, nil
}

// LoadELF maps every PT_LOAD segment of a Vita ELF. The base address is the
// lowest segment address and the entry point is the module info location
// relative to it. Segment contents past the file size are zero filled.
func LoadELF(r io.ReaderAt) (*Memory, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	defer f.Close()

	var loads []*elf.Prog
	for _, p := range f.Progs {
		if p.Type == elf.PT_LOAD {
			loads = append(loads, p)
		}
	}
	if len(loads) == 0 {
		return nil, errors.New("no loadable segments")
	}

	base := loads[0].Vaddr
	for _, p := range loads[1:] {
		base = min(base, p.Vaddr)
	}

	idx := f.Entry >> moduleInfoSegmentShift
	off := f.Entry & moduleInfoOffsetMask
	if idx >= uint64(len(f.Progs)) {
		return nil, fmt.Errorf("module info segment %d out of range (%d program headers)", idx, len(f.Progs))
	}
	seg := f.Progs[idx]
	if seg.Type != elf.PT_LOAD || off >= seg.Memsz {
		return nil, fmt.Errorf("module info offset 0x%x is outside of segment %d", off, idx)
	}

	m := NewMemory(base, seg.Vaddr+off-base)
	for i, p := range loads {
		if p.Filesz > p.Memsz {
			return nil, fmt.Errorf("segment %d: file size 0x%x exceeds memory size 0x%x", i, p.Filesz, p.Memsz)
		}
		if p.Memsz > maxSegmentSize {
			return nil, fmt.Errorf("segment %d: memory size 0x%x exceeds the 0x%x limit", i, p.Memsz, maxSegmentSize)
		}
		memsz, err := safecast.Conv[int](p.Memsz)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		filesz, err := safecast.Conv[int](p.Filesz)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}

		data := make([]byte, memsz)
		if _, err := io.ReadFull(p.Open(), data[:filesz]); err != nil {
			return nil, fmt.Errorf("segment %d: read: %w", i, err)
		}
		if err := m.Map(p.Vaddr, data); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Package image provides an in-memory view of a loaded executable: a set of
// mapped segments addressed by virtual address, and a registry of symbols
// defined on it.
package image

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"fortio.org/safecast"
)

var ErrUnmapped = errors.New("address range is not mapped")

type segment struct {
	addr uint64
	data []byte
}

func (s segment) end() uint64 { return s.addr + uint64(len(s.data)) }

// Memory is a byte-addressable image. It is not safe for concurrent use.
type Memory struct {
	base  uint64
	entry uint64

	segments []segment
	symbols  map[uint64]Symbol
}

// NewMemory returns an empty image. entry is relative to base.
func NewMemory(base, entry uint64) *Memory {
	return &Memory{
		base:    base,
		entry:   entry,
		symbols: make(map[uint64]Symbol),
	}
}

func (m *Memory) BaseAddress() uint64 { return m.base }

func (m *Memory) EntryPoint() uint64 { return m.entry }

// Map makes data readable at addr. Segments must not overlap.
func (m *Memory) Map(addr uint64, data []byte) error {
	s := segment{addr: addr, data: data}
	if s.end() < addr {
		return fmt.Errorf("segment at 0x%x overflows the address space", addr)
	}
	for _, other := range m.segments {
		if addr < other.end() && other.addr < s.end() {
			return fmt.Errorf("segment [0x%x, 0x%x) overlaps [0x%x, 0x%x)", addr, s.end(), other.addr, other.end())
		}
	}
	m.segments = append(m.segments, s)
	slices.SortFunc(m.segments, func(a, b segment) int {
		switch {
		case a.addr < b.addr:
			return -1
		case a.addr > b.addr:
			return 1
		}
		return 0
	})
	return nil
}

// Size is the total number of mapped bytes.
func (m *Memory) Size() uint64 {
	var n uint64
	for _, s := range m.segments {
		n += uint64(len(s.data))
	}
	return n
}

// Read fills dst with the bytes at addr. The whole range must lie inside a
// single segment.
func (m *Memory) Read(dst []byte, addr uint64) error {
	src, err := m.slice(addr, len(dst))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// ReadBytes returns a copy of n bytes at addr.
func (m *Memory) ReadBytes(addr uint64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d", n)
	}
	dst := make([]byte, n)
	if err := m.Read(dst, addr); err != nil {
		return nil, err
	}
	return dst, nil
}

func (m *Memory) slice(addr uint64, n int) ([]byte, error) {
	length, err := safecast.Conv[uint64](n)
	if err != nil {
		return nil, fmt.Errorf("read of %d bytes at 0x%x: %w", n, addr, err)
	}
	i := sort.Search(len(m.segments), func(i int) bool {
		return m.segments[i].end() > addr
	})
	if i == len(m.segments) {
		return nil, fmt.Errorf("read of %d bytes at 0x%x: %w", n, addr, ErrUnmapped)
	}
	s := m.segments[i]
	if addr < s.addr || addr+length < addr || addr+length > s.end() {
		return nil, fmt.Errorf("read of %d bytes at 0x%x: %w", n, addr, ErrUnmapped)
	}
	off, err := safecast.Conv[int](addr - s.addr)
	if err != nil {
		return nil, fmt.Errorf("read of %d bytes at 0x%x: %w", n, addr, err)
	}
	return s.data[off : off+n], nil
}

// DefineSymbol records a symbol at addr, replacing any symbol already defined
// there.
func (m *Memory) DefineSymbol(kind SymbolKind, name string, addr uint64) {
	m.symbols[addr] = Symbol{Kind: kind, Name: name, Address: addr}
}

// Lookup returns the symbol defined at addr.
func (m *Memory) Lookup(addr uint64) (Symbol, bool) {
	s, ok := m.symbols[addr]
	return s, ok
}

// Symbols returns every defined symbol ordered by address.
func (m *Memory) Symbols() []Symbol {
	res := make([]Symbol, 0, len(m.symbols))
	for _, s := range m.symbols {
		res = append(res, s)
	}
	slices.SortFunc(res, func(a, b Symbol) int {
		switch {
		case a.Address < b.Address:
			return -1
		case a.Address > b.Address:
			return 1
		}
		return 0
	})
	return res
}

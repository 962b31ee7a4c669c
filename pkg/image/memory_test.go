package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Read(t *testing.T) {
	m := NewMemory(0x81000000, 0x40)
	require.NoError(t, m.Map(0x81000000, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	require.NoError(t, m.Map(0x81010000, []byte{9, 10}))

	assert.Equal(t, uint64(0x81000000), m.BaseAddress())
	assert.Equal(t, uint64(0x40), m.EntryPoint())
	assert.Equal(t, uint64(10), m.Size())

	dst := make([]byte, 4)
	require.NoError(t, m.Read(dst, 0x81000004))
	assert.Equal(t, []byte{5, 6, 7, 8}, dst)

	b, err := m.ReadBytes(0x81010000, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 10}, b)

	// ReadBytes returns a copy.
	b[0] = 0xff
	b, err = m.ReadBytes(0x81010000, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, b)
}

func TestMemory_ReadUnmapped(t *testing.T) {
	m := NewMemory(0x1000, 0)
	require.NoError(t, m.Map(0x1000, make([]byte, 0x10)))
	require.NoError(t, m.Map(0x1010, make([]byte, 0x10)))

	tests := []struct {
		name string
		addr uint64
		n    int
	}{
		{name: "before first segment", addr: 0x0ffc, n: 4},
		{name: "after last segment", addr: 0x1020, n: 1},
		{name: "crossing segments", addr: 0x100e, n: 4},
		{name: "overflowing address", addr: ^uint64(0) - 1, n: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ReadBytes(tt.addr, tt.n)
			require.ErrorIs(t, err, ErrUnmapped)
		})
	}

	_, err := m.ReadBytes(0x1000, -1)
	require.Error(t, err)
}

func TestMemory_MapOverlap(t *testing.T) {
	m := NewMemory(0x1000, 0)
	require.NoError(t, m.Map(0x1000, make([]byte, 0x10)))
	require.Error(t, m.Map(0x100f, make([]byte, 2)))
	require.Error(t, m.Map(0x0ff0, make([]byte, 0x20)))
	require.NoError(t, m.Map(0x0ff0, make([]byte, 0x10)))
}

func TestMemory_Symbols(t *testing.T) {
	m := NewMemory(0, 0)
	m.DefineSymbol(LibraryFunction, "sceKernelFoo", 0x2000)
	m.DefineSymbol(Function, "main", 0x1000)
	m.DefineSymbol(LibraryFunction, "sceKernelBar", 0x2000)

	assert.Equal(t, []Symbol{
		{Kind: Function, Name: "main", Address: 0x1000},
		{Kind: LibraryFunction, Name: "sceKernelBar", Address: 0x2000},
	}, m.Symbols())

	s, ok := m.Lookup(0x2000)
	require.True(t, ok)
	assert.Equal(t, "library-function", s.Kind.String())
	_, ok = m.Lookup(0x3000)
	assert.False(t, ok)
}

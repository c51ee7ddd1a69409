package spacemap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/gcdkit/pkg/types"
)

const (
	// capsRW is a typical DRAM capability set: cacheable, protectable.
	capsRW = types.AttrWB | types.AttrWT | types.AttrXP | types.AttrRP

	h1 types.Handle = 0x11
	h2 types.Handle = 0x22
)

// memEntry is shorthand for building expected entries in tests.
type memEntry = Entry[types.MemoryType]

// newMemoryMap creates a memory-typed map of the given width.
func newMemoryMap(t testing.TB, bits uint) *Map[types.MemoryType] {
	t.Helper()
	m, err := New(Config[types.MemoryType]{
		Name:        "memory",
		AddressBits: bits,
		NonExistent: types.MemoryNonExistent,
	})
	require.NoError(t, err)
	return m
}

// newOneMegMap returns a 32-bit map with SystemMemory at [0x100000, 0x10FFFF].
func newOneMegMap(t testing.TB) *Map[types.MemoryType] {
	t.Helper()
	m := newMemoryMap(t, 32)
	require.NoError(t, m.Add(types.MemorySystemMemory, 0x100000, 0x10000, capsRW))
	requireValid(t, m)
	return m
}

// requireValid fails the test if any map invariant is broken.
func requireValid[T comparable](t testing.TB, m *Map[T]) {
	t.Helper()
	require.NoError(t, m.Validate())
}

// requireUnchanged runs fn, which must fail, and checks the map did not move.
func requireUnchanged[T comparable](t testing.TB, m *Map[T], fn func() error) error {
	t.Helper()
	before := m.Snapshot()
	liveBefore := m.Len()
	err := fn()
	require.Error(t, err)
	require.Equal(t, before, m.Snapshot(), "failed operation mutated the map")
	require.Equal(t, liveBefore, m.Len(), "failed operation leaked arena slots")
	requireValid(t, m)
	return err
}

// span builds an entry with only range and type set.
func span(base, end uint64, mt types.MemoryType) memEntry {
	return memEntry{BaseAddress: base, EndAddress: end, Type: mt}
}

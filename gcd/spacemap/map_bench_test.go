package spacemap

import (
	"testing"

	"github.com/joshuapare/gcdkit/pkg/types"
)

// newFragmentedMap returns a 32-bit map with n alternating SystemMemory and
// Reserved page-sized entries starting at 1MB.
func newFragmentedMap(b *testing.B, n int) *Map[types.MemoryType] {
	b.Helper()
	m := newMemoryMap(b, 32)
	for i := range n {
		t := types.MemorySystemMemory
		if i%2 == 1 {
			t = types.MemoryReserved
		}
		if err := m.Add(t, 0x100000+uint64(i)*types.PageSize, types.PageSize, capsRW); err != nil {
			b.Fatal(err)
		}
	}
	return m
}

// BenchmarkAllocateFree measures an allocate/free pair on a fragmented map.
func BenchmarkAllocateFree(b *testing.B) {
	m := newFragmentedMap(b, 256)
	req := pages(types.AllocateAnySearchTopDown, 1, 0)

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		base, err := m.Allocate(req)
		if err != nil {
			b.Fatal(err)
		}
		if err := m.Free(base, types.PageSize); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSetAttributes measures a split-and-remerge attribute round trip.
func BenchmarkSetAttributes(b *testing.B) {
	m := newMemoryMap(b, 32)
	if err := m.Add(types.MemorySystemMemory, 0x100000, 0x100000, capsRW); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		if err := m.SetAttributes(0x180000, 0x1000, types.AttrWB, nil); err != nil {
			b.Fatal(err)
		}
		if err := m.SetAttributes(0x180000, 0x1000, 0, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDescriptor measures a lookup near the top of a fragmented map.
func BenchmarkDescriptor(b *testing.B) {
	m := newFragmentedMap(b, 256)
	addr := 0x100000 + 255*uint64(types.PageSize)

	b.ResetTimer()

	for range b.N {
		if _, err := m.Descriptor(addr); err != nil {
			b.Fatal(err)
		}
	}
}

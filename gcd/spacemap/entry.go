package spacemap

import (
	"fmt"
	"sync"

	"github.com/joshuapare/gcdkit/internal/align"
	"github.com/joshuapare/gcdkit/pkg/types"
)

const (
	// head is the arena index of the list sentinel.
	head int32 = 0

	// MaxAddressBits bounds the width of a space so every entry length fits in 64 bits.
	MaxAddressBits = 63
)

// Entry is a value copy of one map entry.
type Entry[T comparable] struct {
	BaseAddress  uint64
	EndAddress   uint64
	Type         T
	Capabilities types.Attribute
	Attributes   types.Attribute
	ImageHandle  types.Handle
	DeviceHandle types.Handle
}

// Length returns the number of addresses covered by the entry.
func (e Entry[T]) Length() uint64 { return e.EndAddress - e.BaseAddress + 1 }

// Owned reports whether the entry has been allocated.
func (e Entry[T]) Owned() bool { return e.ImageHandle != types.NullHandle }

// sameDescription reports whether two entries differ only in their range.
func (e Entry[T]) sameDescription(o Entry[T]) bool {
	return e.Type == o.Type &&
		e.Capabilities == o.Capabilities &&
		e.Attributes == o.Attributes &&
		e.ImageHandle == o.ImageHandle &&
		e.DeviceHandle == o.DeviceHandle
}

// node is an arena slot.
type node[T comparable] struct {
	Entry[T]
	prev, next int32
	gen        uint32 // bumped on every release
	live       bool
}

// handle names an arena slot at a specific generation.
type handle struct {
	idx int32
	gen uint32
}

// Config describes a map at construction.
type Config[T comparable] struct {
	// Name labels the space in error messages ("memory", "io").
	Name string

	// AddressBits is the width N of the space: addresses run 0..2^N-1.
	AddressBits uint

	// NonExistent is the type tag of a range nobody has added.
	NonExistent T

	// MaxEntries caps the number of arena nodes, scratch included.
	// 0 means unlimited.
	MaxEntries int
}

// Stats holds operation counters for testing and instrumentation.
type Stats struct {
	Entries         int // Entries currently linked
	Adds            int // Successful Add calls
	Allocations     int // Successful Allocate calls
	Frees           int // Successful Free calls
	Removes         int // Successful Remove calls
	AttributeSets   int // Successful SetAttributes calls
	CapabilitySets  int // Successful SetCapabilities calls
	Splits          int // Entries created by splitting
	MergesForward   int // Successor entries absorbed
	MergesBackward  int // Predecessor entries absorbed
	ScratchReleased int // Reserved scratch nodes returned unused
}

// Map is one address space: a sorted, gapless partition of [0, 2^N-1].
type Map[T comparable] struct {
	mu sync.Mutex

	name        string
	bits        uint
	maxAddr     uint64
	nonExistent T
	maxEntries  int

	nodes []node[T] // nodes[0] is the list head
	free  []int32   // released slots, reused LIFO
	live  int       // slots in use, head excluded

	stats Stats
}

// New creates a map holding a single non-existent entry spanning the space.
func New[T comparable](cfg Config[T]) (*Map[T], error) {
	if cfg.AddressBits == 0 || cfg.AddressBits > MaxAddressBits {
		return nil, types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("spacemap: address width %d out of range 1..%d", cfg.AddressBits, MaxAddressBits), nil)
	}
	if cfg.MaxEntries < 0 {
		return nil, types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("spacemap: negative entry cap %d", cfg.MaxEntries), nil)
	}
	name := cfg.Name
	if name == "" {
		name = "space"
	}

	m := &Map[T]{
		name:        name,
		bits:        cfg.AddressBits,
		maxAddr:     align.Mask(cfg.AddressBits),
		nonExistent: cfg.NonExistent,
		maxEntries:  cfg.MaxEntries,
		nodes:       make([]node[T], 2, 64),
	}

	m.nodes[head] = node[T]{prev: 1, next: 1}
	m.nodes[1] = node[T]{
		Entry: Entry[T]{
			BaseAddress: 0,
			EndAddress:  m.maxAddr,
			Type:        cfg.NonExistent,
		},
		prev: head,
		next: head,
		live: true,
	}
	m.live = 1
	return m, nil
}

// Name returns the label given at construction.
func (m *Map[T]) Name() string { return m.name }

// AddressBits returns the width N of the space.
func (m *Map[T]) AddressBits() uint { return m.bits }

// MaxAddress returns 2^N-1, the last address of the space.
func (m *Map[T]) MaxAddress() uint64 { return m.maxAddr }

// Stats returns a copy of the operation counters.
func (m *Map[T]) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Entries = m.live
	return s
}

// -----------------------------------------------------------------------------
// Arena
// -----------------------------------------------------------------------------

// alloc takes a slot from the free stack or grows the arena.
// It fails only when MaxEntries is reached.
func (m *Map[T]) alloc() (handle, bool) {
	if m.maxEntries > 0 && m.live >= m.maxEntries {
		return handle{}, false
	}
	if n := len(m.free); n > 0 {
		idx := m.free[n-1]
		m.free = m.free[:n-1]
		m.nodes[idx].live = true
		m.live++
		return handle{idx: idx, gen: m.nodes[idx].gen}, true
	}
	m.nodes = append(m.nodes, node[T]{live: true})
	m.live++
	return handle{idx: int32(len(m.nodes) - 1)}, true
}

// release returns a slot to the free stack. The slot must already be unlinked.
func (m *Map[T]) release(h handle) {
	n := m.node(h)
	*n = node[T]{gen: h.gen + 1}
	m.free = append(m.free, h.idx)
	m.live--
}

// node resolves a handle, panicking if it is stale.
func (m *Map[T]) node(h handle) *node[T] {
	if h.idx <= head || int(h.idx) >= len(m.nodes) {
		panic(fmt.Errorf("%w: index %d", errStaleHandle, h.idx))
	}
	n := &m.nodes[h.idx]
	if !n.live || n.gen != h.gen {
		panic(fmt.Errorf("%w: index %d gen %d (slot gen %d, live %v)", errStaleHandle, h.idx, h.gen, n.gen, n.live))
	}
	return n
}

// handleOf returns the current handle of a linked slot.
func (m *Map[T]) handleOf(idx int32) handle {
	return handle{idx: idx, gen: m.nodes[idx].gen}
}

// -----------------------------------------------------------------------------
// List links
// -----------------------------------------------------------------------------

// linkBefore inserts idx immediately before at.
func (m *Map[T]) linkBefore(at, idx int32) {
	prev := m.nodes[at].prev
	m.nodes[idx].prev = prev
	m.nodes[idx].next = at
	m.nodes[prev].next = idx
	m.nodes[at].prev = idx
}

// linkAfter inserts idx immediately after at.
func (m *Map[T]) linkAfter(at, idx int32) {
	next := m.nodes[at].next
	m.nodes[idx].prev = at
	m.nodes[idx].next = next
	m.nodes[next].prev = idx
	m.nodes[at].next = idx
}

// unlink removes idx from the list without releasing it.
func (m *Map[T]) unlink(idx int32) {
	n := &m.nodes[idx]
	m.nodes[n.prev].next = n.next
	m.nodes[n.next].prev = n.prev
	n.prev, n.next = 0, 0
}

// step returns the neighbour of idx in the given direction.
func (m *Map[T]) step(idx int32, forward bool) int32 {
	if forward {
		return m.nodes[idx].next
	}
	return m.nodes[idx].prev
}

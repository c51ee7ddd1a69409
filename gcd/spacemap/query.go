package spacemap

import (
	"fmt"

	"github.com/joshuapare/gcdkit/pkg/types"
)

// Descriptor returns a copy of the entry containing addr.
func (m *Map[T]) Descriptor(addr uint64) (Entry[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start, _, err := m.search(addr, 1)
	if err != nil {
		return Entry[T]{}, types.NewError(types.ErrKindNotFound,
			fmt.Sprintf("%s descriptor 0x%x", m.name, addr), err)
	}
	return m.nodes[start].Entry, nil
}

// Snapshot returns a copy of every entry in address order. The caller owns
// the returned slice.
func (m *Map[T]) Snapshot() []Entry[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for i := m.nodes[head].next; i != head; i = m.nodes[i].next {
		n++
	}
	out := make([]Entry[T], 0, n)
	for i := m.nodes[head].next; i != head; i = m.nodes[i].next {
		out = append(out, m.nodes[i].Entry)
	}
	return out
}

// Len returns the number of entries in the map.
func (m *Map[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

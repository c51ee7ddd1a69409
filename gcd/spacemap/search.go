package spacemap

import (
	"fmt"

	"github.com/joshuapare/gcdkit/internal/align"
	"github.com/joshuapare/gcdkit/pkg/types"
)

// search finds the run of entries covering [base, base+length).
// start holds base and end holds base+length-1; they may be the same entry.
//
// Caller must hold m.mu.
func (m *Map[T]) search(base, length uint64) (start, end int32, err error) {
	if length == 0 {
		return 0, 0, types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("%s: zero-length range at 0x%x", m.name, base), nil)
	}
	last, ok := align.LastAddress(base, length)
	if !ok || last > m.maxAddr {
		return 0, 0, types.NewError(types.ErrKindRange,
			fmt.Sprintf("%s: range 0x%x+0x%x exceeds 0x%x", m.name, base, length, m.maxAddr), nil)
	}

	start = head
	for i := m.nodes[head].next; i != head; i = m.nodes[i].next {
		n := &m.nodes[i]
		if start == head && base >= n.BaseAddress && base <= n.EndAddress {
			start = i
		}
		if start != head && last >= n.BaseAddress && last <= n.EndAddress {
			return start, i, nil
		}
	}

	// Unreachable while the partition covers the whole space.
	return 0, 0, types.NewError(types.ErrKindRange,
		fmt.Sprintf("%s: no entry covers 0x%x+0x%x", m.name, base, length), errCorrupt)
}

// forRun calls fn for every entry from start to end inclusive, in list order,
// stopping at the first error.
func (m *Map[T]) forRun(start, end int32, fn func(e *Entry[T]) error) error {
	for i := start; ; i = m.nodes[i].next {
		if err := fn(&m.nodes[i].Entry); err != nil {
			return err
		}
		if i == end {
			return nil
		}
	}
}

package spacemap

import (
	"fmt"

	"github.com/joshuapare/gcdkit/pkg/types"
)

// scratch holds the two nodes reserved before a run is split.
// At most one bottom and one top split happen per operation.
type scratch struct {
	bottom, top         handle
	usedBottom, usedTop bool
}

// reserveScratch takes both scratch nodes up front so the operation can fail
// before anything is mutated.
func (m *Map[T]) reserveScratch(op string) (scratch, error) {
	top, ok := m.alloc()
	if !ok {
		return scratch{}, m.outOfMemory(op)
	}
	bottom, ok := m.alloc()
	if !ok {
		m.release(top)
		return scratch{}, m.outOfMemory(op)
	}
	return scratch{bottom: bottom, top: top}, nil
}

// releaseScratch returns whichever scratch nodes were not linked by split.
func (m *Map[T]) releaseScratch(s scratch) {
	if !s.usedBottom {
		m.release(s.bottom)
		m.stats.ScratchReleased++
	}
	if !s.usedTop {
		m.release(s.top)
		m.stats.ScratchReleased++
	}
}

func (m *Map[T]) outOfMemory(op string) error {
	return types.NewError(types.ErrKindOutOfMemory,
		fmt.Sprintf("%s %s: entry limit %d reached", m.name, op, m.maxEntries), nil)
}

// split carves the run so its first entry starts at base and its last entry
// ends at last. The part of start below base moves into the bottom scratch
// node, linked before start; the part of end above last moves into the top
// scratch node, linked after end. start and end keep their arena slots.
//
// Caller must hold m.mu and have validated the run.
func (m *Map[T]) split(start, end int32, base, last uint64, s *scratch) {
	if base > m.nodes[start].BaseAddress {
		b := m.node(s.bottom)
		b.Entry = m.nodes[start].Entry
		b.EndAddress = base - 1
		m.nodes[start].BaseAddress = base
		m.linkBefore(start, s.bottom.idx)
		s.usedBottom = true
		m.stats.Splits++
	}
	if last < m.nodes[end].EndAddress {
		t := m.node(s.top)
		t.Entry = m.nodes[end].Entry
		t.BaseAddress = last + 1
		m.nodes[end].EndAddress = last
		m.linkAfter(end, s.top.idx)
		s.usedTop = true
		m.stats.Splits++
	}
}

package spacemap

import "fmt"

// Validate checks the structural invariants of the map:
//   - entries are ordered and contiguous, starting at 0 and ending at 2^N-1
//   - every entry has Base <= End and Attributes within Capabilities
//   - no two neighbours are descriptively identical
//   - back links mirror forward links and no scratch node is left behind
//
// It returns nil for a healthy map.
func (m *Map[T]) Validate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		expect uint64
		count  int
		prev   = head
	)
	for i := m.nodes[head].next; i != head; prev, i = i, m.nodes[i].next {
		n := &m.nodes[i]
		switch {
		case !n.live:
			return fmt.Errorf("%w: %s entry %d is linked but released", errCorrupt, m.name, i)
		case n.prev != prev:
			return fmt.Errorf("%w: %s entry %d back link %d, want %d", errCorrupt, m.name, i, n.prev, prev)
		case count > 0 && n.BaseAddress != expect:
			return fmt.Errorf("%w: %s entry [0x%x-0x%x] does not start at 0x%x",
				errCorrupt, m.name, n.BaseAddress, n.EndAddress, expect)
		case count == 0 && n.BaseAddress != 0:
			return fmt.Errorf("%w: %s first entry starts at 0x%x", errCorrupt, m.name, n.BaseAddress)
		case n.EndAddress < n.BaseAddress:
			return fmt.Errorf("%w: %s entry [0x%x-0x%x] is inverted", errCorrupt, m.name, n.BaseAddress, n.EndAddress)
		case !n.Capabilities.Has(n.Attributes):
			return fmt.Errorf("%w: %s entry [0x%x-0x%x] attributes %s exceed capabilities %s",
				errCorrupt, m.name, n.BaseAddress, n.EndAddress, n.Attributes, n.Capabilities)
		}
		if prev != head && m.nodes[prev].sameDescription(n.Entry) {
			return fmt.Errorf("%w: %s entries at 0x%x and 0x%x should have merged",
				errCorrupt, m.name, m.nodes[prev].BaseAddress, n.BaseAddress)
		}
		count++
		if n.EndAddress == m.maxAddr {
			expect = 0
			if m.nodes[i].next != head {
				return fmt.Errorf("%w: %s entry ends the space but is not last", errCorrupt, m.name)
			}
		} else {
			expect = n.EndAddress + 1
		}
	}

	switch {
	case count == 0:
		return fmt.Errorf("%w: %s map is empty", errCorrupt, m.name)
	case m.nodes[prev].EndAddress != m.maxAddr:
		return fmt.Errorf("%w: %s last entry ends at 0x%x, want 0x%x",
			errCorrupt, m.name, m.nodes[prev].EndAddress, m.maxAddr)
	case m.nodes[head].prev != prev:
		return fmt.Errorf("%w: %s head back link %d, want %d", errCorrupt, m.name, m.nodes[head].prev, prev)
	case count != m.live:
		return fmt.Errorf("%w: %s has %d linked entries but %d live slots", errCorrupt, m.name, count, m.live)
	}
	return nil
}

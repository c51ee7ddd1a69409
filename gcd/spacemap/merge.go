package spacemap

// merge absorbs the neighbour of idx in the given direction when the two
// entries are descriptively identical. idx keeps its slot; the neighbour is
// unlinked and released.
//
// Caller must hold m.mu.
func (m *Map[T]) merge(idx int32, forward bool) {
	adj := m.step(idx, forward)
	if adj == head {
		return
	}
	if !m.nodes[idx].sameDescription(m.nodes[adj].Entry) {
		return
	}

	if forward {
		m.nodes[idx].EndAddress = m.nodes[adj].EndAddress
		m.stats.MergesForward++
	} else {
		m.nodes[idx].BaseAddress = m.nodes[adj].BaseAddress
		m.stats.MergesBackward++
	}
	h := m.handleOf(adj)
	m.unlink(adj)
	m.release(h)
}

// cleanup releases unused scratch, then merges every run entry with its
// predecessor and the last run entry with its successor. Each merge keeps
// the run entry itself, so walking start..end stays valid.
//
// Caller must hold m.mu.
func (m *Map[T]) cleanup(start, end int32, s scratch) {
	m.releaseScratch(s)

	for i := start; ; i = m.nodes[i].next {
		m.merge(i, false)
		if i == end {
			break
		}
	}
	m.merge(end, true)
}

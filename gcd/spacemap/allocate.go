package spacemap

import (
	"fmt"

	"github.com/joshuapare/gcdkit/internal/align"
	"github.com/joshuapare/gcdkit/pkg/types"
)

// AllocateRequest describes a placement.
type AllocateRequest[T comparable] struct {
	Policy types.AllocateType
	Type   T

	// Alignment is a power-of-two exponent: the result is a multiple of 1<<Alignment.
	Alignment uint

	Length uint64

	// Hint is the exact base for AllocateAddress and the highest usable
	// address for the MaxAddress policies. Other policies ignore it.
	Hint uint64

	ImageHandle  types.Handle
	DeviceHandle types.Handle
}

// Allocate places a range of req.Type according to req.Policy, assigns it to
// the owner and returns its base address. Allocation changes ownership only;
// the space type of the range is left as it was.
func (m *Map[T]) Allocate(req AllocateRequest[T]) (uint64, error) {
	if err := m.validateRequest(req); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	base, start, end, err := m.place(req)
	if err != nil {
		return 0, err
	}

	s, err := m.reserveScratch("allocate")
	if err != nil {
		return 0, err
	}

	m.split(start, end, base, base+req.Length-1, &s)
	_ = m.forRun(start, end, func(e *Entry[T]) error {
		e.ImageHandle = req.ImageHandle
		e.DeviceHandle = req.DeviceHandle
		return nil
	})
	m.cleanup(start, end, s)

	m.stats.Allocations++
	return base, nil
}

func (m *Map[T]) validateRequest(req AllocateRequest[T]) error {
	invalid := func(why string) error {
		return types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("%s allocate: %s", m.name, why), nil)
	}
	switch {
	case !req.Policy.Valid():
		return invalid(fmt.Sprintf("unknown policy %s", req.Policy))
	case req.Length == 0:
		return invalid("zero length")
	case req.Alignment >= m.bits:
		return invalid(fmt.Sprintf("alignment 2^%d not below space width 2^%d", req.Alignment, m.bits))
	case req.ImageHandle == types.NullHandle:
		return invalid("null image handle")
	}
	return nil
}

// place picks the base of the allocation and the run that covers it.
//
// Caller must hold m.mu.
func (m *Map[T]) place(req AllocateRequest[T]) (base uint64, start, end int32, err error) {
	mask := align.Mask(req.Alignment)

	if req.Policy == types.AllocateAddress {
		if req.Hint&mask != 0 {
			return 0, 0, 0, m.notFound(req, fmt.Sprintf("address 0x%x is not 2^%d aligned", req.Hint, req.Alignment))
		}
		start, end, err = m.search(req.Hint, req.Length)
		if err != nil {
			return 0, 0, 0, m.notFound(req, "range exceeds the space")
		}
		if !m.runAvailable(start, end, req.Type) {
			return 0, 0, 0, m.notFound(req, fmt.Sprintf("range 0x%x+0x%x is not free %v", req.Hint, req.Length, req.Type))
		}
		return req.Hint, start, end, nil
	}

	limit := m.maxAddr
	if req.Policy.Bounded() && req.Hint < limit {
		limit = req.Hint
	}
	topDown := req.Policy.TopDown()
	span := req.Length - 1

	for i := m.step(head, !topDown); i != head; i = m.step(i, !topDown) {
		e := m.nodes[i].Entry
		if e.Type != req.Type || e.Owned() {
			continue
		}

		var candidate uint64
		if topDown {
			// Highest aligned base whose range ends at or below min(e.End, limit).
			if e.BaseAddress > limit || span > limit-e.BaseAddress {
				continue
			}
			if span > e.EndAddress {
				// Every lower entry ends lower still.
				break
			}
			top := min(e.EndAddress, limit)
			candidate = align.Down(top-span, mask)
		} else {
			// Lowest aligned base at or above e.Base.
			c, ok := align.Up(e.BaseAddress, mask)
			if !ok {
				break
			}
			last, ok := align.LastAddress(c, req.Length)
			if !ok || last > limit {
				// Every higher entry starts higher still.
				break
			}
			candidate = c
		}

		s, t, err := m.search(candidate, req.Length)
		if err != nil {
			continue
		}
		if m.runAvailable(s, t, req.Type) {
			return candidate, s, t, nil
		}
	}

	return 0, 0, 0, m.notFound(req, fmt.Sprintf("no free %v range of 0x%x bytes", req.Type, req.Length))
}

// runAvailable reports whether every entry of the run has type t and no owner.
func (m *Map[T]) runAvailable(start, end int32, t T) bool {
	return m.forRun(start, end, func(e *Entry[T]) error {
		if e.Type != t || e.Owned() {
			return errNotAvailable
		}
		return nil
	}) == nil
}

func (m *Map[T]) notFound(req AllocateRequest[T], why string) error {
	return types.NewError(types.ErrKindNotFound,
		fmt.Sprintf("%s allocate %s: %s", m.name, req.Policy, why), nil)
}

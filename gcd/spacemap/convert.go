package spacemap

import (
	"fmt"

	"github.com/joshuapare/gcdkit/internal/align"
	"github.com/joshuapare/gcdkit/pkg/types"
)

// HardwareHook enforces attributes on real hardware. SetAttributes calls it
// after validation and before any mutation; a non-nil error aborts the
// operation. It runs with the map locked and must not call back into the map.
type HardwareHook func(base, length uint64, attrs types.Attribute) error

// op identifies a conversion.
type op uint8

const (
	opAdd op = iota
	opFree
	opRemove
	opSetAttributes
	opSetCapabilities
)

func (o op) String() string {
	switch o {
	case opAdd:
		return "add"
	case opFree:
		return "free"
	case opRemove:
		return "remove"
	case opSetAttributes:
		return "set attributes"
	case opSetCapabilities:
		return "set capabilities"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// change carries the operation-specific inputs of a conversion.
type change[T comparable] struct {
	typ   T
	mask  types.Attribute // capabilities for add/set capabilities, attributes for set attributes
	apply HardwareHook
}

// Add types a non-existent, unowned range and sets its capabilities.
func (m *Map[T]) Add(t T, base, length uint64, caps types.Attribute) error {
	if t == m.nonExistent {
		return types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("%s add 0x%x+0x%x: cannot add a non-existent range", m.name, base, length), nil)
	}
	return m.convert(opAdd, base, length, change[T]{typ: t, mask: caps})
}

// Free drops the owner of every entry in the range.
func (m *Map[T]) Free(base, length uint64) error {
	return m.convert(opFree, base, length, change[T]{})
}

// Remove returns a typed, unowned range to non-existent.
func (m *Map[T]) Remove(base, length uint64) error {
	return m.convert(opRemove, base, length, change[T]{})
}

// SetAttributes replaces the attributes in effect over the range. Every
// requested bit must be a capability of every entry. apply may be nil.
func (m *Map[T]) SetAttributes(base, length uint64, attrs types.Attribute, apply HardwareHook) error {
	return m.convert(opSetAttributes, base, length, change[T]{mask: attrs, apply: apply})
}

// SetCapabilities replaces the capabilities of the range. The new mask must
// keep every attribute currently in effect, and the range must be page aligned.
func (m *Map[T]) SetCapabilities(base, length uint64, caps types.Attribute) error {
	return m.convert(opSetCapabilities, base, length, change[T]{mask: caps})
}

// convert is the shared engine of Add, Free, Remove, SetAttributes and
// SetCapabilities: search, validate, reserve, enforce, split, mutate, merge.
func (m *Map[T]) convert(o op, base, length uint64, c change[T]) error {
	if length == 0 {
		return types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("%s %s at 0x%x: zero length", m.name, o, base), nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start, end, err := m.search(base, length)
	if err != nil {
		return types.NewError(types.ErrKindUnsupported,
			fmt.Sprintf("%s %s 0x%x+0x%x", m.name, o, base, length), err)
	}

	if err := m.forRun(start, end, func(e *Entry[T]) error {
		return m.check(o, e, base, length, c)
	}); err != nil {
		return err
	}

	s, err := m.reserveScratch(o.String())
	if err != nil {
		return err
	}

	if o == opSetAttributes && c.apply != nil {
		if err := c.apply(base, length, c.mask); err != nil {
			m.releaseScratch(s)
			return err
		}
	}

	last := base + length - 1 // search proved this does not overflow
	m.split(start, end, base, last, &s)

	_ = m.forRun(start, end, func(e *Entry[T]) error {
		switch o {
		case opAdd:
			e.Type = c.typ
			e.Capabilities = c.mask
		case opFree:
			e.ImageHandle = types.NullHandle
			e.DeviceHandle = types.NullHandle
		case opRemove:
			e.Type = m.nonExistent
			e.Capabilities = 0
			e.Attributes = 0
		case opSetAttributes:
			e.Attributes = c.mask
		case opSetCapabilities:
			e.Capabilities = c.mask
		}
		return nil
	})

	m.cleanup(start, end, s)
	m.count(o)
	return nil
}

// check validates one run entry against the operation's precondition.
func (m *Map[T]) check(o op, e *Entry[T], base, length uint64, c change[T]) error {
	fail := func(kind types.ErrKind, why string) error {
		return types.NewError(kind,
			fmt.Sprintf("%s %s 0x%x+0x%x: entry [0x%x-0x%x] %s", m.name, o, base, length, e.BaseAddress, e.EndAddress, why), nil)
	}

	switch o {
	case opAdd:
		if e.Type != m.nonExistent || e.Owned() {
			return fail(types.ErrKindAccessDenied, "is already present")
		}
	case opFree:
		if !e.Owned() {
			return fail(types.ErrKindNotFound, "is not allocated")
		}
	case opRemove:
		if e.Type == m.nonExistent {
			return fail(types.ErrKindNotFound, "is not present")
		}
		if e.Owned() {
			return fail(types.ErrKindAccessDenied, "is allocated")
		}
	case opSetAttributes:
		if c.mask&types.AttrRuntime != 0 && !pageAligned(base, length) {
			return fail(types.ErrKindInvalidArgument, "cannot be made runtime: range is not page aligned")
		}
		if !e.Capabilities.Has(c.mask) {
			return fail(types.ErrKindUnsupported,
				fmt.Sprintf("lacks capabilities %s", c.mask&^e.Capabilities))
		}
	case opSetCapabilities:
		if !pageAligned(base, length) {
			return fail(types.ErrKindInvalidArgument, "range is not page aligned")
		}
		if !c.mask.Has(e.Attributes) {
			return fail(types.ErrKindUnsupported,
				fmt.Sprintf("would drop attributes in effect %s", e.Attributes&^c.mask))
		}
	}
	return nil
}

func (m *Map[T]) count(o op) {
	switch o {
	case opAdd:
		m.stats.Adds++
	case opFree:
		m.stats.Frees++
	case opRemove:
		m.stats.Removes++
	case opSetAttributes:
		m.stats.AttributeSets++
	case opSetCapabilities:
		m.stats.CapabilitySets++
	}
}

func pageAligned(base, length uint64) bool {
	return align.IsAligned(base, types.PageSize) && align.IsAligned(length, types.PageSize)
}

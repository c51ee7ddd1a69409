package gcd

import (
	"fmt"

	"github.com/joshuapare/gcdkit/gcd/cpu"
	"github.com/joshuapare/gcdkit/gcd/spacemap"
	"github.com/joshuapare/gcdkit/pkg/types"
)

// AddMemorySpace makes a non-existent range present with type t.
// AttrRuntime is always added to caps.
func (s *Services) AddMemorySpace(t types.MemoryType, base, length uint64, caps types.Attribute) error {
	err := s.addMemorySpace(t, base, length, caps)
	s.trace("AddMemorySpace", base, length, err, s.WriteMemoryMap)
	return err
}

func (s *Services) addMemorySpace(t types.MemoryType, base, length uint64, caps types.Attribute) error {
	if !t.Valid() {
		return types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("memory add 0x%x+0x%x: unknown type %s", base, length, t), nil)
	}
	return s.mem.Add(t, base, length, caps|types.AttrRuntime)
}

// AllocateMemorySpace assigns a free range of type t to image and device and
// returns its base. alignment is a power-of-two exponent. hint is the exact
// base for AllocateAddress and the highest usable address for the
// MaxAddress policies.
func (s *Services) AllocateMemorySpace(p types.AllocateType, t types.MemoryType, alignment uint,
	length, hint uint64, image, device types.Handle,
) (uint64, error) {
	if !t.Valid() {
		err := types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("memory allocate: unknown type %s", t), nil)
		s.trace("AllocateMemorySpace", hint, length, err, nil)
		return 0, err
	}
	base, err := s.mem.Allocate(spacemap.AllocateRequest[types.MemoryType]{
		Policy:       p,
		Type:         t,
		Alignment:    alignment,
		Length:       length,
		Hint:         hint,
		ImageHandle:  image,
		DeviceHandle: device,
	})
	s.trace("AllocateMemorySpace", base, length, err, s.WriteMemoryMap)
	return base, err
}

// FreeMemorySpace drops the owner of an allocated range.
func (s *Services) FreeMemorySpace(base, length uint64) error {
	err := s.mem.Free(base, length)
	s.trace("FreeMemorySpace", base, length, err, s.WriteMemoryMap)
	return err
}

// RemoveMemorySpace returns an unowned range to non-existent.
func (s *Services) RemoveMemorySpace(base, length uint64) error {
	err := s.mem.Remove(base, length)
	s.trace("RemoveMemorySpace", base, length, err, s.WriteMemoryMap)
	return err
}

// SetMemorySpaceAttributes replaces the attributes of a range. Every bit of
// attrs must be a capability of the whole range. The cache type derived from
// attrs is applied through Options.CPU before the map changes; attrs without
// a cache type are recorded without calling it.
func (s *Services) SetMemorySpaceAttributes(base, length uint64, attrs types.Attribute) error {
	err := s.mem.SetAttributes(base, length, attrs, s.applyHardware)
	s.trace("SetMemorySpaceAttributes", base, length, err, s.WriteMemoryMap)
	return err
}

func (s *Services) applyHardware(base, length uint64, attrs types.Attribute) error {
	cache := cpu.CacheTypeOf(attrs)
	if cache == cpu.CacheNone || s.cpu == nil {
		return nil
	}
	if err := s.cpu.ApplyHardwareAttributes(base, length, cache); err != nil {
		return fmt.Errorf("memory set attributes 0x%x+0x%x: cpu %s: %w", base, length, cache, err)
	}
	return nil
}

// SetMemorySpaceCapabilities replaces the capabilities of a page-aligned range.
// The new mask must keep every attribute in effect.
func (s *Services) SetMemorySpaceCapabilities(base, length uint64, caps types.Attribute) error {
	err := s.mem.SetCapabilities(base, length, caps)
	s.trace("SetMemorySpaceCapabilities", base, length, err, s.WriteMemoryMap)
	return err
}

// GetMemorySpaceDescriptor returns the entry containing addr.
func (s *Services) GetMemorySpaceDescriptor(addr uint64) (types.MemorySpaceDescriptor, error) {
	e, err := s.mem.Descriptor(addr)
	if err != nil {
		return types.MemorySpaceDescriptor{}, err
	}
	return memoryDescriptor(e), nil
}

// GetMemorySpaceMap returns every entry of the memory map in address order.
func (s *Services) GetMemorySpaceMap() ([]types.MemorySpaceDescriptor, error) {
	entries := s.mem.Snapshot()
	out := make([]types.MemorySpaceDescriptor, len(entries))
	for i, e := range entries {
		out[i] = memoryDescriptor(e)
	}
	return out, nil
}

func memoryDescriptor(e spacemap.Entry[types.MemoryType]) types.MemorySpaceDescriptor {
	return types.MemorySpaceDescriptor{
		BaseAddress:  e.BaseAddress,
		Length:       e.Length(),
		Capabilities: e.Capabilities,
		Attributes:   e.Attributes,
		Type:         e.Type,
		ImageHandle:  e.ImageHandle,
		DeviceHandle: e.DeviceHandle,
	}
}

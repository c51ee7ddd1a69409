package gcd

import (
	"fmt"

	"github.com/joshuapare/gcdkit/gcd/spacemap"
	"github.com/joshuapare/gcdkit/pkg/types"
)

// AddIoSpace makes a non-existent I/O range present with type t.
func (s *Services) AddIoSpace(t types.IOType, base, length uint64) error {
	var err error
	if !t.Valid() {
		err = types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("io add 0x%x+0x%x: unknown type %s", base, length, t), nil)
	} else {
		err = s.io.Add(t, base, length, 0)
	}
	s.trace("AddIoSpace", base, length, err, s.WriteIoMap)
	return err
}

// AllocateIoSpace assigns a free I/O range of type t to image and device.
// The arguments follow AllocateMemorySpace.
func (s *Services) AllocateIoSpace(p types.AllocateType, t types.IOType, alignment uint,
	length, hint uint64, image, device types.Handle,
) (uint64, error) {
	if !t.Valid() {
		err := types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("io allocate: unknown type %s", t), nil)
		s.trace("AllocateIoSpace", hint, length, err, nil)
		return 0, err
	}
	base, err := s.io.Allocate(spacemap.AllocateRequest[types.IOType]{
		Policy:       p,
		Type:         t,
		Alignment:    alignment,
		Length:       length,
		Hint:         hint,
		ImageHandle:  image,
		DeviceHandle: device,
	})
	s.trace("AllocateIoSpace", base, length, err, s.WriteIoMap)
	return base, err
}

// FreeIoSpace drops the owner of an allocated I/O range.
func (s *Services) FreeIoSpace(base, length uint64) error {
	err := s.io.Free(base, length)
	s.trace("FreeIoSpace", base, length, err, s.WriteIoMap)
	return err
}

// RemoveIoSpace returns an unowned I/O range to non-existent.
func (s *Services) RemoveIoSpace(base, length uint64) error {
	err := s.io.Remove(base, length)
	s.trace("RemoveIoSpace", base, length, err, s.WriteIoMap)
	return err
}

// GetIoSpaceDescriptor returns the I/O entry containing addr.
func (s *Services) GetIoSpaceDescriptor(addr uint64) (types.IOSpaceDescriptor, error) {
	e, err := s.io.Descriptor(addr)
	if err != nil {
		return types.IOSpaceDescriptor{}, err
	}
	return ioDescriptor(e), nil
}

// GetIoSpaceMap returns every entry of the I/O map in address order.
func (s *Services) GetIoSpaceMap() ([]types.IOSpaceDescriptor, error) {
	entries := s.io.Snapshot()
	out := make([]types.IOSpaceDescriptor, len(entries))
	for i, e := range entries {
		out[i] = ioDescriptor(e)
	}
	return out, nil
}

func ioDescriptor(e spacemap.Entry[types.IOType]) types.IOSpaceDescriptor {
	return types.IOSpaceDescriptor{
		BaseAddress:  e.BaseAddress,
		Length:       e.Length(),
		Type:         e.Type,
		ImageHandle:  e.ImageHandle,
		DeviceHandle: e.DeviceHandle,
	}
}

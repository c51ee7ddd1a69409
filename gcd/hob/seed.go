package hob

import (
	"fmt"

	"github.com/joshuapare/gcdkit/gcd"
	"github.com/joshuapare/gcdkit/pkg/types"
)

// Seed adds every resource of h to s, then claims every allocation at its
// exact address. It stops at the first failure; earlier entries stay applied.
func Seed(s *gcd.Services, h *HandOff) error {
	for i, r := range h.Resources {
		if err := addResource(s, r); err != nil {
			return fmt.Errorf("hob: resource %d: %w", i, err)
		}
	}
	for i, a := range h.Allocations {
		if err := claim(s, a); err != nil {
			return fmt.Errorf("hob: allocation %d (%s): %w", i, a.Name, err)
		}
	}
	return nil
}

// Boot creates a manager sized by h, applies opts on top and seeds it.
func Boot(h *HandOff, opts *gcd.Options) (*gcd.Services, error) {
	o := h.Options()
	if opts != nil {
		o.MaxEntries = opts.MaxEntries
		o.CPU = opts.CPU
		o.Logger = opts.Logger
	}
	s, err := gcd.New(o)
	if err != nil {
		return nil, fmt.Errorf("hob: %w", err)
	}
	if err := Seed(s, h); err != nil {
		return nil, err
	}
	return s, nil
}

func addResource(s *gcd.Services, r Resource) error {
	switch r.Space {
	case SpaceMemory:
		t, err := types.ParseMemoryType(r.Type)
		if err != nil {
			return err
		}
		caps, err := types.ParseAttributes(r.Capabilities)
		if err != nil {
			return err
		}
		return s.AddMemorySpace(t, uint64(r.Base), uint64(r.Length), caps)

	case SpaceIO:
		if len(r.Capabilities) > 0 {
			return types.NewError(types.ErrKindInvalidArgument, "io resources have no capabilities", nil)
		}
		t, err := types.ParseIOType(r.Type)
		if err != nil {
			return err
		}
		return s.AddIoSpace(t, uint64(r.Base), uint64(r.Length))

	default:
		return unknownSpace(r.Space)
	}
}

// claim allocates a at its own address, keeping whatever type the range has.
func claim(s *gcd.Services, a Allocation) error {
	image, device := types.Handle(a.Image), types.Handle(a.Device)

	switch a.Space {
	case SpaceMemory:
		d, err := s.GetMemorySpaceDescriptor(uint64(a.Base))
		if err != nil {
			return err
		}
		if d.Type == types.MemoryNonExistent {
			return notReported(a)
		}
		_, err = s.AllocateMemorySpace(types.AllocateAddress, d.Type, 0, uint64(a.Length), uint64(a.Base), image, device)
		return err

	case SpaceIO:
		d, err := s.GetIoSpaceDescriptor(uint64(a.Base))
		if err != nil {
			return err
		}
		if d.Type == types.IONonExistent {
			return notReported(a)
		}
		_, err = s.AllocateIoSpace(types.AllocateAddress, d.Type, 0, uint64(a.Length), uint64(a.Base), image, device)
		return err

	default:
		return unknownSpace(a.Space)
	}
}

func notReported(a Allocation) error {
	return types.NewError(types.ErrKindNotFound,
		fmt.Sprintf("%s 0x%x is not covered by any resource", a.Space, uint64(a.Base)), nil)
}

func unknownSpace(sp Space) error {
	return types.NewError(types.ErrKindInvalidArgument,
		fmt.Sprintf("unknown space %q (want %q or %q)", sp, SpaceMemory, SpaceIO), nil)
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/gcdkit/gcd"
	"github.com/joshuapare/gcdkit/gcd/hob"
	"github.com/joshuapare/gcdkit/internal/logger"
	"github.com/joshuapare/gcdkit/pkg/types"
)

// boot loads the hand-off document at path and seeds a manager from it.
func boot(path string) (*gcd.Services, error) {
	printVerbose("Loading hand-off: %s\n", path)

	h, err := hob.Load(path)
	if err != nil {
		return nil, err
	}
	s, err := hob.Boot(h, &gcd.Options{Logger: logger.L})
	if err != nil {
		return nil, fmt.Errorf("failed to seed space manager: %w", err)
	}

	printVerbose("Seeded %d resources and %d allocations\n", len(h.Resources), len(h.Allocations))
	return s, nil
}

// checkSpace validates the --space flag.
func checkSpace(space string) (hob.Space, error) {
	switch sp := hob.Space(strings.ToLower(space)); sp {
	case hob.SpaceMemory, hob.SpaceIO:
		return sp, nil
	default:
		return "", fmt.Errorf("unknown space %q (want memory or io)", space)
	}
}

// parseNumber accepts decimal or 0x/0o/0b prefixed numbers.
func parseNumber(what, s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return v, nil
}

// memoryView is the JSON form of a memory descriptor.
type memoryView struct {
	Base         string `json:"base"`
	End          string `json:"end"`
	Length       uint64 `json:"length"`
	Type         string `json:"type"`
	Capabilities string `json:"capabilities"`
	Attributes   string `json:"attributes"`
	Image        uint64 `json:"image,omitempty"`
	Device       uint64 `json:"device,omitempty"`
}

func newMemoryView(d types.MemorySpaceDescriptor) memoryView {
	return memoryView{
		Base:         fmt.Sprintf("0x%x", d.BaseAddress),
		End:          fmt.Sprintf("0x%x", d.EndAddress()),
		Length:       d.Length,
		Type:         d.Type.String(),
		Capabilities: d.Capabilities.String(),
		Attributes:   d.Attributes.String(),
		Image:        uint64(d.ImageHandle),
		Device:       uint64(d.DeviceHandle),
	}
}

// ioView is the JSON form of an I/O descriptor.
type ioView struct {
	Base   string `json:"base"`
	End    string `json:"end"`
	Length uint64 `json:"length"`
	Type   string `json:"type"`
	Image  uint64 `json:"image,omitempty"`
	Device uint64 `json:"device,omitempty"`
}

func newIOView(d types.IOSpaceDescriptor) ioView {
	return ioView{
		Base:   fmt.Sprintf("0x%x", d.BaseAddress),
		End:    fmt.Sprintf("0x%x", d.EndAddress()),
		Length: d.Length,
		Type:   d.Type.String(),
		Image:  uint64(d.ImageHandle),
		Device: uint64(d.DeviceHandle),
	}
}

// Package hob reads the boot hand-off document that describes the resources
// a platform reports before the space manager starts, and seeds a
// gcd.Services from it.
//
// The document is YAML:
//
//	memory_address_bits: 36
//	io_address_bits: 16
//	resources:
//	  - space: memory
//	    type: system-memory
//	    base: 0x0
//	    length: 0xA0000
//	    capabilities: [UC, WC, WT, WB, XP]
//	allocations:
//	  - space: memory
//	    base: 0x100000
//	    length: 0x20000
//	    image: 1
//	    name: dxe-core
//
// Numbers may be written in decimal or with a 0x, 0o or 0b prefix.
package hob

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/gcdkit/gcd"
)

// Space names the map a resource or allocation belongs to.
type Space string

const (
	SpaceMemory Space = "memory"
	SpaceIO     Space = "io"
)

// HandOff is a decoded hand-off document.
type HandOff struct {
	MemoryAddressBits uint         `yaml:"memory_address_bits"`
	IOAddressBits     uint         `yaml:"io_address_bits"`
	Resources         []Resource   `yaml:"resources"`
	Allocations       []Allocation `yaml:"allocations"`
}

// Resource is a range reported present by the platform.
type Resource struct {
	Space        Space    `yaml:"space"`
	Type         string   `yaml:"type"`
	Base         Number   `yaml:"base"`
	Length       Number   `yaml:"length"`
	Capabilities []string `yaml:"capabilities"` // memory only
}

// Allocation is a range already in use when the manager starts.
type Allocation struct {
	Space  Space  `yaml:"space"`
	Base   Number `yaml:"base"`
	Length Number `yaml:"length"`
	Image  Number `yaml:"image"`
	Device Number `yaml:"device"`
	Name   string `yaml:"name"`
}

// Number is a uint64 that accepts 0x, 0o and 0b prefixes in YAML.
type Number uint64

// UnmarshalYAML implements yaml.Unmarshaler for Number.
func (n *Number) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", value.Line)
	}
	s := strings.ReplaceAll(value.Value, "_", "")
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("line %d: invalid number %q: %w", value.Line, value.Value, err)
	}
	*n = Number(v)
	return nil
}

// Decode reads a hand-off document. Unknown fields are rejected.
func Decode(r io.Reader) (*HandOff, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var h HandOff
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("hob: empty document")
		}
		return nil, fmt.Errorf("hob: parsing hand-off: %w", err)
	}
	return &h, nil
}

// Load reads a hand-off document from a file.
func Load(path string) (*HandOff, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hob: reading hand-off: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Options returns manager options carrying the document's address widths.
// Zero widths fall back to the gcd defaults.
func (h *HandOff) Options() *gcd.Options {
	return &gcd.Options{
		MemoryAddressBits: h.MemoryAddressBits,
		IOAddressBits:     h.IOAddressBits,
	}
}

package types

import (
	"fmt"
	"strings"
)

// PageSize is the granularity required for runtime-visible ranges.
const PageSize = 0x1000

// -----------------------------------------------------------------------------
// Space types
// -----------------------------------------------------------------------------

// MemoryType tags a range of the memory space.
type MemoryType uint8

const (
	MemoryNonExistent MemoryType = iota
	MemoryReserved
	MemorySystemMemory
	MemoryMappedIO
	MemoryPersistent
	MemoryMoreReliable
	MemoryUnaccepted
	memoryTypeMax
)

var memoryTypeNames = map[MemoryType]string{
	MemoryNonExistent:  "non-existent",
	MemoryReserved:     "reserved",
	MemorySystemMemory: "system-memory",
	MemoryMappedIO:     "mmio",
	MemoryPersistent:   "persistent",
	MemoryMoreReliable: "more-reliable",
	MemoryUnaccepted:   "unaccepted",
}

// Valid reports whether t is a defined memory type.
func (t MemoryType) Valid() bool { return t < memoryTypeMax }

func (t MemoryType) String() string {
	if s, ok := memoryTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("memory-type(%d)", uint8(t))
}

// ParseMemoryType converts a name produced by MemoryType.String back to a type.
func ParseMemoryType(s string) (MemoryType, error) {
	for t, name := range memoryTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, NewError(ErrKindInvalidArgument, fmt.Sprintf("unknown memory type %q", s), nil)
}

// IOType tags a range of the I/O space.
type IOType uint8

const (
	IONonExistent IOType = iota
	IOReserved
	IOPort
	ioTypeMax
)

var ioTypeNames = map[IOType]string{
	IONonExistent: "non-existent",
	IOReserved:    "reserved",
	IOPort:        "io",
}

// Valid reports whether t is a defined I/O type.
func (t IOType) Valid() bool { return t < ioTypeMax }

func (t IOType) String() string {
	if s, ok := ioTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("io-type(%d)", uint8(t))
}

// ParseIOType converts a name produced by IOType.String back to a type.
func ParseIOType(s string) (IOType, error) {
	for t, name := range ioTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, NewError(ErrKindInvalidArgument, fmt.Sprintf("unknown io type %q", s), nil)
}

// -----------------------------------------------------------------------------
// Attributes
// -----------------------------------------------------------------------------

// Attribute is a bitmask of memory attributes. The same bits describe both
// what a range may carry (capabilities) and what is in effect (attributes).
type Attribute uint64

const (
	AttrUC           Attribute = 0x0000000000000001 // uncacheable
	AttrWC           Attribute = 0x0000000000000002 // write-combining
	AttrWT           Attribute = 0x0000000000000004 // write-through
	AttrWB           Attribute = 0x0000000000000008 // write-back
	AttrUCE          Attribute = 0x0000000000000010 // uncacheable, exported
	AttrWP           Attribute = 0x0000000000001000 // write-protected
	AttrRP           Attribute = 0x0000000000002000 // read-protected
	AttrXP           Attribute = 0x0000000000004000 // execute-protected
	AttrNV           Attribute = 0x0000000000008000 // non-volatile
	AttrMoreReliable Attribute = 0x0000000000010000
	AttrRO           Attribute = 0x0000000000020000 // read-only
	AttrSP           Attribute = 0x0000000000040000 // specific-purpose
	AttrCPUCrypto    Attribute = 0x0000000000080000
	AttrRuntime      Attribute = 0x8000000000000000

	// AttrCacheMask covers the cacheability bits.
	AttrCacheMask = AttrUC | AttrWC | AttrWT | AttrWB | AttrUCE | AttrWP
	// AttrAccessMask covers the access-protection bits.
	AttrAccessMask = AttrRP | AttrXP | AttrRO
)

var attributeNames = []struct {
	bit  Attribute
	name string
}{
	{AttrUC, "UC"},
	{AttrWC, "WC"},
	{AttrWT, "WT"},
	{AttrWB, "WB"},
	{AttrUCE, "UCE"},
	{AttrWP, "WP"},
	{AttrRP, "RP"},
	{AttrXP, "XP"},
	{AttrNV, "NV"},
	{AttrMoreReliable, "MR"},
	{AttrRO, "RO"},
	{AttrSP, "SP"},
	{AttrCPUCrypto, "CC"},
	{AttrRuntime, "RUNTIME"},
}

// Has reports whether every bit of mask is set in a.
func (a Attribute) Has(mask Attribute) bool { return a&mask == mask }

// String renders the set bits as a "|"-separated list, e.g. "UC|WB|RUNTIME".
// Unnamed bits are rendered in hex.
func (a Attribute) String() string {
	if a == 0 {
		return "0"
	}
	var parts []string
	rest := a
	for _, n := range attributeNames {
		if a&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint64(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseAttributes ORs together the named bits (case-insensitive).
func ParseAttributes(names []string) (Attribute, error) {
	var a Attribute
	for _, s := range names {
		bit, ok := lookupAttribute(s)
		if !ok {
			return 0, NewError(ErrKindInvalidArgument, fmt.Sprintf("unknown attribute %q", s), nil)
		}
		a |= bit
	}
	return a, nil
}

func lookupAttribute(s string) (Attribute, bool) {
	for _, n := range attributeNames {
		if strings.EqualFold(n.name, s) {
			return n.bit, true
		}
	}
	return 0, false
}

// -----------------------------------------------------------------------------
// Allocation
// -----------------------------------------------------------------------------

// AllocateType selects where AllocateSpace places a range.
type AllocateType uint8

const (
	AllocateAnySearchBottomUp AllocateType = iota
	AllocateMaxAddressSearchBottomUp
	AllocateAddress
	AllocateAnySearchTopDown
	AllocateMaxAddressSearchTopDown
	allocateTypeMax
)

var allocateTypeNames = map[AllocateType]string{
	AllocateAnySearchBottomUp:        "any-bottom-up",
	AllocateMaxAddressSearchBottomUp: "max-address-bottom-up",
	AllocateAddress:                  "at-address",
	AllocateAnySearchTopDown:         "any-top-down",
	AllocateMaxAddressSearchTopDown:  "max-address-top-down",
}

// Valid reports whether p is a defined policy.
func (p AllocateType) Valid() bool { return p < allocateTypeMax }

// TopDown reports whether p scans from the highest entry.
func (p AllocateType) TopDown() bool {
	return p == AllocateAnySearchTopDown || p == AllocateMaxAddressSearchTopDown
}

// Bounded reports whether p caps candidate ranges at the hint address.
func (p AllocateType) Bounded() bool {
	return p == AllocateMaxAddressSearchBottomUp || p == AllocateMaxAddressSearchTopDown
}

func (p AllocateType) String() string {
	if s, ok := allocateTypeNames[p]; ok {
		return s
	}
	return fmt.Sprintf("allocate-type(%d)", uint8(p))
}

// ParseAllocateType converts a name produced by AllocateType.String back to a policy.
func ParseAllocateType(s string) (AllocateType, error) {
	for p, name := range allocateTypeNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return 0, NewError(ErrKindInvalidArgument, fmt.Sprintf("unknown allocate type %q", s), nil)
}

// Handle is an opaque owner identifier. NullHandle means "no owner".
type Handle uint64

// NullHandle marks an unallocated range.
const NullHandle Handle = 0

// -----------------------------------------------------------------------------
// Descriptors
// -----------------------------------------------------------------------------

// MemorySpaceDescriptor describes one entry of the memory space map.
type MemorySpaceDescriptor struct {
	BaseAddress  uint64     `json:"base_address"`
	Length       uint64     `json:"length"`
	Capabilities Attribute  `json:"capabilities"`
	Attributes   Attribute  `json:"attributes"`
	Type         MemoryType `json:"type"`
	ImageHandle  Handle     `json:"image_handle"`
	DeviceHandle Handle     `json:"device_handle"`
}

// EndAddress returns the last address covered by the descriptor.
func (d MemorySpaceDescriptor) EndAddress() uint64 { return d.BaseAddress + d.Length - 1 }

// Allocated reports whether the range has an owner.
func (d MemorySpaceDescriptor) Allocated() bool { return d.ImageHandle != NullHandle }

// IOSpaceDescriptor describes one entry of the I/O space map.
type IOSpaceDescriptor struct {
	BaseAddress  uint64 `json:"base_address"`
	Length       uint64 `json:"length"`
	Type         IOType `json:"type"`
	ImageHandle  Handle `json:"image_handle"`
	DeviceHandle Handle `json:"device_handle"`
}

// EndAddress returns the last address covered by the descriptor.
func (d IOSpaceDescriptor) EndAddress() uint64 { return d.BaseAddress + d.Length - 1 }

// Allocated reports whether the range has an owner.
func (d IOSpaceDescriptor) Allocated() bool { return d.ImageHandle != NullHandle }

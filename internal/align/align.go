// Package align provides power-of-two alignment helpers for address arithmetic.
//
// Alignments are expressed either as a byte count (which must be a power of
// two) or as an exponent, the way allocation requests carry them.
package align

import "math/bits"

// Mask returns the low-bit mask for an alignment exponent: Mask(12) = 0xFFF.
// Exponents of 64 or more saturate to all ones.
func Mask(exp uint) uint64 {
	if exp >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << exp) - 1
}

// IsPow2 reports whether n is a non-zero power of two.
func IsPow2(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// Up returns n rounded up to the alignment described by mask.
// ok is false if rounding overflows.
//
// Example:
//
//	Up(0x1001, 0xFFF) = 0x2000, true
//	Up(0x2000, 0xFFF) = 0x2000, true
func Up(n, mask uint64) (uint64, bool) {
	sum, carry := bits.Add64(n, mask, 0)
	if carry != 0 {
		return 0, false
	}
	return sum &^ mask, true
}

// Down returns n rounded down to the alignment described by mask.
//
// Example:
//
//	Down(0x1FFF, 0xFFF) = 0x1000
func Down(n, mask uint64) uint64 {
	return n &^ mask
}

// IsAligned reports whether n is a multiple of size. size must be a power of two.
func IsAligned(n, size uint64) bool {
	return n&(size-1) == 0
}

// LastAddress returns base+length-1, the inclusive end of a range.
// ok is false when length is zero or the end does not fit in 64 bits.
func LastAddress(base, length uint64) (uint64, bool) {
	if length == 0 {
		return 0, false
	}
	end, carry := bits.Add64(base, length-1, 0)
	return end, carry == 0
}

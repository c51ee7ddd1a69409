// Package cpu provides the hardware side of memory attribute changes.
//
// The space manager records attributes; an AttributeSetter enforces them.
// SetMemorySpaceAttributes translates the requested attribute mask into a
// single CacheType with CacheTypeOf and hands it to the setter before the
// map is touched. A mask with no cache or write-protect bit translates to
// CacheNone and the setter is not called.
//
// Implementations:
//
//   - Recorder keeps every call in memory. Useful for tests and dry runs.
//   - HostMemory backs a window of the space with anonymous host memory and
//     enforces write protection with mprotect (unix only).
package cpu

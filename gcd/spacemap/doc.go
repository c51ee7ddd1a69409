// Package spacemap implements the range-partitioning map behind both GCD
// address spaces.
//
// # Overview
//
// A Map partitions a fixed-width address range [0, 2^N-1] into entries. Each
// entry carries a space type, a capability mask, an attribute mask and an
// owner (image and device handle). The partition is always sorted, gapless
// and non-overlapping:
//
//	[0x000000-0x0FFFFF] non-existent
//	[0x100000-0x10FFFF] system-memory  owner=0
//	[0x110000-0xFFFFFFFF] non-existent
//
// The map is generic over its space-type tag, so one implementation serves
// the memory map (types.MemoryType) and the I/O map (types.IOType).
//
// # Operations
//
//   - Add(t, base, length, caps): type a non-existent, unowned range
//   - Allocate(req): place and own a range using one of five policies
//   - Free(base, length): drop ownership
//   - Remove(base, length): return a typed, unowned range to non-existent
//   - SetAttributes / SetCapabilities: change the attribute masks
//   - Descriptor(addr) / Snapshot(): read-only queries
//
// Every mutating operation follows the same pipeline: search the run of
// entries covering the request, validate every entry, reserve two scratch
// nodes, split the run edges so they align with the request, mutate the run,
// then merge each touched entry with identical neighbours and release unused
// scratch. All validation happens before the first list mutation, so a
// failed call leaves the map exactly as it was.
//
// # Storage
//
// Entries live in an arena slice addressed by index, with a circular
// doubly-linked list threaded through it (index 0 is the list head). Released
// slots are recycled through a free stack and carry a generation counter, so
// a stale scratch handle is detected instead of silently aliasing a reused
// slot. Config.MaxEntries caps the arena; reaching the cap is the only way an
// operation fails with types.ErrOutOfMemory.
//
// # Thread Safety
//
// Each Map owns a sync.Mutex held for the entire body of every operation.
// The hardware hook passed to SetAttributes runs with the lock held and must
// not call back into the same map.
package spacemap

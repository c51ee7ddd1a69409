// Package gcd manages the memory and I/O address spaces of a platform.
//
// # Overview
//
// A Services value holds two independent space maps. Each map partitions its
// whole address range into entries, and every entry records a space type,
// capabilities, attributes in effect and an optional owner:
//
//	[0x0-0x9FFFF system-memory] [0xA0000-0xFFFFF non-existent] [0x100000-... system-memory]
//
// Ranges move through a fixed lifecycle:
//
//	non-existent --Add--> typed, unowned --Allocate--> owned
//	owned --Free--> typed, unowned --Remove--> non-existent
//
// Attribute changes on the memory map are first handed to a cpu.AttributeSetter
// so hardware and the map never disagree.
//
// # Usage
//
//	s, err := gcd.New(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = s.AddMemorySpace(types.MemorySystemMemory, 0x100000, 0x1000000, types.AttrWB|types.AttrUC)
//	base, err := s.AllocateMemorySpace(types.AllocateAnySearchTopDown,
//	    types.MemorySystemMemory, 12, 0x4000, 0, image, types.NullHandle)
//
// Every method is safe for concurrent use. Each fails with a *types.Error
// whose kind can be matched with errors.Is against the types.Err* sentinels,
// and a failed call leaves the map untouched.
package gcd

//go:build unix

package cpu

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/gcdkit/internal/align"
	"github.com/joshuapare/gcdkit/internal/logger"
	"github.com/joshuapare/gcdkit/pkg/types"
)

// HostMemory backs the physical window [base, base+size) with anonymous host
// memory. Write-protected ranges are mapped read-only; every other cache
// type leaves the pages read-write. Ranges outside the window are accepted
// and ignored.
type HostMemory struct {
	mu     sync.Mutex
	base   uint64
	mem    []byte
	page   uint64
	caches map[uint64]CacheType // by window page index; absent means CacheNone
}

// NewHostMemory maps size bytes of host memory for the window starting at base.
// base and size must be multiples of the host page size.
func NewHostMemory(base uint64, size int) (*HostMemory, error) {
	page := uint64(unix.Getpagesize())
	if size <= 0 || !align.IsAligned(uint64(size), page) || !align.IsAligned(base, page) {
		return nil, types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("cpu: host window 0x%x+0x%x is not aligned to the %d byte host page", base, size, page), nil)
	}
	if _, ok := align.LastAddress(base, uint64(size)); !ok {
		return nil, types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("cpu: host window 0x%x+0x%x wraps", base, size), nil)
	}

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("cpu: mmap host window: %w", err)
	}
	return &HostMemory{
		base:   base,
		mem:    mem,
		page:   page,
		caches: make(map[uint64]CacheType),
	}, nil
}

// Base returns the physical address of the first byte of the window.
func (h *HostMemory) Base() uint64 { return h.base }

// Size returns the window size in bytes.
func (h *HostMemory) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.mem)
}

// Bytes returns the host view of the window. Writing to a write-protected
// page faults.
func (h *HostMemory) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem
}

// ApplyHardwareAttributes implements AttributeSetter.
func (h *HostMemory) ApplyHardwareAttributes(base, length uint64, cache CacheType) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.mem == nil {
		return errors.New("cpu: host window is closed")
	}
	last, ok := align.LastAddress(base, length)
	if length == 0 || !ok {
		return types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("cpu: bad range 0x%x+0x%x", base, length), nil)
	}

	// Clip to the window.
	winLast := h.base + uint64(len(h.mem)) - 1
	if last < h.base || base > winLast {
		return nil
	}
	lo := max(base, h.base) - h.base
	hi := min(last, winLast) - h.base + 1
	if !align.IsAligned(lo, h.page) || !align.IsAligned(hi, h.page) {
		return types.NewError(types.ErrKindInvalidArgument,
			fmt.Sprintf("cpu: range 0x%x+0x%x is not aligned to the %d byte host page", base, length, h.page), nil)
	}

	prot := unix.PROT_READ | unix.PROT_WRITE
	if cache == CacheWriteProtected {
		prot = unix.PROT_READ
	}
	if err := unix.Mprotect(h.mem[lo:hi], prot); err != nil {
		return fmt.Errorf("cpu: mprotect 0x%x+0x%x %s: %w", h.base+lo, hi-lo, cache, err)
	}

	for p := lo / h.page; p < hi/h.page; p++ {
		if cache == CacheNone {
			delete(h.caches, p)
		} else {
			h.caches[p] = cache
		}
	}
	logger.Debug("cpu: host window updated", "base", h.base+lo, "length", hi-lo, "cache", cache.String())
	return nil
}

// CacheTypeAt reports the cache type last applied to addr. ok is false when
// addr is outside the window.
func (h *HostMemory) CacheTypeAt(addr uint64) (CacheType, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if addr < h.base || addr-h.base >= uint64(len(h.mem)) {
		return CacheNone, false
	}
	return h.caches[(addr-h.base)/h.page], true
}

// Close unmaps the window. Closing twice is a no-op.
func (h *HostMemory) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.mem == nil {
		return nil
	}
	err := unix.Munmap(h.mem)
	h.mem = nil
	return err
}

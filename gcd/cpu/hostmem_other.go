//go:build !unix

package cpu

import "github.com/joshuapare/gcdkit/pkg/types"

var errNoHostMemory = types.NewError(types.ErrKindUnsupported, "cpu: host memory windows need mmap", nil)

// HostMemory is unavailable on this platform.
type HostMemory struct{}

// NewHostMemory always fails where mmap is not available.
func NewHostMemory(base uint64, size int) (*HostMemory, error) {
	return nil, errNoHostMemory
}

func (h *HostMemory) Base() uint64 { return 0 }

func (h *HostMemory) Size() int { return 0 }

func (h *HostMemory) Bytes() []byte { return nil }

func (h *HostMemory) ApplyHardwareAttributes(base, length uint64, cache CacheType) error {
	return errNoHostMemory
}

func (h *HostMemory) CacheTypeAt(addr uint64) (CacheType, bool) { return CacheNone, false }

func (h *HostMemory) Close() error { return nil }

package gcd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joshuapare/gcdkit/gcd/cpu"
	"github.com/joshuapare/gcdkit/gcd/spacemap"
	"github.com/joshuapare/gcdkit/internal/logger"
	"github.com/joshuapare/gcdkit/pkg/types"
)

const (
	// DefaultMemoryAddressBits is the memory space width used when Options leaves it zero.
	DefaultMemoryAddressBits = 48

	// DefaultIOAddressBits is the I/O space width used when Options leaves it zero.
	DefaultIOAddressBits = 16
)

// Options configures New. A nil *Options uses every default.
type Options struct {
	// MemoryAddressBits is the memory space width N; addresses run 0..2^N-1.
	MemoryAddressBits uint

	// IOAddressBits is the I/O space width.
	IOAddressBits uint

	// MaxEntries caps the entries of each map. Operations that would need
	// more fail with types.ErrOutOfMemory. 0 means unlimited.
	MaxEntries int

	// CPU enforces memory attributes in hardware. nil records attributes only.
	CPU cpu.AttributeSetter

	// Logger receives Debug records for every operation. Default: logger.L.
	Logger *slog.Logger
}

// Services is the space manager. Create with New.
type Services struct {
	mem *spacemap.Map[types.MemoryType]
	io  *spacemap.Map[types.IOType]
	cpu cpu.AttributeSetter
	log *slog.Logger
}

// New creates a manager whose maps each hold a single non-existent entry.
func New(opts *Options) (*Services, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.MemoryAddressBits == 0 {
		o.MemoryAddressBits = DefaultMemoryAddressBits
	}
	if o.IOAddressBits == 0 {
		o.IOAddressBits = DefaultIOAddressBits
	}
	if o.Logger == nil {
		o.Logger = logger.L
	}

	mem, err := spacemap.New(spacemap.Config[types.MemoryType]{
		Name:        "memory",
		AddressBits: o.MemoryAddressBits,
		NonExistent: types.MemoryNonExistent,
		MaxEntries:  o.MaxEntries,
	})
	if err != nil {
		return nil, err
	}
	ports, err := spacemap.New(spacemap.Config[types.IOType]{
		Name:        "io",
		AddressBits: o.IOAddressBits,
		NonExistent: types.IONonExistent,
		MaxEntries:  o.MaxEntries,
	})
	if err != nil {
		return nil, err
	}

	s := &Services{mem: mem, io: ports, cpu: o.CPU, log: o.Logger}
	s.log.Debug("gcd: initialized",
		"memory_bits", o.MemoryAddressBits, "io_bits", o.IOAddressBits, "max_entries", o.MaxEntries)
	return s, nil
}

// MemoryAddressBits returns the width of the memory space.
func (s *Services) MemoryAddressBits() uint { return s.mem.AddressBits() }

// IOAddressBits returns the width of the I/O space.
func (s *Services) IOAddressBits() uint { return s.io.AddressBits() }

// MemoryStats returns the memory map counters.
func (s *Services) MemoryStats() spacemap.Stats { return s.mem.Stats() }

// IoStats returns the I/O map counters.
func (s *Services) IoStats() spacemap.Stats { return s.io.Stats() }

// Validate checks the structural invariants of both maps.
func (s *Services) Validate() error {
	if err := s.mem.Validate(); err != nil {
		return err
	}
	return s.io.Validate()
}

// trace logs one finished operation and, at debug level, the map it changed.
func (s *Services) trace(op string, base, length uint64, err error, dump func(io.Writer) error) {
	if !s.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	status := "success"
	if err != nil {
		status = err.Error()
	}
	s.log.Debug("gcd: "+op,
		"base", fmt.Sprintf("%#x", base), "length", fmt.Sprintf("%#x", length), "status", status)
	if err != nil || dump == nil {
		return
	}
	var b strings.Builder
	if dump(&b) == nil {
		s.log.Debug("gcd: map after "+op, "map", b.String())
	}
}

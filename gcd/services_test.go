package gcd

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/gcdkit/gcd/cpu"
	"github.com/joshuapare/gcdkit/internal/logger"
	"github.com/joshuapare/gcdkit/pkg/types"
)

const (
	capsRW = types.AttrWB | types.AttrWT | types.AttrXP | types.AttrRP

	image  types.Handle = 0x1000
	device types.Handle = 0x2000
)

func newServices(t *testing.T, opts *Options) *Services {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

// newOneMegMap returns a manager with 32-bit memory holding SystemMemory at 1MB.
func newOneMegMap(t *testing.T, setter cpu.AttributeSetter) *Services {
	t.Helper()
	s := newServices(t, &Options{MemoryAddressBits: 32, CPU: setter})
	require.NoError(t, s.AddMemorySpace(types.MemorySystemMemory, 0x100000, 0x10000, capsRW))
	return s
}

func TestNewDefaults(t *testing.T) {
	s := newServices(t, nil)
	assert.Equal(t, uint(DefaultMemoryAddressBits), s.MemoryAddressBits())
	assert.Equal(t, uint(DefaultIOAddressBits), s.IOAddressBits())

	mem, err := s.GetMemorySpaceMap()
	require.NoError(t, err)
	require.Len(t, mem, 1)
	assert.Equal(t, types.MemorySpaceDescriptor{Length: 1 << 48}, mem[0])

	ports, err := s.GetIoSpaceMap()
	require.NoError(t, err)
	assert.Equal(t, []types.IOSpaceDescriptor{{Length: 1 << 16}}, ports)
	require.NoError(t, s.Validate())
}

func TestNewRejectsBadWidths(t *testing.T) {
	_, err := New(&Options{MemoryAddressBits: 64})
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = New(&Options{IOAddressBits: 70})
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = New(&Options{MaxEntries: -1})
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestAddAllocateFreeSetAttributes(t *testing.T) {
	rec := &cpu.Recorder{}
	s := newOneMegMap(t, rec)

	// Three entries, the middle one present and unowned.
	mem, err := s.GetMemorySpaceMap()
	require.NoError(t, err)
	assert.Equal(t, []types.MemorySpaceDescriptor{
		{BaseAddress: 0, Length: 0x100000, Type: types.MemoryNonExistent},
		{BaseAddress: 0x100000, Length: 0x10000, Type: types.MemorySystemMemory, Capabilities: capsRW | types.AttrRuntime},
		{BaseAddress: 0x110000, Length: 0x100000000 - 0x110000, Type: types.MemoryNonExistent},
	}, mem)

	// The lowest page goes to the first bottom-up request.
	base, err := s.AllocateMemorySpace(types.AllocateAnySearchBottomUp, types.MemorySystemMemory, 12, 0x1000, 0, image, types.NullHandle)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x100000), base)
	d, err := s.GetMemorySpaceDescriptor(0x100000)
	require.NoError(t, err)
	assert.Equal(t, image, d.ImageHandle)
	assert.Equal(t, uint64(0x1000), d.Length)

	// Freeing it restores a single unowned SystemMemory entry.
	require.NoError(t, s.FreeMemorySpace(0x100000, 0x1000))
	d, err = s.GetMemorySpaceDescriptor(0x100000)
	require.NoError(t, err)
	assert.False(t, d.Allocated())
	assert.Equal(t, uint64(0x10000), d.Length)
	assert.Equal(t, types.MemorySystemMemory, d.Type)

	// UC is not a capability of the range.
	err = s.SetMemorySpaceAttributes(0x100000, 0x1000, types.AttrUC)
	require.ErrorIs(t, err, types.ErrUnsupported)
	d, err = s.GetMemorySpaceDescriptor(0x100000)
	require.NoError(t, err)
	assert.Zero(t, d.Attributes)
	assert.Empty(t, rec.Calls())

	require.NoError(t, s.Validate())
}

func TestAddMemorySpaceValidatesType(t *testing.T) {
	s := newServices(t, &Options{MemoryAddressBits: 32})

	err := s.AddMemorySpace(types.MemoryType(42), 0, 0x1000, 0)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	err = s.AddMemorySpace(types.MemoryNonExistent, 0, 0x1000, 0)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = s.AllocateMemorySpace(types.AllocateAnySearchBottomUp, types.MemoryType(42), 0, 0x1000, 0, image, 0)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestSetMemorySpaceAttributesDrivesCPU(t *testing.T) {
	rec := &cpu.Recorder{}
	s := newOneMegMap(t, rec)

	require.NoError(t, s.SetMemorySpaceAttributes(0x100000, 0x2000, types.AttrWB|types.AttrXP))
	assert.Equal(t, []cpu.Call{{Base: 0x100000, Length: 0x2000, Cache: cpu.CacheWriteBack}}, rec.Calls())

	d, err := s.GetMemorySpaceDescriptor(0x101FFF)
	require.NoError(t, err)
	assert.Equal(t, types.AttrWB|types.AttrXP, d.Attributes)
	assert.Equal(t, uint64(0x2000), d.Length)

	// No cache bit: recorded in the map, hardware left alone.
	rec.Reset()
	require.NoError(t, s.SetMemorySpaceAttributes(0x108000, 0x1000, types.AttrXP|types.AttrRuntime))
	assert.Empty(t, rec.Calls())
	d, err = s.GetMemorySpaceDescriptor(0x108000)
	require.NoError(t, err)
	assert.Equal(t, types.AttrXP|types.AttrRuntime, d.Attributes)
}

func TestSetMemorySpaceAttributesCPUFailure(t *testing.T) {
	errMTRR := errors.New("no free variable MTRR")
	rec := &cpu.Recorder{Err: errMTRR}
	s := newOneMegMap(t, rec)
	before, err := s.GetMemorySpaceMap()
	require.NoError(t, err)

	err = s.SetMemorySpaceAttributes(0x100000, 0x1000, types.AttrWT)
	require.ErrorIs(t, err, errMTRR)
	assert.Len(t, rec.Calls(), 1)

	after, err := s.GetMemorySpaceMap()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	require.NoError(t, s.Validate())
}

func TestSetMemorySpaceCapabilities(t *testing.T) {
	s := newOneMegMap(t, nil)

	require.NoError(t, s.SetMemorySpaceCapabilities(0x100000, 0x10000, capsRW|types.AttrUC))
	require.NoError(t, s.SetMemorySpaceAttributes(0x100000, 0x1000, types.AttrUC))

	err := s.SetMemorySpaceCapabilities(0x100000, 0x10000, capsRW)
	require.ErrorIs(t, err, types.ErrUnsupported)

	err = s.SetMemorySpaceCapabilities(0x100000, 0x800, capsRW|types.AttrUC)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestRemoveMemorySpace(t *testing.T) {
	s := newOneMegMap(t, nil)

	_, err := s.AllocateMemorySpace(types.AllocateAddress, types.MemorySystemMemory, 0, 0x1000, 0x10F000, image, device)
	require.NoError(t, err)
	require.ErrorIs(t, s.RemoveMemorySpace(0x100000, 0x10000), types.ErrAccessDenied)

	require.NoError(t, s.RemoveMemorySpace(0x100000, 0xF000))
	require.NoError(t, s.FreeMemorySpace(0x10F000, 0x1000))
	require.NoError(t, s.RemoveMemorySpace(0x10F000, 0x1000))

	mem, err := s.GetMemorySpaceMap()
	require.NoError(t, err)
	assert.Len(t, mem, 1)

	_, err = s.GetMemorySpaceDescriptor(1 << 32)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestIoSpace(t *testing.T) {
	s := newServices(t, nil)

	require.NoError(t, s.AddIoSpace(types.IOPort, 0, 0x10000))
	require.ErrorIs(t, s.AddIoSpace(types.IOPort, 0x80, 0x10), types.ErrAccessDenied)
	require.ErrorIs(t, s.AddIoSpace(types.IOType(9), 0, 1), types.ErrInvalidArgument)
	require.ErrorIs(t, s.AddIoSpace(types.IONonExistent, 0, 1), types.ErrInvalidArgument)

	base, err := s.AllocateIoSpace(types.AllocateAddress, types.IOPort, 0, 8, 0xCF8, image, device)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xCF8), base)

	base, err = s.AllocateIoSpace(types.AllocateMaxAddressSearchTopDown, types.IOPort, 4, 0x20, 0xFFF, image, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFE0), base)

	_, err = s.AllocateIoSpace(types.AllocateAnySearchBottomUp, types.IOType(9), 0, 1, 0, image, 0)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	d, err := s.GetIoSpaceDescriptor(0xCFC)
	require.NoError(t, err)
	assert.Equal(t, types.IOSpaceDescriptor{
		BaseAddress: 0xCF8, Length: 8, Type: types.IOPort, ImageHandle: image, DeviceHandle: device,
	}, d)

	require.ErrorIs(t, s.RemoveIoSpace(0, 0x10000), types.ErrAccessDenied)
	require.NoError(t, s.FreeIoSpace(0xCF8, 8))
	require.NoError(t, s.FreeIoSpace(0xFE0, 0x20))
	require.NoError(t, s.RemoveIoSpace(0, 0x10000))

	ports, err := s.GetIoSpaceMap()
	require.NoError(t, err)
	assert.Len(t, ports, 1)

	st := s.IoStats()
	assert.Equal(t, 1, st.Adds)
	assert.Equal(t, 2, st.Allocations)
	assert.Equal(t, 2, st.Frees)
	assert.Equal(t, 1, st.Removes)
}

func TestOutOfMemory(t *testing.T) {
	s := newServices(t, &Options{MemoryAddressBits: 32, MaxEntries: 3})
	require.NoError(t, s.AddMemorySpace(types.MemorySystemMemory, 0x100000, 0x10000, capsRW))

	_, err := s.AllocateMemorySpace(types.AllocateAnySearchBottomUp, types.MemorySystemMemory, 12, 0x1000, 0, image, 0)
	require.ErrorIs(t, err, types.ErrOutOfMemory)
	assert.Equal(t, 3, s.MemoryStats().Entries)
}

func TestMemoryAndIoAreIndependent(t *testing.T) {
	s := newServices(t, &Options{MemoryAddressBits: 32})
	require.NoError(t, s.AddMemorySpace(types.MemorySystemMemory, 0, 0x1000000, capsRW))
	require.NoError(t, s.AddIoSpace(types.IOPort, 0, 0x10000))

	var wg sync.WaitGroup
	errs := make(chan error, 128)
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 16 {
				_, err := s.AllocateMemorySpace(types.AllocateAnySearchTopDown, types.MemorySystemMemory, 12, 0x1000, 0, image, 0)
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			for range 16 {
				_, err := s.AllocateIoSpace(types.AllocateAnySearchBottomUp, types.IOPort, 2, 4, 0, image, 0)
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 64, s.MemoryStats().Allocations)
	assert.Equal(t, 64, s.IoStats().Allocations)
	require.NoError(t, s.Validate())
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Enabled: true, Writer: &buf, Level: slog.LevelDebug})
	s := newServices(t, &Options{MemoryAddressBits: 32, Logger: log})

	require.NoError(t, s.AddMemorySpace(types.MemorySystemMemory, 0x100000, 0x10000, capsRW))
	require.Error(t, s.FreeMemorySpace(0x100000, 0x1000))

	out := buf.String()
	assert.Contains(t, out, "gcd: AddMemorySpace")
	assert.Contains(t, out, "base=0x100000")
	assert.Contains(t, out, "status=success")
	assert.Contains(t, out, "gcd: map after AddMemorySpace")
	assert.Contains(t, out, "gcd: FreeMemorySpace")
	assert.Equal(t, 1, strings.Count(out, "map after"), "failed operations do not dump the map")
}

func TestDebugRecordsNeedDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Enabled: true, Writer: &buf, Level: slog.LevelInfo})
	s := newServices(t, &Options{Logger: log})
	require.NoError(t, s.AddIoSpace(types.IOPort, 0, 0x100))
	assert.Empty(t, buf.String())
}

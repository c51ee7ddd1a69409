//go:build unix

package gcd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/gcdkit/gcd/cpu"
	"github.com/joshuapare/gcdkit/pkg/types"
)

func TestSetMemorySpaceAttributesOnHostMemory(t *testing.T) {
	const base, size = 0x100000, 0x40000

	host, err := cpu.NewHostMemory(base, size)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, host.Close()) })

	s := newServices(t, &Options{MemoryAddressBits: 32, CPU: host})
	require.NoError(t, s.AddMemorySpace(types.MemorySystemMemory, base, size, capsRW|types.AttrWP))

	buf, err := s.AllocateMemorySpace(types.AllocateAnySearchBottomUp, types.MemorySystemMemory,
		16, 0x10000, 0, image, types.NullHandle)
	require.NoError(t, err)
	require.NoError(t, s.SetMemorySpaceAttributes(buf, 0x10000, types.AttrWP))

	c, ok := host.CacheTypeAt(buf)
	require.True(t, ok)
	assert.Equal(t, cpu.CacheWriteProtected, c)
	c, _ = host.CacheTypeAt(buf + 0x10000)
	assert.Equal(t, cpu.CacheNone, c, "neighbouring pages keep their mapping")

	require.NoError(t, s.SetMemorySpaceAttributes(buf, 0x10000, types.AttrWB))
	host.Bytes()[buf-base] = 0xAA
	c, _ = host.CacheTypeAt(buf)
	assert.Equal(t, cpu.CacheWriteBack, c)

	// Ranges outside the host window are recorded but never reach the host.
	require.NoError(t, s.AddMemorySpace(types.MemoryMappedIO, 0xFEC00000, 0x1000, types.AttrUC))
	require.NoError(t, s.SetMemorySpaceAttributes(0xFEC00000, 0x1000, types.AttrUC))
	_, ok = host.CacheTypeAt(0xFEC00000)
	assert.False(t, ok)
	require.NoError(t, s.Validate())
}

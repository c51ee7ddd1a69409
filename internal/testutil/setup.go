// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"os"
	"testing"

	"github.com/joshuapare/gcdkit/gcd"
	"github.com/joshuapare/gcdkit/gcd/cpu"
	"github.com/joshuapare/gcdkit/gcd/hob"
)

// PlatformHandOff is the path, from the repository root, of a hand-off
// document describing a legacy PC with 3 GiB of RAM below 4 GiB.
const PlatformHandOff = "gcd/hob/testdata/platform.yaml"

// SetupPlatform boots a manager from PlatformHandOff with a recording CPU.
// Calls t.Skip if the document is not found.
//
// Example:
//
//	s, rec := testutil.SetupPlatform(t)
//	_ = s.SetMemorySpaceAttributes(0x0, 0x1000, types.AttrWB)
//	calls := rec.Calls()
func SetupPlatform(t *testing.T) (*gcd.Services, *cpu.Recorder) {
	t.Helper()
	return SetupFrom(t, PlatformHandOff)
}

// SetupFrom is like SetupPlatform but boots from the given document.
func SetupFrom(t *testing.T, relativePath string) (*gcd.Services, *cpu.Recorder) {
	t.Helper()

	h, err := hob.Load(ResolvePath(t, relativePath))
	if err != nil {
		t.Fatalf("Failed to load hand-off: %v", err)
	}

	rec := &cpu.Recorder{}
	s, err := hob.Boot(h, &gcd.Options{CPU: rec})
	if err != nil {
		t.Fatalf("Failed to boot: %v", err)
	}
	return s, rec
}

// ResolvePath finds a file given relative to the repository root by trying
// the current package directory and its ancestors. Tests may run from any
// package depth.
func ResolvePath(t *testing.T, relativePath string) string {
	t.Helper()

	// Try paths in order of likelihood
	candidates := []string{
		relativePath,                  // Direct path (from repo root)
		"../" + relativePath,          // From a top-level package (e.g., gcd/)
		"../../" + relativePath,       // From package two levels deep (e.g., cmd/gcdctl/)
		"../../../" + relativePath,    // From package three levels deep
		"../../../../" + relativePath, // From package four levels deep
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	t.Skipf("Test file not found at any candidate path starting from: %s", relativePath)
	return "" // unreachable
}

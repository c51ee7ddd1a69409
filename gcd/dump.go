package gcd

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/gcdkit/pkg/types"
)

const memoryHeader = "" +
	"TYPE           RANGE                             CAPABILITIES     ATTRIBUTES       IMAGE            DEVICE\n" +
	"============== ================================= ================ ================ ================ ================\n"

const ioHeader = "" +
	"TYPE           RANGE                             IMAGE            DEVICE\n" +
	"============== ================================= ================ ================\n"

// WriteMemoryMap writes a table of the memory map followed by the number of
// present and allocated pages.
func (s *Services) WriteMemoryMap(w io.Writer) error {
	descs, err := s.GetMemorySpaceMap()
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "memory space map: %d-bit, %d entries\n", s.mem.AddressBits(), len(descs))
	b.WriteString(memoryHeader)

	var present, allocated uint64
	for _, d := range descs {
		fmt.Fprintf(&b, "%-14s %016X-%016X %016X %016X %016X %016X\n",
			d.Type, d.BaseAddress, d.EndAddress(), uint64(d.Capabilities), uint64(d.Attributes),
			uint64(d.ImageHandle), uint64(d.DeviceHandle))
		if d.Type != types.MemoryNonExistent {
			present += pagesOf(d.Length)
		}
		if d.Allocated() {
			allocated += pagesOf(d.Length)
		}
	}
	// Totals get digit grouping; addresses stay plain hex.
	counts := message.NewPrinter(language.English)
	b.WriteString(counts.Sprintf("present: %d pages, allocated: %d pages\n", present, allocated))

	_, err = io.WriteString(w, b.String())
	return err
}

// WriteIoMap writes a table of the I/O map followed by the number of present
// and allocated ports.
func (s *Services) WriteIoMap(w io.Writer) error {
	descs, err := s.GetIoSpaceMap()
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "io space map: %d-bit, %d entries\n", s.io.AddressBits(), len(descs))
	b.WriteString(ioHeader)

	var present, allocated uint64
	for _, d := range descs {
		fmt.Fprintf(&b, "%-14s %016X-%016X %016X %016X\n",
			d.Type, d.BaseAddress, d.EndAddress(), uint64(d.ImageHandle), uint64(d.DeviceHandle))
		if d.Type != types.IONonExistent {
			present += d.Length
		}
		if d.Allocated() {
			allocated += d.Length
		}
	}
	counts := message.NewPrinter(language.English)
	b.WriteString(counts.Sprintf("present: %d ports, allocated: %d ports\n", present, allocated))

	_, err = io.WriteString(w, b.String())
	return err
}

// pagesOf rounds length up to whole pages.
func pagesOf(length uint64) uint64 {
	return length/types.PageSize + min(length%types.PageSize, 1)
}

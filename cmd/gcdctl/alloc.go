package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/gcdkit/gcd/hob"
	"github.com/joshuapare/gcdkit/pkg/types"
)

var (
	allocSpace  string
	allocType   string
	allocPolicy string
	allocLength string
	allocAlign  uint
	allocHint   string
	allocImage  string
	allocDevice string
)

func init() {
	cmd := newAllocCmd()
	cmd.Flags().StringVar(&allocSpace, "space", "memory", "Space to allocate from: memory or io")
	cmd.Flags().StringVar(&allocType, "type", "", "Space type to allocate (e.g. system-memory, mmio, io)")
	cmd.Flags().StringVar(&allocPolicy, "policy", types.AllocateAnySearchBottomUp.String(),
		"Placement policy: any-bottom-up, any-top-down, max-address-bottom-up, max-address-top-down, at-address")
	cmd.Flags().StringVar(&allocLength, "length", "", "Number of bytes (or ports) to allocate")
	cmd.Flags().UintVar(&allocAlign, "align", 0, "Alignment as a power-of-two exponent (12 = 4KiB)")
	cmd.Flags().StringVar(&allocHint, "hint", "0", "Exact base for at-address, highest address for max-address policies")
	cmd.Flags().StringVar(&allocImage, "image", "0x1", "Owner image handle")
	cmd.Flags().StringVar(&allocDevice, "device", "0", "Owner device handle")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("length")
	rootCmd.AddCommand(cmd)
}

func newAllocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alloc <handoff.yaml>",
		Short: "Try an allocation against the seeded maps",
		Long: `The alloc command seeds a space manager from the hand-off document,
performs one allocation and prints where it landed. Nothing is saved.

Example:
  gcdctl alloc platform.yaml --type system-memory --length 0x4000 --align 12
  gcdctl alloc platform.yaml --type system-memory --length 0x1000 --policy max-address-top-down --hint 0xFFFFFFFF
  gcdctl alloc platform.yaml --space io --type io --length 8 --policy at-address --hint 0x3F8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlloc(args)
		},
	}
	return cmd
}

// allocRequest is the parsed form of the alloc flags.
type allocRequest struct {
	policy        types.AllocateType
	length, hint  uint64
	image, device types.Handle
}

func parseAllocFlags() (allocRequest, error) {
	var (
		r   allocRequest
		err error
	)
	if r.policy, err = types.ParseAllocateType(allocPolicy); err != nil {
		return r, err
	}
	if r.length, err = parseNumber("length", allocLength); err != nil {
		return r, err
	}
	if r.hint, err = parseNumber("hint", allocHint); err != nil {
		return r, err
	}
	image, err := parseNumber("image", allocImage)
	if err != nil {
		return r, err
	}
	device, err := parseNumber("device", allocDevice)
	if err != nil {
		return r, err
	}
	r.image, r.device = types.Handle(image), types.Handle(device)
	return r, nil
}

func runAlloc(args []string) error {
	space, err := checkSpace(allocSpace)
	if err != nil {
		return err
	}
	req, err := parseAllocFlags()
	if err != nil {
		return err
	}
	s, err := boot(args[0])
	if err != nil {
		return err
	}

	if space == hob.SpaceIO {
		t, err := types.ParseIOType(allocType)
		if err != nil {
			return err
		}
		base, err := s.AllocateIoSpace(req.policy, t, allocAlign, req.length, req.hint, req.image, req.device)
		if err != nil {
			return fmt.Errorf("allocation failed: %w", err)
		}
		d, err := s.GetIoSpaceDescriptor(base)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(newIOView(d))
		}
		printInfo("Allocated 0x%x-0x%x (%s)\n", base, base+req.length-1, t)
		return nil
	}

	t, err := types.ParseMemoryType(allocType)
	if err != nil {
		return err
	}
	base, err := s.AllocateMemorySpace(req.policy, t, allocAlign, req.length, req.hint, req.image, req.device)
	if err != nil {
		return fmt.Errorf("allocation failed: %w", err)
	}
	d, err := s.GetMemorySpaceDescriptor(base)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(newMemoryView(d))
	}
	printInfo("Allocated 0x%x-0x%x (%s)\n", base, base+req.length-1, t)
	printVerbose("Entry: 0x%x-0x%x caps %s\n", d.BaseAddress, d.EndAddress(), d.Capabilities)
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/gcdkit/gcd/hob"
)

var describeSpace string

func init() {
	cmd := newDescribeCmd()
	cmd.Flags().StringVar(&describeSpace, "space", "memory", "Space to query: memory or io")
	rootCmd.AddCommand(cmd)
}

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <handoff.yaml> <address>",
		Short: "Describe the map entry containing an address",
		Long: `The describe command prints the entry of the memory or I/O map that
contains the given address.

Example:
  gcdctl describe platform.yaml 0xFEE00000
  gcdctl describe platform.yaml 0xCF8 --space io --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(args)
		},
	}
	return cmd
}

func runDescribe(args []string) error {
	space, err := checkSpace(describeSpace)
	if err != nil {
		return err
	}
	addr, err := parseNumber("address", args[1])
	if err != nil {
		return err
	}
	s, err := boot(args[0])
	if err != nil {
		return err
	}

	if space == hob.SpaceIO {
		d, err := s.GetIoSpaceDescriptor(addr)
		if err != nil {
			return fmt.Errorf("failed to describe 0x%x: %w", addr, err)
		}
		if jsonOut {
			return printJSON(newIOView(d))
		}
		printInfo("Range:  0x%x-0x%x (%d ports)\n", d.BaseAddress, d.EndAddress(), d.Length)
		printInfo("Type:   %s\n", d.Type)
		printOwner(uint64(d.ImageHandle), uint64(d.DeviceHandle))
		return nil
	}

	d, err := s.GetMemorySpaceDescriptor(addr)
	if err != nil {
		return fmt.Errorf("failed to describe 0x%x: %w", addr, err)
	}
	if jsonOut {
		return printJSON(newMemoryView(d))
	}
	printInfo("Range:        0x%x-0x%x (0x%x bytes)\n", d.BaseAddress, d.EndAddress(), d.Length)
	printInfo("Type:         %s\n", d.Type)
	printInfo("Capabilities: %s\n", d.Capabilities)
	printInfo("Attributes:   %s\n", d.Attributes)
	printOwner(uint64(d.ImageHandle), uint64(d.DeviceHandle))
	return nil
}

func printOwner(image, device uint64) {
	if image == 0 {
		printInfo("Owner:  free\n")
		return
	}
	printInfo("Owner:  image 0x%x, device 0x%x\n", image, device)
}

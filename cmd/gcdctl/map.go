package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/gcdkit/gcd/hob"
)

var mapSpace string

func init() {
	cmd := newMapCmd()
	cmd.Flags().StringVar(&mapSpace, "space", "memory", "Space to print: memory or io")
	rootCmd.AddCommand(cmd)
}

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <handoff.yaml>",
		Short: "Print the memory or I/O space map",
		Long: `The map command seeds a space manager from the hand-off document and
prints every entry of one map in address order.

Example:
  gcdctl map platform.yaml
  gcdctl map platform.yaml --space io
  gcdctl map platform.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(args)
		},
	}
	return cmd
}

func runMap(args []string) error {
	space, err := checkSpace(mapSpace)
	if err != nil {
		return err
	}
	s, err := boot(args[0])
	if err != nil {
		return err
	}

	if space == hob.SpaceIO {
		if jsonOut {
			descs, err := s.GetIoSpaceMap()
			if err != nil {
				return err
			}
			views := make([]ioView, len(descs))
			for i, d := range descs {
				views[i] = newIOView(d)
			}
			return printJSON(views)
		}
		if quiet {
			return nil
		}
		if err := s.WriteIoMap(os.Stdout); err != nil {
			return fmt.Errorf("failed to print io map: %w", err)
		}
		return nil
	}

	if jsonOut {
		descs, err := s.GetMemorySpaceMap()
		if err != nil {
			return err
		}
		views := make([]memoryView, len(descs))
		for i, d := range descs {
			views[i] = newMemoryView(d)
		}
		return printJSON(views)
	}
	if quiet {
		return nil
	}
	if err := s.WriteMemoryMap(os.Stdout); err != nil {
		return fmt.Errorf("failed to print memory map: %w", err)
	}
	return nil
}

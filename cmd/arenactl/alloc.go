package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/arena/alloc"
)

func init() {
	rootCmd.AddCommand(newAllocCmd(), newFreeCmd())
}

func newAllocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alloc <file> <size>...",
		Short: "Allocate regions and print their offsets",
		Long: `The alloc command reserves one region per size argument in a single
transaction. If any allocation fails, the ones before it are released and
the command exits non-zero.

Example:
  arenactl alloc pool.arena 128 4K
  arenactl alloc pool.arena 64 --json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlloc(cmd.Context(), args)
		},
	}
}

func newFreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "free <file> <offset>...",
		Short: "Release allocated regions",
		Long: `The free command releases the regions starting at each offset, merging
them with free neighbours. Offsets may be decimal or 0x-prefixed. All frees
run in one transaction.

Example:
  arenactl free pool.arena 0x80 0`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFree(cmd.Context(), args)
		},
	}
}

// Allocation is one alloc result.
type Allocation struct {
	Offset alloc.RelativePtr `json:"offset"`
	Size   uint32            `json:"size"`
}

func runAlloc(ctx context.Context, args []string) error {
	sizes := make([]uint32, 0, len(args)-1)
	for _, s := range args[1:] {
		n, err := parseSize(s)
		if err != nil {
			return err
		}
		sizes = append(sizes, n)
	}

	f, err := openArena(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var out []Allocation
	err = f.Update(orBackground(ctx), func(a *arena.Arena) error {
		for _, n := range sizes {
			p, err := a.Alloc(n)
			if err != nil {
				// Rollback does not undo bookkeeping writes to the mapping.
				for i := len(out) - 1; i >= 0; i-- {
					_ = a.Dealloc(out[i].Offset)
				}
				return fmt.Errorf("alloc %d: %w", n, err)
			}
			out = append(out, Allocation{Offset: p, Size: n})
		}
		return nil
	})
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out)
	}
	for _, r := range out {
		printInfo("0x%08X  %d bytes\n", r.Offset, r.Size)
	}
	return nil
}

func runFree(ctx context.Context, args []string) error {
	ptrs := make([]alloc.RelativePtr, 0, len(args)-1)
	for _, s := range args[1:] {
		p, err := parsePtr(s)
		if err != nil {
			return err
		}
		ptrs = append(ptrs, p)
	}

	f, err := openArena(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	err = f.Update(orBackground(ctx), func(a *arena.Arena) error {
		// Check every offset first so a bad one leaves the arena untouched.
		seen := make(map[alloc.RelativePtr]bool, len(ptrs))
		for _, p := range ptrs {
			if _, ok := a.Lookup(p); !ok || seen[p] {
				return fmt.Errorf("free 0x%X: %w", p, alloc.ErrInvalidFree)
			}
			seen[p] = true
		}
		for _, p := range ptrs {
			if err := a.Dealloc(p); err != nil {
				return fmt.Errorf("free 0x%X: %w", p, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	printInfo("Freed %d region(s)\n", len(ptrs))
	return nil
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

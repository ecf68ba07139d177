package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena/alloc"
)

var (
	regionsFree bool
	regionsUsed bool
)

func init() {
	cmd := newRegionsCmd()
	cmd.Flags().BoolVar(&regionsFree, "free", false, "Only list free regions")
	cmd.Flags().BoolVar(&regionsUsed, "used", false, "Only list used regions")
	rootCmd.AddCommand(cmd)
}

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions <file>",
		Short: "List free and used regions",
		Long: `The regions command prints every region of the arena in offset order,
marked free or used.

Example:
  arenactl regions pool.arena
  arenactl regions pool.arena --free --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegions(args)
		},
	}
}

// RegionEntry is one row of the regions listing.
type RegionEntry struct {
	Offset uint32 `json:"offset"`
	Size   uint32 `json:"size"`
	State  string `json:"state"`
}

func runRegions(args []string) error {
	f, err := openArena(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	showFree, showUsed := !regionsUsed || regionsFree, !regionsFree || regionsUsed
	var free, used []alloc.Region
	if showFree {
		free = f.FreeRegions()
	}
	if showUsed {
		used = f.UsedRegions()
	}
	entries := mergeRegions(free, used)

	if jsonOut {
		return printJSON(entries)
	}
	for _, e := range entries {
		printInfo("0x%08X  %-4s  %d\n", e.Offset, e.State, e.Size)
	}
	printVerbose("%d region(s)\n", len(entries))
	return nil
}

// mergeRegions interleaves two offset-sorted lists.
func mergeRegions(free, used []alloc.Region) []RegionEntry {
	out := make([]RegionEntry, 0, len(free)+len(used))
	i, j := 0, 0
	for i < len(free) || j < len(used) {
		if j == len(used) || (i < len(free) && free[i].Offset < used[j].Offset) {
			out = append(out, RegionEntry{Offset: free[i].Offset, Size: free[i].Size, State: "free"})
			i++
			continue
		}
		out = append(out, RegionEntry{Offset: used[j].Offset, Size: used[j].Size, State: "used"})
		j++
	}
	return out
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena/repair"
)

var (
	repairDryRun      bool
	repairDropInvalid bool
)

func init() {
	cmd := newRepairCmd()
	cmd.Flags().BoolVar(&repairDryRun, "dry-run", false, "Report what would change without writing")
	cmd.Flags().BoolVar(&repairDropInvalid, "drop-invalid", false, "Discard used records that overlap or fall outside the arena")
	rootCmd.AddCommand(cmd)
}

func newRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair <file>",
		Short: "Rebuild damaged bookkeeping",
		Long: `The repair command treats the used registry as authoritative and
rebuilds the free registry as its complement. It also closes a transaction
that was interrupted before commit. Conflicting used records abort the repair
unless --drop-invalid is given.

Example:
  arenactl repair pool.arena --dry-run
  arenactl repair pool.arena --drop-invalid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(cmd, args)
		},
	}
}

// RepairReport is the repair output.
type RepairReport struct {
	Path     string        `json:"path"`
	Problem  string        `json:"problem,omitempty"`
	Kept     int           `json:"kept"`
	Dropped  []RegionEntry `json:"dropped,omitempty"`
	Free     int           `json:"freeRegions"`
	Reopened bool          `json:"reopened"`
	Applied  bool          `json:"applied"`
	DryRun   bool          `json:"dryRun"`
}

func runRepair(cmd *cobra.Command, args []string) error {
	cfg := repair.Config{DryRun: repairDryRun, DropInvalid: repairDropInvalid}
	if verbose {
		cfg.Logger = logger()
	}

	res, err := repair.File(orBackground(cmd.Context()), args[0], cfg)
	report := RepairReport{
		Path:     args[0],
		Kept:     len(res.Kept),
		Free:     len(res.Free),
		Reopened: res.Reopened,
		Applied:  res.Applied,
		DryRun:   repairDryRun,
	}
	if res.Problem != nil {
		report.Problem = res.Problem.Error()
	}
	for _, r := range res.Dropped {
		report.Dropped = append(report.Dropped, RegionEntry{Offset: r.Offset, Size: r.Size, State: "used"})
	}

	if jsonOut {
		if perr := printJSON(report); perr != nil {
			return perr
		}
	} else {
		printRepair(report)
	}
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}
	return nil
}

func printRepair(r RepairReport) {
	if r.Problem == "" && !r.Reopened {
		printInfo("%s: bookkeeping consistent, nothing to do\n", r.Path)
		return
	}
	if r.Problem != "" {
		printInfo("Problem: %s\n", r.Problem)
	}
	if r.Reopened {
		printInfo("Interrupted transaction found\n")
	}
	for _, d := range r.Dropped {
		printInfo("  dropped used record 0x%08X (%d bytes)\n", d.Offset, d.Size)
	}
	verb := "Rebuilt"
	if r.DryRun {
		verb = "Would rebuild"
	}
	printInfo("%s: %d used, %d free regions\n", verb, r.Kept, r.Free)
}

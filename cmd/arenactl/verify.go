package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena/verify"
)

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check an arena file for corruption",
		Long: `The verify command checks the file header and sequence numbers, then
the bookkeeping: free and used regions must tile the arena exactly and no two
free regions may touch.

Exits non-zero if any check fails.

Example:
  arenactl verify pool.arena
  arenactl verify pool.arena --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args)
		},
	}
}

// CheckResult is one verify check.
type CheckResult struct {
	Check  string `json:"check"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

func runVerify(args []string) error {
	path := args[0]
	printVerbose("Reading %s\n", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	results := []CheckResult{
		result("header", verify.FileHeader(raw)),
		result("sequence", verify.SequenceNumbers(raw)),
	}
	if results[0].OK {
		var checkErr error
		f, err := openArena(path)
		if err == nil {
			checkErr = f.Check()
			_ = f.Close()
		} else {
			checkErr = err
		}
		results = append(results, result("registries", checkErr))
	}

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.OK {
				printInfo("  ✓ %s\n", r.Check)
			} else {
				printInfo("  ✗ %s: %s\n", r.Check, r.Detail)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func result(name string, err error) CheckResult {
	if err == nil {
		return CheckResult{Check: name, OK: true}
	}
	detail := err.Error()
	var ve *verify.ValidationError
	if errors.As(err, &ve) {
		detail = ve.Error()
	}
	return CheckResult{Check: name, Detail: detail}
}

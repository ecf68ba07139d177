package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena"
)

var (
	initSize    string
	initRecords int
)

func init() {
	cmd := newInitCmd()
	cmd.Flags().StringVar(&initSize, "size", "1M", "Arena size (bytes, or with K/M/G suffix)")
	cmd.Flags().IntVar(&initRecords, "records", 1024, "Regions each registry can hold")
	rootCmd.AddCommand(cmd)
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <file>",
		Short: "Create a new arena file",
		Long: `The init command creates an arena file with one free region covering the
whole arena. The bookkeeping block is rounded up to whole pages, so the file
may hold more records than requested.

Example:
  arenactl init pool.arena --size 64M --records 4096`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args)
		},
	}
}

func runInit(args []string) error {
	size, err := parseSize(initSize)
	if err != nil {
		return err
	}

	opts, err := openOptions()
	if err != nil {
		return err
	}

	printVerbose("Creating %s: arena %d bytes, %d records\n", args[0], size, initRecords)

	f, err := arena.Create(args[0], size, initRecords, opts...)
	if err != nil {
		return fmt.Errorf("failed to create arena: %w", err)
	}
	defer f.Close()

	if jsonOut {
		return printJSON(map[string]any{
			"path":      args[0],
			"arenaSize": size,
			"capacity":  f.Capacity(),
		})
	}
	printInfo("Created %s (%s, capacity %d regions)\n", args[0], humanSize(uint64(size)), f.Capacity())
	return nil
}

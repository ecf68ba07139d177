package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/arena/dirty"
)

var (
	// Global flags
	verbose   bool
	quiet     bool
	jsonOut   bool
	flushMode string
)

var rootCmd = &cobra.Command{
	Use:   "arenactl",
	Short: "Create and inspect relocatable arena files",
	Long: `arenactl creates and edits arena files: a fixed-size pool of
bytes whose allocations are tracked as offsets, so the file can be mapped by
any number of processes at any address.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and allocator tracing")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&flushMode, "flush", "auto", "Commit durability: auto, data or full")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// printer groups digits in sizes and counts.
var printer = message.NewPrinter(language.English)

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// logger writes debug records to stderr.
func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openOptions returns the arena options implied by the global flags.
func openOptions() ([]arena.Option, error) {
	mode, err := dirty.ParseFlushMode(flushMode)
	if err != nil {
		return nil, err
	}
	opts := []arena.Option{arena.WithFlushMode(mode)}
	if verbose {
		opts = append(opts, arena.WithLogger(logger()))
	}
	return opts, nil
}

// openArena opens path with the global options.
func openArena(path string) (*arena.File, error) {
	opts, err := openOptions()
	if err != nil {
		return nil, err
	}
	f, err := arena.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open arena: %w", err)
	}
	return f, nil
}

// parsePtr accepts decimal or 0x-prefixed offsets.
func parsePtr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", s, err)
	}
	return uint32(v), nil
}

// parseSize accepts a plain byte count or one with a K, M or G suffix.
func parseSize(s string) (uint32, error) {
	mult := uint64(1)
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'k', 'K':
			mult, s = 1<<10, s[:n-1]
		case 'm', 'M':
			mult, s = 1<<20, s[:n-1]
		case 'g', 'G':
			mult, s = 1<<30, s[:n-1]
		}
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil || v*mult > 1<<32-1 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return uint32(v * mult), nil
}

// humanSize renders n as bytes, KB or MB.
func humanSize(n uint64) string {
	switch {
	case n < 1024:
		return printer.Sprintf("%d bytes", n)
	case n < 1024*1024:
		return printer.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return printer.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

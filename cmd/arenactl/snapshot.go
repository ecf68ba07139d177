package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena/snapshot"
)

var snapshotCodec string

func init() {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Copy arena files to and from snapshots",
	}
	save := newSnapshotSaveCmd()
	save.Flags().StringVar(&snapshotCodec, "codec", "zstd", "Compression: none, lz4 or zstd")
	cmd.AddCommand(save, newSnapshotRestoreCmd(), newSnapshotInspectCmd())
	rootCmd.AddCommand(cmd)
}

func newSnapshotSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <file> <snapshot>",
		Short: "Write a compressed copy of an arena file",
		Long: `The save command copies the whole arena file, header and bookkeeping
included, into a snapshot. The file is mapped read-only. Files with an
uncommitted transaction are refused.

Example:
  arenactl snapshot save pool.arena pool.snap --codec lz4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotSave(args)
		},
	}
}

func newSnapshotRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot> <file>",
		Short: "Recreate an arena file from a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotRestore(args)
		},
	}
}

func newSnapshotInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Print a snapshot header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotInspect(args)
		},
	}
}

func runSnapshotSave(args []string) (err error) {
	codec, err := snapshot.ParseCodec(snapshotCodec)
	if err != nil {
		return err
	}
	out, err := os.OpenFile(args[1], os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(args[1])
		}
	}()

	h, err := snapshot.SaveFile(args[0], out, codec)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(snapshotReport(args[1], h))
	}
	printInfo("Saved %s: %s -> %s (%s)\n", args[1], humanSize(h.RawLen), humanSize(h.PayloadLen), h.Codec)
	return nil
}

func runSnapshotRestore(args []string) error {
	opts, err := openOptions()
	if err != nil {
		return err
	}
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	f, err := snapshot.Restore(in, args[1], opts...)
	if err != nil {
		return fmt.Errorf("failed to restore: %w", err)
	}
	defer f.Close()

	u := f.Usage()
	printInfo("Restored %s: %d used regions, %d bytes free\n", args[1], u.UsedRegions, u.FreeBytes)
	return nil
}

func runSnapshotInspect(args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	h, err := snapshot.ReadHeader(in)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(snapshotReport(args[0], h))
	}
	printInfo("Snapshot: %s\n", args[0])
	printInfo("  Codec: %s\n", h.Codec)
	printInfo("  Image: %d bytes\n", h.RawLen)
	printInfo("  Payload: %d bytes\n", h.PayloadLen)
	printInfo("  CRC-32C: 0x%08X\n", h.CRC)
	return nil
}

func snapshotReport(path string, h snapshot.Header) map[string]any {
	return map[string]any{
		"path":       path,
		"codec":      h.Codec.String(),
		"rawLen":     h.RawLen,
		"payloadLen": h.PayloadLen,
		"crc":        h.CRC,
	}
}

//go:build linux

package dirty

import (
	"context"

	"golang.org/x/sys/unix"
)

// flushRanges msyncs each merged range. Linux accepts page-aligned sub-slices.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		start, end, ok := clamp(r, data, t.pageSize)
		if !ok {
			continue
		}
		if err := unix.Msync(data[start:end], unix.MS_SYNC); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) flushHeader(header []byte) error {
	return unix.Msync(header, unix.MS_SYNC)
}

func (t *Tracker) syncFile(_ bool) error {
	fd := t.m.FD()
	if fd < 0 {
		return nil
	}
	return unix.Fdatasync(fd)
}

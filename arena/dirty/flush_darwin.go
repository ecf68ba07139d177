//go:build darwin

package dirty

import (
	"context"

	"golang.org/x/sys/unix"
)

// flushRanges syncs the entire mapping. On macOS msync() needs the original
// mmap address, so sub-slices cannot be passed; the kernel only writes dirty
// pages anyway.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return unix.Msync(data, unix.MS_SYNC)
}

func (t *Tracker) flushHeader(_ []byte) error {
	return unix.Msync(t.m.Bytes(), unix.MS_SYNC)
}

// syncFile uses F_FULLFSYNC when full durability is requested; macOS has no fdatasync.
func (t *Tracker) syncFile(fullfsync bool) error {
	fd := t.m.FD()
	if fd < 0 {
		return nil
	}
	if fullfsync {
		_, err := unix.FcntlInt(uintptr(fd), unix.F_FULLFSYNC, 0)
		return err
	}
	return unix.Fsync(fd)
}

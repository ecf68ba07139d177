//go:build !linux && !darwin

package dirty

import "context"

// flushRanges writes each merged range back to the file. Without mmap the
// mapping is an in-memory copy, so nothing reaches disk otherwise.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	wb, ok := t.m.(WriteBacker)
	if !ok {
		return nil
	}
	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		start, end, ok := clamp(r, data, t.pageSize)
		if !ok {
			continue
		}
		if err := wb.WriteBack(int64(start), data[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) flushHeader(header []byte) error {
	if wb, ok := t.m.(WriteBacker); ok {
		return wb.WriteBack(0, header)
	}
	return nil
}

func (t *Tracker) syncFile(_ bool) error {
	if wb, ok := t.m.(WriteBacker); ok {
		return wb.Sync()
	}
	return nil
}

// Package buf contains bounds-checking helpers for index-based access to
// byte blocks that may be shared between address spaces.
package buf

import (
	"math"

	"github.com/cockroachdb/errors"
)

// ErrOutOfBounds reports an access outside the backing buffer.
var ErrOutOfBounds = errors.New("buf: out of bounds")

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false on
// overflow or negative input.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// CheckArrayBounds validates that count elements of elementSize bytes fit in
// a buffer of bufLen bytes starting at offset, and returns the end offset.
//
//	end, err := buf.CheckArrayBounds(len(block), recordsOff, capacity, format.RecordSize)
//	if err != nil {
//	    return fmt.Errorf("records: %w", err)
//	}
func CheckArrayBounds(bufLen, offset, count, elementSize int) (int, error) {
	if offset < 0 || count < 0 || elementSize < 0 {
		return 0, errors.Wrapf(ErrOutOfBounds, "negative input: offset=%d count=%d size=%d", offset, count, elementSize)
	}
	total, ok := MulOverflowSafe(count, elementSize)
	if !ok {
		return 0, errors.Wrapf(ErrOutOfBounds, "overflow: count=%d * elemSize=%d", count, elementSize)
	}
	end, ok := AddOverflowSafe(offset, total)
	if !ok {
		return 0, errors.Wrapf(ErrOutOfBounds, "overflow: offset=%d + size=%d", offset, total)
	}
	if end > bufLen {
		return 0, errors.Wrapf(ErrOutOfBounds, "end=%d > len=%d", end, bufLen)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

// Package ring provides a fixed-capacity FIFO queue over a slice.
//
// One slot of the backing slice is never filled, so head == tail always means
// empty and full needs no separate counter. Push and Pop move whole batches
// with at most two copies each, one on each side of the wrap point.
package ring

import "github.com/cockroachdb/errors"

var (
	// ErrFull indicates a Push larger than the free space.
	ErrFull = errors.New("ring: not enough free space")

	// ErrEmpty indicates a Pop larger than the buffered count.
	ErrEmpty = errors.New("ring: not enough buffered items")

	// ErrCapacity indicates a non-positive capacity.
	ErrCapacity = errors.New("ring: capacity must be positive")
)

// Ring is a bounded FIFO. It is not safe for concurrent use.
type Ring[T any] struct {
	buf  []T // len(buf) == capacity + 1
	head int // next slot to write
	tail int // next slot to read
}

// New returns an empty ring holding up to capacity items.
func New[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, errors.Wrapf(ErrCapacity, "got %d", capacity)
	}
	return &Ring[T]{buf: make([]T, capacity+1)}, nil
}

// Cap returns the maximum number of buffered items.
func (r *Ring[T]) Cap() int { return len(r.buf) - 1 }

// Len returns the number of buffered items.
func (r *Ring[T]) Len() int {
	if r.head >= r.tail {
		return r.head - r.tail
	}
	return len(r.buf) - r.tail + r.head
}

// Free returns how many more items Push accepts.
func (r *Ring[T]) Free() int { return r.Cap() - r.Len() }

// Push appends items in order. If they do not all fit, nothing is written.
func (r *Ring[T]) Push(items ...T) error {
	if len(items) > r.Free() {
		return errors.Wrapf(ErrFull, "push %d, free %d", len(items), r.Free())
	}
	n := copy(r.buf[r.head:], items)
	copy(r.buf, items[n:])
	r.head = (r.head + len(items)) % len(r.buf)
	return nil
}

// Pop removes the len(dst) oldest items into dst. If fewer are buffered,
// nothing is removed.
func (r *Ring[T]) Pop(dst []T) error {
	if err := r.peek(dst); err != nil {
		return err
	}
	r.release(len(dst))
	return nil
}

// Peek copies the len(dst) oldest items into dst without removing them.
func (r *Ring[T]) Peek(dst []T) error {
	return r.peek(dst)
}

// Discard drops the n oldest items, or every item when fewer are buffered.
func (r *Ring[T]) Discard(n int) {
	r.release(min(max(n, 0), r.Len()))
}

// Reset empties the ring.
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.head, r.tail = 0, 0
}

func (r *Ring[T]) peek(dst []T) error {
	if len(dst) > r.Len() {
		return errors.Wrapf(ErrEmpty, "pop %d, buffered %d", len(dst), r.Len())
	}
	end := min(r.tail+len(dst), len(r.buf))
	n := copy(dst, r.buf[r.tail:end])
	copy(dst[n:], r.buf[:len(dst)-n])
	return nil
}

// release advances tail by n and zeroes the vacated slots so popped values
// do not pin memory.
func (r *Ring[T]) release(n int) {
	var zero T
	for range n {
		r.buf[r.tail] = zero
		r.tail = (r.tail + 1) % len(r.buf)
	}
}

package arena

import "github.com/cockroachdb/errors"

var (
	// ErrBlockTooSmall indicates a bookkeeping block without room for one
	// record per registry.
	ErrBlockTooSmall = errors.New("arena: bookkeeping block too small")

	// ErrOutOfRange indicates a pointer and length that leave the arena.
	ErrOutOfRange = errors.New("arena: range outside arena")

	// ErrClosed indicates use of a closed File.
	ErrClosed = errors.New("arena: file closed")
)

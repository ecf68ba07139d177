package format

import "github.com/cockroachdb/errors"

var (
	// ErrSignatureMismatch indicates a structure had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrUnsupported indicates an unknown layout version.
	ErrUnsupported = errors.New("format: unsupported version")
	// ErrChecksum indicates the stored header checksum does not match its fields.
	ErrChecksum = errors.New("format: header checksum mismatch")
)

//go:build !linux && !darwin

package mmfile

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// Shared is false here: MapRW returns a private copy that callers must write back.
const Shared = false

// Map reads the entire file when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}

// MapRW reads the first size bytes of f into memory.
func MapRW(f *os.File, size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, errors.Newf("mmfile: invalid mapping size %d", size)
	}
	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}

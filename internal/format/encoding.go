package format

import "encoding/binary"

// Binary encoding utilities for little-endian integers.
//
// Callers are expected to bounds check before calling these helpers; they
// slice exactly the bytes they touch so an out-of-range offset still panics
// with a normal index error instead of reading neighbouring fields.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

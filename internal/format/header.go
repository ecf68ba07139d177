package format

import (
	"bytes"

	"github.com/cockroachdb/errors"
)

// Header captures the arena file header. The diagram below shows the layout.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x000   4    'A' 'R' 'N' 'A'
//	 0x004   4    Layout version
//	 0x008   4    Bookkeeping block size (page aligned)
//	 0x00C   4    Arena data size
//	 0x010   4    Primary sequence number
//	 0x014   4    Secondary sequence number
//	 0x018   4    Checksum (XOR of the six dwords above)
//
// The bookkeeping block starts at HeaderSize and the arena data at
// HeaderSize + MetaSize.
type Header struct {
	Version      uint32
	MetaSize     uint32
	ArenaSize    uint32
	PrimarySeq   uint32
	SecondarySeq uint32
}

// DataOffset returns the absolute file offset of the first arena byte.
func (h Header) DataOffset() int64 {
	return int64(HeaderSize) + int64(h.MetaSize)
}

// FileSize returns the total file size implied by the header.
func (h Header) FileSize() int64 {
	return h.DataOffset() + int64(h.ArenaSize)
}

// Clean reports whether the last transaction committed (sequences match).
func (h Header) Clean() bool {
	return h.PrimarySeq == h.SecondarySeq
}

// ParseHeader validates and extracts the fields of an arena file header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderFieldsSize {
		return Header{}, errors.Wrap(ErrTruncated, "arena header")
	}
	if !bytes.Equal(b[:SignatureSize], ArenaSignature) {
		return Header{}, errors.Wrap(ErrSignatureMismatch, "arena header")
	}
	h := Header{
		Version:      ReadU32(b, VersionOffset),
		MetaSize:     ReadU32(b, MetaSizeOffset),
		ArenaSize:    ReadU32(b, ArenaSizeOffset),
		PrimarySeq:   ReadU32(b, PrimarySeqOffset),
		SecondarySeq: ReadU32(b, SecondarySeqOffset),
	}
	if h.Version != Version {
		return Header{}, errors.Wrapf(ErrUnsupported, "arena header: version %d", h.Version)
	}
	if stored, calc := ReadU32(b, ChecksumOffset), HeaderChecksum(b); stored != calc {
		return Header{}, errors.Wrapf(ErrChecksum, "arena header: stored 0x%08X calculated 0x%08X", stored, calc)
	}
	return h, nil
}

// PutHeader encodes h into b and refreshes the checksum.
func PutHeader(b []byte, h Header) error {
	if len(b) < HeaderFieldsSize {
		return errors.Wrap(ErrTruncated, "arena header")
	}
	copy(b[SignatureOffset:], ArenaSignature)
	PutU32(b, VersionOffset, h.Version)
	PutU32(b, MetaSizeOffset, h.MetaSize)
	PutU32(b, ArenaSizeOffset, h.ArenaSize)
	PutU32(b, PrimarySeqOffset, h.PrimarySeq)
	PutU32(b, SecondarySeqOffset, h.SecondarySeq)
	UpdateChecksum(b)
	return nil
}

// HeaderChecksum is the XOR of every dword preceding the checksum field.
func HeaderChecksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i < ChecksumOffset; i += 4 {
		sum ^= ReadU32(b, i)
	}
	return sum
}

// UpdateChecksum recomputes and stores the header checksum.
func UpdateChecksum(b []byte) {
	PutU32(b, ChecksumOffset, HeaderChecksum(b))
}

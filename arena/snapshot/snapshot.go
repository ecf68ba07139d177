package snapshot

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/arena/verify"
	"github.com/joshuapare/arenakit/internal/mmfile"
)

var (
	// ErrBadMagic is returned when the stream does not start with a snapshot header.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrUnknownCodec is returned for a codec byte or name this package does not know.
	ErrUnknownCodec = errors.New("snapshot: unknown codec")
	// ErrCorrupt is returned when the payload does not decode to the image the header describes.
	ErrCorrupt = errors.New("snapshot: corrupt payload")
	// ErrChecksum is returned when the decoded image fails its CRC.
	ErrChecksum = errors.New("snapshot: checksum mismatch")
)

// Magic opens every snapshot stream.
const Magic = "ARSN"

// HeaderSize is the fixed size of the stream header:
//
//	0x00  magic      [4]byte  "ARSN"
//	0x04  codec      uint8
//	0x05  rawLen     uint64   decoded image length
//	0x0D  payloadLen uint64   bytes that follow the header
//	0x15  crc        uint32   CRC-32C of the decoded image
const HeaderSize = 25

// maxImage bounds rawLen so a damaged header cannot force a huge allocation.
// An arena file is at most a header page, a 4GiB block and a 4GiB arena.
const maxImage = 1<<33 + 1<<12

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Header describes a snapshot stream.
type Header struct {
	Codec      Codec
	RawLen     uint64
	PayloadLen uint64
	CRC        uint32
}

func (h Header) marshal() []byte {
	b := make([]byte, HeaderSize)
	copy(b, Magic)
	b[4] = byte(h.Codec)
	binary.LittleEndian.PutUint64(b[5:], h.RawLen)
	binary.LittleEndian.PutUint64(b[13:], h.PayloadLen)
	binary.LittleEndian.PutUint32(b[21:], h.CRC)
	return b
}

func parseHeader(b []byte) (Header, error) {
	if string(b[:4]) != Magic {
		return Header{}, errors.Wrapf(ErrBadMagic, "got %q", b[:4])
	}
	h := Header{
		Codec:      Codec(b[4]),
		RawLen:     binary.LittleEndian.Uint64(b[5:]),
		PayloadLen: binary.LittleEndian.Uint64(b[13:]),
		CRC:        binary.LittleEndian.Uint32(b[21:]),
	}
	if h.Codec > CodecZstd {
		return Header{}, errors.Wrapf(ErrUnknownCodec, "codec %d", h.Codec)
	}
	if h.RawLen > maxImage {
		return Header{}, errors.Wrapf(ErrCorrupt, "image length %d too large", h.RawLen)
	}
	// Compressed payloads never exceed the raw image; see compress.
	if h.PayloadLen > h.RawLen {
		return Header{}, errors.Wrapf(ErrCorrupt, "payload %d bytes larger than image %d", h.PayloadLen, h.RawLen)
	}
	return h, nil
}

// Write encodes image to w using codec. When the codec does not shrink the
// image enough it is stored raw and the returned header says CodecNone.
func Write(w io.Writer, image []byte, codec Codec) (Header, error) {
	payload, used, err := compress(image, codec)
	if err != nil {
		return Header{}, err
	}
	h := Header{
		Codec:      used,
		RawLen:     uint64(len(image)),
		PayloadLen: uint64(len(payload)),
		CRC:        crc32.Checksum(image, castagnoli),
	}
	if _, err := w.Write(h.marshal()); err != nil {
		return Header{}, errors.Wrap(err, "snapshot: write header")
	}
	if _, err := w.Write(payload); err != nil {
		return Header{}, errors.Wrap(err, "snapshot: write payload")
	}
	return h, nil
}

// ReadHeader reads and validates the stream header only.
func ReadHeader(r io.Reader) (Header, error) {
	b := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, b); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Header{}, errors.Wrap(ErrCorrupt, "short header")
		}
		return Header{}, errors.Wrap(err, "snapshot: read header")
	}
	return parseHeader(b)
}

// Read decodes one snapshot from r and returns the image.
func Read(r io.Reader) ([]byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, h.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "payload truncated: %v", err)
	}
	image, err := decompress(payload, h.Codec, int(h.RawLen))
	if err != nil {
		return nil, err
	}
	if got := crc32.Checksum(image, castagnoli); got != h.CRC {
		return nil, errors.Wrapf(ErrChecksum, "crc 0x%08X, header says 0x%08X", got, h.CRC)
	}
	return image, nil
}

// Save writes the whole mapping of f to w. f must not be inside Update.
func Save(f *arena.File, w io.Writer, codec Codec) (Header, error) {
	data := f.Bytes()
	if data == nil {
		return Header{}, arena.ErrClosed
	}
	if err := verify.SequenceNumbers(data); err != nil {
		return Header{}, errors.Wrap(err, "snapshot: file has an open transaction")
	}
	return Write(w, data, codec)
}

// SaveFile snapshots the arena file at path through a read-only mapping, so
// it needs no write access and leaves the file untouched. The header is
// validated and a file left mid-transaction is refused.
func SaveFile(path string, w io.Writer, codec Codec) (h Header, err error) {
	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return Header{}, err
	}
	defer func() {
		if uerr := unmap(); err == nil {
			err = uerr
		}
	}()
	if err := verify.FileHeader(data); err != nil {
		return Header{}, errors.Wrapf(err, "snapshot: %s", path)
	}
	if err := verify.SequenceNumbers(data); err != nil {
		return Header{}, errors.Wrapf(err, "snapshot: %s has an open transaction", path)
	}
	return Write(w, data, codec)
}

// Restore decodes a snapshot from r into a new file at path and opens it.
// The image is validated before anything is written, and the file is
// removed again if it fails to open.
func Restore(r io.Reader, path string, opts ...arena.Option) (*arena.File, error) {
	image, err := Read(r)
	if err != nil {
		return nil, err
	}
	if err := verify.FileHeader(image); err != nil {
		return nil, errors.Wrap(err, "snapshot: restore")
	}

	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	if _, err := fh.Write(image); err != nil {
		_ = fh.Close()
		_ = os.Remove(path)
		return nil, errors.Wrap(err, "snapshot: write image")
	}
	if err := fh.Sync(); err != nil {
		_ = fh.Close()
		_ = os.Remove(path)
		return nil, errors.Wrap(err, "snapshot: sync image")
	}
	if err := fh.Close(); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	f, err := arena.Open(path, opts...)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return f, nil
}

package snapshot

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the compression applied to a snapshot payload.
type Codec uint8

const (
	// CodecNone stores the image as is.
	CodecNone Codec = 0
	// CodecLZ4 uses LZ4 block compression (fast).
	CodecLZ4 Codec = 1
	// CodecZstd uses zstd (better ratio).
	CodecZstd Codec = 2
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCodec maps a codec name as printed by String back to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd", "zst":
		return CodecZstd, nil
	default:
		return 0, errors.Wrapf(ErrUnknownCodec, "%q", s)
	}
}

// zstd encoder/decoder pools; both are safe to reuse for EncodeAll/DecodeAll.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// compress returns the payload for image and the codec actually used. When
// compression does not save at least 10% the image is stored raw.
func compress(image []byte, codec Codec) ([]byte, Codec, error) {
	if codec == CodecNone || len(image) == 0 {
		return image, CodecNone, nil
	}

	var out []byte
	switch codec {
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(image)))
		n, err := lz4.CompressBlock(image, buf, nil)
		if err != nil {
			return nil, 0, errors.Wrap(err, "snapshot: lz4")
		}
		out = buf[:n] // n == 0 means incompressible
	case CodecZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, 0, errors.Wrap(err, "snapshot: zstd encoder")
		}
		out = enc.EncodeAll(image, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, errors.Wrapf(ErrUnknownCodec, "codec %d", codec)
	}

	if len(out) == 0 || float64(len(out)) > float64(len(image))*0.9 {
		return image, CodecNone, nil
	}
	return out, codec, nil
}

func decompress(payload []byte, codec Codec, rawLen int) ([]byte, error) {
	switch codec {
	case CodecNone:
		if len(payload) != rawLen {
			return nil, errors.Wrapf(ErrCorrupt, "raw payload %d bytes, header says %d", len(payload), rawLen)
		}
		return payload, nil

	case CodecLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "lz4: %v", err)
		}
		if n != rawLen {
			return nil, errors.Wrapf(ErrCorrupt, "lz4 produced %d bytes, header says %d", n, rawLen)
		}
		return out, nil

	case CodecZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, errors.Wrap(err, "snapshot: zstd decoder")
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(payload, make([]byte, 0, rawLen))
		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "zstd: %v", err)
		}
		if len(out) != rawLen {
			return nil, errors.Wrapf(ErrCorrupt, "zstd produced %d bytes, header says %d", len(out), rawLen)
		}
		return out, nil

	default:
		return nil, errors.Wrapf(ErrUnknownCodec, "codec %d", codec)
	}
}

package snapshot

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/rawmem/internal/conv"
)

// Compression defines the codec applied to a snapshot payload.
type Compression uint8

const (
	// CompressionNone stores the element bytes as they are.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio, good for cold data).
	CompressionZSTD Compression = 2
)

// String returns the codec name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

var errSizeMismatch = errors.New("decompressed size mismatch")

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

const (
	// lz4MaxRatio bounds the LZ4 block expansion: a run of 255 extension
	// bytes adds at most 255 decoded bytes each.
	lz4MaxRatio = 255

	// zstdMaxRatio bounds ZSTD expansion: a 128 KiB RLE block takes four
	// encoded bytes.
	zstdMaxRatio = 128 << 10 / 4
)

// maxDecodedSize returns the largest output a well-formed payload of n
// bytes can decode to under c, saturating at math.MaxInt. It reports false
// for an unknown codec.
func maxDecodedSize(n int, c Compression) (int, bool) {
	var ratio int
	switch c {
	case CompressionNone:
		return n, true
	case CompressionLZ4:
		ratio = lz4MaxRatio
	case CompressionZSTD:
		ratio = zstdMaxRatio
	default:
		return 0, false
	}
	if limit, ok := conv.MulInt(n, ratio); ok {
		return limit, true
	}
	return math.MaxInt, true
}

// compress encodes data with c. It reports CompressionNone together with
// the input when the codec does not save at least a tenth of the size.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	if c == CompressionNone || len(data) == 0 {
		return data, CompressionNone, nil
	}

	var (
		out []byte
		err error
	)
	switch c {
	case CompressionLZ4:
		out, err = compressLZ4(data)
	case CompressionZSTD:
		out, err = compressZSTD(data)
	default:
		return nil, c, fmt.Errorf("%w: unknown compression %s", ErrInvalidSnapshot, c)
	}
	if err != nil {
		return nil, c, err
	}

	if len(out) == 0 || float64(len(out)) > float64(len(data))*0.9 {
		return data, CompressionNone, nil
	}
	return out, c, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, err
	}
	// Incompressible.
	if n == 0 {
		return nil, nil
	}
	return dst[:n], nil
}

func compressZSTD(data []byte) ([]byte, error) {
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, err
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

// decompress decodes payload into dst, which must have exactly the
// uncompressed size.
func decompress(payload, dst []byte, c Compression) error {
	switch c {
	case CompressionNone:
		if len(payload) != len(dst) {
			return errSizeMismatch
		}
		copy(dst, payload)
		return nil
	case CompressionLZ4:
		if len(dst) == 0 {
			if len(payload) != 0 {
				return errSizeMismatch
			}
			return nil
		}
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return err
		}
		if n != len(dst) {
			return errSizeMismatch
		}
		return nil
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return err
		}
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(payload, dst[:0])
		if err != nil {
			return err
		}
		if len(decoded) != len(dst) {
			return errSizeMismatch
		}
		if len(decoded) > 0 && &decoded[0] != &dst[0] {
			copy(dst, decoded)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown compression %s", ErrInvalidSnapshot, c)
	}
}

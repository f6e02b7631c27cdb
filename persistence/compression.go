package persistence

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxLZ4Ratio is the largest expansion an LZ4 block can produce.
const maxLZ4Ratio = 255

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compress returns the payload as stored and the codec actually used.
// Data that does not shrink is stored uncompressed.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	var (
		out []byte
		err error
	)
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		out, err = compressLZ4(data)
	case CompressionZSTD:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("persistence: unknown compression %v", c)
	}
	if err != nil {
		return nil, 0, err
	}
	if len(out) == 0 || len(out) >= len(data) {
		return data, CompressionNone, nil
	}
	return out, c, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		return nil, err
	}
	// n == 0 means incompressible.
	return buf[:n], nil
}

// decompress restores exactly rawSize bytes.
func decompress(data []byte, c Compression, rawSize int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(data) != rawSize {
			return nil, fmt.Errorf("%w: payload is %d bytes, expected %d", ErrCorrupted, len(data), rawSize)
		}
		return data, nil

	case CompressionLZ4:
		if rawSize > maxLZ4Ratio*len(data)+16 {
			return nil, fmt.Errorf("%w: lz4 raw size %d for %d bytes", ErrCorrupted, rawSize, len(data))
		}
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupted, err)
		}
		if n != rawSize {
			return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrCorrupted, n, rawSize)
		}
		return out, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(data, make([]byte, 0, min(rawSize, 64*len(data))))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupted, err)
		}
		if len(out) != rawSize {
			return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrCorrupted, len(out), rawSize)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupted, uint8(c))
	}
}

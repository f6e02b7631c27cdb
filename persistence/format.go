package persistence

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MagicNumber identifies ball tree files (ASCII: "BTR1").
	MagicNumber = 0x42545231
	// Version is the current file format version.
	Version = 1

	// HeaderSize is the encoded size of FileHeader.
	HeaderSize = 64
	// ClusterRecordSize is the encoded size of one cluster.
	ClusterRecordSize = 80

	// FormatTag is written to the metadata section.
	FormatTag = "balltree/v1"

	maxMetadataSize = 1 << 20
	maxItems        = 1 << 40
)

var (
	// ErrCorrupted is the base error for every decoding failure.
	ErrCorrupted = errors.New("persistence: corrupted data")
	// ErrInvalidMagic is returned when the input is not a ball tree file.
	ErrInvalidMagic = fmt.Errorf("%w: invalid magic number", ErrCorrupted)
	// ErrUnsupportedVersion is returned for unknown format versions.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrCorrupted)
)

// ChecksumMismatchError reports a payload whose CRC32C does not match the header.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("persistence: checksum mismatch: expected %08x, got %08x", e.Expected, e.Actual)
}

// Unwrap makes the error match ErrCorrupted.
func (e *ChecksumMismatchError) Unwrap() error { return ErrCorrupted }

// Compression selects the payload codec.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// ParseCompression resolves a codec by name.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("persistence: unknown compression %q", s)
	}
}

// FileHeader is the 64-byte header at the start of every file.
type FileHeader struct {
	Magic        uint32 // 0x42545231 ("BTR1")
	Version      uint32
	Compression  uint8
	Flags        uint8
	Padding      [2]byte
	ItemCount    uint64
	ClusterCount uint64
	PayloadSize  uint64 // payload bytes as stored
	RawSize      uint64 // payload bytes after decompression
	Checksum     uint32 // CRC32C of payload and metadata
	MetadataSize uint32
	Reserved     [12]byte
}

// Metadata is the self-describing section after the payload.
type Metadata struct {
	Format   string `msgpack:"format"`
	Metric   string `msgpack:"metric"`
	LeafSize int    `msgpack:"leaf_size"`
	MaxDepth int    `msgpack:"max_depth"`
	Seed     int64  `msgpack:"seed"`
	BuiltAt  int64  `msgpack:"built_at"` // unix nanoseconds, 0 if unknown
}

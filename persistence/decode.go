package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hupe1980/balltree/tree"
)

const directReadLimit = 64 << 20

// Unmarshal deserializes a structure produced by Marshal.
func Unmarshal(b []byte) (*tree.Structure, error) {
	r := bytes.NewReader(b)
	s, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupted, r.Len())
	}
	return s, nil
}

// Decode reads one structure from r.
func Decode(r io.Reader) (*tree.Structure, error) {
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	payload, err := readSection(r, int64(header.PayloadSize), "payload")
	if err != nil {
		return nil, err
	}
	meta, err := readSection(r, int64(header.MetadataSize), "metadata")
	if err != nil {
		return nil, err
	}

	if sum := Checksum(payload, meta); sum != header.Checksum {
		return nil, &ChecksumMismatchError{Expected: header.Checksum, Actual: sum}
	}

	raw, err := decompress(payload, Compression(header.Compression), int(header.RawSize))
	if err != nil {
		return nil, err
	}

	var md Metadata
	if err := msgpack.Unmarshal(meta, &md); err != nil {
		return nil, fmt.Errorf("%w: metadata: %w", ErrCorrupted, err)
	}
	if md.Format != FormatTag {
		return nil, fmt.Errorf("%w: format %q", ErrUnsupportedVersion, md.Format)
	}

	perm, clusters := decodePayload(raw, int(header.ItemCount), int(header.ClusterCount))
	s, err := tree.NewStructure(clusters, perm, md.buildInfo())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return s, nil
}

// readHeader reads and sanity-checks the header before any section is
// allocated.
func readHeader(r io.Reader) (FileHeader, error) {
	var h FileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, truncated("header", err)
	}

	switch {
	case h.Magic != MagicNumber:
		return h, fmt.Errorf("%w: %08x", ErrInvalidMagic, h.Magic)
	case h.Version != Version:
		return h, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	case Compression(h.Compression) > CompressionZSTD:
		return h, fmt.Errorf("%w: unknown compression %d", ErrCorrupted, h.Compression)
	case h.ItemCount == 0 || h.ItemCount > maxItems:
		return h, fmt.Errorf("%w: item count %d", ErrCorrupted, h.ItemCount)
	case h.ClusterCount == 0 || h.ClusterCount > 2*h.ItemCount-1:
		return h, fmt.Errorf("%w: cluster count %d for %d items", ErrCorrupted, h.ClusterCount, h.ItemCount)
	case h.RawSize != h.ItemCount*8+h.ClusterCount*ClusterRecordSize:
		return h, fmt.Errorf("%w: raw size %d", ErrCorrupted, h.RawSize)
	case h.PayloadSize > h.RawSize:
		return h, fmt.Errorf("%w: payload size %d exceeds raw size %d", ErrCorrupted, h.PayloadSize, h.RawSize)
	case h.MetadataSize > maxMetadataSize:
		return h, fmt.Errorf("%w: metadata size %d", ErrCorrupted, h.MetadataSize)
	}
	return h, nil
}

func decodePayload(raw []byte, n, c int) ([]int, []tree.Cluster) {
	le := binary.LittleEndian

	perm := make([]int, n)
	off := 0
	for i := range perm {
		perm[i] = int(le.Uint64(raw[off:]))
		off += 8
	}

	clusters := make([]tree.Cluster, c)
	for i := range clusters {
		rec := raw[off : off+ClusterRecordSize]
		clusters[i] = tree.Cluster{
			Offset:      int(le.Uint64(rec[0:])),
			Cardinality: int(le.Uint64(rec[8:])),
			Center:      int(le.Uint64(rec[16:])),
			Radius:      math.Float64frombits(le.Uint64(rec[24:])),
			RadialSum:   math.Float64frombits(le.Uint64(rec[32:])),
			LFD:         math.Float64frombits(le.Uint64(rec[40:])),
			Depth:       int(le.Uint64(rec[48:])),
			Parent:      int(int64(le.Uint64(rec[56:]))),
			Left:        int(int64(le.Uint64(rec[64:]))),
			Right:       int(int64(le.Uint64(rec[72:]))),
		}
		off += ClusterRecordSize
	}
	return perm, clusters
}

// readSection reads exactly size bytes. Large sections grow as data arrives
// so a forged header cannot force a huge allocation up front.
func readSection(r io.Reader, size int64, section string) ([]byte, error) {
	if size <= directReadLimit {
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, truncated(section, err)
		}
		return buf, nil
	}

	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, size); err != nil {
		return nil, truncated(section, err)
	}
	return buf.Bytes(), nil
}

func truncated(section string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s", ErrCorrupted, section)
	}
	return err
}

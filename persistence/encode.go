package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hupe1980/balltree/internal/resource"
	"github.com/hupe1980/balltree/tree"
)

type options struct {
	compression Compression
	controller  *resource.Controller
}

// Option configures encoding and checkpointing.
type Option func(*options)

// WithCompression selects the payload codec. Default CompressionNone.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithController throttles blob store IO through the controller's rate limiter.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

func newOptions(optFns []Option) options {
	var opts options
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Marshal serializes s.
func Marshal(s *tree.Structure, optFns ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s, optFns...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes s to w.
func Encode(w io.Writer, s *tree.Structure, optFns ...Option) error {
	if s == nil {
		return fmt.Errorf("persistence: nil structure")
	}
	opts := newOptions(optFns)

	raw := encodePayload(s)
	payload, codec, err := compress(raw, opts.compression)
	if err != nil {
		return err
	}

	meta, err := msgpack.Marshal(newMetadata(s.Info()))
	if err != nil {
		return fmt.Errorf("persistence: encode metadata: %w", err)
	}

	header := FileHeader{
		Magic:        MagicNumber,
		Version:      Version,
		Compression:  uint8(codec),
		ItemCount:    uint64(s.Len()),
		ClusterCount: uint64(s.NumClusters()),
		PayloadSize:  uint64(len(payload)),
		RawSize:      uint64(len(raw)),
		Checksum:     Checksum(payload, meta),
		MetadataSize: uint32(len(meta)),
	}

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	_, err = w.Write(meta)
	return err
}

// encodePayload lays out the permutation followed by the cluster records.
func encodePayload(s *tree.Structure) []byte {
	perm := s.Permutation()
	clusters := s.Clusters()

	buf := make([]byte, len(perm)*8+len(clusters)*ClusterRecordSize)
	le := binary.LittleEndian

	off := 0
	for _, idx := range perm {
		le.PutUint64(buf[off:], uint64(idx))
		off += 8
	}
	for _, c := range clusters {
		rec := buf[off : off+ClusterRecordSize]
		le.PutUint64(rec[0:], uint64(c.Offset))
		le.PutUint64(rec[8:], uint64(c.Cardinality))
		le.PutUint64(rec[16:], uint64(c.Center))
		le.PutUint64(rec[24:], math.Float64bits(c.Radius))
		le.PutUint64(rec[32:], math.Float64bits(c.RadialSum))
		le.PutUint64(rec[40:], math.Float64bits(c.LFD))
		le.PutUint64(rec[48:], uint64(c.Depth))
		le.PutUint64(rec[56:], uint64(int64(c.Parent)))
		le.PutUint64(rec[64:], uint64(int64(c.Left)))
		le.PutUint64(rec[72:], uint64(int64(c.Right)))
		off += ClusterRecordSize
	}
	return buf
}

func newMetadata(info tree.BuildInfo) Metadata {
	var builtAt int64
	if !info.BuiltAt.IsZero() {
		builtAt = info.BuiltAt.UnixNano()
	}
	return Metadata{
		Format:   FormatTag,
		Metric:   info.Metric,
		LeafSize: info.LeafSize,
		MaxDepth: info.MaxDepth,
		Seed:     info.Seed,
		BuiltAt:  builtAt,
	}
}

func (m Metadata) buildInfo() tree.BuildInfo {
	info := tree.BuildInfo{
		Metric:   m.Metric,
		LeafSize: m.LeafSize,
		MaxDepth: m.MaxDepth,
		Seed:     m.Seed,
	}
	if m.BuiltAt != 0 {
		info.BuiltAt = time.Unix(0, m.BuiltAt).UTC()
	}
	return info
}

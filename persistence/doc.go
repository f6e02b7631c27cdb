// Package persistence serializes ball tree structures to a versioned binary
// format and checkpoints them to files and blob stores.
//
// # Format (v1, little endian)
//
//	┌──────────────────────────────┐
//	│ FileHeader (64 bytes)        │ magic "BTR1", version, compression,
//	│                              │ counts, section sizes, CRC32C
//	├──────────────────────────────┤
//	│ Payload (optionally LZ4/ZSTD)│ permutation (n × uint64)
//	│                              │ cluster records (c × 80 bytes, pre-order)
//	├──────────────────────────────┤
//	│ Metadata (msgpack)           │ metric name, leaf size, seed, ...
//	└──────────────────────────────┘
//
// The checksum covers the payload as stored and the metadata. Decoding fails
// fast with ErrCorrupted on a bad header, checksum mismatch, truncated section
// or any violated tree invariant.
//
// Items are not persisted. Reattach a decoded structure to its dataset with
// tree.Attach.
package persistence

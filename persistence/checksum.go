package persistence

import (
	"hash/crc32"
)

// crc32cTable is pre-computed for the Castagnoli polynomial, which is
// hardware accelerated on amd64 and arm64.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the CRC32C of the given sections in order.
//
// CRC32 detects accidental corruption only. It is not a tamper check.
func Checksum(sections ...[]byte) uint32 {
	var crc uint32
	for _, s := range sections {
		crc = crc32.Update(crc, crc32cTable, s)
	}
	return crc
}

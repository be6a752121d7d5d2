package png

import (
	"github.com/snksoft/crc"
)

// crcAdapter wraps a standard CRC-32 computation over a chunk's
// type+payload bytes, per spec.md §4.1/§4.2. It is a thin running-hash
// wrapper, the same role the teacher's decoder.crc hash.Hash32 field
// plays, but backed by github.com/snksoft/crc's table-driven IEEE
// CRC-32 (the same polynomial hash/crc32.IEEETable computes) instead of
// the standard library, per DESIGN.md's CRC-32 adapter entry.
type crcAdapter struct {
	h *crc.Hash
}

func newCRCAdapter() *crcAdapter {
	return &crcAdapter{h: crc.NewHash(crc.CRC32)}
}

// reset restarts the running CRC, seeding it with typ the way
// spng__actual_crc resets running_crc = crc32(type) at the start of
// every chunk (spec.md §4.2 read_header).
func (c *crcAdapter) reset(typ [4]byte) {
	c.h.Reset()
	c.h.Write(typ[:])
}

// write folds further payload bytes into the running CRC.
func (c *crcAdapter) write(p []byte) {
	c.h.Write(p)
}

// sum32 returns the CRC-32 accumulated so far.
func (c *crcAdapter) sum32() uint32 {
	return uint32(c.h.CRC32())
}

package record

import (
	"errors"
	"hash"
	"hash/crc32"
	"io"
)

// ErrChunkCorrupt is returned when a chunk read back from temporary storage
// does not match the checksum taken while it was written.
var ErrChunkCorrupt = errors.New("record: chunk checksum mismatch")

// ChunkChecksum keeps a running CRC32 (IEEE polynomial) over the encoded bytes
// of one chunk. It is never written to the chunk itself.
type ChunkChecksum struct {
	h hash.Hash32
}

func NewChunkChecksum() *ChunkChecksum {
	return &ChunkChecksum{h: crc32.NewIEEE()}
}

// Writer returns a writer that passes bytes to w and folds them into the checksum.
func (c *ChunkChecksum) Writer(w io.Writer) io.Writer {
	return io.MultiWriter(w, c.h)
}

// Reader returns a reader that folds every byte read from r into the checksum.
func (c *ChunkChecksum) Reader(r io.Reader) io.Reader {
	return io.TeeReader(r, c.h)
}

func (c *ChunkChecksum) Sum() uint32 {
	return c.h.Sum32()
}

// ValidateChunk returns ErrChunkCorrupt unless the checksum equals want.
func (c *ChunkChecksum) ValidateChunk(want uint32) error {
	if c.Sum() != want {
		return ErrChunkCorrupt
	}
	return nil
}

package record

import (
	"bytes"
	"errors"
	"hash/crc32"
	"io"
	"testing"
)

func TestChunkChecksum(t *testing.T) {
	data := append(EncodeLineToBytes(Line{Key: 7, Text: "language"}), EncodeLineToBytes(Line{Key: 1, Text: "go"})...)
	want := crc32.ChecksumIEEE(data)

	t.Run("Writer computes expected checksum", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewChunkChecksum()
		if _, err := c.Writer(&buf).Write(data); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if got := c.Sum(); got != want {
			t.Errorf("Sum() = %v, want %v", got, want)
		}
		if !bytes.Equal(buf.Bytes(), data) {
			t.Errorf("Writer did not pass bytes through")
		}
	})

	t.Run("Reader validates matching checksum", func(t *testing.T) {
		c := NewChunkChecksum()
		if _, err := io.ReadAll(c.Reader(bytes.NewReader(data))); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if err := c.ValidateChunk(want); err != nil {
			t.Errorf("ValidateChunk() = %v, expected nil", err)
		}
	})

	t.Run("Reader rejects mismatched checksum", func(t *testing.T) {
		corrupted := bytes.Clone(data)
		corrupted[5] ^= 0xff

		c := NewChunkChecksum()
		if _, err := io.ReadAll(c.Reader(bytes.NewReader(corrupted))); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if err := c.ValidateChunk(want); !errors.Is(err, ErrChunkCorrupt) {
			t.Errorf("ValidateChunk() = %v, want ErrChunkCorrupt", err)
		}
	})
}

package extsort

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/0xRadioAc7iv/biglog-sort/internal/record"
	"github.com/cockroachdb/pebble/vfs"
)

// chunkFile describes one sorted run spilled to temporary storage.
type chunkFile struct {
	path  string
	count int    // Number of records in the chunk
	size  int64  // Encoded size in bytes
	sum   uint32 // CRC32 of the encoded bytes
}

func chunkFileName(fs vfs.FS, dir string, seq int) string {
	return fs.PathJoin(dir, fmt.Sprintf("%06d%s", seq, ChunkFileExt))
}

// writeChunk encodes lines back to back into a new file at path.
// A partially written file is removed before returning an error.
func writeChunk(fs vfs.FS, path string, lines []record.Line) (*chunkFile, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create chunk %s: %w", path, err)
	}

	sum := record.NewChunkChecksum()
	w := bufio.NewWriterSize(sum.Writer(f), writeBufferSize)

	var size int64
	for _, line := range lines {
		if err := record.EncodeLine(w, line); err != nil {
			f.Close()
			fs.Remove(path)
			return nil, fmt.Errorf("write chunk %s: %w", path, err)
		}
		size += int64(record.EncodedSize(line))
	}

	if err := w.Flush(); err != nil {
		f.Close()
		fs.Remove(path)
		return nil, fmt.Errorf("flush chunk %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		fs.Remove(path)
		return nil, fmt.Errorf("close chunk %s: %w", path, err)
	}

	return &chunkFile{
		path:  path,
		count: len(lines),
		size:  size,
		sum:   sum.Sum(),
	}, nil
}

// removeChunks deletes every chunk file, reporting all failures.
func removeChunks(fs vfs.FS, chunks []*chunkFile) error {
	var errs []error
	for _, c := range chunks {
		if err := fs.Remove(c.path); err != nil {
			errs = append(errs, fmt.Errorf("remove chunk %s: %w", c.path, err))
		}
	}
	return errors.Join(errs...)
}

// cursor yields the records of one sorted run in order. next returns io.EOF
// once the run is exhausted.
type cursor interface {
	next() (record.Line, error)
	close() error
}

type memoryCursor struct {
	lines []record.Line
	pos   int
}

func (c *memoryCursor) next() (record.Line, error) {
	if c.pos >= len(c.lines) {
		return record.Line{}, io.EOF
	}
	line := c.lines[c.pos]
	c.lines[c.pos] = record.Line{}
	c.pos++
	return line, nil
}

func (c *memoryCursor) close() error {
	c.lines = nil
	return nil
}

type chunkCursor struct {
	chunk *chunkFile
	f     vfs.File
	r     *bufio.Reader
	sum   *record.ChunkChecksum
	read  int
}

func openChunk(fs vfs.FS, chunk *chunkFile) (*chunkCursor, error) {
	f, err := fs.Open(chunk.path)
	if err != nil {
		return nil, fmt.Errorf("open chunk %s: %w", chunk.path, err)
	}

	sum := record.NewChunkChecksum()
	return &chunkCursor{
		chunk: chunk,
		f:     f,
		r:     bufio.NewReaderSize(sum.Reader(f), readBufferSize),
		sum:   sum,
	}, nil
}

func (c *chunkCursor) next() (record.Line, error) {
	line, err := record.DecodeLine(c.r)
	if err == io.EOF {
		if c.read != c.chunk.count {
			return record.Line{}, fmt.Errorf("chunk %s: read %d of %d records: %w", c.chunk.path, c.read, c.chunk.count, record.ErrChunkCorrupt)
		}
		if err := c.sum.ValidateChunk(c.chunk.sum); err != nil {
			return record.Line{}, fmt.Errorf("chunk %s: %w", c.chunk.path, err)
		}
		return record.Line{}, io.EOF
	}
	if err != nil {
		return record.Line{}, fmt.Errorf("decode chunk %s: %w", c.chunk.path, err)
	}

	c.read++
	return line, nil
}

func (c *chunkCursor) close() error {
	return c.f.Close()
}

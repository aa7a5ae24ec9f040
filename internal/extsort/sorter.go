package extsort

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/0xRadioAc7iv/biglog-sort/internal/lock"
	"github.com/0xRadioAc7iv/biglog-sort/internal/record"
	"github.com/0xRadioAc7iv/biglog-sort/internal/utils"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"
)

// Source supplies the records to sort. Next returns io.EOF once exhausted.
type Source interface {
	Next() (record.Line, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func() (record.Line, error)

func (f SourceFunc) Next() (record.Line, error) {
	return f()
}

// CompareFunc orders two records the way cmp.Compare does.
type CompareFunc func(a, b record.Line) int

// ByKey orders records by ascending key.
func ByKey(a, b record.Line) int {
	return cmp.Compare(a.Key, b.Key)
}

// Sorter is a bounded-memory external sorter.
//
// At most ItemBudget records are buffered at once. Each full buffer is sorted
// and spilled to a chunk file under Dir on FS; the chunks are then merged
// back into a single ordered Stream. The sort is stable: records that compare
// equal come out in the order the Source produced them.
type Sorter struct {
	FS         vfs.FS      // Storage for chunk files (vfs.Default when nil)
	Dir        string      // Directory holding chunk files, created on first spill
	ItemBudget int         // Records per in-memory buffer (DefaultItemBudget when <= 0)
	Logger     *zap.Logger // Nop logger when nil

	spilled int
}

func (s *Sorter) fs() vfs.FS {
	if s.FS == nil {
		return vfs.Default
	}
	return s.FS
}

func (s *Sorter) dir() string {
	if s.Dir == "" {
		return utils.SpillDirectoryPath("")
	}
	return s.Dir
}

func (s *Sorter) itemBudget() int {
	if s.ItemBudget <= 0 {
		return DefaultItemBudget
	}
	return s.ItemBudget
}

func (s *Sorter) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Spilled reports how many chunk files the last SortBy wrote.
func (s *Sorter) Spilled() int {
	return s.spilled
}

// SortBy drains src and returns its records ordered by compare.
//
// When everything fits in one buffer the sorted buffer is returned directly
// and no temporary storage is touched. Otherwise the spill directory is
// created if missing and locked, and the spilled chunks and the final buffer
// are k-way merged lazily by the returned Stream. Once the stream is drained
// or closed it deletes the chunk files, releases the lock and removes the
// directory if SortBy created it. Any error does the same before returning.
func (s *Sorter) SortBy(src Source, compare CompareFunc) (*Stream, error) {
	fs := s.fs()
	dir := s.dir()
	budget := s.itemBudget()
	log := s.logger()

	s.spilled = 0
	buf := make([]record.Line, 0, min(budget, initialBufferCap))
	var chunks []*chunkFile
	var dirLock *lock.DirLock
	var createdDir bool

	cleanup := func() error {
		err := errors.Join(removeChunks(fs, chunks), dirLock.Unlock())
		if createdDir {
			if rmErr := fs.Remove(dir); rmErr != nil {
				err = errors.Join(err, fmt.Errorf("remove spill directory %s: %w", dir, rmErr))
			}
		}
		return err
	}
	abort := func(err error) (*Stream, error) {
		cleanup()
		return nil, err
	}

	for {
		line, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return abort(err)
		}

		// Spill only once another record arrives, so input that exactly
		// fills the first buffer never touches storage.
		if len(buf) == budget {
			if len(chunks) == 0 {
				if _, err := fs.Stat(dir); errors.Is(err, os.ErrNotExist) {
					createdDir = true
				}
				if err := fs.MkdirAll(dir, 0755); err != nil {
					return abort(fmt.Errorf("create spill directory %s: %w", dir, err))
				}
				if dirLock, err = lock.LockDirectory(fs, dir); err != nil {
					return abort(err)
				}
			}

			start := time.Now()
			slices.SortStableFunc(buf, compare)
			chunk, err := writeChunk(fs, chunkFileName(fs, dir, len(chunks)), buf)
			if err != nil {
				return abort(err)
			}
			chunks = append(chunks, chunk)
			s.spilled = len(chunks)

			log.Debug("spilled chunk",
				zap.String("path", chunk.path),
				zap.Int("records", chunk.count),
				zap.Int64("bytes", chunk.size),
				zap.Duration("took", time.Since(start)),
			)

			clear(buf)
			buf = buf[:0]
		}

		buf = append(buf, line)
	}

	slices.SortStableFunc(buf, compare)

	if len(chunks) == 0 {
		log.Debug("sorted in memory", zap.Int("records", len(buf)))
		return newStream(&memoryCursor{lines: buf}, nil), nil
	}

	stream, err := s.merge(chunks, buf, compare, cleanup)
	if err != nil {
		return abort(err)
	}

	log.Debug("merging chunks", zap.Int("chunks", len(chunks)), zap.Int("buffered", len(buf)))
	return stream, nil
}

// merge opens a cursor per chunk, plus one over the final buffer, and primes
// the merge heap with the head of each. cleanup runs once the stream is done.
func (s *Sorter) merge(chunks []*chunkFile, buf []record.Line, compare CompareFunc, cleanup func() error) (*Stream, error) {
	fs := s.fs()

	cursors := make([]cursor, 0, len(chunks)+1)
	closeAll := func() {
		for _, c := range cursors {
			c.close()
		}
	}

	for _, chunk := range chunks {
		c, err := openChunk(fs, chunk)
		if err != nil {
			closeAll()
			return nil, err
		}
		cursors = append(cursors, c)
	}
	if len(buf) > 0 {
		cursors = append(cursors, &memoryCursor{lines: buf})
	}

	m, err := newMerger(cursors, compare)
	if err != nil {
		closeAll()
		return nil, err
	}

	release := func() error {
		closeAll()
		return cleanup()
	}

	return newStream(m, release), nil
}

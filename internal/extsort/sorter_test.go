package extsort

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/0xRadioAc7iv/biglog-sort/internal/lock"
	"github.com/0xRadioAc7iv/biglog-sort/internal/record"
	"github.com/cockroachdb/pebble/vfs"
)

const spillDir = "/spill"

func sliceSource(lines []record.Line) Source {
	i := 0
	return SourceFunc(func() (record.Line, error) {
		if i >= len(lines) {
			return record.Line{}, io.EOF
		}
		line := lines[i]
		i++
		return line, nil
	})
}

func drain(t *testing.T, stream *Stream) []record.Line {
	t.Helper()

	var out []record.Line
	for stream.Next() {
		out = append(out, stream.Line())
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	return out
}

func newTestSorter(fs vfs.FS, budget int) *Sorter {
	return &Sorter{FS: fs, Dir: spillDir, ItemBudget: budget}
}

func assertNoChunks(t *testing.T, fs vfs.FS) {
	t.Helper()

	names, err := fs.List(spillDir)
	if err != nil {
		// the directory was never created
		return
	}
	if len(names) != 0 {
		t.Fatalf("expected no chunk files left behind, found %v", names)
	}
}

// randomLines builds n lines with keys in [0, keySpace) whose text records
// the arrival position, so stability can be checked on the output.
func randomLines(n, keySpace int, seed int64) []record.Line {
	rng := rand.New(rand.NewSource(seed))
	lines := make([]record.Line, n)
	for i := range lines {
		lines[i] = record.Line{Key: uint32(rng.Intn(keySpace)), Text: fmt.Sprintf("line-%06d", i)}
	}
	return lines
}

func TestSortByKeyOrder(t *testing.T) {
	fs := vfs.NewMem()
	s := newTestSorter(fs, 16)

	input := []record.Line{{Key: 2, Text: "a"}, {Key: 0, Text: "b"}, {Key: 1, Text: "c"}}
	stream, err := s.SortBy(sliceSource(input), ByKey)
	if err != nil {
		t.Fatalf("SortBy failed: %v", err)
	}

	got := drain(t, stream)
	want := []string{"b", "c", "a"}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i].Text, want[i])
		}
	}
	if s.Spilled() != 0 {
		t.Errorf("expected no spill, got %d chunks", s.Spilled())
	}
}

func TestSortByEmptyInput(t *testing.T) {
	fs := vfs.NewMem()
	s := newTestSorter(fs, 4)

	stream, err := s.SortBy(sliceSource(nil), ByKey)
	if err != nil {
		t.Fatalf("SortBy failed: %v", err)
	}
	if got := drain(t, stream); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
	if _, err := fs.Stat(spillDir); err == nil {
		t.Fatalf("spill directory should not exist for empty input")
	}
}

func TestSortByExactBudgetDoesNotSpill(t *testing.T) {
	fs := vfs.NewMem()
	s := newTestSorter(fs, 8)

	stream, err := s.SortBy(sliceSource(randomLines(8, 3, 1)), ByKey)
	if err != nil {
		t.Fatalf("SortBy failed: %v", err)
	}
	if got := drain(t, stream); len(got) != 8 {
		t.Fatalf("expected 8 lines, got %d", len(got))
	}
	if s.Spilled() != 0 {
		t.Fatalf("expected no spill, got %d chunks", s.Spilled())
	}
}

func TestSortBySpillMatchesInMemorySort(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		keySpace int
		budget   int
	}{
		{"few distinct keys", 1000, 5, 64},
		{"many distinct keys", 1000, 100000, 64},
		{"budget of one", 50, 10, 1},
		{"remainder in memory", 130, 20, 64},
		{"exact multiple of budget", 128, 20, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := vfs.NewMem()
			s := newTestSorter(fs, tt.budget)

			input := randomLines(tt.n, tt.keySpace, int64(tt.n+tt.budget))
			want := slices.Clone(input)
			slices.SortStableFunc(want, ByKey)

			stream, err := s.SortBy(sliceSource(input), ByKey)
			if err != nil {
				t.Fatalf("SortBy failed: %v", err)
			}
			if s.Spilled() == 0 {
				t.Fatalf("expected the input to spill")
			}

			got := drain(t, stream)
			if !slices.Equal(got, want) {
				t.Fatalf("spilled sort differs from in-memory stable sort")
			}

			assertNoChunks(t, fs)
		})
	}
}

func TestSortByStableAcrossChunks(t *testing.T) {
	fs := vfs.NewMem()
	s := newTestSorter(fs, 3)

	// every key appears in every chunk
	var input []record.Line
	for i := 0; i < 12; i++ {
		input = append(input, record.Line{Key: uint32(i % 2), Text: fmt.Sprintf("%02d", i)})
	}

	stream, err := s.SortBy(sliceSource(input), ByKey)
	if err != nil {
		t.Fatalf("SortBy failed: %v", err)
	}
	got := drain(t, stream)

	want := []string{"00", "02", "04", "06", "08", "10", "01", "03", "05", "07", "09", "11"}
	for i := range want {
		if got[i].Text != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, got[i].Text, want[i])
		}
	}
}

func TestStreamCloseRemovesChunks(t *testing.T) {
	fs := vfs.NewMem()
	s := newTestSorter(fs, 10)

	stream, err := s.SortBy(sliceSource(randomLines(100, 7, 3)), ByKey)
	if err != nil {
		t.Fatalf("SortBy failed: %v", err)
	}

	names, err := fs.List(spillDir)
	if err != nil {
		t.Fatalf("list spill directory: %v", err)
	}
	var chunks int
	for _, name := range names {
		if strings.HasSuffix(name, ChunkFileExt) {
			chunks++
		}
	}
	if chunks != s.Spilled() {
		t.Fatalf("expected %d chunk files, found %d", s.Spilled(), chunks)
	}
	if !slices.Contains(names, lock.FileName) {
		t.Fatalf("expected the spill directory to be locked, found %v", names)
	}

	// abandon the stream after a few records
	for i := 0; i < 5 && stream.Next(); i++ {
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if stream.Next() {
		t.Fatalf("Next should return false after Close")
	}

	assertNoChunks(t, fs)
}

var errSourceFailed = errors.New("source failed")

func TestSortBySourceErrorRemovesChunks(t *testing.T) {
	fs := vfs.NewMem()
	s := newTestSorter(fs, 4)

	lines := randomLines(20, 5, 4)
	i := 0
	src := SourceFunc(func() (record.Line, error) {
		if i == len(lines) {
			return record.Line{}, errSourceFailed
		}
		i++
		return lines[i-1], nil
	})

	if _, err := s.SortBy(src, ByKey); !errors.Is(err, errSourceFailed) {
		t.Fatalf("expected source error, got %v", err)
	}
	assertNoChunks(t, fs)
}

// failingFS refuses to create more than allow files.
type failingFS struct {
	vfs.FS
	allow int
}

var errDiskFull = errors.New("disk full")

func (f *failingFS) Create(name string) (vfs.File, error) {
	if f.allow == 0 {
		return nil, errDiskFull
	}
	f.allow--
	return f.FS.Create(name)
}

func TestSortByStorageErrorIsFatal(t *testing.T) {
	mem := vfs.NewMem()
	s := newTestSorter(&failingFS{FS: mem, allow: 2}, 4)

	_, err := s.SortBy(sliceSource(randomLines(40, 5, 5)), ByKey)
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected storage error, got %v", err)
	}
	assertNoChunks(t, mem)
}

func TestChunkCursorDetectsCorruption(t *testing.T) {
	fs := vfs.NewMem()
	if err := fs.MkdirAll(spillDir, 0755); err != nil {
		t.Fatal(err)
	}

	path := chunkFileName(fs, spillDir, 0)
	chunk, err := writeChunk(fs, path, []record.Line{{Key: 1, Text: "aa"}, {Key: 2, Text: "bb"}})
	if err != nil {
		t.Fatalf("writeChunk failed: %v", err)
	}

	// same framing, different text
	f, err := fs.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	data := record.AppendLine(nil, record.Line{Key: 1, Text: "aa"})
	data = record.AppendLine(data, record.Line{Key: 2, Text: "bc"})
	if _, err := f.Write(data); err != nil {
		t.Fatal(err)
	}
	f.Close()

	c, err := openChunk(fs, chunk)
	if err != nil {
		t.Fatalf("openChunk failed: %v", err)
	}
	defer c.close()

	for {
		_, err = c.next()
		if err != nil {
			break
		}
	}
	if !errors.Is(err, record.ErrChunkCorrupt) {
		t.Fatalf("expected ErrChunkCorrupt, got %v", err)
	}
}

func TestChunkFileNames(t *testing.T) {
	fs := vfs.NewMem()
	if got := chunkFileName(fs, "/spill", 12); got != "/spill/000012.chunk" {
		t.Fatalf("unexpected chunk file name %q", got)
	}
}

func TestSortByRefusesLockedSpillDirectory(t *testing.T) {
	fs := vfs.NewMem()
	first := newTestSorter(fs, 4)
	second := newTestSorter(fs, 4)

	stream, err := first.SortBy(sliceSource(randomLines(20, 3, 9)), ByKey)
	if err != nil {
		t.Fatalf("SortBy failed: %v", err)
	}

	if _, err := second.SortBy(sliceSource(randomLines(20, 3, 10)), ByKey); !errors.Is(err, lock.ErrDirectoryInUse) {
		t.Fatalf("expected ErrDirectoryInUse, got %v", err)
	}

	// the refused sort must not touch the chunks of the running one
	got := drain(t, stream)
	if len(got) != 20 {
		t.Fatalf("expected 20 records, got %d", len(got))
	}
	assertNoChunks(t, fs)
}

func TestSortBySpillDirectoryLifetime(t *testing.T) {
	t.Run("directory created by the sorter is removed", func(t *testing.T) {
		fs := vfs.NewMem()
		s := &Sorter{FS: fs, Dir: "/tmp/run", ItemBudget: 4}

		stream, err := s.SortBy(sliceSource(randomLines(30, 4, 11)), ByKey)
		if err != nil {
			t.Fatalf("SortBy failed: %v", err)
		}
		if _, err := fs.Stat("/tmp/run"); err != nil {
			t.Fatalf("spill directory should exist while merging: %v", err)
		}

		drain(t, stream)

		if _, err := fs.Stat("/tmp/run"); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected spill directory to be removed, got %v", err)
		}
	})

	t.Run("existing directory is kept", func(t *testing.T) {
		fs := vfs.NewMem()
		if err := fs.MkdirAll("/tmp/run", 0755); err != nil {
			t.Fatal(err)
		}
		s := &Sorter{FS: fs, Dir: "/tmp/run", ItemBudget: 4}

		stream, err := s.SortBy(sliceSource(randomLines(30, 4, 12)), ByKey)
		if err != nil {
			t.Fatalf("SortBy failed: %v", err)
		}
		drain(t, stream)

		names, err := fs.List("/tmp/run")
		if err != nil {
			t.Fatalf("existing spill directory was removed: %v", err)
		}
		if len(names) != 0 {
			t.Fatalf("expected an empty directory, found %v", names)
		}
	})

	t.Run("directory created by the sorter is removed on error", func(t *testing.T) {
		fs := vfs.NewMem()
		s := &Sorter{FS: fs, Dir: "/tmp/run", ItemBudget: 2}

		lines := randomLines(10, 3, 13)
		i := 0
		src := SourceFunc(func() (record.Line, error) {
			if i == len(lines) {
				return record.Line{}, errSourceFailed
			}
			i++
			return lines[i-1], nil
		})

		if _, err := s.SortBy(src, ByKey); !errors.Is(err, errSourceFailed) {
			t.Fatalf("expected source error, got %v", err)
		}
		if _, err := fs.Stat("/tmp/run"); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected spill directory to be removed, got %v", err)
		}
	})
}

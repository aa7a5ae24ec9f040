package extsort

import (
	"container/heap"
	"io"

	"github.com/0xRadioAc7iv/biglog-sort/internal/record"
)

// Stream is the lazy, single-pass result of SortBy.
//
// Usage follows bufio.Scanner:
//
//	for stream.Next() {
//	    line := stream.Line()
//	}
//	if err := stream.Err(); err != nil {
//	    ...
//	}
//
// Temporary storage is released as soon as Next returns false. Callers that
// stop early must call Close.
type Stream struct {
	src     cursor
	release func() error

	line   record.Line
	err    error
	closed bool
}

func newStream(src cursor, release func() error) *Stream {
	return &Stream{src: src, release: release}
}

// Next advances to the next record. It returns false when the stream is
// drained or failed.
func (s *Stream) Next() bool {
	if s.closed {
		return false
	}

	line, err := s.src.next()
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		if cerr := s.Close(); s.err == nil {
			s.err = cerr
		}
		return false
	}

	s.line = line
	return true
}

// Line returns the record produced by the last successful Next.
func (s *Stream) Line() record.Line {
	return s.line
}

// Err returns the first error met while reading or releasing the stream.
func (s *Stream) Err() error {
	return s.err
}

// Close releases every chunk file backing the stream. It is safe to call
// more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.line = record.Line{}

	if s.release != nil {
		return s.release()
	}
	return s.src.close()
}

type mergeItem struct {
	line record.Line
	src  int // Index of the cursor the line came from
}

// mergeHeap orders heads by compare, then by cursor index so equal records
// keep their run order.
type mergeHeap struct {
	items   []mergeItem
	compare CompareFunc
}

func (h *mergeHeap) Len() int { return len(h.items) }

func (h *mergeHeap) Less(i, j int) bool {
	if c := h.compare(h.items[i].line, h.items[j].line); c != 0 {
		return c < 0
	}
	return h.items[i].src < h.items[j].src
}

func (h *mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *mergeHeap) Push(x any) { h.items = append(h.items, x.(mergeItem)) }

func (h *mergeHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// merger is the k-way merge over a set of sorted cursors.
type merger struct {
	cursors []cursor
	heap    mergeHeap
}

func newMerger(cursors []cursor, compare CompareFunc) (*merger, error) {
	m := &merger{
		cursors: cursors,
		heap:    mergeHeap{items: make([]mergeItem, 0, len(cursors)), compare: compare},
	}

	for i, c := range cursors {
		line, err := c.next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return nil, err
		}
		m.heap.items = append(m.heap.items, mergeItem{line: line, src: i})
	}
	heap.Init(&m.heap)

	return m, nil
}

func (m *merger) next() (record.Line, error) {
	if m.heap.Len() == 0 {
		return record.Line{}, io.EOF
	}

	top := m.heap.items[0]
	line, err := m.cursors[top.src].next()
	switch {
	case err == io.EOF:
		heap.Pop(&m.heap)
	case err != nil:
		return record.Line{}, err
	default:
		m.heap.items[0].line = line
		heap.Fix(&m.heap, 0)
	}

	return top.line, nil
}

func (m *merger) close() error {
	var first error
	for _, c := range m.cursors {
		if err := c.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

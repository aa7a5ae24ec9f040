package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/0xRadioAc7iv/biglog-sort/internal/extsort"
	"github.com/0xRadioAc7iv/biglog-sort/internal/record"
	"github.com/0xRadioAc7iv/biglog-sort/internal/utils"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"
)

// Pipeline sorts the lines of one file by keys derived from a keyword pass.
//
// Run reads the file three times, strictly one pass after another:
//
//  1. ScanKeywords builds the KeywordMap.
//  2. AssignKeys builds the LineMap; the KeywordMap is dropped right after.
//  3. ResolveOrder builds the LineOrder; the LineMap is dropped right after.
//
// The third read pairs each line with its LineOrder entry and feeds the
// external sorter, whose output is streamed to the writer.
type Pipeline struct {
	Extractor  KeywordExtractor // PrefixExtractor over DefaultKeywordPrefixes when nil
	Policy     KeyPolicy        // GroupByFirstSeen(Extractor) when nil
	FS         vfs.FS           // Storage for chunk files (vfs.Default when nil)
	SpillDir   string           // Directory for chunk files
	ItemBudget int              // extsort.DefaultItemBudget when <= 0
	Logger     *zap.Logger
}

// Stats summarizes one Run.
type Stats struct {
	Lines    uint64 // Physical lines read and written
	Keywords int    // Distinct tokens found by the keyword pass
	Chunks   int    // Chunk files spilled by the sorter
}

func (p *Pipeline) extractor() KeywordExtractor {
	if p.Extractor == nil {
		return NewPrefixExtractor(DefaultKeywordPrefixes)
	}
	return p.Extractor
}

func (p *Pipeline) policy() KeyPolicy {
	if p.Policy == nil {
		return GroupByFirstSeen(p.extractor())
	}
	return p.Policy
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Run sorts the file at path and writes one line per record to out.
// Every failure is fatal; out may have received a prefix of the output.
func (p *Pipeline) Run(path string, out io.Writer) (Stats, error) {
	var stats Stats
	log := p.logger().With(zap.String("path", path))

	order, err := p.buildOrder(path, &stats)
	if err != nil {
		return stats, err
	}

	// Give the intermediate maps back before the sort claims its budget.
	utils.ReleaseMemory()

	start := time.Now()
	sorter := &extsort.Sorter{
		FS:         p.FS,
		Dir:        p.SpillDir,
		ItemBudget: p.ItemBudget,
		Logger:     log,
	}

	n, err := p.sortAndWrite(path, order, sorter, out)
	stats.Chunks = sorter.Spilled()
	if err != nil {
		return stats, err
	}

	log.Info("sort finished",
		zap.Uint64("lines", n),
		zap.Int("chunks", stats.Chunks),
		zap.Duration("took", time.Since(start)),
	)

	return stats, nil
}

// buildOrder runs the two key passes. The KeywordMap and LineMap only live
// inside this call so nothing keeps them reachable during the sort.
func (p *Pipeline) buildOrder(path string, stats *Stats) (LineOrder, error) {
	lineMap, count, err := p.buildLineMap(path, stats)
	if err != nil {
		return nil, err
	}

	utils.ReleaseMemory()

	start := time.Now()
	order, err := ResolveOrder(lineMap, count)
	if err != nil {
		return nil, fmt.Errorf("resolve order: %w", err)
	}
	p.logger().Debug("order resolved", zap.Int("lines", len(order)), zap.Duration("took", time.Since(start)))

	return order, nil
}

func (p *Pipeline) buildLineMap(path string, stats *Stats) (LineMap, uint64, error) {
	log := p.logger()

	start := time.Now()
	keywords, err := ScanKeywords(path, p.extractor())
	if err != nil {
		return nil, 0, fmt.Errorf("scan keywords: %w", err)
	}
	stats.Keywords = len(keywords)
	log.Info("keyword scan finished", zap.Int("keywords", len(keywords)), zap.Duration("took", time.Since(start)))

	start = time.Now()
	count, lineMap, err := AssignKeys(path, keywords, p.policy())
	if err != nil {
		return nil, 0, fmt.Errorf("assign keys: %w", err)
	}
	stats.Lines = count
	log.Info("keys assigned", zap.Uint64("lines", count), zap.Duration("took", time.Since(start)))

	return lineMap, count, nil
}

// sortAndWrite re-reads path, tags each line with its key from order and
// streams the sorted result to out.
func (p *Pipeline) sortAndWrite(path string, order LineOrder, sorter *extsort.Sorter, out io.Writer) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	lr := newLineReader(f)
	var ordinal uint64
	src := extsort.SourceFunc(func() (record.Line, error) {
		text, err := lr.next()
		if err == io.EOF {
			if ordinal != uint64(len(order)) {
				return record.Line{}, fmt.Errorf("read %d lines, expected %d: %w", ordinal, len(order), ErrLineCountMismatch)
			}
			return record.Line{}, io.EOF
		}
		if err != nil {
			return record.Line{}, err
		}

		if ordinal >= uint64(len(order)) {
			return record.Line{}, fmt.Errorf("line %d past the %d keyed lines: %w", ordinal, len(order), ErrLineCountMismatch)
		}
		if !utf8.Valid(text) {
			return record.Line{}, fmt.Errorf("line %d: %w", ordinal, record.ErrInvalidText)
		}

		line := record.Line{Key: order[ordinal], Text: string(text)}
		ordinal++
		return line, nil
	})

	stream, err := sorter.SortBy(src, extsort.ByKey)
	if err != nil {
		return 0, fmt.Errorf("sort: %w", err)
	}
	defer stream.Close()

	w := bufio.NewWriterSize(out, outputBufferSize)
	var written uint64
	for stream.Next() {
		line := stream.Line()
		if _, err := w.WriteString(line.Text); err != nil {
			return written, fmt.Errorf("write output: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return written, fmt.Errorf("write output: %w", err)
		}
		written++
	}
	if err := stream.Err(); err != nil {
		return written, fmt.Errorf("merge: %w", err)
	}
	if err := w.Flush(); err != nil {
		return written, fmt.Errorf("write output: %w", err)
	}

	return written, nil
}

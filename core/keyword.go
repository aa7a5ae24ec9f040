package core

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
)

// KeywordEntry is the state the keyword pass keeps for one token.
//
// Rank is the 1-based order in which the token first appeared in the file.
// Tokens are never forgotten, so Rank is stable for the whole run.
type KeywordEntry struct {
	Rank      uint32 // Order of first appearance, starting at 1
	FirstLine uint64 // Ordinal of the line the token first appeared on
	Count     uint64 // Number of lines carrying the token
}

// KeywordMap maps each token found by the keyword pass to its entry.
//
// It is built in one forward scan and dropped as soon as the line keys have
// been assigned.
type KeywordMap map[string]KeywordEntry

// KeywordExtractor finds the token a line belongs to, if any.
type KeywordExtractor interface {
	Extract(line []byte) ([]byte, bool)
}

// PrefixExtractor takes the earliest occurrence of any prefix in a line. The
// token is the prefix plus its value, which runs up to whitespace or one of
// ",;])".
type PrefixExtractor struct {
	prefixes [][]byte
}

func NewPrefixExtractor(prefixes []string) *PrefixExtractor {
	e := &PrefixExtractor{}
	for _, p := range prefixes {
		if p != "" {
			e.prefixes = append(e.prefixes, []byte(p))
		}
	}
	return e
}

func (e *PrefixExtractor) Extract(line []byte) ([]byte, bool) {
	start, plen := -1, 0
	for _, p := range e.prefixes {
		i := bytes.Index(line, p)
		if i >= 0 && (start < 0 || i < start) {
			start, plen = i, len(p)
		}
	}
	if start < 0 {
		return nil, false
	}

	end := start + plen
	for end < len(line) && !isValueDelimiter(line[end]) {
		end++
	}
	if end == start+plen {
		return nil, false
	}

	return line[start:end], true
}

func isValueDelimiter(b byte) bool {
	switch b {
	case ' ', '\t', '\r', ',', ';', ']', ')':
		return true
	}
	return false
}

// RegexpExtractor takes the first submatch of a pattern, or the whole match
// when the pattern has no group.
type RegexpExtractor struct {
	re *regexp.Regexp
}

func NewRegexpExtractor(pattern string) (*RegexpExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("keyword pattern: %w", err)
	}
	return &RegexpExtractor{re: re}, nil
}

func (e *RegexpExtractor) Extract(line []byte) ([]byte, bool) {
	m := e.re.FindSubmatchIndex(line)
	if m == nil {
		return nil, false
	}

	lo, hi := m[0], m[1]
	if len(m) >= 4 && m[2] >= 0 {
		lo, hi = m[2], m[3]
	}
	if lo == hi {
		return nil, false
	}

	return line[lo:hi], true
}

// ScanKeywords reads path once and records every token the extractor finds.
func ScanKeywords(path string, extractor KeywordExtractor) (KeywordMap, error) {
	keywords := make(KeywordMap)

	_, err := eachLine(path, func(ordinal uint64, text []byte) error {
		token, ok := extractor.Extract(text)
		if !ok {
			return nil
		}

		entry, seen := keywords[string(token)]
		if !seen {
			if uint64(len(keywords)) >= math.MaxUint32 {
				return fmt.Errorf("line %d: %w", ordinal, ErrKeyOverflow)
			}
			entry = KeywordEntry{Rank: uint32(len(keywords) + 1), FirstLine: ordinal}
		}
		entry.Count++
		keywords[string(token)] = entry

		return nil
	})
	if err != nil {
		return nil, err
	}

	return keywords, nil
}

package core

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/0xRadioAc7iv/biglog-sort/internal/record"
)

// LineMap maps a line ordinal to its target key.
type LineMap map[uint64]uint32

// AssignState is what a KeyPolicy may carry from one line to the next.
type AssignState struct {
	Prev    uint32 // Key given to the previous line
	HasPrev bool   // False until the first line has been keyed
}

// KeyPolicy derives the target key of one line. It is called for every line
// strictly in file order and must be deterministic.
type KeyPolicy func(keywords KeywordMap, ordinal uint64, text []byte, state *AssignState) (uint32, error)

// GroupByFirstSeen keys a line carrying a token with the token's first-seen
// rank. A line without a token inherits the key of the line before it, so
// continuation lines such as stack traces stay with the line that owns them.
// Leading lines without a token get key 0.
func GroupByFirstSeen(extractor KeywordExtractor) KeyPolicy {
	return func(keywords KeywordMap, ordinal uint64, text []byte, state *AssignState) (uint32, error) {
		if token, ok := extractor.Extract(text); ok {
			entry, found := keywords[string(token)]
			if !found {
				return 0, fmt.Errorf("line %d: token %q missing from keyword map: %w", ordinal, token, ErrInputChanged)
			}
			return entry.Rank, nil
		}

		if state.HasPrev {
			return state.Prev, nil
		}
		return 0, nil
	}
}

// Identity keys every line with its own ordinal, leaving the file order as is.
func Identity(keywords KeywordMap, ordinal uint64, text []byte, state *AssignState) (uint32, error) {
	if ordinal > math.MaxUint32 {
		return 0, fmt.Errorf("line %d: %w", ordinal, ErrKeyOverflow)
	}
	return uint32(ordinal), nil
}

// PolicyByName returns the registered policy called name.
func PolicyByName(name string, extractor KeywordExtractor) (KeyPolicy, error) {
	switch name {
	case "", PolicyGroup:
		return GroupByFirstSeen(extractor), nil
	case PolicyIdentity:
		return Identity, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// AssignKeys reads path a second time and keys every line with policy.
// It returns the number of lines read together with the LineMap.
func AssignKeys(path string, keywords KeywordMap, policy KeyPolicy) (uint64, LineMap, error) {
	lineMap := make(LineMap)
	var state AssignState

	count, err := eachLine(path, func(ordinal uint64, text []byte) error {
		if !utf8.Valid(text) {
			return fmt.Errorf("line %d: %w", ordinal, record.ErrInvalidText)
		}

		key, err := policy(keywords, ordinal, text, &state)
		if err != nil {
			return err
		}

		lineMap[ordinal] = key
		state.Prev, state.HasPrev = key, true

		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	return count, lineMap, nil
}

package core

import "fmt"

// LineOrder holds the target key of every line, indexed by ordinal.
type LineOrder []uint32

// ResolveOrder turns lineMap into a dense LineOrder of exactly count entries.
// lineMap is emptied once resolved and must not be used afterwards.
func ResolveOrder(lineMap LineMap, count uint64) (LineOrder, error) {
	if uint64(len(lineMap)) != count {
		return nil, fmt.Errorf("line map holds %d entries for %d lines: %w", len(lineMap), count, ErrLineCountMismatch)
	}

	order := make(LineOrder, count)
	for ordinal, key := range lineMap {
		if ordinal >= count {
			return nil, fmt.Errorf("line map has ordinal %d past %d lines: %w", ordinal, count, ErrLineCountMismatch)
		}
		order[ordinal] = key
	}

	clear(lineMap)
	return order, nil
}

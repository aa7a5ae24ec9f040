package core_test

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"github.com/0xRadioAc7iv/biglog-sort/core"
	"github.com/0xRadioAc7iv/biglog-sort/internal/lock"
	"github.com/0xRadioAc7iv/biglog-sort/internal/record"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.Kind
	}{
		{"nil", nil, core.KindUnknown},
		{"truncated key", fmt.Errorf("chunk: %w", record.ErrTruncatedKey), core.KindDecode},
		{"corrupt chunk", fmt.Errorf("merge: %w", record.ErrChunkCorrupt), core.KindDecode},
		{"line count", fmt.Errorf("sort: %w", core.ErrLineCountMismatch), core.KindDecode},
		{"path error", &fs.PathError{Op: "open", Path: "app.log", Err: fs.ErrNotExist}, core.KindIO},
		{"errno", fmt.Errorf("write output: %w", syscall.ENOSPC), core.KindIO},
		{"locked spill dir", fmt.Errorf("sort: %w", lock.ErrDirectoryInUse), core.KindIO},
		{"other", errors.New("boom"), core.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

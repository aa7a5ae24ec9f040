package utils_test

import (
	"path/filepath"
	"testing"

	"github.com/0xRadioAc7iv/biglog-sort/internal/utils"
)

func TestSpillDirectoryPath(t *testing.T) {
	parent := t.TempDir()

	first := utils.SpillDirectoryPath(parent)
	second := utils.SpillDirectoryPath(parent)

	if first == second {
		t.Fatalf("expected distinct spill directories, got %q twice", first)
	}
	if filepath.Dir(first) != parent {
		t.Fatalf("expected %q under %q", first, parent)
	}
	if utils.PathExists(first) {
		t.Fatalf("SpillDirectoryPath must not create %q", first)
	}
	if err := utils.RemoveSpillDirectory(first); err != nil {
		t.Fatalf("removing a never created directory failed: %v", err)
	}
}

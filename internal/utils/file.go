package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

var spillDirSeq atomic.Uint64

// SpillDirectoryPath names a spill directory under parent (os.TempDir() when
// empty) that no other sort in this process uses. Nothing is created; the
// sorter makes the directory on its first spill.
func SpillDirectoryPath(parent string) string {
	if parent == "" {
		parent = os.TempDir()
	}
	name := fmt.Sprintf("biglog-sort-%d-%d", os.Getpid(), spillDirSeq.Add(1))
	return filepath.Join(parent, name)
}

// RemoveSpillDirectory deletes a spill directory along with anything left
// inside it. A directory that was never created is not an error.
func RemoveSpillDirectory(path string) error {
	if path == "" {
		return nil
	}
	return os.RemoveAll(path)
}

// Indicates if the given path exists or not (works for both files and directories)
func PathExists(filepath string) bool {
	_, err := os.Stat(filepath)
	return err == nil
}

package lock

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"

	"github.com/cockroachdb/pebble/vfs"
)

const FileName = "LOCK"

var ErrDirectoryInUse = errors.New("spill directory already in use by another sort")

// DirLock is an exclusive lock on a spill directory, held through a file
// named LOCK inside it.
type DirLock struct {
	fs     vfs.FS
	path   string
	closer io.Closer
}

// LockDirectory attempts to acquire an exclusive, non-blocking lock on dir.
//
// On the OS filesystem this is an advisory flock(2) (LockFileEx on Windows),
// so a second process sorting into the same directory fails fast instead of
// overwriting chunk files. In-memory filesystems lock within the process.
//
// A missing or unreadable directory, or a lock file that cannot be opened, is
// reported with its own error. Only a lock held elsewhere is
// ErrDirectoryInUse.
func LockDirectory(fs vfs.FS, dir string) (*DirLock, error) {
	if _, err := fs.Stat(dir); err != nil {
		return nil, fmt.Errorf("lock spill directory: %w", err)
	}

	path := fs.PathJoin(dir, FileName)

	closer, err := fs.Lock(path)
	if err != nil {
		var perr *iofs.PathError
		if errors.As(err, &perr) || errors.Is(err, iofs.ErrPermission) || errors.Is(err, iofs.ErrNotExist) {
			return nil, fmt.Errorf("lock spill directory: %w", err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryInUse, dir, err)
	}

	return &DirLock{fs: fs, path: path, closer: closer}, nil
}

// Unlock releases the lock and removes the lock file.
func (l *DirLock) Unlock() error {
	if l == nil || l.closer == nil {
		return nil
	}

	err := l.closer.Close()
	l.closer = nil
	if rmErr := l.fs.Remove(l.path); rmErr != nil {
		err = errors.Join(err, fmt.Errorf("remove lock file: %w", rmErr))
	}
	return err
}

package lock_test

import (
	"errors"
	"os"
	"testing"

	"github.com/0xRadioAc7iv/biglog-sort/internal/lock"
	"github.com/cockroachdb/pebble/vfs"
)

func TestLockDirectory(t *testing.T) {
	t.Run("second lock on the same directory is refused", func(t *testing.T) {
		fs := vfs.NewMem()
		if err := fs.MkdirAll("/spill", 0755); err != nil {
			t.Fatal(err)
		}

		l, err := lock.LockDirectory(fs, "/spill")
		if err != nil {
			t.Fatalf("could not acquire initial lock: %v", err)
		}

		if _, err := lock.LockDirectory(fs, "/spill"); !errors.Is(err, lock.ErrDirectoryInUse) {
			t.Errorf("expected ErrDirectoryInUse, got %v", err)
		}

		if err := l.Unlock(); err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}
	})

	t.Run("directory can be locked again after unlock", func(t *testing.T) {
		fs := vfs.NewMem()
		if err := fs.MkdirAll("/spill", 0755); err != nil {
			t.Fatal(err)
		}

		l, err := lock.LockDirectory(fs, "/spill")
		if err != nil {
			t.Fatal(err)
		}
		if err := l.Unlock(); err != nil {
			t.Fatal(err)
		}

		names, err := fs.List("/spill")
		if err != nil {
			t.Fatal(err)
		}
		if len(names) != 0 {
			t.Fatalf("lock file left behind: %v", names)
		}

		l, err = lock.LockDirectory(fs, "/spill")
		if err != nil {
			t.Fatalf("lock was supposed to be free: %v", err)
		}
		l.Unlock()
	})

	t.Run("missing directory is not reported as in use", func(t *testing.T) {
		fs := vfs.NewMem()

		_, err := lock.LockDirectory(fs, "/missing")
		if err == nil {
			t.Fatal("expected an error for a missing directory")
		}
		if errors.Is(err, lock.ErrDirectoryInUse) {
			t.Errorf("missing directory reported as in use: %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected the not-exist cause to be kept, got %v", err)
		}
	})

	t.Run("unlock is idempotent", func(t *testing.T) {
		var l *lock.DirLock
		if err := l.Unlock(); err != nil {
			t.Fatal(err)
		}
	})
}

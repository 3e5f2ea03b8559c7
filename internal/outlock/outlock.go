// Package outlock serializes runs that share an output directory.
package outlock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file created inside the output directory.
const FileName = ".stitcher.lock"

// ErrHeld means another process is writing into the same output directory.
var ErrHeld = errors.New("output directory is in use by another stitcher run")

// Lock is an exclusive advisory lock on one output directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock for dir without blocking. dir must exist.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHeld, dir)
	}
	return &Lock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks. The lock file stays so concurrent acquirers never race on
// a replaced inode.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

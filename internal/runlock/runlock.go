// Package runlock keeps two mirror runs from writing into the same output
// directory at once.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("output directory is in use by another run")

// Lock is an exclusive advisory lock on one output directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for outputDir inside lockDir. The name
// is derived from the absolute output path so it is stable across runs.
func LockPath(lockDir, outputDir string) (string, error) {
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.Clean(abs)))
	return filepath.Join(lockDir, id.String()+".lock"), nil
}

// Acquire takes the lock for outputDir without blocking.
func Acquire(lockDir, outputDir string) (*Lock, error) {
	path, err := LockPath(lockDir, outputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	l := &Lock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, outputDir)
	}
	return l, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

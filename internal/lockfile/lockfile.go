// Package lockfile provides a cross-process instance lock so two
// codescope servers never scan and append history against the same
// project root. Works on all platforms via gofrs/flock.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file created in the project state directory.
const LockFileName = "codescope.lock"

// Lock is a cross-process file lock.
type Lock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New creates a lock inside the given state directory.
func New(stateDir string) *Lock {
	path := filepath.Join(stateDir, LockFileName)
	return &Lock{path: path, flock: flock.New(path)}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// TryAcquire attempts to take the exclusive lock without blocking.
// Returns false when another instance holds it.
func (l *Lock) TryAcquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	l.locked = acquired
	return acquired, nil
}

// Release releases the lock. Safe to call when not held.
func (l *Lock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrBatchRunning is returned when another batch holds the lock.
var ErrBatchRunning = errors.New("another veritas batch is already running")

// BatchLock serializes batch runs that write to the same ledger.
type BatchLock struct {
	path string
	lock *flock.Flock
}

// AcquireBatchLock takes the lock at path without blocking.
func AcquireBatchLock(path string) (*BatchLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrBatchRunning, path)
	}
	return &BatchLock{path: path, lock: lock}, nil
}

// Release drops the lock.
func (b *BatchLock) Release() error {
	if b == nil || b.lock == nil {
		return nil
	}
	return b.lock.Unlock()
}

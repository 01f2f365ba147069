package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockRetryInterval = 100 * time.Millisecond
	lockTimeout       = 5 * time.Second
)

// Lock is an advisory, cross-process write lock over the store's
// top-level index. It must be held while pruning runs or updating
// anything that spans more than one run directory; individual run
// directories are written once and never mutated afterward, so they
// don't need it.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the store's write lock, trying non-blocking first and
// then retrying every 100ms for up to 5s before giving up. A store shared
// over a slow network filesystem can legitimately take a few hundred
// milliseconds to release a lock another process is still finishing with.
func AcquireLock(l Layout) (*Lock, error) {
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating %s: %w", l.Root, err)
	}
	fl := flock.New(l.LockPath())

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("store: acquiring lock %s: %w", l.LockPath(), err)
	}
	if !locked {
		return nil, fmt.Errorf("store: timed out acquiring lock %s after %s", l.LockPath(), lockTimeout)
	}
	return &Lock{fl: fl}, nil
}

// Release releases the lock.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

package storage

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrSnapshotLocked is returned when another tdi process is writing the same
// snapshot.
var ErrSnapshotLocked = errors.New("snapshot is locked by another process")

// lockFile takes a non-blocking exclusive flock on path, creating it if
// needed. The returned function releases the lock.
func lockFile(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, fmt.Errorf("%s: %w", path, ErrSnapshotLocked)
		}
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}

	return func() error {
		defer func() { _ = f.Close() }()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}

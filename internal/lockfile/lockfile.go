// Package lockfile provides an advisory per-server lock over
// <serverDir>/.mcpadre.lock: shared for `run`, exclusive for `install`, so a
// running server and a concurrent install never materialize the same
// directory at once.
//
// Grounded on the teacher's use of golang.org/x/sys/unix for low-level
// resource handles (sandbox/command.go's memfd_create via unix.MemfdCreate),
// generalized here from a memfd backing file to unix.Flock over a real path.
package lockfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock holds an open file descriptor carrying an advisory flock.
type Lock struct {
	file *os.File
}

// AcquireShared takes a shared (read) lock, suitable for `run`, which only
// ever performs SYNC against an already-materialized server directory.
func AcquireShared(path string) (*Lock, error) {
	return acquire(path, unix.LOCK_SH)
}

// AcquireExclusive takes an exclusive (write) lock, suitable for `install`,
// which may CREATE or UPGRADE the server directory.
func AcquireExclusive(path string) (*Lock, error) {
	return acquire(path, unix.LOCK_EX)
}

func acquire(path string, how int) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lockfile: opening %s: %w", path, err)
	}

	err = unix.Flock(int(file.Fd()), how)
	if err != nil {
		file.Close()

		return nil, fmt.Errorf("lockfile: locking %s: %w", path, err)
	}

	return &Lock{file: file}, nil
}

// Release drops the lock and closes the underlying file descriptor. It is
// not idempotent: call it once; a second call returns an error.
func (l *Lock) Release() error {
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()

	if err != nil {
		return fmt.Errorf("lockfile: unlocking: %w", err)
	}

	if closeErr != nil {
		return fmt.Errorf("lockfile: closing: %w", closeErr)
	}

	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// ErrLocked means another quietmic process holds the lock.
var ErrLocked = errors.New("another quietmic command is changing the audio routing")

// Lock is an exclusive flock(2) on a file. The kernel releases it when
// the process exits, so a crashed command never leaves it held.
type Lock struct {
	fd   int
	path string
}

// DefaultLockPath returns $XDG_RUNTIME_DIR/quietmic.lock, falling back
// to a per-user file in the system temporary directory.
func DefaultLockPath() string {
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		return filepath.Join(runtime, "quietmic.lock")
	}
	return filepath.Join(os.TempDir(), "quietmic-"+strconv.Itoa(os.Getuid())+".lock")
}

// AcquireLock takes the lock at path without blocking. It returns
// ErrLocked when another process holds it.
func AcquireLock(path string) (*Lock, error) {
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock %s: %w", path, err)
	}
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return &Lock{fd: fd, path: path}, nil
}

// Release drops the lock. The lock file itself is left in place;
// removing it would race with a process that just opened it.
func (l *Lock) Release() error {
	if l == nil || l.fd < 0 {
		return nil
	}
	err := unix.Flock(l.fd, unix.LOCK_UN)
	unix.Close(l.fd)
	l.fd = -1
	if err != nil {
		return fmt.Errorf("unlocking %s: %w", l.path, err)
	}
	return nil
}

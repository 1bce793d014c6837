// Package pidfile guards a single running watch session per user.
package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/grovetools/launchsync/errors"
)

// Handle is a held session guard.
type Handle struct {
	path string
	lock *flock.Flock
}

// Acquire takes an advisory lock next to path and records the current PID
// there. It fails while another live session holds the lock.
func Acquire(path string) (*Handle, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.FolderCreateFailed(filepath.Dir(path), err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.IOFailure("lock", lock.Path(), err)
	}
	if !locked {
		e := errors.New(errors.ErrCodeInvalidInput, "watch session already running").
			WithDetail("pidfile", path)
		if pid, err := Read(path); err == nil {
			e = e.WithDetail("pid", pid)
		}
		return nil, e
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		_ = lock.Unlock()
		return nil, errors.IOFailure("write", path, err)
	}
	return &Handle{path: path, lock: lock}, nil
}

// Release removes the PID file and drops the lock.
func (h *Handle) Release() error {
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		_ = h.lock.Unlock()
		return err
	}
	return h.lock.Unlock()
}

// Read returns the PID stored at path.
func Read(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(content)))
}

// IsRunning reports whether the session recorded at path is alive. A PID
// file left behind by a crashed session reads as stopped.
func IsRunning(path string) (bool, int, error) {
	pid, err := Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return Alive(pid), pid, nil
}

// Alive probes pid with signal 0. EPERM still means the process exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}

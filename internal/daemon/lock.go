package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// LockFileName is the process lock inside CitadelHome. Only the process
// holding it may open the progress record.
const LockFileName = "citadel.lock"

// LockInfo is the content of the lock file.
type LockInfo struct {
	PID  int    `json:"pid"`
	Addr string `json:"addr,omitempty"` // API base URL once the holder serves
}

// LockedError reports that another live process owns the progress record.
type LockedError struct {
	LockInfo
}

func (e *LockedError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("citadel is already serving at %s (pid %d)", e.Addr, e.PID)
	}
	return fmt.Sprintf("progress record is in use by pid %d", e.PID)
}

// Lock is a held process lock.
type Lock struct {
	path string
	info LockInfo
}

// AcquireLock takes the lock in dir. A lock left by a dead process is
// replaced; a live holder yields a *LockedError.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	l := &Lock{path: filepath.Join(dir, LockFileName), info: LockInfo{PID: os.Getpid()}}

	for attempt := 0; attempt < 2; attempt++ {
		err := l.create()
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}
		held, rerr := ReadLock(dir)
		if rerr == nil && processAlive(held.PID) {
			return nil, &LockedError{LockInfo: held}
		}
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}
	return nil, fmt.Errorf("acquire %s: lock keeps reappearing", l.path)
}

// create links a fully written temp file into place, so readers never see a
// half-written lock.
func (l *Lock) create() error {
	tmp, err := l.writeTemp()
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	return os.Link(tmp, l.path)
}

func (l *Lock) writeTemp() (string, error) {
	data, err := json.Marshal(l.info)
	if err != nil {
		return "", err
	}
	tmp := l.path + "." + strconv.Itoa(l.info.PID)
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return "", fmt.Errorf("write lock: %w", err)
	}
	return tmp, nil
}

// SetAddr records the API address of the holder so other commands can
// route through it.
func (l *Lock) SetAddr(addr string) error {
	l.info.Addr = addr
	tmp, err := l.writeTemp()
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("update lock: %w", err)
	}
	return nil
}

// Release removes the lock if this process still holds it.
func (l *Lock) Release() error {
	held, err := ReadLock(filepath.Dir(l.path))
	if err != nil || held.PID != l.info.PID {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadLock returns the current lock in dir.
func ReadLock(dir string) (LockInfo, error) {
	var info LockInfo
	data, err := os.ReadFile(filepath.Join(dir, LockFileName))
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("parse lock: %w", err)
	}
	return info, nil
}

// processAlive reports whether pid names a running process. Signal 0 checks
// the pid without delivering anything.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if pid == os.Getpid() {
		return true
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

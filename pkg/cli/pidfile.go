package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// WritePIDFile writes the current process ID to path, creating parent
// directories as needed. The returned function removes the file and is safe
// to call more than once.
func WritePIDFile(path string) (remove func(), err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create PID file directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("failed to write PID file %q: %w", path, err)
	}

	removed := false
	return func() {
		if removed {
			return
		}
		removed = true
		_ = os.Remove(path)
	}, nil
}

// ReadPIDFile returns the process ID stored at path.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("PID file %q does not contain a process ID", path)
	}
	return pid, nil
}

// SignalReload sends SIGHUP to the process recorded in the PID file at
// path. Every failure is returned as a *ReloadError.
func SignalReload(path string) error {
	return signalPID(path, syscall.SIGHUP)
}

func signalPID(path string, sig syscall.Signal) error {
	pid, err := ReadPIDFile(path)
	if err != nil {
		return &ReloadError{PIDFile: path, Err: err}
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return &ReloadError{PIDFile: path, PID: pid, Err: err}
	}
	if err := proc.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			err = fmt.Errorf("process is not running: %w", err)
		}
		return &ReloadError{PIDFile: path, PID: pid, Err: err}
	}
	return nil
}

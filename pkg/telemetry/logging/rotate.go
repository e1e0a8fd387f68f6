package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Rotation periods.
const (
	RotateDaily  = "daily"
	RotateHourly = "hourly"
	RotateNever  = "never"
)

// RotatingFile is an io.Writer that appends to <dir>/<prefix>.<period>.log
// and switches files when the period changes. With RotateNever the file is
// <dir>/<prefix>.log.
type RotatingFile struct {
	mu      sync.Mutex
	dir     string
	prefix  string
	layout  string
	file    *os.File
	current string
	now     func() time.Time
}

// NewRotatingFile creates dir if needed and opens the file for the current
// period.
func NewRotatingFile(dir, prefix, rotation string) (*RotatingFile, error) {
	layout, err := periodLayout(rotation)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "wsrelay"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}

	rf := &RotatingFile{
		dir:    dir,
		prefix: prefix,
		layout: layout,
		now:    time.Now,
	}
	if err := rf.open(rf.name(rf.now())); err != nil {
		return nil, err
	}
	return rf, nil
}

// Write appends p to the file for the current period.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if name := rf.name(rf.now()); name != rf.current {
		if err := rf.open(name); err != nil {
			return 0, err
		}
	}
	if rf.file == nil {
		return 0, os.ErrClosed
	}
	return rf.file.Write(p)
}

// Path returns the path of the file currently written to.
func (rf *RotatingFile) Path() string {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	return rf.current
}

// Close closes the current file.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}

func (rf *RotatingFile) name(t time.Time) string {
	if rf.layout == "" {
		return filepath.Join(rf.dir, rf.prefix+".log")
	}
	return filepath.Join(rf.dir, rf.prefix+"."+t.Format(rf.layout)+".log")
}

// open must be called with mu held.
func (rf *RotatingFile) open(name string) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q: %w", name, err)
	}
	if rf.file != nil {
		rf.file.Close()
	}
	rf.file = f
	rf.current = name
	return nil
}

func periodLayout(rotation string) (string, error) {
	switch strings.ToLower(rotation) {
	case RotateDaily, "":
		return "2006-01-02", nil
	case RotateHourly:
		return "2006-01-02-15", nil
	case RotateNever:
		return "", nil
	default:
		return "", fmt.Errorf("unknown rotation: %s", rotation)
	}
}

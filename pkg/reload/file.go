package reload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileSource emits an event when the configuration file changes.
//
// The parent directory is watched rather than the file itself so that
// editors and deploy tools that replace the file by rename are still seen.
// Bursts of events are coalesced by a debouncer.
type FileSource struct {
	path     string
	interval time.Duration
	logger   *slog.Logger
}

// NewFileSource watches path, emitting at most one event per quiet period
// of interval.
func NewFileSource(path string, interval time.Duration, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, interval: interval, logger: logger}
}

// Name implements Source.
func (f *FileSource) Name() string { return "file" }

// Run watches the file until ctx is cancelled.
func (f *FileSource) Run(ctx context.Context, events chan<- Event) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(f.path)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", f.path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(abs), err)
	}

	debounce := NewDebouncer(f.interval)
	defer debounce.Stop()

	f.logger.Info("watching configuration file",
		"path", abs,
		"debounce_ms", f.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !f.relevant(abs, event) {
				continue
			}
			f.logger.Debug("configuration file event", "op", event.Op.String())
			detail := event.Op.String()
			debounce.Trigger(func() {
				select {
				case events <- Event{Source: f.Name(), Detail: detail}:
				case <-ctx.Done():
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			f.logger.Error("file watcher error", "error", err)
		}
	}
}

func (f *FileSource) relevant(abs string, event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == abs
}

// Debouncer runs the most recently triggered callback once events have
// stopped arriving for the configured interval.
type Debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

// NewDebouncer creates a debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger records callback and restarts the quiet period.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	cb := d.callback
	d.callback = nil
	stopped := d.stopped
	d.mu.Unlock()

	if cb != nil && !stopped {
		cb()
	}
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}

package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/journal"
)

// Config contains configuration for the session recorder.
type Config struct {
	// AsyncBuffer is the capacity of the write queue.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds a single storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// OnDrop is called for every record that could not be queued.
	OnDrop func(record *journal.SessionRecord)
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// FromConfig maps the journal section onto a recorder Config.
func FromConfig(cfg *config.JournalConfig) *Config {
	return &Config{
		AsyncBuffer:  cfg.AsyncBuffer,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// Recorder writes session records to storage from a single background
// worker. Record never blocks: when the queue is full the record is
// dropped.
type Recorder struct {
	storage    journal.Storage
	config     *Config
	recordChan chan *journal.SessionRecord
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

// New creates a recorder and starts its worker.
func New(storage journal.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *journal.SessionRecord, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "journal.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("session recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues record for writing and reports whether it was accepted.
func (r *Recorder) Record(record *journal.SessionRecord) bool {
	select {
	case <-r.done:
		r.drop(record, "recorder closed")
		return false
	default:
	}

	select {
	case r.recordChan <- record:
		return true
	default:
		r.drop(record, "queue full")
		return false
	}
}

// Close stops accepting records, drains the queue and waits for the worker.
// It is safe to call more than once.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.logger.Info("session recorder shut down")
	})
	return nil
}

func (r *Recorder) drop(record *journal.SessionRecord, reason string) {
	r.logger.Warn("dropping session record",
		"session_id", record.ID,
		"reason", reason,
		"queue_capacity", r.config.AsyncBuffer,
	)
	if r.config.OnDrop != nil {
		r.config.OnDrop(record)
	}
}

// worker drains the queue until Close, then flushes what is left.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *journal.SessionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store session record",
			"session_id", record.ID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)
	r.logger.Debug("session recorded",
		"session_id", record.ID,
		"outcome", record.Outcome,
		"duration_ms", duration.Milliseconds(),
	)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow session write",
			"session_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}

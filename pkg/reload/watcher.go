package reload

import (
	"context"
	"log/slog"
	"sync"

	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/telemetry/metrics"
)

// Event is a reload request emitted by a Source.
type Event struct {
	// Source is the name of the emitting source.
	Source string

	// Detail describes the trigger, such as the signal or file operation.
	Detail string
}

// Source emits reload requests until ctx is cancelled.
type Source interface {
	Name() string
	Run(ctx context.Context, events chan<- Event) error
}

// Watcher applies configuration reloads requested by its sources.
type Watcher struct {
	store   *config.Store
	metrics *metrics.Collector
	logger  *slog.Logger
	sources []Source

	// mu serializes reloads from concurrent sources.
	mu sync.Mutex
}

// NewWatcher creates a Watcher reloading store. The collector may be nil.
func NewWatcher(store *config.Store, collector *metrics.Collector, logger *slog.Logger, sources ...Source) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store:   store,
		metrics: collector,
		logger:  logger.With("component", "reload"),
		sources: sources,
	}
}

// Run starts every source and reloads on each event. It blocks until ctx
// is cancelled and all sources have returned.
func (w *Watcher) Run(ctx context.Context) error {
	events := make(chan Event)

	var wg sync.WaitGroup
	for _, src := range w.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			if err := src.Run(ctx, events); err != nil {
				w.logger.Error("reload source stopped", "source", src.Name(), "error", err)
			}
		}(src)
	}

	w.logger.Info("reload watcher started", "sources", len(w.sources))

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			w.logger.Info("reload watcher stopped")
			return nil
		case ev := <-events:
			_ = w.Reload(ev)
		}
	}
}

// Reload re-reads the configuration file and swaps it in. On failure the
// active snapshot is kept and the error is returned after being logged.
func (w *Watcher) Reload(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	logger := w.logger.With("source", ev.Source, "trigger", ev.Detail)
	logger.Info("reloading configuration", "path", w.store.Path())

	cfg, err := w.store.Reload()
	if err != nil {
		w.metrics.RecordReload(false, w.store.Current().UserCount())
		logger.Error("configuration reload failed, keeping previous configuration", "error", err)
		return err
	}

	w.metrics.RecordReload(true, cfg.UserCount())
	logger.Info("configuration reloaded", "users", cfg.UserCount())
	return nil
}

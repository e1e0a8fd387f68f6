package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/wsrelay/pkg/journal"
	"mercator-hq/wsrelay/pkg/journal/storage"
)

type failingDelete struct {
	*storage.MemoryStorage
}

func (failingDelete) Delete(context.Context, *journal.Query) (int64, error) {
	return 0, errors.New("locked")
}

func TestPruner_Prune(t *testing.T) {
	now := time.Date(2026, 3, 31, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		retentionDays int
		wantDeleted   int64
		wantRemaining int64
	}{
		{"seven days", 7, 2, 2},
		{"keep forever", 0, 0, 4},
		{"long retention", 365, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStorage()
			ctx := context.Background()
			for id, age := range map[string]int{"old-1": 10, "old-2": 8, "recent-1": 5, "recent-2": 3} {
				store.Store(ctx, &journal.SessionRecord{ID: id, StartedAt: now.AddDate(0, 0, -age)})
			}

			p := NewPruner(store, &Config{RetentionDays: tt.retentionDays})
			p.now = func() time.Time { return now }

			deleted, err := p.Prune(ctx)
			if err != nil {
				t.Fatalf("Prune() error = %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("Prune() = %d, want %d", deleted, tt.wantDeleted)
			}
			remaining, _ := store.Count(ctx, nil)
			if remaining != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", remaining, tt.wantRemaining)
			}
		})
	}
}

func TestPruner_StorageError(t *testing.T) {
	p := NewPruner(failingDelete{storage.NewMemoryStorage()}, &Config{RetentionDays: 1})
	_, err := p.Prune(context.Background())

	var retErr *journal.RetentionError
	if !errors.As(err, &retErr) {
		t.Fatalf("error = %v, want *journal.RetentionError", err)
	}
	if retErr.RetentionDays != 1 {
		t.Errorf("RetentionDays = %d, want 1", retErr.RetentionDays)
	}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		wantErr     bool
		wantRunning bool
	}{
		{"valid schedule", &Config{RetentionDays: 30, PruneSchedule: "0 3 * * *"}, false, true},
		{"empty schedule", &Config{RetentionDays: 30}, false, false},
		{"retention disabled", &Config{PruneSchedule: "0 3 * * *"}, false, false},
		{"invalid schedule", &Config{RetentionDays: 30, PruneSchedule: "every day"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s := NewScheduler(NewPruner(storage.NewMemoryStorage(), tt.config))
			err := s.Start(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", s.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning {
				next := s.NextRun()
				if next == nil || next.Hour() != 3 {
					t.Errorf("NextRun() = %v, want a 03:00 run", next)
				}
			}
			s.Stop()
			if s.IsRunning() {
				t.Error("IsRunning() after Stop = true")
			}
		})
	}
}

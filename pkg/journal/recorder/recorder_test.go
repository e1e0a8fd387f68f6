package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/wsrelay/pkg/journal"
	"mercator-hq/wsrelay/pkg/journal/storage"
)

// blockingStorage holds every Store call until release is closed.
type blockingStorage struct {
	*storage.MemoryStorage
	release chan struct{}
	stores  atomic.Int32
}

func (b *blockingStorage) Store(ctx context.Context, r *journal.SessionRecord) error {
	<-b.release
	b.stores.Add(1)
	return b.MemoryStorage.Store(ctx, r)
}

type failingStorage struct {
	*storage.MemoryStorage
}

func (failingStorage) Store(context.Context, *journal.SessionRecord) error {
	return errors.New("disk full")
}

func TestRecorder_RecordAndClose(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := New(store, &Config{AsyncBuffer: 10, WriteTimeout: time.Second})

	for i := 0; i < 5; i++ {
		if !rec.Record(&journal.SessionRecord{ID: fmt.Sprintf("s%d", i), Outcome: journal.OutcomeCompleted}) {
			t.Fatalf("Record(%d) rejected", i)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	n, err := store.Count(context.Background(), nil)
	if err != nil || n != 5 {
		t.Errorf("stored %d records (%v), want 5", n, err)
	}

	// Closing twice is harmless and later records are dropped.
	rec.Close()
	if rec.Record(&journal.SessionRecord{ID: "late"}) {
		t.Error("Record() after Close accepted")
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	store := &blockingStorage{MemoryStorage: storage.NewMemoryStorage(), release: make(chan struct{})}

	var mu sync.Mutex
	var dropped []string
	rec := New(store, &Config{
		AsyncBuffer:  1,
		WriteTimeout: time.Second,
		OnDrop: func(r *journal.SessionRecord) {
			mu.Lock()
			dropped = append(dropped, r.ID)
			mu.Unlock()
		},
	})

	// The worker takes the first record and blocks in Store; the second
	// fills the queue; every further record is dropped without blocking.
	rec.Record(&journal.SessionRecord{ID: "first"})
	deadline := time.Now().Add(2 * time.Second)
	for len(rec.recordChan) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	rec.Record(&journal.SessionRecord{ID: "queued"})

	done := make(chan bool)
	go func() { done <- rec.Record(&journal.SessionRecord{ID: "overflow"}) }()
	select {
	case ok := <-done:
		if ok {
			t.Error("Record() on a full queue accepted")
		}
	case <-time.After(time.Second):
		t.Fatal("Record() blocked on a full queue")
	}

	close(store.release)
	rec.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(dropped) != 1 || dropped[0] != "overflow" {
		t.Errorf("dropped = %v, want [overflow]", dropped)
	}
	if got := store.stores.Load(); got != 2 {
		t.Errorf("stored %d records, want 2", got)
	}
}

func TestRecorder_StoreErrorDoesNotStopWorker(t *testing.T) {
	rec := New(failingStorage{storage.NewMemoryStorage()}, nil)
	for i := 0; i < 3; i++ {
		rec.Record(&journal.SessionRecord{ID: fmt.Sprintf("s%d", i)})
	}
	done := make(chan struct{})
	go func() {
		rec.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close() did not return")
	}
}

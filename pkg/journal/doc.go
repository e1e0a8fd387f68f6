// Package journal records a summary of every finished relay session.
//
// A SessionRecord is written once, when the session ends, and never
// updated. It carries who connected, where to, how the session ended and
// how much traffic crossed the relay in each direction. Payloads are never
// recorded.
//
// # Components
//
//   - storage: backends implementing Storage (memory, SQLite, Redis)
//   - recorder: asynchronous writer with a bounded queue
//   - retention: age-based pruning driven by a cron schedule
//   - export: JSON and CSV encoders used by the sessions command
//
// # Usage
//
//	store, err := storage.Open(&cfg.Journal)
//	if err != nil {
//	    return err
//	}
//	rec := recorder.New(store, recorder.FromConfig(&cfg.Journal))
//	defer rec.Close()
//
//	rec.Record(&journal.SessionRecord{ID: id, User: "alice", ...})
//
// The recorder never blocks a session: when its queue is full the record
// is dropped and counted.
package journal

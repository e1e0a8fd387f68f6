// Package recorder writes session records to a journal backend without
// blocking the relay. A single worker drains a bounded queue; Close flushes
// whatever is still queued.
package recorder

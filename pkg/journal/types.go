package journal

import (
	"context"
	"time"
)

// Outcome classifies how a session ended.
type Outcome string

// Session outcomes.
const (
	OutcomeCompleted     Outcome = "completed"
	OutcomeIdleTimeout   Outcome = "idle_timeout"
	OutcomeAuthTimeout   Outcome = "auth_timeout"
	OutcomeClientClosed  Outcome = "client_closed"
	OutcomeMalformedAuth Outcome = "malformed_auth"
	OutcomeAuthFailed    Outcome = "auth_failed"
	OutcomeDialFailed    Outcome = "dial_failed"
	OutcomeRelayError    Outcome = "relay_error"
	OutcomeShutdown      Outcome = "shutdown"
)

// Failed reports whether the outcome ended the session before or during the
// relay because of an error.
func (o Outcome) Failed() bool {
	switch o {
	case OutcomeCompleted, OutcomeIdleTimeout, OutcomeShutdown, OutcomeClientClosed:
		return false
	default:
		return true
	}
}

// SessionRecord is the audit summary of one relay session.
type SessionRecord struct {
	// Identity
	ID         string `json:"id"`          // UUID v4 assigned at upgrade
	User       string `json:"user"`        // Authenticated user name, empty if auth never succeeded
	Target     string `json:"target"`      // Requested target URL
	RemoteAddr string `json:"remote_addr"` // Client address
	Mode       string `json:"mode"`        // "in_band" or "header"

	// Timestamps
	StartedAt time.Time `json:"started_at"` // Upgrade completed
	EndedAt   time.Time `json:"ended_at"`   // Both connections released

	// Result
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`

	// Traffic
	FramesClientToTarget int64 `json:"frames_client_to_target"`
	FramesTargetToClient int64 `json:"frames_target_to_client"`
	BytesClientToTarget  int64 `json:"bytes_client_to_target"`
	BytesTargetToClient  int64 `json:"bytes_target_to_client"`
}

// Duration returns how long the session lasted.
func (r *SessionRecord) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Query defines filter parameters for reading session records.
type Query struct {
	// Time range, applied to StartedAt
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	User    string  `json:"user,omitempty"`
	Target  string  `json:"target,omitempty"`
	Outcome Outcome `json:"outcome,omitempty"`

	// Pagination. Results are ordered newest first.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryLimit is applied when Query.Limit is zero.
const DefaultQueryLimit = 100

// Matches reports whether record passes the query filters. Pagination is
// not considered.
func (q *Query) Matches(record *SessionRecord) bool {
	if q == nil {
		return true
	}
	if q.StartTime != nil && record.StartedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && record.StartedAt.After(*q.EndTime) {
		return false
	}
	if q.User != "" && record.User != q.User {
		return false
	}
	if q.Target != "" && record.Target != q.Target {
		return false
	}
	if q.Outcome != "" && record.Outcome != q.Outcome {
		return false
	}
	return true
}

// Storage defines the interface for journal backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a session record. Records with an existing ID are
	// replaced.
	Store(ctx context.Context, record *SessionRecord) error

	// Query returns records matching the filters, newest first.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*SessionRecord, error)

	// Count returns the number of records matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the filters and returns how many
	// were removed. Used for retention.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}

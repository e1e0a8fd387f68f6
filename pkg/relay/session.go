package relay

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"mercator-hq/wsrelay/pkg/journal"
)

// Session modes.
const (
	ModeInBand = "in_band"
	ModeHeader = "header"
)

// Session is the in-flight state of one client connection. It exists from
// the completed upgrade until both connections are released.
type Session struct {
	ID         string
	User       string
	Target     string
	RemoteAddr string
	Mode       string
	StartedAt  time.Time
	EndedAt    time.Time
	Stats      Stats
	Outcome    journal.Outcome
	Err        error

	client *websocket.Conn
}

// Record returns the journal summary of a finished session.
func (s *Session) Record() *journal.SessionRecord {
	rec := &journal.SessionRecord{
		ID:                   s.ID,
		User:                 s.User,
		Target:               s.Target,
		RemoteAddr:           s.RemoteAddr,
		Mode:                 s.Mode,
		StartedAt:            s.StartedAt,
		EndedAt:              s.EndedAt,
		Outcome:              s.Outcome,
		FramesClientToTarget: s.Stats.ClientToTarget.Frames,
		FramesTargetToClient: s.Stats.TargetToClient.Frames,
		BytesClientToTarget:  s.Stats.ClientToTarget.Bytes,
		BytesTargetToClient:  s.Stats.TargetToClient.Bytes,
	}
	if s.Err != nil {
		rec.Error = s.Err.Error()
	}
	return rec
}

// outcomeOf classifies the error a session ended with.
func outcomeOf(err error, stats Stats) journal.Outcome {
	switch {
	case err == nil && stats.TimedOut:
		return journal.OutcomeIdleTimeout
	case err == nil:
		return journal.OutcomeCompleted
	case errors.Is(err, context.Canceled):
		return journal.OutcomeShutdown
	case errors.Is(err, ErrAuthTimeout):
		return journal.OutcomeAuthTimeout
	case errors.Is(err, ErrClientClosed):
		return journal.OutcomeClientClosed
	case errors.Is(err, ErrMalformedAuth):
		return journal.OutcomeMalformedAuth
	case errors.Is(err, ErrAuthFailed):
		return journal.OutcomeAuthFailed
	}

	var pe *PhaseError
	if errors.As(err, &pe) && pe.Phase == PhaseDial {
		return journal.OutcomeDialFailed
	}
	return journal.OutcomeRelayError
}

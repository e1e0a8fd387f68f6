package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/gorilla/websocket"

	"mercator-hq/wsrelay/pkg/journal"
)

func TestRelayError(t *testing.T) {
	tests := []struct {
		name    string
		err     *RelayError
		wantMsg string
		wantIs  []error
	}{
		{
			name:    "client side",
			err:     &RelayError{ClientToTarget: io.ErrUnexpectedEOF},
			wantMsg: "client to target: unexpected EOF",
			wantIs:  []error{io.ErrUnexpectedEOF},
		},
		{
			name:    "both sides",
			err:     &RelayError{ClientToTarget: io.ErrUnexpectedEOF, TargetToClient: io.ErrClosedPipe},
			wantMsg: "client to target: unexpected EOF; target to client: io: read/write on closed pipe",
			wantIs:  []error{io.ErrUnexpectedEOF, io.ErrClosedPipe},
		},
		{
			name:    "empty",
			err:     &RelayError{},
			wantMsg: "relay failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			wrapped := &PhaseError{Phase: PhaseRelay, Cause: tt.err}
			for _, target := range tt.wantIs {
				if !errors.Is(wrapped, target) {
					t.Errorf("errors.Is(%v) = false", target)
				}
			}
			var relayErr *RelayError
			if !errors.As(wrapped, &relayErr) {
				t.Error("errors.As(*RelayError) = false")
			}
		})
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		stats Stats
		want  journal.Outcome
	}{
		{"clean", nil, Stats{}, journal.OutcomeCompleted},
		{"idle", nil, Stats{TimedOut: true}, journal.OutcomeIdleTimeout},
		{"auth timeout", &PhaseError{Phase: PhaseAuth, Cause: fmt.Errorf("%w: i/o timeout", ErrAuthTimeout)}, Stats{}, journal.OutcomeAuthTimeout},
		{"malformed", &PhaseError{Phase: PhaseAuth, Cause: fmt.Errorf("%w: missing token", ErrMalformedAuth)}, Stats{}, journal.OutcomeMalformedAuth},
		{"client gone", &PhaseError{Phase: PhaseAuth, Cause: fmt.Errorf("%w: EOF", ErrClientClosed)}, Stats{}, journal.OutcomeClientClosed},
		{"bad token", &PhaseError{Phase: PhaseAuth, Cause: ErrAuthFailed}, Stats{}, journal.OutcomeAuthFailed},
		{"dial", &PhaseError{Phase: PhaseDial, Cause: errors.New("connection refused")}, Stats{}, journal.OutcomeDialFailed},
		{"relay", &PhaseError{Phase: PhaseRelay, Cause: &RelayError{TargetToClient: io.ErrUnexpectedEOF}}, Stats{}, journal.OutcomeRelayError},
		{"shutdown during relay", &PhaseError{Phase: PhaseRelay, Cause: context.Canceled}, Stats{}, journal.OutcomeShutdown},
		{"shutdown during dial", &PhaseError{Phase: PhaseDial, Cause: fmt.Errorf("dial: %w", context.Canceled)}, Stats{}, journal.OutcomeShutdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outcomeOf(tt.err, tt.stats); got != tt.want {
				t.Errorf("outcomeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthReadError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", fmt.Errorf("read tcp: %w", os.ErrDeadlineExceeded), ErrAuthTimeout},
		{"oversized", websocket.ErrReadLimit, ErrMalformedAuth},
		{"close frame", &websocket.CloseError{Code: websocket.CloseNormalClosure}, ErrClientClosed},
		{"dropped", io.ErrUnexpectedEOF, ErrClientClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := authReadError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("authReadError(%v) = %v, want %v", tt.err, got, tt.want)
			}
			for _, other := range []error{ErrAuthTimeout, ErrMalformedAuth, ErrClientClosed} {
				if other != tt.want && errors.Is(got, other) {
					t.Errorf("authReadError(%v) also matches %v", tt.err, other)
				}
			}
		})
	}
}

func TestTruncateReason(t *testing.T) {
	short := "connection refused"
	if got := truncateReason(short); got != short {
		t.Errorf("truncateReason(short) = %q", got)
	}

	long := ""
	for len(long) < 200 {
		long += "连接"
	}
	got := truncateReason(long)
	if len(got) > maxCloseReason {
		t.Errorf("len = %d, want <= %d", len(got), maxCloseReason)
	}
	for _, r := range got {
		if r == '�' {
			t.Fatal("truncateReason split a rune")
		}
	}
}

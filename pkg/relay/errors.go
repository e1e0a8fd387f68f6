package relay

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for authentication failures.
var (
	// ErrAuthTimeout means no authentication message arrived in time.
	ErrAuthTimeout = errors.New("authentication timed out")

	// ErrClientClosed means the client closed or dropped the connection
	// before authenticating.
	ErrClientClosed = errors.New("client closed before authenticating")

	// ErrMalformedAuth means the first message was not a valid
	// authentication request.
	ErrMalformedAuth = errors.New("malformed authentication message")

	// ErrAuthFailed means the token matched no configured user.
	ErrAuthFailed = errors.New("authentication failed")
)

// Phase names the session step in which an error occurred.
type Phase string

// Session phases.
const (
	PhaseAuth  Phase = "auth"
	PhaseDial  Phase = "dial"
	PhaseRelay Phase = "relay"
)

// PhaseError is a per-session failure tagged with its phase.
type PhaseError struct {
	Phase Phase
	Cause error
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *PhaseError) Unwrap() error {
	return e.Cause
}

// RelayError collects the transport errors of both relay directions.
// Either field may be nil.
type RelayError struct {
	ClientToTarget error
	TargetToClient error
}

// Error implements the error interface.
func (e *RelayError) Error() string {
	var parts []string
	if e.ClientToTarget != nil {
		parts = append(parts, "client to target: "+e.ClientToTarget.Error())
	}
	if e.TargetToClient != nil {
		parts = append(parts, "target to client: "+e.TargetToClient.Error())
	}
	if len(parts) == 0 {
		return "relay failed"
	}
	return strings.Join(parts, "; ")
}

// Unwrap returns the non-nil direction errors.
func (e *RelayError) Unwrap() []error {
	var errs []error
	if e.ClientToTarget != nil {
		errs = append(errs, e.ClientToTarget)
	}
	if e.TargetToClient != nil {
		errs = append(errs, e.TargetToClient)
	}
	return errs
}

package reload

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalSource emits an event for every reload signal the process receives.
type SignalSource struct {
	ch chan os.Signal
}

// NewSignalSource subscribes to sigs, or SIGHUP when none are given. The
// subscription starts immediately so no signal is lost before Run.
func NewSignalSource(sigs ...os.Signal) *SignalSource {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGHUP}
	}
	s := &SignalSource{ch: make(chan os.Signal, 1)}
	signal.Notify(s.ch, sigs...)
	return s
}

// Name implements Source.
func (s *SignalSource) Name() string { return "signal" }

// Run forwards signals until ctx is cancelled, then unsubscribes.
func (s *SignalSource) Run(ctx context.Context, events chan<- Event) error {
	defer signal.Stop(s.ch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-s.ch:
			select {
			case events <- Event{Source: s.Name(), Detail: sig.String()}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

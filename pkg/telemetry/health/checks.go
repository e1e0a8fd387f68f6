package health

import (
	"context"
	"errors"

	"mercator-hq/wsrelay/pkg/config"
)

// Pinger is implemented by dependencies that can report reachability, such
// as journal storage backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConfigCheck fails when the store holds no snapshot or the snapshot has no
// users.
func ConfigCheck(store *config.Store) CheckFunc {
	return func(ctx context.Context) error {
		cfg := store.Current()
		if cfg == nil {
			return errors.New("no configuration loaded")
		}
		if cfg.UserCount() == 0 {
			return errors.New("no users configured")
		}
		return nil
	}
}

// PingCheck adapts a Pinger to a CheckFunc.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// ListeningCheck fails until listening reports true.
func ListeningCheck(listening func() bool) CheckFunc {
	return func(ctx context.Context) error {
		if !listening() {
			return errors.New("relay listener not started")
		}
		return nil
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/telemetry/health"
	"mercator-hq/wsrelay/pkg/telemetry/metrics"
)

// adminReadHeaderTimeout bounds request headers on the admin listener.
const adminReadHeaderTimeout = 10 * time.Second

// BuildInfo identifies the running binary on /version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// AdminServer serves metrics and health endpoints on a plain HTTP address.
type AdminServer struct {
	addr       string
	httpServer *http.Server
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// NewAdminServer creates the admin server for cfg. The collector and
// checker may be nil, in which case their endpoints are not mounted.
func NewAdminServer(cfg config.AdminConfig, collector *metrics.Collector, checker *health.Checker, build BuildInfo, logger *slog.Logger) *AdminServer {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "admin")

	mux := http.NewServeMux()
	if collector != nil {
		mux.Handle(cfg.MetricsPath, collector.Handler(logger))
	}
	if checker != nil {
		health.Mount(mux, checker, build.Version, build.Commit, build.BuildTime)
	}

	return &AdminServer{
		addr: cfg.ListenAddress,
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: adminReadHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Handler returns the admin mux.
func (a *AdminServer) Handler() http.Handler {
	return a.httpServer.Handler
}

// Start serves until ctx is cancelled.
func (a *AdminServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on admin address %s: %w", a.addr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()
	close(a.ready)

	a.logger.Info("admin server listening", "address", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("admin server shutdown error: %w", err)
		}
		return nil
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin server error: %w", err)
	}
}

// Ready is closed once the listener is bound.
func (a *AdminServer) Ready() <-chan struct{} {
	return a.ready
}

// Addr returns the bound address, or nil before Start binds.
func (a *AdminServer) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

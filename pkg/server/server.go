package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/netopt"
	"mercator-hq/wsrelay/pkg/relay"
	securityTLS "mercator-hq/wsrelay/pkg/security/tls"
	"mercator-hq/wsrelay/pkg/server/middleware"
	"mercator-hq/wsrelay/pkg/telemetry/metrics"
)

// Options configures a Server.
type Options struct {
	// Store supplies the configuration. Required.
	Store *config.Store

	// Engine handles WebSocket sessions. Required.
	Engine *relay.Engine

	// REST handles the REST path. Nil disables it.
	REST http.Handler

	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// Server is the relay listener.
type Server struct {
	store    *config.Store
	engine   *relay.Engine
	rest     http.Handler
	metrics  *metrics.Collector
	logger   *slog.Logger
	tuner    *netopt.Tuner
	acceptor *securityTLS.Acceptor

	httpServer   *http.Server
	shutdownOnce sync.Once
	ready        chan struct{}

	mu        sync.RWMutex
	listener  net.Listener
	isRunning bool
}

// New builds the server from the current configuration snapshot. The TLS
// acceptor is created here so certificate problems surface before binding.
func New(opts Options) (*Server, error) {
	if opts.Store == nil || opts.Engine == nil {
		return nil, fmt.Errorf("server requires a configuration store and a relay engine")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Store.Current()

	s := &Server{
		store:   opts.Store,
		engine:  opts.Engine,
		rest:    opts.REST,
		metrics: opts.Metrics,
		logger:  logger.With("component", "server"),
		ready:   make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		acc, err := securityTLS.NewAcceptor(cfg.Server.TLSCert, cfg.Server.TLSKey, securityTLS.AcceptorOptions{
			MinVersion:       cfg.Server.TLS.MinVersion,
			SessionCacheSize: cfg.Server.TLS.SessionCacheSize,
			SessionTickets:   cfg.Server.TLS.SessionTickets,
			Logger:           logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		s.acceptor = acc
		if acc.Cache != nil {
			cache := acc.Cache
			s.metrics.RegisterTLSSessionCache(func() metrics.SessionCacheStats {
				st := cache.Stats()
				return metrics.SessionCacheStats{Size: st.Size, Hits: st.Hits, Misses: st.Misses}
			})
		}
	}

	sock := cfg.Server.Socket
	s.tuner = netopt.New(netopt.Options{
		FastOpenQueue: sock.FastOpenQueue,
		Priority:      sock.Priority,
		SendBuffer:    sock.SendBuffer,
		RecvBuffer:    sock.RecvBuffer,
		Backlog:       sock.Backlog,
		ReuseAddress:  sock.ReuseAddress,
		QuickAck:      sock.QuickAck,
	}, logger)
	s.tuner.OnFailure = func(option string, _ error) {
		s.metrics.RecordSocketOptionFailure(option)
	}

	// net/http also applies ReadHeaderTimeout to the TLS handshake. Zero
	// leaves both unbounded.
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.Server.HandshakeTimeout(),
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	return s, nil
}

// Start binds the listener and serves until ctx is cancelled, then shuts
// down gracefully. It returns an error if binding fails or the server stops
// unexpectedly. A Server can be started once.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	cfg := s.store.Current()
	addr := cfg.Server.ListenAddress()

	ln, err := s.tuner.Listen(ctx, addr)
	if err != nil {
		s.setRunning(false)
		return err
	}
	ln = &countingListener{Listener: ln, metrics: s.metrics}
	if s.acceptor != nil {
		ln = tls.NewListener(ln, s.acceptor.Config)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("relay server listening",
		"address", ln.Addr().String(),
		"tls_enabled", s.acceptor != nil,
		"users", cfg.UserCount(),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.setRunning(false)
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting connections, then waits for REST requests and
// relay sessions for at most the configured shutdown timeout. Sessions still
// running at the deadline are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		timeout := s.store.Current().Server.ShutdownTimeout()
		s.logger.Info("initiating graceful shutdown",
			"timeout", timeout.String(),
			"active_sessions", s.engine.Active(),
		)

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		// Hijacked connections are not tracked by http.Server.
		if err := s.engine.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("relay sessions cancelled at shutdown", "error", err)
		}

		s.setRunning(false)
		s.logger.Info("relay server stopped")
	})

	return shutdownErr
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	restPath := ""
	if s.rest != nil {
		restPath = s.store.Current().REST.Path
	}

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if restPath != "" && isUnder(r.URL.Path, restPath) {
			s.rest.ServeHTTP(w, r)
			return
		}
		s.engine.ServeHTTP(w, r)
	})

	handler = middleware.RequestID(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)

	return handler
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listener address, or nil before Start binds.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// TLSEnabled reports whether the listener terminates TLS.
func (s *Server) TLSEnabled() bool {
	return s.acceptor != nil
}

func (s *Server) setRunning(running bool) {
	s.mu.Lock()
	s.isRunning = running
	s.mu.Unlock()
}

// isUnder reports whether path is prefix or a path below it.
func isUnder(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// countingListener counts connections that survived tuning.
type countingListener struct {
	net.Listener
	metrics *metrics.Collector
}

func (l *countingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err == nil {
		l.metrics.RecordAccepted()
	}
	return conn, err
}

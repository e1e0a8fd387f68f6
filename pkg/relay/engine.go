package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/journal"
	"mercator-hq/wsrelay/pkg/security/auth"
	securityTLS "mercator-hq/wsrelay/pkg/security/tls"
	"mercator-hq/wsrelay/pkg/telemetry/logging"
	"mercator-hq/wsrelay/pkg/telemetry/metrics"
	"mercator-hq/wsrelay/pkg/telemetry/tracing"
)

// HeaderTargetURL selects header mode: the upgrade request names the target
// and carries the token itself.
const HeaderTargetURL = "X-Target-URL"

// maxCloseReason is the longest close reason that fits a control frame.
const maxCloseReason = 123

// ErrShuttingDown is returned by Shutdown when sessions had to be cancelled.
var ErrShuttingDown = errors.New("relay engine shut down with sessions still active")

// Recorder receives the summary of every finished session.
type Recorder interface {
	Record(record *journal.SessionRecord) bool
}

// Options configures an Engine.
type Options struct {
	// Store supplies the configuration snapshot. Required.
	Store *config.Store

	// Connector builds target-side TLS contexts. Defaults to a new one.
	Connector *securityTLS.Connector

	// Metrics, Tracer and Journal are optional.
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Journal Recorder

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// TLS reports whether the listener terminates TLS. It is only recorded
	// on spans.
	TLS bool

	// CloseGrace is passed to Forward.
	CloseGrace time.Duration
}

// Engine runs one session per upgraded connection. It is an http.Handler
// and is safe for concurrent use.
type Engine struct {
	store      *config.Store
	auth       *auth.Authenticator
	connector  *securityTLS.Connector
	metrics    *metrics.Collector
	tracer     *tracing.Tracer
	journal    Recorder
	logger     *slog.Logger
	tls        bool
	closeGrace time.Duration

	// base is cancelled when Shutdown gives up waiting.
	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closing  bool
	sessions sync.WaitGroup
	active   atomic.Int64
}

// NewEngine creates a session engine.
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	connector := opts.Connector
	if connector == nil {
		connector = securityTLS.NewConnector()
	}

	base, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:      opts.Store,
		auth:       auth.NewAuthenticator(opts.Store),
		connector:  connector,
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
		journal:    opts.Journal,
		logger:     logger.With("component", "relay.engine"),
		tls:        opts.TLS,
		closeGrace: opts.CloseGrace,
		base:       base,
		cancel:     cancel,
	}
}

// Active returns the number of sessions currently running.
func (e *Engine) Active() int64 {
	return e.active.Load()
}

// Shutdown stops accepting sessions and waits for running ones to finish.
// When ctx expires first, every remaining session is cancelled, Shutdown
// waits for them to release their connections and returns
// ErrShuttingDown.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closing = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		return nil
	case <-ctx.Done():
	}

	e.logger.Warn("shutdown timeout reached, cancelling sessions", "active", e.Active())
	e.cancel()
	<-done
	return ErrShuttingDown
}

func (e *Engine) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closing {
		return false
	}
	e.sessions.Add(1)
	return true
}

// ServeHTTP upgrades the request and runs the session to completion.
// Requests that fail before the upgrade get a bare status code.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !e.acquire() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	defer e.sessions.Done()

	cfg := e.store.Current()

	var pre *config.User
	target := r.Header.Get(HeaderTargetURL)
	if target != "" {
		user, status, err := e.authenticateHeader(r, target)
		if err != nil {
			e.logger.Warn("upgrade rejected",
				"remote_addr", r.RemoteAddr,
				"status", status,
				"error", err,
			)
			e.metrics.RecordUpgradeFailure()
			w.WriteHeader(status)
			return
		}
		pre = &user
	}

	upgrader := websocket.Upgrader{
		HandshakeTimeout: cfg.Server.HandshakeTimeout(),
		ReadBufferSize:   cfg.Server.ReadBufferSize,
		WriteBufferSize:  cfg.Server.WriteBufferSize,
		CheckOrigin:      func(*http.Request) bool { return true },
		Error: func(w http.ResponseWriter, _ *http.Request, status int, _ error) {
			w.WriteHeader(status)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Debug("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		e.metrics.RecordUpgradeFailure()
		return
	}

	s := &Session{
		ID:         uuid.NewString(),
		RemoteAddr: r.RemoteAddr,
		Mode:       ModeInBand,
		StartedAt:  time.Now(),
		client:     conn,
	}
	if pre != nil {
		s.Mode = ModeHeader
		s.User = pre.Name
		s.Target = target
	}
	if limit := cfg.Server.MaxMessageBytes; limit > 0 {
		conn.SetReadLimit(limit)
	}

	e.serve(r, s)
}

// serve runs the post-upgrade phases of s and records the result.
func (e *Engine) serve(r *http.Request, s *Session) {
	defer s.client.Close()

	ctx, cancel := context.WithCancel(tracing.Extract(r.Context(), r.Header))
	defer cancel()
	stop := context.AfterFunc(e.base, cancel)
	defer stop()

	ctx = logging.WithSessionID(ctx, s.ID)
	ctx = logging.WithRemoteAddr(ctx, s.RemoteAddr)
	ctx, span := e.tracer.Start(ctx, "relay.session",
		tracing.SessionStartOptions(s.ID, s.RemoteAddr, e.tls),
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()
	tracing.AddPhaseEvent(span, tracing.EventUpgraded)

	e.active.Add(1)
	defer e.active.Add(-1)
	e.metrics.SessionStarted()

	logging.FromContext(ctx, e.logger).Debug("session started", "mode", s.Mode)

	err := e.run(ctx, s, span)
	e.finish(ctx, s, span, err)
}

func (e *Engine) run(ctx context.Context, s *Session, span trace.Span) error {
	if s.Mode == ModeInBand {
		if err := e.authenticate(ctx, s); err != nil {
			return err
		}
	}

	ctx = logging.WithUser(ctx, s.User)
	ctx = logging.WithTarget(ctx, s.Target)
	tracing.SetAuthAttributes(span, s.User, s.Target)
	tracing.AddPhaseEvent(span, tracing.EventAuthenticated)

	target, err := e.dial(ctx, s)
	if err != nil {
		if s.Mode == ModeInBand {
			writeFrame(s.client, DialErrorFrame(err))
		}
		sendClose(s.client, websocket.CloseInternalServerErr, truncateReason(err.Error()))
		return &PhaseError{Phase: PhaseDial, Cause: err}
	}
	defer target.Close()
	tracing.AddPhaseEvent(span, tracing.EventTargetConnected)

	if s.Mode == ModeInBand {
		if err := s.client.WriteMessage(websocket.TextMessage, StatusFrame(MsgConnected)); err != nil {
			return &PhaseError{Phase: PhaseRelay, Cause: err}
		}
	}

	logging.FromContext(ctx, e.logger).Info("relay started")

	stats, err := Forward(ctx, s.client, target, ForwardOptions{
		IdleTimeout: e.store.Current().Server.IdleTimeout(),
		CloseGrace:  e.closeGrace,
		OnFrame: func(dir Direction, size int64) {
			e.metrics.RecordFrame(dir.String(), int(size))
		},
	})
	s.Stats = stats
	tracing.AddPhaseEvent(span, tracing.EventRelayEnded)
	if err != nil {
		return &PhaseError{Phase: PhaseRelay, Cause: err}
	}
	return nil
}

// authenticate reads the in-band authentication message and resolves the
// user. It never dials.
func (e *Engine) authenticate(ctx context.Context, s *Session) error {
	if timeout := e.store.Current().Server.AuthTimeout(); timeout > 0 {
		s.client.SetReadDeadline(time.Now().Add(timeout))
	}

	// Unblock the read if the session is cancelled.
	stop := context.AfterFunc(ctx, func() { s.client.Close() })
	_, data, err := s.client.ReadMessage()
	if !stop() {
		return &PhaseError{Phase: PhaseAuth, Cause: ctx.Err()}
	}
	if err != nil {
		return &PhaseError{Phase: PhaseAuth, Cause: authReadError(err)}
	}
	s.client.SetReadDeadline(time.Time{})

	req, err := ParseAuthRequest(data)
	if err != nil {
		reject(s.client, MsgMalformedAuth)
		return &PhaseError{Phase: PhaseAuth, Cause: err}
	}
	s.Target = req.Target

	// Looked up only now so a reload during the wait is honoured.
	user, err := e.auth.Lookup(req.Token)
	if err != nil {
		reject(s.client, MsgAuthFailed)
		return &PhaseError{Phase: PhaseAuth, Cause: ErrAuthFailed}
	}
	s.User = user.Name
	return nil
}

// authReadError classifies a failed read of the authentication message.
// Only deadline expiry counts as a timeout. An oversized message has already
// been answered with close 1009 by the connection.
func authReadError(err error) error {
	var ne net.Error
	switch {
	case errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%w: %v", ErrAuthTimeout, err)
	case errors.Is(err, websocket.ErrReadLimit):
		return fmt.Errorf("%w: %v", ErrMalformedAuth, err)
	default:
		return fmt.Errorf("%w: %v", ErrClientClosed, err)
	}
}

// dial connects to the session target exactly as given. The TLS setting is
// re-read from the current snapshot.
func (e *Engine) dial(ctx context.Context, s *Session) (*websocket.Conn, error) {
	cfg := e.store.Current()
	logger := logging.FromContext(ctx, e.logger)

	dialer := &websocket.Dialer{
		HandshakeTimeout: cfg.Server.DialTimeout(),
		TLSClientConfig:  e.connector.ClientConfig(cfg.Server.InsecureSkipVerify, logger),
		ReadBufferSize:   cfg.Server.ReadBufferSize,
		WriteBufferSize:  cfg.Server.WriteBufferSize,
	}

	header := http.Header{}
	tracing.Inject(ctx, header)

	conn, resp, err := dialer.DialContext(ctx, s.Target, header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, err
	}
	if limit := cfg.Server.MaxMessageBytes; limit > 0 {
		conn.SetReadLimit(limit)
	}
	return conn, nil
}

func (e *Engine) finish(ctx context.Context, s *Session, span trace.Span, err error) {
	s.EndedAt = time.Now()
	s.Outcome = outcomeOf(err, s.Stats)
	s.Err = err

	e.metrics.SessionFinished(string(s.Outcome), s.Stats.Duration)
	tracing.SetRelayAttributes(span, string(s.Outcome),
		s.Stats.ClientToTarget.Frames, s.Stats.TargetToClient.Frames,
		s.Stats.ClientToTarget.Bytes, s.Stats.TargetToClient.Bytes,
	)
	if s.Outcome.Failed() {
		tracing.SetStatus(span, err)
	} else {
		tracing.SetStatus(span, nil)
	}

	if s.User != "" {
		ctx = logging.WithUser(ctx, s.User)
	}
	if s.Target != "" {
		ctx = logging.WithTarget(ctx, s.Target)
	}
	logger := logging.FromContext(ctx, e.logger)
	attrs := []any{
		"outcome", s.Outcome,
		"duration_ms", s.EndedAt.Sub(s.StartedAt).Milliseconds(),
		"frames_client_to_target", s.Stats.ClientToTarget.Frames,
		"frames_target_to_client", s.Stats.TargetToClient.Frames,
		"bytes_client_to_target", s.Stats.ClientToTarget.Bytes,
		"bytes_target_to_client", s.Stats.TargetToClient.Bytes,
	}
	switch s.Outcome {
	case journal.OutcomeCompleted, journal.OutcomeIdleTimeout, journal.OutcomeShutdown, journal.OutcomeClientClosed:
		logger.Info("session closed", attrs...)
	case journal.OutcomeRelayError:
		logger.Error("session closed", append(attrs, "error", err)...)
	default:
		logger.Warn("session closed", append(attrs, "error", err)...)
	}

	if e.journal != nil {
		if !e.journal.Record(s.Record()) {
			e.metrics.RecordJournalDrop()
		}
	}
}

// authenticateHeader checks a header-mode upgrade request. It returns the
// HTTP status to reply with on failure.
func (e *Engine) authenticateHeader(r *http.Request, target string) (config.User, int, error) {
	user, err := e.auth.Authenticate(r)
	if err != nil {
		return config.User{}, http.StatusUnauthorized, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if err := ValidateTarget(target); err != nil {
		return config.User{}, http.StatusBadRequest, err
	}
	return user, 0, nil
}

// reject sends an in-band error frame followed by a policy close.
func reject(c *websocket.Conn, msg string) {
	writeFrame(c, ErrorFrame(msg))
	sendClose(c, websocket.ClosePolicyViolation, "")
}

func writeFrame(c *websocket.Conn, frame []byte) {
	c.SetWriteDeadline(time.Now().Add(controlWriteWait))
	_ = c.WriteMessage(websocket.TextMessage, frame)
	c.SetWriteDeadline(time.Time{})
}

// truncateReason shortens s to fit a close frame without splitting a rune.
func truncateReason(s string) string {
	if len(s) <= maxCloseReason {
		return s
	}
	s = s[:maxCloseReason]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

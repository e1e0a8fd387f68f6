package netopt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"
)

// Option names reported to OnFailure and used as metric labels.
const (
	OptNoDelay      = "nodelay"
	OptQuickAck     = "quickack"
	OptPriority     = "priority"
	OptSendBuffer   = "sndbuf"
	OptRecvBuffer   = "rcvbuf"
	OptFastOpen     = "fastopen"
	OptReuseAddress = "reuseaddr"
	OptBacklog      = "backlog"
)

// ErrNoDelay is returned when TCP_NODELAY cannot be set on a connection.
var ErrNoDelay = errors.New("failed to set TCP_NODELAY")

// ErrUnsupported is reported for options the current platform lacks.
var ErrUnsupported = errors.New("socket option not supported on this platform")

// Options are the socket settings applied by a Tuner. Zero values disable
// the corresponding option.
type Options struct {
	// FastOpenQueue is the TCP_FASTOPEN queue length for the listener.
	FastOpenQueue int

	// Priority is SO_PRIORITY for accepted sockets.
	Priority int

	// SendBuffer and RecvBuffer are SO_SNDBUF and SO_RCVBUF in bytes,
	// applied to the listener and to accepted sockets.
	SendBuffer int
	RecvBuffer int

	// Backlog is the accept queue depth.
	Backlog int

	// ReuseAddress sets SO_REUSEADDR on the listener.
	ReuseAddress bool

	// QuickAck sets TCP_QUICKACK on accepted sockets.
	QuickAck bool
}

// Tuner applies Options to sockets.
type Tuner struct {
	opts   Options
	logger *slog.Logger

	// OnFailure, when set, is called for every option that could not be
	// applied, mandatory or not.
	OnFailure func(option string, err error)
}

// New creates a Tuner. A nil logger uses slog.Default().
func New(opts Options, logger *slog.Logger) *Tuner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tuner{
		opts:   opts,
		logger: logger.With("component", "netopt"),
	}
}

// Listen binds a TCP listener on addr with the listener options applied
// before listen(2), then adjusts the accept queue depth. The returned
// listener tunes every connection it accepts.
func (t *Tuner) Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				t.applyListenerOptions(fd)
			})
		},
	}

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if t.opts.Backlog > 0 {
		if tcpLn, ok := ln.(*net.TCPListener); ok {
			t.setBacklog(tcpLn)
		}
	}

	return t.WrapListener(ln), nil
}

// TuneConn applies the per-connection options. It returns an error wrapping
// ErrNoDelay when the mandatory no-delay setting fails; optional failures
// are only logged. Connections that are not TCP are left untouched.
func (t *Tuner) TuneConn(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	if err := tcpConn.SetNoDelay(true); err != nil {
		t.report(OptNoDelay, err, true)
		return fmt.Errorf("%w: %w", ErrNoDelay, err)
	}

	if t.opts.SendBuffer > 0 {
		if err := tcpConn.SetWriteBuffer(t.opts.SendBuffer); err != nil {
			t.report(OptSendBuffer, err, false)
		}
	}
	if t.opts.RecvBuffer > 0 {
		if err := tcpConn.SetReadBuffer(t.opts.RecvBuffer); err != nil {
			t.report(OptRecvBuffer, err, false)
		}
	}

	if t.opts.QuickAck || t.opts.Priority > 0 {
		rc, err := tcpConn.SyscallConn()
		if err != nil {
			t.report(OptQuickAck, err, false)
			return nil
		}
		if err := rc.Control(func(fd uintptr) {
			t.applyConnOptions(fd)
		}); err != nil {
			t.report(OptPriority, err, false)
		}
	}

	return nil
}

// WrapListener returns a listener whose Accept tunes each connection.
// Connections that fail the mandatory setting are closed and skipped;
// Accept keeps waiting for the next one.
func (t *Tuner) WrapListener(ln net.Listener) net.Listener {
	return &tunedListener{Listener: ln, tuner: t}
}

func (t *Tuner) report(option string, err error, mandatory bool) {
	if mandatory {
		t.logger.Warn("mandatory socket option failed", "option", option, "error", err)
	} else if errors.Is(err, ErrUnsupported) {
		t.logger.Debug("socket option unsupported", "option", option)
	} else {
		t.logger.Warn("optional socket option failed", "option", option, "error", err)
	}
	if t.OnFailure != nil {
		t.OnFailure(option, err)
	}
}

type tunedListener struct {
	net.Listener
	tuner *Tuner
}

func (l *tunedListener) Accept() (net.Conn, error) {
	for {
		conn, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}
		if err := l.tuner.TuneConn(conn); err != nil {
			l.tuner.logger.Warn("dropping connection", "remote_addr", conn.RemoteAddr().String(), "error", err)
			conn.Close()
			continue
		}
		return conn, nil
	}
}

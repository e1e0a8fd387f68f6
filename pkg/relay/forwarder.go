package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the part of a WebSocket connection the forwarder needs.
// *websocket.Conn satisfies it for both plain and TLS transports.
type Conn interface {
	NextReader() (messageType int, r io.Reader, err error)
	NextWriter(messageType int) (io.WriteCloser, error)
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPingHandler(h func(appData string) error)
	SetPongHandler(h func(appData string) error)
	SetCloseHandler(h func(code int, text string) error)
	Close() error
}

// Direction identifies one half of a relay.
type Direction int

// Relay directions.
const (
	ClientToTarget Direction = iota
	TargetToClient
)

// String returns the metric label for d.
func (d Direction) String() string {
	if d == ClientToTarget {
		return "client_to_target"
	}
	return "target_to_client"
}

const (
	// controlWriteWait bounds a single control frame write.
	controlWriteWait = 5 * time.Second

	// DefaultCloseGrace is how long Forward waits for the other direction to
	// finish its close handshake before dropping both connections.
	DefaultCloseGrace = time.Second
)

// DirectionStats counts the data messages relayed in one direction.
type DirectionStats struct {
	Frames int64
	Bytes  int64
}

// Stats summarizes a finished relay.
type Stats struct {
	ClientToTarget DirectionStats
	TargetToClient DirectionStats
	Duration       time.Duration

	// TimedOut is set when the idle timeout ended the relay.
	TimedOut bool
}

// ForwardOptions tunes Forward. The zero value relays with no timeout.
type ForwardOptions struct {
	// IdleTimeout bounds the whole relay. Zero disables it.
	IdleTimeout time.Duration

	// CloseGrace overrides DefaultCloseGrace.
	CloseGrace time.Duration

	// OnFrame is called after each data message is relayed.
	OnFrame func(dir Direction, size int64)
}

type pumpResult struct {
	dir   Direction
	stats DirectionStats
	err   error
}

// Forward relays messages between client and target until either side
// ends, the idle timeout expires or ctx is cancelled. Text and binary
// messages are streamed through unmodified; ping, pong and close frames are
// passed to the peer as control frames. Both connections are closed when
// Forward returns.
//
// A close with code 1000, 1001 or 1005, the idle timeout and the teardown
// of one side caused by the other are clean and return a nil error. Other
// transport failures are returned as a *RelayError. Cancellation returns
// ctx.Err().
//
// The idle timeout is measured from the start of the relay, not from the
// last message.
func Forward(ctx context.Context, client, target Conn, opts ForwardOptions) (Stats, error) {
	start := time.Now()
	grace := opts.CloseGrace
	if grace <= 0 {
		grace = DefaultCloseGrace
	}

	bridgeControl(client, target)
	bridgeControl(target, client)

	results := make(chan pumpResult, 2)
	go func() { results <- pump(client, target, ClientToTarget, opts.OnFrame) }()
	go func() { results <- pump(target, client, TargetToClient, opts.OnFrame) }()

	var idle <-chan time.Time
	if opts.IdleTimeout > 0 {
		timer := time.NewTimer(opts.IdleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	var (
		stats    Stats
		errs     [2]error
		ctxErr   error
		finished int
	)
	record := func(res pumpResult, first bool) {
		finished++
		if res.dir == ClientToTarget {
			stats.ClientToTarget = res.stats
		} else {
			stats.TargetToClient = res.stats
		}
		if first {
			errs[res.dir] = classify(res.err)
		} else {
			errs[res.dir] = classifyAfterTeardown(res.err)
		}
	}

	select {
	case res := <-results:
		record(res, true)
		if !receivedClose(res.err) {
			// The source vanished without a close frame; tell the peer.
			peer := target
			if res.dir == TargetToClient {
				peer = client
			}
			sendClose(peer, websocket.CloseGoingAway, "")
		}
	case <-idle:
		stats.TimedOut = true
		sendClose(client, websocket.CloseGoingAway, "idle timeout")
		sendClose(target, websocket.CloseGoingAway, "idle timeout")
	case <-ctx.Done():
		ctxErr = ctx.Err()
		sendClose(client, websocket.CloseGoingAway, "server shutting down")
		sendClose(target, websocket.CloseGoingAway, "server shutting down")
	}

	// Let the remaining direction finish its close handshake, then force it.
	drain := time.NewTimer(grace)
	defer drain.Stop()
waiting:
	for finished < 2 {
		select {
		case res := <-results:
			record(res, false)
		case <-drain.C:
			break waiting
		}
	}

	client.Close()
	target.Close()
	for finished < 2 {
		record(<-results, false)
	}

	stats.Duration = time.Since(start)

	if ctxErr != nil {
		return stats, ctxErr
	}
	if stats.TimedOut {
		return stats, nil
	}
	if errs[ClientToTarget] != nil || errs[TargetToClient] != nil {
		return stats, &RelayError{
			ClientToTarget: errs[ClientToTarget],
			TargetToClient: errs[TargetToClient],
		}
	}
	return stats, nil
}

// pump copies data messages from src to dst until src ends.
func pump(src, dst Conn, dir Direction, onFrame func(Direction, int64)) pumpResult {
	res := pumpResult{dir: dir}
	for {
		kind, r, err := src.NextReader()
		if err != nil {
			res.err = err
			return res
		}
		w, err := dst.NextWriter(kind)
		if err != nil {
			res.err = err
			return res
		}
		n, err := io.Copy(w, r)
		if err != nil {
			w.Close()
			res.err = err
			return res
		}
		if err := w.Close(); err != nil {
			res.err = err
			return res
		}
		res.stats.Frames++
		res.stats.Bytes += n
		if onFrame != nil {
			onFrame(dir, n)
		}
	}
}

// bridgeControl makes control frames read from src appear on dst. Pings are
// passed through rather than answered locally so the far end sees the
// original round trip.
func bridgeControl(src, dst Conn) {
	src.SetPingHandler(func(data string) error {
		return ignoreClosed(dst.WriteControl(websocket.PingMessage, []byte(data), time.Now().Add(controlWriteWait)))
	})
	src.SetPongHandler(func(data string) error {
		return ignoreClosed(dst.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(controlWriteWait)))
	})
	src.SetCloseHandler(func(code int, text string) error {
		sendClose(dst, code, text)
		// Acknowledge to the sender, as the default handler would.
		sendClose(src, code, "")
		return nil
	})
}

// sendClose writes a close frame, ignoring failures.
func sendClose(c Conn, code int, text string) {
	_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(controlWriteWait))
}

func ignoreClosed(err error) error {
	if errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// receivedClose reports whether err is a close frame sent by the peer.
// Code 1006 is synthesized locally when the connection drops without one.
func receivedClose(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure
}

// classify maps the error that ended the first direction to a relay error,
// or nil when the direction ended cleanly.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return nil
	}
	// A write raced with a close handshake started by the other direction.
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

// classifyAfterTeardown is classify for a direction that ended after the
// relay began shutting down, where closed-connection errors are expected.
func classifyAfterTeardown(err error) error {
	err = classify(err)
	if err == nil || ignoreClosed(err) == nil {
		return nil
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		// The peer answered our close frame with its own code, or dropped.
		return nil
	}
	return err
}

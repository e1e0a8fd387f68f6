//go:build linux

package netopt

import (
	"net"

	"golang.org/x/sys/unix"
)

func (t *Tuner) applyListenerOptions(fd uintptr) {
	s := int(fd)

	if t.opts.ReuseAddress {
		if err := unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			t.report(OptReuseAddress, err, false)
		}
	}
	if t.opts.FastOpenQueue > 0 {
		if err := unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_FASTOPEN, t.opts.FastOpenQueue); err != nil {
			t.report(OptFastOpen, err, false)
		}
	}
	// Accepted sockets inherit these, which matters for the window scale
	// negotiated during the handshake.
	if t.opts.SendBuffer > 0 {
		if err := unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_SNDBUF, t.opts.SendBuffer); err != nil {
			t.report(OptSendBuffer, err, false)
		}
	}
	if t.opts.RecvBuffer > 0 {
		if err := unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_RCVBUF, t.opts.RecvBuffer); err != nil {
			t.report(OptRecvBuffer, err, false)
		}
	}
}

func (t *Tuner) applyConnOptions(fd uintptr) {
	s := int(fd)

	if t.opts.QuickAck {
		if err := unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1); err != nil {
			t.report(OptQuickAck, err, false)
		}
	}
	if t.opts.Priority > 0 {
		if err := unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_PRIORITY, t.opts.Priority); err != nil {
			t.report(OptPriority, err, false)
		}
	}
}

// setBacklog calls listen(2) again on the bound socket; Linux updates the
// accept queue depth in place.
func (t *Tuner) setBacklog(ln *net.TCPListener) {
	rc, err := ln.SyscallConn()
	if err != nil {
		t.report(OptBacklog, err, false)
		return
	}
	var lerr error
	if err := rc.Control(func(fd uintptr) {
		lerr = unix.Listen(int(fd), t.opts.Backlog)
	}); err != nil {
		lerr = err
	}
	if lerr != nil {
		t.report(OptBacklog, lerr, false)
	}
}

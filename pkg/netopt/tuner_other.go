//go:build !linux

package netopt

import "net"

func (t *Tuner) applyListenerOptions(fd uintptr) {
	if t.opts.ReuseAddress {
		t.report(OptReuseAddress, ErrUnsupported, false)
	}
	if t.opts.FastOpenQueue > 0 {
		t.report(OptFastOpen, ErrUnsupported, false)
	}
}

func (t *Tuner) applyConnOptions(fd uintptr) {
	if t.opts.QuickAck {
		t.report(OptQuickAck, ErrUnsupported, false)
	}
	if t.opts.Priority > 0 {
		t.report(OptPriority, ErrUnsupported, false)
	}
}

func (t *Tuner) setBacklog(ln *net.TCPListener) {
	t.report(OptBacklog, ErrUnsupported, false)
}

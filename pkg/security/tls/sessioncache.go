package tls

import (
	"crypto/rand"
	"crypto/tls"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSessionLifetime bounds how long a cached session stays resumable.
const DefaultSessionLifetime = 24 * time.Hour

// Identity prefixes. A cache handle resumes from server memory; a ticket
// carries the encrypted session state itself.
const (
	identityCache  byte = 'c'
	identityTicket byte = 't'
)

const handleSize = 16

// SessionCache is a bounded in-memory store of resumable TLS sessions.
// Clients receive an opaque handle in their session ticket; the session
// state itself never leaves the server. The least recently used entry is
// evicted once the cache is full.
type SessionCache struct {
	lru *expirable.LRU[string, []byte]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// SessionCacheStats is a point-in-time view of cache activity.
type SessionCacheStats struct {
	Size   int
	Hits   uint64
	Misses uint64
}

// NewSessionCache creates a cache holding at most capacity sessions.
func NewSessionCache(capacity int) *SessionCache {
	return &SessionCache{
		lru: expirable.NewLRU[string, []byte](capacity, nil, DefaultSessionLifetime),
	}
}

// Stats returns the current size and hit counters.
func (c *SessionCache) Stats() SessionCacheStats {
	return SessionCacheStats{
		Size:   c.lru.Len(),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Put stores encoded session state and returns its handle.
func (c *SessionCache) Put(state []byte) ([]byte, error) {
	handle := make([]byte, handleSize)
	if _, err := rand.Read(handle); err != nil {
		return nil, fmt.Errorf("failed to generate session handle: %w", err)
	}
	c.lru.Add(string(handle), state)
	return handle, nil
}

// Get returns the session state stored under handle.
func (c *SessionCache) Get(handle []byte) ([]byte, bool) {
	state, ok := c.lru.Get(string(handle))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return state, ok
}

// install hooks the cache into cfg. When tickets is true, sessions that
// cannot be cached fall back to an encrypted ticket.
func (c *SessionCache) install(cfg *tls.Config, tickets bool) {
	cfg.WrapSession = func(cs tls.ConnectionState, ss *tls.SessionState) ([]byte, error) {
		state, err := ss.Bytes()
		if err != nil {
			return nil, err
		}
		handle, err := c.Put(state)
		if err == nil {
			return append([]byte{identityCache}, handle...), nil
		}
		if !tickets {
			return nil, err
		}
		ticket, terr := cfg.EncryptTicket(cs, ss)
		if terr != nil {
			return nil, errors.Join(err, terr)
		}
		return append([]byte{identityTicket}, ticket...), nil
	}

	// Returning (nil, nil) falls back to a full handshake.
	cfg.UnwrapSession = func(identity []byte, cs tls.ConnectionState) (*tls.SessionState, error) {
		if len(identity) == 0 {
			return nil, nil
		}
		switch identity[0] {
		case identityCache:
			state, ok := c.Get(identity[1:])
			if !ok {
				return nil, nil
			}
			ss, err := tls.ParseSessionState(state)
			if err != nil {
				return nil, nil
			}
			return ss, nil
		case identityTicket:
			if !tickets {
				return nil, nil
			}
			return cfg.DecryptTicket(identity[1:], cs)
		default:
			return nil, nil
		}
	}
}

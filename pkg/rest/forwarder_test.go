package rest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/security/auth"
)

// upstreamSeen captures what the upstream server received.
type upstreamSeen struct {
	method string
	uri    string
	body   string
	header http.Header
}

func newUpstream(t *testing.T) (*httptest.Server, <-chan upstreamSeen) {
	t.Helper()
	seen := make(chan upstreamSeen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen <- upstreamSeen{
			method: r.Method,
			uri:    r.URL.RequestURI(),
			body:   string(body),
			header: r.Header.Clone(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream-Secret", "leak")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func newForwarder(t *testing.T, mutate func(*config.Config)) *Forwarder {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Users = []config.User{{Name: "alice", Token: "tok-1"}}
	if mutate != nil {
		mutate(cfg)
	}
	f, err := New(Options{Store: config.NewStore(cfg, "")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func TestForwarder_Forwards(t *testing.T) {
	upstream, seen := newUpstream(t)
	f := newForwarder(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/rest", strings.NewReader(`{"q":1}`))
	req.Header.Set(auth.HeaderToken, "tok-1")
	req.Header.Set(HeaderTargetURL, upstream.URL+"/api/v2/orders?limit=5")
	req.Header.Set("X-Custom", "kept")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Proxy-Authorization", "Basic Zm9v")
	rec := httptest.NewRecorder()

	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %q)", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != `{"ok":true}` {
		t.Errorf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if v := rec.Header().Get("X-Upstream-Secret"); v != "" {
		t.Errorf("upstream header leaked: %q", v)
	}

	got := <-seen
	if got.method != http.MethodPost || got.uri != "/api/v2/orders?limit=5" || got.body != `{"q":1}` {
		t.Errorf("upstream saw %+v", got)
	}
	if got.header.Get("X-Custom") != "kept" {
		t.Error("X-Custom was not forwarded")
	}
	for _, name := range []string{auth.HeaderToken, HeaderTargetURL, "Accept-Encoding", "Proxy-Authorization"} {
		if v := got.header.Get(name); v != "" {
			t.Errorf("%s forwarded as %q", name, v)
		}
	}
	if ua := got.header.Get("User-Agent"); ua != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want default", ua)
	}
}

func TestForwarder_QueryTokenAndClientUserAgent(t *testing.T) {
	upstream, seen := newUpstream(t)
	f := newForwarder(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/rest?token=tok-1", nil)
	req.Header.Set(HeaderTargetURL, upstream.URL+"/")
	req.Header.Set("User-Agent", "client/2.0")
	rec := httptest.NewRecorder()

	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if ua := (<-seen).header.Get("User-Agent"); ua != "client/2.0" {
		t.Errorf("User-Agent = %q, want client/2.0", ua)
	}
}

func TestForwarder_Errors(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		target     string
		body       string
		maxBody    int64
		wantStatus int
		wantPrefix string
	}{
		{name: "missing token", target: "http://example.com", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", token: "nope", target: "http://example.com", wantStatus: http.StatusUnauthorized},
		{name: "missing target", token: "tok-1", wantStatus: http.StatusBadRequest, wantPrefix: "Missing X-Target-URL header"},
		{name: "websocket target", token: "tok-1", target: "ws://example.com", wantStatus: http.StatusBadRequest, wantPrefix: "Invalid X-Target-URL header"},
		{name: "no host", token: "tok-1", target: "http://", wantStatus: http.StatusBadRequest, wantPrefix: "Invalid X-Target-URL header"},
		{
			name:       "body too large",
			token:      "tok-1",
			target:     "http://example.com",
			body:       strings.Repeat("x", 64),
			maxBody:    16,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "upstream unreachable",
			token:      "tok-1",
			target:     "http://127.0.0.1:1/",
			wantStatus: http.StatusBadGateway,
			wantPrefix: "Proxy error: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newForwarder(t, func(cfg *config.Config) {
				if tt.maxBody > 0 {
					cfg.REST.MaxBodyBytes = tt.maxBody
				}
			})

			req := httptest.NewRequest(http.MethodPost, "/rest", strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set(auth.HeaderToken, tt.token)
			}
			if tt.target != "" {
				req.Header.Set(HeaderTargetURL, tt.target)
			}
			rec := httptest.NewRecorder()

			f.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantPrefix != "" && !strings.HasPrefix(rec.Body.String(), tt.wantPrefix) {
				t.Errorf("body = %q, want prefix %q", rec.Body.String(), tt.wantPrefix)
			}
		})
	}
}

func TestCopyHeaders(t *testing.T) {
	src := http.Header{}
	src.Add("Connection", "keep-alive")
	src.Add("Te", "trailers")
	src.Add("X-Multi", "a")
	src.Add("X-Multi", "b")

	dst := http.Header{}
	copyHeaders(dst, src)

	if len(dst) != 1 {
		t.Errorf("copied %d headers, want 1: %v", len(dst), dst)
	}
	if got := dst.Values("X-Multi"); len(got) != 2 {
		t.Errorf("X-Multi = %v, want both values", got)
	}
}

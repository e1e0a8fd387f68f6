package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mercator-hq/wsrelay/internal/testutil"
	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/relay"
	"mercator-hq/wsrelay/pkg/rest"
	"mercator-hq/wsrelay/pkg/security/auth"
	"mercator-hq/wsrelay/pkg/telemetry/health"
	"mercator-hq/wsrelay/pkg/telemetry/metrics"
)

func newEchoTarget(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			kind, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := c.WriteMessage(kind, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.EnableTLS = false
	cfg.Server.ShutdownTimeoutSecs = 1
	cfg.Users = []config.User{{Name: "alice", Token: "tok-1"}}
	return cfg
}

// startServer runs a Server until the test ends and returns its address.
func startServer(t *testing.T, cfg *config.Config) (*Server, string, context.CancelFunc, <-chan error) {
	t.Helper()
	store := config.NewStore(cfg, "")
	collector := metrics.NewCollector(&cfg.Admin, nil)

	engine := relay.NewEngine(relay.Options{Store: store, Metrics: collector, TLS: cfg.Server.EnableTLS})
	forwarder, err := rest.New(rest.Options{Store: store, Metrics: collector})
	if err != nil {
		t.Fatalf("rest.New() error = %v", err)
	}

	srv, err := New(Options{Store: store, Engine: engine, REST: forwarder, Metrics: collector})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		done <- srv.Start(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})

	select {
	case <-srv.Ready():
	case <-stopped:
		t.Fatalf("Start() error = %v", <-done)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	return srv, srv.Addr().String(), cancel, done
}

func authenticate(t *testing.T, c *websocket.Conn, target string) {
	t.Helper()
	msg := fmt.Sprintf(`{"token":"tok-1","target":%q}`, target)
	if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("send auth: %v", err)
	}
	_, data, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	var frame map[string]string
	if err := json.Unmarshal(data, &frame); err != nil || frame["status"] != relay.MsgConnected {
		t.Fatalf("status frame = %s", data)
	}
}

func TestServer_TLSRelay(t *testing.T) {
	pair := testutil.WriteValidCert(t)
	cfg := testConfig()
	cfg.Server.EnableTLS = true
	cfg.Server.TLSCert = pair.CertFile
	cfg.Server.TLSKey = pair.KeyFile

	srv, addr, _, _ := startServer(t, cfg)
	if !srv.TLSEnabled() {
		t.Fatal("TLSEnabled() = false")
	}

	dialer := websocket.Dialer{TLSClientConfig: testutil.ClientTLSConfig(t, pair)}
	c, _, err := dialer.Dial("wss://"+addr+"/", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	c.SetReadDeadline(time.Now().Add(10 * time.Second))

	authenticate(t, c, newEchoTarget(t))

	if err := c.WriteMessage(websocket.BinaryMessage, []byte{0, 1, 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	kind, data, err := c.ReadMessage()
	if err != nil || kind != websocket.BinaryMessage || len(data) != 3 {
		t.Errorf("echo = (%d, %v, %v)", kind, data, err)
	}
}

func TestServer_PlainClientRejectedByTLS(t *testing.T) {
	pair := testutil.WriteValidCert(t)
	cfg := testConfig()
	cfg.Server.EnableTLS = true
	cfg.Server.TLSCert = pair.CertFile
	cfg.Server.TLSKey = pair.KeyFile

	_, addr, _, _ := startServer(t, cfg)

	if _, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil); err == nil {
		t.Error("plain WebSocket dial to a TLS listener succeeded")
	}
}

func TestServer_StalledTLSHandshake(t *testing.T) {
	pair := testutil.WriteValidCert(t)

	tests := []struct {
		name       string
		timeout    int
		wantClosed bool
	}{
		{"bounded", 1, true},
		{"unbounded", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Server.EnableTLS = true
			cfg.Server.TLSCert = pair.CertFile
			cfg.Server.TLSKey = pair.KeyFile
			cfg.Server.HandshakeTimeoutSecs = tt.timeout

			_, addr, _, _ := startServer(t, cfg)

			// Connect but never send a ClientHello.
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			defer conn.Close()

			start := time.Now()
			conn.SetReadDeadline(start.Add(2500 * time.Millisecond))
			_, err = conn.Read(make([]byte, 1))
			elapsed := time.Since(start)

			var ne net.Error
			timedOut := errors.As(err, &ne) && ne.Timeout()
			if tt.wantClosed {
				if err == nil || timedOut {
					t.Fatalf("read = %v, want the server to drop the connection", err)
				}
				if elapsed < 900*time.Millisecond || elapsed > 2*time.Second {
					t.Errorf("connection dropped after %v, want about 1s", elapsed)
				}
			} else if !timedOut {
				t.Errorf("read = %v after %v, want the connection held open", err, elapsed)
			}
		})
	}
}

func TestServer_Routing(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("from upstream"))
	}))
	defer upstream.Close()

	_, addr, _, _ := startServer(t, testConfig())
	base := "http://" + addr

	tests := []struct {
		name       string
		path       string
		header     map[string]string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "rest root",
			path:       "/rest",
			header:     map[string]string{auth.HeaderToken: "tok-1", rest.HeaderTargetURL: upstream.URL},
			wantStatus: http.StatusOK,
			wantBody:   "from upstream",
		},
		{
			name:       "rest subpath",
			path:       "/rest/anything",
			header:     map[string]string{auth.HeaderToken: "tok-1", rest.HeaderTargetURL: upstream.URL},
			wantStatus: http.StatusOK,
			wantBody:   "from upstream",
		},
		{
			name:       "rest without token",
			path:       "/rest",
			header:     map[string]string{rest.HeaderTargetURL: upstream.URL},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "plain request to relay path",
			path:       "/restless",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, base+tt.path, nil)
			if err != nil {
				t.Fatal(err)
			}
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantBody != "" && string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Error("X-Request-ID missing")
			}
		})
	}
}

func TestServer_GracefulShutdown(t *testing.T) {
	_, addr, cancel, done := startServer(t, testConfig())

	c, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	c.SetReadDeadline(time.Now().Add(10 * time.Second))
	authenticate(t, c, newEchoTarget(t))

	cancel()

	_, _, err = c.ReadMessage()
	var ce *websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.CloseGoingAway {
		t.Errorf("client saw %v, want close 1001", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}

	if _, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil); err == nil {
		t.Error("dial after shutdown succeeded")
	}
}

func TestNew_MissingCertificate(t *testing.T) {
	cfg := testConfig()
	cfg.Server.EnableTLS = true
	cfg.Server.TLSCert = "/nonexistent/server.crt"
	cfg.Server.TLSKey = "/nonexistent/server.key"
	store := config.NewStore(cfg, "")

	_, err := New(Options{Store: store, Engine: relay.NewEngine(relay.Options{Store: store})})
	if err == nil || !strings.Contains(err.Error(), "/nonexistent/server.crt") {
		t.Errorf("New() error = %v, want one naming the certificate", err)
	}
}

func TestIsUnder(t *testing.T) {
	tests := []struct {
		path, prefix string
		want         bool
	}{
		{"/rest", "/rest", true},
		{"/rest/", "/rest", true},
		{"/rest/a/b", "/rest", true},
		{"/restless", "/rest", false},
		{"/", "/rest", false},
		{"/api/rest", "/api/rest/", true},
	}
	for _, tt := range tests {
		if got := isUnder(tt.path, tt.prefix); got != tt.want {
			t.Errorf("isUnder(%q, %q) = %v, want %v", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestAdminServer(t *testing.T) {
	cfg := testConfig()
	store := config.NewStore(cfg, "")
	collector := metrics.NewCollector(&cfg.Admin, nil)
	collector.RecordAccepted()

	checker := health.New(time.Second)
	checker.RegisterCheck("config", health.ConfigCheck(store))

	admin := NewAdminServer(cfg.Admin, collector, checker, BuildInfo{Version: "1.2.3"}, nil)
	srv := httptest.NewServer(admin.Handler())
	defer srv.Close()

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/metrics", http.StatusOK, "wsrelay_connections_accepted_total"},
		{"/health", http.StatusOK, `"status"`},
		{"/ready", http.StatusOK, `"config"`},
		{"/version", http.StatusOK, `"1.2.3"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body %q does not contain %q", body, tt.wantBody)
			}
		})
	}
}

func TestAdminServer_Start(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.ListenAddress = "127.0.0.1:0"
	admin := NewAdminServer(cfg.Admin, nil, health.New(0), BuildInfo{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- admin.Start(ctx) }()

	select {
	case <-admin.Ready():
	case err := <-done:
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + admin.Addr().String() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

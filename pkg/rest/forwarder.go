package rest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/security/auth"
	"mercator-hq/wsrelay/pkg/telemetry/logging"
	"mercator-hq/wsrelay/pkg/telemetry/metrics"
	"mercator-hq/wsrelay/pkg/telemetry/tracing"
)

// HeaderTargetURL names the upstream URL of a REST request.
const HeaderTargetURL = "X-Target-URL"

// DefaultUserAgent is sent when the client supplies none.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// strippedHeaders are never forwarded upstream. Host is derived from the
// target URL.
var strippedHeaders = map[string]bool{
	"Host":                true,
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailers":            true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	auth.HeaderToken:      true,
	"X-Target-Url":        true,
	"Accept-Encoding":     true,
}

// Forwarder is the http.Handler behind the REST path.
type Forwarder struct {
	auth    *auth.Authenticator
	client  *http.Client
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
	maxBody int64
}

// Options configures a Forwarder. Only Store is required.
type Options struct {
	Store   *config.Store
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Logger  *slog.Logger

	// Transport overrides the pooled transport built from the REST settings.
	Transport http.RoundTripper
}

// New creates a Forwarder using the REST settings of the current snapshot.
// The client pool is built once; later reloads only affect authentication.
func New(opts Options) (*Forwarder, error) {
	cfg := opts.Store.Current().REST

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := opts.Transport
	if transport == nil {
		t, err := newTransport(cfg.MaxIdleConnsPerHost)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = config.DefaultRESTMaxBodyBytes
	}

	return &Forwarder{
		auth: auth.NewAuthenticator(opts.Store),
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		logger:  logger.With("component", "rest"),
		maxBody: maxBody,
	}, nil
}

func newTransport(maxIdlePerHost int) (*http.Transport, error) {
	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxIdlePerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		// Accept-Encoding is stripped, so responses arrive as the
		// upstream sends them uncompressed.
		DisableCompression: true,
		ForceAttemptHTTP2:  true,
	}
	if err := http2.ConfigureTransport(t); err != nil {
		return nil, fmt.Errorf("failed to enable HTTP/2 on REST transport: %w", err)
	}
	return t, nil
}

// ServeHTTP forwards r to the URL in its X-Target-URL header.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := f.serve(w, r)
	f.metrics.RecordREST(status, time.Since(start))
}

func (f *Forwarder) serve(w http.ResponseWriter, r *http.Request) int {
	ctx := tracing.Extract(r.Context(), r.Header)
	ctx = logging.WithRemoteAddr(ctx, r.RemoteAddr)

	user, err := f.auth.Authenticate(r)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return http.StatusUnauthorized
	}
	ctx = logging.WithUser(ctx, user.Name)

	target := r.Header.Get(HeaderTargetURL)
	if target == "" {
		return fail(w, http.StatusBadRequest, "Missing X-Target-URL header")
	}
	if err := validateTarget(target); err != nil {
		return fail(w, http.StatusBadRequest, "Invalid X-Target-URL header")
	}
	ctx = logging.WithTarget(ctx, target)
	logger := logging.FromContext(ctx, f.logger)

	ctx, span := f.tracer.Start(ctx, "rest.forward")
	defer span.End()

	var body []byte
	if r.Body != nil {
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, f.maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return fail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			}
			logger.Warn("failed to read request body", "error", err)
			return fail(w, http.StatusBadRequest, "Invalid body")
		}
	}

	logger.Info("forwarding REST request", "method", r.Method)

	out, err := http.NewRequestWithContext(ctx, r.Method, target, bytes.NewReader(body))
	if err != nil {
		return fail(w, http.StatusBadRequest, "Invalid X-Target-URL header")
	}
	copyHeaders(out.Header, r.Header)
	if out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", DefaultUserAgent)
	}
	tracing.Inject(ctx, out.Header)

	resp, err := f.client.Do(out)
	if err != nil {
		tracing.SetStatus(span, err)
		logger.Error("REST upstream request failed", "error", err)
		return fail(w, http.StatusBadGateway, "Proxy error: "+err.Error())
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.SetStatus(span, err)
		logger.Error("failed to read REST upstream response", "error", err)
		return fail(w, http.StatusBadGateway, "Failed to read response")
	}
	tracing.SetStatus(span, nil)

	logger.Info("REST response",
		"status", resp.StatusCode,
		"bytes", len(payload),
	)

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(payload)
	return resp.StatusCode
}

func validateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		if strippedHeaders[http.CanonicalHeaderKey(name)] {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func fail(w http.ResponseWriter, status int, msg string) int {
	http.Error(w, msg, status)
	return status
}

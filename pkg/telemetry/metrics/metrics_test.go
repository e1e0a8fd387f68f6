package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/wsrelay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector(&config.AdminConfig{Namespace: "test"}, prometheus.NewRegistry())
}

func TestCollector_NewCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(&config.AdminConfig{}, registry)

	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
	if collector.namespace != config.DefaultMetricsNamespace {
		t.Errorf("namespace = %q, want %q", collector.namespace, config.DefaultMetricsNamespace)
	}
}

func TestCollector_Connections(t *testing.T) {
	c := newTestCollector(t)

	c.RecordAccepted()
	c.RecordAccepted()
	c.RecordSocketOptionFailure("quickack")
	c.RecordUpgradeFailure()

	if got := testutil.ToFloat64(c.connectionMetrics.acceptedTotal); got != 2 {
		t.Errorf("accepted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.connectionMetrics.optionFailuresTotal.WithLabelValues("quickack")); got != 1 {
		t.Errorf("quickack failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.connectionMetrics.upgradeFailures); got != 1 {
		t.Errorf("upgrade failures = %v, want 1", got)
	}
}

func TestCollector_Sessions(t *testing.T) {
	c := newTestCollector(t)

	tests := []struct {
		name    string
		outcome string
		relayed time.Duration
	}{
		{name: "completed relay", outcome: "completed", relayed: 3 * time.Second},
		{name: "auth failure", outcome: "auth_failed"},
		{name: "dial failure", outcome: "dial_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.SessionStarted()
			if got := testutil.ToFloat64(c.sessionMetrics.active); got != 1 {
				t.Errorf("active = %v, want 1", got)
			}
			c.SessionFinished(tt.outcome, tt.relayed)
			if got := testutil.ToFloat64(c.sessionMetrics.active); got != 0 {
				t.Errorf("active = %v, want 0", got)
			}
			if got := testutil.ToFloat64(c.sessionMetrics.sessionsTotal.WithLabelValues(tt.outcome)); got != 1 {
				t.Errorf("sessions{%s} = %v, want 1", tt.outcome, got)
			}
		})
	}

	if got := testutil.CollectAndCount(c.sessionMetrics.duration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestCollector_Frames(t *testing.T) {
	c := newTestCollector(t)

	c.RecordFrame(DirectionClientToTarget, 10)
	c.RecordFrame(DirectionClientToTarget, 5)
	c.RecordFrame(DirectionTargetToClient, 100)

	if got := testutil.ToFloat64(c.sessionMetrics.framesTotal.WithLabelValues(DirectionClientToTarget)); got != 2 {
		t.Errorf("frames c2t = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.sessionMetrics.bytesTotal.WithLabelValues(DirectionClientToTarget)); got != 15 {
		t.Errorf("bytes c2t = %v, want 15", got)
	}
	if got := testutil.ToFloat64(c.sessionMetrics.bytesTotal.WithLabelValues(DirectionTargetToClient)); got != 100 {
		t.Errorf("bytes t2c = %v, want 100", got)
	}
}

func TestCollector_Reloads(t *testing.T) {
	c := newTestCollector(t)

	c.RecordReload(true, 3)
	c.RecordReload(false, 3)
	c.RecordReload(true, 4)

	if got := testutil.ToFloat64(c.reloadMetrics.reloadsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.reloadMetrics.reloadsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("failure = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.reloadMetrics.users); got != 4 {
		t.Errorf("users = %v, want 4", got)
	}
}

func TestCollector_REST(t *testing.T) {
	c := newTestCollector(t)

	c.RecordREST(http.StatusOK, 20*time.Millisecond)
	c.RecordREST(http.StatusBadGateway, time.Second)

	if got := testutil.ToFloat64(c.restMetrics.requestsTotal.WithLabelValues("200")); got != 1 {
		t.Errorf("200 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.restMetrics.requestsTotal.WithLabelValues("502")); got != 1 {
		t.Errorf("502 = %v, want 1", got)
	}
}

func TestCollector_TLSSessionCache(t *testing.T) {
	c := newTestCollector(t)
	stats := SessionCacheStats{Size: 7, Hits: 3, Misses: 1}
	c.RegisterTLSSessionCache(func() SessionCacheStats { return stats })

	expected := `
# HELP test_tls_session_cache_entries Number of TLS sessions in the resumption cache
# TYPE test_tls_session_cache_entries gauge
test_tls_session_cache_entries 7
`
	if err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "test_tls_session_cache_entries"); err != nil {
		t.Error(err)
	}
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector

	c.RecordAccepted()
	c.RecordSocketOptionFailure("nodelay")
	c.RecordUpgradeFailure()
	c.SessionStarted()
	c.SessionFinished("completed", time.Second)
	c.RecordFrame(DirectionClientToTarget, 1)
	c.RecordReload(true, 1)
	c.SetUsers(1)
	c.RecordREST(200, time.Millisecond)
	c.RecordJournalDrop()
	c.RegisterTLSSessionCache(func() SessionCacheStats { return SessionCacheStats{} })
}

func TestCollector_Handler(t *testing.T) {
	c := newTestCollector(t)
	c.RecordAccepted()

	rec := httptest.NewRecorder()
	c.Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_connections_accepted_total 1") {
		t.Errorf("scrape missing accepted counter:\n%s", rec.Body.String())
	}
}

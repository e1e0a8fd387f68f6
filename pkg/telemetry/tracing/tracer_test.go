package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"mercator-hq/wsrelay/pkg/config"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	cfg := &config.TracingConfig{Enabled: true, ServiceName: "wsrelay-test", Sampler: SamplerAlways}
	tr, err := newWithExporter(cfg, "test", sdktrace.WithSpanProcessor(rec))
	if err != nil {
		t.Fatalf("newWithExporter() error = %v", err)
	}
	t.Cleanup(func() { tr.Shutdown(context.Background()) })
	return tr, rec
}

func TestNew_Disabled(t *testing.T) {
	tr, err := New(&config.TracingConfig{Enabled: false}, "dev")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tr.Enabled() {
		t.Error("expected disabled tracer")
	}

	_, span := tr.Start(context.Background(), "relay.session")
	if span.SpanContext().IsValid() {
		t.Error("noop tracer produced a valid span context")
	}
	span.End()

	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, "dev"); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestTracer_SessionSpan(t *testing.T) {
	tr, rec := newRecordingTracer(t)

	ctx, span := tr.Start(context.Background(), "relay.session", SessionStartOptions("sess-1", "127.0.0.1:4000", true))
	if TraceID(ctx) == "" {
		t.Error("expected trace ID in context")
	}
	AddPhaseEvent(span, EventUpgraded)
	AddPhaseEvent(span, EventAuthenticated)
	SetAuthAttributes(span, "alice", "ws://backend/ws")
	SetRelayAttributes(span, "completed", 3, 4, 30, 40)
	SetStatus(span, nil)
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("got %d ended spans, want 1", len(ended))
	}
	got := ended[0]
	if got.Name() != "relay.session" {
		t.Errorf("Name() = %q", got.Name())
	}
	if len(got.Events()) != 2 || got.Events()[1].Name != EventAuthenticated {
		t.Errorf("Events() = %v", got.Events())
	}

	attrs := map[string]bool{}
	for _, kv := range got.Attributes() {
		attrs[string(kv.Key)] = true
	}
	for _, key := range []string{AttrSessionID, AttrRemoteAddr, AttrUser, AttrTarget, AttrOutcome, AttrBytesOut} {
		if !attrs[key] {
			t.Errorf("missing attribute %s", key)
		}
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("Status = %v, want Ok", got.Status().Code)
	}
}

func TestSetStatus_Error(t *testing.T) {
	tr, rec := newRecordingTracer(t)

	_, span := tr.Start(context.Background(), "relay.session")
	SetStatus(span, errors.New("dial failed"))
	span.End()

	got := rec.Ended()[0]
	if got.Status().Code != codes.Error || got.Status().Description != "dial failed" {
		t.Errorf("Status = %+v", got.Status())
	}
}

func TestPropagation_RoundTrip(t *testing.T) {
	tr, _ := newRecordingTracer(t)

	ctx, span := tr.Start(context.Background(), "client")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Fatal("Inject() did not set traceparent")
	}

	extracted := Extract(context.Background(), headers)
	child, childSpan := tr.Start(extracted, "relay.session")
	defer childSpan.End()

	if TraceID(child) != TraceID(ctx) {
		t.Errorf("child trace ID = %s, want %s", TraceID(child), TraceID(ctx))
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.25, false},
		{SamplerRatio, 2, true},
		{"sometimes", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			_, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
			}
		})
	}
}

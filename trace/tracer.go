package trace

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/internal/debuglog"
	"github.com/syntra-hq/syntra-go/internal/metrics"
	"github.com/syntra-hq/syntra-go/transport"
)

// Config collects the tracer's dependencies and settings.
type Config struct {
	ServiceID    string
	DeploymentID string

	// SampleRate is the fraction of root spans to record, in [0, 1].
	// Values >= 1 record everything, values <= 0 record nothing.
	SampleRate float64

	// Transport receives finished span records. A nil transport keeps
	// the tracer functional but discards finished spans.
	Transport transport.Transport

	Logger *debuglog.Logger
}

// Tracer creates spans and tracks the active ones.
type Tracer struct {
	serviceID    string
	deploymentID string
	sampleRate   float64
	transport    transport.Transport
	log          *debuglog.Logger
	metrics      *metrics.Metrics

	mu     sync.RWMutex
	active map[string]*recordingSpan
}

// New creates a tracer.
func New(cfg Config) *Tracer {
	if cfg.Logger == nil {
		cfg.Logger = debuglog.Nop()
	}
	return &Tracer{
		serviceID:    cfg.ServiceID,
		deploymentID: cfg.DeploymentID,
		sampleRate:   cfg.SampleRate,
		transport:    cfg.Transport,
		log:          cfg.Logger,
		metrics:      metrics.Default(),
		active:       make(map[string]*recordingSpan),
	}
}

// SpanOption configures a span at start time.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind   event.SpanKind
	op     string
	parent Span
	attrs  event.Attributes
}

// WithKind sets the span kind. The default is internal.
func WithKind(kind event.SpanKind) SpanOption {
	return func(c *spanConfig) { c.kind = kind }
}

// WithOp records the operation category as the syntra.op attribute.
func WithOp(op string) SpanOption {
	return func(c *spanConfig) { c.op = op }
}

// WithParent sets an explicit parent, overriding the one carried by
// the context.
func WithParent(parent Span) SpanOption {
	return func(c *spanConfig) { c.parent = parent }
}

// WithAttributes sets initial attributes.
func WithAttributes(attrs ...event.Attribute) SpanOption {
	return func(c *spanConfig) { c.attrs = append(c.attrs, attrs...) }
}

// StartSpan starts a span as a child of the parent resolved from opts
// or ctx. When the sampling decision is negative it returns a no-op
// span and leaves ctx untouched; otherwise the returned context
// carries the new span as the active one.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (Span, context.Context) {
	cfg := spanConfig{kind: event.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}

	parentCtx, parentSpan := t.resolveParent(ctx, cfg.parent)

	if !t.shouldSample(parentCtx) {
		t.metrics.RecordSpanStart(false)
		t.log.Debug("span not sampled", zap.String("name", name))
		return newNoopSpan(), ctx
	}

	span := &recordingSpan{
		tracer:     t,
		traceID:    NewTraceID(),
		spanID:     NewSpanID(),
		parentSpan: parentSpan,
		name:       name,
		kind:       cfg.kind,
		startTime:  time.Now(),
		status:     event.SpanStatus{Code: event.StatusUnset},
		recording:  true,
	}
	if parentCtx != nil {
		span.traceID = parentCtx.TraceID
		span.parentSpanID = parentCtx.SpanID
	}
	if cfg.op != "" {
		span.attributes.Set("syntra.op", cfg.op)
	}
	for _, a := range cfg.attrs {
		span.attributes.Set(a.Key, a.Value)
	}

	t.mu.Lock()
	t.active[span.spanID] = span
	t.mu.Unlock()
	t.metrics.RecordSpanStart(true)

	return span, ContextWithSpan(ctx, span)
}

// resolveParent picks the parent for a new span: the explicit option
// wins, then the span carried by ctx, then a remote trace context
// extracted from incoming headers.
func (t *Tracer) resolveParent(ctx context.Context, explicit Span) (*TraceContext, Span) {
	if explicit != nil {
		tc := explicit.SpanContext()
		return &tc, explicit
	}
	if span := SpanFromContext(ctx); span != nil {
		tc := span.SpanContext()
		return &tc, span
	}
	if tc, ok := RemoteFromContext(ctx); ok {
		return &tc, nil
	}
	return nil, nil
}

func (t *Tracer) shouldSample(parent *TraceContext) bool {
	rate := t.sampleRate
	if rate >= 1 {
		return true
	}
	if rate <= 0 {
		return false
	}
	if parent != nil && parent.Sampled {
		return true
	}
	return rand.Float64() < rate
}

// ActiveSpan returns the span the context considers current: the span
// carried by ctx, or when that span has ended, its nearest ancestor
// still recording. A context holding only a remote trace context
// resolves through the registry, so a span handed across goroutines by
// id is still reachable. Returns nil when no recording span is found.
func (t *Tracer) ActiveSpan(ctx context.Context) Span {
	for span := SpanFromContext(ctx); span != nil; span = span.parent() {
		if span.IsRecording() {
			return span
		}
	}
	if tc, ok := RemoteFromContext(ctx); ok {
		t.mu.RLock()
		span := t.active[tc.SpanID]
		t.mu.RUnlock()
		if span != nil && span.IsRecording() {
			return span
		}
	}
	return nil
}

// onSpanEnd deregisters the span and hands its wire record to the
// transport.
func (t *Tracer) onSpanEnd(s *recordingSpan) {
	t.mu.Lock()
	delete(t.active, s.spanID)
	t.mu.Unlock()

	rec := s.wire(t.serviceID, t.deploymentID)
	t.metrics.RecordSpanFinish()
	t.log.Debug("span finished",
		zap.String("trace_id", rec.TraceID),
		zap.String("span_id", rec.SpanID),
		zap.String("operation", rec.OperationName),
		zap.Int64("duration_ns", rec.DurationNS),
	)

	if t.transport != nil {
		t.transport.SendSpans([]*event.Span{rec})
	}
}

// Flush drains buffered spans through the transport.
func (t *Tracer) Flush(ctx context.Context) error {
	if t.transport == nil {
		return nil
	}
	return t.transport.Flush(ctx)
}

func (t *Tracer) activeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.active)
}

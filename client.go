package syntra

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"reflect"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/internal/debuglog"
	"github.com/syntra-hq/syntra-go/internal/metrics"
	"github.com/syntra-hq/syntra-go/scope"
	"github.com/syntra-hq/syntra-go/trace"
	"github.com/syntra-hq/syntra-go/transport"
)

// EventOption attaches per-capture data to an error event.
type EventOption func(*eventConfig)

type eventConfig struct {
	tags   map[string]string
	extras map[string]any
}

// WithTags merges tags into the captured event, on top of the scope's
// tags.
func WithTags(tags map[string]string) EventOption {
	return func(c *eventConfig) {
		if c.tags == nil {
			c.tags = make(map[string]string, len(tags))
		}
		for k, v := range tags {
			c.tags[k] = v
		}
	}
}

// WithExtras merges extra values into the captured event.
func WithExtras(extras map[string]any) EventOption {
	return func(c *eventConfig) {
		if c.extras == nil {
			c.extras = make(map[string]any, len(extras))
		}
		for k, v := range extras {
			c.extras[k] = v
		}
	}
}

// Client captures errors, messages, and spans and ships them through
// its transport. All methods are safe for concurrent use.
type Client struct {
	options    Options
	dsn        *DSN
	serviceID  string
	scopes     *scope.Manager
	tracer     *trace.Tracer
	transport  transport.Transport
	classifier *stackClassifier
	log        *debuglog.Logger
	metrics    *metrics.Metrics
}

// NewClient builds a client from options. The DSN is required unless
// Options.CustomTransport is set.
func NewClient(options Options) (*Client, error) {
	options.applyDefaults()
	log := debuglog.New(options.Debug)

	var dsn *DSN
	if options.DSN != "" {
		var err error
		if dsn, err = ParseDSN(options.DSN); err != nil {
			return nil, err
		}
	}

	serviceID := options.ServiceID
	if serviceID == "" && dsn != nil {
		serviceID = dsn.ProjectID
	}

	tr := options.CustomTransport
	if tr == nil {
		if dsn == nil {
			return nil, fmt.Errorf("syntra: dsn is required without a custom transport")
		}
		cfg := transport.Config{
			Host:              dsn.Host,
			PublicKey:         dsn.PublicKey,
			ProjectID:         dsn.ProjectID,
			Endpoint:          options.OTLPEndpoint,
			ServiceName:       serviceID,
			Release:           options.Release,
			MaxBatchSize:      options.MaxBatchSize,
			MaxRetries:        options.MaxRetries,
			Timeout:           options.SendTimeout,
			BackoffBase:       options.BackoffBase,
			BackoffCap:        options.BackoffCap,
			Compress:          options.Compress,
			MaxSendsPerSecond: options.MaxSendsPerSecond,
			HTTPTransport:     options.HTTPTransport,
			Logger:            log,
		}
		var err error
		if options.Transport == TransportOTLP {
			tr, err = transport.NewOTLP(cfg)
		} else {
			tr, err = transport.NewHTTP(cfg)
		}
		if err != nil {
			return nil, err
		}
	}

	c := &Client{
		options:    options,
		dsn:        dsn,
		serviceID:  serviceID,
		scopes:     scope.NewManager(options.MaxBreadcrumbs),
		transport:  tr,
		classifier: newStackClassifier(&options),
		log:        log,
		metrics:    metrics.Default(),
	}
	c.tracer = trace.New(trace.Config{
		ServiceID:    serviceID,
		DeploymentID: options.DeploymentID,
		SampleRate:   options.TracesSampleRate,
		Transport:    tr,
		Logger:       log,
	})

	if dsn != nil {
		log.Debug("client created",
			zap.String("host", dsn.Host),
			zap.String("project_id", dsn.ProjectID),
			zap.String("transport", options.Transport),
		)
	}
	return c, nil
}

// Options returns the options the client was built with.
func (c *Client) Options() Options {
	return c.options
}

// CaptureException captures err with the stack of the calling
// goroutine and the context's scope, and returns the event id. A nil
// error, a negative sampling draw, or a BeforeSend drop all return "".
func (c *Client) CaptureException(ctx context.Context, err error, opts ...EventOption) string {
	if err == nil {
		return ""
	}
	return c.captureError(ctx, err, captureStacktrace(1, c.classifier), opts)
}

func (c *Client) captureError(ctx context.Context, err error, frames []event.StackFrame, opts []EventOption) string {
	if !sampleEvent(c.options.ErrorsSampleRate) {
		c.metrics.RecordCaptureDrop("sample_rate")
		return ""
	}

	var cfg eventConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	sc := c.scopes.Current(ctx)
	errType := errorTypeName(err)
	message := err.Error()

	fingerprint := sc.Fingerprint()
	if fingerprint == nil {
		fingerprint = defaultFingerprint(errType, message, frames)
	}

	rec := &event.Error{
		ID:           uuid.New().String(),
		ServiceID:    c.serviceID,
		DeploymentID: c.options.DeploymentID,
		Timestamp:    event.Now(),
		Type:         errType,
		Message:      message,
		StackTrace:   frames,
		Breadcrumbs:  sc.Breadcrumbs(),
		Context: event.ErrorContext{
			Environment: c.options.Environment,
			Release:     c.options.Release,
			User:        sc.User(),
			Tags:        mergeTags(sc.Tags(), cfg.tags),
			Extra:       mergeExtras(sc.Extra(), cfg.extras),
			Runtime:     map[string]string{"name": "go", "version": runtime.Version()},
			OS:          map[string]string{"name": runtime.GOOS},
		},
		Fingerprint: fingerprint,
	}
	return c.dispatch(rec, "error")
}

// CaptureMessage captures an informational message as a synthetic
// error event of type "Message" and returns the event id. Messages
// group by level and exact text.
func (c *Client) CaptureMessage(ctx context.Context, message string, level event.LogLevel, opts ...EventOption) string {
	if !sampleEvent(c.options.ErrorsSampleRate) {
		c.metrics.RecordCaptureDrop("sample_rate")
		return ""
	}
	if level == "" {
		level = event.LogLevelInfo
	}

	var cfg eventConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	sc := c.scopes.Current(ctx)
	tags := mergeTags(sc.Tags(), cfg.tags)
	tags["level"] = string(level)

	rec := &event.Error{
		ID:           uuid.New().String(),
		ServiceID:    c.serviceID,
		DeploymentID: c.options.DeploymentID,
		Timestamp:    event.Now(),
		Type:         "Message",
		Message:      message,
		StackTrace:   []event.StackFrame{},
		Breadcrumbs:  sc.Breadcrumbs(),
		Context: event.ErrorContext{
			Environment: c.options.Environment,
			Release:     c.options.Release,
			User:        sc.User(),
			Tags:        tags,
			Extra:       mergeExtras(sc.Extra(), cfg.extras),
		},
		Fingerprint: []string{string(level), message},
	}
	return c.dispatch(rec, "message")
}

// dispatch runs the BeforeSend hook and hands the record to the
// transport. Returns the event id, or "" when the hook dropped it.
func (c *Client) dispatch(rec *event.Error, kind string) string {
	if c.options.BeforeSend != nil {
		if rec = c.options.BeforeSend(rec); rec == nil {
			c.metrics.RecordCaptureDrop("before_send")
			c.log.Debug("event dropped by before_send")
			return ""
		}
	}

	c.transport.SendError(rec)
	c.metrics.RecordCapture(kind)
	c.log.Debug("captured event",
		zap.String("event_id", rec.ID),
		zap.String("type", rec.Type),
	)
	return rec.ID
}

// CaptureLog ships a structured log record to the logs queue. Zero
// timestamp and level are filled in, and the active span's ids are
// attached when the record carries none.
func (c *Client) CaptureLog(ctx context.Context, rec event.Log) {
	if rec.Timestamp.Time().IsZero() {
		rec.Timestamp = event.Now()
	}
	if rec.Level == "" {
		rec.Level = event.LogLevelInfo
	}
	if rec.TraceID == "" {
		if span := c.tracer.ActiveSpan(ctx); span != nil {
			rec.TraceID = span.TraceID()
			rec.SpanID = span.SpanID()
		}
	}
	c.transport.SendLogs([]*event.Log{&rec})
	c.metrics.RecordCapture("log")
}

// Recover captures a panic on the calling goroutine and returns the
// recovered value, or nil when there was no panic. It must be
// deferred directly:
//
//	defer client.Recover(ctx)
func (c *Client) Recover(ctx context.Context) any {
	v := recover()
	if v == nil {
		return nil
	}
	err, ok := v.(error)
	if !ok {
		err = &panicError{value: v}
	}
	c.captureError(ctx, err, captureStacktrace(1, c.classifier), []EventOption{
		WithTags(map[string]string{"panic": "true"}),
	})
	return v
}

// panicError adapts a non-error panic value.
type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprint(p.value)
}

// Scope returns the scope visible from ctx.
func (c *Client) Scope(ctx context.Context) *scope.Scope {
	return c.scopes.Current(ctx)
}

// Isolate clones the visible scope into a derived context. See
// scope.Manager.Isolate.
func (c *Client) Isolate(ctx context.Context) (context.Context, *scope.Scope) {
	return c.scopes.Isolate(ctx)
}

// WithScope runs fn inside an isolated scope.
func (c *Client) WithScope(ctx context.Context, fn func(ctx context.Context, s *scope.Scope)) {
	ctx, s := c.scopes.Isolate(ctx)
	fn(ctx, s)
}

// AddBreadcrumb appends a breadcrumb to the scope visible from ctx.
func (c *Client) AddBreadcrumb(ctx context.Context, b event.Breadcrumb) {
	c.scopes.Current(ctx).AddBreadcrumb(b)
}

// SetUser sets the user on the scope visible from ctx.
func (c *Client) SetUser(ctx context.Context, user *event.User) {
	c.scopes.Current(ctx).SetUser(user)
}

// SetTag sets a tag on the scope visible from ctx.
func (c *Client) SetTag(ctx context.Context, key, value string) {
	c.scopes.Current(ctx).SetTag(key, value)
}

// SetExtra sets an extra value on the scope visible from ctx.
func (c *Client) SetExtra(ctx context.Context, key string, value any) {
	c.scopes.Current(ctx).SetExtra(key, value)
}

// SetFingerprint overrides error grouping for the scope visible from
// ctx.
func (c *Client) SetFingerprint(ctx context.Context, fingerprint []string) {
	c.scopes.Current(ctx).SetFingerprint(fingerprint)
}

// StartSpan starts a span. See trace.Tracer.StartSpan.
func (c *Client) StartSpan(ctx context.Context, name string, opts ...trace.SpanOption) (trace.Span, context.Context) {
	return c.tracer.StartSpan(ctx, name, opts...)
}

// ActiveSpan returns the nearest recording span reachable from ctx,
// or nil.
func (c *Client) ActiveSpan(ctx context.Context) trace.Span {
	return c.tracer.ActiveSpan(ctx)
}

// Tracer exposes the underlying tracer.
func (c *Client) Tracer() *trace.Tracer {
	return c.tracer
}

// InjectTraceContext writes the active span's trace context into h so
// a downstream service can continue the trace. No active span, no
// headers.
func (c *Client) InjectTraceContext(ctx context.Context, h http.Header) {
	span := c.tracer.ActiveSpan(ctx)
	if span == nil {
		return
	}
	trace.Inject(span.SpanContext(), h)
}

// ExtractTraceContext reads a remote trace context from incoming
// headers.
func (c *Client) ExtractTraceContext(h http.Header) (trace.TraceContext, bool) {
	return trace.Extract(h)
}

// ContinueFromHeaders binds the remote trace context carried by h to
// ctx; the next span started from the returned context joins the
// incoming trace as a child.
func (c *Client) ContinueFromHeaders(ctx context.Context, h http.Header) context.Context {
	if tc, ok := trace.Extract(h); ok {
		return trace.ContextWithRemote(ctx, tc)
	}
	return ctx
}

// Flush sends everything queued so far, waiting for in-flight
// deliveries until ctx expires.
func (c *Client) Flush(ctx context.Context) error {
	if err := c.transport.Flush(ctx); err != nil {
		return err
	}
	c.log.Debug("flushed")
	return nil
}

// Close flushes and shuts the transport down. Further captures are
// dropped. Close is idempotent.
func (c *Client) Close() error {
	err := c.transport.Close()
	c.log.Debug("client closed")
	return err
}

// errorTypeName names an error's concrete type the way the dashboard
// groups it, e.g. "errors.errorString" or "pgx.ConnectError".
func errorTypeName(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return "error"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

func sampleEvent(rate float64) bool {
	if rate >= 1 {
		return true
	}
	if rate <= 0 {
		return false
	}
	return rand.Float64() < rate
}

func mergeTags(base, overlay map[string]string) map[string]string {
	for k, v := range overlay {
		base[k] = v
	}
	return base
}

func mergeExtras(base, overlay map[string]any) map[string]any {
	for k, v := range overlay {
		base[k] = v
	}
	return base
}

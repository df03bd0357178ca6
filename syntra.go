package syntra

import (
	"context"
	"net/http"
	"sync"

	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/scope"
	"github.com/syntra-hq/syntra-go/trace"
)

var (
	globalMu     sync.RWMutex
	globalClient *Client
)

// Init builds the global client used by the package-level functions.
// Calling Init again replaces the previous client after closing it.
func Init(options Options) error {
	client, err := NewClient(options)
	if err != nil {
		return err
	}

	globalMu.Lock()
	prev := globalClient
	globalClient = client
	globalMu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// CurrentClient returns the global client, or nil before Init.
func CurrentClient() *Client {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalClient
}

// CaptureException captures err through the global client. A no-op
// returning "" before Init.
func CaptureException(ctx context.Context, err error, opts ...EventOption) string {
	c := CurrentClient()
	if c == nil || err == nil {
		return ""
	}
	return c.captureError(ctx, err, captureStacktrace(1, c.classifier), opts)
}

// CaptureMessage captures a message through the global client.
func CaptureMessage(ctx context.Context, message string, level event.LogLevel, opts ...EventOption) string {
	if c := CurrentClient(); c != nil {
		return c.CaptureMessage(ctx, message, level, opts...)
	}
	return ""
}

// CaptureLog ships a structured log record through the global client.
func CaptureLog(ctx context.Context, rec event.Log) {
	if c := CurrentClient(); c != nil {
		c.CaptureLog(ctx, rec)
	}
}

// Recover captures a panic through the global client and returns the
// recovered value. Must be deferred directly. Before Init it still
// swallows the panic and returns the value.
func Recover(ctx context.Context) any {
	v := recover()
	if v == nil {
		return nil
	}
	if c := CurrentClient(); c != nil {
		err, ok := v.(error)
		if !ok {
			err = &panicError{value: v}
		}
		c.captureError(ctx, err, captureStacktrace(1, c.classifier), []EventOption{
			WithTags(map[string]string{"panic": "true"}),
		})
	}
	return v
}

// AddBreadcrumb appends a breadcrumb to the scope visible from ctx.
func AddBreadcrumb(ctx context.Context, b event.Breadcrumb) {
	if c := CurrentClient(); c != nil {
		c.AddBreadcrumb(ctx, b)
	}
}

// SetUser sets the user on the scope visible from ctx.
func SetUser(ctx context.Context, user *event.User) {
	if c := CurrentClient(); c != nil {
		c.SetUser(ctx, user)
	}
}

// SetTag sets a tag on the scope visible from ctx.
func SetTag(ctx context.Context, key, value string) {
	if c := CurrentClient(); c != nil {
		c.SetTag(ctx, key, value)
	}
}

// SetExtra sets an extra value on the scope visible from ctx.
func SetExtra(ctx context.Context, key string, value any) {
	if c := CurrentClient(); c != nil {
		c.SetExtra(ctx, key, value)
	}
}

// SetFingerprint overrides error grouping for the scope visible from
// ctx.
func SetFingerprint(ctx context.Context, fingerprint []string) {
	if c := CurrentClient(); c != nil {
		c.SetFingerprint(ctx, fingerprint)
	}
}

// Isolate clones the visible scope into a derived context. Before
// Init it returns ctx unchanged and a throwaway scope.
func Isolate(ctx context.Context) (context.Context, *scope.Scope) {
	if c := CurrentClient(); c != nil {
		return c.Isolate(ctx)
	}
	return ctx, scope.New(0)
}

// WithScope runs fn inside an isolated scope.
func WithScope(ctx context.Context, fn func(ctx context.Context, s *scope.Scope)) {
	if c := CurrentClient(); c != nil {
		c.WithScope(ctx, fn)
		return
	}
	fn(ctx, scope.New(0))
}

// StartSpan starts a span through the global client. Before Init it
// returns a no-op span and ctx unchanged.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanOption) (trace.Span, context.Context) {
	if c := CurrentClient(); c != nil {
		return c.StartSpan(ctx, name, opts...)
	}
	return trace.Noop(), ctx
}

// ActiveSpan returns the nearest recording span reachable from ctx.
func ActiveSpan(ctx context.Context) trace.Span {
	if c := CurrentClient(); c != nil {
		return c.ActiveSpan(ctx)
	}
	return nil
}

// InjectTraceContext writes the active span's trace context into h.
func InjectTraceContext(ctx context.Context, h http.Header) {
	if c := CurrentClient(); c != nil {
		c.InjectTraceContext(ctx, h)
	}
}

// ExtractTraceContext reads a remote trace context from headers.
func ExtractTraceContext(h http.Header) (trace.TraceContext, bool) {
	return trace.Extract(h)
}

// ContinueFromHeaders binds the remote trace context carried by h to
// ctx.
func ContinueFromHeaders(ctx context.Context, h http.Header) context.Context {
	if c := CurrentClient(); c != nil {
		return c.ContinueFromHeaders(ctx, h)
	}
	return ctx
}

// Flush sends everything queued through the global client.
func Flush(ctx context.Context) error {
	if c := CurrentClient(); c != nil {
		return c.Flush(ctx)
	}
	return nil
}

// Close shuts the global client down and detaches it.
func Close() error {
	globalMu.Lock()
	client := globalClient
	globalClient = nil
	globalMu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

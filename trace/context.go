package trace

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Propagation header names. Lookups through http.Header are
// case-insensitive for headers set in canonical form.
const (
	TraceparentHeader = "traceparent"
	TracestateHeader  = "tracestate"
)

const (
	zeroTraceID = "00000000000000000000000000000000"
	zeroSpanID  = "0000000000000000"
)

// TraceContext identifies a position in a distributed trace.
type TraceContext struct {
	TraceID    string
	SpanID     string
	Sampled    bool
	TraceState string
}

// Valid reports whether both ids have the right length and are non-zero.
func (tc TraceContext) Valid() bool {
	return len(tc.TraceID) == 32 && tc.TraceID != zeroTraceID &&
		len(tc.SpanID) == 16 && tc.SpanID != zeroSpanID
}

// Traceparent encodes the context as a W3C traceparent value.
func (tc TraceContext) Traceparent() string {
	flags := "00"
	if tc.Sampled {
		flags = "01"
	}
	return "00-" + tc.TraceID + "-" + tc.SpanID + "-" + flags
}

// ParseTraceparent decodes a traceparent header value. It returns
// ok=false for malformed input: wrong segment count, an unsupported
// version, ids of the wrong length, non-hex characters, or all-zero
// ids. Ids are lowercased on success.
func ParseTraceparent(header string) (TraceContext, bool) {
	parts := strings.Split(strings.TrimSpace(header), "-")
	if len(parts) != 4 {
		return TraceContext{}, false
	}

	if parts[0] != "00" {
		return TraceContext{}, false
	}

	traceID := strings.ToLower(parts[1])
	if len(traceID) != 32 || !isHex(traceID) || traceID == zeroTraceID {
		return TraceContext{}, false
	}

	spanID := strings.ToLower(parts[2])
	if len(spanID) != 16 || !isHex(spanID) || spanID == zeroSpanID {
		return TraceContext{}, false
	}

	flags, err := strconv.ParseUint(strings.ToLower(parts[3]), 16, 8)
	if err != nil {
		return TraceContext{}, false
	}

	return TraceContext{
		TraceID: traceID,
		SpanID:  spanID,
		Sampled: flags&0x01 != 0,
	}, true
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Inject writes the context into headers as traceparent, plus
// tracestate when vendor state is present.
func Inject(tc TraceContext, h http.Header) {
	h.Set(TraceparentHeader, tc.Traceparent())
	if tc.TraceState != "" {
		h.Set(TracestateHeader, tc.TraceState)
	}
}

// Extract reads trace context from headers. Tracestate is carried
// through verbatim. Returns ok=false when no valid traceparent exists.
func Extract(h http.Header) (TraceContext, bool) {
	tc, ok := ParseTraceparent(headerValue(h, TraceparentHeader))
	if !ok {
		return TraceContext{}, false
	}
	tc.TraceState = headerValue(h, TracestateHeader)
	return tc, true
}

// headerValue looks a key up case-insensitively even when the map was
// populated without canonical keys, as grpc metadata bridges do.
func headerValue(h http.Header, key string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	for k, vs := range h {
		if len(vs) > 0 && strings.EqualFold(k, key) {
			return vs[0]
		}
	}
	return ""
}

// Context keys for span and remote-parent propagation
type contextKey string

const (
	activeSpanKey    contextKey = "active_span"
	remoteContextKey contextKey = "remote_context"
)

// ContextWithSpan returns a context carrying span as the active span.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	return context.WithValue(ctx, activeSpanKey, span)
}

// SpanFromContext returns the span carried by ctx, or nil.
func SpanFromContext(ctx context.Context) Span {
	if span, ok := ctx.Value(activeSpanKey).(Span); ok {
		return span
	}
	return nil
}

// ContextWithRemote returns a context carrying an extracted trace
// context. The next span started from the context continues the
// remote trace as its child.
func ContextWithRemote(ctx context.Context, tc TraceContext) context.Context {
	return context.WithValue(ctx, remoteContextKey, tc)
}

// RemoteFromContext returns the remote trace context carried by ctx.
func RemoteFromContext(ctx context.Context) (TraceContext, bool) {
	tc, ok := ctx.Value(remoteContextKey).(TraceContext)
	return tc, ok
}

package syntrahttp

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	syntra "github.com/syntra-hq/syntra-go"
	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/scope"
	"github.com/syntra-hq/syntra-go/trace"
)

// Options configures the server-side handler wrapper.
type Options struct {
	// Client handles spans and captures. The global client is used
	// when nil.
	Client *syntra.Client

	// ExcludePaths skips instrumentation for requests whose path
	// matches one of these prefixes. Defaults to DefaultExcludePaths.
	ExcludePaths []string

	// Repanic rethrows a captured panic so an outer recovery layer
	// produces the response. When false the handler answers 500.
	Repanic bool
}

// DefaultExcludePaths lists the endpoints skipped when
// Options.ExcludePaths is nil.
func DefaultExcludePaths() []string {
	return []string{"/health", "/healthz", "/ready", "/favicon.ico"}
}

// Handler wraps http.Handlers with Syntra instrumentation.
type Handler struct {
	opts    Options
	exclude []string
}

// New builds a Handler from opts.
func New(opts Options) *Handler {
	exclude := opts.ExcludePaths
	if exclude == nil {
		exclude = DefaultExcludePaths()
	}
	return &Handler{opts: opts, exclude: exclude}
}

// Handle wraps next with tracing, scope isolation, and panic capture.
func (h *Handler) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, next)
	})
}

// HandleFunc is Handle for a bare handler function.
func (h *Handler) HandleFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, next)
	}
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	client := h.opts.Client
	if client == nil {
		client = syntra.CurrentClient()
	}
	if client == nil || skipPath(h.exclude, r.URL.Path) {
		next.ServeHTTP(w, r)
		return
	}

	path := r.URL.Path
	url := requestURL(r)

	ctx := client.ContinueFromHeaders(r.Context(), r.Header)
	ctx, _ = client.Isolate(ctx)

	span, ctx := client.StartSpan(ctx, fmt.Sprintf("%s %s", r.Method, path),
		trace.WithKind(event.SpanKindServer),
		trace.WithOp("http.server"),
		trace.WithAttributes(
			event.Attribute{Key: "http.method", Value: r.Method},
			event.Attribute{Key: "http.url", Value: url},
			event.Attribute{Key: "http.route", Value: path},
			event.Attribute{Key: "http.host", Value: r.Host},
		),
	)

	client.AddBreadcrumb(ctx, event.Breadcrumb{
		Type:     event.BreadcrumbHTTP,
		Category: "request",
		Message:  fmt.Sprintf("%s %s", r.Method, path),
		Data: map[string]any{
			"method": r.Method,
			"url":    url,
		},
	})

	// Response headers flush with the first handler write, so the
	// traceparent has to be set up front.
	client.InjectTraceContext(ctx, w.Header())

	sw := &statusWriter{ResponseWriter: w}
	r = r.WithContext(ctx)

	defer func() {
		if v := recover(); v != nil {
			err, ok := v.(error)
			if !ok {
				err = fmt.Errorf("%v", v)
			}
			client.CaptureException(ctx, err,
				syntra.WithTags(map[string]string{"route": path}),
				syntra.WithExtras(map[string]any{
					"request.method": r.Method,
					"request.url":    url,
				}),
			)
			span.SetAttribute("http.status_code", http.StatusInternalServerError)
			span.SetStatus(event.StatusError, err.Error())
			span.End()
			if h.opts.Repanic {
				panic(v)
			}
			if !sw.wrote {
				w.WriteHeader(http.StatusInternalServerError)
			}
		}
	}()

	next.ServeHTTP(sw, r)

	status := sw.status()
	span.SetAttribute("http.status_code", status)
	if status >= 400 {
		span.SetStatus(event.StatusError, "")
	} else {
		span.SetStatus(event.StatusOK, "")
	}
	span.End()
}

// statusWriter remembers the response code; net/http offers no way to
// read it back from a plain ResponseWriter.
type statusWriter struct {
	http.ResponseWriter
	code  int
	wrote bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wrote {
		w.code = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.code = http.StatusOK
		w.wrote = true
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) status() int {
	if !w.wrote {
		return http.StatusOK
	}
	return w.code
}

// Transport is an http.RoundTripper that traces outgoing requests and
// records an HTTP breadcrumb per call.
type Transport struct {
	// Base performs the request; http.DefaultTransport when nil.
	Base http.RoundTripper

	// Client handles spans and breadcrumbs. The global client is used
	// when nil.
	Client *syntra.Client
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	client := t.Client
	if client == nil {
		client = syntra.CurrentClient()
	}
	if client == nil {
		return base.RoundTrip(req)
	}

	span, ctx := client.StartSpan(req.Context(), fmt.Sprintf("%s %s", req.Method, req.URL.Host),
		trace.WithKind(event.SpanKindClient),
		trace.WithOp("http.client"),
		trace.WithAttributes(
			event.Attribute{Key: "http.method", Value: req.Method},
			event.Attribute{Key: "http.url", Value: req.URL.String()},
		),
	)
	defer span.End()

	req = req.Clone(ctx)
	trace.Inject(span.SpanContext(), req.Header)

	start := time.Now()
	resp, err := base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		client.AddBreadcrumb(ctx, scope.HTTPBreadcrumb(req.Method, req.URL.String(), 0, elapsed))
		span.SetStatus(event.StatusError, err.Error())
		return resp, err
	}

	client.AddBreadcrumb(ctx, scope.HTTPBreadcrumb(req.Method, req.URL.String(), resp.StatusCode, elapsed))
	span.SetAttribute("http.status_code", resp.StatusCode)
	if resp.StatusCode >= 400 {
		span.SetStatus(event.StatusError, "")
	} else {
		span.SetStatus(event.StatusOK, "")
	}
	return resp, nil
}

func skipPath(exclude []string, path string) bool {
	for _, prefix := range exclude {
		if path == prefix || strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

package syntragin

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	syntra "github.com/syntra-hq/syntra-go"
	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/trace"
)

// Options configures the middleware.
type Options struct {
	// Client handles spans and captures. The global client is used
	// when nil, and the middleware is a pass-through until Init ran.
	Client *syntra.Client

	// ExcludePaths skips instrumentation for requests whose path
	// matches one of these prefixes. Defaults to DefaultExcludePaths.
	ExcludePaths []string

	// Repanic rethrows a captured panic so an outer recovery
	// middleware produces the response. When false the middleware
	// answers 500 itself.
	Repanic bool
}

// DefaultExcludePaths lists the endpoints skipped when
// Options.ExcludePaths is nil.
func DefaultExcludePaths() []string {
	return []string{"/health", "/healthz", "/ready", "/favicon.ico"}
}

// New returns a middleware that traces every request and captures
// handler panics with the request's scope attached.
func New(opts Options) gin.HandlerFunc {
	exclude := opts.ExcludePaths
	if exclude == nil {
		exclude = DefaultExcludePaths()
	}

	return func(c *gin.Context) {
		client := opts.Client
		if client == nil {
			client = syntra.CurrentClient()
		}
		if client == nil || skipPath(exclude, c.Request.URL.Path) {
			c.Next()
			return
		}

		req := c.Request
		path := req.URL.Path
		url := requestURL(req)

		route := c.FullPath()
		if route == "" {
			route = path
		}

		ctx := client.ContinueFromHeaders(req.Context(), req.Header)
		ctx, _ = client.Isolate(ctx)

		span, ctx := client.StartSpan(ctx, fmt.Sprintf("%s %s", req.Method, path),
			trace.WithKind(event.SpanKindServer),
			trace.WithOp("http.server"),
			trace.WithAttributes(
				event.Attribute{Key: "http.method", Value: req.Method},
				event.Attribute{Key: "http.url", Value: url},
				event.Attribute{Key: "http.route", Value: route},
				event.Attribute{Key: "http.host", Value: req.Host},
			),
		)

		client.AddBreadcrumb(ctx, event.Breadcrumb{
			Type:     event.BreadcrumbHTTP,
			Category: "request",
			Message:  fmt.Sprintf("%s %s", req.Method, path),
			Data: map[string]any{
				"method": req.Method,
				"url":    url,
			},
		})

		c.Request = req.WithContext(ctx)

		// Response headers flush with the first handler write, so the
		// traceparent has to be set up front.
		client.InjectTraceContext(ctx, c.Writer.Header())

		defer func() {
			if v := recover(); v != nil {
				err, ok := v.(error)
				if !ok {
					err = fmt.Errorf("%v", v)
				}
				client.CaptureException(ctx, err,
					syntra.WithTags(map[string]string{"route": route}),
					syntra.WithExtras(map[string]any{
						"request.method": req.Method,
						"request.url":    url,
					}),
				)
				span.SetAttribute("http.status_code", http.StatusInternalServerError)
				span.SetStatus(event.StatusError, err.Error())
				span.End()
				if opts.Repanic {
					panic(v)
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		span.SetAttribute("http.status_code", status)
		if status >= 400 {
			msg := ""
			if len(c.Errors) > 0 {
				msg = c.Errors.Last().Error()
			}
			span.SetStatus(event.StatusError, msg)
		} else {
			span.SetStatus(event.StatusOK, "")
		}
		span.End()
	}
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

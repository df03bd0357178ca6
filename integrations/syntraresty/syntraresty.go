package syntraresty

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"

	syntra "github.com/syntra-hq/syntra-go"
	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/scope"
	"github.com/syntra-hq/syntra-go/trace"
)

// Options configures the instrumentation.
type Options struct {
	// Client handles spans and breadcrumbs. The global client is used
	// when nil.
	Client *syntra.Client
}

func (o Options) client() *syntra.Client {
	if o.Client != nil {
		return o.Client
	}
	return syntra.CurrentClient()
}

// spanKey carries the request's span between the hooks.
type spanKey struct{}

// Instrument attaches tracing and breadcrumb hooks to rc. The span
// rides the request context, so the hooks pair up even across
// concurrent requests.
func Instrument(rc *resty.Client, opts Options) {
	rc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		client := opts.client()
		if client == nil {
			return nil
		}

		span, ctx := client.StartSpan(req.Context(), fmt.Sprintf("%s %s", req.Method, hostOf(req.URL)),
			trace.WithKind(event.SpanKindClient),
			trace.WithOp("http.client"),
			trace.WithAttributes(
				event.Attribute{Key: "http.method", Value: req.Method},
				event.Attribute{Key: "http.url", Value: req.URL},
			),
		)
		req.SetContext(context.WithValue(ctx, spanKey{}, span))
		trace.Inject(span.SpanContext(), req.Header)
		return nil
	})

	rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		client := opts.client()
		ctx := resp.Request.Context()
		span, _ := ctx.Value(spanKey{}).(trace.Span)
		if client == nil || span == nil {
			return nil
		}

		status := resp.StatusCode()
		client.AddBreadcrumb(ctx, scope.HTTPBreadcrumb(resp.Request.Method, resp.Request.URL, status, resp.Time()))

		span.SetAttribute("http.status_code", status)
		if status >= 400 {
			span.SetStatus(event.StatusError, "")
		} else {
			span.SetStatus(event.StatusOK, "")
		}
		span.End()
		return nil
	})

	rc.OnError(func(req *resty.Request, err error) {
		client := opts.client()
		ctx := req.Context()
		span, _ := ctx.Value(spanKey{}).(trace.Span)
		if client == nil || span == nil {
			return
		}

		client.AddBreadcrumb(ctx, scope.HTTPBreadcrumb(req.Method, req.URL, 0, 0))
		span.SetStatus(event.StatusError, err.Error())
		span.End()
	})
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return raw
}

package syntragrpc

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	syntra "github.com/syntra-hq/syntra-go"
	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/trace"
)

// Options configures the interceptors.
type Options struct {
	// Client handles spans and captures. The global client is used
	// when nil.
	Client *syntra.Client

	// Repanic rethrows a captured panic so an outer recovery
	// interceptor can turn it into a response. When false the server
	// interceptor converts the panic into codes.Internal.
	Repanic bool
}

func (o Options) client() *syntra.Client {
	if o.Client != nil {
		return o.Client
	}
	return syntra.CurrentClient()
}

// UnaryServerInterceptor traces unary calls, isolates a scope per
// call, and captures handler errors and panics.
func UnaryServerInterceptor(opts Options) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		client := opts.client()
		if client == nil {
			return handler(ctx, req)
		}

		if md, ok := metadata.FromIncomingContext(ctx); ok {
			ctx = client.ContinueFromHeaders(ctx, headerFromMD(md))
		}
		ctx, _ = client.Isolate(ctx)

		span, ctx := client.StartSpan(ctx, info.FullMethod,
			trace.WithKind(event.SpanKindServer),
			trace.WithOp("rpc.server"),
			trace.WithAttributes(
				event.Attribute{Key: "rpc.system", Value: "grpc"},
				event.Attribute{Key: "rpc.method", Value: info.FullMethod},
			),
		)
		defer span.End()

		client.AddBreadcrumb(ctx, event.Breadcrumb{
			Category: "request",
			Message:  info.FullMethod,
			Data:     map[string]any{"rpc.system": "grpc"},
		})

		defer func() {
			if v := recover(); v != nil {
				perr, ok := v.(error)
				if !ok {
					perr = fmt.Errorf("%v", v)
				}
				client.CaptureException(ctx, perr,
					syntra.WithTags(map[string]string{"rpc.method": info.FullMethod, "panic": "true"}),
				)
				span.SetAttribute("rpc.grpc.status_code", int(codes.Internal))
				span.SetStatus(event.StatusError, perr.Error())
				if opts.Repanic {
					panic(v)
				}
				err = status.Error(codes.Internal, "internal error")
			}
		}()

		resp, err = handler(ctx, req)

		if err != nil {
			span.SetAttribute("rpc.grpc.status_code", int(status.Code(err)))
			span.SetStatus(event.StatusError, err.Error())
			client.CaptureException(ctx, err,
				syntra.WithTags(map[string]string{"rpc.method": info.FullMethod}),
			)
		} else {
			span.SetAttribute("rpc.grpc.status_code", int(codes.OK))
			span.SetStatus(event.StatusOK, "")
		}
		return resp, err
	}
}

// UnaryClientInterceptor starts a client span per call and propagates
// the trace context through outgoing metadata.
func UnaryClientInterceptor(opts Options) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
		client := opts.client()
		if client == nil {
			return invoker(ctx, method, req, reply, cc, callOpts...)
		}

		span, ctx := client.StartSpan(ctx, method,
			trace.WithKind(event.SpanKindClient),
			trace.WithOp("rpc.client"),
			trace.WithAttributes(
				event.Attribute{Key: "rpc.system", Value: "grpc"},
				event.Attribute{Key: "rpc.method", Value: method},
			),
		)
		defer span.End()

		h := http.Header{}
		trace.Inject(span.SpanContext(), h)
		for key, values := range h {
			for _, value := range values {
				ctx = metadata.AppendToOutgoingContext(ctx, key, value)
			}
		}

		err := invoker(ctx, method, req, reply, cc, callOpts...)
		if err != nil {
			span.SetAttribute("rpc.grpc.status_code", int(status.Code(err)))
			span.SetStatus(event.StatusError, err.Error())
		} else {
			span.SetAttribute("rpc.grpc.status_code", int(codes.OK))
			span.SetStatus(event.StatusOK, "")
		}
		return err
	}
}

// headerFromMD adapts incoming metadata to the header shape the
// propagation helpers read.
func headerFromMD(md metadata.MD) http.Header {
	h := http.Header{}
	for key, values := range md {
		for _, value := range values {
			h.Add(key, value)
		}
	}
	return h
}

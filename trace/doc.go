/*
Package trace implements distributed tracing: W3C trace context
propagation, sampling, and the span lifecycle.

# Overview

A Tracer hands out spans and decides which of them record. Sampled
spans collect attributes, events, and a status, and are converted to
wire records when they end; unsampled spans are no-ops that still carry
valid ids so downstream services can continue the trace.

# Propagation

Trace context crosses process boundaries through the W3C traceparent
header:

	00-{trace_id}-{span_id}-{flags}

with a 32-hex-char trace id, a 16-hex-char span id, and a flags byte
whose low bit marks the sampling decision. An accompanying tracestate
header passes through untouched.

# Usage

	tracer := trace.New(trace.Config{
		ServiceID:  "svc_checkout",
		SampleRate: 0.25,
		Transport:  tr,
	})

	span, ctx := tracer.StartSpan(ctx, "checkout",
		trace.WithKind(event.SpanKindServer),
		trace.WithOp("http.server"),
	)
	defer span.End()

	span.SetAttribute("cart.items", 3)

# Sampling

The decision follows a fixed precedence: a rate of 1.0 or higher always
samples, a rate of 0.0 or lower never samples even when the parent was
sampled, an explicitly sampled parent wins next, and only then is the
uniform draw against the rate consulted.
*/
package trace

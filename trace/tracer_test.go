package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntra-hq/syntra-go/event"
)

func TestStartSpanSampledRoot(t *testing.T) {
	tracer, capture := newTestTracer(1)
	ctx := context.Background()

	span, spanCtx := tracer.StartSpan(ctx, "GET /cart")
	require.True(t, span.IsRecording())
	assert.Equal(t, span, SpanFromContext(spanCtx), "the returned context carries the span")
	assert.Equal(t, 1, tracer.activeCount())

	span.End()
	assert.Equal(t, 0, tracer.activeCount(), "ending deregisters the span")
	assert.Len(t, capture.sent(), 1)
}

func TestStartSpanNeverSampled(t *testing.T) {
	tracer, capture := newTestTracer(0)
	ctx := context.Background()

	span, spanCtx := tracer.StartSpan(ctx, "op")
	assert.False(t, span.IsRecording())
	assert.Nil(t, SpanFromContext(spanCtx), "unsampled spans leave the context untouched")
	assert.Equal(t, 0, tracer.activeCount(), "no-op spans are never registered")

	span.End()
	assert.Empty(t, capture.sent())
}

func TestSamplingPrecedence(t *testing.T) {
	sampledParent := TraceContext{TraceID: sampleTraceID, SpanID: sampleSpanID, Sampled: true}

	t.Run("rate zero overrides a sampled parent", func(t *testing.T) {
		tracer, _ := newTestTracer(0)
		ctx := ContextWithRemote(context.Background(), sampledParent)

		span, _ := tracer.StartSpan(ctx, "op")
		assert.False(t, span.IsRecording())
	})

	t.Run("sampled parent overrides the coin flip", func(t *testing.T) {
		tracer, _ := newTestTracer(0.000001)
		ctx := ContextWithRemote(context.Background(), sampledParent)

		for i := 0; i < 20; i++ {
			span, _ := tracer.StartSpan(ctx, "op")
			require.True(t, span.IsRecording(), "iteration %d", i)
			span.End()
		}
	})

	t.Run("unsampled parent falls through to the coin flip", func(t *testing.T) {
		unsampled := TraceContext{TraceID: sampleTraceID, SpanID: sampleSpanID, Sampled: false}
		tracer, _ := newTestTracer(0.000001)
		ctx := ContextWithRemote(context.Background(), unsampled)

		recorded := 0
		for i := 0; i < 50; i++ {
			span, _ := tracer.StartSpan(ctx, "op")
			if span.IsRecording() {
				recorded++
				span.End()
			}
		}
		assert.Less(t, recorded, 5, "a near-zero rate keeps unsampled lineages mostly unsampled")
	})

	t.Run("fractional rate samples roughly that share of roots", func(t *testing.T) {
		tracer, _ := newTestTracer(0.5)

		recorded := 0
		const trials = 1000
		for i := 0; i < trials; i++ {
			span, _ := tracer.StartSpan(context.Background(), "op")
			if span.IsRecording() {
				recorded++
				span.End()
			}
		}
		assert.Greater(t, recorded, 350, "far fewer samples than a 0.5 rate should yield")
		assert.Less(t, recorded, 650, "far more samples than a 0.5 rate should yield")
	})
}

func TestStartSpanInheritsRemoteParent(t *testing.T) {
	tracer, capture := newTestTracer(1)
	remote := TraceContext{TraceID: sampleTraceID, SpanID: sampleSpanID, Sampled: true}
	ctx := ContextWithRemote(context.Background(), remote)

	span, _ := tracer.StartSpan(ctx, "op")
	require.True(t, span.IsRecording())
	assert.Equal(t, remote.TraceID, span.TraceID(), "the remote trace continues")
	assert.Equal(t, remote.SpanID, span.ParentSpanID())
	assert.NotEqual(t, remote.SpanID, span.SpanID())

	span.End()
	rec := capture.sent()[0]
	assert.Equal(t, remote.TraceID, rec.TraceID)
	assert.Equal(t, remote.SpanID, rec.ParentSpanID)
}

func TestStartSpanChildOfContextSpan(t *testing.T) {
	tracer, _ := newTestTracer(1)

	root, ctx := tracer.StartSpan(context.Background(), "root")
	child, _ := tracer.StartSpan(ctx, "child")

	assert.Equal(t, root.TraceID(), child.TraceID())
	assert.Equal(t, root.SpanID(), child.ParentSpanID())
	assert.Equal(t, 2, tracer.activeCount())

	child.End()
	root.End()
}

func TestStartSpanExplicitParentWins(t *testing.T) {
	tracer, _ := newTestTracer(1)

	inCtx, ctx := tracer.StartSpan(context.Background(), "from context")
	explicit, _ := tracer.StartSpan(context.Background(), "explicit")

	child, _ := tracer.StartSpan(ctx, "child", WithParent(explicit))
	assert.Equal(t, explicit.TraceID(), child.TraceID())
	assert.Equal(t, explicit.SpanID(), child.ParentSpanID())
	assert.NotEqual(t, inCtx.SpanID(), child.ParentSpanID())
}

func TestStartSpanOptions(t *testing.T) {
	tracer, capture := newTestTracer(1)

	span, _ := tracer.StartSpan(context.Background(), "checkout",
		WithKind(event.SpanKindClient),
		WithOp("db.query"),
		WithAttributes(event.Attribute{Key: "db.table", Value: "orders"}),
	)
	span.End()

	rec := capture.sent()[0]
	assert.Equal(t, event.SpanKindClient, rec.SpanKind)

	op, ok := rec.Attributes.Get("syntra.op")
	require.True(t, ok)
	assert.Equal(t, "db.query", op)

	table, ok := rec.Attributes.Get("db.table")
	require.True(t, ok)
	assert.Equal(t, "orders", table)
}

func TestActiveSpan(t *testing.T) {
	tracer, _ := newTestTracer(1)

	assert.Nil(t, tracer.ActiveSpan(context.Background()))

	root, rootCtx := tracer.StartSpan(context.Background(), "root")
	child, childCtx := tracer.StartSpan(rootCtx, "child")

	assert.Equal(t, child, tracer.ActiveSpan(childCtx))
	assert.Equal(t, root, tracer.ActiveSpan(rootCtx))

	child.End()
	assert.Equal(t, root, tracer.ActiveSpan(childCtx), "an ended span defers to its nearest recording ancestor")

	root.End()
	assert.Nil(t, tracer.ActiveSpan(childCtx))
}

func TestActiveSpanViaRemoteRegistry(t *testing.T) {
	tracer, _ := newTestTracer(1)

	span, _ := tracer.StartSpan(context.Background(), "job")
	handoff := ContextWithRemote(context.Background(), span.SpanContext())

	assert.Equal(t, span, tracer.ActiveSpan(handoff), "a context carrying only the span's ids resolves through the registry")

	span.End()
	assert.Nil(t, tracer.ActiveSpan(handoff), "ended spans drop out of the registry")
}

func TestTracerFlush(t *testing.T) {
	tracer, capture := newTestTracer(1)
	require.NoError(t, tracer.Flush(context.Background()))
	assert.Equal(t, 1, capture.flushes)

	bare := New(Config{ServiceID: "proj_test", SampleRate: 1})
	span, _ := bare.StartSpan(context.Background(), "op")
	span.End()
	assert.NoError(t, bare.Flush(context.Background()), "a nil transport flushes cleanly")
}

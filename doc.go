// Package syntra is the Syntra telemetry client: error tracking,
// distributed tracing, and structured context capture for Go services.
//
// # Overview
//
// The client captures three kinds of telemetry and ships them in
// batches over HTTP: errors (with stack traces, breadcrumbs, and
// scope context), spans (W3C trace-context compatible), and logs.
// Delivery is asynchronous; capture calls never block on the network.
//
// # Usage
//
// Initialize once at startup, then capture from anywhere:
//
//	err := syntra.Init(syntra.Options{
//		DSN:         "syn://pk_live_abc@ingest.syntra.io/proj_checkout",
//		Environment: "production",
//		Release:     "1.4.2",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer syntra.Close()
//
//	if err := chargeCard(ctx, order); err != nil {
//		syntra.CaptureException(ctx, err)
//	}
//
// Spans follow the context:
//
//	span, ctx := syntra.StartSpan(ctx, "POST /checkout",
//		trace.WithKind(event.SpanKindServer))
//	defer span.End()
//
// # Scopes
//
// Tags, user identity, extra data, and breadcrumbs live on scopes.
// The global scope backs everything; Isolate derives a per-request
// scope so concurrent requests never see each other's context:
//
//	ctx, _ = syntra.Isolate(ctx)
//	syntra.SetTag(ctx, "plan", "enterprise")
//	syntra.AddBreadcrumb(ctx, scope.HTTPBreadcrumb("GET", url, 200, elapsed))
//
// # Configuration
//
// Options can be populated from the environment (SYNTRA_DSN,
// SYNTRA_ENVIRONMENT, SYNTRA_TRACES_SAMPLE_RATE, ...) via LoadOptions,
// or constructed directly. See Options for the full list.
package syntra

/*
Package transport queues wire records and delivers them to the ingest
endpoint in batches.

# Overview

A transport keeps one FIFO queue per record kind: errors, spans, logs.
Enqueueing is cheap and never touches the network; when a queue reaches
the batch threshold, a batch of the oldest records is taken atomically
and sent in the background. Explicit Flush drains every queue in order
errors, spans, logs and waits for the sends in flight.

# Delivery

Each batch is posted with capped exponential backoff: up to MaxRetries
attempts, sleeping min(BackoffBase * 2^n, BackoffCap) between them. Any
transport error, timeout, or HTTP status >= 400 counts as a failed
attempt. A batch that exhausts its retries is dropped; delivery is
at-most-once and failures surface only through the debug log and the
SDK metrics, never to the caller.

# Protocols

Two encodings share the batching core. NewHTTP speaks the native ingest
API:

	POST {scheme}://{host}/api/v1/telemetry/{kind}
	{"batch_id": "...", "timestamp": "...", "{kind}": [...]}

with the scheme downgraded to http for localhost hosts. NewOTLP speaks
OTLP/JSON, mapping spans to /v1/traces and both logs and errors to
/v1/logs.
*/
package transport

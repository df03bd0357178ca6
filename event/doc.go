/*
Package event defines the wire records exchanged with the Syntra ingest API.

# Overview

Every payload the SDK emits is built from the types in this package:
errors with stack traces and breadcrumb trails, finished spans, and log
records. The JSON field names are part of the ingest contract and must
not change.

# Conventions

- Timestamps serialize as ISO-8601 UTC with millisecond precision and a
  trailing "Z" (see Timestamp).
- Span and log attributes preserve insertion order (see Attributes).
- Empty collections serialize as empty, never null.
*/
package event

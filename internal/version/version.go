// Package version pins the SDK version reported to the ingest API.
package version

// Version is the SDK release version.
const Version = "0.1.0"

// UserAgent identifies the SDK on outgoing requests.
const UserAgent = "syntra-go/" + Version

// ScopeName is the OTLP instrumentation scope name.
const ScopeName = "syntra-go"

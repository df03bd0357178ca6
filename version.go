package syntra

import "github.com/syntra-hq/syntra-go/internal/version"

// Version is the SDK version reported in the User-Agent header and
// OTLP instrumentation scope.
const Version = version.Version

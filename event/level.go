package event

// BreadcrumbType categorizes a breadcrumb.
type BreadcrumbType string

const (
	BreadcrumbHTTP       BreadcrumbType = "http"
	BreadcrumbNavigation BreadcrumbType = "navigation"
	BreadcrumbUI         BreadcrumbType = "ui"
	BreadcrumbConsole    BreadcrumbType = "console"
	BreadcrumbError      BreadcrumbType = "error"
	BreadcrumbQuery      BreadcrumbType = "query"
	BreadcrumbDefault    BreadcrumbType = "default"
)

// BreadcrumbLevel is the severity of a breadcrumb.
type BreadcrumbLevel string

const (
	BreadcrumbLevelDebug   BreadcrumbLevel = "debug"
	BreadcrumbLevelInfo    BreadcrumbLevel = "info"
	BreadcrumbLevelWarning BreadcrumbLevel = "warning"
	BreadcrumbLevelError   BreadcrumbLevel = "error"
	BreadcrumbLevelFatal   BreadcrumbLevel = "fatal"
)

// LogLevel is the severity of a log record.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// SpanKind describes the role a span plays in a trace.
type SpanKind string

const (
	SpanKindInternal SpanKind = "internal"
	SpanKindServer   SpanKind = "server"
	SpanKindClient   SpanKind = "client"
	SpanKindProducer SpanKind = "producer"
	SpanKindConsumer SpanKind = "consumer"
)

// StatusCode is the outcome recorded on a finished span.
type StatusCode string

const (
	StatusUnset StatusCode = "unset"
	StatusOK    StatusCode = "ok"
	StatusError StatusCode = "error"
)

// SpanStatus pairs a status code with an optional message.
type SpanStatus struct {
	Code    StatusCode `json:"code"`
	Message string     `json:"message,omitempty"`
}

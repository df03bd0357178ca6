package event

// User identifies the user active when an error was captured.
type User struct {
	ID       string `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// Breadcrumb records one step on the trail leading up to an error.
type Breadcrumb struct {
	Type      BreadcrumbType  `json:"type"`
	Category  string          `json:"category"`
	Timestamp Timestamp       `json:"timestamp"`
	Level     BreadcrumbLevel `json:"level"`
	Message   string          `json:"message,omitempty"`
	Data      map[string]any  `json:"data,omitempty"`
}

// StackFrame is a single frame of a captured stack trace, innermost first.
type StackFrame struct {
	Filename    string   `json:"filename"`
	Function    string   `json:"function"`
	Lineno      int      `json:"lineno"`
	InApp       bool     `json:"in_app"`
	Colno       int      `json:"colno,omitempty"`
	ContextLine string   `json:"context_line,omitempty"`
	PreContext  []string `json:"pre_context,omitempty"`
	PostContext []string `json:"post_context,omitempty"`
	Module      string   `json:"module,omitempty"`
}

// SpanEvent is a point-in-time annotation within a span.
type SpanEvent struct {
	Name        string     `json:"name"`
	TimestampNS int64      `json:"timestamp_ns"`
	Attributes  Attributes `json:"attributes"`
}

// ErrorContext carries the environment an error occurred in.
type ErrorContext struct {
	Environment string            `json:"environment"`
	Release     string            `json:"release"`
	Tags        map[string]string `json:"tags"`
	Extra       map[string]any    `json:"extra"`
	User        *User             `json:"user,omitempty"`
	Request     map[string]any    `json:"request,omitempty"`
	OS          map[string]string `json:"os,omitempty"`
	Runtime     map[string]string `json:"runtime,omitempty"`
}

// Error is a captured error event.
type Error struct {
	ID           string       `json:"id"`
	ServiceID    string       `json:"service_id"`
	DeploymentID string       `json:"deployment_id"`
	Timestamp    Timestamp    `json:"timestamp"`
	Type         string       `json:"type"`
	Message      string       `json:"message"`
	StackTrace   []StackFrame `json:"stack_trace"`
	Breadcrumbs  []Breadcrumb `json:"breadcrumbs"`
	Context      ErrorContext `json:"context"`
	Fingerprint  []string     `json:"fingerprint"`
}

// Span is a finished span in wire form.
type Span struct {
	TraceID       string      `json:"trace_id"`
	SpanID        string      `json:"span_id"`
	ParentSpanID  string      `json:"parent_span_id,omitempty"`
	ServiceID     string      `json:"service_id"`
	DeploymentID  string      `json:"deployment_id"`
	OperationName string      `json:"operation_name"`
	SpanKind      SpanKind    `json:"span_kind"`
	StartTimeNS   int64       `json:"start_time_ns"`
	DurationNS    int64       `json:"duration_ns"`
	Status        SpanStatus  `json:"status"`
	Attributes    Attributes  `json:"attributes"`
	Events        []SpanEvent `json:"events"`
}

// Log is a structured log record.
type Log struct {
	Timestamp  Timestamp  `json:"timestamp"`
	Level      LogLevel   `json:"level"`
	Message    string     `json:"message"`
	Attributes Attributes `json:"attributes"`
	TraceID    string     `json:"trace_id,omitempty"`
	SpanID     string     `json:"span_id,omitempty"`
}

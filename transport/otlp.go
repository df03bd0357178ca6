package transport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/internal/version"
)

// OTLP/JSON wire structures. Field names follow the snake_case JSON
// mapping the ingest agent expects; nano timestamps are decimal strings.

type otlpKeyValue struct {
	Key   string       `json:"key"`
	Value otlpAnyValue `json:"value"`
}

type otlpAnyValue struct {
	StringValue *string  `json:"string_value,omitempty"`
	IntValue    *int64   `json:"int_value,omitempty"`
	DoubleValue *float64 `json:"double_value,omitempty"`
	BoolValue   *bool    `json:"bool_value,omitempty"`
}

type otlpStatus struct {
	Code    int     `json:"code"`
	Message *string `json:"message"`
}

type otlpEvent struct {
	Name         string         `json:"name"`
	TimeUnixNano string         `json:"time_unix_nano"`
	Attributes   []otlpKeyValue `json:"attributes"`
}

type otlpSpan struct {
	TraceID           string         `json:"trace_id"`
	SpanID            string         `json:"span_id"`
	Name              string         `json:"name"`
	Kind              int            `json:"kind"`
	StartTimeUnixNano string         `json:"start_time_unix_nano"`
	EndTimeUnixNano   string         `json:"end_time_unix_nano"`
	Attributes        []otlpKeyValue `json:"attributes"`
	Status            otlpStatus     `json:"status"`
	Events            []otlpEvent    `json:"events"`
	ParentSpanID      string         `json:"parent_span_id,omitempty"`
}

type otlpScope struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type otlpResource struct {
	Attributes []otlpKeyValue `json:"attributes"`
}

type otlpScopeSpans struct {
	Scope otlpScope  `json:"scope"`
	Spans []otlpSpan `json:"spans"`
}

type otlpResourceSpans struct {
	Resource   otlpResource     `json:"resource"`
	ScopeSpans []otlpScopeSpans `json:"scope_spans"`
}

type otlpLogRecord struct {
	TimeUnixNano   string         `json:"time_unix_nano"`
	SeverityNumber int            `json:"severity_number"`
	SeverityText   string         `json:"severity_text"`
	Body           otlpAnyValue   `json:"body"`
	Attributes     []otlpKeyValue `json:"attributes"`
	TraceID        string         `json:"trace_id,omitempty"`
	SpanID         string         `json:"span_id,omitempty"`
}

type otlpScopeLogs struct {
	Scope      otlpScope       `json:"scope"`
	LogRecords []otlpLogRecord `json:"log_records"`
}

type otlpResourceLogs struct {
	Resource  otlpResource    `json:"resource"`
	ScopeLogs []otlpScopeLogs `json:"scope_logs"`
}

var otlpSpanKinds = map[event.SpanKind]int{
	event.SpanKindInternal: 1,
	event.SpanKindServer:   2,
	event.SpanKindClient:   3,
	event.SpanKindProducer: 4,
	event.SpanKindConsumer: 5,
}

var otlpStatusCodes = map[event.StatusCode]int{
	event.StatusUnset: 0,
	event.StatusOK:    1,
	event.StatusError: 2,
}

var otlpSeverities = map[event.LogLevel]int{
	event.LogLevelTrace: 1,
	event.LogLevelDebug: 5,
	event.LogLevelInfo:  9,
	event.LogLevelWarn:  13,
	event.LogLevelError: 17,
	event.LogLevelFatal: 21,
}

const otlpErrorSeverity = 17

// otlpEncoder maps native records onto OTLP/JSON. Spans go to
// /v1/traces; logs and errors both become log records on /v1/logs.
type otlpEncoder struct {
	endpoint       string
	projectID      string
	serviceName    string
	serviceVersion string
}

func (e *otlpEncoder) encode(b *batch) ([]*request, error) {
	var (
		path string
		body any
	)
	switch b.kind {
	case KindSpans:
		path = "/v1/traces"
		body = map[string]any{"resource_spans": []otlpResourceSpans{e.resourceSpans(b.spans)}}
	case KindLogs:
		path = "/v1/logs"
		body = map[string]any{"resource_logs": []otlpResourceLogs{e.resourceLogs(b.logs)}}
	case KindErrors:
		path = "/v1/logs"
		body = map[string]any{"resource_logs": []otlpResourceLogs{e.errorResourceLogs(b.errors)}}
	default:
		return nil, fmt.Errorf("transport: unknown batch kind %q", b.kind)
	}

	encoded, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("transport: encode otlp %s batch: %w", b.kind, err)
	}

	return []*request{{
		url:     e.endpoint + path,
		body:    encoded,
		headers: map[string]string{"Content-Type": "application/json"},
	}}, nil
}

func (e *otlpEncoder) resource() otlpResource {
	return otlpResource{Attributes: []otlpKeyValue{
		stringAttr("service.name", e.serviceName),
		stringAttr("service.version", e.serviceVersion),
		stringAttr("syntra.project_id", e.projectID),
	}}
}

func (e *otlpEncoder) scope() otlpScope {
	return otlpScope{Name: version.ScopeName, Version: version.Version}
}

func (e *otlpEncoder) resourceSpans(spans []*event.Span) otlpResourceSpans {
	out := make([]otlpSpan, 0, len(spans))
	for _, s := range spans {
		span := otlpSpan{
			TraceID:           s.TraceID,
			SpanID:            s.SpanID,
			Name:              s.OperationName,
			Kind:              otlpSpanKinds[s.SpanKind],
			StartTimeUnixNano: strconv.FormatInt(s.StartTimeNS, 10),
			EndTimeUnixNano:   strconv.FormatInt(s.StartTimeNS+s.DurationNS, 10),
			Attributes:        otlpAttributes(s.Attributes),
			Status: otlpStatus{
				Code:    otlpStatusCodes[s.Status.Code],
				Message: optionalString(s.Status.Message),
			},
			Events:       make([]otlpEvent, 0, len(s.Events)),
			ParentSpanID: s.ParentSpanID,
		}
		for _, ev := range s.Events {
			span.Events = append(span.Events, otlpEvent{
				Name:         ev.Name,
				TimeUnixNano: strconv.FormatInt(ev.TimestampNS, 10),
				Attributes:   otlpAttributes(ev.Attributes),
			})
		}
		out = append(out, span)
	}

	return otlpResourceSpans{
		Resource:   e.resource(),
		ScopeSpans: []otlpScopeSpans{{Scope: e.scope(), Spans: out}},
	}
}

func (e *otlpEncoder) resourceLogs(logs []*event.Log) otlpResourceLogs {
	out := make([]otlpLogRecord, 0, len(logs))
	for _, l := range logs {
		severity, ok := otlpSeverities[event.LogLevel(strings.ToLower(string(l.Level)))]
		if !ok {
			severity = otlpSeverities[event.LogLevelInfo]
		}
		out = append(out, otlpLogRecord{
			TimeUnixNano:   strconv.FormatInt(l.Timestamp.UnixNano(), 10),
			SeverityNumber: severity,
			SeverityText:   strings.ToUpper(string(l.Level)),
			Body:           otlpAnyValue{StringValue: ptr(l.Message)},
			Attributes:     otlpAttributes(l.Attributes),
			TraceID:        l.TraceID,
			SpanID:         l.SpanID,
		})
	}

	return otlpResourceLogs{
		Resource:  e.resource(),
		ScopeLogs: []otlpScopeLogs{{Scope: e.scope(), LogRecords: out}},
	}
}

// errorResourceLogs maps captured errors to high-severity log records
// with the exception carried in attributes.
func (e *otlpEncoder) errorResourceLogs(errors []*event.Error) otlpResourceLogs {
	out := make([]otlpLogRecord, 0, len(errors))
	for _, rec := range errors {
		stack, err := sonic.Marshal(rec.StackTrace)
		if err != nil {
			stack = []byte("[]")
		}
		out = append(out, otlpLogRecord{
			TimeUnixNano:   strconv.FormatInt(rec.Timestamp.UnixNano(), 10),
			SeverityNumber: otlpErrorSeverity,
			SeverityText:   "ERROR",
			Body:           otlpAnyValue{StringValue: ptr(rec.Message)},
			Attributes: []otlpKeyValue{
				stringAttr("exception.type", rec.Type),
				stringAttr("exception.message", rec.Message),
				stringAttr("exception.stacktrace", string(stack)),
			},
		})
	}

	return otlpResourceLogs{
		Resource:  e.resource(),
		ScopeLogs: []otlpScopeLogs{{Scope: e.scope(), LogRecords: out}},
	}
}

// otlpAttributes converts scalar attributes to OTLP key/value pairs.
// Unsupported value types stringify.
func otlpAttributes(attrs event.Attributes) []otlpKeyValue {
	out := make([]otlpKeyValue, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, otlpKeyValue{Key: a.Key, Value: otlpValue(a.Value)})
	}
	return out
}

func otlpValue(v any) otlpAnyValue {
	switch val := v.(type) {
	case string:
		return otlpAnyValue{StringValue: ptr(val)}
	case bool:
		return otlpAnyValue{BoolValue: ptr(val)}
	case int:
		return otlpAnyValue{IntValue: ptr(int64(val))}
	case int8:
		return otlpAnyValue{IntValue: ptr(int64(val))}
	case int16:
		return otlpAnyValue{IntValue: ptr(int64(val))}
	case int32:
		return otlpAnyValue{IntValue: ptr(int64(val))}
	case int64:
		return otlpAnyValue{IntValue: ptr(val)}
	case uint:
		return otlpAnyValue{IntValue: ptr(int64(val))}
	case uint8:
		return otlpAnyValue{IntValue: ptr(int64(val))}
	case uint16:
		return otlpAnyValue{IntValue: ptr(int64(val))}
	case uint32:
		return otlpAnyValue{IntValue: ptr(int64(val))}
	case uint64:
		return otlpAnyValue{IntValue: ptr(int64(val))}
	case float32:
		return otlpAnyValue{DoubleValue: ptr(float64(val))}
	case float64:
		return otlpAnyValue{DoubleValue: ptr(val)}
	default:
		return otlpAnyValue{StringValue: ptr(fmt.Sprint(val))}
	}
}

func stringAttr(key, value string) otlpKeyValue {
	return otlpKeyValue{Key: key, Value: otlpAnyValue{StringValue: ptr(value)}}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptr[T any](v T) *T {
	return &v
}

// NewOTLP creates a transport speaking OTLP/JSON, typically to a local
// collector agent.
func NewOTLP(cfg Config) (Transport, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("transport: otlp endpoint is required")
	}
	cfg = cfg.withDefaults()
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "unknown-service"
	}
	enc := &otlpEncoder{
		endpoint:       strings.TrimRight(cfg.Endpoint, "/"),
		projectID:      cfg.ProjectID,
		serviceName:    serviceName,
		serviceVersion: cfg.Release,
	}
	return newHTTPTransport(cfg, enc), nil
}

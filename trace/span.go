package trace

import (
	"sync"
	"time"

	"github.com/syntra-hq/syntra-go/event"
)

// Span is a single operation in a trace. Spans come in two flavors: a
// recording span that collects attributes and reaches the wire, and a
// no-op span handed out when the sampling decision was negative. The
// no-op still carries valid ids so propagation keeps working.
type Span interface {
	TraceID() string
	SpanID() string
	ParentSpanID() string
	Name() string
	Kind() event.SpanKind

	// SpanContext returns the propagation context for this span.
	SpanContext() TraceContext

	SetName(name string)
	SetAttribute(key string, value any)
	SetAttributes(attrs ...event.Attribute)
	AddEvent(name string, attrs ...event.Attribute)
	SetStatus(code event.StatusCode, message string)

	// End finishes the span. The first call records the end time and
	// hands the span off for export; later calls are no-ops, as are
	// all mutations after the first End.
	End()

	// IsRecording reports whether the span is sampled and not yet ended.
	IsRecording() bool

	StartTime() time.Time

	// Duration returns the elapsed time between start and end, and 0
	// while the span is still recording.
	Duration() time.Duration

	parent() Span
}

type recordingSpan struct {
	tracer *Tracer

	mu           sync.Mutex
	traceID      string
	spanID       string
	parentSpanID string
	parentSpan   Span
	name         string
	kind         event.SpanKind
	startTime    time.Time
	endTime      time.Time
	status       event.SpanStatus
	attributes   event.Attributes
	events       []event.SpanEvent
	recording    bool
}

func (s *recordingSpan) TraceID() string      { return s.traceID }
func (s *recordingSpan) SpanID() string       { return s.spanID }
func (s *recordingSpan) ParentSpanID() string { return s.parentSpanID }
func (s *recordingSpan) Kind() event.SpanKind { return s.kind }
func (s *recordingSpan) parent() Span         { return s.parentSpan }

func (s *recordingSpan) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *recordingSpan) SpanContext() TraceContext {
	return TraceContext{TraceID: s.traceID, SpanID: s.spanID, Sampled: true}
}

func (s *recordingSpan) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return
	}
	s.name = name
}

func (s *recordingSpan) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return
	}
	s.attributes.Set(key, value)
}

func (s *recordingSpan) SetAttributes(attrs ...event.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return
	}
	for _, a := range attrs {
		s.attributes.Set(a.Key, a.Value)
	}
}

func (s *recordingSpan) AddEvent(name string, attrs ...event.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return
	}
	s.events = append(s.events, event.SpanEvent{
		Name:        name,
		TimestampNS: time.Now().UnixNano(),
		Attributes:  event.Attributes(attrs),
	})
}

func (s *recordingSpan) SetStatus(code event.StatusCode, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return
	}
	s.status = event.SpanStatus{Code: code, Message: message}
}

func (s *recordingSpan) End() {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return
	}
	s.recording = false
	s.endTime = time.Now()
	s.mu.Unlock()

	if s.tracer != nil {
		s.tracer.onSpanEnd(s)
	}
}

func (s *recordingSpan) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

func (s *recordingSpan) StartTime() time.Time { return s.startTime }

func (s *recordingSpan) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording {
		return 0
	}
	return s.endTime.Sub(s.startTime)
}

// wire converts the finished span to its wire record.
func (s *recordingSpan) wire(serviceID, deploymentID string) *event.Span {
	s.mu.Lock()
	defer s.mu.Unlock()

	attrs := s.attributes.Clone()
	if attrs == nil {
		attrs = event.Attributes{}
	}
	events := make([]event.SpanEvent, len(s.events))
	copy(events, s.events)

	return &event.Span{
		TraceID:       s.traceID,
		SpanID:        s.spanID,
		ParentSpanID:  s.parentSpanID,
		ServiceID:     serviceID,
		DeploymentID:  deploymentID,
		OperationName: s.name,
		SpanKind:      s.kind,
		StartTimeNS:   s.startTime.UnixNano(),
		DurationNS:    s.endTime.Sub(s.startTime).Nanoseconds(),
		Status:        s.status,
		Attributes:    attrs,
		Events:        events,
	}
}

// Noop returns a span that records nothing. StartSpan hands these out
// when sampling declines a span; callers that need a placeholder span
// can create one directly.
func Noop() Span {
	return newNoopSpan()
}

// noopSpan is handed out when sampling declined the span. It carries
// fresh valid ids so callers can keep propagating, but records nothing
// and never reaches the transport.
type noopSpan struct {
	tc TraceContext
}

func newNoopSpan() *noopSpan {
	return &noopSpan{tc: TraceContext{
		TraceID: NewTraceID(),
		SpanID:  NewSpanID(),
	}}
}

func (s *noopSpan) TraceID() string                     { return s.tc.TraceID }
func (s *noopSpan) SpanID() string                      { return s.tc.SpanID }
func (s *noopSpan) ParentSpanID() string                { return "" }
func (s *noopSpan) Name() string                        { return "" }
func (s *noopSpan) Kind() event.SpanKind                { return event.SpanKindInternal }
func (s *noopSpan) SpanContext() TraceContext           { return s.tc }
func (s *noopSpan) SetName(string)                      {}
func (s *noopSpan) SetAttribute(string, any)            {}
func (s *noopSpan) SetAttributes(...event.Attribute)    {}
func (s *noopSpan) AddEvent(string, ...event.Attribute) {}
func (s *noopSpan) SetStatus(event.StatusCode, string)  {}
func (s *noopSpan) End()                                {}
func (s *noopSpan) IsRecording() bool                   { return false }
func (s *noopSpan) StartTime() time.Time                { return time.Time{} }
func (s *noopSpan) Duration() time.Duration             { return 0 }
func (s *noopSpan) parent() Span                        { return nil }

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntra-hq/syntra-go/event"
)

type recordedRequest struct {
	Path   string
	Header http.Header
	Body   []byte
}

// ingestServer records every request and answers with the configured
// status codes, repeating the last one once exhausted.
type ingestServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	statuses []int
}

func newIngestServer(t *testing.T, statuses ...int) *ingestServer {
	t.Helper()
	if len(statuses) == 0 {
		statuses = []int{http.StatusOK}
	}
	s := &ingestServer{statuses: statuses}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		status := s.statuses[0]
		if len(s.statuses) > 1 {
			s.statuses = s.statuses[1:]
		}
		s.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *ingestServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *ingestServer) request(i int) recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[i]
}

func (s *ingestServer) host(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	return u.Host
}

func newTestTransport(t *testing.T, s *ingestServer, mutate func(*Config)) Transport {
	t.Helper()
	cfg := Config{
		Host:        s.host(t),
		PublicKey:   "pk_test",
		ProjectID:   "proj_test",
		MaxRetries:  1,
		BackoffBase: time.Millisecond,
		BackoffCap:  4 * time.Millisecond,
		Timeout:     5 * time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	tr, err := NewHTTP(cfg)
	require.NoError(t, err)
	return tr
}

func testError(msg string) *event.Error {
	return &event.Error{
		ID:          uuid.New().String(),
		ServiceID:   "proj_test",
		Timestamp:   event.Now(),
		Type:        "RuntimeError",
		Message:     msg,
		StackTrace:  []event.StackFrame{},
		Breadcrumbs: []event.Breadcrumb{},
		Context:     event.ErrorContext{Environment: "test", Tags: map[string]string{}, Extra: map[string]any{}},
		Fingerprint: []string{"RuntimeError", msg},
	}
}

func testSpan(op string) *event.Span {
	return &event.Span{
		TraceID:       "4bf92f3577b34da6a3ce929d0e0e4736",
		SpanID:        "00f067aa0ba902b7",
		ServiceID:     "proj_test",
		OperationName: op,
		SpanKind:      event.SpanKindServer,
		StartTimeNS:   1_000_000,
		DurationNS:    5_000,
		Status:        event.SpanStatus{Code: event.StatusOK},
		Attributes:    event.Attributes{},
		Events:        []event.SpanEvent{},
	}
}

func TestIngestBaseURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"syntra.io", "https://syntra.io/api/v1/telemetry"},
		{"ingest.syntra.io:443", "https://ingest.syntra.io:443/api/v1/telemetry"},
		{"localhost:8123", "http://localhost:8123/api/v1/telemetry"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000/api/v1/telemetry"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, ingestBaseURL(tt.host))
		})
	}
}

func TestAutoFlushAtThreshold(t *testing.T) {
	server := newIngestServer(t)
	tr := newTestTransport(t, server, func(c *Config) { c.MaxBatchSize = 3 })

	tr.SendError(testError("one"))
	tr.SendError(testError("two"))
	require.Equal(t, 0, server.count(), "no send below the threshold")

	tr.SendError(testError("three"))
	require.NoError(t, tr.Flush(context.Background()))

	require.Equal(t, 1, server.count(), "threshold crossing sends exactly one batch")

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(server.request(0).Body, &envelope))
	assert.Len(t, envelope["errors"], 3)

	// The queue was drained by the auto-flush; flushing again is a no-op.
	require.NoError(t, tr.Flush(context.Background()))
	assert.Equal(t, 1, server.count())
}

func TestFlushEmptyQueuesSendsNothing(t *testing.T) {
	server := newIngestServer(t)
	tr := newTestTransport(t, server, nil)

	require.NoError(t, tr.Flush(context.Background()))
	assert.Equal(t, 0, server.count())
}

func TestFlushDrainsKindsInOrder(t *testing.T) {
	server := newIngestServer(t)
	tr := newTestTransport(t, server, nil)

	tr.SendLogs([]*event.Log{{Timestamp: event.Now(), Level: event.LogLevelInfo, Message: "log line", Attributes: event.Attributes{}}})
	tr.SendSpans([]*event.Span{testSpan("GET /cart")})
	tr.SendError(testError("boom"))

	require.NoError(t, tr.Flush(context.Background()))
	require.Equal(t, 3, server.count())

	assert.Equal(t, "/api/v1/telemetry/errors", server.request(0).Path)
	assert.Equal(t, "/api/v1/telemetry/spans", server.request(1).Path)
	assert.Equal(t, "/api/v1/telemetry/logs", server.request(2).Path)
}

func TestEnvelopeFormat(t *testing.T) {
	server := newIngestServer(t)
	tr := newTestTransport(t, server, nil)

	tr.SendError(testError("boom"))
	require.NoError(t, tr.Flush(context.Background()))
	require.Equal(t, 1, server.count())

	req := server.request(0)

	t.Run("headers", func(t *testing.T) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "pk_test", req.Header.Get("X-Syntra-Key"))
		assert.Equal(t, "proj_test", req.Header.Get("X-Syntra-Project"))
		assert.Contains(t, req.Header.Get("User-Agent"), "syntra-go/")
	})

	t.Run("envelope", func(t *testing.T) {
		var envelope map[string]any
		require.NoError(t, json.Unmarshal(req.Body, &envelope))

		batchID, ok := envelope["batch_id"].(string)
		require.True(t, ok)
		_, err := uuid.Parse(batchID)
		assert.NoError(t, err)

		ts, ok := envelope["timestamp"].(string)
		require.True(t, ok)
		assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`), ts)

		records, ok := envelope["errors"].([]any)
		require.True(t, ok)
		require.Len(t, records, 1)
		rec := records[0].(map[string]any)
		assert.Equal(t, "RuntimeError", rec["type"])
		assert.Equal(t, "boom", rec["message"])
	})
}

func TestRetryExhaustionDropsBatch(t *testing.T) {
	server := newIngestServer(t, http.StatusInternalServerError)
	tr := newTestTransport(t, server, func(c *Config) { c.MaxRetries = 3 })

	tr.SendError(testError("boom"))
	require.NoError(t, tr.Flush(context.Background()), "delivery failure never surfaces as an error")

	assert.Equal(t, 3, server.count(), "one attempt plus two retries")

	// At-most-once: the batch is gone even though the server recovered.
	server.mu.Lock()
	server.statuses = []int{http.StatusOK}
	server.mu.Unlock()
	require.NoError(t, tr.Flush(context.Background()))
	assert.Equal(t, 3, server.count())
}

func TestRetryRecovers(t *testing.T) {
	server := newIngestServer(t, http.StatusInternalServerError, http.StatusOK)
	tr := newTestTransport(t, server, func(c *Config) { c.MaxRetries = 3 })

	tr.SendError(testError("boom"))
	require.NoError(t, tr.Flush(context.Background()))

	assert.Equal(t, 2, server.count(), "second attempt succeeded, no third attempt")
}

func TestBackoffDelay(t *testing.T) {
	base := time.Second
	ceiling := 10 * time.Second

	t.Run("doubles then caps", func(t *testing.T) {
		want := []time.Duration{
			time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
			10 * time.Second, 10 * time.Second,
		}
		var prev time.Duration
		for attempt, expected := range want {
			got := backoffDelay(base, ceiling, attempt)
			assert.Equal(t, expected, got, "attempt %d", attempt)
			assert.GreaterOrEqual(t, got, prev, "delays never decrease")
			prev = got
		}
	})

	t.Run("matches the retry client's schedule", func(t *testing.T) {
		for attempt := 0; attempt < 6; attempt++ {
			assert.Equal(t,
				backoffDelay(base, ceiling, attempt),
				retryablehttp.DefaultBackoff(base, ceiling, attempt, nil),
				"attempt %d", attempt,
			)
		}
	})
}

func TestCloseRejectsNewRecords(t *testing.T) {
	server := newIngestServer(t)
	tr := newTestTransport(t, server, nil)

	require.NoError(t, tr.Close())
	tr.SendError(testError("after close"))
	require.NoError(t, tr.Flush(context.Background()))

	assert.Equal(t, 0, server.count())
}

func TestCloseFlushesAndIsIdempotent(t *testing.T) {
	server := newIngestServer(t)
	tr := newTestTransport(t, server, nil)

	tr.SendError(testError("pending"))
	require.NoError(t, tr.Close())
	assert.Equal(t, 1, server.count(), "close drains the queues")

	require.NoError(t, tr.Close())
	assert.Equal(t, 1, server.count())
}

func TestGzipCompression(t *testing.T) {
	server := newIngestServer(t)
	tr := newTestTransport(t, server, func(c *Config) { c.Compress = true })

	tr.SendError(testError("boom"))
	require.NoError(t, tr.Flush(context.Background()))
	require.Equal(t, 1, server.count())

	req := server.request(0)
	require.Equal(t, "gzip", req.Header.Get("Content-Encoding"))

	zr, err := gzip.NewReader(bytes.NewReader(req.Body))
	require.NoError(t, err)
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Contains(t, envelope, "errors")
}

func TestConcurrentEnqueueLosesNothing(t *testing.T) {
	var received atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var envelope map[string]any
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &envelope); err == nil {
			if records, ok := envelope["errors"].([]any); ok {
				received.Add(int64(len(records)))
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	tr, err := NewHTTP(Config{
		Host:         u.Host,
		PublicKey:    "pk_test",
		ProjectID:    "proj_test",
		MaxBatchSize: 5,
		MaxRetries:   1,
		BackoffBase:  time.Millisecond,
	})
	require.NoError(t, err)

	const goroutines = 8
	const perGoroutine = 25

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				tr.SendError(testError("concurrent"))
			}
		}()
	}
	wg.Wait()

	require.NoError(t, tr.Flush(context.Background()))
	assert.Equal(t, int64(goroutines*perGoroutine), received.Load())
}

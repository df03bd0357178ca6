package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/internal/debuglog"
	"github.com/syntra-hq/syntra-go/internal/metrics"
	"github.com/syntra-hq/syntra-go/internal/version"
)

// Kind names a record queue.
type Kind string

const (
	KindErrors Kind = "errors"
	KindSpans  Kind = "spans"
	KindLogs   Kind = "logs"
)

// flushOrder is the queue drain order for Flush and Close.
var flushOrder = []Kind{KindErrors, KindSpans, KindLogs}

// Transport accepts wire records and delivers them in batches.
// Send methods enqueue without blocking on the network.
type Transport interface {
	SendError(rec *event.Error)
	SendSpans(recs []*event.Span)
	SendLogs(recs []*event.Log)

	// Flush drains all queues and waits for in-flight sends, bounded
	// by ctx.
	Flush(ctx context.Context) error

	// Close flushes within the configured send budget and rejects
	// records from then on. Closing twice is a no-op.
	Close() error
}

// Config configures a transport.
type Config struct {
	// Native protocol settings.
	Host      string
	PublicKey string
	ProjectID string

	// OTLP protocol settings.
	Endpoint    string
	ServiceName string
	Release     string

	MaxBatchSize int           // records per batch, default 100
	MaxRetries   int           // attempts per batch, default 3
	Timeout      time.Duration // per-attempt timeout, default 30s
	BackoffBase  time.Duration // first retry delay, default 1s
	BackoffCap   time.Duration // retry delay ceiling, default 10s

	// Compress gzips request bodies.
	Compress bool

	// MaxSendsPerSecond throttles outgoing batch requests.
	// Zero means unlimited.
	MaxSendsPerSecond float64

	// HTTPTransport overrides the underlying round tripper.
	HTTPTransport http.RoundTripper

	Logger *debuglog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = 100
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = debuglog.Nop()
	}
	return c
}

// request is an encoded batch ready to post.
type request struct {
	url     string
	body    []byte
	headers map[string]string
}

// encoder turns a batch into protocol-specific requests. A batch may
// map to more than one request depending on the protocol.
type encoder interface {
	encode(b *batch) ([]*request, error)
}

// batch is a homogeneous slice of records taken from one queue.
type batch struct {
	kind   Kind
	errors []*event.Error
	spans  []*event.Span
	logs   []*event.Log
}

func (b *batch) size() int {
	switch b.kind {
	case KindErrors:
		return len(b.errors)
	case KindSpans:
		return len(b.spans)
	default:
		return len(b.logs)
	}
}

// records returns the payload slice for JSON encoding.
func (b *batch) records() any {
	switch b.kind {
	case KindErrors:
		return b.errors
	case KindSpans:
		return b.spans
	default:
		return b.logs
	}
}

// httpTransport is the batching core shared by both protocols.
type httpTransport struct {
	cfg     Config
	enc     encoder
	client  *retryablehttp.Client
	limiter *rate.Limiter
	log     *debuglog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	errors   []*event.Error
	spans    []*event.Span
	logs     []*event.Log
	closed   bool
	inflight int
	idle     chan struct{}
}

func newHTTPTransport(cfg Config, enc encoder) *httpTransport {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.MaxSendsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxSendsPerSecond), 1)
	}
	return &httpTransport{
		cfg:     cfg,
		enc:     enc,
		client:  newRetryClient(cfg),
		limiter: limiter,
		log:     cfg.Logger,
		metrics: metrics.Default(),
	}
}

// newRetryClient builds the retrying HTTP client implementing the
// backoff policy: retryablehttp counts retries after the first attempt,
// so MaxRetries attempts total means RetryMax = MaxRetries - 1, and its
// DefaultBackoff sleeps min(RetryWaitMin * 2^n, RetryWaitMax).
func newRetryClient(cfg Config) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries - 1
	rc.RetryWaitMin = cfg.BackoffBase
	rc.RetryWaitMax = cfg.BackoffCap
	rc.Backoff = retryablehttp.DefaultBackoff
	rc.CheckRetry = checkRetry
	rc.HTTPClient.Timeout = cfg.Timeout
	if cfg.HTTPTransport != nil {
		rc.HTTPClient.Transport = cfg.HTTPTransport
	}
	rc.Logger = cfg.Logger.Leveled()
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			metrics.Default().RecordRetry(pathKind(req.URL.Path))
		}
	}
	return rc
}

// pathKind labels retry metrics by the endpoint's last path segment.
func pathKind(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// checkRetry treats every transport error and every response with
// status >= 400 as a failed attempt.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp != nil && resp.StatusCode >= 400 {
		return true, nil
	}
	return false, nil
}

func (t *httpTransport) SendError(rec *event.Error) {
	if rec == nil {
		return
	}
	t.enqueue(KindErrors, func() int {
		t.errors = append(t.errors, rec)
		return len(t.errors)
	})
}

func (t *httpTransport) SendSpans(recs []*event.Span) {
	if len(recs) == 0 {
		return
	}
	t.enqueue(KindSpans, func() int {
		t.spans = append(t.spans, recs...)
		return len(t.spans)
	})
}

func (t *httpTransport) SendLogs(recs []*event.Log) {
	if len(recs) == 0 {
		return
	}
	t.enqueue(KindLogs, func() int {
		t.logs = append(t.logs, recs...)
		return len(t.logs)
	})
}

// enqueue appends under the queue lock and auto-flushes full batches.
// The batch is taken while still holding the lock, so two concurrent
// auto-flushes can never grab the same records.
func (t *httpTransport) enqueue(kind Kind, push func() int) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.log.Debug("transport closed, dropping record", zap.String("kind", string(kind)))
		t.metrics.RecordDrop(string(kind), "closed", 1)
		return
	}

	depth := push()
	t.metrics.SetQueueDepth(string(kind), depth)

	var batches []*batch
	for depth >= t.cfg.MaxBatchSize {
		b := t.takeLocked(kind)
		if b == nil {
			break
		}
		batches = append(batches, b)
		depth -= b.size()
	}
	t.mu.Unlock()

	for _, b := range batches {
		t.dispatch(b)
	}
}

// takeLocked removes up to MaxBatchSize oldest records from the queue.
// Callers must hold t.mu.
func (t *httpTransport) takeLocked(kind Kind) *batch {
	b := &batch{kind: kind}
	switch kind {
	case KindErrors:
		n := min(len(t.errors), t.cfg.MaxBatchSize)
		if n == 0 {
			return nil
		}
		b.errors = t.errors[:n:n]
		t.errors = t.errors[n:]
	case KindSpans:
		n := min(len(t.spans), t.cfg.MaxBatchSize)
		if n == 0 {
			return nil
		}
		b.spans = t.spans[:n:n]
		t.spans = t.spans[n:]
	case KindLogs:
		n := min(len(t.logs), t.cfg.MaxBatchSize)
		if n == 0 {
			return nil
		}
		b.logs = t.logs[:n:n]
		t.logs = t.logs[n:]
	}
	t.metrics.SetQueueDepth(string(kind), t.depthLocked(kind))
	return b
}

func (t *httpTransport) depthLocked(kind Kind) int {
	switch kind {
	case KindErrors:
		return len(t.errors)
	case KindSpans:
		return len(t.spans)
	default:
		return len(t.logs)
	}
}

// dispatch sends a batch in the background, tracking it for Flush.
func (t *httpTransport) dispatch(b *batch) {
	t.mu.Lock()
	t.inflight++
	t.mu.Unlock()

	go func() {
		defer t.sendDone()
		t.send(context.Background(), b)
	}()
}

func (t *httpTransport) sendDone() {
	t.mu.Lock()
	t.inflight--
	if t.inflight == 0 && t.idle != nil {
		close(t.idle)
		t.idle = nil
	}
	t.mu.Unlock()
}

// send encodes and posts one batch, dropping it after retry exhaustion.
func (t *httpTransport) send(ctx context.Context, b *batch) {
	reqs, err := t.enc.encode(b)
	if err != nil {
		t.log.Debug("failed to encode batch",
			zap.String("kind", string(b.kind)),
			zap.Error(err),
		)
		t.metrics.RecordDrop(string(b.kind), "encode", b.size())
		return
	}

	start := time.Now()
	for _, req := range reqs {
		if err := t.limiter.Wait(ctx); err != nil {
			t.metrics.RecordDrop(string(b.kind), "canceled", b.size())
			return
		}
		if err := t.post(ctx, req); err != nil {
			t.log.Debug("batch dropped after retries",
				zap.String("kind", string(b.kind)),
				zap.Int("records", b.size()),
				zap.Error(err),
			)
			t.metrics.RecordBatch(string(b.kind), "failed", b.size(), time.Since(start))
			t.metrics.RecordDrop(string(b.kind), "send_failed", b.size())
			return
		}
	}

	t.metrics.RecordBatch(string(b.kind), "sent", b.size(), time.Since(start))
	t.log.Debug("batch sent",
		zap.String("kind", string(b.kind)),
		zap.Int("records", b.size()),
	)
}

func (t *httpTransport) post(ctx context.Context, req *request) error {
	body := req.body
	compressed := false
	if t.cfg.Compress {
		gzipped, err := gzipBytes(body)
		if err == nil {
			body = gzipped
			compressed = true
		}
	}

	r, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, req.url, body)
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	r.Header.Set("User-Agent", version.UserAgent)
	if compressed {
		r.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := t.client.Do(r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("transport: server returned %s", resp.Status)
	}
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Flush drains every queue in order errors, spans, logs, sending each
// batch before moving on, then waits for any background sends still in
// flight. Empty queues trigger no request.
func (t *httpTransport) Flush(ctx context.Context) error {
	for _, kind := range flushOrder {
		for {
			t.mu.Lock()
			b := t.takeLocked(kind)
			t.mu.Unlock()
			if b == nil {
				break
			}
			t.send(ctx, b)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	return t.wait(ctx)
}

// wait blocks until no sends are in flight or ctx is done.
func (t *httpTransport) wait(ctx context.Context) error {
	t.mu.Lock()
	if t.inflight == 0 {
		t.mu.Unlock()
		return nil
	}
	if t.idle == nil {
		t.idle = make(chan struct{})
	}
	idle := t.idle
	t.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes with a deadline covering a full retry cycle and then
// rejects further records.
func (t *httpTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.closeBudget())
	defer cancel()
	return t.Flush(ctx)
}

// closeBudget is the worst-case duration of one delivery: every
// attempt timing out plus every backoff sleep.
func (t *httpTransport) closeBudget() time.Duration {
	budget := t.cfg.Timeout * time.Duration(t.cfg.MaxRetries)
	for i := 0; i < t.cfg.MaxRetries-1; i++ {
		budget += backoffDelay(t.cfg.BackoffBase, t.cfg.BackoffCap, i)
	}
	return budget
}

// backoffDelay returns the sleep before retry attempt (0-based):
// min(base * 2^attempt, ceiling).
func backoffDelay(base, ceiling time.Duration, attempt int) time.Duration {
	d := base << uint(attempt)
	if d > ceiling || d <= 0 {
		return ceiling
	}
	return d
}

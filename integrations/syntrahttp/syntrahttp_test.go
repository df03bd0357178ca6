package syntrahttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syntra "github.com/syntra-hq/syntra-go"
	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/trace"
)

type stubTransport struct {
	mu     sync.Mutex
	errors []*event.Error
	spans  []*event.Span
}

func (t *stubTransport) SendError(rec *event.Error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, rec)
}

func (t *stubTransport) SendSpans(recs []*event.Span) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = append(t.spans, recs...)
}

func (t *stubTransport) SendLogs([]*event.Log)       {}
func (t *stubTransport) Flush(context.Context) error { return nil }
func (t *stubTransport) Close() error                { return nil }

func newTestClient(t *testing.T) (*syntra.Client, *stubTransport) {
	t.Helper()
	st := &stubTransport{}
	client, err := syntra.NewClient(syntra.Options{
		Environment:     "test",
		ServiceID:       "proj_test",
		CustomTransport: st,
	})
	require.NoError(t, err)
	return client, st
}

func TestHandlerTracesRequests(t *testing.T) {
	client, st := newTestClient(t)
	h := New(Options{Client: client})

	wrapped := h.HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	wrapped(w, httptest.NewRequest("POST", "/orders", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)

	require.Len(t, st.spans, 1)
	span := st.spans[0]
	assert.Equal(t, "POST /orders", span.OperationName)
	assert.Equal(t, event.SpanKindServer, span.SpanKind)
	assert.Equal(t, event.StatusOK, span.Status.Code)

	attrs := span.Attributes.Map()
	assert.Equal(t, "POST", attrs["http.method"])
	assert.Equal(t, "/orders", attrs["http.route"])
	assert.Equal(t, http.StatusAccepted, attrs["http.status_code"])

	tc, ok := trace.ParseTraceparent(w.Header().Get("traceparent"))
	require.True(t, ok)
	assert.Equal(t, span.TraceID, tc.TraceID)
}

func TestHandlerContinuesRemoteTrace(t *testing.T) {
	client, st := newTestClient(t)
	h := New(Options{Client: client})

	wrapped := h.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/work", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, st.spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", st.spans[0].TraceID)
	assert.Equal(t, "00f067aa0ba902b7", st.spans[0].ParentSpanID)
}

func TestHandlerExcludesPaths(t *testing.T) {
	client, st := newTestClient(t)
	h := New(Options{Client: client})

	handled := false
	wrapped := h.HandleFunc(func(w http.ResponseWriter, r *http.Request) { handled = true })
	wrapped(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))

	assert.True(t, handled)
	assert.Empty(t, st.spans)
}

func TestHandlerErrorStatus(t *testing.T) {
	client, st := newTestClient(t)
	h := New(Options{Client: client})

	wrapped := h.HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	wrapped(httptest.NewRecorder(), httptest.NewRequest("GET", "/upstream", nil))

	require.Len(t, st.spans, 1)
	assert.Equal(t, event.StatusError, st.spans[0].Status.Code)
	assert.Equal(t, http.StatusBadGateway, st.spans[0].Attributes.Map()["http.status_code"])
}

func TestHandlerCapturesPanics(t *testing.T) {
	client, st := newTestClient(t)
	h := New(Options{Client: client})

	wrapped := h.HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("kaboom"))
	})

	w := httptest.NewRecorder()
	wrapped(w, httptest.NewRequest("GET", "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	require.Len(t, st.errors, 1)
	assert.Equal(t, "kaboom", st.errors[0].Message)
	assert.Equal(t, "/boom", st.errors[0].Context.Tags["route"])

	require.Len(t, st.spans, 1)
	assert.Equal(t, event.StatusError, st.spans[0].Status.Code)
}

func TestHandlerRepanic(t *testing.T) {
	client, st := newTestClient(t)
	h := New(Options{Client: client, Repanic: true})

	wrapped := h.HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("later")
	})

	assert.Panics(t, func() {
		wrapped(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom", nil))
	})
	assert.Len(t, st.errors, 1)
}

func TestTransportRoundTrip(t *testing.T) {
	client, st := newTestClient(t)

	var gotTraceparent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	httpClient := &http.Client{Transport: &Transport{Client: client}}
	resp, err := httpClient.Get(ts.URL + "/resource")
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, st.spans, 1)
	span := st.spans[0]
	assert.Equal(t, event.SpanKindClient, span.SpanKind)
	assert.Equal(t, event.StatusOK, span.Status.Code)
	assert.Equal(t, "http.client", span.Attributes.Map()["syntra.op"])
	assert.Equal(t, http.StatusOK, span.Attributes.Map()["http.status_code"])

	tc, ok := trace.ParseTraceparent(gotTraceparent)
	require.True(t, ok)
	assert.Equal(t, span.TraceID, tc.TraceID)
	assert.Equal(t, span.SpanID, tc.SpanID)

	crumbs := client.Scope(context.Background()).Breadcrumbs()
	require.Len(t, crumbs, 1)
	assert.Equal(t, "http", crumbs[0].Category)
	assert.Equal(t, "GET "+ts.URL+"/resource", crumbs[0].Message)
	assert.Equal(t, http.StatusOK, crumbs[0].Data["status_code"])
}

func TestTransportErrorStatus(t *testing.T) {
	client, st := newTestClient(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	httpClient := &http.Client{Transport: &Transport{Client: client}}
	resp, err := httpClient.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, st.spans, 1)
	assert.Equal(t, event.StatusError, st.spans[0].Status.Code)

	crumbs := client.Scope(context.Background()).Breadcrumbs()
	require.Len(t, crumbs, 1)
	assert.Equal(t, event.BreadcrumbLevelError, crumbs[0].Level)
}

func TestTransportConnectionFailure(t *testing.T) {
	client, st := newTestClient(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	httpClient := &http.Client{Transport: &Transport{Client: client}}
	_, err := httpClient.Get(url)
	require.Error(t, err)

	require.Len(t, st.spans, 1)
	assert.Equal(t, event.StatusError, st.spans[0].Status.Code)

	crumbs := client.Scope(context.Background()).Breadcrumbs()
	require.Len(t, crumbs, 1)
	assert.NotContains(t, crumbs[0].Data, "status_code")
}

package transport

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/syntra-hq/syntra-go/event"
)

// nativeEncoder speaks the Syntra ingest API: one endpoint per record
// kind, each batch wrapped in an envelope with a batch id and a
// timestamp.
type nativeEncoder struct {
	baseURL   string
	publicKey string
	projectID string
}

func newNativeEncoder(host, publicKey, projectID string) *nativeEncoder {
	return &nativeEncoder{
		baseURL:   ingestBaseURL(host),
		publicKey: publicKey,
		projectID: projectID,
	}
}

// ingestBaseURL picks http for local hosts and https everywhere else.
func ingestBaseURL(host string) string {
	scheme := "https"
	if strings.Contains(host, "localhost") || strings.Contains(host, "127.0.0.1") {
		scheme = "http"
	}
	return scheme + "://" + host + "/api/v1/telemetry"
}

func (e *nativeEncoder) encode(b *batch) ([]*request, error) {
	envelope := map[string]any{
		"batch_id":     uuid.New().String(),
		"timestamp":    event.Now(),
		string(b.kind): b.records(),
	}

	body, err := sonic.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("transport: encode %s batch: %w", b.kind, err)
	}

	return []*request{{
		url:  e.baseURL + "/" + string(b.kind),
		body: body,
		headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Syntra-Key":     e.publicKey,
			"X-Syntra-Project": e.projectID,
		},
	}}, nil
}

// NewHTTP creates a transport for the native ingest protocol.
func NewHTTP(cfg Config) (Transport, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("transport: host is required")
	}
	cfg = cfg.withDefaults()
	return newHTTPTransport(cfg, newNativeEncoder(cfg.Host, cfg.PublicKey, cfg.ProjectID)), nil
}

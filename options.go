package syntra

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/scope"
	"github.com/syntra-hq/syntra-go/transport"
)

// Transport protocol names accepted by Options.Transport.
const (
	TransportHTTP = "http"
	TransportOTLP = "otlp"
)

// Options configures a Client. The zero value of most fields selects
// a sensible default; see the field comments.
type Options struct {
	// DSN locates the project: syn://<public_key>@<host>/<project_id>.
	// Required unless CustomTransport is set.
	DSN string `envconfig:"SYNTRA_DSN"`

	// Environment tags every captured event, default "production".
	Environment string `envconfig:"SYNTRA_ENVIRONMENT" default:"production"`

	// Release is the deployed version, reported on errors and as the
	// OTLP service.version resource attribute.
	Release string `envconfig:"SYNTRA_RELEASE"`

	// ServiceID overrides the service identity on wire records. The
	// DSN project id is used when empty.
	ServiceID string `envconfig:"SYNTRA_SERVICE_ID"`

	DeploymentID string `envconfig:"SYNTRA_DEPLOYMENT_ID"`

	// TracesSampleRate is the fraction of root spans to record, in
	// [0, 1]. Zero means unset and samples everything; pass a negative
	// rate to disable tracing.
	TracesSampleRate float64 `envconfig:"SYNTRA_TRACES_SAMPLE_RATE" default:"1.0"`

	// ErrorsSampleRate is the fraction of captured errors to keep.
	// Zero means unset and keeps everything; negative disables capture.
	ErrorsSampleRate float64 `envconfig:"SYNTRA_ERRORS_SAMPLE_RATE" default:"1.0"`

	// Debug enables SDK debug logging to stderr.
	Debug bool `envconfig:"SYNTRA_DEBUG" default:"false"`

	// MaxBreadcrumbs caps the breadcrumb ring per scope, default 100.
	MaxBreadcrumbs int `envconfig:"SYNTRA_MAX_BREADCRUMBS" default:"100"`

	// SendDefaultPII lets integrations attach personally identifiable
	// request data such as client addresses and full headers.
	SendDefaultPII bool `envconfig:"SYNTRA_SEND_DEFAULT_PII" default:"false"`

	// Transport selects the wire protocol: "http" (native, default)
	// or "otlp". The otlp protocol also needs OTLPEndpoint.
	Transport string `envconfig:"SYNTRA_TRANSPORT" default:"http"`

	// OTLPEndpoint is the collector base URL for the otlp transport,
	// e.g. http://127.0.0.1:4318.
	OTLPEndpoint string `envconfig:"SYNTRA_OTLP_ENDPOINT"`

	// MaxBatchSize is the number of records per send, default 100.
	MaxBatchSize int `envconfig:"SYNTRA_MAX_BATCH_SIZE" default:"100"`

	// MaxRetries is the number of delivery attempts per batch,
	// default 3.
	MaxRetries int `envconfig:"SYNTRA_MAX_RETRIES" default:"3"`

	// SendTimeout bounds each delivery attempt, default 30s.
	SendTimeout time.Duration `envconfig:"SYNTRA_SEND_TIMEOUT" default:"30s"`

	// BackoffBase and BackoffCap shape the retry delay
	// min(base * 2^attempt, cap); defaults 1s and 10s.
	BackoffBase time.Duration `envconfig:"SYNTRA_BACKOFF_BASE" default:"1s"`
	BackoffCap  time.Duration `envconfig:"SYNTRA_BACKOFF_CAP" default:"10s"`

	// Compress gzips request bodies on the native protocol.
	Compress bool `envconfig:"SYNTRA_COMPRESS" default:"false"`

	// MaxSendsPerSecond throttles outgoing batches; zero means
	// unlimited.
	MaxSendsPerSecond float64 `envconfig:"SYNTRA_MAX_SENDS_PER_SECOND" default:"0"`

	// InAppInclude and InAppExclude are glob patterns (doublestar
	// syntax) matched against frame file paths to classify stack
	// frames as application code. Include wins over exclude.
	InAppInclude []string `envconfig:"SYNTRA_IN_APP_INCLUDE"`
	InAppExclude []string `envconfig:"SYNTRA_IN_APP_EXCLUDE"`

	// BeforeSend runs on every error event before it is queued.
	// Returning nil drops the event. The hook may mutate the event.
	BeforeSend func(*event.Error) *event.Error `ignored:"true"`

	// CustomTransport replaces the built-in transport entirely.
	CustomTransport transport.Transport `ignored:"true"`

	// HTTPTransport overrides the http.RoundTripper used by the
	// built-in transport. Mainly for tests and proxies.
	HTTPTransport http.RoundTripper `ignored:"true"`
}

// LoadOptions populates Options from SYNTRA_* environment variables.
func LoadOptions() (*Options, error) {
	var opts Options
	if err := envconfig.Process("", &opts); err != nil {
		return nil, fmt.Errorf("syntra: load options: %w", err)
	}
	return &opts, nil
}

// applyDefaults fills zero values on directly constructed Options the
// same way the envconfig defaults do.
func (o *Options) applyDefaults() {
	if o.Environment == "" {
		o.Environment = "production"
	}
	if o.Transport == "" {
		o.Transport = TransportHTTP
	}
	if o.TracesSampleRate == 0 {
		o.TracesSampleRate = 1
	}
	if o.ErrorsSampleRate == 0 {
		o.ErrorsSampleRate = 1
	}
	if o.MaxBreadcrumbs <= 0 {
		o.MaxBreadcrumbs = scope.DefaultMaxBreadcrumbs
	}
}

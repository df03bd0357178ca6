package syntra

import (
	"fmt"
	"regexp"
)

// DSN identifies a project and where its telemetry goes, in the form
// syn://<public_key>@<host>/<project_id>. The syn protocol ingests
// over https; a plain http DSN stays http (local development).
type DSN struct {
	Protocol  string
	PublicKey string
	Host      string
	ProjectID string
}

var dsnPattern = regexp.MustCompile(`^(syn|https?)://([^@]+)@([^/]+)/(.+)$`)

// ParseDSN parses a DSN string. An empty or malformed DSN returns an
// error.
func ParseDSN(dsn string) (*DSN, error) {
	if dsn == "" {
		return nil, fmt.Errorf("syntra: dsn is required")
	}
	m := dsnPattern.FindStringSubmatch(dsn)
	if m == nil {
		return nil, fmt.Errorf("syntra: invalid dsn %q, expected syn://<public_key>@<host>/<project_id>", dsn)
	}
	return &DSN{
		Protocol:  m[1],
		PublicKey: m[2],
		Host:      m[3],
		ProjectID: m[4],
	}, nil
}

// IsValidDSN reports whether dsn parses.
func IsValidDSN(dsn string) bool {
	_, err := ParseDSN(dsn)
	return err == nil
}

// IngestURL returns the base ingest URL derived from the DSN.
func (d *DSN) IngestURL() string {
	protocol := d.Protocol
	if protocol == "syn" {
		protocol = "https"
	}
	return protocol + "://" + d.Host + "/api/v1/telemetry"
}

// String returns the DSN with the public key redacted.
func (d *DSN) String() string {
	return fmt.Sprintf("%s://***@%s/%s", d.Protocol, d.Host, d.ProjectID)
}

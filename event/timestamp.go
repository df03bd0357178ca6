package event

import (
	"fmt"
	"time"
)

// isoLayout is the wire timestamp format: UTC, millisecond precision,
// literal Z suffix.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Timestamp is a point in time that serializes in the ingest API format.
type Timestamp time.Time

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// UnixNano returns the timestamp as nanoseconds since the Unix epoch.
func (t Timestamp) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

// String formats the timestamp in the wire format.
func (t Timestamp) String() string {
	return time.Time(t).UTC().Format(isoLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("event: invalid timestamp %q", s)
	}
	s = s[1 : len(s)-1]

	parsed, err := time.Parse(isoLayout, s)
	if err != nil {
		// Accept full-precision RFC 3339 as produced by other tooling.
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("event: invalid timestamp %q: %w", s, err)
		}
	}
	*t = Timestamp(parsed)
	return nil
}

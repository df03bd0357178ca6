package event

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Attribute is a single key/value pair attached to spans, events, and logs.
// Values are scalars: string, bool, or a numeric type.
type Attribute struct {
	Key   string
	Value any
}

// Attributes is an insertion-ordered attribute collection. It serializes
// as a JSON object whose keys appear in insertion order; setting an
// existing key updates the value in place without moving it.
type Attributes []Attribute

// Set updates the value for key, appending when key is new.
func (a *Attributes) Set(key string, value any) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attribute{Key: key, Value: value})
}

// Get returns the value for key.
func (a Attributes) Get(key string) (any, bool) {
	for i := range a {
		if a[i].Key == key {
			return a[i].Value, true
		}
	}
	return nil, false
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// Map returns the attributes as a plain map, losing order.
func (a Attributes) Map() map[string]any {
	out := make(map[string]any, len(a))
	for i := range a {
		out[a[i].Key] = a[i].Value
	}
	return out
}

// MarshalJSON implements json.Marshaler. Empty and nil collections both
// serialize as {}.
func (a Attributes) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := sonic.Marshal(a[i].Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := sonic.Marshal(a[i].Value)
		if err != nil {
			return nil, fmt.Errorf("event: attribute %q: %w", a[i].Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("event: attributes must be a JSON object, got %v", tok)
	}

	out := Attributes{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("event: attribute key must be a string, got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		out = append(out, Attribute{Key: key, Value: value})
	}
	*a = out
	return nil
}

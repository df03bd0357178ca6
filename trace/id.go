package trace

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewTraceID generates a 128-bit trace id as 32 lowercase hex characters.
func NewTraceID() string {
	return randomHex(16)
}

// NewSpanID generates a 64-bit span id as 16 lowercase hex characters.
func NewSpanID() string {
	return randomHex(8)
}

// randomHex returns n random bytes hex-encoded. All-zero ids are invalid
// on the wire, so those draws are retried.
func randomHex(n int) string {
	b := make([]byte, n)
	for {
		if _, err := rand.Read(b); err != nil {
			panic(fmt.Sprintf("trace: crypto/rand failed: %v", err))
		}
		for _, c := range b {
			if c != 0 {
				return hex.EncodeToString(b)
			}
		}
	}
}

package syntra

import (
	"fmt"
	"regexp"

	"github.com/syntra-hq/syntra-go/event"
)

var (
	uuidPattern   = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	numberPattern = regexp.MustCompile(`\b\d+\b`)
)

// defaultFingerprint builds the grouping key for an error: the type,
// the message with volatile parts normalized (uuids become "<uuid>",
// standalone integers become "<n>"), and the top three in-app frames.
func defaultFingerprint(errType, message string, frames []event.StackFrame) []string {
	normalized := uuidPattern.ReplaceAllString(message, "<uuid>")
	normalized = numberPattern.ReplaceAllString(normalized, "<n>")

	fingerprint := []string{errType, normalized}
	seen := 0
	for _, f := range frames {
		if !f.InApp {
			continue
		}
		fingerprint = append(fingerprint, fmt.Sprintf("%s:%s:%d", f.Filename, f.Function, f.Lineno))
		if seen++; seen == 3 {
			break
		}
	}
	return fingerprint
}

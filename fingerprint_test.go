package syntra

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syntra-hq/syntra-go/event"
)

func TestDefaultFingerprint(t *testing.T) {
	t.Run("normalizes uuids", func(t *testing.T) {
		fp := defaultFingerprint("NotFoundError",
			"user 550E8400-E29B-41D4-A716-446655440000 not found", nil)
		assert.Equal(t, []string{"NotFoundError", "user <uuid> not found"}, fp)
	})

	t.Run("normalizes numbers", func(t *testing.T) {
		fp := defaultFingerprint("TimeoutError",
			"request timed out after 30 seconds on attempt 4", nil)
		assert.Equal(t, []string{"TimeoutError", "request timed out after <n> seconds on attempt <n>"}, fp)
	})

	t.Run("uuid replaced before digits", func(t *testing.T) {
		fp := defaultFingerprint("E",
			"id 550e8400-e29b-41d4-a716-446655440000 retry 2", nil)
		assert.Equal(t, "id <uuid> retry <n>", fp[1])
	})

	t.Run("includes top in-app frames", func(t *testing.T) {
		frames := []event.StackFrame{
			{Filename: "handler.go", Function: "HandleCheckout", Lineno: 42, InApp: true},
			{Filename: "server.go", Function: "ServeHTTP", Lineno: 100, InApp: false},
			{Filename: "cart.go", Function: "Total", Lineno: 7, InApp: true},
			{Filename: "store.go", Function: "Load", Lineno: 19, InApp: true},
			{Filename: "db.go", Function: "Query", Lineno: 88, InApp: true},
		}
		fp := defaultFingerprint("PaymentError", "declined", frames)
		assert.Equal(t, []string{
			"PaymentError",
			"declined",
			"handler.go:HandleCheckout:42",
			"cart.go:Total:7",
			"store.go:Load:19",
		}, fp)
	})

	t.Run("no in-app frames", func(t *testing.T) {
		frames := []event.StackFrame{
			{Filename: "server.go", Function: "ServeHTTP", Lineno: 100, InApp: false},
		}
		fp := defaultFingerprint("E", "boom", frames)
		assert.Equal(t, []string{"E", "boom"}, fp)
	})
}

// Package scope holds the contextual data attached to captured events:
// the current user, tags, extra values, a fingerprint override, and a
// bounded breadcrumb trail.
//
// # Overview
//
// A Scope is a goroutine-safe bag of context. Breadcrumbs live in a
// ring buffer: once the configured capacity is reached, adding a new
// breadcrumb evicts the oldest. Every error report snapshots the
// active scope at capture time.
//
// The Manager binds scopes to contexts. The global scope backs any
// context without its own binding; Isolate clones the visible scope
// into a derived context so that mutations inside a request or task
// never leak back out:
//
//	ctx, scope := manager.Isolate(ctx)
//	scope.SetTag("job", "nightly-sync")
//	// changes stay local to ctx
package scope

package scope

import "context"

type contextKey string

const scopeKey contextKey = "scope"

// Manager owns the global scope and binds isolated scopes to contexts.
type Manager struct {
	global         *Scope
	maxBreadcrumbs int
}

// NewManager creates a manager whose scopes use the given breadcrumb
// ring capacity.
func NewManager(maxBreadcrumbs int) *Manager {
	return &Manager{
		global:         New(maxBreadcrumbs),
		maxBreadcrumbs: maxBreadcrumbs,
	}
}

// Current returns the scope bound to ctx, or the global scope when the
// context carries none.
func (m *Manager) Current(ctx context.Context) *Scope {
	if s, ok := ctx.Value(scopeKey).(*Scope); ok {
		return s
	}
	return m.global
}

// Isolate clones the scope visible from ctx and binds the clone to a
// derived context. Mutations on the clone stay local to that context.
func (m *Manager) Isolate(ctx context.Context) (context.Context, *Scope) {
	clone := m.Current(ctx).Clone()
	return context.WithValue(ctx, scopeKey, clone), clone
}

// Global returns the process-wide scope.
func (m *Manager) Global() *Scope {
	return m.global
}

package scope

import (
	"sync"
	"time"

	"github.com/syntra-hq/syntra-go/event"
)

// DefaultMaxBreadcrumbs is the breadcrumb ring capacity used when none
// is configured.
const DefaultMaxBreadcrumbs = 100

// Scope carries user, tags, extra data, a fingerprint override, and a
// bounded breadcrumb trail. All methods are safe for concurrent use.
type Scope struct {
	mu             sync.Mutex
	user           *event.User
	tags           map[string]string
	extra          map[string]any
	fingerprint    []string
	breadcrumbs    []event.Breadcrumb
	maxBreadcrumbs int
}

// New creates an empty scope. maxBreadcrumbs <= 0 selects the default
// ring capacity.
func New(maxBreadcrumbs int) *Scope {
	if maxBreadcrumbs <= 0 {
		maxBreadcrumbs = DefaultMaxBreadcrumbs
	}
	return &Scope{
		tags:           make(map[string]string),
		extra:          make(map[string]any),
		maxBreadcrumbs: maxBreadcrumbs,
	}
}

// SetUser attaches user identity. A nil user detaches it.
func (s *Scope) SetUser(user *event.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.user = nil
		return
	}
	u := *user
	s.user = &u
}

// SetTag sets a single tag.
func (s *Scope) SetTag(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[key] = value
}

// SetTags merges tags into the scope.
func (s *Scope) SetTags(tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range tags {
		s.tags[k] = v
	}
}

// RemoveTag deletes a tag. Removing an absent tag is a no-op.
func (s *Scope) RemoveTag(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tags, key)
}

// SetExtra sets a single extra value.
func (s *Scope) SetExtra(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extra[key] = value
}

// SetExtras merges extra values into the scope.
func (s *Scope) SetExtras(extras map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range extras {
		s.extra[k] = v
	}
}

// SetFingerprint overrides the grouping fingerprint for errors
// captured under this scope. A nil or empty fingerprint restores the
// default grouping.
func (s *Scope) SetFingerprint(fingerprint []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(fingerprint) == 0 {
		s.fingerprint = nil
		return
	}
	s.fingerprint = append([]string(nil), fingerprint...)
}

// AddBreadcrumb appends a breadcrumb to the ring buffer, evicting the
// oldest entry once the capacity is reached. Zero-valued Type, Level,
// Category, and Timestamp fields are filled with defaults.
func (s *Scope) AddBreadcrumb(b event.Breadcrumb) {
	if b.Type == "" {
		b.Type = event.BreadcrumbDefault
	}
	if b.Category == "" {
		b.Category = "default"
	}
	if b.Level == "" {
		b.Level = event.BreadcrumbLevelInfo
	}
	if time.Time(b.Timestamp).IsZero() {
		b.Timestamp = event.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.breadcrumbs = append(s.breadcrumbs, b)
	if over := len(s.breadcrumbs) - s.maxBreadcrumbs; over > 0 {
		s.breadcrumbs = append([]event.Breadcrumb(nil), s.breadcrumbs[over:]...)
	}
}

// ClearBreadcrumbs empties the breadcrumb ring.
func (s *Scope) ClearBreadcrumbs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breadcrumbs = nil
}

// Clear resets user, tags, extra, fingerprint, and breadcrumbs in one
// step. The ring capacity is kept.
func (s *Scope) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.tags = make(map[string]string)
	s.extra = make(map[string]any)
	s.fingerprint = nil
	s.breadcrumbs = nil
}

// Clone returns an independent deep copy with the same ring capacity.
// Mutating the clone never affects the original.
func (s *Scope) Clone() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &Scope{
		tags:           make(map[string]string, len(s.tags)),
		extra:          make(map[string]any, len(s.extra)),
		maxBreadcrumbs: s.maxBreadcrumbs,
	}
	if s.user != nil {
		u := *s.user
		c.user = &u
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.extra {
		c.extra[k] = v
	}
	if s.fingerprint != nil {
		c.fingerprint = append([]string(nil), s.fingerprint...)
	}
	c.breadcrumbs = cloneBreadcrumbs(s.breadcrumbs)
	return c
}

// User returns a copy of the user, or nil when unset.
func (s *Scope) User() *event.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Tags returns a copy of the tags.
func (s *Scope) Tags() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.tags))
	for k, v := range s.tags {
		out[k] = v
	}
	return out
}

// Extra returns a copy of the extra values.
func (s *Scope) Extra() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.extra))
	for k, v := range s.extra {
		out[k] = v
	}
	return out
}

// Fingerprint returns a copy of the fingerprint override, or nil.
func (s *Scope) Fingerprint() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fingerprint == nil {
		return nil
	}
	return append([]string(nil), s.fingerprint...)
}

// Breadcrumbs returns the breadcrumbs oldest first.
func (s *Scope) Breadcrumbs() []event.Breadcrumb {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBreadcrumbs(s.breadcrumbs)
}

func cloneBreadcrumbs(crumbs []event.Breadcrumb) []event.Breadcrumb {
	out := make([]event.Breadcrumb, len(crumbs))
	for i, b := range crumbs {
		if b.Data != nil {
			data := make(map[string]any, len(b.Data))
			for k, v := range b.Data {
				data[k] = v
			}
			b.Data = data
		}
		out[i] = b
	}
	return out
}

// Package present holds the declarative content of running activities.
package present

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// View is the content attached for one activity instance.
type View struct {
	Ref        string    `json:"ref"`
	Container  string    `json:"container,omitempty"`
	Content    string    `json:"content"`
	AttachedAt time.Time `json:"attached_at"`
}

// Memory is an in-memory presentation sink keyed by instance reference.
type Memory struct {
	logger *slog.Logger

	mu    sync.RWMutex
	views map[string]View
}

// Option configures a Memory.
type Option func(*Memory)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Memory) {
		m.logger = logger.With("component", "presenter")
	}
}

// NewMemory creates an empty Memory.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		logger: slog.Default().With("component", "presenter"),
		views:  make(map[string]View),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach stores content for ref, replacing anything attached before.
func (m *Memory) Attach(ref, content, container string) {
	m.mu.Lock()
	m.views[ref] = View{
		Ref:        ref,
		Container:  container,
		Content:    content,
		AttachedAt: time.Now(),
	}
	m.mu.Unlock()

	m.logger.Debug("content attached", "ref", ref, "container", container, "bytes", len(content))
}

// Detach removes ref. Unknown refs are ignored.
func (m *Memory) Detach(ref string) {
	m.mu.Lock()
	_, ok := m.views[ref]
	delete(m.views, ref)
	m.mu.Unlock()

	if ok {
		m.logger.Debug("content detached", "ref", ref)
	}
}

// Get returns the view attached for ref.
func (m *Memory) Get(ref string) (View, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[ref]
	return v, ok
}

// All returns every attached view, oldest first.
func (m *Memory) All() []View {
	m.mu.RLock()
	views := make([]View, 0, len(m.views))
	for _, v := range m.views {
		views = append(views, v)
	}
	m.mu.RUnlock()

	sort.Slice(views, func(a, b int) bool {
		return views[a].AttachedAt.Before(views[b].AttachedAt)
	})
	return views
}

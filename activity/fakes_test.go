package activity

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nomis52/golaunch/loader"
)

// program builds the hooks for a module, playing the role of its top-level code.
type program func(c *Capability) Hooks

type fakeModule struct {
	cap      *Capability
	programs map[string]program

	jobs      chan func()
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeModule(c *Capability, programs map[string]program) *fakeModule {
	m := &fakeModule{
		cap:      c,
		programs: programs,
		jobs:     make(chan func(), 16),
		closed:   make(chan struct{}),
	}
	go m.loop()
	return m
}

func (m *fakeModule) loop() {
	for {
		select {
		case fn := <-m.jobs:
			fn()
		case <-m.closed:
			return
		}
	}
}

func (m *fakeModule) Run(source string) Hooks {
	p, ok := m.programs[source]
	if !ok {
		m.cap.Fail(&CompileError{Err: errUnknownProgram})
		return Hooks{}
	}
	return p(m.cap)
}

func (m *fakeModule) Do(fn func()) {
	select {
	case m.jobs <- fn:
	case <-m.closed:
	}
}

func (m *fakeModule) Close() {
	m.closeOnce.Do(func() { close(m.closed) })
}

func (m *fakeModule) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

type fakeSandbox struct {
	mu       sync.Mutex
	programs map[string]program
	modules  []*fakeModule
}

func (s *fakeSandbox) Instantiate(c *Capability) (Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := newFakeModule(c, s.programs)
	s.modules = append(s.modules, m)
	return m, nil
}

func (s *fakeSandbox) instantiated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.modules)
}

// fakeLoader serves the executable text "<locator>" wrapped as content, or an error.
// With ignoreCtx set, a blocked load only returns once block is closed.
type fakeLoader struct {
	errs      map[string]error
	block     chan struct{}
	ignoreCtx bool
	returned  atomic.Int32
}

func (l *fakeLoader) Load(ctx context.Context, locator string) (loader.Content, error) {
	defer l.returned.Add(1)
	if l.block != nil {
		done := ctx.Done()
		if l.ignoreCtx {
			done = nil
		}
		select {
		case <-l.block:
		case <-done:
			return loader.Content{}, &loader.RetrievalError{Locator: locator, Err: ctx.Err()}
		}
	}
	if err, ok := l.errs[locator]; ok {
		return loader.Content{}, err
	}
	return loader.Content{
		Declarative: "<p>" + locator + "</p>",
		Executable:  locator,
		Segments:    1,
	}, nil
}

type presenterCall struct {
	op        string
	ref       string
	content   string
	container string
}

type recordingPresenter struct {
	mu    sync.Mutex
	calls []presenterCall
}

func (p *recordingPresenter) Attach(ref, content, container string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, presenterCall{op: "attach", ref: ref, content: content, container: container})
}

func (p *recordingPresenter) Detach(ref string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, presenterCall{op: "detach", ref: ref})
}

func (p *recordingPresenter) snapshot() []presenterCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]presenterCall(nil), p.calls...)
}

func await(t *testing.T, h *Handle) (Result, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := h.Result().Await(ctx)
	if ctx.Err() != nil {
		t.Fatalf("timed out waiting for activity %s", h.ID())
	}
	return res, err
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
)

// mockModelServer is a scriptable driven.ModelServer.
type mockModelServer struct {
	mu sync.Mutex

	pingErr   error
	pingAfter int // pings that fail before the first success
	pings     int

	pullEvents []domain.PullProgress
	pullErr    error

	// reply is streamed word by word for every chat request.
	reply   string
	chatErr error
	// block makes chat streams wait for cancellation after the first event.
	block bool
	// gate, when set, holds chat streams after the first event until closed.
	gate chan struct{}

	requests  []domain.ChatRequest
	generated []string
}

func (m *mockModelServer) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pings++
	if m.pingAfter > 0 {
		m.pingAfter--
		return domain.ErrNetwork
	}
	return m.pingErr
}

func (m *mockModelServer) Pull(ctx context.Context, _ string) (<-chan domain.PullProgress, <-chan error) {
	events := make(chan domain.PullProgress)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(events)
		for _, p := range m.pullEvents {
			select {
			case events <- p:
			case <-ctx.Done():
				errs <- fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
				return
			}
		}
		if m.pullErr != nil {
			errs <- m.pullErr
		}
	}()
	return events, errs
}

func (m *mockModelServer) Chat(ctx context.Context, req domain.ChatRequest) (<-chan domain.ChatEvent, <-chan error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	reply, chatErr, hold := m.reply, m.chatErr, m.gate
	if m.block {
		hold = make(chan struct{})
	}
	m.mu.Unlock()
	return stream(ctx, reply, chatErr, hold)
}

func (m *mockModelServer) Generate(ctx context.Context, _ string, prompt string) (<-chan domain.ChatEvent, <-chan error) {
	m.mu.Lock()
	m.generated = append(m.generated, prompt)
	m.mu.Unlock()
	return stream(ctx, "", nil, nil)
}

func (m *mockModelServer) Host() string { return "http://mock" }

func (m *mockModelServer) lastRequest() domain.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// stream emits reply word by word. A non-nil hold pauses it after the first
// word until hold is closed or ctx is done.
func stream(ctx context.Context, reply string, failure error, hold chan struct{}) (<-chan domain.ChatEvent, <-chan error) {
	events := make(chan domain.ChatEvent)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(events)

		cancelled := func() {
			errs <- fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
		}
		words := strings.SplitAfter(reply, " ")
		for i, w := range words {
			select {
			case events <- domain.ChatEvent{Content: w}:
			case <-ctx.Done():
				cancelled()
				return
			}
			if hold != nil && i == 0 {
				select {
				case <-hold:
				case <-ctx.Done():
					cancelled()
					return
				}
			}
		}
		if failure != nil {
			errs <- failure
			return
		}
		select {
		case events <- domain.ChatEvent{Done: true}:
		case <-ctx.Done():
			cancelled()
		}
	}()
	return events, errs
}

// mockLauncher records launches and hands out mockProcesses.
type mockLauncher struct {
	mu      sync.Mutex
	specs   []domain.LaunchSpec
	fail    map[string]error
	exitNow map[string]bool
	procs   []*mockProcess
}

func (l *mockLauncher) Launch(_ context.Context, spec domain.LaunchSpec) (driven.ServerProcess, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs = append(l.specs, spec)
	if err := l.fail[spec.Binary]; err != nil {
		return nil, err
	}
	p := &mockProcess{pid: 100 + len(l.specs), exited: make(chan struct{})}
	if l.exitNow[spec.Binary] {
		close(p.exited)
	}
	l.procs = append(l.procs, p)
	return p, nil
}

type mockProcess struct {
	pid     int
	exited  chan struct{}
	mu      sync.Mutex
	stopped int
}

func (p *mockProcess) PID() int                { return p.pid }
func (p *mockProcess) Exited() <-chan struct{} { return p.exited }

func (p *mockProcess) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped++
	return nil
}

func (p *mockProcess) stopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// mockEmbedder maps each text to a vector by keyword.
type mockEmbedder struct {
	mu    sync.Mutex
	err   error
	calls int
	// gate, when set, blocks EmbedBatch until closed.
	gate chan struct{}
}

var keywords = []string{"paris", "berlin", "rome"}

func (e *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, len(keywords)+1)
	lower := strings.ToLower(text)
	for i, k := range keywords {
		if strings.Contains(lower, k) {
			v[i] = 1
		}
	}
	v[len(keywords)] = 0.01
	return v
}

func (e *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	gate := e.gate
	e.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *mockEmbedder) Dimensions() int   { return len(keywords) + 1 }
func (e *mockEmbedder) ModelName() string { return "mock" }
func (e *mockEmbedder) Close() error      { return nil }

// mockParser returns canned documents by path.
type mockParser struct {
	docs map[string]*domain.Document
}

func (p *mockParser) Parse(_ context.Context, path string) (*domain.Document, error) {
	if path == "" {
		return nil, domain.ErrNoFileSelected
	}
	doc, ok := p.docs[path]
	if !ok {
		return nil, fmt.Errorf("read document: %w", errors.New("no such file"))
	}
	return doc, nil
}

func doc(name string, sections ...domain.Section) *domain.Document {
	return &domain.Document{FileName: name, Format: domain.FormatFromPath(name), Sections: sections}
}

func section(label string, texts ...string) domain.Section {
	s := domain.Section{Label: label}
	for _, t := range texts {
		s.Chunks = append(s.Chunks, domain.Chunk{Text: t})
	}
	return s
}

// mockTranscripts is an in-memory driven.TranscriptStore.
type mockTranscripts struct {
	mu      sync.Mutex
	entries []domain.TranscriptEntry
}

func (m *mockTranscripts) Append(_ context.Context, e *domain.TranscriptEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *mockTranscripts) Recent(_ context.Context, limit int) ([]domain.TranscriptEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	return append([]domain.TranscriptEntry(nil), m.entries[len(m.entries)-limit:]...), nil
}

func (m *mockTranscripts) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func (m *mockTranscripts) Close() error { return nil }

func (m *mockTranscripts) all() []domain.TranscriptEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TranscriptEntry(nil), m.entries...)
}

// drain collects a chat stream.
func drain(events <-chan domain.ChatEvent, errs <-chan error) (string, error) {
	var b strings.Builder
	for ev := range events {
		b.WriteString(ev.Content)
	}
	return b.String(), <-errs
}

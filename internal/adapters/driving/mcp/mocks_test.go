package mcp

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driving"
)

// Ensure mockChatService implements the interface.
var _ driving.ChatService = (*mockChatService)(nil)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	mu sync.Mutex

	loadResult domain.LoadResult
	reply      string
	chatErr    error
	status     domain.Status
	summary    *domain.Summary
	err        error
	history    []domain.TranscriptEntry

	loaded   []string
	asked    []string
	resets   int
	limits   []int
	stopped  bool
	model    string
	progress []domain.PullProgress
}

func (m *mockChatService) LoadDocument(_ context.Context, path string) <-chan domain.LoadResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = append(m.loaded, path)
	ch := make(chan domain.LoadResult, 1)
	ch <- m.loadResult
	return ch
}

func (m *mockChatService) SendChat(_ context.Context, message string) (<-chan domain.ChatEvent, <-chan error) {
	m.mu.Lock()
	m.asked = append(m.asked, message)
	reply, chatErr := m.reply, m.chatErr
	m.mu.Unlock()

	words := strings.SplitAfter(reply, " ")
	events := make(chan domain.ChatEvent, len(words)+1)
	errs := make(chan error, 1)
	for _, w := range words {
		events <- domain.ChatEvent{Content: w}
	}
	if chatErr != nil {
		errs <- chatErr
	} else {
		events <- domain.ChatEvent{Done: true}
	}
	close(events)
	close(errs)
	return events, errs
}

func (m *mockChatService) StopChat() {}

func (m *mockChatService) Serve(context.Context) (domain.ServeType, error) {
	return domain.ServeRunning, m.err
}

func (m *mockChatService) RunModel(_ context.Context, model string, onProgress func(domain.PullProgress)) error {
	if model != "" {
		m.model = model
	}
	for _, p := range m.progress {
		if onProgress != nil {
			onProgress(p)
		}
	}
	return m.err
}

func (m *mockChatService) Stop() error {
	m.stopped = true
	return nil
}

func (m *mockChatService) Model() string { return m.model }

func (m *mockChatService) SetModel(name string) error {
	m.model = name
	return nil
}

func (m *mockChatService) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return m.err
}

func (m *mockChatService) Status() domain.Status { return m.status }

func (m *mockChatService) Summarise(context.Context) (*domain.Summary, error) {
	return m.summary, m.err
}

func (m *mockChatService) History(_ context.Context, limit int) ([]domain.TranscriptEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	return m.history, m.err
}

func (m *mockChatService) ClearHistory(context.Context) error { return m.err }

package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driving"
)

var _ driving.ChatService = (*mockChatService)(nil)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	mu sync.Mutex

	loadResult domain.LoadResult
	reply      string
	chatErr    error
	serveErr   error
	modelErr   error
	resetErr   error
	summary    *domain.Summary
	summaryErr error
	offline    bool
	progress   []domain.PullProgress
	model      string

	loaded []string
	asked  []string
	stops  int
	resets int
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
	events := make(chan domain.ChatEvent, len(words))
	errs := make(chan error, 1)
	for _, w := range words {
		events <- domain.ChatEvent{Content: w}
	}
	if chatErr != nil {
		errs <- chatErr
	}
	close(events)
	close(errs)
	return events, errs
}

func (m *mockChatService) StopChat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *mockChatService) Serve(context.Context) (domain.ServeType, error) {
	return domain.ServeRunning, m.serveErr
}

func (m *mockChatService) RunModel(_ context.Context, model string, onProgress func(domain.PullProgress)) error {
	m.mu.Lock()
	if model != "" {
		m.model = model
	}
	progress := m.progress
	m.mu.Unlock()

	for _, p := range progress {
		onProgress(p)
	}
	return m.modelErr
}

func (m *mockChatService) Stop() error { return nil }

func (m *mockChatService) Model() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

func (m *mockChatService) SetModel(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = name
	return nil
}

func (m *mockChatService) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return m.resetErr
}

func (m *mockChatService) Status() domain.Status {
	return domain.Status{State: domain.StateReady, Model: m.Model(), Offline: m.offline}
}

func (m *mockChatService) Summarise(context.Context) (*domain.Summary, error) {
	return m.summary, m.summaryErr
}

func (m *mockChatService) History(context.Context, int) ([]domain.TranscriptEntry, error) {
	return nil, nil
}

func (m *mockChatService) ClearHistory(context.Context) error { return nil }

package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driving"
)

var (
	_ driving.ChatService     = (*mockChatService)(nil)
	_ driving.SettingsService = (*mockSettingsService)(nil)
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	mu sync.Mutex

	serveType  domain.ServeType
	serveErr   error
	modelErr   error
	progress   []domain.PullProgress
	offline    bool
	model      string
	loadResult domain.LoadResult
	reply      string
	chatErr    error
	summary    *domain.Summary
	summaryErr error
	history    []domain.TranscriptEntry
	historyErr error

	served  int
	pulled  []string
	loaded  []string
	asked   []string
	resets  int
	stopped int
	cleared int
	limits  []int
}

func newMockChatService() *mockChatService {
	return &mockChatService{
		serveType:  domain.ServeRunning,
		model:      domain.DefaultModel,
		loadResult: domain.LoadResult{Success: true, FileName: "guide.md", Chunks: 4},
		reply:      "An answer.",
		summary:    &domain.Summary{Success: true, Content: "A guide."},
	}
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

func (m *mockChatService) StopChat() {}

func (m *mockChatService) Serve(context.Context) (domain.ServeType, error) {
	m.served++
	return m.serveType, m.serveErr
}

func (m *mockChatService) RunModel(_ context.Context, model string, onProgress func(domain.PullProgress)) error {
	if model != "" {
		m.model = model
	}
	m.pulled = append(m.pulled, m.model)
	for _, p := range m.progress {
		onProgress(p)
	}
	return m.modelErr
}

func (m *mockChatService) Stop() error {
	m.stopped++
	return nil
}

func (m *mockChatService) Model() string { return m.model }

func (m *mockChatService) SetModel(name string) error {
	if name == "" {
		return domain.ErrInvalidInput
	}
	m.model = name
	return nil
}

func (m *mockChatService) Reset(context.Context) error {
	m.resets++
	return nil
}

func (m *mockChatService) Status() domain.Status {
	return domain.Status{State: domain.StateReady, Model: m.model, Offline: m.offline}
}

func (m *mockChatService) Summarise(context.Context) (*domain.Summary, error) {
	return m.summary, m.summaryErr
}

func (m *mockChatService) History(_ context.Context, limit int) ([]domain.TranscriptEntry, error) {
	m.limits = append(m.limits, limit)
	return m.history, m.historyErr
}

func (m *mockChatService) ClearHistory(context.Context) error {
	m.cleared++
	return m.historyErr
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	savedModels []string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetModel(name string) error {
	m.savedModels = append(m.savedModels, name)
	m.settings.LLM.Model = name
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

// setupTestServices installs fresh mocks and restores the globals when the
// test ends.
func setupTestServices(t *testing.T) (*mockChatService, *mockSettingsService) {
	t.Helper()

	chat := newMockChatService()
	settings := &mockSettingsService{settings: domain.DefaultAppSettings()}

	origChat, origSettings, origWatcher, origTerminal := chatService, settingsService, docWatcher, isTerminal
	chatService = chat
	settingsService = settings
	docWatcher = nil
	isTerminal = func() bool { return false }

	t.Cleanup(func() {
		chatService, settingsService, docWatcher, isTerminal = origChat, origSettings, origWatcher, origTerminal
	})
	return chat, settings
}

// executeCommand runs the root command with args and returns everything it
// printed.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandWithInput(t, "", args...)
}

func executeCommandWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	return run(t, context.Background(), input, args...)
}

func run(t *testing.T, ctx context.Context, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

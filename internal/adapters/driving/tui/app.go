package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/views/chat"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	keymap *keymap.KeyMap

	chatView *chat.View

	// changes fires when the watched document is written.
	changes   <-chan struct{}
	watchPath string
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:    ports,
		ctx:      context.Background(),
		keymap:   km,
		chatView: chat.NewView(s, km, ports.Chat),
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// WithDocument loads path once the model is ready.
func (a *App) WithDocument(path string) *App {
	a.chatView.WithDocument(path)
	return a
}

// WithWatch reloads path whenever changes fires.
func (a *App) WithWatch(path string, changes <-chan struct{}) *App {
	a.watchPath = path
	a.changes = changes
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("chatd"),
		a.chatView.Init(),
		a.waitChange(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			a.ports.Chat.StopChat()
			return a, tea.Quit
		}

	case messages.FileChanged:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, tea.Batch(cmd, a.waitChange())
	}

	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	return a.chatView.View()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// ChatView returns the chat view.
func (a *App) ChatView() *chat.View {
	return a.chatView
}

// waitChange turns the next file change into a FileChanged message.
func (a *App) waitChange() tea.Cmd {
	if a.changes == nil {
		return nil
	}
	changes, path := a.changes, a.watchPath
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return messages.FileChanged{Path: path}
	}
}

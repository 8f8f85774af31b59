// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateStarting State = "starting"
	StatePulling  State = "pulling"
	StateReady    State = "ready"
	StateLoading  State = "loading"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// Busy reports whether the state shows the spinner.
func (s State) Busy() bool {
	switch s {
	case StateStarting, StatePulling, StateLoading, StateThinking:
		return true
	default:
		return false
	}
}

// Bar displays application status and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	spinner  spinner.Model
	state    State
	message  string
	model    string
	document string
	offline  bool
	width    int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Spinner

	return &Bar{
		styles:  s,
		keymap:  km,
		spinner: sp,
		state:   StateStarting,
		width:   80,
	}
}

// Init starts the spinner.
func (s *Bar) Init() tea.Cmd {
	return s.spinner.Tick
}

// Update advances the spinner. Other messages are ignored.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the state, model and document.
func (s *Bar) renderLeft() string {
	var parts []string

	switch {
	case s.state == StateError:
		msg := "Error"
		if s.message != "" {
			msg = "Error: " + s.message
		}
		parts = append(parts, s.styles.Error.Render(msg))
	case s.state.Busy():
		msg := s.message
		if msg == "" {
			msg = defaultMessage(s.state)
		}
		parts = append(parts, s.spinner.View()+" "+msg)
	default:
		parts = append(parts, s.styles.Success.Render("Ready"))
	}

	if s.model != "" {
		parts = append(parts, s.model)
	}
	if s.document != "" {
		parts = append(parts, s.document)
	}
	if s.offline {
		parts = append(parts, s.styles.Warning.Render("offline"))
	}
	return strings.Join(parts, " | ")
}

func defaultMessage(st State) string {
	switch st {
	case StateStarting:
		return "Starting model server..."
	case StatePulling:
		return "Downloading AI model..."
	case StateLoading:
		return "Reading document..."
	default:
		return "Thinking..."
	}
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	if s.state == StateThinking {
		bindings = s.keymap.StreamingHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return strings.Join(hints, " | ")
}

// SetState sets the current state and clears the message.
func (s *Bar) SetState(state State) {
	s.state = state
	s.message = ""
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message for the current state.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetModel sets the model name shown in the bar.
func (s *Bar) SetModel(model string) {
	s.model = model
}

// SetDocument sets the loaded document name shown in the bar.
func (s *Bar) SetDocument(name string) {
	s.document = name
}

// Document returns the document name shown in the bar.
func (s *Bar) Document() string {
	return s.document
}

// SetOffline marks the model as running from the local copy.
func (s *Bar) SetOffline(offline bool) {
	s.offline = offline
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

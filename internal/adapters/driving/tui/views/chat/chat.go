// Package chat provides the chat view for the TUI: a scrolling transcript,
// the question input and the status bar.
package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chatd/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driving"
)

// HelpText lists the slash commands.
const HelpText = `Commands:
  /load <path>   chat about a document
  /reset         forget the conversation and the document
  /model [name]  show or switch the model
  /summary       summarise the loaded document
  /help          show this help`

// chrome is the number of lines used by the input and the status bar.
const chrome = 4

type turnKind int

const (
	turnUser turnKind = iota
	turnAssistant
	turnNotice
	turnError
)

type turn struct {
	kind turnKind
	text string
}

// View is the chat screen.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.ChatInput
	statusbar *status.Bar
	viewport  viewport.Model

	chat driving.ChatService
	ctx  context.Context

	turns []turn

	// stream identifies the current answer; events of older streams are dropped.
	stream    int
	streaming bool
	events    <-chan domain.ChatEvent
	errs      <-chan error

	// progress delivers RunModel events while a model is being prepared.
	progress <-chan tea.Msg

	// pendingDoc is loaded once the model is ready.
	pendingDoc string
	// docPath is the path of the loaded document, reused on reload.
	docPath string

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chat driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewChatInput(s),
		statusbar: status.NewBar(s, km),
		viewport:  viewport.New(80, 20),
		chat:      chat,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithDocument loads path once the model is ready.
func (v *View) WithDocument(path string) *View {
	v.pendingDoc = path
	return v
}

// Init starts the model server.
func (v *View) Init() tea.Cmd {
	if v.chat != nil {
		v.statusbar.SetModel(v.chat.Model())
	}
	return tea.Batch(v.input.Init(), v.statusbar.Init(), v.serveCmd())
}

// Update handles messages for the chat view.
//
//nolint:gocyclo // central message handler
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.statusbar, cmd = v.statusbar.Update(msg)
		return v, cmd

	case messages.ServerStarted:
		if msg.Err != nil {
			v.fail(fmt.Errorf("could not start the model server: %w", msg.Err))
			return v, nil
		}
		return v, v.runModelCmd("")

	case messages.PullProgressed:
		v.statusbar.SetState(status.StatePulling)
		v.statusbar.SetMessage(msg.Progress.Describe())
		return v, waitMsg(v.progress)

	case messages.ModelReady:
		return v, v.handleModelReady(msg)

	case messages.DocumentLoaded:
		v.handleDocumentLoaded(msg)
		return v, nil

	case messages.FileChanged:
		if v.docPath == "" || msg.Path != v.docPath {
			return v, nil
		}
		v.addTurn(turnNotice, fmt.Sprintf("%s changed, reloading...", filepath.Base(msg.Path)))
		return v, v.loadCmd(msg.Path)

	case messages.StreamStarted:
		if msg.Stream != v.stream {
			go drain(msg.Events, msg.Errs)
			return v, nil
		}
		v.events, v.errs = msg.Events, msg.Errs
		return v, waitChunk(msg.Stream, msg.Events, msg.Errs)

	case messages.ChunkReceived:
		if msg.Stream != v.stream {
			return v, nil
		}
		v.appendAnswer(msg.Content)
		return v, waitChunk(msg.Stream, v.events, v.errs)

	case messages.StreamEnded:
		if msg.Stream == v.stream {
			v.handleStreamEnded(msg.Err)
		}
		return v, nil

	case messages.ResetDone:
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.turns = nil
		v.docPath = ""
		v.statusbar.SetDocument("")
		v.statusbar.SetState(status.StateReady)
		v.input.SetPlaceholder(input.DefaultPlaceholder)
		v.addTurn(turnNotice, "Conversation cleared.")
		return v, nil

	case messages.SummaryReady:
		v.statusbar.SetState(status.StateReady)
		switch {
		case msg.Err != nil:
			v.addTurn(turnError, msg.Err.Error())
		case !msg.Summary.Success:
			v.addTurn(turnNotice, "The model could not summarise this document.")
		default:
			v.addTurn(turnAssistant, msg.Summary.Content)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Abort):
		if v.streaming && v.chat != nil {
			v.chat.StopChat()
		}
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ScrollUp), keymap.Matches(keyStr, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case keymap.Matches(keyStr, v.keymap.Send):
		text := v.input.Submit()
		if text == "" {
			return v, nil
		}
		if strings.HasPrefix(text, "/") {
			return v, v.handleCommand(text)
		}
		return v, v.send(text)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleCommand runs a slash command.
func (v *View) handleCommand(line string) tea.Cmd {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/load":
		if arg == "" {
			v.addTurn(turnError, "usage: /load <path>")
			return nil
		}
		v.addTurn(turnNotice, fmt.Sprintf("Reading %s...", arg))
		return v.loadCmd(arg)

	case "/reset":
		return v.resetCmd()

	case "/model":
		if arg == "" {
			v.addTurn(turnNotice, fmt.Sprintf("Current model: %s", v.chat.Model()))
			return nil
		}
		return v.runModelCmd(arg)

	case "/summary":
		v.statusbar.SetState(status.StateThinking)
		return v.summaryCmd()

	case "/help":
		v.addTurn(turnNotice, HelpText)
		return nil

	default:
		v.addTurn(turnError, fmt.Sprintf("unknown command %s (try /help)", name))
		return nil
	}
}

// send starts a new answer stream. A stream in flight is abandoned; the
// service cancels it.
func (v *View) send(text string) tea.Cmd {
	if v.streaming {
		go drain(v.events, v.errs)
	}

	v.stream++
	v.streaming = true
	v.events, v.errs = nil, nil
	v.addTurn(turnUser, text)
	v.addTurn(turnAssistant, "")
	v.statusbar.SetState(status.StateThinking)

	id, chat, ctx := v.stream, v.chat, v.ctx
	return func() tea.Msg {
		events, errs := chat.SendChat(ctx, text)
		return messages.StreamStarted{Stream: id, Events: events, Errs: errs}
	}
}

func (v *View) handleStreamEnded(err error) {
	v.streaming = false
	v.events, v.errs = nil, nil
	v.statusbar.SetState(status.StateReady)

	switch {
	case err == nil:
	case domain.IsCancelled(err):
		v.addTurn(turnNotice, "(stopped)")
	default:
		v.dropEmptyAnswer()
		v.addTurn(turnError, err.Error())
	}
}

func (v *View) handleModelReady(msg messages.ModelReady) tea.Cmd {
	v.progress = nil
	if msg.Err != nil {
		v.fail(fmt.Errorf("could not prepare %s: %w", msg.Model, msg.Err))
		return nil
	}

	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetModel(msg.Model)
	v.statusbar.SetOffline(v.chat.Status().Offline)

	if v.pendingDoc != "" {
		path := v.pendingDoc
		v.pendingDoc = ""
		v.addTurn(turnNotice, fmt.Sprintf("Reading %s...", path))
		return v.loadCmd(path)
	}
	return nil
}

func (v *View) handleDocumentLoaded(msg messages.DocumentLoaded) {
	res := msg.Result
	if domain.IsCancelled(res.Err) {
		return
	}

	v.statusbar.SetState(status.StateReady)
	if !res.Success {
		v.docPath = ""
		v.statusbar.SetDocument("")
		v.input.SetPlaceholder(input.DefaultPlaceholder)
		v.addTurn(turnError, describeLoadError(res))
		return
	}

	v.statusbar.SetDocument(res.FileName)
	v.input.SetPlaceholder(fmt.Sprintf("Ask a question about %s", res.FileName))
	v.addTurn(turnNotice, fmt.Sprintf("Loaded %s (%d chunks). Ask a question about it.", res.FileName, res.Chunks))
}

func describeLoadError(res domain.LoadResult) string {
	switch {
	case errors.Is(res.Err, domain.ErrUnsupportedFormat):
		return "That file type is not supported. Try text, Markdown, PDF, DOCX, ODT or HTML."
	case errors.Is(res.Err, domain.ErrNoFileSelected):
		return "No file selected."
	case res.FileName != "":
		return fmt.Sprintf("Could not load %s: %v", res.FileName, res.Err)
	default:
		return fmt.Sprintf("Could not load the document: %v", res.Err)
	}
}

// serveCmd makes a model server available.
func (v *View) serveCmd() tea.Cmd {
	if v.chat == nil {
		return nil
	}
	chat, ctx := v.chat, v.ctx
	return func() tea.Msg {
		st, err := chat.Serve(ctx)
		return messages.ServerStarted{Type: st, Err: err}
	}
}

// runModelCmd pulls and warms up model, reporting progress as it goes.
func (v *View) runModelCmd(model string) tea.Cmd {
	v.statusbar.SetState(status.StatePulling)

	ch := make(chan tea.Msg, 16)
	v.progress = ch
	chat, ctx := v.chat, v.ctx

	go func() {
		defer close(ch)
		err := chat.RunModel(ctx, model, func(p domain.PullProgress) {
			ch <- messages.PullProgressed{Progress: p}
		})
		name := model
		if name == "" {
			name = chat.Model()
		}
		ch <- messages.ModelReady{Model: name, Err: err}
	}()

	return waitMsg(ch)
}

// loadCmd loads path and waits for the result.
func (v *View) loadCmd(path string) tea.Cmd {
	v.docPath = path
	v.statusbar.SetState(status.StateLoading)
	chat, ctx := v.chat, v.ctx
	return func() tea.Msg {
		return messages.DocumentLoaded{Result: <-chat.LoadDocument(ctx, path)}
	}
}

func (v *View) resetCmd() tea.Cmd {
	chat, ctx := v.chat, v.ctx
	return func() tea.Msg {
		return messages.ResetDone{Err: chat.Reset(ctx)}
	}
}

func (v *View) summaryCmd() tea.Cmd {
	chat, ctx := v.chat, v.ctx
	return func() tea.Msg {
		summary, err := chat.Summarise(ctx)
		return messages.SummaryReady{Summary: summary, Err: err}
	}
}

// waitMsg returns the next message from ch. A closed channel yields nil.
func waitMsg(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return <-ch
	}
}

// waitChunk reads the next event of a stream.
func waitChunk(stream int, events <-chan domain.ChatEvent, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return messages.StreamEnded{Stream: stream, Err: <-errs}
		}
		return messages.ChunkReceived{Stream: stream, Content: ev.Content}
	}
}

// drain consumes an abandoned stream so its producer can finish.
func drain(events <-chan domain.ChatEvent, errs <-chan error) {
	if events == nil {
		return
	}
	for range events {
	}
	<-errs
}

func (v *View) fail(err error) {
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.addTurn(turnError, err.Error())
}

func (v *View) addTurn(kind turnKind, text string) {
	v.turns = append(v.turns, turn{kind: kind, text: text})
	v.refresh()
}

// appendAnswer extends the answer being streamed.
func (v *View) appendAnswer(content string) {
	if n := len(v.turns); n > 0 && v.turns[n-1].kind == turnAssistant {
		v.turns[n-1].text += content
	} else {
		v.turns = append(v.turns, turn{kind: turnAssistant, text: content})
	}
	v.refresh()
}

func (v *View) dropEmptyAnswer() {
	if n := len(v.turns); n > 0 && v.turns[n-1].kind == turnAssistant && v.turns[n-1].text == "" {
		v.turns = v.turns[:n-1]
	}
}

func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	wrap := lipgloss.NewStyle().Width(max(v.viewport.Width, 20))

	var b strings.Builder
	for i, t := range v.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		switch t.kind {
		case turnUser:
			b.WriteString(v.styles.User.Render("You") + "\n")
			b.WriteString(wrap.Render(v.styles.Normal.Render(t.text)) + "\n")
		case turnAssistant:
			b.WriteString(v.styles.Assistant.Render(v.assistantName()) + "\n")
			b.WriteString(wrap.Render(v.styles.Normal.Render(t.text)) + "\n")
		case turnNotice:
			b.WriteString(wrap.Render(v.styles.Muted.Render(t.text)) + "\n")
		case turnError:
			b.WriteString(wrap.Render(v.styles.Error.Render(t.text)) + "\n")
		}
	}
	return b.String()
}

func (v *View) assistantName() string {
	if v.chat == nil {
		return "chatd"
	}
	return v.chat.Model()
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		v.viewport.View(),
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.viewport.Width = width
	v.viewport.Height = max(height-chrome, 1)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Ready returns whether the view has received its dimensions.
func (v *View) Ready() bool {
	return v.ready
}

// Streaming reports whether an answer is being streamed.
func (v *View) Streaming() bool {
	return v.streaming
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// Transcript returns the plain text of every turn, for tests and export.
func (v *View) Transcript() []string {
	out := make([]string, len(v.turns))
	for i, t := range v.turns {
		out[i] = t.text
	}
	return out
}

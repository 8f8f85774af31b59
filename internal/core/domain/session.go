package domain

import (
	"strconv"
	"strings"
	"time"
)

// SessionState is the lifecycle state of the model session.
type SessionState string

// Session states.
const (
	StateUnstarted  SessionState = "unstarted"
	StateStarting   SessionState = "starting"
	StateReady      SessionState = "ready"
	StatePulling    SessionState = "pulling"
	StateGenerating SessionState = "generating"
	StateStopped    SessionState = "stopped"
)

// String returns the string representation.
func (s SessionState) String() string {
	return string(s)
}

// ServeType reports how the model server became available.
type ServeType string

// Serve types.
const (
	// ServeRunning means a server was already running and is not owned by this session.
	ServeRunning ServeType = "running"

	// ServeSystem means the system-installed executable was launched.
	ServeSystem ServeType = "system"

	// ServePackaged means the bundled executable was launched.
	ServePackaged ServeType = "packaged"
)

// String returns the string representation.
func (t ServeType) String() string {
	return string(t)
}

// Owned reports whether this session launched the server process.
func (t ServeType) Owned() bool {
	return t == ServeSystem || t == ServePackaged
}

// LaunchSpec describes a model server process to start.
type LaunchSpec struct {
	// Binary is an executable name on PATH or an absolute path.
	Binary string

	// Args are passed to the binary.
	Args []string

	// Env holds extra KEY=value pairs added to the inherited environment.
	Env []string
}

// Role is the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation context.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest is a request for a streamed chat completion.
type ChatRequest struct {
	Model    string
	Messages []Message

	// Format asks the server for structured output, e.g. "json".
	Format string
}

// ChatEvent is one incremental event from a chat or generate stream.
type ChatEvent struct {
	// Content is the partial assistant output carried by this event.
	Content string

	// Done marks the terminal event.
	Done bool
}

// PullPhase classifies a model download event.
type PullPhase string

// Pull phases.
const (
	PullDownloading PullPhase = "downloading"
	PullVerifying   PullPhase = "verifying"
	PullSuccess     PullPhase = "success"
	PullOffline     PullPhase = "offline"
	PullOther       PullPhase = "other"
)

// PullProgress is one model download progress event.
type PullProgress struct {
	Phase     PullPhase
	Status    string
	Completed int64
	Total     int64

	// Percent is 0-100 while downloading with a known total, otherwise -1.
	Percent int
}

// NewPullProgress classifies a raw server status line.
func NewPullProgress(status string, completed, total int64) PullProgress {
	p := PullProgress{Status: status, Completed: completed, Total: total, Percent: -1}
	switch {
	case status == "success":
		p.Phase = PullSuccess
	case strings.Contains(strings.ToLower(status), "verifying"):
		p.Phase = PullVerifying
	case strings.HasPrefix(strings.ToLower(status), "pulling") || strings.HasPrefix(strings.ToLower(status), "downloading"):
		p.Phase = PullDownloading
		if total > 0 {
			p.Percent = int((completed*100 + total/2) / total)
		}
	default:
		p.Phase = PullOther
	}
	return p
}

// Describe returns a short human-readable progress line.
func (p PullProgress) Describe() string {
	switch p.Phase {
	case PullDownloading:
		if p.Percent < 0 {
			return "Downloading AI model..."
		}
		return "Downloading AI model... " + strconv.Itoa(p.Percent) + "%"
	case PullVerifying:
		return "Verifying AI model..."
	case PullSuccess:
		return "AI model ready"
	case PullOffline:
		return "Offline, using the local copy of the AI model"
	default:
		return "Initializing..."
	}
}

// Status is a snapshot of the application state.
type Status struct {
	State     SessionState
	Model     string
	Offline   bool
	Loading   bool
	Document  *DocumentInfo
	StoreSize int
}

// TranscriptEntry is one archived chat turn.
type TranscriptEntry struct {
	ID        string
	Document  string
	Role      Role
	Content   string
	Model     string
	CreatedAt time.Time
}

// Summary is the model's structured answer to a summary request.
type Summary struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
}

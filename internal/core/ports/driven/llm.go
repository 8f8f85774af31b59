// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

// ModelServer is the HTTP API of a local model server.
//
// Streaming operations return a pair of channels. The event channel is
// closed when the stream ends; the error channel then carries at most one
// error and is closed as well. Callers should drain events before reading
// the error.
type ModelServer interface {
	// Ping checks that a server answers on the configured host.
	Ping(ctx context.Context) error

	// Pull downloads a model, reporting progress.
	Pull(ctx context.Context, model string) (<-chan domain.PullProgress, <-chan error)

	// Chat streams the reply to a conversation.
	Chat(ctx context.Context, req domain.ChatRequest) (<-chan domain.ChatEvent, <-chan error)

	// Generate streams a completion for a bare prompt.
	// An empty prompt loads the model into memory without generating.
	Generate(ctx context.Context, model, prompt string) (<-chan domain.ChatEvent, <-chan error)

	// Host returns the base URL the client talks to.
	Host() string
}

// ServerLauncher starts model server processes.
type ServerLauncher interface {
	// Launch starts the process described by spec.
	// The process keeps running after ctx is done; use ServerProcess.Stop.
	Launch(ctx context.Context, spec domain.LaunchSpec) (ServerProcess, error)
}

// ServerProcess is a running model server started by a ServerLauncher.
type ServerProcess interface {
	// PID returns the operating system process id.
	PID() int

	// Exited is closed when the process ends.
	Exited() <-chan struct{}

	// Stop terminates the process and its children.
	Stop() error
}

package driving

import (
	"context"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

// ChatService is the caller-facing API of the document-grounded chat.
type ChatService interface {
	// LoadDocument clears the current document and conversation, then parses,
	// embeds and stores the file at path in the background. The single
	// result is delivered on the returned channel. A newer load supersedes
	// an older one.
	LoadDocument(ctx context.Context, path string) <-chan domain.LoadResult

	// SendChat streams the model's answer to message, grounded in the
	// loaded document when there is one. The event channel closes when the
	// answer ends; the error channel then carries at most one error.
	SendChat(ctx context.Context, message string) (<-chan domain.ChatEvent, <-chan error)

	// StopChat aborts the answer in progress. The stream ends with
	// domain.ErrCancelled.
	StopChat()

	// Serve makes a model server available.
	Serve(ctx context.Context) (domain.ServeType, error)

	// RunModel pulls and warms up model, making it the current model.
	// An empty model uses the current one.
	RunModel(ctx context.Context, model string, onProgress func(domain.PullProgress)) error

	// Stop aborts all work and shuts down a server this service started.
	Stop() error

	// Model returns the current chat model.
	Model() string

	// SetModel changes the chat model used by later requests.
	SetModel(name string) error

	// Reset forgets the conversation and unloads the document.
	Reset(ctx context.Context) error

	// Status returns a snapshot of the service state.
	Status() domain.Status

	// Summarise asks the model to describe the loaded document.
	Summarise(ctx context.Context) (*domain.Summary, error)

	// History returns the latest recorded chat turns, oldest first.
	History(ctx context.Context, limit int) ([]domain.TranscriptEntry, error)

	// ClearHistory deletes every recorded chat turn.
	ClearHistory(ctx context.Context) error
}

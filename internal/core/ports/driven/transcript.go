package driven

import (
	"context"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

// TranscriptStore persists completed chat turns.
type TranscriptStore interface {
	// Append records one entry. A missing ID or CreatedAt is filled in.
	Append(ctx context.Context, entry *domain.TranscriptEntry) error

	// Recent returns the latest limit entries, oldest first.
	// A limit <= 0 returns every entry.
	Recent(ctx context.Context, limit int) ([]domain.TranscriptEntry, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

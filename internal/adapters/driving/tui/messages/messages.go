// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/chatd/internal/core/domain"
)

// ServerStarted reports the outcome of making a model server available.
type ServerStarted struct {
	Type domain.ServeType
	Err  error
}

// PullProgressed carries one model download event.
type PullProgressed struct {
	Progress domain.PullProgress
}

// ModelReady is sent when a model has been pulled and warmed up.
type ModelReady struct {
	Model string
	Err   error
}

// DocumentLoaded carries the result of a document load.
type DocumentLoaded struct {
	Result domain.LoadResult
}

// FileChanged is sent when the watched document changes on disk.
type FileChanged struct {
	Path string
}

// ChunkReceived carries one piece of a streamed answer.
// Stream identifies the answer so events of an abandoned stream are ignored.
type ChunkReceived struct {
	Stream  int
	Content string
}

// StreamEnded is sent when an answer stream closes.
type StreamEnded struct {
	Stream int
	Err    error
}

// ResetDone is sent when the conversation and document have been cleared.
type ResetDone struct {
	Err error
}

// SummaryReady carries a document summary.
type SummaryReady struct {
	Summary *domain.Summary
	Err     error
}

// ErrorOccurred is sent when an error occurs outside a chat turn.
type ErrorOccurred struct {
	Err error
}

// StreamStarted carries the channels of a new answer stream.
type StreamStarted struct {
	Stream int
	Events <-chan domain.ChatEvent
	Errs   <-chan error
}

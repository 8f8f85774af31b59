package domain

import (
	"context"
	"errors"
)

// Domain errors represent business logic failures.
// Adapters wrap them with context; callers match them with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Document Errors.

	// ErrNoFileSelected indicates no document path was supplied.
	ErrNoFileSelected = errors.New("no file selected")

	// ErrUnsupportedFormat indicates the document cannot be handled by any parser.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrParse indicates the document could not be decoded.
	ErrParse = errors.New("document parse failed")

	// ErrDimensionMismatch indicates vectors of different sizes were mixed in one store.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Model Server Errors.

	// ErrNetwork indicates the model server was unreachable or answered with a non-200 status.
	ErrNetwork = errors.New("model server request failed")

	// ErrStreamTruncated indicates a stream closed before its terminal event.
	ErrStreamTruncated = errors.New("stream ended before completion")

	// ErrCancelled indicates the request was aborted by the user.
	// It must never be shown to the user as a failure.
	ErrCancelled = errors.New("request cancelled")

	// ErrServeFailed indicates no model server could be reached or started.
	ErrServeFailed = errors.New("failed to start model server")

	// ErrSessionStopped indicates the session was shut down.
	ErrSessionStopped = errors.New("session stopped")
)

// IsCancelled reports whether err is a user cancellation rather than a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// Package mcp provides an MCP (Model Context Protocol) server adapter for chatd.
// It lets AI assistants load a local document and ask questions about it.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")

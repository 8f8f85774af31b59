package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for chatd resources.
	uriScheme = "chatd://"

	// defaultHistoryLimit is used by the plain history resource.
	defaultHistoryLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Model, session state and loaded document",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "document",
		Name:        "document",
		Description: "Section headings of the loaded document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Recent recorded chat turns",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "history/{limit}",
		Name:        "history-limit",
		Description: "The latest {limit} recorded chat turns",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleStatusResource returns the service state.
func (s *Server) handleStatusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, statusOutput(s.ports.Chat.Status()))
}

// handleDocumentResource returns the loaded document's outline.
func (s *Server) handleDocumentResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	doc := s.ports.Chat.Status().Document
	if doc == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	type docInfo struct {
		FileName string   `json:"file_name"`
		Format   string   `json:"format"`
		Sections []string `json:"sections"`
		Chunks   int      `json:"chunks"`
	}

	return jsonResource(req.Params.URI, docInfo{
		FileName: doc.FileName,
		Format:   string(doc.Format),
		Sections: doc.Sections,
		Chunks:   doc.Chunks,
	})
}

// handleHistoryResource returns recorded chat turns.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	limit := defaultHistoryLimit
	if req.Params.URI != uriScheme+"history" {
		limit = extractLimit(req.Params.URI)
		if limit <= 0 {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
	}

	entries, err := s.ports.Chat.History(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	type turn struct {
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		Document  string    `json:"document,omitempty"`
		Model     string    `json:"model"`
		CreatedAt time.Time `json:"created_at"`
	}

	turns := make([]turn, len(entries))
	for i := range entries {
		turns[i] = turn{
			Role:      string(entries[i].Role),
			Content:   entries[i].Content,
			Document:  entries[i].Document,
			Model:     entries[i].Model,
			CreatedAt: entries[i].CreatedAt,
		}
	}
	return jsonResource(req.Params.URI, turns)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractLimit extracts the limit from a URI like chatd://history/{limit}.
// Returns 0 if the URI does not match or the limit is not a positive number.
func extractLimit(uri string) int {
	const prefix = uriScheme + "history/"

	if !strings.HasPrefix(uri, prefix) {
		return 0
	}

	n, err := strconv.Atoi(strings.TrimPrefix(uri, prefix))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

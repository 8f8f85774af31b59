package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

// LoadDocumentInput is the input schema for the load_document tool.
type LoadDocumentInput struct {
	Path string `json:"path" jsonschema:"absolute path of the document to load"`
}

// LoadDocumentOutput is the output schema for the load_document tool.
type LoadDocumentOutput struct {
	FileName string   `json:"file_name"`
	Chunks   int      `json:"chunks"`
	Sections []string `json:"sections,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to ask about the loaded document"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string `json:"answer"`
	Document string `json:"document,omitempty"`
}

// EmptyInput is the input schema for tools without arguments.
type EmptyInput struct{}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	State    string   `json:"state"`
	Model    string   `json:"model"`
	Offline  bool     `json:"offline"`
	Loading  bool     `json:"loading"`
	Document string   `json:"document,omitempty"`
	Format   string   `json:"format,omitempty"`
	Sections []string `json:"sections,omitempty"`
	Chunks   int      `json:"chunks"`
}

// ResetOutput is the output schema for the reset tool.
type ResetOutput struct {
	Reset bool `json:"reset"`
}

// SummaryOutput is the output schema for the summary tool.
type SummaryOutput struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "load_document",
		Description: "Load a local document (text, Markdown, PDF, DOCX, ODT or HTML) to ground later questions in",
	}, s.handleLoadDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask the local model a question, answered from the loaded document when there is one",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report the model, session state and loaded document",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reset",
		Description: "Forget the conversation and unload the document",
	}, s.handleReset)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summary",
		Description: "Summarise the loaded document from its file name and section headings",
	}, s.handleSummary)
}

// handleLoadDocument loads a document and waits for it to be embedded.
func (s *Server) handleLoadDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LoadDocumentInput,
) (*mcp.CallToolResult, LoadDocumentOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, LoadDocumentOutput{}, domain.ErrNoFileSelected
	}

	var res domain.LoadResult
	select {
	case res = <-s.ports.Chat.LoadDocument(ctx, input.Path):
	case <-ctx.Done():
		return nil, LoadDocumentOutput{}, ctx.Err()
	}
	if !res.Success {
		return nil, LoadDocumentOutput{}, fmt.Errorf("loading %s: %w", input.Path, res.Err)
	}

	output := LoadDocumentOutput{
		FileName: res.FileName,
		Chunks:   res.Chunks,
	}
	if doc := s.ports.Chat.Status().Document; doc != nil {
		output.Sections = doc.Sections
	}
	return nil, output, nil
}

// handleAsk streams an answer to completion.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := collect(s.ports.Chat.SendChat(ctx, input.Question))
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{Answer: answer}
	if doc := s.ports.Chat.Status().Document; doc != nil {
		output.Document = doc.FileName
	}
	return nil, output, nil
}

// handleStatus reports the service state.
func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return nil, statusOutput(s.ports.Chat.Status()), nil
}

// handleReset clears the conversation and document.
func (s *Server) handleReset(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, ResetOutput, error) {
	if err := s.ports.Chat.Reset(ctx); err != nil {
		return nil, ResetOutput{}, err
	}
	return nil, ResetOutput{Reset: true}, nil
}

// handleSummary summarises the loaded document.
func (s *Server) handleSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, SummaryOutput, error) {
	summary, err := s.ports.Chat.Summarise(ctx)
	if err != nil {
		return nil, SummaryOutput{}, err
	}
	return nil, SummaryOutput{Success: summary.Success, Content: summary.Content}, nil
}

func statusOutput(st domain.Status) StatusOutput {
	out := StatusOutput{
		State:   st.State.String(),
		Model:   st.Model,
		Offline: st.Offline,
		Loading: st.Loading,
		Chunks:  st.StoreSize,
	}
	if st.Document != nil {
		out.Document = st.Document.FileName
		out.Format = string(st.Document.Format)
		out.Sections = st.Document.Sections
	}
	return out
}

// collect drains a chat stream into the full answer.
func collect(events <-chan domain.ChatEvent, errs <-chan error) (string, error) {
	var b strings.Builder
	for ev := range events {
		b.WriteString(ev.Content)
	}
	if err := <-errs; err != nil {
		return "", err
	}
	return b.String(), nil
}

// Package ollama provides the model server adapter for Ollama.
//
// Requests are built by hand on net/http using the wire types from the
// ollama api package. Streamed replies are newline-delimited JSON objects,
// each delivered to the caller before more of the body is read.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ModelServer = (*Client)(nil)

// Default configuration values.
const (
	DefaultHost        = "http://127.0.0.1:11434"
	DefaultPingTimeout = 5 * time.Second
)

// Config holds configuration for the Ollama client.
type Config struct {
	// Host is the server base URL. Empty uses OLLAMA_HOST, then DefaultHost.
	Host string

	// PingTimeout bounds the non-streaming ping request (default: 5s).
	PingTimeout time.Duration

	// HTTPClient is used for streaming requests. It should have no overall
	// timeout since generations can run for minutes (default: a new client).
	HTTPClient *http.Client
}

// Client talks to an Ollama server.
type Client struct {
	ping   *http.Client
	stream *http.Client
	host   string
}

// NewClient creates a new Ollama client.
func NewClient(cfg Config) *Client {
	if cfg.Host == "" {
		cfg.Host = defaultHost()
	}
	if cfg.PingTimeout == 0 {
		cfg.PingTimeout = DefaultPingTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &Client{
		ping:   &http.Client{Timeout: cfg.PingTimeout, Transport: cfg.HTTPClient.Transport},
		stream: cfg.HTTPClient,
		host:   strings.TrimRight(cfg.Host, "/"),
	}
}

func defaultHost() string {
	if u := envconfig.Host(); u != nil && u.Host != "" {
		return u.String()
	}
	return DefaultHost
}

// Host returns the base URL the client talks to.
func (c *Client) Host() string {
	return c.host
}

// Ping checks that the server answers GET / with 200.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := c.ping.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ping returned status %d", domain.ErrNetwork, resp.StatusCode)
	}
	return nil
}

// Pull downloads model, streaming progress events until "success". An error
// reported by the server mid-pull means it could not fetch from its registry
// and is classified as ErrNetwork.
func (c *Client) Pull(ctx context.Context, model string) (<-chan domain.PullProgress, <-chan error) {
	stream := true
	req := api.PullRequest{Model: model, Name: model, Stream: &stream}

	return streamEvents(ctx, c, "/api/pull", req, func(line []byte) (domain.PullProgress, bool, error) {
		var resp api.ProgressResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return domain.PullProgress{}, false, fmt.Errorf("decode pull event: %w", err)
		}
		p := domain.NewPullProgress(resp.Status, resp.Completed, resp.Total)
		return p, p.Phase == domain.PullSuccess, nil
	}, pullError)
}

func pullError(msg string) error {
	return fmt.Errorf("%w: ollama: %s", domain.ErrNetwork, msg)
}

// Chat streams the reply to a conversation.
func (c *Client) Chat(ctx context.Context, req domain.ChatRequest) (<-chan domain.ChatEvent, <-chan error) {
	stream := true
	body := api.ChatRequest{
		Model:    req.Model,
		Messages: make([]api.Message, len(req.Messages)),
		Stream:   &stream,
	}
	for i, m := range req.Messages {
		body.Messages[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}
	if req.Format != "" {
		format, _ := json.Marshal(req.Format)
		body.Format = format
	}

	return streamEvents(ctx, c, "/api/chat", body, func(line []byte) (domain.ChatEvent, bool, error) {
		var resp api.ChatResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return domain.ChatEvent{}, false, fmt.Errorf("decode chat event: %w", err)
		}
		return domain.ChatEvent{Content: resp.Message.Content, Done: resp.Done}, resp.Done, nil
	}, serverError)
}

// Generate streams a completion for a bare prompt.
func (c *Client) Generate(ctx context.Context, model, prompt string) (<-chan domain.ChatEvent, <-chan error) {
	stream := true
	body := api.GenerateRequest{Model: model, Prompt: prompt, Stream: &stream}

	return streamEvents(ctx, c, "/api/generate", body, func(line []byte) (domain.ChatEvent, bool, error) {
		var resp api.GenerateResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return domain.ChatEvent{}, false, fmt.Errorf("decode generate event: %w", err)
		}
		return domain.ChatEvent{Content: resp.Response, Done: resp.Done}, resp.Done, nil
	}, serverError)
}

// post sends a JSON body and returns the response once a 200 status is seen.
func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		return nil, fmt.Errorf("%w: send request: %w", domain.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err != nil {
			return nil, fmt.Errorf("%w: ollama error (status %d): failed to read response", domain.ErrNetwork, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: ollama error (status %d): %s",
			domain.ErrNetwork, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
}

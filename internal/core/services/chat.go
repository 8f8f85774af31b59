package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/core/ports/driving"
	"github.com/custodia-labs/chatd/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatConfig configures a ChatService.
type ChatConfig struct {
	// Model is the initial chat model.
	Model string

	// K is the number of chunks retrieved per question.
	K int
}

// ChatService wires document loading, retrieval and the model session
// together.
type ChatService struct {
	session     *SessionService
	parser      driven.DocumentParser
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	prompts     *PromptAssembler
	transcripts driven.TranscriptStore
	k           int

	mu         sync.Mutex
	model      string
	doc        *domain.DocumentInfo
	loading    bool
	loadGen    uint64
	loadCancel context.CancelFunc
}

// NewChatService creates a chat service. transcripts may be nil to disable
// chat history.
func NewChatService(
	session *SessionService,
	parser driven.DocumentParser,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	prompts *PromptAssembler,
	transcripts driven.TranscriptStore,
	cfg ChatConfig,
) *ChatService {
	if cfg.Model == "" {
		cfg.Model = domain.DefaultModel
	}
	if cfg.K <= 0 {
		cfg.K = domain.DefaultSearchK
	}
	if prompts == nil {
		prompts = NewPromptAssembler(nil, domain.DefaultContextChars)
	}
	return &ChatService{
		session:     session,
		parser:      parser,
		embedder:    embedder,
		store:       store,
		prompts:     prompts,
		transcripts: transcripts,
		k:           cfg.K,
		model:       cfg.Model,
	}
}

// LoadDocument clears the store and the conversation, then loads path in
// the background.
func (s *ChatService) LoadDocument(ctx context.Context, path string) <-chan domain.LoadResult {
	result := make(chan domain.LoadResult, 1)

	s.mu.Lock()
	if s.loadCancel != nil {
		s.loadCancel()
	}
	s.loadGen++
	gen := s.loadGen
	lctx, cancel := context.WithCancel(ctx)
	s.loadCancel = cancel
	s.loading = true
	s.doc = nil
	err := s.store.Reset(ctx)
	s.mu.Unlock()

	s.session.Reset()

	if err != nil {
		s.finishLoad(gen, nil, 0, fmt.Errorf("reset store: %w", err), result)
		return result
	}

	go s.load(lctx, gen, path, result)
	return result
}

func (s *ChatService) load(ctx context.Context, gen uint64, path string, result chan<- domain.LoadResult) {
	logger.Debug("loading %s", path)

	doc, err := s.parser.Parse(ctx, path)
	if err != nil {
		s.finishLoad(gen, nil, 0, err, result)
		return
	}

	texts := doc.Texts()
	var embeddings []domain.Embedding
	if len(texts) > 0 {
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			s.finishLoad(gen, doc, 0, fmt.Errorf("embed %s: %w", doc.FileName, err), result)
			return
		}
		embeddings = make([]domain.Embedding, len(texts))
		for i, text := range texts {
			embeddings[i] = domain.Embedding{Text: text, Vector: vectors[i]}
		}
	}

	s.mu.Lock()
	if gen != s.loadGen {
		s.mu.Unlock()
		result <- domain.LoadResult{FileName: doc.FileName, Err: errSuperseded}
		return
	}
	err = s.store.AddAll(ctx, embeddings)
	s.mu.Unlock()

	if err != nil {
		s.finishLoad(gen, doc, 0, fmt.Errorf("store %s: %w", doc.FileName, err), result)
		return
	}
	s.finishLoad(gen, doc, len(embeddings), nil, result)
}

var errSuperseded = fmt.Errorf("%w: superseded by a newer document", domain.ErrCancelled)

// finishLoad publishes the outcome of load gen. Outcomes of superseded
// loads are reported to their caller but change no state.
func (s *ChatService) finishLoad(gen uint64, doc *domain.Document, chunks int, err error, result chan<- domain.LoadResult) {
	res := domain.LoadResult{Success: err == nil, Chunks: chunks, Err: err}
	if doc != nil {
		res.FileName = doc.FileName
	}

	s.mu.Lock()
	if gen == s.loadGen {
		s.loading = false
		if s.loadCancel != nil {
			s.loadCancel()
			s.loadCancel = nil
		}
		if err == nil {
			s.doc = &domain.DocumentInfo{
				FileName: doc.FileName,
				Format:   doc.Format,
				Sections: doc.SectionLabels(),
				Chunks:   chunks,
			}
		}
	} else if err == nil {
		res = domain.LoadResult{FileName: res.FileName, Err: errSuperseded}
	}
	s.mu.Unlock()

	if res.Success {
		logger.Info("loaded %s (%d chunks)", res.FileName, chunks)
	} else if !domain.IsCancelled(res.Err) {
		logger.Debug("load failed: %v", res.Err)
	}
	result <- res
}

// SendChat answers message, grounding it in the loaded document.
func (s *ChatService) SendChat(ctx context.Context, message string) (<-chan domain.ChatEvent, <-chan error) {
	if strings.TrimSpace(message) == "" {
		return failedStream(fmt.Errorf("%w: empty message", domain.ErrInvalidInput))
	}

	prompt := message
	if s.store.Size() > 0 {
		query, err := s.embedder.Embed(ctx, message)
		if err != nil {
			return failedStream(fmt.Errorf("embed question: %w", err))
		}
		chunks, err := s.store.Search(ctx, query, s.k)
		if err != nil {
			return failedStream(fmt.Errorf("search document: %w", err))
		}
		prompt = s.prompts.Build(message, chunks)
	}

	s.mu.Lock()
	model, loading := s.model, s.loading
	var docName string
	if s.doc != nil {
		docName = s.doc.FileName
	}
	s.mu.Unlock()

	if loading {
		prompt += "\n\n" + s.prompts.LoadingNote()
	}
	logger.Debug("prompt:\n%s", prompt)

	events, errs := s.session.Chat(ctx, model, prompt)
	if s.transcripts == nil {
		return events, errs
	}
	return s.record(ctx, events, errs, docName, model, message)
}

// record forwards a chat stream and archives the turn once it completes.
func (s *ChatService) record(
	ctx context.Context,
	events <-chan domain.ChatEvent,
	errs <-chan error,
	docName, model, message string,
) (<-chan domain.ChatEvent, <-chan error) {
	out := make(chan domain.ChatEvent)
	outErr := make(chan error, 1)

	go func() {
		defer close(outErr)
		defer close(out)

		var reply strings.Builder
		for ev := range events {
			reply.WriteString(ev.Content)
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}
		if err := <-errs; err != nil {
			outErr <- err
			return
		}

		// Archive failures never fail the answer itself.
		for _, entry := range []*domain.TranscriptEntry{
			{Document: docName, Role: domain.RoleUser, Content: message, Model: model},
			{Document: docName, Role: domain.RoleAssistant, Content: reply.String(), Model: model},
		} {
			if err := s.transcripts.Append(context.WithoutCancel(ctx), entry); err != nil {
				logger.Warn("record chat history: %v", err)
				return
			}
		}
	}()

	return out, outErr
}

func failedStream(err error) (<-chan domain.ChatEvent, <-chan error) {
	events := make(chan domain.ChatEvent)
	errs := make(chan error, 1)
	errs <- err
	close(events)
	close(errs)
	return events, errs
}

// StopChat aborts the answer in progress.
func (s *ChatService) StopChat() {
	s.session.Abort()
}

// Serve makes a model server available.
func (s *ChatService) Serve(ctx context.Context) (domain.ServeType, error) {
	return s.session.Serve(ctx)
}

// RunModel pulls and warms up model and makes it current.
func (s *ChatService) RunModel(ctx context.Context, model string, onProgress func(domain.PullProgress)) error {
	if model == "" {
		model = s.Model()
	} else if err := s.SetModel(model); err != nil {
		return err
	}
	return s.session.RunModel(ctx, model, onProgress)
}

// Stop cancels any load, aborts the session and stops an owned server.
func (s *ChatService) Stop() error {
	s.mu.Lock()
	if s.loadCancel != nil {
		s.loadCancel()
	}
	s.mu.Unlock()
	return s.session.Stop()
}

// Model returns the current chat model.
func (s *ChatService) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel changes the chat model.
func (s *ChatService) SetModel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty model name", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	s.model = name
	s.mu.Unlock()
	return nil
}

// Reset aborts the answer in progress, cancels any load, unloads the
// document and clears the conversation.
func (s *ChatService) Reset(ctx context.Context) error {
	s.session.Abort()

	s.mu.Lock()
	if s.loadCancel != nil {
		s.loadCancel()
		s.loadCancel = nil
	}
	s.loadGen++
	s.loading = false
	s.doc = nil
	err := s.store.Reset(ctx)
	s.mu.Unlock()

	s.session.Reset()
	if err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	return nil
}

// Status returns a snapshot of the service state.
func (s *ChatService) Status() domain.Status {
	s.mu.Lock()
	st := domain.Status{
		Model:   s.model,
		Loading: s.loading,
	}
	if s.doc != nil {
		doc := *s.doc
		st.Document = &doc
	}
	s.mu.Unlock()

	st.State = s.session.State()
	st.Offline = s.session.Offline()
	st.StoreSize = s.store.Size()
	return st
}

// Summarise asks the model to describe the loaded document from its file
// name and section headings.
func (s *ChatService) Summarise(ctx context.Context) (*domain.Summary, error) {
	s.mu.Lock()
	doc, model := s.doc, s.model
	s.mu.Unlock()

	if doc == nil {
		return nil, domain.ErrNoFileSelected
	}

	prompt := s.prompts.Summary(doc.FileName, doc.Sections)
	reply, err := s.session.Complete(ctx, model, prompt, "json")
	if err != nil {
		return nil, fmt.Errorf("summarise %s: %w", doc.FileName, err)
	}

	var summary domain.Summary
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &summary); err != nil {
		return nil, fmt.Errorf("%w: decode summary: %w", domain.ErrParse, err)
	}
	return &summary, nil
}

// History returns the latest recorded chat turns, oldest first.
func (s *ChatService) History(ctx context.Context, limit int) ([]domain.TranscriptEntry, error) {
	if s.transcripts == nil {
		return nil, nil
	}
	return s.transcripts.Recent(ctx, limit)
}

// ClearHistory deletes every recorded chat turn.
func (s *ChatService) ClearHistory(ctx context.Context) error {
	if s.transcripts == nil {
		return nil
	}
	return s.transcripts.Clear(ctx)
}

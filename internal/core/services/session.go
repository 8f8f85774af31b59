package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
)

// Defaults for waiting on a freshly launched server.
const (
	DefaultPingRetries  = 5
	DefaultPingInterval = time.Second
)

// ServeAttempt is one way of starting a model server.
type ServeAttempt struct {
	// Type is reported when this attempt succeeds.
	Type domain.ServeType

	// Spec builds the launch description. It is called only when the
	// attempt is reached.
	Spec func() (domain.LaunchSpec, error)
}

// SessionConfig configures a SessionService.
type SessionConfig struct {
	// Attempts are tried in order when no server is already running.
	Attempts []ServeAttempt

	PingRetries  int
	PingInterval time.Duration
}

// SessionService manages the conversation with a model server: starting
// the server, pulling models and streaming chat turns.
//
// At most one request runs at a time. Starting a request cancels the one in
// flight and waits for it to finish before touching the conversation.
type SessionService struct {
	server   driven.ModelServer
	launcher driven.ServerLauncher
	cfg      SessionConfig

	// turnMu serialises the hand-over between requests.
	turnMu sync.Mutex

	mu        sync.Mutex
	state     domain.SessionState
	history   []domain.Message
	epoch     uint64
	proc      driven.ServerProcess
	serveType domain.ServeType
	offline   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSessionService creates a session. launcher may be nil, in which case
// Serve only detects an already running server.
func NewSessionService(server driven.ModelServer, launcher driven.ServerLauncher, cfg SessionConfig) *SessionService {
	if cfg.PingRetries <= 0 {
		cfg.PingRetries = DefaultPingRetries
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	return &SessionService{
		server:   server,
		launcher: launcher,
		cfg:      cfg,
		state:    domain.StateUnstarted,
	}
}

// State returns the current lifecycle state.
func (s *SessionService) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Offline reports whether the last pull failed to reach the registry.
func (s *SessionService) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// History returns a copy of the conversation context.
func (s *SessionService) History() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Reset clears the conversation context. A turn still streaming will not
// be recorded.
func (s *SessionService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.epoch++
}

// Serve makes a model server available. An already running server is used
// as-is; otherwise each configured attempt is launched in turn and polled
// until it answers.
func (s *SessionService) Serve(ctx context.Context) (domain.ServeType, error) {
	s.mu.Lock()
	if s.state == domain.StateStopped {
		s.mu.Unlock()
		return "", domain.ErrSessionStopped
	}
	if s.proc != nil {
		st := s.serveType
		s.mu.Unlock()
		return st, nil
	}
	s.state = domain.StateStarting
	s.mu.Unlock()

	if err := s.server.Ping(ctx); err == nil {
		logger.Debug("model server already running at %s", s.server.Host())
		s.served(domain.ServeRunning, nil)
		return domain.ServeRunning, nil
	}

	var failures []error
	if s.launcher != nil {
		for _, attempt := range s.cfg.Attempts {
			proc, err := s.launch(ctx, attempt)
			if err == nil {
				s.served(attempt.Type, proc)
				return attempt.Type, nil
			}
			logger.Debug("serve %s: %v", attempt.Type, err)
			failures = append(failures, fmt.Errorf("%s: %w", attempt.Type, err))
			if ctx.Err() != nil {
				break
			}
		}
	}

	s.mu.Lock()
	if s.state == domain.StateStarting {
		s.state = domain.StateUnstarted
	}
	s.mu.Unlock()

	if len(failures) == 0 {
		return "", fmt.Errorf("%w: no server at %s", domain.ErrServeFailed, s.server.Host())
	}
	return "", fmt.Errorf("%w: %w", domain.ErrServeFailed, errors.Join(failures...))
}

func (s *SessionService) launch(ctx context.Context, attempt ServeAttempt) (driven.ServerProcess, error) {
	spec, err := attempt.Spec()
	if err != nil {
		return nil, err
	}
	proc, err := s.launcher.Launch(ctx, spec)
	if err != nil {
		return nil, err
	}
	if err := s.waitForPing(ctx, proc); err != nil {
		if stopErr := proc.Stop(); stopErr != nil {
			logger.Warn("stop failed server: %v", stopErr)
		}
		return nil, err
	}
	return proc, nil
}

// waitForPing polls the server until it answers, the process exits or the
// retries run out.
func (s *SessionService) waitForPing(ctx context.Context, proc driven.ServerProcess) error {
	for i := 0; i < s.cfg.PingRetries; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
		case <-proc.Exited():
			return errors.New("server process exited")
		case <-time.After(s.cfg.PingInterval):
		}
		if err := s.server.Ping(ctx); err == nil {
			return nil
		}
		logger.Debug("waiting for model server (%d/%d)", i+1, s.cfg.PingRetries)
	}
	return fmt.Errorf("server did not respond after %d attempts", s.cfg.PingRetries)
}

func (s *SessionService) served(t domain.ServeType, proc driven.ServerProcess) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serveType = t
	s.proc = proc
	if s.state == domain.StateStarting {
		s.state = domain.StateReady
	}
}

// begin cancels the request in flight, waits for it, then registers a new
// one in state st. The returned finish func must be called exactly once.
func (s *SessionService) begin(ctx context.Context, st domain.SessionState) (context.Context, func(), error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.Lock()
	if s.state == domain.StateStopped {
		s.mu.Unlock()
		return nil, nil, domain.ErrSessionStopped
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateStopped {
		return nil, nil, domain.ErrSessionStopped
	}

	rctx, rcancel := context.WithCancel(ctx)
	doneCh := make(chan struct{})
	s.cancel, s.done = rcancel, doneCh
	s.state = st

	finish := func() {
		rcancel()
		s.mu.Lock()
		if s.done == doneCh {
			s.cancel, s.done = nil, nil
			if s.state == st {
				s.state = domain.StateReady
			}
		}
		s.mu.Unlock()
		close(doneCh)
	}
	return rctx, finish, nil
}

// Abort cancels the request in flight and waits for it to end.
func (s *SessionService) Abort() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Pull downloads model. A failure to reach the server or registry is not
// fatal: a warning is logged, an offline event is reported and the session
// continues with whatever copy of the model is already present.
func (s *SessionService) Pull(ctx context.Context, model string, onProgress func(domain.PullProgress)) error {
	rctx, finish, err := s.begin(ctx, domain.StatePulling)
	if err != nil {
		return err
	}
	defer finish()

	events, errs := s.server.Pull(rctx, model)
	for p := range events {
		if onProgress != nil {
			onProgress(p)
		}
	}
	err = <-errs

	switch {
	case err == nil:
		s.setOffline(false)
		return nil
	case errors.Is(err, domain.ErrNetwork) && rctx.Err() == nil:
		logger.Warn("pull %s failed, continuing offline: %v", model, err)
		s.setOffline(true)
		if onProgress != nil {
			onProgress(domain.PullProgress{Phase: domain.PullOffline, Status: err.Error(), Percent: -1})
		}
		return nil
	default:
		return fmt.Errorf("pull %s: %w", model, err)
	}
}

func (s *SessionService) setOffline(v bool) {
	s.mu.Lock()
	s.offline = v
	s.mu.Unlock()
}

// RunModel pulls model, loads it into memory and starts a fresh
// conversation.
func (s *SessionService) RunModel(ctx context.Context, model string, onProgress func(domain.PullProgress)) error {
	if err := s.Pull(ctx, model, onProgress); err != nil {
		return err
	}

	rctx, finish, err := s.begin(ctx, domain.StateGenerating)
	if err != nil {
		return err
	}
	events, errs := s.server.Generate(rctx, model, "")
	for range events {
	}
	err = <-errs
	finish()
	if err != nil {
		return fmt.Errorf("load model %s: %w", model, err)
	}

	s.Reset()
	return nil
}

// Chat sends prompt as the next user turn and streams the reply. When the
// reply completes, both turns are appended to the conversation context. An
// aborted or failed turn leaves the context untouched.
func (s *SessionService) Chat(ctx context.Context, model, prompt string) (<-chan domain.ChatEvent, <-chan error) {
	out := make(chan domain.ChatEvent)
	outErr := make(chan error, 1)

	rctx, finish, err := s.begin(ctx, domain.StateGenerating)
	if err != nil {
		outErr <- err
		close(out)
		close(outErr)
		return out, outErr
	}

	user := domain.Message{Role: domain.RoleUser, Content: prompt}
	s.mu.Lock()
	epoch := s.epoch
	messages := make([]domain.Message, 0, len(s.history)+1)
	messages = append(messages, s.history...)
	messages = append(messages, user)
	s.mu.Unlock()

	events, errs := s.server.Chat(rctx, domain.ChatRequest{Model: model, Messages: messages})

	go func() {
		defer close(outErr)
		defer close(out)
		defer finish()

		var reply strings.Builder
		completed := false
		for ev := range events {
			reply.WriteString(ev.Content)
			if ev.Done {
				completed = true
			}
			select {
			case out <- ev:
			case <-rctx.Done():
			}
		}

		err := <-errs
		if err == nil && !completed {
			err = domain.ErrStreamTruncated
		}
		if err != nil {
			if rctx.Err() != nil && !domain.IsCancelled(err) {
				err = fmt.Errorf("%w: %w", domain.ErrCancelled, err)
			}
			outErr <- err
			return
		}

		s.mu.Lock()
		if s.epoch == epoch {
			s.history = append(s.history, user, domain.Message{Role: domain.RoleAssistant, Content: reply.String()})
		}
		s.mu.Unlock()
	}()

	return out, outErr
}

// Complete runs a one-off request outside the conversation context and
// returns the whole reply. format may request structured output ("json").
func (s *SessionService) Complete(ctx context.Context, model, prompt, format string) (string, error) {
	rctx, finish, err := s.begin(ctx, domain.StateGenerating)
	if err != nil {
		return "", err
	}
	defer finish()

	events, errs := s.server.Chat(rctx, domain.ChatRequest{
		Model:    model,
		Messages: []domain.Message{{Role: domain.RoleUser, Content: prompt}},
		Format:   format,
	})
	var reply strings.Builder
	for ev := range events {
		reply.WriteString(ev.Content)
	}
	if err := <-errs; err != nil {
		return "", err
	}
	return reply.String(), nil
}

// Stop aborts the request in flight and terminates the server process if
// this session started it. Later calls fail with ErrSessionStopped.
func (s *SessionService) Stop() error {
	s.mu.Lock()
	if s.state == domain.StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = domain.StateStopped
	proc, owned := s.proc, s.serveType.Owned()
	s.proc = nil
	s.mu.Unlock()

	s.Abort()

	if proc == nil || !owned {
		return nil
	}
	logger.Debug("stopping model server (pid %d)", proc.PID())
	if err := proc.Stop(); err != nil {
		return fmt.Errorf("stop model server: %w", err)
	}
	return nil
}

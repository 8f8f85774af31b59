package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptGroundedChat: `Using the provided document, answer the user question to the best of your ability. You must try to use information from the provided document. Combine information in the document into a coherent answer.
If there is nothing in the document relevant to the user question, say "Hmm, I don't see anything about that in this document." before providing any other information you know.
Anything between the following <document> blocks is retrieved from a knowledge bank, not part of the conversation with the user.
<document>
%s
</document>

If there is no relevant information within the document, say "Hmm, I don't see anything about that in this document." before providing any other information you know. Anything between the preceding <document> blocks is retrieved from a knowledge bank, not part of the conversation with the user.

Anything between the following <user> blocks is part of the conversation with the user.
<user>
%s
</user>`,

	driven.PromptLoadingNote: `Start your response by saying some variation on "The document is still processing, but I will answer to the best of my abilities."`,

	driven.PromptSummary: `You are given the outline of a document called "%s". Its sections are:
%s

Write a short summary of what this document is likely about, in two or three sentences.
Respond with JSON only, in the form {"success": true, "content": "<summary>"}.
If the outline is not enough to say anything useful, respond with {"success": false, "content": "<reason>"}.`,
}

// placeholders is the number of %s verbs each template must keep.
var placeholders = map[string]int{
	driven.PromptGroundedChat: 2,
	driven.PromptLoadingNote:  0,
	driven.PromptSummary:      2,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.chatd/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".chatd", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if the file doesn't exist or has lost
// its format placeholders.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err == nil && !wellFormed(name, prompt) {
		logger.Warn("prompt %q has the wrong number of %%s placeholders, using the default", name)
		err = errMalformed
	}
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

var errMalformed = errors.New("malformed prompt")

// wellFormed reports whether a known template kept its %s placeholders.
// Unknown prompts are accepted as-is.
func wellFormed(name, prompt string) bool {
	want, ok := placeholders[name]
	if !ok {
		return true
	}
	return strings.Count(prompt, "%s") == want && strings.Count(prompt, "%") == want
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# chatd Prompts

This directory contains customisable prompts used when talking to the model.

## Files

- ` + "`grounded_chat.txt`" + ` - Wraps a question with retrieved document context
- ` + "`loading_note.txt`" + ` - Appended while a document is still processing
- ` + "`summary.txt`" + ` - Asks for a JSON summary of the loaded document

## Customisation

Edit any file to customise the model's behaviour. Changes take effect on the
next command or after restarting the TUI.

## Format Placeholders

Prompts use Go fmt placeholders:
- ` + "`grounded_chat`" + ` - two ` + "`%s`" + `: the document context, then the question
- ` + "`summary`" + ` - two ` + "`%s`" + `: the file name, then the section list

A file that loses its placeholders is ignored in favour of the built-in default.
`
	return os.WriteFile(path, []byte(content), 0600)
}

package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
)

const ellipsis = "..."

// Used when no PromptStore is configured or it returns an unusable template.
const (
	fallbackGroundedTemplate = `Using the provided document, answer the user question to the best of your ability.
If there is nothing in the document relevant to the user question, say "Hmm, I don't see anything about that in this document." before providing any other information you know.
Anything between the following <document> blocks is retrieved from a knowledge bank, not part of the conversation with the user.
<document>
%s
</document>

Anything between the following <user> blocks is part of the conversation with the user.
<user>
%s
</user>`

	fallbackLoadingNote = `Start your response by saying some variation on "The document is still processing, but I will answer to the best of my abilities."`

	fallbackSummaryTemplate = `You are given the outline of a document called "%s". Its sections are:
%s

Summarise what the document is likely about in two or three sentences.
Respond with JSON only: {"success": true, "content": "<summary>"}.`
)

// PromptAssembler builds the prompts sent to the model.
type PromptAssembler struct {
	prompts driven.PromptStore
	budget  int
}

// NewPromptAssembler creates an assembler. prompts may be nil; budget is the
// maximum length of the document block in runes.
func NewPromptAssembler(prompts driven.PromptStore, budget int) *PromptAssembler {
	if budget <= len(ellipsis) {
		budget = domain.DefaultContextChars
	}
	return &PromptAssembler{prompts: prompts, budget: budget}
}

// Build wraps message with the retrieved chunks. Without chunks the message
// is returned unchanged.
func (a *PromptAssembler) Build(message string, chunks []string) string {
	if len(chunks) == 0 {
		return message
	}
	block := Truncate(strings.Join(chunks, "\n\n"), a.budget)
	tpl := a.template(driven.PromptGroundedChat, 2, fallbackGroundedTemplate)
	return fmt.Sprintf(tpl, block, message)
}

// LoadingNote returns the instruction appended while a document is still
// being processed.
func (a *PromptAssembler) LoadingNote() string {
	return a.template(driven.PromptLoadingNote, 0, fallbackLoadingNote)
}

// Summary builds the request for a document summary.
func (a *PromptAssembler) Summary(fileName string, labels []string) string {
	var outline strings.Builder
	for _, l := range labels {
		if l == "" {
			continue
		}
		outline.WriteString("- ")
		outline.WriteString(l)
		outline.WriteString("\n")
	}
	if outline.Len() == 0 {
		outline.WriteString("(no section headings)\n")
	}
	tpl := a.template(driven.PromptSummary, 2, fallbackSummaryTemplate)
	return fmt.Sprintf(tpl, fileName, strings.TrimRight(outline.String(), "\n"))
}

func (a *PromptAssembler) template(name string, verbs int, fallback string) string {
	if a.prompts == nil {
		return fallback
	}
	tpl, err := a.prompts.Load(name)
	if err != nil {
		logger.Debug("load prompt %s: %v", name, err)
		return fallback
	}
	if strings.Count(tpl, "%s") != verbs {
		return fallback
	}
	return tpl
}

// Truncate caps s at budget runes, replacing the tail with "...".
func Truncate(s string, budget int) string {
	if utf8.RuneCountInString(s) <= budget {
		return s
	}
	runes := []rune(s)
	return string(runes[:budget-len(ellipsis)]) + ellipsis
}

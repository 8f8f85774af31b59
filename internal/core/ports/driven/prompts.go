package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptGroundedChat wraps a question with document context.
	// The template expects two %s placeholders: the document context, then the question.
	PromptGroundedChat = "grounded_chat"

	// PromptLoadingNote is appended to questions while a document is still loading.
	// This prompt has no format placeholders.
	PromptLoadingNote = "loading_note"

	// PromptSummary asks for a JSON summary of a document.
	// The template expects %s placeholders for the file name and the section list.
	PromptSummary = "summary"
)

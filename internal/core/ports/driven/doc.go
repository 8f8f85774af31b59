// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ModelServer: Talks to the local model server (Ollama)
//   - ServerLauncher: Starts a model server process when none is running
//   - DocumentParser: Turns a file into a sectioned, chunked Document
//   - TextSegmenter: Splits text into chunks
//   - EmbeddingService: Generates vector embeddings for chunks and questions
//   - VectorStore: Holds the embeddings of the loaded document
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TranscriptStore: Chat history. Without it, turns are not recorded.
//   - FileWatcher: Document change notifications for --watch.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven

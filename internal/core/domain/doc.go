// Package domain defines the core entities for chatd.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A parsed document split into labelled sections of chunks
//   - Embedding: A chunk's text paired with its vector
//   - Message: One turn of the running conversation
//   - SessionState: The lifecycle of the model session
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

// Package domain defines the core business entities for Driftline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Signal: An atomic observation captured from a conversation
//   - Document: A titled unit of knowledge in one of four scopes
//   - Commit: An immutable node in the synthesis history graph
//   - DocumentVersion: A snapshot of a document at a commit
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

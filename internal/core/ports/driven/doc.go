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
//   - SignalStore: Signal persistence and the unprocessed-set query
//   - DocumentStore: Document/chunk persistence and similarity search
//   - CommitStore: Commit history, version snapshots and signal links
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, retrieval
//     returns no context and documents are saved without embeddings.
//   - LLMService: Structured-output completions. Without it, synthesis and
//     digest generation are disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven

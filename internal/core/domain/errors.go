package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Synthesis and digest generation are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval and document embedding are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSynthesisConflict indicates a concurrent synthesis run won the race
	// for the workspace head commit or for a signal link. The losing run
	// leaves no commit behind and can be retried.
	ErrSynthesisConflict = errors.New("synthesis conflict")

	// ErrSignalProcessed indicates a signal is already linked to a commit.
	ErrSignalProcessed = errors.New("signal already processed")

	// ErrChunkNesting indicates an attempt to chunk a document that is
	// itself a chunk. Chunks are never nested.
	ErrChunkNesting = errors.New("chunk cannot be chunked")
)

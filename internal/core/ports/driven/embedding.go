package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, retrieval and document
// embedding are disabled.
//
// Implementations truncate input to a fixed character budget before
// calling the provider, so callers may pass arbitrarily long text.
// All vectors produced by one service share a fixed dimensionality;
// mixing dimensions across stored rows is a caller error.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

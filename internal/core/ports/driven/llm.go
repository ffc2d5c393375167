package driven

import (
	"context"
	"encoding/json"
)

// LLMService provides structured-output language model completions.
// This is an optional service - when nil, synthesis and digest
// generation are disabled.
//
// Implementations may include:
//   - OpenAI (response_format json_schema)
//   - Anthropic (schema-constrained JSON)
type LLMService interface {
	// Complete sends one structured-output request and returns the raw
	// JSON result plus token usage. The result is guaranteed to be valid
	// JSON but NOT guaranteed to satisfy the schema semantically; callers
	// must validate it as an untrusted command batch.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is one structured-output call.
type CompletionRequest struct {
	// System is the system prompt.
	System string

	// Prompt is the user prompt.
	Prompt string

	// SchemaName labels the expected output shape for providers that
	// require a named schema.
	SchemaName string

	// Schema is the JSON schema the result must match.
	Schema json.RawMessage

	// MaxTokens caps the completion length.
	MaxTokens int
}

// CompletionResult is the provider's structured response.
type CompletionResult struct {
	// JSON is the raw structured output.
	JSON json.RawMessage

	// InputTokens is the prompt token count.
	InputTokens int

	// OutputTokens is the completion token count.
	OutputTokens int
}

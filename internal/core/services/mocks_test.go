package services

import (
	"context"
	"encoding/json"

	"github.com/driftline/driftline/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// byText overrides the fixed embedding for specific inputs.
type mockEmbeddingService struct {
	embedding []float32
	byText    map[string][]float32
	embedErr  error
	calls     int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if vec, ok := m.byText[text]; ok {
		return vec, nil
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := m.byText[text]; ok {
			result[i] = vec
		} else {
			result[i] = m.embedding
		}
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(m.embedding)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embedder"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
// onComplete runs inside Complete, before returning, so tests can
// interleave concurrent writes with an in-flight run.
type mockLLMService struct {
	response     json.RawMessage
	inputTokens  int
	outputTokens int
	completeErr  error
	requests     []driven.CompletionRequest
	onComplete   func()
}

func (m *mockLLMService) Complete(_ context.Context, req driven.CompletionRequest) (*driven.CompletionResult, error) {
	m.requests = append(m.requests, req)
	if m.onComplete != nil {
		m.onComplete()
	}
	if m.completeErr != nil {
		return nil, m.completeErr
	}
	return &driven.CompletionResult{
		JSON:         m.response,
		InputTokens:  m.inputTokens,
		OutputTokens: m.outputTokens,
	}, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

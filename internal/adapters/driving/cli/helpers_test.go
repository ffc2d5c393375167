package cli

import (
	"context"
	"encoding/json"

	"github.com/driftline/driftline/internal/adapters/driven/storage/memory"
	"github.com/driftline/driftline/internal/core/ports/driven"
	"github.com/driftline/driftline/internal/core/services"
)

// fakeEmbeddingService returns a fixed vector for every input.
type fakeEmbeddingService struct{}

func (f *fakeEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeEmbeddingService) Dimensions() int              { return 3 }
func (f *fakeEmbeddingService) ModelName() string            { return "fake-embed" }
func (f *fakeEmbeddingService) Ping(_ context.Context) error { return nil }
func (f *fakeEmbeddingService) Close() error                 { return nil }

// fakeLLMService returns a canned structured response.
type fakeLLMService struct {
	response json.RawMessage
}

func (f *fakeLLMService) Complete(_ context.Context, _ driven.CompletionRequest) (*driven.CompletionResult, error) {
	return &driven.CompletionResult{
		JSON:         f.response,
		InputTokens:  10,
		OutputTokens: 5,
	}, nil
}

func (f *fakeLLMService) ModelName() string            { return "fake-llm" }
func (f *fakeLLMService) Ping(_ context.Context) error { return nil }
func (f *fakeLLMService) Close() error                 { return nil }

// testStores bundles the in-memory adapters behind setupTestServices so
// tests can seed data directly.
type testStores struct {
	signals   *memory.SignalStore
	documents *memory.DocumentStore
	commits   *memory.CommitStore
}

// setupTestServices wires the package-level services to in-memory
// adapters and returns the stores plus a cleanup that restores the
// previous wiring.
func setupTestServices() (*testStores, func()) {
	oldSignal := signalService
	oldSynthesis := synthesisService
	oldRetrieval := retrievalService
	oldDocument := documentService
	oldDigest := digestService
	oldHistory := historyService

	commits := memory.NewCommitStore()
	docs := memory.NewDocumentStore()
	signals := memory.NewSignalStore(commits)

	embedder := &fakeEmbeddingService{}
	llm := &fakeLLMService{response: json.RawMessage(`{
		"operations": [
			{"action": "create", "documentId": "", "title": "Team Practices", "content": "The team ships weekly.", "reasoning": ""}
		],
		"commitSummary": "Recorded team practices.",
		"priorityRecommendations": []
	}`)}

	signalService = services.NewSignalService(signals, embedder)
	documentService = services.NewDocumentService(docs, embedder, nil)
	retrievalService = services.NewRetrievalService(docs, embedder)
	synthesisService = services.NewSynthesisService(signals, docs, commits, llm, embedder, nil)
	digestService = services.NewDigestService(commits, docs, llm, embedder)
	historyService = services.NewHistoryService(commits)

	cleanup := func() {
		signalService = oldSignal
		synthesisService = oldSynthesis
		retrievalService = oldRetrieval
		documentService = oldDocument
		digestService = oldDigest
		historyService = oldHistory
	}

	return &testStores{signals: signals, documents: docs, commits: commits}, cleanup
}

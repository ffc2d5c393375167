package services

import (
	"context"
	"strings"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
	"github.com/driftline/driftline/internal/core/ports/driving"
	"github.com/driftline/driftline/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// DefaultSimilarityFloor is the similarity below which (inclusive) a hit
// is discarded rather than surfaced as grounding context.
const DefaultSimilarityFloor = 0.3

// overFetchFactor is how many raw hits are scanned per requested result,
// so that chunk dedup does not starve the final set.
const overFetchFactor = 5

// RetrievalService assembles grounding context from the document store.
type RetrievalService struct {
	docStore         driven.DocumentStore
	embeddingService driven.EmbeddingService
	floor            float64
}

// RetrievalOption configures the retrieval service.
type RetrievalOption func(*RetrievalService)

// WithSimilarityFloor overrides the similarity cutoff. The floor is
// exclusive: a hit scoring exactly the floor is discarded.
func WithSimilarityFloor(floor float64) RetrievalOption {
	return func(s *RetrievalService) {
		if floor > 0 {
			s.floor = floor
		}
	}
}

// NewRetrievalService creates a new retrieval service.
// The embeddingService parameter is optional (can be nil); retrieval
// then degrades to empty results.
func NewRetrievalService(
	docStore driven.DocumentStore,
	embeddingService driven.EmbeddingService,
	opts ...RetrievalOption,
) *RetrievalService {
	s := &RetrievalService{
		docStore:         docStore,
		embeddingService: embeddingService,
		floor:            DefaultSimilarityFloor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve returns up to limit logical documents ordered by descending
// similarity to the query. Failures are absorbed: grounding context is
// an enhancement, so any error yields an empty slice.
func (s *RetrievalService) Retrieve(
	ctx context.Context, workspaceID string, ownerID *string, scope domain.Scope, query string, limit int,
) []domain.ContextResult {
	logger.Section("Context Retrieval")
	logger.Debug("Scope: %s, limit: %d", scope, limit)

	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return []domain.ContextResult{}
	}
	if s.embeddingService == nil {
		logger.Debug("No embedding service, returning no context")
		return []domain.ContextResult{}
	}

	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return []domain.ContextResult{}
	}

	hits, err := s.docStore.SearchSimilar(ctx, driven.SimilarityQuery{
		WorkspaceID: workspaceID,
		Scope:       scope,
		OwnerID:     ownerID,
		Embedding:   embedding,
		Limit:       limit * overFetchFactor,
	})
	if err != nil {
		logger.Warn("Similarity search failed: %v", err)
		return []domain.ContextResult{}
	}
	logger.Debug("Raw hits: %d", len(hits))

	// Hits arrive ordered by similarity, so keeping the first row per
	// logical document keeps each document's best-scoring fragment.
	seen := make(map[string]bool)
	results := make([]domain.ContextResult, 0, limit)
	for _, hit := range hits {
		if hit.Similarity <= s.floor {
			break
		}
		logicalID := hit.Document.LogicalID()
		if seen[logicalID] {
			continue
		}
		seen[logicalID] = true
		results = append(results, domain.ContextResult{
			Title:      hit.Document.Title,
			Content:    hit.Document.Text(),
			Similarity: hit.Similarity,
		})
		if len(results) == limit {
			break
		}
	}

	logger.Info("Retrieved %d context documents", len(results))
	return results
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Similarity search is a brute-force cosine scan, the same strategy the
// SQLite adapter uses.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	for chunkID := range s.documents {
		doc := s.documents[chunkID]
		if doc.ParentID != nil && *doc.ParentID == id {
			delete(s.documents, chunkID)
		}
	}
	return nil
}

// ListByScope returns non-chunk documents in a scope, newest first.
func (s *DocumentStore) ListByScope(_ context.Context, workspaceID string, scope domain.Scope, ownerID *string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if doc.WorkspaceID != workspaceID || doc.Scope != scope || doc.IsChunk() {
			continue
		}
		if !ownerMatches(doc.OwnerID, ownerID) {
			continue
		}
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ListChunks returns the chunks of a parent document ordered by index.
func (s *DocumentStore) ListChunks(_ context.Context, parentID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if doc.ParentID != nil && *doc.ParentID == parentID {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ChunkIndex < result[j].ChunkIndex
	})
	return result, nil
}

// DeleteChunks removes all chunks of a parent document.
func (s *DocumentStore) DeleteChunks(_ context.Context, parentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.documents {
		doc := s.documents[id]
		if doc.ParentID != nil && *doc.ParentID == parentID {
			delete(s.documents, id)
		}
	}
	return nil
}

// SearchSimilar returns the nearest rows to the query embedding,
// ordered by descending similarity. Rows without an embedding never match.
func (s *DocumentStore) SearchSimilar(_ context.Context, query driven.SimilarityQuery) ([]driven.DocumentHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.DocumentHit
	for id := range s.documents {
		doc := s.documents[id]
		if doc.WorkspaceID != query.WorkspaceID || doc.Scope != query.Scope {
			continue
		}
		if !ownerMatches(doc.OwnerID, query.OwnerID) {
			continue
		}
		if len(doc.Embedding) == 0 {
			continue
		}
		hits = append(hits, driven.DocumentHit{
			Document:   doc,
			Similarity: domain.CosineSimilarity(query.Embedding, doc.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})
	if query.Limit > 0 && len(hits) > query.Limit {
		hits = hits[:query.Limit]
	}
	return hits, nil
}

// ownerMatches compares an optional owner filter against a row's owner.
// A nil filter matches only ownerless rows.
func ownerMatches(rowOwner, filter *string) bool {
	if filter == nil {
		return rowOwner == nil
	}
	return rowOwner != nil && *rowOwner == *filter
}

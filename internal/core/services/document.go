package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
	"github.com/driftline/driftline/internal/core/ports/driving"
	"github.com/driftline/driftline/internal/logger"
	"github.com/driftline/driftline/internal/postprocessors/chunker"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages user-visible documents and their chunks.
type DocumentService struct {
	docStore         driven.DocumentStore
	embeddingService driven.EmbeddingService
	chunker          *chunker.Chunker
}

// NewDocumentService creates a new document service.
// The embeddingService parameter is optional (can be nil); creation then
// fails and updates save without embeddings. A nil chunker gets defaults.
func NewDocumentService(
	docStore driven.DocumentStore,
	embeddingService driven.EmbeddingService,
	chunk *chunker.Chunker,
) *DocumentService {
	if chunk == nil {
		chunk = chunker.New()
	}
	return &DocumentService{
		docStore:         docStore,
		embeddingService: embeddingService,
		chunker:          chunk,
	}
}

// Create persists a new document. An embedding failure on this path
// fails the whole operation: a document created by hand must be
// retrievable from the moment it exists.
func (s *DocumentService) Create(ctx context.Context, input driving.NewDocument) (*domain.Document, error) {
	if input.WorkspaceID == "" || strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: workspace and title are required", domain.ErrInvalidInput)
	}
	if !input.Scope.Valid() {
		return nil, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, input.Scope)
	}
	if input.Scope == domain.ScopePersonal && input.OwnerID == nil {
		return nil, fmt.Errorf("%w: personal documents require an owner", domain.ErrInvalidInput)
	}
	if input.Scope != domain.ScopePersonal && input.OwnerID != nil {
		return nil, fmt.Errorf("%w: only personal documents carry an owner", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          uuid.New().String(),
		WorkspaceID: input.WorkspaceID,
		Scope:       input.Scope,
		OwnerID:     input.OwnerID,
		Title:       strings.TrimSpace(input.Title),
		Content:     input.Content,
		FileRef:     input.FileRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := writeDocumentContent(ctx, s.docStore, s.embeddingService, s.chunker, doc, true); err != nil {
		return nil, err
	}
	logger.Info("Created document %s (%s)", doc.ID, doc.Scope)
	return doc, nil
}

// Update replaces a document's title and content, regenerating chunks
// and embeddings. Embedding failures here are non-fatal: the new text is
// the source of truth and must not be lost to a flaky embedding provider.
func (s *DocumentService) Update(ctx context.Context, id, title string, content *string) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc.IsChunk() {
		return nil, fmt.Errorf("%w: chunks are regenerated from their parent, not edited", domain.ErrInvalidInput)
	}

	if title = strings.TrimSpace(title); title != "" {
		doc.Title = title
	}
	doc.Content = content

	if err := writeDocumentContent(ctx, s.docStore, s.embeddingService, s.chunker, doc, false); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, id)
}

// Delete removes a document and its chunks.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.docStore.DeleteDocument(ctx, id)
}

// ListByScope returns non-chunk documents in one scope.
func (s *DocumentService) ListByScope(ctx context.Context, workspaceID string, scope domain.Scope, ownerID *string) ([]domain.Document, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, scope)
	}
	return s.docStore.ListByScope(ctx, workspaceID, scope, ownerID)
}

// writeDocumentContent persists a document with its embedding, splitting
// oversized content into chunks. All embedding happens before the first
// write, so a strict failure leaves no partial state behind.
//
// strict controls embedding failure handling: true aborts the operation,
// false saves the text with nil embeddings behind a warning.
func writeDocumentContent(
	ctx context.Context,
	docStore driven.DocumentStore,
	embedder driven.EmbeddingService,
	chunk *chunker.Chunker,
	doc *domain.Document,
	strict bool,
) error {
	doc.UpdatedAt = time.Now().UTC()
	text := doc.Text()

	// File-backed or empty documents carry no embedding and no chunks.
	if text == "" {
		doc.Embedding = nil
		if err := docStore.SaveDocument(ctx, doc); err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		if err := docStore.DeleteChunks(ctx, doc.ID); err != nil {
			return fmt.Errorf("delete stale chunks: %w", err)
		}
		return nil
	}

	if chunk.ShouldChunk(text) {
		parts := chunk.Chunk(doc.Title, text)

		texts := make([]string, len(parts))
		for i, part := range parts {
			texts[i] = chunker.BuildChunkEmbeddingText(doc.Title, part.Content)
		}
		vectors, err := embedAll(ctx, embedder, texts, strict)
		if err != nil {
			return err
		}

		// The parent is represented by its chunks, never embedded itself.
		doc.Embedding = nil
		if err := docStore.SaveDocument(ctx, doc); err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		if err := docStore.DeleteChunks(ctx, doc.ID); err != nil {
			return fmt.Errorf("delete stale chunks: %w", err)
		}
		for i := range parts {
			var vec []float32
			if i < len(vectors) {
				vec = vectors[i]
			}
			chunkDoc := &domain.Document{
				ID:          uuid.New().String(),
				WorkspaceID: doc.WorkspaceID,
				Scope:       doc.Scope,
				OwnerID:     doc.OwnerID,
				Title:       parts[i].Title,
				Content:     &parts[i].Content,
				ParentID:    &doc.ID,
				ChunkIndex:  parts[i].Index,
				Embedding:   vec,
				CreatedAt:   doc.UpdatedAt,
				UpdatedAt:   doc.UpdatedAt,
			}
			if err := docStore.SaveDocument(ctx, chunkDoc); err != nil {
				return fmt.Errorf("save chunk %d: %w", parts[i].Index, err)
			}
		}
		logger.Debug("Document %s chunked into %d parts", doc.ID, len(parts))
		return nil
	}

	vectors, err := embedAll(ctx, embedder, []string{chunker.BuildChunkEmbeddingText(doc.Title, text)}, strict)
	if err != nil {
		return err
	}
	doc.Embedding = nil
	if len(vectors) == 1 {
		doc.Embedding = vectors[0]
	}
	if err := docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	// Content may have shrunk below the threshold; stale chunks must go.
	if err := docStore.DeleteChunks(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}
	return nil
}

// embedAll embeds every text, or none. In lenient mode any failure
// yields nil vectors and a warning instead of an error.
func embedAll(ctx context.Context, embedder driven.EmbeddingService, texts []string, strict bool) ([][]float32, error) {
	if embedder == nil {
		if strict {
			return nil, domain.ErrEmbeddingUnavailable
		}
		logger.Warn("No embedding service, saving without embeddings")
		return nil, nil
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if strict {
			return nil, fmt.Errorf("embed content: %w", err)
		}
		logger.Warn("Embedding failed, saving without embeddings: %v", err)
		return nil, nil
	}
	return vectors, nil
}

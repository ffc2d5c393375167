package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/driftline/internal/adapters/driven/storage/memory"
	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driving"
	"github.com/driftline/driftline/internal/postprocessors/chunker"
)

func ptr(s string) *string { return &s }

func TestDocumentService_Create(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := NewDocumentService(store, &mockEmbeddingService{embedding: []float32{1, 2, 3}}, nil)

	doc, err := svc.Create(context.Background(), driving.NewDocument{
		WorkspaceID: "ws-1",
		Scope:       domain.ScopeShared,
		Title:       "Onboarding",
		Content:     ptr("How we onboard engineers."),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, []float32{1, 2, 3}, doc.Embedding)

	saved, err := store.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", saved.Title)
}

func TestDocumentService_Create_Validation(t *testing.T) {
	svc := NewDocumentService(memory.NewDocumentStore(), &mockEmbeddingService{embedding: []float32{1}}, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		input driving.NewDocument
	}{
		{"missing title", driving.NewDocument{WorkspaceID: "ws-1", Scope: domain.ScopeShared}},
		{"missing workspace", driving.NewDocument{Scope: domain.ScopeShared, Title: "T"}},
		{"unknown scope", driving.NewDocument{WorkspaceID: "ws-1", Scope: "secret", Title: "T"}},
		{"personal without owner", driving.NewDocument{WorkspaceID: "ws-1", Scope: domain.ScopePersonal, Title: "T"}},
		{"shared with owner", driving.NewDocument{WorkspaceID: "ws-1", Scope: domain.ScopeShared, Title: "T", OwnerID: ptr("alice")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestDocumentService_Create_EmbeddingFailureIsFatal(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := NewDocumentService(store, &mockEmbeddingService{embedErr: errors.New("provider down")}, nil)

	_, err := svc.Create(context.Background(), driving.NewDocument{
		WorkspaceID: "ws-1",
		Scope:       domain.ScopeShared,
		Title:       "Onboarding",
		Content:     ptr("text"),
	})
	require.Error(t, err)

	// Nothing was saved: a failed create leaves no partial state.
	docs, listErr := store.ListByScope(context.Background(), "ws-1", domain.ScopeShared, nil)
	require.NoError(t, listErr)
	assert.Empty(t, docs)
}

func TestDocumentService_Create_NilEmbedderIsFatal(t *testing.T) {
	svc := NewDocumentService(memory.NewDocumentStore(), nil, nil)

	_, err := svc.Create(context.Background(), driving.NewDocument{
		WorkspaceID: "ws-1",
		Scope:       domain.ScopeShared,
		Title:       "T",
		Content:     ptr("text"),
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestDocumentService_Create_ChunksOversizedContent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	chunk := chunker.New(chunker.WithThreshold(100), chunker.WithMaxChunkSize(100))
	svc := NewDocumentService(store, &mockEmbeddingService{embedding: []float32{1, 0}}, chunk)

	content := strings.Repeat("alpha beta gamma delta\n\n", 20)
	doc, err := svc.Create(ctx, driving.NewDocument{
		WorkspaceID: "ws-1",
		Scope:       domain.ScopeShared,
		Title:       "Big Doc",
		Content:     &content,
	})
	require.NoError(t, err)

	// The parent carries no embedding; its chunks do.
	assert.Nil(t, doc.Embedding)
	chunks, err := store.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, doc.ID, *c.ParentID)
		assert.Equal(t, domain.ScopeShared, c.Scope)
		assert.NotEmpty(t, c.Embedding)
		assert.Contains(t, c.Title, "Big Doc (part")
	}
}

func TestDocumentService_Update_RegeneratesChunks(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	chunk := chunker.New(chunker.WithThreshold(100), chunker.WithMaxChunkSize(100))
	svc := NewDocumentService(store, &mockEmbeddingService{embedding: []float32{1, 0}}, chunk)

	big := strings.Repeat("paragraph\n\n", 30)
	doc, err := svc.Create(ctx, driving.NewDocument{
		WorkspaceID: "ws-1", Scope: domain.ScopeShared, Title: "Doc", Content: &big,
	})
	require.NoError(t, err)

	chunks, err := store.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Shrinking below the threshold removes the chunks and embeds whole.
	updated, err := svc.Update(ctx, doc.ID, "Doc", ptr("short now"))
	require.NoError(t, err)
	assert.NotEmpty(t, updated.Embedding)

	chunks, err = store.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDocumentService_Update_EmbeddingFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	svc := NewDocumentService(store, embedder, nil)

	doc, err := svc.Create(ctx, driving.NewDocument{
		WorkspaceID: "ws-1", Scope: domain.ScopeShared, Title: "Doc", Content: ptr("original"),
	})
	require.NoError(t, err)

	embedder.embedErr = errors.New("provider down")
	updated, err := svc.Update(ctx, doc.ID, "", ptr("new text"))
	require.NoError(t, err)
	assert.Equal(t, "new text", updated.Text())
	assert.Nil(t, updated.Embedding)

	saved, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "new text", saved.Text())
}

func TestDocumentService_Update_RejectsChunks(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	parent := "parent"
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "chunk-1", ParentID: &parent}))

	svc := NewDocumentService(store, &mockEmbeddingService{embedding: []float32{1}}, nil)
	_, err := svc.Update(ctx, "chunk-1", "New", ptr("text"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	svc := NewDocumentService(store, &mockEmbeddingService{embedding: []float32{1}}, nil)

	doc, err := svc.Create(ctx, driving.NewDocument{
		WorkspaceID: "ws-1", Scope: domain.ScopeShared, Title: "Doomed", Content: ptr("x"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, doc.ID))
	_, err = svc.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

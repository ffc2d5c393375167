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
)

// Ensure SignalService implements the interface.
var _ driving.SignalService = (*SignalService)(nil)

// SignalService manages the signal lifecycle.
type SignalService struct {
	signalStore      driven.SignalStore
	embeddingService driven.EmbeddingService
}

// NewSignalService creates a new signal service.
// The embeddingService parameter is optional (can be nil); signals are
// then captured without embeddings.
func NewSignalService(signalStore driven.SignalStore, embeddingService driven.EmbeddingService) *SignalService {
	return &SignalService{
		signalStore:      signalStore,
		embeddingService: embeddingService,
	}
}

// Capture persists a new signal. Embedding is best-effort: capture must
// never lose an observation to a flaky embedding provider.
func (s *SignalService) Capture(ctx context.Context, input driving.NewSignal) (*domain.Signal, error) {
	if input.WorkspaceID == "" || input.AuthorID == "" {
		return nil, fmt.Errorf("%w: workspace and author are required", domain.ErrInvalidInput)
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: signal content is empty", domain.ErrInvalidInput)
	}
	if input.AIPriority != "" && !input.AIPriority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, input.AIPriority)
	}

	sig := &domain.Signal{
		ID:             uuid.New().String(),
		WorkspaceID:    input.WorkspaceID,
		AuthorID:       input.AuthorID,
		ConversationID: input.ConversationID,
		MessageID:      input.MessageID,
		Content:        content,
		AIPriority:     input.AIPriority,
		Status:         domain.SignalOpen,
		CreatedAt:      time.Now().UTC(),
	}

	if s.embeddingService != nil {
		embedding, err := s.embeddingService.Embed(ctx, content)
		if err != nil {
			logger.Warn("Signal embedding failed: %v", err)
		} else {
			sig.Embedding = embedding
		}
	}

	if err := s.signalStore.Append(ctx, sig); err != nil {
		return nil, fmt.Errorf("append signal: %w", err)
	}
	logger.Debug("Captured signal %s from %s", sig.ID, sig.AuthorID)
	return sig, nil
}

// List returns all non-dismissed signals for the workspace.
func (s *SignalService) List(ctx context.Context, workspaceID string) ([]domain.Signal, error) {
	return s.signalStore.List(ctx, workspaceID)
}

// ListUnprocessed returns signals not yet folded into any commit.
func (s *SignalService) ListUnprocessed(ctx context.Context, workspaceID string) ([]domain.Signal, error) {
	return s.signalStore.ListUnprocessed(ctx, workspaceID)
}

// SetHumanPriority sets or clears the reviewer priority. Setting stamps
// the review time; clearing removes it.
func (s *SignalService) SetHumanPriority(ctx context.Context, id string, priority *domain.Priority) error {
	if priority != nil && !priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, *priority)
	}
	var reviewedAt *time.Time
	if priority != nil {
		now := time.Now().UTC()
		reviewedAt = &now
	}
	return s.signalStore.SetHumanPriority(ctx, id, priority, reviewedAt)
}

// Resolve marks a signal resolved.
func (s *SignalService) Resolve(ctx context.Context, id string) error {
	return s.signalStore.SetStatus(ctx, id, domain.SignalResolved)
}

// Dismiss marks a signal dismissed, excluding it from listing and
// synthesis from now on.
func (s *SignalService) Dismiss(ctx context.Context, id string) error {
	return s.signalStore.SetStatus(ctx, id, domain.SignalDismissed)
}

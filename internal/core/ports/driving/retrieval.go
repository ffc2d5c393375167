package driving

import (
	"context"

	"github.com/driftline/driftline/internal/core/domain"
)

// RetrievalService assembles grounding context for a conversational turn.
type RetrievalService interface {
	// Retrieve returns up to limit logical documents from one scope,
	// ordered by descending similarity to the query. Errors are absorbed:
	// grounding context is an enhancement, so a failed retrieval yields
	// an empty slice, never an error.
	Retrieve(ctx context.Context, workspaceID string, ownerID *string, scope domain.Scope, query string, limit int) []domain.ContextResult
}

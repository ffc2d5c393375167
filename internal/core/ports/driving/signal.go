package driving

import (
	"context"

	"github.com/driftline/driftline/internal/core/domain"
)

// NewSignal is the caller-supplied part of a signal.
type NewSignal struct {
	// WorkspaceID is the owning workspace.
	WorkspaceID string

	// AuthorID identifies the observed user.
	AuthorID string

	// ConversationID is the optional source conversation.
	ConversationID string

	// MessageID is the optional source message.
	MessageID string

	// Content is the observation text.
	Content string

	// AIPriority is the optional model-assigned priority.
	AIPriority domain.Priority
}

// SignalService manages the signal lifecycle.
type SignalService interface {
	// Capture persists a new signal, embedding it best-effort.
	Capture(ctx context.Context, input NewSignal) (*domain.Signal, error)

	// List returns all non-dismissed signals for the workspace.
	List(ctx context.Context, workspaceID string) ([]domain.Signal, error)

	// ListUnprocessed returns signals not yet folded into any commit.
	ListUnprocessed(ctx context.Context, workspaceID string) ([]domain.Signal, error)

	// SetHumanPriority sets or clears (nil) the reviewer priority,
	// stamping or clearing the review timestamp atomically with it.
	SetHumanPriority(ctx context.Context, id string, priority *domain.Priority) error

	// Resolve marks a signal resolved.
	Resolve(ctx context.Context, id string) error

	// Dismiss marks a signal dismissed, excluding it from synthesis.
	Dismiss(ctx context.Context, id string) error
}

package driven

import (
	"context"
	"time"

	"github.com/driftline/driftline/internal/core/domain"
)

// SignalStore persists signals and answers the unprocessed-set query.
//
// "Unprocessed" is a set difference: all non-dismissed signals for the
// workspace minus those linked to any commit. Implementations must
// compute it against committed state so that a signal linked by a
// concurrent run is not handed out twice.
type SignalStore interface {
	// Append persists a new signal. Content is immutable afterwards.
	Append(ctx context.Context, signal *domain.Signal) error

	// Get retrieves a signal by ID.
	Get(ctx context.Context, id string) (*domain.Signal, error)

	// List returns all non-dismissed signals for the workspace,
	// newest first.
	List(ctx context.Context, workspaceID string) ([]domain.Signal, error)

	// ListUnprocessed returns non-dismissed signals not yet linked to
	// any commit, newest first.
	ListUnprocessed(ctx context.Context, workspaceID string) ([]domain.Signal, error)

	// SetHumanPriority sets or clears (nil) the human priority and
	// stamps or clears the review timestamp in the same write.
	SetHumanPriority(ctx context.Context, id string, priority *domain.Priority, reviewedAt *time.Time) error

	// SetAIPriority records the model-recommended priority.
	SetAIPriority(ctx context.Context, id string, priority domain.Priority) error

	// SetStatus transitions the signal's lifecycle state.
	SetStatus(ctx context.Context, id string, status domain.SignalStatus) error
}

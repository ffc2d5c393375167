package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
)

// Ensure SignalStore implements the interface.
var _ driven.SignalStore = (*SignalStore)(nil)

// SignalStore is an in-memory implementation of driven.SignalStore.
// The optional commit store supplies the linked-signal set that
// ListUnprocessed subtracts; with a nil commit store every non-dismissed
// signal counts as unprocessed.
type SignalStore struct {
	mu      sync.RWMutex
	signals map[string]domain.Signal
	seq     map[string]int
	next    int
	commits *CommitStore
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore(commits *CommitStore) *SignalStore {
	return &SignalStore{
		signals: make(map[string]domain.Signal),
		seq:     make(map[string]int),
		commits: commits,
	}
}

// Append persists a new signal.
func (s *SignalStore) Append(_ context.Context, signal *domain.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.signals[signal.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.signals[signal.ID] = *signal
	s.seq[signal.ID] = s.next
	s.next++
	return nil
}

// Get retrieves a signal by ID.
func (s *SignalStore) Get(_ context.Context, id string) (*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.signals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sig, nil
}

// List returns all non-dismissed signals for the workspace, newest first.
func (s *SignalStore) List(_ context.Context, workspaceID string) ([]domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(workspaceID, func(domain.Signal) bool { return true }), nil
}

// ListUnprocessed returns non-dismissed signals not yet linked to any
// commit, newest first.
func (s *SignalStore) ListUnprocessed(_ context.Context, workspaceID string) ([]domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(workspaceID, func(sig domain.Signal) bool {
		return s.commits == nil || !s.commits.isLinked(sig.ID)
	}), nil
}

// collect filters and orders signals. Callers hold at least the read lock.
func (s *SignalStore) collect(workspaceID string, keep func(domain.Signal) bool) []domain.Signal {
	var result []domain.Signal
	for id := range s.signals {
		sig := s.signals[id]
		if sig.WorkspaceID != workspaceID || sig.Status == domain.SignalDismissed {
			continue
		}
		if keep(sig) {
			result = append(result, sig)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		// Insertion order breaks timestamp ties.
		return s.seq[result[i].ID] > s.seq[result[j].ID]
	})
	return result
}

// SetHumanPriority sets or clears the reviewer priority and the review
// timestamp in the same write.
func (s *SignalStore) SetHumanPriority(_ context.Context, id string, priority *domain.Priority, reviewedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.signals[id]
	if !ok {
		return domain.ErrNotFound
	}
	if priority == nil {
		sig.HumanPriority = ""
	} else {
		sig.HumanPriority = *priority
	}
	sig.ReviewedAt = reviewedAt
	s.signals[id] = sig
	return nil
}

// SetAIPriority records the model-recommended priority.
func (s *SignalStore) SetAIPriority(_ context.Context, id string, priority domain.Priority) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.signals[id]
	if !ok {
		return domain.ErrNotFound
	}
	sig.AIPriority = priority
	s.signals[id] = sig
	return nil
}

// SetStatus transitions the signal's lifecycle state.
func (s *SignalStore) SetStatus(_ context.Context, id string, status domain.SignalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.signals[id]
	if !ok {
		return domain.ErrNotFound
	}
	sig.Status = status
	s.signals[id] = sig
	return nil
}

package memory

import (
	"context"
	"sync"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
)

// Ensure CommitStore implements the interface.
var _ driven.CommitStore = (*CommitStore)(nil)

// CommitStore is an in-memory implementation of driven.CommitStore.
// It enforces the same guards as the SQLite adapter: an optimistic head
// check on insert and at-most-one-commit-per-signal on linking.
type CommitStore struct {
	mu       sync.RWMutex
	commits  []domain.Commit
	versions map[string][]domain.DocumentVersion
	linked   map[string]string // signal ID -> commit ID
	byCommit map[string][]string
}

// NewCommitStore creates a new in-memory commit store.
func NewCommitStore() *CommitStore {
	return &CommitStore{
		versions: make(map[string][]domain.DocumentVersion),
		linked:   make(map[string]string),
		byCommit: make(map[string][]string),
	}
}

// Head returns the most recently inserted commit for the workspace,
// or nil when the workspace has no commits.
func (s *CommitStore) Head(_ context.Context, workspaceID string) (*domain.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	head := s.headLocked(workspaceID)
	if head == nil {
		return nil, nil
	}
	copied := *head
	return &copied, nil
}

func (s *CommitStore) headLocked(workspaceID string) *domain.Commit {
	for i := len(s.commits) - 1; i >= 0; i-- {
		if s.commits[i].WorkspaceID == workspaceID {
			return &s.commits[i]
		}
	}
	return nil
}

// GetCommit retrieves a commit by ID.
func (s *CommitStore) GetCommit(_ context.Context, id string) (*domain.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.commits {
		if s.commits[i].ID == id {
			copied := s.commits[i]
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

// InsertCommit writes a new commit after verifying the workspace head
// still equals the commit's parent.
func (s *CommitStore) InsertCommit(_ context.Context, commit *domain.Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.headLocked(commit.WorkspaceID)
	switch {
	case head == nil && commit.ParentID == nil:
		// First commit of the workspace.
	case head != nil && commit.ParentID != nil && *commit.ParentID == head.ID:
		// Linear append onto the current head.
	default:
		return domain.ErrSynthesisConflict
	}

	s.commits = append(s.commits, *commit)
	return nil
}

// LinkSignals links signals to a commit. A signal already linked to any
// commit fails the whole batch.
func (s *CommitStore) LinkSignals(_ context.Context, commitID string, signalIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range signalIDs {
		if _, taken := s.linked[id]; taken {
			return domain.ErrSynthesisConflict
		}
	}
	for _, id := range signalIDs {
		s.linked[id] = commitID
		s.byCommit[commitID] = append(s.byCommit[commitID], id)
	}
	return nil
}

// SaveVersion appends one document version snapshot.
func (s *CommitStore) SaveVersion(_ context.Context, version *domain.DocumentVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[version.CommitID] = append(s.versions[version.CommitID], *version)
	return nil
}

// ListCommits returns the newest commits for a workspace, newest first.
// A non-positive limit returns all commits.
func (s *CommitStore) ListCommits(_ context.Context, workspaceID string, limit int) ([]domain.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Commit
	for i := len(s.commits) - 1; i >= 0; i-- {
		if s.commits[i].WorkspaceID != workspaceID {
			continue
		}
		result = append(result, s.commits[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// ListVersions returns the version snapshots written by one commit.
func (s *CommitStore) ListVersions(_ context.Context, commitID string) ([]domain.DocumentVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.versions[commitID]
	result := make([]domain.DocumentVersion, len(versions))
	copy(result, versions)
	return result, nil
}

// ListLinkedSignalIDs returns the IDs of signals folded into a commit.
func (s *CommitStore) ListLinkedSignalIDs(_ context.Context, commitID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byCommit[commitID]
	result := make([]string, len(ids))
	copy(result, ids)
	return result, nil
}

// isLinked reports whether a signal is already linked to some commit.
// Used by the in-memory signal store for its unprocessed-set query.
func (s *CommitStore) isLinked(signalID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.linked[signalID]
	return ok
}

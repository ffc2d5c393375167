package services

import (
	"context"
	"fmt"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
	"github.com/driftline/driftline/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.CommitHistory = (*HistoryService)(nil)

// DefaultHistoryLimit is how many commits a history listing returns
// when the caller does not say.
const DefaultHistoryLimit = 20

// HistoryService reads the synthesis history.
type HistoryService struct {
	commitStore driven.CommitStore
}

// NewHistoryService creates a new history service.
func NewHistoryService(commitStore driven.CommitStore) *HistoryService {
	return &HistoryService{commitStore: commitStore}
}

// ListCommits returns the newest commits, newest first.
func (s *HistoryService) ListCommits(ctx context.Context, workspaceID string, limit int) ([]domain.Commit, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.commitStore.ListCommits(ctx, workspaceID, limit)
}

// CommitDetail returns one commit joined with its version snapshots and
// linked signal IDs.
func (s *HistoryService) CommitDetail(ctx context.Context, commitID string) (*driving.CommitDetail, error) {
	commit, err := s.commitStore.GetCommit(ctx, commitID)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}
	versions, err := s.commitStore.ListVersions(ctx, commitID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	signalIDs, err := s.commitStore.ListLinkedSignalIDs(ctx, commitID)
	if err != nil {
		return nil, fmt.Errorf("list linked signals: %w", err)
	}
	return &driving.CommitDetail{
		Commit:    *commit,
		Versions:  versions,
		SignalIDs: signalIDs,
	}, nil
}

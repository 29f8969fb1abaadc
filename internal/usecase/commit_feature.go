package usecase

import (
	"context"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
)

// CommitFeatureInput contains the parameters for committing a feature's work.
type CommitFeatureInput struct {
	ProjectPath string
	FeatureID   string
	Message     string // Optional; defaults to the feature title
}

// CommitFeatureOutput contains the result of the commit.
type CommitFeatureOutput struct {
	Feature *domain.Feature
	Hash    string
	WorkDir string
}

// CommitFeature is the use case for committing a feature's uncommitted
// changes. It reports the hash and leaves the status alone.
type CommitFeature struct {
	store     domain.ContextStore
	worktrees domain.WorktreeManager
}

// NewCommitFeature creates a new CommitFeature use case.
func NewCommitFeature(store domain.ContextStore, worktrees domain.WorktreeManager) *CommitFeature {
	return &CommitFeature{store: store, worktrees: worktrees}
}

// Execute commits everything under the feature's working directory.
func (uc *CommitFeature) Execute(_ context.Context, in CommitFeatureInput) (*CommitFeatureOutput, error) {
	f, err := uc.store.LoadFeature(in.FeatureID)
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}

	workDir := f.WorktreePath
	if workDir == "" {
		workDir = in.ProjectPath
	}

	message := in.Message
	if message == "" {
		message = f.Title()
	}

	hash, err := uc.worktrees.Commit(workDir, message)
	if err != nil {
		return nil, fmt.Errorf("commit feature: %w", err)
	}
	return &CommitFeatureOutput{Feature: f, Hash: hash, WorkDir: workDir}, nil
}

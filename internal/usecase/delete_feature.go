package usecase

import (
	"context"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
)

// DeleteFeatureInput contains the parameters for deleting a feature.
type DeleteFeatureInput struct {
	ProjectPath    string
	FeatureID      string
	RemoveWorktree bool // Also remove the feature's worktree and branch
}

// DeleteFeatureOutput contains the result of the deletion.
type DeleteFeatureOutput struct {
	FeatureID string
}

// DeleteFeature is the use case for removing a feature and its context
// directory.
type DeleteFeature struct {
	store     domain.ContextStore
	worktrees domain.WorktreeManager
	scheduler Scheduler
}

// NewDeleteFeature creates a new DeleteFeature use case.
func NewDeleteFeature(store domain.ContextStore, worktrees domain.WorktreeManager, scheduler Scheduler) *DeleteFeature {
	return &DeleteFeature{store: store, worktrees: worktrees, scheduler: scheduler}
}

// Execute deletes the feature. A running feature is rejected; stop it
// first.
func (uc *DeleteFeature) Execute(_ context.Context, in DeleteFeatureInput) (*DeleteFeatureOutput, error) {
	if uc.scheduler != nil && isRunning(uc.scheduler, in.FeatureID) {
		return nil, fmt.Errorf("feature %s: %w", in.FeatureID, domain.ErrFeatureRunning)
	}

	f, err := uc.store.LoadFeature(in.FeatureID)
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}

	if in.RemoveWorktree && f.HasWorktree() {
		if _, err := uc.worktrees.Remove(in.ProjectPath, f.ID, f.BranchName, true); err != nil {
			return nil, fmt.Errorf("remove worktree: %w", err)
		}
	}

	if err := uc.store.DeleteContext(f.ID); err != nil {
		return nil, fmt.Errorf("delete context: %w", err)
	}
	return &DeleteFeatureOutput{FeatureID: f.ID}, nil
}

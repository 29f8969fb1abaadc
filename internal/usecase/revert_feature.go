package usecase

import (
	"context"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
)

// RevertFeatureInput contains the parameters for reverting a feature.
type RevertFeatureInput struct {
	ProjectPath  string
	FeatureID    string
	KeepBranch   bool // Keep the feature branch when removing the worktree
	KeepContext  bool // Keep the accumulated transcript
}

// RevertFeatureOutput contains the result of the revert.
type RevertFeatureOutput struct {
	Feature       *domain.Feature
	RemovedBranch string
}

// RevertFeature is the use case for discarding a feature's work: the
// worktree goes, the transcript goes (unless kept), and the feature
// returns to the backlog with a cleared binding.
type RevertFeature struct {
	store     domain.ContextStore
	worktrees domain.WorktreeManager
	scheduler Scheduler
}

// NewRevertFeature creates a new RevertFeature use case.
func NewRevertFeature(store domain.ContextStore, worktrees domain.WorktreeManager, scheduler Scheduler) *RevertFeature {
	return &RevertFeature{store: store, worktrees: worktrees, scheduler: scheduler}
}

// Execute reverts the feature. A running feature must be stopped first.
func (uc *RevertFeature) Execute(_ context.Context, in RevertFeatureInput) (*RevertFeatureOutput, error) {
	if uc.scheduler != nil && isRunning(uc.scheduler, in.FeatureID) {
		return nil, fmt.Errorf("feature %s: %w", in.FeatureID, domain.ErrFeatureRunning)
	}

	f, err := uc.store.LoadFeature(in.FeatureID)
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}

	var removedBranch string
	if f.WorktreePath != "" {
		removedBranch, err = uc.worktrees.Remove(in.ProjectPath, f.ID, f.BranchName, !in.KeepBranch)
		if err != nil {
			return nil, fmt.Errorf("remove worktree: %w", err)
		}
	}

	if !in.KeepContext {
		if err := uc.store.DeleteTranscript(f.ID); err != nil {
			return nil, fmt.Errorf("delete transcript: %w", err)
		}
	}

	f.ClearWorktreeBinding()
	f.Summary = ""
	f.Error = ""
	if err := uc.store.SaveFeature(f); err != nil {
		return nil, fmt.Errorf("save feature: %w", err)
	}

	f, err = uc.store.UpdateStatus(f.ID, domain.StatusBacklog, "", "")
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	return &RevertFeatureOutput{Feature: f, RemovedBranch: removedBranch}, nil
}

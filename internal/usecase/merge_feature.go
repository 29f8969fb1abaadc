package usecase

import (
	"context"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
)

// MergeFeatureInput contains the parameters for merging a feature branch.
type MergeFeatureInput struct {
	ProjectPath  string
	FeatureID    string
	NoFF         bool
	Cleanup      bool // Remove the worktree after a successful merge
	DeleteBranch bool // Delete the feature branch after a successful merge
}

// MergeFeatureOutput contains the result of the merge.
type MergeFeatureOutput struct {
	Feature *domain.Feature
	Result  *domain.MergeResult
}

// MergeFeature is the use case for merging a reviewed feature branch
// back into its base branch.
type MergeFeature struct {
	store     domain.ContextStore
	worktrees domain.WorktreeManager
	git       domain.Git
	scheduler Scheduler
}

// NewMergeFeature creates a new MergeFeature use case.
func NewMergeFeature(store domain.ContextStore, worktrees domain.WorktreeManager, git domain.Git, scheduler Scheduler) *MergeFeature {
	return &MergeFeature{store: store, worktrees: worktrees, git: git, scheduler: scheduler}
}

// Execute merges the feature branch into the base branch recorded at
// worktree creation. A conflict fails loudly: no cleanup, no status
// change, the caller resolves and retries.
func (uc *MergeFeature) Execute(_ context.Context, in MergeFeatureInput) (*MergeFeatureOutput, error) {
	if uc.scheduler != nil && isRunning(uc.scheduler, in.FeatureID) {
		return nil, fmt.Errorf("feature %s: %w", in.FeatureID, domain.ErrFeatureRunning)
	}

	f, err := uc.store.LoadFeature(in.FeatureID)
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}
	if f.Status != domain.StatusWaitingApproval && f.Status != domain.StatusVerified {
		return nil, fmt.Errorf("feature %s is %s: %w", f.ID, f.Status, domain.ErrInvalidTransition)
	}
	if f.BranchName == "" {
		return nil, fmt.Errorf("feature %s has no branch: %w", f.ID, domain.ErrWorktreeNotFound)
	}

	base := f.BaseBranch
	if base == "" {
		if base, err = uc.git.CurrentBranch(in.ProjectPath); err != nil {
			return nil, fmt.Errorf("resolve base branch: %w", err)
		}
	}

	res, err := uc.worktrees.Merge(in.ProjectPath, f.BranchName, base, domain.MergeOptions{
		Cleanup:      in.Cleanup,
		DeleteBranch: in.DeleteBranch,
		NoFF:         in.NoFF,
	})
	if err != nil {
		return nil, fmt.Errorf("merge feature: %w", err)
	}

	if in.Cleanup {
		f.WorktreePath = ""
	}
	if in.DeleteBranch {
		f.BranchName = ""
	}
	if err := uc.store.SaveFeature(f); err != nil {
		return nil, fmt.Errorf("save feature: %w", err)
	}

	f, err = uc.store.UpdateStatus(f.ID, domain.StatusVerified, "", "")
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	return &MergeFeatureOutput{Feature: f, Result: res}, nil
}

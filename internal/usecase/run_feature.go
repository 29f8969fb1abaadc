package usecase

import (
	"context"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/engine"
)

// RunFeatureInput contains the parameters for running a single feature.
type RunFeatureInput struct {
	ProjectPath string
	FeatureID   string
	NoWorktree  bool // Run in the project root instead of an isolated worktree
}

// RunFeatureOutput contains the result of launching a feature run.
type RunFeatureOutput struct {
	Feature *domain.Feature
}

// RunFeature is the use case for a user-initiated single feature run.
type RunFeature struct {
	store     domain.ContextStore
	scheduler Scheduler
	cfg       *domain.Config
}

// NewRunFeature creates a new RunFeature use case.
func NewRunFeature(store domain.ContextStore, scheduler Scheduler, cfg *domain.Config) *RunFeature {
	return &RunFeature{store: store, scheduler: scheduler, cfg: cfg}
}

// Execute launches the feature and returns immediately; completion
// arrives on the event stream.
func (uc *RunFeature) Execute(_ context.Context, in RunFeatureInput) (*RunFeatureOutput, error) {
	f, err := uc.store.LoadFeature(in.FeatureID)
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}
	if !f.Status.CanStart() {
		return nil, fmt.Errorf("feature %s is %s: %w", f.ID, f.Status, domain.ErrInvalidTransition)
	}

	opts := engine.RunOptions{
		UseWorktree: !in.NoWorktree && !uc.cfg.Worktree.Disabled,
	}
	if err := uc.scheduler.RunFeature(in.ProjectPath, in.FeatureID, opts); err != nil {
		return nil, err
	}
	return &RunFeatureOutput{Feature: f}, nil
}

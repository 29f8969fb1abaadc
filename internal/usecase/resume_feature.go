package usecase

import (
	"context"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/engine"
)

// ResumeFeatureInput contains the parameters for resuming a feature.
type ResumeFeatureInput struct {
	ProjectPath string
	FeatureID   string
	NoWorktree  bool
}

// ResumeFeatureOutput contains the result of launching a resume.
type ResumeFeatureOutput struct {
	Feature *domain.Feature
}

// ResumeFeature is the use case for continuing an interrupted or
// incomplete run. The agent sees its own previous transcript, and a
// run that ends early is automatically resubmitted a bounded number
// of times.
type ResumeFeature struct {
	store     domain.ContextStore
	scheduler Scheduler
	cfg       *domain.Config
}

// NewResumeFeature creates a new ResumeFeature use case.
func NewResumeFeature(store domain.ContextStore, scheduler Scheduler, cfg *domain.Config) *ResumeFeature {
	return &ResumeFeature{store: store, scheduler: scheduler, cfg: cfg}
}

// Execute launches the resume and returns immediately.
func (uc *ResumeFeature) Execute(_ context.Context, in ResumeFeatureInput) (*ResumeFeatureOutput, error) {
	f, err := uc.store.LoadFeature(in.FeatureID)
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}
	if !uc.store.ContextExists(in.FeatureID) {
		return nil, fmt.Errorf("feature %s: %w", in.FeatureID, domain.ErrContextNotFound)
	}

	opts := engine.RunOptions{
		Resume:      true,
		UseWorktree: !in.NoWorktree && !uc.cfg.Worktree.Disabled,
	}
	if err := uc.scheduler.RunFeature(in.ProjectPath, in.FeatureID, opts); err != nil {
		return nil, err
	}
	return &ResumeFeatureOutput{Feature: f}, nil
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/engine"
)

// FollowUpFeatureInput contains the parameters for a follow-up run.
type FollowUpFeatureInput struct {
	ProjectPath  string
	FeatureID    string
	Instructions string
	Images       []domain.ImageAttachment
	NoWorktree   bool
}

// FollowUpFeatureOutput contains the result of launching a follow-up.
type FollowUpFeatureOutput struct {
	Feature *domain.Feature
}

// FollowUpFeature is the use case for sending new instructions into an
// existing feature conversation.
type FollowUpFeature struct {
	store     domain.ContextStore
	scheduler Scheduler
	cfg       *domain.Config
}

// NewFollowUpFeature creates a new FollowUpFeature use case.
func NewFollowUpFeature(store domain.ContextStore, scheduler Scheduler, cfg *domain.Config) *FollowUpFeature {
	return &FollowUpFeature{store: store, scheduler: scheduler, cfg: cfg}
}

// Execute attaches any new images to the feature and launches the
// follow-up run.
func (uc *FollowUpFeature) Execute(_ context.Context, in FollowUpFeatureInput) (*FollowUpFeatureOutput, error) {
	if strings.TrimSpace(in.Instructions) == "" {
		return nil, fmt.Errorf("follow-up: %w", domain.ErrEmptyDescription)
	}

	f, err := uc.store.LoadFeature(in.FeatureID)
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}

	if len(in.Images) > 0 {
		f.Images = append(f.Images, in.Images...)
		if err := uc.store.SaveFeature(f); err != nil {
			return nil, fmt.Errorf("save feature: %w", err)
		}
	}

	opts := engine.RunOptions{
		FollowUp:    in.Instructions,
		UseWorktree: !in.NoWorktree && !uc.cfg.Worktree.Disabled,
	}
	if err := uc.scheduler.RunFeature(in.ProjectPath, in.FeatureID, opts); err != nil {
		return nil, err
	}
	return &FollowUpFeatureOutput{Feature: f}, nil
}

package usecase

import (
	"context"
	"fmt"
	"slices"

	"github.com/voidlock/gaffer/internal/domain"
)

// ListFeaturesInput contains the parameters for listing features.
type ListFeaturesInput struct {
	Status   domain.Status // Filter by status ("" = all)
	Category string        // Filter by category ("" = all)
}

// FeatureWithState pairs a feature with its live execution state.
type FeatureWithState struct {
	Feature   *domain.Feature
	IsRunning bool
}

// ListFeaturesOutput contains the result of listing features.
type ListFeaturesOutput struct {
	Features []FeatureWithState
}

// ListFeatures is the use case for backlog inspection.
type ListFeatures struct {
	store     domain.ContextStore
	scheduler Scheduler
}

// NewListFeatures creates a new ListFeatures use case.
func NewListFeatures(store domain.ContextStore, scheduler Scheduler) *ListFeatures {
	return &ListFeatures{store: store, scheduler: scheduler}
}

// Execute lists features matching the filter, priority first and then
// newest last, each annotated with whether it is currently running.
func (uc *ListFeatures) Execute(_ context.Context, in ListFeaturesInput) (*ListFeaturesOutput, error) {
	features, err := uc.store.ListFeatures()
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}

	slices.SortStableFunc(features, func(a, b *domain.Feature) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		default:
			return 0
		}
	})

	out := make([]FeatureWithState, 0, len(features))
	for _, f := range features {
		if in.Status != "" && f.Status.Normalize() != in.Status.Normalize() {
			continue
		}
		if in.Category != "" && f.Category != in.Category {
			continue
		}
		running := uc.scheduler != nil && isRunning(uc.scheduler, f.ID)
		out = append(out, FeatureWithState{Feature: f, IsRunning: running})
	}
	return &ListFeaturesOutput{Features: out}, nil
}

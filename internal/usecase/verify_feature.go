package usecase

import (
	"context"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
)

// VerifyFeatureInput contains the parameters for verifying a feature.
type VerifyFeatureInput struct {
	FeatureID string
	Summary   string // Optional verification summary
}

// VerifyFeatureOutput contains the result of the verification.
type VerifyFeatureOutput struct {
	Feature *domain.Feature
}

// VerifyFeature is the use case behind `gaffer verify`. Agents run it
// mid-execution to close the verification loop; humans run it to
// approve reviewed work.
type VerifyFeature struct {
	store domain.ContextStore
}

// NewVerifyFeature creates a new VerifyFeature use case.
func NewVerifyFeature(store domain.ContextStore) *VerifyFeature {
	return &VerifyFeature{store: store}
}

// Execute marks the feature verified. A skip-tests feature still
// mid-run is routed to waiting_approval instead: nothing ran the test
// suite, so a human signs off first.
func (uc *VerifyFeature) Execute(_ context.Context, in VerifyFeatureInput) (*VerifyFeatureOutput, error) {
	f, err := uc.store.LoadFeature(in.FeatureID)
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}

	target := domain.StatusVerified
	if f.SkipTests && f.Status == domain.StatusInProgress {
		target = domain.StatusWaitingApproval
	}

	updated, err := uc.store.UpdateStatus(f.ID, target, in.Summary, "")
	if err != nil {
		return nil, fmt.Errorf("verify feature: %w", err)
	}
	return &VerifyFeatureOutput{Feature: updated}, nil
}

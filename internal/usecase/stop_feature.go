package usecase

import (
	"context"
)

// StopFeatureInput contains the parameters for stopping a running feature.
type StopFeatureInput struct {
	FeatureID string
}

// StopFeatureOutput contains the result of requesting a stop.
type StopFeatureOutput struct {
	FeatureID string
}

// StopFeature is the use case for cancelling one running execution.
type StopFeature struct {
	scheduler Scheduler
}

// NewStopFeature creates a new StopFeature use case.
func NewStopFeature(scheduler Scheduler) *StopFeature {
	return &StopFeature{scheduler: scheduler}
}

// Execute requests cancellation. The stop is cooperative: the agent
// observes it at its next suspension point, and the feature's status
// is left as-is.
func (uc *StopFeature) Execute(_ context.Context, in StopFeatureInput) (*StopFeatureOutput, error) {
	if err := uc.scheduler.StopFeature(in.FeatureID); err != nil {
		return nil, err
	}
	return &StopFeatureOutput{FeatureID: in.FeatureID}, nil
}

package usecase

import (
	"context"
	"fmt"
)

// StopAutoInput contains the parameters for stopping the auto-mode loop.
type StopAutoInput struct{}

// StopAutoOutput contains the result of stopping auto mode.
type StopAutoOutput struct {
	// StillRunning counts in-flight executions left untouched by the stop.
	StillRunning int
}

// StopAuto is the use case for stopping the auto-mode loop.
type StopAuto struct {
	scheduler Scheduler
}

// NewStopAuto creates a new StopAuto use case.
func NewStopAuto(scheduler Scheduler) *StopAuto {
	return &StopAuto{scheduler: scheduler}
}

// Execute stops the scheduler loop. Running features are not stopped;
// use StopFeature for that.
func (uc *StopAuto) Execute(_ context.Context, _ StopAutoInput) (*StopAutoOutput, error) {
	if err := uc.scheduler.Stop(); err != nil {
		return nil, fmt.Errorf("stop auto mode: %w", err)
	}
	return &StopAutoOutput{StillRunning: uc.scheduler.RunningCount()}, nil
}

package usecase

import (
	"context"
	"fmt"
)

// StartAutoInput contains the parameters for starting the auto-mode loop.
type StartAutoInput struct {
	ProjectPath    string // Project root (must be a git repository)
	MaxConcurrency int    // Concurrent feature ceiling; 0 = config default
}

// StartAutoOutput contains the result of starting auto mode.
type StartAutoOutput struct {
	ProjectPath    string
	MaxConcurrency int
}

// StartAuto is the use case for starting the auto-mode loop.
type StartAuto struct {
	scheduler Scheduler
}

// NewStartAuto creates a new StartAuto use case.
func NewStartAuto(scheduler Scheduler) *StartAuto {
	return &StartAuto{scheduler: scheduler}
}

// Execute starts the scheduler loop. It returns immediately; feature
// completions arrive on the event stream.
func (uc *StartAuto) Execute(_ context.Context, in StartAutoInput) (*StartAutoOutput, error) {
	if err := uc.scheduler.Start(in.ProjectPath, in.MaxConcurrency); err != nil {
		return nil, fmt.Errorf("start auto mode: %w", err)
	}
	return &StartAutoOutput{
		ProjectPath:    in.ProjectPath,
		MaxConcurrency: in.MaxConcurrency,
	}, nil
}

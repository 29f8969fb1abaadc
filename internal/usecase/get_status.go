package usecase

import (
	"context"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
)

// GetStatusInput contains the parameters for the status query.
type GetStatusInput struct{}

// GetStatusOutput describes the engine's current state.
type GetStatusOutput struct {
	Running      []domain.ExecutionInfo
	StatusCounts map[domain.Status]int
	AutoRunning  bool
}

// GetStatus is the use case behind `gaffer status` and GET /status.
type GetStatus struct {
	store     domain.ContextStore
	scheduler Scheduler
}

// NewGetStatus creates a new GetStatus use case.
func NewGetStatus(store domain.ContextStore, scheduler Scheduler) *GetStatus {
	return &GetStatus{store: store, scheduler: scheduler}
}

// Execute reports the auto-mode flag, the running set and the backlog
// breakdown by status.
func (uc *GetStatus) Execute(_ context.Context, _ GetStatusInput) (*GetStatusOutput, error) {
	features, err := uc.store.ListFeatures()
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}

	counts := make(map[domain.Status]int)
	for _, f := range features {
		counts[f.Status.Normalize()]++
	}

	return &GetStatusOutput{
		AutoRunning:  uc.scheduler.IsAutoRunning(),
		Running:      uc.scheduler.Running(),
		StatusCounts: counts,
	}, nil
}

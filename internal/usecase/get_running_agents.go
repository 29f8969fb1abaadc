package usecase

import (
	"context"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
)

// GetRunningAgentsInput contains the parameters for the running-agents query.
type GetRunningAgentsInput struct{}

// RunningAgent pairs an execution with its feature metadata.
type RunningAgent struct {
	Feature   *domain.Feature
	Execution domain.ExecutionInfo
}

// GetRunningAgentsOutput lists the in-flight executions.
type GetRunningAgentsOutput struct {
	Agents []RunningAgent
}

// GetRunningAgents is the use case behind GET /agents.
type GetRunningAgents struct {
	store     domain.ContextStore
	scheduler Scheduler
}

// NewGetRunningAgents creates a new GetRunningAgents use case.
func NewGetRunningAgents(store domain.ContextStore, scheduler Scheduler) *GetRunningAgents {
	return &GetRunningAgents{store: store, scheduler: scheduler}
}

// Execute returns the running set joined with feature metadata.
func (uc *GetRunningAgents) Execute(_ context.Context, _ GetRunningAgentsInput) (*GetRunningAgentsOutput, error) {
	running := uc.scheduler.Running()
	agents := make([]RunningAgent, 0, len(running))
	for _, info := range running {
		f, err := uc.store.LoadFeature(info.FeatureID)
		if err != nil {
			return nil, fmt.Errorf("load feature %s: %w", info.FeatureID, err)
		}
		agents = append(agents, RunningAgent{Feature: f, Execution: info})
	}
	return &GetRunningAgentsOutput{Agents: agents}, nil
}

// Package usecase contains one type per control-surface operation.
// Each use case takes an Input struct, returns an Output struct, and
// depends only on domain ports plus the engine scheduler.
package usecase

import (
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/engine"
)

// Scheduler is the subset of the engine scheduler the control surface
// drives.
type Scheduler interface {
	Start(projectPath string, maxConcurrency int) error
	Stop() error
	StopFeature(featureID string) error
	RunFeature(projectPath, featureID string, opts engine.RunOptions) error
	Running() []domain.ExecutionInfo
	RunningCount() int
	IsAutoRunning() bool
}

// isRunning reports whether featureID is in the scheduler's running set.
func isRunning(s Scheduler, featureID string) bool {
	for _, info := range s.Running() {
		if info.FeatureID == featureID {
			return true
		}
	}
	return false
}

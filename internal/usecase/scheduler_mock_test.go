package usecase

import (
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/engine"
)

// fakeScheduler is a test double for the Scheduler interface.
// Fields are ordered to minimize memory padding.
type fakeScheduler struct {
	StartErr      error
	StopErr       error
	StopFeatErr   error
	RunErr        error
	LastProject   string
	LastFeatureID string
	RunningInfos  []domain.ExecutionInfo
	LastOpts      engine.RunOptions
	LastMaxConc   int
	AutoRunning   bool
	StartCalled   bool
	StopCalled    bool
	StopFeatID    string
	RunCalled     bool
}

func (s *fakeScheduler) Start(projectPath string, maxConcurrency int) error {
	s.StartCalled = true
	s.LastProject = projectPath
	s.LastMaxConc = maxConcurrency
	return s.StartErr
}

func (s *fakeScheduler) Stop() error {
	s.StopCalled = true
	return s.StopErr
}

func (s *fakeScheduler) StopFeature(featureID string) error {
	s.StopFeatID = featureID
	return s.StopFeatErr
}

func (s *fakeScheduler) RunFeature(projectPath, featureID string, opts engine.RunOptions) error {
	s.RunCalled = true
	s.LastProject = projectPath
	s.LastFeatureID = featureID
	s.LastOpts = opts
	return s.RunErr
}

func (s *fakeScheduler) Running() []domain.ExecutionInfo {
	return s.RunningInfos
}

func (s *fakeScheduler) RunningCount() int {
	return len(s.RunningInfos)
}

func (s *fakeScheduler) IsAutoRunning() bool {
	return s.AutoRunning
}

func running(ids ...string) []domain.ExecutionInfo {
	infos := make([]domain.ExecutionInfo, 0, len(ids))
	for _, id := range ids {
		infos = append(infos, domain.ExecutionInfo{FeatureID: id})
	}
	return infos
}

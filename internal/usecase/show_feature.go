package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/voidlock/gaffer/internal/domain"
)

// ShowFeatureInput contains the parameters for showing a feature.
type ShowFeatureInput struct {
	ProjectPath    string
	FeatureID      string
	TranscriptTail int // Lines of transcript to include; 0 = none, -1 = all
}

// ShowFeatureOutput contains the feature with its context.
type ShowFeatureOutput struct {
	Feature    *domain.Feature
	Transcript string
	Commits    []string // Branch commits not yet on the base branch
	IsRunning  bool
}

// ShowFeature is the use case for inspecting a single feature.
type ShowFeature struct {
	store     domain.ContextStore
	inspector domain.RepoInspector
	scheduler Scheduler
}

// NewShowFeature creates a new ShowFeature use case.
func NewShowFeature(store domain.ContextStore, inspector domain.RepoInspector, scheduler Scheduler) *ShowFeature {
	return &ShowFeature{store: store, inspector: inspector, scheduler: scheduler}
}

// Execute loads the feature, the requested transcript tail, and the
// branch commits pending merge. Inspection failures are tolerated: the
// feature itself always comes back.
func (uc *ShowFeature) Execute(_ context.Context, in ShowFeatureInput) (*ShowFeatureOutput, error) {
	f, err := uc.store.LoadFeature(in.FeatureID)
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}

	out := &ShowFeatureOutput{
		Feature:   f,
		IsRunning: uc.scheduler != nil && isRunning(uc.scheduler, f.ID),
	}

	if in.TranscriptTail != 0 {
		transcript, err := uc.store.ReadTranscript(f.ID)
		if err == nil {
			out.Transcript = tailLines(transcript, in.TranscriptTail)
		}
	}

	if uc.inspector != nil && f.HasWorktree() && f.BaseBranch != "" {
		commits, err := uc.inspector.CommitsBetween(in.ProjectPath, f.BaseBranch, f.BranchName, 20)
		if err == nil {
			out.Commits = commits
		}
	}

	return out, nil
}

// tailLines returns the last n lines of s, or all of it when n < 0.
func tailLines(s string, n int) string {
	if n < 0 {
		return s
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n") + "\n"
}

package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/testutil"
)

func TestListFeatures_SortsAndAnnotates(t *testing.T) {
	store := testutil.NewMockContextStore()
	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	old := seedFeature(store, "old", domain.StatusBacklog)
	old.CreatedAt = base
	urgent := seedFeature(store, "urgent", domain.StatusBacklog)
	urgent.CreatedAt = base.Add(time.Hour)
	urgent.Priority = 5
	active := seedFeature(store, "active", domain.StatusInProgress)
	active.CreatedAt = base.Add(2 * time.Hour)

	scheduler := &fakeScheduler{RunningInfos: running("active")}
	uc := NewListFeatures(store, scheduler)

	out, err := uc.Execute(context.Background(), ListFeaturesInput{})
	require.NoError(t, err)
	require.Len(t, out.Features, 3)
	assert.Equal(t, "urgent", out.Features[0].Feature.ID, "priority first")
	assert.Equal(t, "old", out.Features[1].Feature.ID, "then creation order")

	for _, fs := range out.Features {
		if fs.Feature.ID == "active" {
			assert.True(t, fs.IsRunning)
		} else {
			assert.False(t, fs.IsRunning)
		}
	}
}

func TestListFeatures_StatusFilter(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "a", domain.StatusBacklog)
	seedFeature(store, "b", domain.StatusVerified)
	pending := seedFeature(store, "c", domain.StatusBacklog)
	pending.Status = "pending" // synonym, normalized on filter

	uc := NewListFeatures(store, &fakeScheduler{})
	out, err := uc.Execute(context.Background(), ListFeaturesInput{Status: domain.StatusBacklog})
	require.NoError(t, err)
	assert.Len(t, out.Features, 2)
}

func TestGetStatus_Counts(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "a", domain.StatusBacklog)
	seedFeature(store, "b", domain.StatusBacklog)
	seedFeature(store, "c", domain.StatusVerified)

	scheduler := &fakeScheduler{AutoRunning: true, RunningInfos: running("a")}
	uc := NewGetStatus(store, scheduler)

	out, err := uc.Execute(context.Background(), GetStatusInput{})
	require.NoError(t, err)
	assert.True(t, out.AutoRunning)
	assert.Len(t, out.Running, 1)
	assert.Equal(t, 2, out.StatusCounts[domain.StatusBacklog])
	assert.Equal(t, 1, out.StatusCounts[domain.StatusVerified])
}

func TestGetRunningAgents_JoinsFeatures(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "alpha", domain.StatusInProgress)
	scheduler := &fakeScheduler{RunningInfos: running("alpha")}

	uc := NewGetRunningAgents(store, scheduler)
	out, err := uc.Execute(context.Background(), GetRunningAgentsInput{})
	require.NoError(t, err)
	require.Len(t, out.Agents, 1)
	assert.Equal(t, "alpha", out.Agents[0].Feature.ID)
}

func TestShowFeature_TranscriptTail(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "alpha", domain.StatusWaitingApproval)
	store.Transcripts["alpha"] = "one\ntwo\nthree\nfour\n"

	uc := NewShowFeature(store, &testutil.MockRepoInspector{}, &fakeScheduler{})
	out, err := uc.Execute(context.Background(), ShowFeatureInput{ProjectPath: "/proj", FeatureID: "alpha", TranscriptTail: 2})
	require.NoError(t, err)
	assert.Equal(t, "three\nfour\n", out.Transcript)
}

func TestShowFeature_PendingCommits(t *testing.T) {
	store := testutil.NewMockContextStore()
	f := seedFeature(store, "alpha", domain.StatusWaitingApproval)
	f.WorktreePath = "/proj/.worktrees/alpha"
	f.BranchName = "gaffer/alpha"
	f.BaseBranch = "main"

	inspector := &testutil.MockRepoInspector{Commits: []string{"add endpoint", "fix test"}}
	uc := NewShowFeature(store, inspector, &fakeScheduler{})

	out, err := uc.Execute(context.Background(), ShowFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, []string{"add endpoint", "fix test"}, out.Commits)
}

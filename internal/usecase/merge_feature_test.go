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

func mergeable(store *testutil.MockContextStore) *domain.Feature {
	f := seedFeature(store, "alpha", domain.StatusWaitingApproval)
	f.WorktreePath = "/proj/.worktrees/alpha"
	f.BranchName = "gaffer/alpha"
	f.BaseBranch = "main"
	return f
}

func TestMergeFeature_Merges(t *testing.T) {
	store := testutil.NewMockContextStore()
	worktrees := testutil.NewMockWorktreeManager()
	mergeable(store)

	uc := NewMergeFeature(store, worktrees, testutil.NewMockGit(), &fakeScheduler{})
	out, err := uc.Execute(context.Background(), MergeFeatureInput{
		ProjectPath: "/proj", FeatureID: "alpha", Cleanup: true, DeleteBranch: true,
	})
	require.NoError(t, err)

	assert.True(t, worktrees.MergeCalled)
	assert.True(t, worktrees.MergeOpts.Cleanup)
	assert.True(t, worktrees.MergeOpts.DeleteBranch)
	assert.Equal(t, domain.StatusVerified, out.Feature.Status)
	assert.Empty(t, out.Feature.WorktreePath, "binding cleared after cleanup")
	assert.Empty(t, out.Feature.BranchName)
}

func TestMergeFeature_ClearsJustFinishedStamp(t *testing.T) {
	store := testutil.NewMockContextStore()
	f := mergeable(store)
	finished := time.Now().Add(-time.Minute)
	f.JustFinishedAt = &finished

	uc := NewMergeFeature(store, testutil.NewMockWorktreeManager(), testutil.NewMockGit(), &fakeScheduler{})
	out, err := uc.Execute(context.Background(), MergeFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusVerified, out.Feature.Status)
	assert.Nil(t, out.Feature.JustFinishedAt, "verified work is no longer just-finished")

	stored, err := store.LoadFeature("alpha")
	require.NoError(t, err)
	assert.Nil(t, stored.JustFinishedAt)
}

func TestMergeFeature_ConflictLeavesEverything(t *testing.T) {
	store := testutil.NewMockContextStore()
	worktrees := testutil.NewMockWorktreeManager()
	worktrees.MergeErr = domain.ErrMergeConflict
	mergeable(store)

	uc := NewMergeFeature(store, worktrees, testutil.NewMockGit(), &fakeScheduler{})
	_, err := uc.Execute(context.Background(), MergeFeatureInput{ProjectPath: "/proj", FeatureID: "alpha", Cleanup: true})
	assert.ErrorIs(t, err, domain.ErrMergeConflict)

	f, loadErr := store.LoadFeature("alpha")
	require.NoError(t, loadErr)
	assert.Equal(t, domain.StatusWaitingApproval, f.Status, "status untouched on conflict")
	assert.Equal(t, "/proj/.worktrees/alpha", f.WorktreePath, "worktree untouched on conflict")
}

func TestMergeFeature_WrongStatus(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "alpha", domain.StatusBacklog)

	uc := NewMergeFeature(store, testutil.NewMockWorktreeManager(), testutil.NewMockGit(), &fakeScheduler{})
	_, err := uc.Execute(context.Background(), MergeFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestMergeFeature_RunningRejected(t *testing.T) {
	store := testutil.NewMockContextStore()
	mergeable(store)
	scheduler := &fakeScheduler{RunningInfos: running("alpha")}

	uc := NewMergeFeature(store, testutil.NewMockWorktreeManager(), testutil.NewMockGit(), scheduler)
	_, err := uc.Execute(context.Background(), MergeFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	assert.ErrorIs(t, err, domain.ErrFeatureRunning)
}

func TestRevertFeature_ClearsEverything(t *testing.T) {
	store := testutil.NewMockContextStore()
	worktrees := testutil.NewMockWorktreeManager()
	f := mergeable(store)
	f.Summary = "old summary"
	store.Transcripts["alpha"] = "old transcript"

	uc := NewRevertFeature(store, worktrees, &fakeScheduler{})
	out, err := uc.Execute(context.Background(), RevertFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	require.NoError(t, err)

	assert.True(t, worktrees.RemoveCalled)
	assert.Equal(t, domain.StatusBacklog, out.Feature.Status)
	assert.Empty(t, out.Feature.WorktreePath)
	assert.Empty(t, out.Feature.Summary)

	transcript, _ := store.ReadTranscript("alpha")
	assert.Empty(t, transcript, "context discarded on revert")
}

func TestRevertFeature_ClearsJustFinishedStamp(t *testing.T) {
	store := testutil.NewMockContextStore()
	f := mergeable(store)
	finished := time.Now().Add(-time.Minute)
	f.JustFinishedAt = &finished

	uc := NewRevertFeature(store, testutil.NewMockWorktreeManager(), &fakeScheduler{})
	out, err := uc.Execute(context.Background(), RevertFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusBacklog, out.Feature.Status)
	assert.Nil(t, out.Feature.JustFinishedAt, "a reverted feature carries no finish stamp")

	stored, err := store.LoadFeature("alpha")
	require.NoError(t, err)
	assert.Nil(t, stored.JustFinishedAt)
}

func TestRevertFeature_KeepContext(t *testing.T) {
	store := testutil.NewMockContextStore()
	mergeable(store)
	store.Transcripts["alpha"] = "kept transcript"

	uc := NewRevertFeature(store, testutil.NewMockWorktreeManager(), &fakeScheduler{})
	_, err := uc.Execute(context.Background(), RevertFeatureInput{ProjectPath: "/proj", FeatureID: "alpha", KeepContext: true})
	require.NoError(t, err)

	transcript, _ := store.ReadTranscript("alpha")
	assert.Equal(t, "kept transcript", transcript)
}

func TestRevertFeature_RunningRejected(t *testing.T) {
	store := testutil.NewMockContextStore()
	mergeable(store)
	scheduler := &fakeScheduler{RunningInfos: running("alpha")}

	uc := NewRevertFeature(store, testutil.NewMockWorktreeManager(), scheduler)
	_, err := uc.Execute(context.Background(), RevertFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	assert.ErrorIs(t, err, domain.ErrFeatureRunning)
}

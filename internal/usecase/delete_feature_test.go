package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/testutil"
)

func TestDeleteFeature_RemovesContext(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "alpha", domain.StatusWaitingApproval)
	store.Transcripts["alpha"] = "work"

	uc := NewDeleteFeature(store, testutil.NewMockWorktreeManager(), &fakeScheduler{})
	out, err := uc.Execute(context.Background(), DeleteFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, "alpha", out.FeatureID)

	_, err = store.LoadFeature("alpha")
	assert.ErrorIs(t, err, domain.ErrFeatureNotFound)
}

func TestDeleteFeature_RunningRejected(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "alpha", domain.StatusInProgress)
	scheduler := &fakeScheduler{RunningInfos: running("alpha")}

	uc := NewDeleteFeature(store, testutil.NewMockWorktreeManager(), scheduler)
	_, err := uc.Execute(context.Background(), DeleteFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	assert.ErrorIs(t, err, domain.ErrFeatureRunning)

	_, loadErr := store.LoadFeature("alpha")
	assert.NoError(t, loadErr, "nothing deleted when rejected")
}

func TestDeleteFeature_WithWorktree(t *testing.T) {
	store := testutil.NewMockContextStore()
	worktrees := testutil.NewMockWorktreeManager()
	f := seedFeature(store, "alpha", domain.StatusWaitingApproval)
	f.WorktreePath = "/proj/.worktrees/alpha"
	f.BranchName = "gaffer/alpha"

	uc := NewDeleteFeature(store, worktrees, &fakeScheduler{})
	_, err := uc.Execute(context.Background(), DeleteFeatureInput{ProjectPath: "/proj", FeatureID: "alpha", RemoveWorktree: true})
	require.NoError(t, err)
	assert.True(t, worktrees.RemoveCalled)
}

func TestCommitFeature_CommitsInWorktree(t *testing.T) {
	store := testutil.NewMockContextStore()
	worktrees := testutil.NewMockWorktreeManager()
	f := seedFeature(store, "alpha", domain.StatusWaitingApproval)
	f.WorktreePath = "/proj/.worktrees/alpha"

	uc := NewCommitFeature(store, worktrees)
	out, err := uc.Execute(context.Background(), CommitFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	require.NoError(t, err)

	assert.True(t, worktrees.CommitCalled)
	assert.Equal(t, "abc1234", out.Hash)
	assert.Equal(t, "/proj/.worktrees/alpha", out.WorkDir)
	assert.Equal(t, domain.StatusWaitingApproval, out.Feature.Status, "commit never changes status")
}

func TestCommitFeature_NothingToCommit(t *testing.T) {
	store := testutil.NewMockContextStore()
	worktrees := testutil.NewMockWorktreeManager()
	worktrees.CommitErr = domain.ErrNothingToCommit
	seedFeature(store, "alpha", domain.StatusWaitingApproval)

	uc := NewCommitFeature(store, worktrees)
	_, err := uc.Execute(context.Background(), CommitFeatureInput{ProjectPath: "/proj", FeatureID: "alpha"})
	assert.ErrorIs(t, err, domain.ErrNothingToCommit)
}

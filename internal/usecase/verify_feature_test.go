package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/testutil"
)

func TestVerifyFeature_MarksVerified(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "alpha", domain.StatusWaitingApproval)

	uc := NewVerifyFeature(store)
	out, err := uc.Execute(context.Background(), VerifyFeatureInput{FeatureID: "alpha", Summary: "looks good"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, out.Feature.Status)
	assert.Equal(t, "looks good", out.Feature.Summary)
}

func TestVerifyFeature_AgentMidRun(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "alpha", domain.StatusInProgress)

	uc := NewVerifyFeature(store)
	out, err := uc.Execute(context.Background(), VerifyFeatureInput{FeatureID: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, out.Feature.Status)
}

func TestVerifyFeature_SkipTestsRoutesToReview(t *testing.T) {
	store := testutil.NewMockContextStore()
	f := seedFeature(store, "alpha", domain.StatusInProgress)
	f.SkipTests = true

	uc := NewVerifyFeature(store)
	out, err := uc.Execute(context.Background(), VerifyFeatureInput{FeatureID: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingApproval, out.Feature.Status,
		"untested work always crosses a human before verified")
}

func TestVerifyFeature_BacklogRejected(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "alpha", domain.StatusBacklog)

	uc := NewVerifyFeature(store)
	_, err := uc.Execute(context.Background(), VerifyFeatureInput{FeatureID: "alpha"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

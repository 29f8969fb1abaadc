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

func TestNewFeature_GeneratesID(t *testing.T) {
	store := testutil.NewMockContextStore()
	clock := &testutil.MockClock{NowTime: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)}

	uc := NewNewFeature(store, clock)
	out, err := uc.Execute(context.Background(), NewFeatureInput{Description: "Add search", Category: "backend"})
	require.NoError(t, err)

	assert.NotEmpty(t, out.Feature.ID)
	assert.Equal(t, domain.StatusBacklog, out.Feature.Status)
	assert.Equal(t, clock.NowTime, out.Feature.CreatedAt)

	saved, err := store.LoadFeature(out.Feature.ID)
	require.NoError(t, err)
	assert.Equal(t, "Add search", saved.Description)
}

func TestNewFeature_ExplicitIDCollision(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "taken", domain.StatusBacklog)

	uc := NewNewFeature(store, nil)
	_, err := uc.Execute(context.Background(), NewFeatureInput{ID: "taken", Description: "dup"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestNewFeature_EmptyDescription(t *testing.T) {
	uc := NewNewFeature(testutil.NewMockContextStore(), nil)
	_, err := uc.Execute(context.Background(), NewFeatureInput{Description: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyDescription)
}

func TestNewFeature_InvalidThinking(t *testing.T) {
	uc := NewNewFeature(testutil.NewMockContextStore(), nil)
	_, err := uc.Execute(context.Background(), NewFeatureInput{Description: "ok", Thinking: "ultra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thinking")
}

func TestImportBacklog_AssignsIDsAndSkipsExisting(t *testing.T) {
	store := testutil.NewMockContextStore()
	seedFeature(store, "existing", domain.StatusVerified)

	parser := &testutil.MockBacklogParser{Features: []*domain.Feature{
		{Description: "first", Status: domain.StatusBacklog},
		{ID: "existing", Description: "dup", Status: domain.StatusBacklog},
		{ID: "fresh", Description: "second", Status: domain.StatusBacklog},
	}}

	uc := NewImportBacklog(store, parser, nil)
	out, err := uc.Execute(context.Background(), ImportBacklogInput{Path: "backlog.yaml"})
	require.NoError(t, err)

	require.Len(t, out.Features, 2)
	assert.NotEmpty(t, out.Features[0].ID, "missing IDs are generated")
	assert.Equal(t, "fresh", out.Features[1].ID)
	assert.Equal(t, []string{"existing"}, out.Skipped)

	existing, err := store.LoadFeature("existing")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, existing.Status, "existing features are never overwritten")
}

func TestImportBacklog_ParseError(t *testing.T) {
	parser := &testutil.MockBacklogParser{ParseErr: domain.ErrEmptyDescription}
	uc := NewImportBacklog(testutil.NewMockContextStore(), parser, nil)

	_, err := uc.Execute(context.Background(), ImportBacklogInput{Path: "bad.yaml"})
	assert.ErrorIs(t, err, domain.ErrEmptyDescription)
}

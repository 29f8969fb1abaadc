package contextstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voidlock/gaffer/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), domain.GafferDirName), 10*time.Millisecond)
}

func TestStore_SaveAndLoadFeature(t *testing.T) {
	store := newTestStore(t)

	f := &domain.Feature{
		ID:          "feat-1",
		Category:    "backend",
		Description: "Add login endpoint",
		Steps:       []string{"add handler", "add tests"},
		Status:      domain.StatusBacklog,
		SkipTests:   true,
	}
	require.NoError(t, store.SaveFeature(f))

	loaded, err := store.LoadFeature("feat-1")
	require.NoError(t, err)
	assert.Equal(t, "feat-1", loaded.ID)
	assert.Equal(t, "backend", loaded.Category)
	assert.Equal(t, domain.StatusBacklog, loaded.Status)
	assert.Equal(t, []string{"add handler", "add tests"}, loaded.Steps)
	assert.True(t, loaded.SkipTests)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestStore_LoadFeature_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadFeature("nope")
	assert.ErrorIs(t, err, domain.ErrFeatureNotFound)
}

func TestStore_SaveFeature_Validation(t *testing.T) {
	store := newTestStore(t)

	assert.Error(t, store.SaveFeature(nil))
	assert.Error(t, store.SaveFeature(&domain.Feature{Description: "no id"}))
}

func TestStore_LoadFeature_NormalizesSynonymStatus(t *testing.T) {
	// Embedding integrations write "pending"/"ready"; both read back as
	// backlog.
	store := newTestStore(t)

	dir := domain.ContextDir(store.gafferDir, "feat-syn")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	raw := `{"id": "feat-syn", "description": "imported", "status": "pending", "extraField": 42}`
	require.NoError(t, os.WriteFile(domain.FeaturePath(store.gafferDir, "feat-syn"), []byte(raw), 0o640))

	loaded, err := store.LoadFeature("feat-syn")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBacklog, loaded.Status)
}

func TestStore_ListFeatures_CreationOrder(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewWithClock(filepath.Join(t.TempDir(), domain.GafferDirName), time.Millisecond, clock)

	for _, id := range []string{"b", "a", "c"} {
		f := &domain.Feature{ID: id, Description: id, Status: domain.StatusBacklog, CreatedAt: clock.now}
		require.NoError(t, store.SaveFeature(f))
		clock.now = clock.now.Add(time.Minute)
	}

	features, err := store.ListFeatures()
	require.NoError(t, err)
	require.Len(t, features, 3)
	assert.Equal(t, "b", features[0].ID)
	assert.Equal(t, "a", features[1].ID)
	assert.Equal(t, "c", features[2].ID)
}

func TestStore_UpdateStatus_StampsTimestamps(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	store := NewWithClock(filepath.Join(t.TempDir(), domain.GafferDirName), time.Millisecond, clock)

	require.NoError(t, store.SaveFeature(&domain.Feature{ID: "f1", Description: "x", Status: domain.StatusBacklog}))

	// backlog -> in_progress stamps StartedAt
	f, err := store.UpdateStatus("f1", domain.StatusInProgress, "", "")
	require.NoError(t, err)
	require.NotNil(t, f.StartedAt)
	assert.Equal(t, clock.now, *f.StartedAt)
	assert.Nil(t, f.JustFinishedAt)

	// in_progress -> waiting_approval stamps JustFinishedAt
	clock.now = clock.now.Add(time.Hour)
	f, err = store.UpdateStatus("f1", domain.StatusWaitingApproval, "did things", "")
	require.NoError(t, err)
	require.NotNil(t, f.JustFinishedAt)
	assert.Equal(t, clock.now, *f.JustFinishedAt)
	assert.Equal(t, "did things", f.Summary)

	// waiting_approval -> verified clears JustFinishedAt
	f, err = store.UpdateStatus("f1", domain.StatusVerified, "", "")
	require.NoError(t, err)
	assert.Nil(t, f.JustFinishedAt)
	assert.Equal(t, "did things", f.Summary, "empty summary keeps the stored one")
}

func TestStore_UpdateStatus_InvalidTransition(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveFeature(&domain.Feature{ID: "f1", Description: "x", Status: domain.StatusBacklog}))

	_, err := store.UpdateStatus("f1", domain.StatusVerified, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Status on disk is untouched
	f, err := store.LoadFeature("f1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBacklog, f.Status)
}

func TestStore_UpdateStatus_ErrorFieldAlwaysReflectsLastRun(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveFeature(&domain.Feature{ID: "f1", Description: "x", Status: domain.StatusBacklog}))

	_, err := store.UpdateStatus("f1", domain.StatusInProgress, "", "")
	require.NoError(t, err)
	f, err := store.UpdateStatus("f1", domain.StatusWaitingApproval, "", "provider exploded")
	require.NoError(t, err)
	assert.Equal(t, "provider exploded", f.Error)

	// A later successful run clears the stale error
	_, err = store.UpdateStatus("f1", domain.StatusInProgress, "", "")
	require.NoError(t, err)
	f, err = store.UpdateStatus("f1", domain.StatusWaitingApproval, "fixed", "")
	require.NoError(t, err)
	assert.Empty(t, f.Error)
}

func TestStore_ContextExistsAndDelete(t *testing.T) {
	store := newTestStore(t)

	assert.False(t, store.ContextExists("f1"))
	require.NoError(t, store.SaveFeature(&domain.Feature{ID: "f1", Description: "x", Status: domain.StatusBacklog}))
	assert.True(t, store.ContextExists("f1"))

	require.NoError(t, store.DeleteContext("f1"))
	assert.False(t, store.ContextExists("f1"))
	_, err := store.LoadFeature("f1")
	assert.ErrorIs(t, err, domain.ErrFeatureNotFound)
}

func TestStore_DeleteTranscript_KeepsFeature(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveFeature(&domain.Feature{ID: "f1", Description: "x", Status: domain.StatusBacklog}))

	w, err := store.TranscriptWriter("f1")
	require.NoError(t, err)
	w.Append("some output")
	require.NoError(t, w.Close())

	require.NoError(t, store.DeleteTranscript("f1"))

	content, err := store.ReadTranscript("f1")
	require.NoError(t, err)
	assert.Empty(t, content)

	_, err = store.LoadFeature("f1")
	assert.NoError(t, err)
}

func TestStore_ReadTranscript_MissingReadsEmpty(t *testing.T) {
	store := newTestStore(t)

	content, err := store.ReadTranscript("never-ran")
	require.NoError(t, err)
	assert.Empty(t, content)
}

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time {
	return c.now
}

package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/testutil"
)

func TestInitRepo_CreatesScaffold(t *testing.T) {
	root := t.TempDir()
	git := testutil.NewMockGit()
	git.RepoRootPath = root

	uc := NewInitRepo(git)
	out, err := uc.Execute(context.Background(), InitRepoInput{ProjectPath: root})
	require.NoError(t, err)
	assert.False(t, out.AlreadyInitialized)

	assert.DirExists(t, filepath.Join(root, ".gaffer", "context"))
	assert.DirExists(t, filepath.Join(root, ".gaffer", "logs"))

	ignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), ".gaffer/")
	assert.Contains(t, string(ignore), ".worktrees/")
}

func TestInitRepo_Idempotent(t *testing.T) {
	root := t.TempDir()
	git := testutil.NewMockGit()
	git.RepoRootPath = root

	uc := NewInitRepo(git)
	_, err := uc.Execute(context.Background(), InitRepoInput{ProjectPath: root})
	require.NoError(t, err)

	out, err := uc.Execute(context.Background(), InitRepoInput{ProjectPath: root})
	require.NoError(t, err)
	assert.True(t, out.AlreadyInitialized)
}

func TestInitRepo_PreservesGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("node_modules/\n.gaffer/\n"), 0o644))
	git := testutil.NewMockGit()
	git.RepoRootPath = root

	uc := NewInitRepo(git)
	_, err := uc.Execute(context.Background(), InitRepoInput{ProjectPath: root})
	require.NoError(t, err)

	ignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), "node_modules/")
	assert.Equal(t, 1, strings.Count(string(ignore), ".gaffer/"), "existing entries are not duplicated")
}

func TestInitRepo_NotARepo(t *testing.T) {
	git := testutil.NewMockGit()
	git.RepoRootErr = domain.ErrNotGitRepository

	uc := NewInitRepo(git)
	_, err := uc.Execute(context.Background(), InitRepoInput{ProjectPath: "/nowhere"})
	assert.ErrorIs(t, err, domain.ErrNotGitRepository)
}

func TestShowLogs_Transcript(t *testing.T) {
	store := testutil.NewMockContextStore()
	store.Transcripts["alpha"] = "line1\nline2\nline3\n"
	store.Put(&domain.Feature{ID: "alpha", Description: "x", Status: domain.StatusBacklog})

	uc := NewShowLogs(store)
	out, err := uc.Execute(context.Background(), ShowLogsInput{ProjectPath: "/proj", FeatureID: "alpha", Transcript: true, Tail: 2})
	require.NoError(t, err)
	assert.Equal(t, "line2\nline3\n", out.Content)
}

func TestShowLogs_MissingLogFile(t *testing.T) {
	uc := NewShowLogs(testutil.NewMockContextStore())
	out, err := uc.Execute(context.Background(), ShowLogsInput{ProjectPath: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, out.Content)
	assert.NotEmpty(t, out.Path)
}

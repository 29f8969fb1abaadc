package worktree

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voidlock/gaffer/internal/domain"
)

// setupProject creates a temporary git repository for testing.
func setupProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runGit(t, dir, "init", "-b", "main")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test\n"), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "Initial commit")

	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
}

func newTestClient() *Client {
	return NewClient(domain.NopLogger{}, domain.WorktreeConfig{})
}

func TestClient_Ensure_NewBranch(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	path, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".worktrees", "f1"), path)
	assert.True(t, filepath.IsAbs(path))

	// Directory and branch both exist
	_, err = os.Stat(path)
	assert.NoError(t, err)

	cmd := exec.Command("git", "show-ref", "--verify", "--quiet", "refs/heads/gaffer/f1")
	cmd.Dir = root
	assert.NoError(t, cmd.Run())
}

func TestClient_Ensure_ExistingBranch(t *testing.T) {
	root := setupProject(t)
	runGit(t, root, "branch", "gaffer/f2")

	client := newTestClient()
	path, err := client.Ensure(root, "f2", "gaffer/f2", "main")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".worktrees", "f2"), path)
}

func TestClient_Ensure_ReusesExistingWorktree(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	first, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)

	second, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClient_Ensure_FallsBackToProjectRoot(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	// Invalid base branch makes worktree creation fail; execution
	// degrades to the project root instead of erroring.
	path, err := client.Ensure(root, "f1", "gaffer/f1", "no-such-base")
	require.NoError(t, err)
	assert.Equal(t, root, path)
}

func TestClient_Ensure_StaleRegistration(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	path, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)

	// Delete the directory behind git's back, leaving a stale entry.
	require.NoError(t, os.RemoveAll(path))

	again, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)
	assert.Equal(t, path, again)
	_, err = os.Stat(again)
	assert.NoError(t, err)
}

func TestClient_Ensure_CopyFiles(t *testing.T) {
	root := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("SECRET=1\n"), 0o644))

	client := NewClient(domain.NopLogger{}, domain.WorktreeConfig{Copy: []string{".env"}})
	path, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(path, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "SECRET=1\n", string(content))
}

func TestClient_Ensure_SetupCommand(t *testing.T) {
	root := setupProject(t)

	client := NewClient(domain.NopLogger{}, domain.WorktreeConfig{
		SetupCommand: "touch setup-ran",
	})
	path, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(path, "setup-ran"))
	assert.NoError(t, err)
}

func TestClient_Merge(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	path, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(path, "feature.txt"), []byte("done\n"), 0o644))
	runGit(t, path, "add", ".")
	runGit(t, path, "commit", "-m", "implement feature")

	result, err := client.Merge(root, "gaffer/f1", "main", domain.MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "gaffer/f1", result.MergedBranch)
	assert.Equal(t, "main", result.IntoBranch)
	assert.NotEmpty(t, result.Commit)

	// The file landed on main
	_, err = os.Stat(filepath.Join(root, "feature.txt"))
	assert.NoError(t, err)
}

func TestClient_Merge_Conflict(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	path, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)

	// Conflicting edits to the same file on both branches
	require.NoError(t, os.WriteFile(filepath.Join(path, "README.md"), []byte("feature version\n"), 0o644))
	runGit(t, path, "add", ".")
	runGit(t, path, "commit", "-m", "feature edit")

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("main version\n"), 0o644))
	runGit(t, root, "add", ".")
	runGit(t, root, "commit", "-m", "main edit")

	_, err = client.Merge(root, "gaffer/f1", "main", domain.MergeOptions{})
	assert.ErrorIs(t, err, domain.ErrMergeConflict)

	// The aborted merge left the tree clean
	status, gitErr := gitOutput(root, "status", "--porcelain")
	require.NoError(t, gitErr)
	assert.Empty(t, status)
}

func TestClient_Merge_CleanupAndDeleteBranch(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	path, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(path, "feature.txt"), []byte("done\n"), 0o644))
	runGit(t, path, "add", ".")
	runGit(t, path, "commit", "-m", "implement feature")

	_, err = client.Merge(root, "gaffer/f1", "main", domain.MergeOptions{
		Cleanup:      true,
		DeleteBranch: true,
	})
	require.NoError(t, err)

	// Worktree directory is gone
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Branch is gone
	cmd := exec.Command("git", "show-ref", "--verify", "--quiet", "refs/heads/gaffer/f1")
	cmd.Dir = root
	assert.Error(t, cmd.Run())
}

func TestClient_Remove(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	path, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)

	// Dirty worktree is still removed; revert discards work
	require.NoError(t, os.WriteFile(filepath.Join(path, "junk.txt"), []byte("x"), 0o644))

	removed, err := client.Remove(root, "f1", "gaffer/f1", true)
	require.NoError(t, err)
	assert.Equal(t, path, removed)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	cmd := exec.Command("git", "show-ref", "--verify", "--quiet", "refs/heads/gaffer/f1")
	cmd.Dir = root
	assert.Error(t, cmd.Run())
}

func TestClient_Remove_NothingToRemove(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	removed, err := client.Remove(root, "f1", "gaffer/f1", true)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestClient_Commit(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	require.NoError(t, os.WriteFile(filepath.Join(root, "work.txt"), []byte("x"), 0o644))

	hash, err := client.Commit(root, "save work")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	subject, err := gitOutput(root, "log", "-1", "--format=%s")
	require.NoError(t, err)
	assert.Equal(t, "save work", subject)
}

func TestClient_Commit_NothingToCommit(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	_, err := client.Commit(root, "empty")
	assert.ErrorIs(t, err, domain.ErrNothingToCommit)
}

func TestClient_HasChanges(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	dirty, err := client.HasChanges(root)
	require.NoError(t, err)
	assert.False(t, dirty)

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("x"), 0o644))

	dirty, err = client.HasChanges(root)
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestClient_List(t *testing.T) {
	root := setupProject(t)
	client := newTestClient()

	_, err := client.Ensure(root, "f1", "gaffer/f1", "main")
	require.NoError(t, err)
	_, err = client.Ensure(root, "f2", "gaffer/f2", "main")
	require.NoError(t, err)

	worktrees, err := client.List(root)
	require.NoError(t, err)

	// Main checkout plus the two feature worktrees
	require.Len(t, worktrees, 3)
	branches := make([]string, 0, len(worktrees))
	for _, wt := range worktrees {
		branches = append(branches, wt.Branch)
	}
	assert.Contains(t, branches, "main")
	assert.Contains(t, branches, "gaffer/f1")
	assert.Contains(t, branches, "gaffer/f2")
}

func TestParseWorktreeList(t *testing.T) {
	output := `worktree /path/to/main
HEAD abc1234567890
branch refs/heads/main

worktree /path/to/worktrees/f1
HEAD def1234567890
branch refs/heads/gaffer/f1

`
	worktrees, err := parseWorktreeList(output)
	require.NoError(t, err)

	require.Len(t, worktrees, 2)
	assert.Equal(t, "/path/to/main", worktrees[0].Path)
	assert.Equal(t, "main", worktrees[0].Branch)
	assert.Equal(t, "abc1234567890", worktrees[0].Head)
	assert.Equal(t, "/path/to/worktrees/f1", worktrees[1].Path)
	assert.Equal(t, "gaffer/f1", worktrees[1].Branch)
}

func TestParseWorktreeList_Empty(t *testing.T) {
	worktrees, err := parseWorktreeList("")
	require.NoError(t, err)
	assert.Empty(t, worktrees)
}

func TestParseWorktreeList_DetachedHead(t *testing.T) {
	output := `worktree /path/to/detached
HEAD abc1234567890
detached

`
	worktrees, err := parseWorktreeList(output)
	require.NoError(t, err)

	require.Len(t, worktrees, 1)
	assert.Equal(t, "/path/to/detached", worktrees[0].Path)
	assert.Empty(t, worktrees[0].Branch)
}

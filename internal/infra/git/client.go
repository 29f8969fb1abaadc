// Package git provides git operations.
package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/voidlock/gaffer/internal/domain"
)

// Ensure Client implements domain.Git interface.
var _ domain.Git = (*Client)(nil)

// Client provides git operations via the git executable.
// It is stateless; every method resolves the repository from the
// directory it is given, so one client serves any number of projects
// and their worktrees.
type Client struct{}

// NewClient creates a new git client.
func NewClient() *Client {
	return &Client{}
}

// RepoRoot returns the repository root for a directory.
// Inside a worktree this is the main repository root, not the worktree.
func (c *Client) RepoRoot(dir string) (string, error) {
	gitDir, err := commonGitDir(dir)
	if err != nil {
		return "", err
	}
	return filepath.Dir(gitDir), nil
}

// CurrentBranch returns the name of the current branch.
// Uses dir to correctly detect the branch inside worktrees.
func (c *Client) CurrentBranch(dir string) (string, error) {
	out, err := output(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return out, nil
}

// BranchExists checks if a branch exists.
func (c *Client) BranchExists(dir, branch string) (bool, error) {
	//nolint:gosec // branch name is used as argument, not shell command
	cmd := exec.Command("git", "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = dir
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	// Exit code 1 means ref not found
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("failed to check branch existence: %w", err)
}

// HasUncommittedChanges checks for uncommitted changes in a directory.
// Returns true if there are uncommitted changes (staged or unstaged).
func (c *Client) HasUncommittedChanges(dir string) (bool, error) {
	// git status --porcelain returns empty output when the tree is clean
	out, err := output(dir, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to check uncommitted changes: %w", err)
	}
	return len(out) > 0, nil
}

// commonGitDir returns the absolute common .git directory for dir.
// This works correctly both in the main repository and inside worktrees.
func commonGitDir(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--git-common-dir")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", domain.ErrNotGitRepository
	}
	gitDir := strings.TrimSpace(string(out))
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}
	return filepath.Clean(gitDir), nil
}

// output runs a git command in dir and returns trimmed stdout.
func output(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

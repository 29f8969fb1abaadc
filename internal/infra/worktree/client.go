// Package worktree provides git worktree operations for feature isolation.
package worktree

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/voidlock/gaffer/internal/domain"
)

// Ensure Client implements domain.WorktreeManager interface.
var _ domain.WorktreeManager = (*Client)(nil)

// Client manages git worktrees.
// Fields are ordered to minimize memory padding.
type Client struct {
	logger       domain.Logger
	setupCommand string
	copyPaths    []string
}

// NewClient creates a new worktree client.
// cfg supplies the post-creation hooks ([worktree] setup_command and copy).
func NewClient(logger domain.Logger, cfg domain.WorktreeConfig) *Client {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Client{
		logger:       logger,
		setupCommand: cfg.SetupCommand,
		copyPaths:    cfg.Copy,
	}
}

// Ensure creates (or reuses) the worktree and branch for a feature and
// returns the absolute worktree path.
//
// Algorithm: (1) reuse the worktree already holding branch, resolved to
// an absolute path; (2) otherwise create the branch if absent and add a
// worktree at <projectRoot>/.worktrees/<featureID>; (3) on any git
// failure, log and fall back to the project root so execution proceeds
// unisolated. Isolation is best effort, not a hard requirement.
func (c *Client) Ensure(projectRoot, featureID, branch, baseBranch string) (string, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}

	if existing, ok := c.findWorktree(absRoot, branch); ok {
		c.logger.Debug(featureID, "worktree", fmt.Sprintf("reusing worktree at %s", existing))
		return existing, nil
	}

	path, err := c.create(absRoot, featureID, branch, baseBranch)
	if err != nil {
		c.logger.Warn(featureID, "worktree",
			fmt.Sprintf("worktree creation failed, running in project root: %v", err))
		return absRoot, nil
	}

	c.postCreate(absRoot, featureID, path)
	return path, nil
}

// findWorktree returns the absolute path of the worktree holding branch,
// if one is registered and its directory still exists.
func (c *Client) findWorktree(projectRoot, branch string) (string, bool) {
	worktrees, err := c.List(projectRoot)
	if err != nil {
		return "", false
	}
	for _, wt := range worktrees {
		if wt.Branch != branch {
			continue
		}
		abs, err := filepath.Abs(wt.Path)
		if err != nil {
			return "", false
		}
		if _, err := os.Stat(abs); err != nil {
			return "", false
		}
		return abs, true
	}
	return "", false
}

// create adds a worktree for branch, creating the branch from baseBranch
// when it does not exist yet.
func (c *Client) create(projectRoot, featureID, branch, baseBranch string) (string, error) {
	path := domain.WorktreePath(projectRoot, featureID)

	branchExists, err := c.branchExists(projectRoot, branch)
	if err != nil {
		return "", fmt.Errorf("check branch exists: %w", err)
	}

	var args []string
	if branchExists {
		args = []string{"worktree", "add", path, branch}
	} else {
		args = []string{"worktree", "add", "-b", branch, path, baseBranch}
	}

	out, err := gitOutput(projectRoot, args...)
	if err != nil {
		// An "already registered" failure means a stale registration whose
		// directory is gone. Prune and retry once.
		if strings.Contains(out, "already registered") {
			if pruneErr := c.prune(projectRoot); pruneErr != nil {
				return "", fmt.Errorf("prune stale worktrees: %w", pruneErr)
			}
			out, err = gitOutput(projectRoot, args...)
			if err != nil {
				return "", fmt.Errorf("create worktree after prune: %w: %s", err, out)
			}
		} else {
			return "", fmt.Errorf("create worktree: %w: %s", err, out)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve worktree path: %w", err)
	}
	return abs, nil
}

// postCreate copies configured files into the new worktree and runs the
// setup command. Failures are logged, never fatal.
func (c *Client) postCreate(projectRoot, featureID, wtPath string) {
	for _, rel := range c.copyPaths {
		src := filepath.Join(projectRoot, rel)
		dst := filepath.Join(wtPath, rel)
		if err := copyPath(src, dst); err != nil {
			c.logger.Warn(featureID, "worktree", fmt.Sprintf("copy %s: %v", rel, err))
		}
	}

	if c.setupCommand == "" {
		return
	}
	cmd := exec.Command("sh", "-c", c.setupCommand)
	cmd.Dir = wtPath
	if out, err := cmd.CombinedOutput(); err != nil {
		c.logger.Warn(featureID, "worktree",
			fmt.Sprintf("setup command failed: %v: %s", err, string(out)))
	}
}

// Merge merges branch into baseBranch at the project root.
// A conflict aborts the merge and surfaces ErrMergeConflict; the caller
// decides what (if anything) to do with feature state.
func (c *Client) Merge(projectRoot, branch, baseBranch string, opts domain.MergeOptions) (*domain.MergeResult, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	exists, err := c.branchExists(absRoot, branch)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("feature branch %s does not exist", branch)
	}

	current, err := gitOutput(absRoot, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("get current branch: %w", err)
	}
	if current != baseBranch {
		if out, err := gitOutput(absRoot, "checkout", baseBranch); err != nil {
			return nil, fmt.Errorf("checkout %s: %w: %s", baseBranch, err, out)
		}
	}

	mergeArgs := []string{"merge"}
	if opts.NoFF {
		mergeArgs = append(mergeArgs, "--no-ff")
	}
	mergeArgs = append(mergeArgs, branch)

	if out, err := gitOutput(absRoot, mergeArgs...); err != nil {
		if strings.Contains(out, "CONFLICT") || strings.Contains(out, "Automatic merge failed") {
			// Leave the tree clean for manual resolution.
			_, _ = gitOutput(absRoot, "merge", "--abort")
			return nil, fmt.Errorf("%w: %s into %s", domain.ErrMergeConflict, branch, baseBranch)
		}
		return nil, fmt.Errorf("merge %s: %w: %s", branch, err, out)
	}

	commit, err := gitOutput(absRoot, "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = ""
	}

	result := &domain.MergeResult{
		MergedBranch: branch,
		IntoBranch:   baseBranch,
		Commit:       commit,
	}

	if opts.Cleanup {
		if path, ok := c.findWorktree(absRoot, branch); ok {
			if out, err := gitOutput(absRoot, "worktree", "remove", "--force", path); err != nil {
				return result, fmt.Errorf("remove worktree after merge: %w: %s", err, out)
			}
		}
	}
	if opts.DeleteBranch {
		if out, err := gitOutput(absRoot, "branch", "-d", branch); err != nil {
			return result, fmt.Errorf("delete branch %s: %w: %s", branch, err, out)
		}
	}

	return result, nil
}

// Remove deletes a feature's worktree and optionally its branch,
// discarding all work on it. Returns the removed worktree path, or ""
// when no worktree was registered for the branch.
func (c *Client) Remove(projectRoot, featureID, branch string, deleteBranch bool) (string, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}

	var removed string
	if path, ok := c.findWorktree(absRoot, branch); ok {
		// --force: revert intentionally discards uncommitted work.
		if out, err := gitOutput(absRoot, "worktree", "remove", "--force", path); err != nil {
			return "", fmt.Errorf("remove worktree: %w: %s", err, out)
		}
		removed = path
	} else {
		// Clear any stale registration for a directory deleted by hand.
		_ = c.prune(absRoot)
	}

	if deleteBranch {
		exists, err := c.branchExists(absRoot, branch)
		if err != nil {
			return removed, err
		}
		if exists {
			if out, err := gitOutput(absRoot, "branch", "-D", branch); err != nil {
				return removed, fmt.Errorf("delete branch %s: %w: %s", branch, err, out)
			}
		}
	}

	c.logger.Info(featureID, "worktree", fmt.Sprintf("removed worktree %s (branch %s)", removed, branch))
	return removed, nil
}

// Commit stages everything under workDir and commits it, returning the
// short hash. ErrNothingToCommit is returned when the tree is clean.
func (c *Client) Commit(workDir, message string) (string, error) {
	if out, err := gitOutput(workDir, "add", "-A"); err != nil {
		return "", fmt.Errorf("stage changes: %w: %s", err, out)
	}

	status, err := gitOutput(workDir, "status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("check staged changes: %w", err)
	}
	if status == "" {
		return "", domain.ErrNothingToCommit
	}

	if out, err := gitOutput(workDir, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("commit: %w: %s", err, out)
	}

	hash, err := gitOutput(workDir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve commit hash: %w", err)
	}
	return hash, nil
}

// HasChanges reports whether workDir has uncommitted changes.
func (c *Client) HasChanges(workDir string) (bool, error) {
	out, err := gitOutput(workDir, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("check uncommitted changes: %w", err)
	}
	return out != "", nil
}

// List returns all worktrees registered under projectRoot.
func (c *Client) List(projectRoot string) ([]domain.WorktreeInfo, error) {
	out, err := gitOutput(projectRoot, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}
	return parseWorktreeList(out)
}

// parseWorktreeList parses the porcelain output of git worktree list.
// Format:
//
//	worktree /path/to/worktree
//	HEAD abc123
//	branch refs/heads/branch-name
//	<blank line>
func parseWorktreeList(output string) ([]domain.WorktreeInfo, error) {
	var worktrees []domain.WorktreeInfo
	var current domain.WorktreeInfo

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "worktree "):
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			current.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(ref, "refs/heads/")
		case line == "":
			if current.Path != "" {
				worktrees = append(worktrees, current)
			}
			current = domain.WorktreeInfo{}
		}
	}

	// Handle last entry if no trailing newline
	if current.Path != "" {
		worktrees = append(worktrees, current)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse worktree list: %w", err)
	}

	return worktrees, nil
}

// prune removes stale worktree entries whose directories are gone.
func (c *Client) prune(projectRoot string) error {
	if out, err := gitOutput(projectRoot, "worktree", "prune"); err != nil {
		return fmt.Errorf("prune worktrees: %w: %s", err, out)
	}
	return nil
}

// branchExists checks if a branch exists in the repository.
func (c *Client) branchExists(projectRoot, branch string) (bool, error) {
	cmd := exec.Command("git", "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = projectRoot
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	// Exit code 1 means branch doesn't exist
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("check branch exists: %w", err)
}

// gitOutput runs a git command in dir and returns its combined output,
// trimmed.
func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// copyPath copies a file or directory tree from src to dst.
func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyFile(src, dst, info.Mode())
	}

	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, fi.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

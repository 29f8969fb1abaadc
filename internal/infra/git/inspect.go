package git

import (
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/voidlock/gaffer/internal/domain"
)

// Ensure Inspector implements domain.RepoInspector.
var _ domain.RepoInspector = (*Inspector)(nil)

// Inspector reads repository history in-process via go-git.
// Mutating operations stay on the exec-based Client; go-git worktree
// support is not complete enough for them.
type Inspector struct{}

// NewInspector creates a new Inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// open opens the repository containing dir. DetectDotGit walks up from
// dir; EnableDotGitCommonDir resolves linked worktrees to the main
// repository.
func open(dir string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotGitRepository, dir)
	}
	return repo, nil
}

// Branches returns local branch names.
func (i *Inspector) Branches(dir string) ([]string, error) {
	repo, err := open(dir)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	var branches []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate branches: %w", err)
	}
	return branches, nil
}

// ShortHash returns the abbreviated hash of a ref.
func (i *Inspector) ShortHash(dir, ref string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", ref, err)
	}
	return hash.String()[:7], nil
}

// CommitsBetween returns commit subjects on branch that are not on base,
// newest first, at most limit entries. A zero limit means no limit.
func (i *Inspector) CommitsBetween(dir, base, branch string, limit int) ([]string, error) {
	repo, err := open(dir)
	if err != nil {
		return nil, err
	}

	baseHash, err := repo.ResolveRevision(plumbing.Revision(base))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", base, err)
	}
	branchHash, err := repo.ResolveRevision(plumbing.Revision(branch))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", branch, err)
	}

	baseCommit, err := repo.CommitObject(*baseHash)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", base, err)
	}
	branchCommit, err := repo.CommitObject(*branchHash)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", branch, err)
	}

	// Walk stops at the merge base so only branch-local commits remain.
	mergeBases, err := branchCommit.MergeBase(baseCommit)
	if err != nil {
		return nil, fmt.Errorf("merge base %s..%s: %w", base, branch, err)
	}
	stop := make(map[plumbing.Hash]bool, len(mergeBases))
	for _, c := range mergeBases {
		stop[c.Hash] = true
	}

	iter, err := repo.Log(&gogit.LogOptions{From: *branchHash})
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", branch, err)
	}
	defer iter.Close()

	var subjects []string
	err = iter.ForEach(func(c *object.Commit) error {
		if stop[c.Hash] {
			return storer.ErrStop
		}
		subjects = append(subjects, commitSubject(c.Message))
		if limit > 0 && len(subjects) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return subjects, nil
}

// commitSubject returns the first line of a commit message.
func commitSubject(msg string) string {
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	return strings.TrimSpace(msg)
}

package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voidlock/gaffer/internal/domain"
)

// InitRepoInput contains the parameters for initializing a repository.
type InitRepoInput struct {
	ProjectPath string
}

// InitRepoOutput contains the result of the initialization.
type InitRepoOutput struct {
	GafferDir          string
	AlreadyInitialized bool
}

// InitRepo is the use case for creating the .gaffer scaffold in a
// repository.
type InitRepo struct {
	git domain.Git
}

// NewInitRepo creates a new InitRepo use case.
func NewInitRepo(git domain.Git) *InitRepo {
	return &InitRepo{git: git}
}

// gitignoreEntries keeps engine state and worktrees out of version
// control.
var gitignoreEntries = []string{
	domain.GafferDirName + "/",
	domain.WorktreesDirName + "/",
}

// Execute creates .gaffer/{context,logs} under the repository root and
// appends the ignore entries to .gitignore.
func (uc *InitRepo) Execute(_ context.Context, in InitRepoInput) (*InitRepoOutput, error) {
	root, err := uc.git.RepoRoot(in.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("resolve repository: %w", err)
	}

	gafferDir := domain.GafferDir(root)
	if _, err := os.Stat(gafferDir); err == nil {
		return &InitRepoOutput{GafferDir: gafferDir, AlreadyInitialized: true}, nil
	}

	for _, dir := range []string{
		filepath.Join(gafferDir, "context"),
		domain.LogsDir(gafferDir),
	} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := appendGitignore(filepath.Join(root, ".gitignore")); err != nil {
		return nil, fmt.Errorf("update .gitignore: %w", err)
	}

	return &InitRepoOutput{GafferDir: gafferDir}, nil
}

func appendGitignore(path string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var missing []string
	for _, entry := range gitignoreEntries {
		if !containsLine(string(existing), entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	content := strings.Join(missing, "\n") + "\n"
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		content = "\n" + content
	}
	_, err = f.WriteString(content)
	return err
}

func containsLine(content, line string) bool {
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}

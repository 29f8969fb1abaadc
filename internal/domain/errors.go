package domain

import "errors"

// Domain errors.
var (
	ErrFeatureNotFound       = errors.New("feature not found")
	ErrFeatureRunning        = errors.New("feature already running")
	ErrFeatureNotRunning     = errors.New("feature not running")
	ErrAutoModeRunning       = errors.New("auto mode already running")
	ErrAutoModeNotRunning    = errors.New("auto mode not running")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrMergeConflict         = errors.New("merge conflict exists")
	ErrUncommittedChanges    = errors.New("uncommitted changes exist")
	ErrWorktreeNotFound      = errors.New("worktree not found")
	ErrNotGitRepository      = errors.New("not a git repository (or any of the parent directories)")
	ErrNotInitialized        = errors.New("gaffer not initialized (run 'gaffer init' first)")
	ErrAlreadyInitialized    = errors.New("gaffer already initialized")
	ErrConfigExists          = errors.New("config file already exists")
	ErrContextNotFound       = errors.New("feature context not found")
	ErrEmptyDescription      = errors.New("description cannot be empty")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrModelProviderMismatch = errors.New("model does not belong to the configured provider family")
	ErrUnknownModelFamily    = errors.New("unknown model family")
	ErrProviderUnavailable   = errors.New("provider command not available")
	ErrNothingToCommit       = errors.New("nothing to commit")
)

package domain

import (
	"context"
	"time"
)

// Provider streams code-generation output for a single prompt.
type Provider interface {
	// Name returns the provider identifier (e.g. "claude", "acp").
	Name() string

	// Execute starts a generation run and returns a channel of messages.
	// The channel is closed when the run finishes. Cancelling the context
	// stops the run; the final messages still drain through the channel.
	Execute(ctx context.Context, req ExecuteRequest) (<-chan Message, error)
}

// ProviderFactory resolves a Provider for a model identifier.
type ProviderFactory interface {
	// ForModel returns the provider responsible for model. An explicit
	// providerName overrides model-prefix routing when non-empty.
	ForModel(model, providerName string) (Provider, error)

	// Available reports the provider names the factory can construct.
	Available() []string
}

// WorktreeManager manages git worktrees for feature isolation.
type WorktreeManager interface {
	// Ensure creates (or reuses) the worktree and branch for a feature and
	// returns the absolute worktree path. A nil error with a path equal to
	// projectRoot means isolation was skipped and work happens in place.
	Ensure(projectRoot, featureID, branch, baseBranch string) (string, error)

	// Merge merges branch into baseBranch at the project root.
	Merge(projectRoot, branch, baseBranch string, opts MergeOptions) (*MergeResult, error)

	// Remove deletes a feature's worktree and optionally its branch.
	// It returns the branch that was removed, if any.
	Remove(projectRoot, featureID, branch string, deleteBranch bool) (string, error)

	// Commit stages everything under workDir and commits it, returning the
	// short hash. ErrNothingToCommit is returned when the tree is clean.
	Commit(workDir, message string) (string, error)

	// HasChanges reports whether workDir has uncommitted changes.
	HasChanges(workDir string) (bool, error)

	// List returns the worktrees registered under projectRoot.
	List(projectRoot string) ([]WorktreeInfo, error)
}

// MergeOptions configures a worktree merge.
type MergeOptions struct {
	// Cleanup removes the worktree after a successful merge.
	Cleanup bool

	// DeleteBranch deletes the feature branch after a successful merge.
	DeleteBranch bool

	// NoFF forces a merge commit even for fast-forward merges.
	NoFF bool
}

// MergeResult describes a completed merge.
type MergeResult struct {
	MergedBranch string
	IntoBranch   string
	Commit       string
}

// WorktreeInfo describes a registered worktree.
type WorktreeInfo struct {
	Path   string
	Branch string
	Head   string
}

// ContextStore persists features and their transcripts.
type ContextStore interface {
	// SaveFeature writes a feature to durable storage.
	SaveFeature(f *Feature) error

	// LoadFeature loads a feature by ID.
	LoadFeature(id string) (*Feature, error)

	// ListFeatures returns all stored features.
	ListFeatures() ([]*Feature, error)

	// UpdateStatus transitions a feature to status and persists it.
	// Summary and errMsg replace the stored values when non-empty.
	UpdateStatus(id string, status Status, summary, errMsg string) (*Feature, error)

	// TranscriptWriter returns a debounced writer for a feature's transcript.
	TranscriptWriter(id string) (TranscriptWriter, error)

	// ReadTranscript returns the persisted transcript for a feature.
	ReadTranscript(id string) (string, error)

	// ContextExists reports whether a feature context directory exists.
	ContextExists(id string) bool

	// DeleteTranscript removes a feature's transcript, keeping the
	// feature record. Revert uses this to discard accumulated context.
	DeleteTranscript(id string) error

	// DeleteContext removes a feature's entire context directory.
	DeleteContext(id string) error
}

// TranscriptWriter accumulates transcript text and flushes it to disk.
type TranscriptWriter interface {
	// Append adds text to the transcript. Writes are coalesced; the data
	// reaches disk on the next flush.
	Append(text string)

	// Flush forces pending text to disk immediately.
	Flush() error

	// Close flushes pending text and releases the writer.
	Close() error
}

// EventPublisher broadcasts engine events to subscribers.
type EventPublisher interface {
	// Publish delivers an event to all subscribers without blocking.
	Publish(ev Event)
}

// Git provides git operations against the project repository.
type Git interface {
	// RepoRoot returns the repository root for a directory.
	RepoRoot(dir string) (string, error)

	// CurrentBranch returns the name of the current branch.
	CurrentBranch(dir string) (string, error)

	// BranchExists checks if a branch exists.
	BranchExists(dir, branch string) (bool, error)

	// HasUncommittedChanges checks for uncommitted changes in a directory.
	HasUncommittedChanges(dir string) (bool, error)
}

// RepoInspector reads repository history without shelling out.
type RepoInspector interface {
	// Branches returns local branch names.
	Branches(dir string) ([]string, error)

	// ShortHash returns the abbreviated hash of a ref.
	ShortHash(dir, ref string) (string, error)

	// CommitsBetween returns commit subjects on branch that are not on base,
	// newest first, at most limit entries.
	CommitsBetween(dir, base, branch string, limit int) ([]string, error)
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (defaults + global + repo).
	Load() (*Config, error)

	// LoadGlobal returns defaults merged with the global configuration.
	LoadGlobal() (*Config, error)
}

// ConfigManager inspects and initializes configuration files.
type ConfigManager interface {
	// RepoConfigInfo describes the repo-level config file.
	RepoConfigInfo() ConfigInfo

	// GlobalConfigInfo describes the global config file.
	GlobalConfigInfo() ConfigInfo

	// InitRepoConfig writes a template repo config. ErrConfigExists is
	// returned when the file already exists and force is false.
	InitRepoConfig(force bool) error

	// InitGlobalConfig writes a template global config.
	InitGlobalConfig(force bool) error
}

// ConfigInfo describes a configuration file on disk.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// BacklogParser reads feature definitions from a backlog file.
type BacklogParser interface {
	// ParseFile parses a backlog file into features. Parsed features have
	// no ID; the importer assigns IDs on save.
	ParseFile(path string) ([]*Feature, error)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

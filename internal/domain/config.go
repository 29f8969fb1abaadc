package domain

import (
	_ "embed"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings   []string         `toml:"-"` // Non-fatal problems found while loading
	Providers  ProvidersConfig  `toml:"providers"`
	Auto       AutoConfig       `toml:"auto"`
	Worktree   WorktreeConfig   `toml:"worktree"`
	Merge      MergeConfig      `toml:"merge"`
	Transcript TranscriptConfig `toml:"transcript"`
	HTTP       HTTPConfig       `toml:"http"`
	Log        LogConfig        `toml:"log"`
}

// AutoConfig holds scheduler settings from [auto] section.
type AutoConfig struct {
	PollInterval   string `toml:"poll_interval,omitempty"`   // Sleep while at the concurrency ceiling (default: 2s)
	IdleInterval   string `toml:"idle_interval,omitempty"`   // Sleep when the backlog is empty (default: 10s)
	LaunchDelay    string `toml:"launch_delay,omitempty"`    // Pause between consecutive launches (default: 500ms)
	MaxConcurrency int    `toml:"max_concurrency,omitempty"` // Concurrent feature ceiling (default: 3)
	MaxRetries     int    `toml:"max_retries,omitempty"`     // Automatic resume attempts per run (default: 3)
}

// ProvidersConfig holds provider settings from [providers] section.
type ProvidersConfig struct {
	Default      string         `toml:"default,omitempty"`       // Provider when the model has no known family
	DefaultModel string         `toml:"default_model,omitempty"` // Model when a feature specifies none
	Claude       ProviderConfig `toml:"claude"`
	ACP          ProviderConfig `toml:"acp"`
}

// ProviderConfig holds per-provider settings from [providers.<name>] sections.
type ProviderConfig struct {
	Command string   `toml:"command,omitempty"` // Executable (overrides the built-in default)
	Args    []string `toml:"args,omitempty"`    // Extra arguments appended to the command
}

// WorktreeConfig holds worktree settings from [worktree] section.
type WorktreeConfig struct {
	SetupCommand string   `toml:"setup_command,omitempty"` // Command to run after worktree creation
	Copy         []string `toml:"copy,omitempty"`          // Files/directories to copy into new worktrees
	Disabled     bool     `toml:"disabled,omitempty"`      // Run all features in the project root
}

// MergeConfig holds merge defaults from [merge] section.
type MergeConfig struct {
	NoFF         bool `toml:"no_ff,omitempty"`         // Always create a merge commit
	Cleanup      bool `toml:"cleanup,omitempty"`       // Remove the worktree after merging
	DeleteBranch bool `toml:"delete_branch,omitempty"` // Delete the feature branch after merging
}

// TranscriptConfig holds transcript persistence settings from [transcript] section.
type TranscriptConfig struct {
	FlushDebounce string `toml:"flush_debounce,omitempty"` // Coalescing window for disk writes (default: 500ms)
}

// HTTPConfig holds control server settings from [http] section.
type HTTPConfig struct {
	Addr string `toml:"addr,omitempty"` // Listen address for `gaffer serve`
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// Default configuration values.
const (
	DefaultMaxConcurrency = 3
	DefaultMaxRetries     = 3
	DefaultPollInterval   = 2 * time.Second
	DefaultIdleInterval   = 10 * time.Second
	DefaultLaunchDelay    = 500 * time.Millisecond
	DefaultFlushDebounce  = 500 * time.Millisecond
	DefaultHTTPAddr       = "127.0.0.1:7680"
	DefaultLogLevel       = "info"
	DefaultProvider       = "claude"
	DefaultModel          = "claude-sonnet-4-5"
)

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Auto: AutoConfig{
			MaxConcurrency: DefaultMaxConcurrency,
			MaxRetries:     DefaultMaxRetries,
		},
		Providers: ProvidersConfig{
			Default:      DefaultProvider,
			DefaultModel: DefaultModel,
		},
		HTTP: HTTPConfig{
			Addr: DefaultHTTPAddr,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// parseDuration parses a duration string, falling back to def when the
// string is empty or malformed.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// PollIntervalDuration returns the scheduler poll interval.
func (c *AutoConfig) PollIntervalDuration() time.Duration {
	return parseDuration(c.PollInterval, DefaultPollInterval)
}

// IdleIntervalDuration returns the scheduler idle interval.
func (c *AutoConfig) IdleIntervalDuration() time.Duration {
	return parseDuration(c.IdleInterval, DefaultIdleInterval)
}

// LaunchDelayDuration returns the pause between consecutive launches.
func (c *AutoConfig) LaunchDelayDuration() time.Duration {
	return parseDuration(c.LaunchDelay, DefaultLaunchDelay)
}

// Concurrency returns the effective concurrency ceiling.
func (c *AutoConfig) Concurrency() int {
	if c.MaxConcurrency <= 0 {
		return DefaultMaxConcurrency
	}
	return c.MaxConcurrency
}

// Retries returns the effective automatic resume budget.
func (c *AutoConfig) Retries() int {
	if c.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return c.MaxRetries
}

// FlushDebounceDuration returns the transcript write coalescing window.
func (c *TranscriptConfig) FlushDebounceDuration() time.Duration {
	return parseDuration(c.FlushDebounce, DefaultFlushDebounce)
}

// ListenAddr returns the effective HTTP listen address.
func (c *HTTPConfig) ListenAddr() string {
	if c.Addr == "" {
		return DefaultHTTPAddr
	}
	return c.Addr
}

// ConfigTemplate returns the commented template written by `gaffer config init`.
func ConfigTemplate() string {
	return configTemplateContent
}

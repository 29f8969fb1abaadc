// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/voidlock/gaffer/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	gafferDir     string // Path to <project>/.gaffer directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/gaffer)
}

// NewLoader creates a new Loader.
func NewLoader(gafferDir string) *Loader {
	return &Loader{
		gafferDir:     gafferDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(gafferDir, globalConfDir string) *Loader {
	return &Loader{
		gafferDir:     gafferDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalGafferDir(configHome)
}

// Load returns the merged configuration (defaults + global + repo).
// Repository config takes precedence over global config.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.loadGlobalFile()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	repo, err := l.loadRepoFile()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if repo != nil {
		base = mergeConfigs(base, repo)
	}
	return base, nil
}

// LoadGlobal returns defaults merged with only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	global, err := l.loadGlobalFile()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	return base, nil
}

func (l *Loader) loadGlobalFile() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

func (l *Loader) loadRepoFile() (*domain.Config, error) {
	if l.gafferDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(domain.RepoConfigPath(l.gafferDir))
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// convertRawToDomainConfig converts the raw map to domain config and collects
// warnings for unknown sections and keys.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown top-level key: %s", section))
			continue
		}
		switch section {
		case "auto":
			warnings = append(warnings, parseAutoSection(m, &res.Auto)...)
		case "providers":
			warnings = append(warnings, parseProvidersSection(m, &res.Providers)...)
		case "worktree":
			warnings = append(warnings, parseWorktreeSection(m, &res.Worktree)...)
		case "merge":
			warnings = append(warnings, parseMergeSection(m, &res.Merge)...)
		case "transcript":
			for k, v := range m {
				switch k {
				case "flush_debounce":
					if s, ok := v.(string); ok {
						res.Transcript.FlushDebounce = s
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [transcript]: %s", k))
				}
			}
		case "http":
			for k, v := range m {
				switch k {
				case "addr":
					if s, ok := v.(string); ok {
						res.HTTP.Addr = s
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [http]: %s", k))
				}
			}
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					if s, ok := v.(string); ok {
						res.Log.Level = s
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [log]: %s", k))
				}
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

func parseAutoSection(m map[string]any, out *domain.AutoConfig) []string {
	var warnings []string
	for k, v := range m {
		switch k {
		case "max_concurrency":
			if n, ok := v.(int64); ok {
				out.MaxConcurrency = int(n)
			}
		case "max_retries":
			if n, ok := v.(int64); ok {
				out.MaxRetries = int(n)
			}
		case "poll_interval":
			if s, ok := v.(string); ok {
				out.PollInterval = s
			}
		case "idle_interval":
			if s, ok := v.(string); ok {
				out.IdleInterval = s
			}
		case "launch_delay":
			if s, ok := v.(string); ok {
				out.LaunchDelay = s
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown key in [auto]: %s", k))
		}
	}
	return warnings
}

func parseProvidersSection(m map[string]any, out *domain.ProvidersConfig) []string {
	var warnings []string
	for k, v := range m {
		switch k {
		case "default":
			if s, ok := v.(string); ok {
				out.Default = s
			}
		case "default_model":
			if s, ok := v.(string); ok {
				out.DefaultModel = s
			}
		case "claude", "acp":
			sub, ok := v.(map[string]any)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("invalid [providers.%s] section", k))
				continue
			}
			var pc domain.ProviderConfig
			warnings = append(warnings, parseProviderSub(k, sub, &pc)...)
			if k == "claude" {
				out.Claude = pc
			} else {
				out.ACP = pc
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown key in [providers]: %s", k))
		}
	}
	return warnings
}

func parseProviderSub(name string, m map[string]any, out *domain.ProviderConfig) []string {
	var warnings []string
	for k, v := range m {
		switch k {
		case "command":
			if s, ok := v.(string); ok {
				out.Command = s
			}
		case "args":
			out.Args = toStringSlice(v)
		default:
			warnings = append(warnings, fmt.Sprintf("unknown key in [providers.%s]: %s", name, k))
		}
	}
	return warnings
}

func parseWorktreeSection(m map[string]any, out *domain.WorktreeConfig) []string {
	var warnings []string
	for k, v := range m {
		switch k {
		case "disabled":
			if b, ok := v.(bool); ok {
				out.Disabled = b
			}
		case "setup_command":
			if s, ok := v.(string); ok {
				out.SetupCommand = s
			}
		case "copy":
			out.Copy = toStringSlice(v)
		default:
			warnings = append(warnings, fmt.Sprintf("unknown key in [worktree]: %s", k))
		}
	}
	return warnings
}

func parseMergeSection(m map[string]any, out *domain.MergeConfig) []string {
	var warnings []string
	for k, v := range m {
		switch k {
		case "no_ff":
			if b, ok := v.(bool); ok {
				out.NoFF = b
			}
		case "cleanup":
			if b, ok := v.(bool); ok {
				out.Cleanup = b
			}
		case "delete_branch":
			if b, ok := v.(bool); ok {
				out.DeleteBranch = b
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown key in [merge]: %s", k))
		}
	}
	return warnings
}

// toStringSlice converts a TOML array value to []string, skipping
// non-string elements.
func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// mergeConfigs merges two configs, with override taking precedence.
// Only fields present (non-zero) in override replace base values.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := *base
	result.Warnings = append(append([]string{}, base.Warnings...), override.Warnings...)

	if override.Auto.MaxConcurrency > 0 {
		result.Auto.MaxConcurrency = override.Auto.MaxConcurrency
	}
	if override.Auto.MaxRetries > 0 {
		result.Auto.MaxRetries = override.Auto.MaxRetries
	}
	if override.Auto.PollInterval != "" {
		result.Auto.PollInterval = override.Auto.PollInterval
	}
	if override.Auto.IdleInterval != "" {
		result.Auto.IdleInterval = override.Auto.IdleInterval
	}
	if override.Auto.LaunchDelay != "" {
		result.Auto.LaunchDelay = override.Auto.LaunchDelay
	}

	if override.Providers.Default != "" {
		result.Providers.Default = override.Providers.Default
	}
	if override.Providers.DefaultModel != "" {
		result.Providers.DefaultModel = override.Providers.DefaultModel
	}
	if override.Providers.Claude.Command != "" {
		result.Providers.Claude.Command = override.Providers.Claude.Command
	}
	if len(override.Providers.Claude.Args) > 0 {
		result.Providers.Claude.Args = override.Providers.Claude.Args
	}
	if override.Providers.ACP.Command != "" {
		result.Providers.ACP.Command = override.Providers.ACP.Command
	}
	if len(override.Providers.ACP.Args) > 0 {
		result.Providers.ACP.Args = override.Providers.ACP.Args
	}

	if override.Worktree.Disabled {
		result.Worktree.Disabled = true
	}
	if override.Worktree.SetupCommand != "" {
		result.Worktree.SetupCommand = override.Worktree.SetupCommand
	}
	if len(override.Worktree.Copy) > 0 {
		result.Worktree.Copy = override.Worktree.Copy
	}

	if override.Merge.NoFF {
		result.Merge.NoFF = true
	}
	if override.Merge.Cleanup {
		result.Merge.Cleanup = true
	}
	if override.Merge.DeleteBranch {
		result.Merge.DeleteBranch = true
	}

	if override.Transcript.FlushDebounce != "" {
		result.Transcript.FlushDebounce = override.Transcript.FlushDebounce
	}
	if override.HTTP.Addr != "" {
		result.HTTP.Addr = override.HTTP.Addr
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}

	return &result
}

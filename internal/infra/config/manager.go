// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/voidlock/gaffer/internal/domain"
)

// Ensure Manager implements domain.ConfigManager.
var _ domain.ConfigManager = (*Manager)(nil)

// Manager manages configuration files.
type Manager struct {
	gafferDir     string // Path to <project>/.gaffer directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/gaffer)
}

// NewManager creates a new Manager.
func NewManager(gafferDir string) *Manager {
	return &Manager{
		gafferDir:     gafferDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewManagerWithGlobalDir creates a new Manager with a custom global config directory.
// This is useful for testing.
func NewManagerWithGlobalDir(gafferDir, globalConfDir string) *Manager {
	return &Manager{
		gafferDir:     gafferDir,
		globalConfDir: globalConfDir,
	}
}

// RepoConfigInfo returns information about the repository config file.
func (m *Manager) RepoConfigInfo() domain.ConfigInfo {
	if m.gafferDir == "" {
		return domain.ConfigInfo{}
	}
	return getConfigInfo(domain.RepoConfigPath(m.gafferDir))
}

// GlobalConfigInfo returns information about the global config file.
func (m *Manager) GlobalConfigInfo() domain.ConfigInfo {
	if m.globalConfDir == "" {
		return domain.ConfigInfo{}
	}
	return getConfigInfo(filepath.Join(m.globalConfDir, domain.ConfigFileName))
}

// getConfigInfo reads a config file and returns its info.
func getConfigInfo(path string) domain.ConfigInfo {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.ConfigInfo{
			Path:   path,
			Exists: false,
		}
	}
	return domain.ConfigInfo{
		Path:    path,
		Content: string(content),
		Exists:  true,
	}
}

// InitRepoConfig creates a repository config file from the default template.
func (m *Manager) InitRepoConfig(force bool) error {
	if m.gafferDir == "" {
		return errors.New("gaffer directory not available")
	}
	if err := os.MkdirAll(m.gafferDir, 0o750); err != nil {
		return err
	}
	return initConfig(domain.RepoConfigPath(m.gafferDir), force)
}

// InitGlobalConfig creates a global config file from the default template.
func (m *Manager) InitGlobalConfig(force bool) error {
	if m.globalConfDir == "" {
		return errors.New("global config directory not available")
	}
	if err := os.MkdirAll(m.globalConfDir, 0o700); err != nil {
		return err
	}
	return initConfig(filepath.Join(m.globalConfDir, domain.ConfigFileName), force)
}

// initConfig writes the config template to path.
func initConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return domain.ErrConfigExists
	}
	return os.WriteFile(path, []byte(domain.ConfigTemplate()), 0o600)
}

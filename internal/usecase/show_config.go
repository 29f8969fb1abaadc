package usecase

import (
	"context"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/voidlock/gaffer/internal/domain"
)

// ShowConfigInput contains the parameters for showing configuration.
type ShowConfigInput struct {
	Effective bool // Render the merged effective config instead of the files
}

// ConfigFile describes one configuration file for display.
type ConfigFile struct {
	Path    string
	Content string
	Exists  bool
}

// ShowConfigOutput contains the configuration for display.
type ShowConfigOutput struct {
	Effective string // TOML rendering of the merged config (when requested)
	Global    ConfigFile
	Repo      ConfigFile
	Warnings  []string
}

// ShowConfig is the use case behind `gaffer config show`.
type ShowConfig struct {
	loader  domain.ConfigLoader
	manager domain.ConfigManager
}

// NewShowConfig creates a new ShowConfig use case.
func NewShowConfig(loader domain.ConfigLoader, manager domain.ConfigManager) *ShowConfig {
	return &ShowConfig{loader: loader, manager: manager}
}

// Execute reports the config files and, on request, the merged result.
func (uc *ShowConfig) Execute(_ context.Context, in ShowConfigInput) (*ShowConfigOutput, error) {
	out := &ShowConfigOutput{
		Global: configFile(uc.manager.GlobalConfigInfo()),
		Repo:   configFile(uc.manager.RepoConfigInfo()),
	}

	if in.Effective {
		cfg, err := uc.loader.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		rendered, err := toml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("render config: %w", err)
		}
		out.Effective = string(rendered)
		out.Warnings = cfg.Warnings
	}

	return out, nil
}

func configFile(info domain.ConfigInfo) ConfigFile {
	return ConfigFile{Path: info.Path, Content: info.Content, Exists: info.Exists}
}

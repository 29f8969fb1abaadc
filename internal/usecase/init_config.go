package usecase

import (
	"context"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
)

// InitConfigInput contains the parameters for scaffolding a config file.
type InitConfigInput struct {
	Global bool // Write the global config instead of the repo config
	Force  bool // Overwrite an existing file
}

// InitConfigOutput contains the result of the scaffolding.
type InitConfigOutput struct {
	Path string
}

// InitConfig is the use case behind `gaffer config init`.
type InitConfig struct {
	manager domain.ConfigManager
}

// NewInitConfig creates a new InitConfig use case.
func NewInitConfig(manager domain.ConfigManager) *InitConfig {
	return &InitConfig{manager: manager}
}

// Execute writes the commented config template.
func (uc *InitConfig) Execute(_ context.Context, in InitConfigInput) (*InitConfigOutput, error) {
	if in.Global {
		if err := uc.manager.InitGlobalConfig(in.Force); err != nil {
			return nil, fmt.Errorf("init global config: %w", err)
		}
		return &InitConfigOutput{Path: uc.manager.GlobalConfigInfo().Path}, nil
	}

	if err := uc.manager.InitRepoConfig(in.Force); err != nil {
		return nil, fmt.Errorf("init repo config: %w", err)
	}
	return &InitConfigOutput{Path: uc.manager.RepoConfigInfo().Path}, nil
}

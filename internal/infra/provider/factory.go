// Package provider contains the code-generation backend adapters and the
// factory that routes model identifiers to them.
package provider

import (
	"errors"
	"fmt"

	"github.com/voidlock/gaffer/internal/domain"
)

// Ensure Factory implements domain.ProviderFactory.
var _ domain.ProviderFactory = (*Factory)(nil)

// Factory resolves providers by model-identifier prefix. An explicit
// provider override must agree with the model family; the mismatch is
// rejected before any backend is contacted.
type Factory struct {
	cfg    *domain.Config
	logger domain.Logger
}

// NewFactory creates a provider factory backed by the loaded config.
func NewFactory(cfg *domain.Config, logger domain.Logger) *Factory {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Factory{cfg: cfg, logger: logger}
}

// ForModel returns the provider responsible for model. Models with an
// unrecognized prefix and no override fall back to the configured
// default provider.
func (f *Factory) ForModel(model, providerName string) (domain.Provider, error) {
	name, err := domain.ResolveProvider(model, providerName)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownModelFamily) && f.cfg.Providers.Default != "" {
			name = f.cfg.Providers.Default
		} else {
			return nil, err
		}
	}

	switch name {
	case domain.ProviderClaude:
		return NewClaudeCLI(f.cfg.Providers.Claude, f.logger), nil
	case domain.ProviderACP:
		return NewACP(f.cfg.Providers.ACP, f.logger), nil
	default:
		return nil, fmt.Errorf("%w: no adapter for provider %q", domain.ErrUnknownModelFamily, name)
	}
}

// Available reports the provider names the factory can construct.
func (f *Factory) Available() []string {
	return []string{domain.ProviderClaude, domain.ProviderACP}
}

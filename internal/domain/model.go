package domain

import (
	"fmt"
	"strings"
)

// Provider names for the built-in adapters.
const (
	ProviderClaude = "claude"
	ProviderACP    = "acp"
)

// ModelFamily returns the provider name responsible for a model
// identifier, based on its vendor prefix.
func ModelFamily(model string) (string, bool) {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return ProviderClaude, true
	case strings.HasPrefix(model, "gemini-"):
		return ProviderACP, true
	default:
		return "", false
	}
}

// ResolveProvider returns the provider for a model, honoring an explicit
// provider override. An override that disagrees with the model family is
// a configuration error, surfaced before any backend is contacted.
func ResolveProvider(model, override string) (string, error) {
	family, known := ModelFamily(model)
	if override == "" {
		if !known {
			return "", fmt.Errorf("%w: %q", ErrUnknownModelFamily, model)
		}
		return family, nil
	}
	if known && override != family {
		return "", fmt.Errorf("%w: model %q belongs to provider %q, not %q",
			ErrModelProviderMismatch, model, family, override)
	}
	return override, nil
}

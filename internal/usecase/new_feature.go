package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/voidlock/gaffer/internal/domain"
)

// NewFeatureInput contains the parameters for creating a feature.
type NewFeatureInput struct {
	ID          string // Optional explicit ID; generated when empty
	Category    string
	Description string
	Spec        string
	Model       string
	Provider    string
	Thinking    string
	Steps       []string
	Images      []domain.ImageAttachment
	Priority    int
	SkipTests   bool
}

// NewFeatureOutput contains the created feature.
type NewFeatureOutput struct {
	Feature *domain.Feature
}

// NewFeature is the use case for creating a single backlog feature.
type NewFeature struct {
	store domain.ContextStore
	clock domain.Clock
}

// NewNewFeature creates a new NewFeature use case.
func NewNewFeature(store domain.ContextStore, clock domain.Clock) *NewFeature {
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &NewFeature{store: store, clock: clock}
}

// Execute validates and persists a new feature in backlog state.
func (uc *NewFeature) Execute(_ context.Context, in NewFeatureInput) (*NewFeatureOutput, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, domain.ErrEmptyDescription
	}
	if err := validateThinking(in.Thinking); err != nil {
		return nil, err
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	} else if uc.store.ContextExists(id) {
		return nil, fmt.Errorf("feature %s already exists", id)
	}

	now := uc.clock.Now()
	f := &domain.Feature{
		ID:          id,
		Category:    in.Category,
		Description: in.Description,
		Spec:        in.Spec,
		Status:      domain.StatusBacklog,
		Model:       in.Model,
		Provider:    in.Provider,
		Thinking:    in.Thinking,
		Steps:       in.Steps,
		Images:      in.Images,
		Priority:    in.Priority,
		SkipTests:   in.SkipTests,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.store.SaveFeature(f); err != nil {
		return nil, fmt.Errorf("save feature: %w", err)
	}
	return &NewFeatureOutput{Feature: f}, nil
}

func validateThinking(level string) error {
	switch level {
	case "", domain.ThinkingOff, domain.ThinkingMedium, domain.ThinkingHigh:
		return nil
	default:
		return fmt.Errorf("invalid thinking level %q (off|medium|high)", level)
	}
}

package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/voidlock/gaffer/internal/domain"
)

// ImportBacklogInput contains the parameters for importing a backlog file.
type ImportBacklogInput struct {
	Path string // YAML backlog file
}

// ImportBacklogOutput contains the result of the import.
type ImportBacklogOutput struct {
	Features []*domain.Feature
	Skipped  []string // IDs that already existed
}

// ImportBacklog is the use case for bulk feature creation from a YAML
// backlog file.
type ImportBacklog struct {
	store  domain.ContextStore
	parser domain.BacklogParser
	clock  domain.Clock
}

// NewImportBacklog creates a new ImportBacklog use case.
func NewImportBacklog(store domain.ContextStore, parser domain.BacklogParser, clock domain.Clock) *ImportBacklog {
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &ImportBacklog{store: store, parser: parser, clock: clock}
}

// Execute parses the file and saves each feature. Entries whose
// explicit ID already exists are skipped, not overwritten.
func (uc *ImportBacklog) Execute(_ context.Context, in ImportBacklogInput) (*ImportBacklogOutput, error) {
	parsed, err := uc.parser.ParseFile(in.Path)
	if err != nil {
		return nil, fmt.Errorf("parse backlog: %w", err)
	}

	out := &ImportBacklogOutput{}
	now := uc.clock.Now()
	for _, f := range parsed {
		if f.ID == "" {
			f.ID = uuid.NewString()
		} else if uc.store.ContextExists(f.ID) {
			out.Skipped = append(out.Skipped, f.ID)
			continue
		}
		f.CreatedAt = now
		f.UpdatedAt = now
		if err := uc.store.SaveFeature(f); err != nil {
			return nil, fmt.Errorf("save feature %s: %w", f.ID, err)
		}
		out.Features = append(out.Features, f)
	}
	return out, nil
}

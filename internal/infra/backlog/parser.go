// Package backlog parses feature definitions from YAML backlog files.
package backlog

import (
	"fmt"
	"os"
	"strings"

	"github.com/voidlock/gaffer/internal/domain"
	"gopkg.in/yaml.v3"
)

// Ensure Parser implements domain.BacklogParser.
var _ domain.BacklogParser = (*Parser)(nil)

// Parser reads YAML backlog files. Two layouts are accepted: a
// top-level `features:` list, or a bare list of feature entries.
type Parser struct{}

// NewParser creates a backlog parser.
func NewParser() *Parser {
	return &Parser{}
}

// featureEntry is the YAML shape of one backlog entry.
type featureEntry struct {
	ID          string       `yaml:"id"`
	Category    string       `yaml:"category"`
	Description string       `yaml:"description"`
	Spec        string       `yaml:"spec"`
	Steps       []string     `yaml:"steps"`
	Model       string       `yaml:"model"`
	Provider    string       `yaml:"provider"`
	Thinking    string       `yaml:"thinking"`
	SkipTests   bool         `yaml:"skip_tests"`
	Priority    int          `yaml:"priority"`
	Images      []imageEntry `yaml:"images"`
}

type imageEntry struct {
	Path     string `yaml:"path"`
	MimeType string `yaml:"mime_type"`
}

type backlogFile struct {
	Features []featureEntry `yaml:"features"`
}

// ParseFile parses a backlog file into features. All parsed features
// start in backlog; the importer assigns IDs to entries without one.
func (p *Parser) ParseFile(path string) ([]*domain.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backlog file: %w", err)
	}
	return p.parse(data)
}

func (p *Parser) parse(data []byte) ([]*domain.Feature, error) {
	var file backlogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		// Fall back to the bare-list layout.
		var entries []featureEntry
		if listErr := yaml.Unmarshal(data, &entries); listErr != nil {
			return nil, fmt.Errorf("parse backlog: %w", err)
		}
		file.Features = entries
	}
	if file.Features == nil {
		var entries []featureEntry
		if err := yaml.Unmarshal(data, &entries); err == nil {
			file.Features = entries
		}
	}

	features := make([]*domain.Feature, 0, len(file.Features))
	for i, entry := range file.Features {
		if strings.TrimSpace(entry.Description) == "" {
			return nil, fmt.Errorf("feature %d: %w", i+1, domain.ErrEmptyDescription)
		}
		if entry.Thinking != "" {
			switch entry.Thinking {
			case domain.ThinkingOff, domain.ThinkingMedium, domain.ThinkingHigh:
			default:
				return nil, fmt.Errorf("feature %d: invalid thinking level %q", i+1, entry.Thinking)
			}
		}

		f := &domain.Feature{
			ID:          entry.ID,
			Category:    entry.Category,
			Description: strings.TrimSpace(entry.Description),
			Spec:        entry.Spec,
			Steps:       entry.Steps,
			Status:      domain.StatusBacklog,
			Model:       entry.Model,
			Provider:    entry.Provider,
			Thinking:    entry.Thinking,
			SkipTests:   entry.SkipTests,
			Priority:    entry.Priority,
		}
		for _, img := range entry.Images {
			f.Images = append(f.Images, domain.ImageAttachment{Path: img.Path, MimeType: img.MimeType})
		}
		features = append(features, f)
	}
	return features, nil
}

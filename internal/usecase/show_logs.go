package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/voidlock/gaffer/internal/domain"
)

// ShowLogsInput contains the parameters for reading logs.
type ShowLogsInput struct {
	ProjectPath string
	FeatureID   string // Empty = the engine log
	Transcript  bool   // Print the agent transcript instead of the log
	Tail        int    // Last n lines; 0 = all
}

// ShowLogsOutput contains the requested log content.
type ShowLogsOutput struct {
	Path    string
	Content string
}

// ShowLogs is the use case behind `gaffer logs`.
type ShowLogs struct {
	store domain.ContextStore
}

// NewShowLogs creates a new ShowLogs use case.
func NewShowLogs(store domain.ContextStore) *ShowLogs {
	return &ShowLogs{store: store}
}

// Execute reads the engine log, a feature's log, or a feature's
// transcript.
func (uc *ShowLogs) Execute(_ context.Context, in ShowLogsInput) (*ShowLogsOutput, error) {
	if in.Transcript {
		if in.FeatureID == "" {
			return nil, fmt.Errorf("transcript requires a feature id")
		}
		content, err := uc.store.ReadTranscript(in.FeatureID)
		if err != nil {
			return nil, fmt.Errorf("read transcript: %w", err)
		}
		gafferDir := domain.GafferDir(in.ProjectPath)
		return &ShowLogsOutput{
			Path:    domain.TranscriptPath(gafferDir, in.FeatureID),
			Content: tail(content, in.Tail),
		}, nil
	}

	gafferDir := domain.GafferDir(in.ProjectPath)
	path := domain.GlobalLogPath(gafferDir)
	if in.FeatureID != "" {
		path = domain.FeatureLogPath(gafferDir, in.FeatureID)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ShowLogsOutput{Path: path}, nil
		}
		return nil, fmt.Errorf("read log: %w", err)
	}
	return &ShowLogsOutput{Path: path, Content: tail(string(data), in.Tail)}, nil
}

func tail(content string, n int) string {
	if n <= 0 {
		return content
	}
	return tailLines(content, n)
}

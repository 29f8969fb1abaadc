package backlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voidlock/gaffer/internal/domain"
)

func writeBacklog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParser_ParseFile_FeaturesKey(t *testing.T) {
	path := writeBacklog(t, `
features:
  - id: login-endpoint
    category: backend
    description: Add login endpoint
    steps:
      - add handler
      - add tests
    model: claude-sonnet-4-5
    thinking: high
    skip_tests: true
    priority: 2
    images:
      - path: mockup.png
        mime_type: image/png
  - description: Fix typo in README
`)

	features, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	require.Len(t, features, 2)

	f := features[0]
	assert.Equal(t, "login-endpoint", f.ID)
	assert.Equal(t, "backend", f.Category)
	assert.Equal(t, "Add login endpoint", f.Description)
	assert.Equal(t, []string{"add handler", "add tests"}, f.Steps)
	assert.Equal(t, "claude-sonnet-4-5", f.Model)
	assert.Equal(t, domain.ThinkingHigh, f.Thinking)
	assert.True(t, f.SkipTests)
	assert.Equal(t, 2, f.Priority)
	require.Len(t, f.Images, 1)
	assert.Equal(t, "mockup.png", f.Images[0].Path)
	assert.Equal(t, domain.StatusBacklog, f.Status)

	assert.Empty(t, features[1].ID, "importer assigns missing IDs")
}

func TestParser_ParseFile_BareList(t *testing.T) {
	path := writeBacklog(t, `
- description: First
- description: Second
  priority: 1
`)

	features, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "First", features[0].Description)
	assert.Equal(t, 1, features[1].Priority)
}

func TestParser_ParseFile_EmptyDescriptionRejected(t *testing.T) {
	path := writeBacklog(t, `
features:
  - category: backend
`)

	_, err := NewParser().ParseFile(path)
	assert.ErrorIs(t, err, domain.ErrEmptyDescription)
}

func TestParser_ParseFile_InvalidThinkingRejected(t *testing.T) {
	path := writeBacklog(t, `
features:
  - description: ok
    thinking: maximum
`)

	_, err := NewParser().ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thinking")
}

func TestParser_ParseFile_MissingFile(t *testing.T) {
	_, err := NewParser().ParseFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

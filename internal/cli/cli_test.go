package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/app"
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/engine"
	"github.com/voidlock/gaffer/internal/infra/events"
	"github.com/voidlock/gaffer/internal/infra/logging"
	"github.com/voidlock/gaffer/internal/metrics"
	"github.com/voidlock/gaffer/internal/testutil"
)

// testFixture wires a container over in-memory fakes with a real
// scheduler, so commands exercise the same paths as production.
type testFixture struct {
	container *app.Container
	store     *testutil.MockContextStore
	worktrees *testutil.MockWorktreeManager
	provider  *testutil.MockProvider
	manager   *testutil.MockConfigManager
	parser    *testutil.MockBacklogParser
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	store := testutil.NewMockContextStore()
	worktrees := testutil.NewMockWorktreeManager()
	git := testutil.NewMockGit()
	bus := events.NewBus()
	t.Cleanup(bus.Close)

	cfg := domain.NewDefaultConfig()
	provider := &testutil.MockProvider{Messages: []domain.Message{
		{Kind: domain.MessageText, Text: "working on it"},
		{Kind: domain.MessageResult, Text: "implemented"},
	}}
	factory := &testutil.MockProviderFactory{Provider: provider}
	manager := testutil.NewMockConfigManager()
	parser := &testutil.MockBacklogParser{}

	runner := engine.NewRunner(store, factory, bus, nil, nil, cfg)
	scheduler := engine.NewScheduler(store, worktrees, git, bus, nil, runner, nil, cfg, nil)

	container := &app.Container{
		Store:         store,
		Worktrees:     worktrees,
		Git:           git,
		Inspector:     &testutil.MockRepoInspector{},
		Providers:     factory,
		ConfigLoader:  testutil.NewMockConfigLoader(),
		ConfigManager: manager,
		Backlog:       parser,
		Clock:         domain.RealClock{},
		Events:        bus,
		Metrics:       metrics.New(),
		Logger:        logging.New("", slog.LevelInfo),
		Scheduler:     scheduler,
		Config:        cfg,
		Paths: app.Paths{
			ProjectRoot: t.TempDir(),
		},
	}
	container.Paths.GafferDir = domain.GafferDir(container.Paths.ProjectRoot)

	return &testFixture{
		container: container,
		store:     store,
		worktrees: worktrees,
		provider:  provider,
		manager:   manager,
		parser:    parser,
	}
}

// execute runs a command with args and returns its combined output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

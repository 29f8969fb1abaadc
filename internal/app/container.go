// Package app provides the dependency injection container for the application.
package app

import (
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/engine"
	"github.com/voidlock/gaffer/internal/httpapi"
	"github.com/voidlock/gaffer/internal/infra/backlog"
	"github.com/voidlock/gaffer/internal/infra/config"
	"github.com/voidlock/gaffer/internal/infra/contextstore"
	"github.com/voidlock/gaffer/internal/infra/events"
	"github.com/voidlock/gaffer/internal/infra/git"
	"github.com/voidlock/gaffer/internal/infra/logging"
	"github.com/voidlock/gaffer/internal/infra/provider"
	"github.com/voidlock/gaffer/internal/infra/worktree"
	"github.com/voidlock/gaffer/internal/metrics"
	"github.com/voidlock/gaffer/internal/usecase"
)

// Paths holds the resolved filesystem layout for one project.
type Paths struct {
	ProjectRoot string // Root directory of the git repository
	GafferDir   string // Path to the .gaffer directory
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Store         domain.ContextStore
	Worktrees     domain.WorktreeManager
	Git           domain.Git
	Inspector     domain.RepoInspector
	Providers     domain.ProviderFactory
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager
	Backlog       domain.BacklogParser
	Clock         domain.Clock

	// Concrete services shared across use cases
	Events    *events.Bus
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
	Scheduler *engine.Scheduler

	// Effective configuration and layout
	Config *domain.Config
	Paths  Paths
}

// New creates a new Container by detecting the git repository from the
// given directory. The configuration is loaded best-effort; load
// problems surface as Config.Warnings rather than aborting startup.
func New(dir string) (*Container, error) {
	gitClient := git.NewClient()
	projectRoot, err := gitClient.RepoRoot(dir)
	if err != nil {
		return nil, err
	}
	gafferDir := domain.GafferDir(projectRoot)

	configLoader := config.NewLoader(gafferDir)
	cfg, err := configLoader.Load()
	if err != nil {
		cfg = domain.NewDefaultConfig()
	}

	logger := logging.New(gafferDir, logging.ParseLevel(cfg.Log.Level))
	store := contextstore.New(gafferDir, cfg.Transcript.FlushDebounceDuration())
	worktrees := worktree.NewClient(logger, cfg.Worktree)
	bus := events.NewBus()
	mets := metrics.New()
	factory := provider.NewFactory(cfg, logger)

	runner := engine.NewRunner(store, factory, bus, logger, mets, cfg)
	scheduler := engine.NewScheduler(store, worktrees, gitClient, bus, logger, runner, mets, cfg, domain.RealClock{})

	return &Container{
		Store:         store,
		Worktrees:     worktrees,
		Git:           gitClient,
		Inspector:     git.NewInspector(),
		Providers:     factory,
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManager(gafferDir),
		Backlog:       backlog.NewParser(),
		Clock:         domain.RealClock{},
		Events:        bus,
		Metrics:       mets,
		Logger:        logger,
		Scheduler:     scheduler,
		Config:        cfg,
		Paths: Paths{
			ProjectRoot: projectRoot,
			GafferDir:   gafferDir,
		},
	}, nil
}

// Close releases resources held by the container. Safe to call once at
// process exit.
func (c *Container) Close() error {
	c.Events.Close()
	return c.Logger.Close()
}

// UseCase factory methods

// InitRepoUseCase returns a new InitRepo use case.
func (c *Container) InitRepoUseCase() *usecase.InitRepo {
	return usecase.NewInitRepo(c.Git)
}

// NewFeatureUseCase returns a new NewFeature use case.
func (c *Container) NewFeatureUseCase() *usecase.NewFeature {
	return usecase.NewNewFeature(c.Store, c.Clock)
}

// ImportBacklogUseCase returns a new ImportBacklog use case.
func (c *Container) ImportBacklogUseCase() *usecase.ImportBacklog {
	return usecase.NewImportBacklog(c.Store, c.Backlog, c.Clock)
}

// ListFeaturesUseCase returns a new ListFeatures use case.
func (c *Container) ListFeaturesUseCase() *usecase.ListFeatures {
	return usecase.NewListFeatures(c.Store, c.Scheduler)
}

// ShowFeatureUseCase returns a new ShowFeature use case.
func (c *Container) ShowFeatureUseCase() *usecase.ShowFeature {
	return usecase.NewShowFeature(c.Store, c.Inspector, c.Scheduler)
}

// DeleteFeatureUseCase returns a new DeleteFeature use case.
func (c *Container) DeleteFeatureUseCase() *usecase.DeleteFeature {
	return usecase.NewDeleteFeature(c.Store, c.Worktrees, c.Scheduler)
}

// RunFeatureUseCase returns a new RunFeature use case.
func (c *Container) RunFeatureUseCase() *usecase.RunFeature {
	return usecase.NewRunFeature(c.Store, c.Scheduler, c.Config)
}

// ResumeFeatureUseCase returns a new ResumeFeature use case.
func (c *Container) ResumeFeatureUseCase() *usecase.ResumeFeature {
	return usecase.NewResumeFeature(c.Store, c.Scheduler, c.Config)
}

// FollowUpFeatureUseCase returns a new FollowUpFeature use case.
func (c *Container) FollowUpFeatureUseCase() *usecase.FollowUpFeature {
	return usecase.NewFollowUpFeature(c.Store, c.Scheduler, c.Config)
}

// StopFeatureUseCase returns a new StopFeature use case.
func (c *Container) StopFeatureUseCase() *usecase.StopFeature {
	return usecase.NewStopFeature(c.Scheduler)
}

// VerifyFeatureUseCase returns a new VerifyFeature use case.
func (c *Container) VerifyFeatureUseCase() *usecase.VerifyFeature {
	return usecase.NewVerifyFeature(c.Store)
}

// CommitFeatureUseCase returns a new CommitFeature use case.
func (c *Container) CommitFeatureUseCase() *usecase.CommitFeature {
	return usecase.NewCommitFeature(c.Store, c.Worktrees)
}

// RevertFeatureUseCase returns a new RevertFeature use case.
func (c *Container) RevertFeatureUseCase() *usecase.RevertFeature {
	return usecase.NewRevertFeature(c.Store, c.Worktrees, c.Scheduler)
}

// MergeFeatureUseCase returns a new MergeFeature use case.
func (c *Container) MergeFeatureUseCase() *usecase.MergeFeature {
	return usecase.NewMergeFeature(c.Store, c.Worktrees, c.Git, c.Scheduler)
}

// StartAutoUseCase returns a new StartAuto use case.
func (c *Container) StartAutoUseCase() *usecase.StartAuto {
	return usecase.NewStartAuto(c.Scheduler)
}

// StopAutoUseCase returns a new StopAuto use case.
func (c *Container) StopAutoUseCase() *usecase.StopAuto {
	return usecase.NewStopAuto(c.Scheduler)
}

// GetStatusUseCase returns a new GetStatus use case.
func (c *Container) GetStatusUseCase() *usecase.GetStatus {
	return usecase.NewGetStatus(c.Store, c.Scheduler)
}

// GetRunningAgentsUseCase returns a new GetRunningAgents use case.
func (c *Container) GetRunningAgentsUseCase() *usecase.GetRunningAgents {
	return usecase.NewGetRunningAgents(c.Store, c.Scheduler)
}

// ShowLogsUseCase returns a new ShowLogs use case.
func (c *Container) ShowLogsUseCase() *usecase.ShowLogs {
	return usecase.NewShowLogs(c.Store)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigLoader, c.ConfigManager)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// HTTPServer builds the control server with an SSE hub bound to the
// container's event bus.
func (c *Container) HTTPServer() *httpapi.Server {
	hub := httpapi.NewSSEHub(c.Events, c.Logger)
	uc := httpapi.UseCases{
		StartAuto:     c.StartAutoUseCase(),
		StopAuto:      c.StopAutoUseCase(),
		RunFeature:    c.RunFeatureUseCase(),
		ResumeFeature: c.ResumeFeatureUseCase(),
		FollowUp:      c.FollowUpFeatureUseCase(),
		StopFeature:   c.StopFeatureUseCase(),
		Verify:        c.VerifyFeatureUseCase(),
		Commit:        c.CommitFeatureUseCase(),
		Revert:        c.RevertFeatureUseCase(),
		Merge:         c.MergeFeatureUseCase(),
		GetStatus:     c.GetStatusUseCase(),
		RunningAgents: c.GetRunningAgentsUseCase(),
		List:          c.ListFeaturesUseCase(),
		Show:          c.ShowFeatureUseCase(),
		New:           c.NewFeatureUseCase(),
		Delete:        c.DeleteFeatureUseCase(),
	}
	return httpapi.NewServer(uc, hub, c.Metrics, c.Logger, c.Paths.ProjectRoot)
}

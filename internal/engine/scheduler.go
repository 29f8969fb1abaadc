// Package engine contains the auto-mode scheduler and the per-feature
// execution runner.
package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/metrics"
)

// RunOptions configures one feature launch.
// Fields are ordered to minimize memory padding.
type RunOptions struct {
	// FollowUp carries new user instructions appended to the previous
	// transcript. Non-empty implies a follow-up run.
	FollowUp string

	// UseWorktree isolates the run in a git worktree. When false the
	// agent works directly in the project root.
	UseWorktree bool

	// Resume re-reads the accumulated transcript and enables the
	// bounded auto-retry policy for runs that end early.
	Resume bool

	// IsAuto marks scheduler-initiated runs, as opposed to
	// user-initiated single-feature runs.
	IsAuto bool
}

// execution is one entry of the scheduler's running set.
type execution struct {
	cancel context.CancelFunc
	info   domain.ExecutionInfo
}

// Scheduler is the auto-mode control loop. It owns the running set,
// enforces at-most-one execution per feature, polls the backlog and
// launches executions up to the concurrency ceiling. It is an
// explicitly owned single-instance component: the composition root
// creates one and passes it around, there are no package globals.
type Scheduler struct {
	store     domain.ContextStore
	worktrees domain.WorktreeManager
	git       domain.Git
	events    domain.EventPublisher
	logger    domain.Logger
	runner    *Runner
	metrics   *metrics.Metrics
	cfg       *domain.Config
	clock     domain.Clock

	mu          sync.Mutex
	running     map[string]*execution
	loopCancel  context.CancelFunc
	loopDone    chan struct{}
	projectPath string
	maxConc     int
}

// NewScheduler creates a stopped scheduler. mets may be nil in tests.
func NewScheduler(
	store domain.ContextStore,
	worktrees domain.WorktreeManager,
	git domain.Git,
	events domain.EventPublisher,
	logger domain.Logger,
	runner *Runner,
	mets *metrics.Metrics,
	cfg *domain.Config,
	clock domain.Clock,
) *Scheduler {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Scheduler{
		store:     store,
		worktrees: worktrees,
		git:       git,
		events:    events,
		logger:    logger,
		runner:    runner,
		metrics:   mets,
		cfg:       cfg,
		clock:     clock,
		running:   make(map[string]*execution),
	}
}

// Start launches the auto-mode loop. Starting twice is rejected, not
// silently ignored; the caller must Stop first.
func (s *Scheduler) Start(projectPath string, maxConcurrency int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loopCancel != nil {
		return domain.ErrAutoModeRunning
	}
	if maxConcurrency <= 0 {
		maxConcurrency = s.cfg.Auto.Concurrency()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.loopCancel = cancel
	s.loopDone = make(chan struct{})
	s.projectPath = projectPath
	s.maxConc = maxConcurrency

	s.logger.Info("", "auto", fmt.Sprintf("auto mode started (project=%s, max=%d)", projectPath, maxConcurrency))
	s.publish(domain.Event{
		Type: domain.EventAutoStarted,
		Data: map[string]any{"project": projectPath, "maxConcurrency": maxConcurrency},
	})

	go s.loop(ctx)
	return nil
}

// Stop halts the loop. In-flight feature executions keep running:
// stopping the scheduler and stopping a feature are independent
// operations.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.loopCancel == nil {
		s.mu.Unlock()
		return domain.ErrAutoModeNotRunning
	}
	cancel := s.loopCancel
	done := s.loopDone
	s.loopCancel = nil
	s.loopDone = nil
	s.mu.Unlock()

	cancel()
	<-done

	s.logger.Info("", "auto", "auto mode stopped")
	s.publish(domain.Event{Type: domain.EventAutoStopped})
	return nil
}

// IsAutoRunning reports whether the loop is active.
func (s *Scheduler) IsAutoRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loopCancel != nil
}

// StopFeature cancels one running execution. The cancellation is
// cooperative: the runner observes it at its next suspension point,
// and the feature's status is left as-is.
func (s *Scheduler) StopFeature(featureID string) error {
	s.mu.Lock()
	exec, ok := s.running[featureID]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrFeatureNotRunning, featureID)
	}
	exec.cancel()
	s.logger.Info(featureID, "auto", "stop requested")
	return nil
}

// RunFeature starts a user-initiated execution. It bypasses the
// concurrency ceiling (a brief overshoot is acceptable) but never the
// per-feature exclusivity.
func (s *Scheduler) RunFeature(projectPath, featureID string, opts RunOptions) error {
	f, err := s.store.LoadFeature(featureID)
	if err != nil {
		return err
	}

	if f.Status == domain.StatusInProgress && !opts.Resume && opts.FollowUp == "" {
		return fmt.Errorf("feature %s is %s: %w", featureID, f.Status, domain.ErrInvalidTransition)
	}

	return s.launch(f, projectPath, opts)
}

// Running returns the current running set, oldest first.
func (s *Scheduler) Running() []domain.ExecutionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]domain.ExecutionInfo, 0, len(s.running))
	for _, exec := range s.running {
		infos = append(infos, exec.info)
	}
	slices.SortFunc(infos, func(a, b domain.ExecutionInfo) int {
		switch {
		case a.StartedAt.Before(b.StartedAt):
			return -1
		case a.StartedAt.After(b.StartedAt):
			return 1
		default:
			return 0
		}
	})
	return infos
}

// RunningCount returns the size of the running set.
func (s *Scheduler) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}

// loop is the scheduler's control loop: respect the ceiling, pick the
// first pending feature not already running, launch it fire-and-forget
// (tracked in the running set), repeat.
func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.loopDone)

	poll := s.cfg.Auto.PollIntervalDuration()
	idle := s.cfg.Auto.IdleIntervalDuration()
	delay := s.cfg.Auto.LaunchDelayDuration()

	for ctx.Err() == nil {
		if s.RunningCount() >= s.maxConc {
			if !sleepCtx(ctx, poll) {
				return
			}
			continue
		}

		next, err := s.nextPending()
		if err != nil {
			s.logger.Error("", "auto", fmt.Sprintf("list features: %v", err))
			if !sleepCtx(ctx, idle) {
				return
			}
			continue
		}
		if next == nil {
			s.publish(domain.Event{Type: domain.EventAutoIdle})
			if !sleepCtx(ctx, idle) {
				return
			}
			continue
		}

		opts := RunOptions{IsAuto: true, UseWorktree: !s.cfg.Worktree.Disabled}
		if err := s.launch(next, s.projectPath, opts); err != nil {
			// Lost a race with a manual run; the next poll moves on.
			s.logger.Warn(next.ID, "auto", fmt.Sprintf("launch: %v", err))
		}

		if !sleepCtx(ctx, delay) {
			return
		}
	}
}

// nextPending returns the first pending feature not already running:
// priority descending, ties broken by discovery (creation) order.
func (s *Scheduler) nextPending() (*domain.Feature, error) {
	features, err := s.store.ListFeatures()
	if err != nil {
		return nil, err
	}

	pending := make([]*domain.Feature, 0, len(features))
	for _, f := range features {
		if f.Status.IsPending() {
			pending = append(pending, f)
		}
	}
	slices.SortStableFunc(pending, func(a, b *domain.Feature) int {
		return b.Priority - a.Priority
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range pending {
		if _, ok := s.running[f.ID]; !ok {
			return f, nil
		}
	}
	return nil, nil
}

// launch registers an execution context and starts the run goroutine.
// At-most-one execution per feature is enforced here: a feature
// already in the running set is rejected, never queued.
func (s *Scheduler) launch(f *domain.Feature, projectPath string, opts RunOptions) error {
	s.mu.Lock()
	if _, ok := s.running[f.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrFeatureRunning, f.ID)
	}

	execCtx, cancel := context.WithCancel(context.Background())
	exec := &execution{
		cancel: cancel,
		info: domain.ExecutionInfo{
			FeatureID:   f.ID,
			ProjectPath: projectPath,
			StartedAt:   s.clock.Now(),
			IsAutoMode:  opts.IsAuto,
		},
	}
	s.running[f.ID] = exec
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RunningAgents.Inc()
	}

	go s.execute(execCtx, exec, f, projectPath, opts)
	return nil
}

// execute drives one feature run end to end. It owns the execution's
// lifecycle: status transition in, worktree binding, runner
// invocation with the resume retry policy, and the completion
// transition out. No ordinary failure escapes this boundary.
func (s *Scheduler) execute(ctx context.Context, exec *execution, f *domain.Feature, projectPath string, opts RunOptions) {
	defer func() {
		s.mu.Lock()
		delete(s.running, f.ID)
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RunningAgents.Dec()
		}
		exec.cancel()
	}()

	updated, err := s.store.UpdateStatus(f.ID, domain.StatusInProgress, "", "")
	if err != nil {
		s.logger.Error(f.ID, "executor", fmt.Sprintf("transition to in_progress: %v", err))
		s.publish(domain.Event{
			Type:      domain.EventAgentError,
			FeatureID: f.ID,
			Data:      map[string]any{"error": err.Error()},
		})
		return
	}
	f = updated

	workDir := projectPath
	if opts.UseWorktree {
		workDir = s.ensureWorktree(f, projectPath, exec)
	}

	s.publish(domain.Event{
		Type:      domain.EventAgentStarted,
		FeatureID: f.ID,
		Data:      map[string]any{"title": f.Title(), "workDir": workDir, "auto": opts.IsAuto},
	})

	previous := ""
	if opts.Resume || opts.FollowUp != "" {
		if previous, err = s.store.ReadTranscript(f.ID); err != nil {
			s.logger.Warn(f.ID, "executor", fmt.Sprintf("read previous transcript: %v", err))
		}
	}

	maxAttempts := 1
	if opts.Resume {
		maxAttempts = s.cfg.Auto.Retries()
	}

	followUp := opts.FollowUp
	for attempt := 1; ; attempt++ {
		res, runErr := s.runner.Run(ctx, f, workDir, previous, followUp)
		if runErr != nil {
			s.completeFailure(f.ID, runErr)
			return
		}

		if res.Stopped {
			// A stop is not a failure: status stays as-is.
			s.logger.Info(f.ID, "executor", "stopped by user")
			s.countCompletion("stopped")
			s.publish(domain.Event{
				Type:      domain.EventFeatureComplete,
				FeatureID: f.ID,
				Data:      map[string]any{"passes": false, "message": res.Summary},
			})
			return
		}

		// A resumed run that ends with the feature still in_progress
		// means the provider ended its turn without finishing. Resubmit
		// with a visible marker, up to the retry budget.
		if opts.Resume && res.FinalStatus == domain.StatusInProgress && attempt < maxAttempts {
			s.logger.Info(f.ID, "executor", fmt.Sprintf("run ended early, auto-retry %d/%d", attempt, maxAttempts-1))
			s.appendRetryMarker(f.ID, attempt)
			if previous, err = s.store.ReadTranscript(f.ID); err != nil {
				s.logger.Warn(f.ID, "executor", fmt.Sprintf("read transcript for retry: %v", err))
			}
			followUp = ""
			continue
		}

		s.completeSuccess(f, res)
		return
	}
}

// ensureWorktree binds the feature to its worktree and returns the
// effective working directory. Worktree failures degrade to the
// project root; isolation is best effort.
func (s *Scheduler) ensureWorktree(f *domain.Feature, projectPath string, exec *execution) string {
	branch := f.BranchName
	if branch == "" {
		branch = domain.BranchName(f.ID)
	}
	base := f.BaseBranch
	if base == "" {
		current, err := s.git.CurrentBranch(projectPath)
		if err != nil {
			s.logger.Warn(f.ID, "executor", fmt.Sprintf("resolve base branch: %v", err))
			current = "HEAD"
		}
		base = current
	}

	path, err := s.worktrees.Ensure(projectPath, f.ID, branch, base)
	if err != nil {
		s.logger.Warn(f.ID, "executor", fmt.Sprintf("ensure worktree: %v, running in project root", err))
		return projectPath
	}
	if path == projectPath {
		return projectPath
	}

	f.WorktreePath = path
	f.BranchName = branch
	f.BaseBranch = base
	if err := s.store.SaveFeature(f); err != nil {
		s.logger.Warn(f.ID, "executor", fmt.Sprintf("save worktree binding: %v", err))
	}

	s.mu.Lock()
	exec.info.WorktreePath = path
	exec.info.BranchName = branch
	s.mu.Unlock()
	return path
}

// completeSuccess applies the success policy and publishes completion.
//
// Policy: a clean run is verified only when the re-read status is
// already verified (the agent ran the verify capability itself);
// everything else routes to waiting_approval for human review. The
// engine itself never sets verified, which keeps skip-tests features
// out of verified on the automatic path.
func (s *Scheduler) completeSuccess(f *domain.Feature, res *Result) {
	final := res.FinalStatus
	if final != domain.StatusVerified {
		final = domain.StatusWaitingApproval
	}

	if _, err := s.store.UpdateStatus(f.ID, final, res.Summary, ""); err != nil {
		s.logger.Error(f.ID, "executor", fmt.Sprintf("transition to %s: %v", final, err))
	}

	s.logger.Info(f.ID, "executor", fmt.Sprintf("run complete: %s", final))
	s.countCompletion(string(final))
	s.publish(domain.Event{
		Type:      domain.EventFeatureComplete,
		FeatureID: f.ID,
		Data:      map[string]any{"passes": true, "message": res.Summary, "status": string(final)},
	})
}

// completeFailure persists the failure and moves the feature to
// waiting_approval. Failed work is never discarded and never loops
// silently back to backlog: a human reviews it.
func (s *Scheduler) completeFailure(featureID string, runErr error) {
	s.logger.Error(featureID, "executor", runErr.Error())

	if _, err := s.store.UpdateStatus(featureID, domain.StatusWaitingApproval, "", runErr.Error()); err != nil {
		s.logger.Error(featureID, "executor", fmt.Sprintf("transition to waiting_approval: %v", err))
	}

	s.countCompletion("error")
	s.publish(domain.Event{
		Type:      domain.EventAgentError,
		FeatureID: featureID,
		Data:      map[string]any{"error": runErr.Error()},
	})
	s.publish(domain.Event{
		Type:      domain.EventFeatureComplete,
		FeatureID: featureID,
		Data:      map[string]any{"passes": false, "message": runErr.Error()},
	})
}

// appendRetryMarker writes the visible auto-retry separator into the
// transcript before a resubmission.
func (s *Scheduler) appendRetryMarker(featureID string, attempt int) {
	writer, err := s.store.TranscriptWriter(featureID)
	if err != nil {
		s.logger.Warn(featureID, "executor", fmt.Sprintf("open transcript for retry marker: %v", err))
		return
	}
	writer.Append(fmt.Sprintf(autoRetryMarkerTmpl, attempt))
	_ = writer.Close()
}

func (s *Scheduler) publish(ev domain.Event) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}

func (s *Scheduler) countCompletion(result string) {
	if s.metrics != nil {
		s.metrics.FeatureCompletions.WithLabelValues(result).Inc()
	}
}

// sleepCtx sleeps for d or until ctx is cancelled. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voidlock/gaffer/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockContextStore is an in-memory test double for domain.ContextStore.
// It is safe for concurrent use; scheduler tests hit it from several
// goroutines at once.
// Fields are ordered to minimize memory padding.
type MockContextStore struct {
	Features    map[string]*domain.Feature
	Transcripts map[string]string

	SaveErr       error
	LoadErr       error
	ListErr       error
	UpdateErr     error
	WriterErr     error
	ReadErr       error
	StatusUpdates []StatusUpdate

	mu sync.Mutex
}

// StatusUpdate records one UpdateStatus call.
type StatusUpdate struct {
	ID      string
	Summary string
	ErrMsg  string
	Status  domain.Status
}

// Ensure MockContextStore implements domain.ContextStore interface.
var _ domain.ContextStore = (*MockContextStore)(nil)

// NewMockContextStore creates a new MockContextStore with initialized maps.
func NewMockContextStore() *MockContextStore {
	return &MockContextStore{
		Features:    make(map[string]*domain.Feature),
		Transcripts: make(map[string]string),
	}
}

// Put seeds a feature, bypassing error injection.
func (m *MockContextStore) Put(f *domain.Feature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Features[f.ID] = f
}

// SaveFeature stores a feature.
func (m *MockContextStore) SaveFeature(f *domain.Feature) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Features[f.ID] = f
	return nil
}

// LoadFeature returns a copy of the stored feature.
func (m *MockContextStore) LoadFeature(id string) (*domain.Feature, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.Features[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFeatureNotFound, id)
	}
	cp := *f
	return &cp, nil
}

// ListFeatures returns all stored features.
func (m *MockContextStore) ListFeatures() ([]*domain.Feature, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	features := make([]*domain.Feature, 0, len(m.Features))
	for _, f := range m.Features {
		cp := *f
		features = append(features, &cp)
	}
	return features, nil
}

// UpdateStatus records the call and applies the transition in memory.
func (m *MockContextStore) UpdateStatus(id string, status domain.Status, summary, errMsg string) (*domain.Feature, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.Features[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFeatureNotFound, id)
	}
	if f.Status != status {
		if !f.Status.CanTransitionTo(status) {
			return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, f.Status, status)
		}
		now := time.Now()
		switch status {
		case domain.StatusInProgress:
			f.StartedAt = &now
			f.JustFinishedAt = nil
		case domain.StatusWaitingApproval:
			f.JustFinishedAt = &now
		default:
			f.JustFinishedAt = nil
		}
	}

	m.StatusUpdates = append(m.StatusUpdates, StatusUpdate{ID: id, Status: status, Summary: summary, ErrMsg: errMsg})
	f.Status = status
	if summary != "" {
		f.Summary = summary
	}
	if errMsg != "" {
		f.Error = errMsg
	}
	cp := *f
	return &cp, nil
}

// TranscriptWriter returns a writer that appends into the Transcripts map.
func (m *MockContextStore) TranscriptWriter(id string) (domain.TranscriptWriter, error) {
	if m.WriterErr != nil {
		return nil, m.WriterErr
	}
	return &mockTranscriptWriter{store: m, id: id}, nil
}

// ReadTranscript returns the accumulated transcript.
func (m *MockContextStore) ReadTranscript(id string) (string, error) {
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Transcripts[id], nil
}

// ContextExists reports whether the feature is stored.
func (m *MockContextStore) ContextExists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Features[id]
	return ok
}

// DeleteTranscript removes the transcript but keeps the feature.
func (m *MockContextStore) DeleteTranscript(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Transcripts, id)
	return nil
}

// DeleteContext removes the feature and its transcript.
func (m *MockContextStore) DeleteContext(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Features, id)
	delete(m.Transcripts, id)
	return nil
}

// Updates returns a snapshot of the recorded status updates.
func (m *MockContextStore) Updates() []StatusUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StatusUpdate, len(m.StatusUpdates))
	copy(out, m.StatusUpdates)
	return out
}

type mockTranscriptWriter struct {
	store *MockContextStore
	id    string
}

func (w *mockTranscriptWriter) Append(text string) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.Transcripts[w.id] += text
}

func (w *mockTranscriptWriter) Flush() error { return nil }
func (w *mockTranscriptWriter) Close() error { return nil }

// MockProvider is a test double for domain.Provider. Execute replays
// the scripted messages on a channel, or blocks until the context is
// cancelled when Block is set.
// Fields are ordered to minimize memory padding.
type MockProvider struct {
	ExecuteErr   error
	ProviderName string
	Messages     []domain.Message
	Requests     []domain.ExecuteRequest
	Block        bool

	mu sync.Mutex
}

// Ensure MockProvider implements domain.Provider interface.
var _ domain.Provider = (*MockProvider)(nil)

// Name returns the configured provider name.
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Execute records the request and streams the scripted messages.
func (m *MockProvider) Execute(ctx context.Context, req domain.ExecuteRequest) (<-chan domain.Message, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.ExecuteErr != nil {
		return nil, m.ExecuteErr
	}

	ch := make(chan domain.Message, len(m.Messages)+1)
	go func() {
		defer close(ch)
		if m.Block {
			<-ctx.Done()
			return
		}
		for _, msg := range m.Messages {
			select {
			case <-ctx.Done():
				return
			case ch <- msg:
			}
		}
	}()
	return ch, nil
}

// LastRequest returns the most recent ExecuteRequest, or nil.
func (m *MockProvider) LastRequest() *domain.ExecuteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	req := m.Requests[len(m.Requests)-1]
	return &req
}

// RequestCount returns how many times Execute was called.
func (m *MockProvider) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockProviderFactory is a test double for domain.ProviderFactory.
type MockProviderFactory struct {
	Provider    domain.Provider
	ForModelErr error
	Models      []string
}

// Ensure MockProviderFactory implements domain.ProviderFactory interface.
var _ domain.ProviderFactory = (*MockProviderFactory)(nil)

// ForModel records the model and returns the configured provider or error.
func (m *MockProviderFactory) ForModel(model, _ string) (domain.Provider, error) {
	m.Models = append(m.Models, model)
	if m.ForModelErr != nil {
		return nil, m.ForModelErr
	}
	return m.Provider, nil
}

// Available returns the configured provider's name.
func (m *MockProviderFactory) Available() []string {
	if m.Provider == nil {
		return nil
	}
	return []string{m.Provider.Name()}
}

// MockWorktreeManager is a test double for domain.WorktreeManager.
// Fields are ordered to minimize memory padding.
type MockWorktreeManager struct {
	EnsureErr     error
	MergeErr      error
	RemoveErr     error
	CommitErr     error
	HasChangesErr error
	ListErr       error
	EnsurePath    string
	CommitHash    string
	RemovedBranch string
	MergeRes      *domain.MergeResult
	MergeOpts     domain.MergeOptions
	Worktrees     []domain.WorktreeInfo
	HasChangesVal bool
	EnsureCalled  bool
	MergeCalled   bool
	RemoveCalled  bool
	CommitCalled  bool
}

// Ensure MockWorktreeManager implements domain.WorktreeManager interface.
var _ domain.WorktreeManager = (*MockWorktreeManager)(nil)

// NewMockWorktreeManager creates a new MockWorktreeManager.
func NewMockWorktreeManager() *MockWorktreeManager {
	return &MockWorktreeManager{
		EnsurePath: "/tmp/worktree",
		CommitHash: "abc1234",
	}
}

// Ensure records the call and returns the configured path or error.
func (m *MockWorktreeManager) Ensure(_, _, _, _ string) (string, error) {
	m.EnsureCalled = true
	if m.EnsureErr != nil {
		return "", m.EnsureErr
	}
	return m.EnsurePath, nil
}

// Merge records the call and returns the configured result or error.
func (m *MockWorktreeManager) Merge(_, branch, base string, opts domain.MergeOptions) (*domain.MergeResult, error) {
	m.MergeCalled = true
	m.MergeOpts = opts
	if m.MergeErr != nil {
		return nil, m.MergeErr
	}
	if m.MergeRes != nil {
		return m.MergeRes, nil
	}
	return &domain.MergeResult{MergedBranch: branch, IntoBranch: base}, nil
}

// Remove records the call and returns the configured branch or error.
func (m *MockWorktreeManager) Remove(_, _, branch string, deleteBranch bool) (string, error) {
	m.RemoveCalled = true
	if m.RemoveErr != nil {
		return "", m.RemoveErr
	}
	if deleteBranch {
		m.RemovedBranch = branch
		return branch, nil
	}
	return "", nil
}

// Commit records the call and returns the configured hash or error.
func (m *MockWorktreeManager) Commit(_, _ string) (string, error) {
	m.CommitCalled = true
	if m.CommitErr != nil {
		return "", m.CommitErr
	}
	return m.CommitHash, nil
}

// HasChanges returns the configured value or error.
func (m *MockWorktreeManager) HasChanges(_ string) (bool, error) {
	if m.HasChangesErr != nil {
		return false, m.HasChangesErr
	}
	return m.HasChangesVal, nil
}

// List returns the configured worktrees or error.
func (m *MockWorktreeManager) List(_ string) ([]domain.WorktreeInfo, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Worktrees, nil
}

// MockEventPublisher records published events. Safe for concurrent use.
type MockEventPublisher struct {
	Events []domain.Event

	mu sync.Mutex
}

// Ensure MockEventPublisher implements domain.EventPublisher interface.
var _ domain.EventPublisher = (*MockEventPublisher)(nil)

// Publish records the event.
func (m *MockEventPublisher) Publish(ev domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
}

// Published returns a snapshot of the recorded events.
func (m *MockEventPublisher) Published() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.Events))
	copy(out, m.Events)
	return out
}

// Types returns the recorded event types in publish order.
func (m *MockEventPublisher) Types() []domain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]domain.EventType, 0, len(m.Events))
	for _, ev := range m.Events {
		types = append(types, ev.Type)
	}
	return types
}

// Has reports whether an event of the given type was published.
func (m *MockEventPublisher) Has(t domain.EventType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.Events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

// MockGit is a test double for domain.Git.
// Fields are ordered to minimize memory padding.
type MockGit struct {
	RepoRootErr       error
	CurrentBranchErr  error
	BranchExistsErr   error
	HasUncommittedErr error
	RepoRootPath      string
	CurrentBranchName string
	BranchExistsVal   bool
	HasUncommittedVal bool
}

// Ensure MockGit implements domain.Git interface.
var _ domain.Git = (*MockGit)(nil)

// NewMockGit creates a MockGit on branch main.
func NewMockGit() *MockGit {
	return &MockGit{CurrentBranchName: "main", BranchExistsVal: true}
}

// RepoRoot returns the configured root or error.
func (m *MockGit) RepoRoot(dir string) (string, error) {
	if m.RepoRootErr != nil {
		return "", m.RepoRootErr
	}
	if m.RepoRootPath != "" {
		return m.RepoRootPath, nil
	}
	return dir, nil
}

// CurrentBranch returns the configured branch or error.
func (m *MockGit) CurrentBranch(_ string) (string, error) {
	if m.CurrentBranchErr != nil {
		return "", m.CurrentBranchErr
	}
	return m.CurrentBranchName, nil
}

// BranchExists returns the configured value or error.
func (m *MockGit) BranchExists(_, _ string) (bool, error) {
	if m.BranchExistsErr != nil {
		return false, m.BranchExistsErr
	}
	return m.BranchExistsVal, nil
}

// HasUncommittedChanges returns the configured value or error.
func (m *MockGit) HasUncommittedChanges(_ string) (bool, error) {
	if m.HasUncommittedErr != nil {
		return false, m.HasUncommittedErr
	}
	return m.HasUncommittedVal, nil
}

// MockRepoInspector is a test double for domain.RepoInspector.
type MockRepoInspector struct {
	BranchesErr error
	HashErr     error
	CommitsErr  error
	Hash        string
	BranchNames []string
	Commits     []string
}

// Ensure MockRepoInspector implements domain.RepoInspector interface.
var _ domain.RepoInspector = (*MockRepoInspector)(nil)

// Branches returns the configured branches or error.
func (m *MockRepoInspector) Branches(_ string) ([]string, error) {
	if m.BranchesErr != nil {
		return nil, m.BranchesErr
	}
	return m.BranchNames, nil
}

// ShortHash returns the configured hash or error.
func (m *MockRepoInspector) ShortHash(_, _ string) (string, error) {
	if m.HashErr != nil {
		return "", m.HashErr
	}
	return m.Hash, nil
}

// CommitsBetween returns the configured commits or error.
func (m *MockRepoInspector) CommitsBetween(_, _, _ string, limit int) ([]string, error) {
	if m.CommitsErr != nil {
		return nil, m.CommitsErr
	}
	if limit > 0 && limit < len(m.Commits) {
		return m.Commits[:limit], nil
	}
	return m.Commits, nil
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config       *domain.Config
	GlobalConfig *domain.Config
	LoadErr      error
	GlobalErr    error
}

// Ensure MockConfigLoader implements domain.ConfigLoader interface.
var _ domain.ConfigLoader = (*MockConfigLoader)(nil)

// NewMockConfigLoader creates a new MockConfigLoader with default config.
func NewMockConfigLoader() *MockConfigLoader {
	return &MockConfigLoader{Config: domain.NewDefaultConfig()}
}

// Load returns the configured config or error.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Config, nil
}

// LoadGlobal returns the configured global config or error.
func (m *MockConfigLoader) LoadGlobal() (*domain.Config, error) {
	if m.GlobalErr != nil {
		return nil, m.GlobalErr
	}
	if m.GlobalConfig != nil {
		return m.GlobalConfig, nil
	}
	return m.Config, nil
}

// MockConfigManager is a test double for domain.ConfigManager.
// Fields are ordered to minimize memory padding.
type MockConfigManager struct {
	InitRepoErr      error
	InitGlobalErr    error
	RepoInfo         domain.ConfigInfo
	GlobalInfo       domain.ConfigInfo
	InitRepoCalled   bool
	InitGlobalCalled bool
}

// Ensure MockConfigManager implements domain.ConfigManager interface.
var _ domain.ConfigManager = (*MockConfigManager)(nil)

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		RepoInfo:   domain.ConfigInfo{Path: "/test/.gaffer/config.toml"},
		GlobalInfo: domain.ConfigInfo{Path: "/home/test/.config/gaffer/config.toml"},
	}
}

// RepoConfigInfo returns the configured repo config info.
func (m *MockConfigManager) RepoConfigInfo() domain.ConfigInfo {
	return m.RepoInfo
}

// GlobalConfigInfo returns the configured global config info.
func (m *MockConfigManager) GlobalConfigInfo() domain.ConfigInfo {
	return m.GlobalInfo
}

// InitRepoConfig records the call and returns the configured error.
func (m *MockConfigManager) InitRepoConfig(_ bool) error {
	m.InitRepoCalled = true
	return m.InitRepoErr
}

// InitGlobalConfig records the call and returns the configured error.
func (m *MockConfigManager) InitGlobalConfig(_ bool) error {
	m.InitGlobalCalled = true
	return m.InitGlobalErr
}

// MockBacklogParser is a test double for domain.BacklogParser.
type MockBacklogParser struct {
	Features []*domain.Feature
	ParseErr error
}

// Ensure MockBacklogParser implements domain.BacklogParser interface.
var _ domain.BacklogParser = (*MockBacklogParser)(nil)

// ParseFile returns the configured features or error.
func (m *MockBacklogParser) ParseFile(_ string) ([]*domain.Feature, error) {
	if m.ParseErr != nil {
		return nil, m.ParseErr
	}
	return m.Features, nil
}

// RecordingLogger captures log lines for assertions.
type RecordingLogger struct {
	Lines []string

	mu sync.Mutex
}

// Ensure RecordingLogger implements domain.Logger interface.
var _ domain.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) record(level, featureID, category, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Lines = append(l.Lines, fmt.Sprintf("%s %s %s %s", level, featureID, category, msg))
}

// Debug records a debug line.
func (l *RecordingLogger) Debug(featureID, category, msg string) {
	l.record("DEBUG", featureID, category, msg)
}

// Info records an info line.
func (l *RecordingLogger) Info(featureID, category, msg string) {
	l.record("INFO", featureID, category, msg)
}

// Warn records a warn line.
func (l *RecordingLogger) Warn(featureID, category, msg string) {
	l.record("WARN", featureID, category, msg)
}

// Error records an error line.
func (l *RecordingLogger) Error(featureID, category, msg string) {
	l.record("ERROR", featureID, category, msg)
}

// Contains reports whether any recorded line contains substr.
func (l *RecordingLogger) Contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.Lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

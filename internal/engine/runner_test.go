package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/testutil"
)

func newRunnerFixture(provider *testutil.MockProvider) (*Runner, *testutil.MockContextStore, *testutil.MockEventPublisher) {
	store := testutil.NewMockContextStore()
	events := &testutil.MockEventPublisher{}
	factory := &testutil.MockProviderFactory{Provider: provider}
	runner := NewRunner(store, factory, events, nil, nil, domain.NewDefaultConfig())
	return runner, store, events
}

func backlogFeature(id string) *domain.Feature {
	return &domain.Feature{
		ID:          id,
		Description: "Add a health endpoint",
		Status:      domain.StatusInProgress,
		Model:       "claude-sonnet-4-5",
	}
}

func TestRunner_Run_Success(t *testing.T) {
	provider := &testutil.MockProvider{Messages: []domain.Message{
		{Kind: domain.MessageText, Text: "Looking at the codebase.\n"},
		{Kind: domain.MessageTool, ToolName: "Edit", ToolInput: "server.go"},
		{Kind: domain.MessageText, Text: "Added the endpoint.\n"},
		{Kind: domain.MessageResult, Text: "Implemented /healthz with a test."},
	}}
	runner, store, events := newRunnerFixture(provider)

	f := backlogFeature("health-endpoint")
	store.Put(f)

	res, err := runner.Run(context.Background(), f, "/tmp/project", "", "")
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.False(t, res.Stopped)
	assert.Equal(t, "Implemented /healthz with a test.", res.Summary)
	assert.Equal(t, domain.StatusInProgress, res.FinalStatus)

	transcript, err := store.ReadTranscript("health-endpoint")
	require.NoError(t, err)
	assert.Contains(t, transcript, "Looking at the codebase.")
	assert.Contains(t, transcript, "[tool] Edit(server.go)")
	assert.Contains(t, transcript, "Added the endpoint.")
	assert.NotContains(t, transcript, "Implemented /healthz", "result summary must not replace the transcript")

	types := events.Types()
	assert.Contains(t, types, domain.EventAgentPhase)
	assert.Contains(t, types, domain.EventAgentProgress)
	assert.Contains(t, types, domain.EventAgentTool)
}

func TestRunner_Run_PhaseOrder(t *testing.T) {
	provider := &testutil.MockProvider{Messages: []domain.Message{
		{Kind: domain.MessageText, Text: "plan\n"},
		{Kind: domain.MessageTool, ToolName: "Bash", ToolInput: "ls"},
	}}
	runner, store, events := newRunnerFixture(provider)
	f := backlogFeature("phases")
	store.Put(f)

	_, err := runner.Run(context.Background(), f, "/tmp/project", "", "")
	require.NoError(t, err)

	var phases []string
	for _, ev := range events.Published() {
		if ev.Type == domain.EventAgentPhase {
			phases = append(phases, ev.Data["phase"].(string))
		}
	}
	assert.Equal(t, []string{domain.PhasePlanning, domain.PhaseAction, domain.PhaseVerification}, phases)
}

func TestRunner_Run_ProviderErrorPersisted(t *testing.T) {
	provider := &testutil.MockProvider{Messages: []domain.Message{
		{Kind: domain.MessageText, Text: "starting\n"},
		{Kind: domain.MessageError, Text: "rate limited"},
	}}
	runner, store, _ := newRunnerFixture(provider)
	f := backlogFeature("rate-limited")
	store.Put(f)

	_, err := runner.Run(context.Background(), f, "/tmp/project", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	transcript, _ := store.ReadTranscript("rate-limited")
	assert.Contains(t, transcript, "starting", "output before the failure survives")
	assert.Contains(t, transcript, "[error] provider error: rate limited")
}

func TestRunner_Run_ExecuteFailurePersisted(t *testing.T) {
	provider := &testutil.MockProvider{ExecuteErr: errors.New("spawn failed")}
	runner, store, _ := newRunnerFixture(provider)
	f := backlogFeature("spawn")
	store.Put(f)

	_, err := runner.Run(context.Background(), f, "/tmp/project", "", "")
	require.Error(t, err)

	transcript, _ := store.ReadTranscript("spawn")
	assert.Contains(t, transcript, "[error] spawn failed")
}

func TestRunner_Run_FactoryErrorFailsFast(t *testing.T) {
	store := testutil.NewMockContextStore()
	factory := &testutil.MockProviderFactory{ForModelErr: domain.ErrModelProviderMismatch}
	runner := NewRunner(store, factory, nil, nil, nil, domain.NewDefaultConfig())

	f := backlogFeature("mismatch")
	store.Put(f)

	_, err := runner.Run(context.Background(), f, "/tmp/project", "", "")
	assert.ErrorIs(t, err, domain.ErrModelProviderMismatch)

	transcript, _ := store.ReadTranscript("mismatch")
	assert.Contains(t, transcript, "[error]")
}

func TestRunner_Run_Cancellation(t *testing.T) {
	provider := &testutil.MockProvider{Block: true}
	runner, store, _ := newRunnerFixture(provider)
	f := backlogFeature("cancelled")
	store.Put(f)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res, err := runner.Run(ctx, f, "/tmp/project", "", "")
	require.NoError(t, err, "a stop is not a failure")
	assert.True(t, res.Stopped)
	assert.False(t, res.Succeeded)
	assert.Empty(t, store.Updates(), "runner never touches feature status")
}

func TestRunner_Run_FollowUpAppendsSeparator(t *testing.T) {
	provider := &testutil.MockProvider{Messages: []domain.Message{
		{Kind: domain.MessageText, Text: "continuing\n"},
	}}
	runner, store, _ := newRunnerFixture(provider)
	f := backlogFeature("follow-up")
	store.Put(f)
	store.Transcripts["follow-up"] = "earlier work\n"

	previous, _ := store.ReadTranscript("follow-up")
	_, err := runner.Run(context.Background(), f, "/tmp/project", previous, "also add logging")
	require.NoError(t, err)

	transcript, _ := store.ReadTranscript("follow-up")
	assert.True(t, strings.HasPrefix(transcript, "earlier work\n"), "transcript is append-only")
	assert.Contains(t, transcript, "## Follow-up Session")
	assert.Contains(t, transcript, "> also add logging")
	assert.Contains(t, transcript, "continuing")

	req := provider.LastRequest()
	require.NotNil(t, req)
	assert.Contains(t, req.Prompt, "earlier work", "prompt carries the previous transcript")
	assert.Contains(t, req.Prompt, "also add logging")
}

func TestRunner_Run_ThinkingNotPersisted(t *testing.T) {
	provider := &testutil.MockProvider{Messages: []domain.Message{
		{Kind: domain.MessageThinking, Text: "private reasoning"},
		{Kind: domain.MessageText, Text: "visible answer\n"},
	}}
	runner, store, events := newRunnerFixture(provider)
	f := backlogFeature("thinking")
	store.Put(f)

	_, err := runner.Run(context.Background(), f, "/tmp/project", "", "")
	require.NoError(t, err)

	transcript, _ := store.ReadTranscript("thinking")
	assert.NotContains(t, transcript, "private reasoning")
	assert.Contains(t, transcript, "visible answer")
	assert.True(t, events.Has(domain.EventAgentThinking))
}

func TestRunner_Run_DefaultModel(t *testing.T) {
	provider := &testutil.MockProvider{}
	store := testutil.NewMockContextStore()
	factory := &testutil.MockProviderFactory{Provider: provider}
	cfg := domain.NewDefaultConfig()
	cfg.Providers.DefaultModel = "claude-opus-4-1"
	runner := NewRunner(store, factory, nil, nil, nil, cfg)

	f := backlogFeature("default-model")
	f.Model = ""
	store.Put(f)

	_, err := runner.Run(context.Background(), f, "/tmp/project", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"claude-opus-4-1"}, factory.Models)
	assert.Equal(t, "claude-opus-4-1", provider.LastRequest().Model)
}

func TestBuildPrompt_Sections(t *testing.T) {
	f := &domain.Feature{
		ID:          "login",
		Category:    "backend",
		Description: "Add login",
		Spec:        "POST /login with JSON body",
		Steps:       []string{"handler", "tests"},
	}

	prompt := buildPrompt(f, "", "")
	assert.Contains(t, prompt, "Category: backend")
	assert.Contains(t, prompt, "## Feature")
	assert.Contains(t, prompt, "## Specification")
	assert.Contains(t, prompt, "1. handler")
	assert.Contains(t, prompt, "2. tests")
	assert.Contains(t, prompt, "gaffer verify login")
}

func TestBuildPrompt_SkipTests(t *testing.T) {
	f := &domain.Feature{ID: "quick", Description: "quick fix", SkipTests: true}

	prompt := buildPrompt(f, "", "")
	assert.Contains(t, prompt, "Do not run the test suite")
	assert.NotContains(t, prompt, "gaffer verify")
}

func TestBuildPrompt_Resume(t *testing.T) {
	f := &domain.Feature{ID: "resume", Description: "resume me"}

	prompt := buildPrompt(f, "prior transcript", "")
	assert.Contains(t, prompt, "## Previous session transcript")
	assert.Contains(t, prompt, "prior transcript")
	assert.Contains(t, prompt, "Continue where the previous session left off")
}

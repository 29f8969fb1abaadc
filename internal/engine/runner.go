package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/metrics"
)

// Result describes how one run ended.
// Fields are ordered to minimize memory padding.
type Result struct {
	// Summary is the provider's end-of-turn summary, or the stop reason.
	Summary string

	// FinalStatus is the feature status re-read after the stream ended.
	// The provider may have updated it mid-run via the verify capability.
	FinalStatus domain.Status

	// Succeeded is true when the stream completed without an error.
	Succeeded bool

	// Stopped is true when the run ended through user cancellation.
	// A stopped run is not a failure.
	Stopped bool
}

// Runner drives one feature's conversation with a provider to
// completion or cancellation, incrementally persisting output and
// emitting progress events.
type Runner struct {
	store   domain.ContextStore
	factory domain.ProviderFactory
	events  domain.EventPublisher
	logger  domain.Logger
	metrics *metrics.Metrics
	cfg     *domain.Config
}

// NewRunner creates a runner. mets may be nil in tests.
func NewRunner(
	store domain.ContextStore,
	factory domain.ProviderFactory,
	events domain.EventPublisher,
	logger domain.Logger,
	mets *metrics.Metrics,
	cfg *domain.Config,
) *Runner {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Runner{
		store:   store,
		factory: factory,
		events:  events,
		logger:  logger,
		metrics: mets,
		cfg:     cfg,
	}
}

// Run executes one conversation turn for the feature in workDir.
//
// Error returns carry execution and configuration failures; both are
// persisted into the transcript with an error marker before
// returning, so the durable record always shows what happened.
// Cancellation is not an error: it returns Stopped=true and leaves
// the feature status untouched.
func (r *Runner) Run(ctx context.Context, feature *domain.Feature, workDir, previousTranscript, followUp string) (*Result, error) {
	writer, err := r.store.TranscriptWriter(feature.ID)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer func() {
		if r.metrics != nil {
			r.metrics.TranscriptFlushes.Inc()
		}
		_ = writer.Close()
	}()

	model := feature.Model
	if model == "" {
		model = r.cfg.Providers.DefaultModel
	}

	// Provider/model consistency is a configuration error: fail fast,
	// before any backend is contacted.
	prov, err := r.factory.ForModel(model, feature.Provider)
	if err != nil {
		r.persistError(writer, err)
		return nil, err
	}

	prompt := buildPrompt(feature, previousTranscript, followUp)

	if previousTranscript != "" {
		writer.Append(followUpSeparator)
		if followUp != "" {
			writer.Append("> " + strings.TrimSpace(followUp) + "\n\n")
		}
	}

	stream, err := prov.Execute(ctx, domain.ExecuteRequest{
		Prompt:   prompt,
		Model:    model,
		WorkDir:  workDir,
		Thinking: feature.Thinking,
		Images:   feature.Images,
	})
	if err != nil {
		r.persistError(writer, err)
		return nil, fmt.Errorf("execute provider %s: %w", prov.Name(), err)
	}

	r.logger.Info(feature.ID, "runner", fmt.Sprintf("streaming from %s model %s in %s", prov.Name(), model, workDir))
	r.publishPhase(feature.ID, domain.PhasePlanning)

	var lastText string
	var summary string
	sawTool := false

consume:
	for {
		select {
		case <-ctx.Done():
			break consume
		case msg, ok := <-stream:
			if !ok {
				break consume
			}
			r.countMessage(msg.Kind)

			switch msg.Kind {
			case domain.MessageText:
				if lastText != "" && !strings.HasSuffix(lastText, "\n") {
					writer.Append("\n\n")
				}
				writer.Append(msg.Text)
				lastText = msg.Text
				r.publish(domain.Event{
					Type:      domain.EventAgentProgress,
					FeatureID: feature.ID,
					Data:      map[string]any{"text": msg.Text},
				})

			case domain.MessageTool:
				if !sawTool {
					sawTool = true
					r.publishPhase(feature.ID, domain.PhaseAction)
				}
				marker := fmt.Sprintf("\n%s%s(%s)\n", toolMarkerPrefix, msg.ToolName, msg.ToolInput)
				writer.Append(marker)
				lastText = marker
				r.publish(domain.Event{
					Type:      domain.EventAgentTool,
					FeatureID: feature.ID,
					Data:      map[string]any{"tool": msg.ToolName, "input": msg.ToolInput},
				})

			case domain.MessageThinking:
				// Reasoning is surfaced live but kept out of the durable
				// transcript.
				r.publish(domain.Event{
					Type:      domain.EventAgentThinking,
					FeatureID: feature.ID,
					Data:      map[string]any{"text": msg.Text},
				})

			case domain.MessageError:
				err := fmt.Errorf("provider error: %s", msg.Text)
				r.persistError(writer, err)
				return nil, err

			case domain.MessageResult:
				// The result message only triggers a flush and supplies a
				// summary. It never replaces the accumulated transcript;
				// the running transcript is the durable record.
				summary = msg.Text
				_ = writer.Flush()
			}
		}
	}

	if ctx.Err() != nil {
		if err := writer.Flush(); err != nil {
			r.logger.Warn(feature.ID, "runner", fmt.Sprintf("flush after stop: %v", err))
		}
		r.logger.Info(feature.ID, "runner", "run stopped by user")
		return &Result{Stopped: true, Summary: "stopped by user"}, nil
	}

	if err := writer.Flush(); err != nil {
		return nil, fmt.Errorf("flush transcript: %w", err)
	}
	r.publishPhase(feature.ID, domain.PhaseVerification)

	// Re-read the status: the agent may have run the verify capability
	// itself mid-run.
	current, err := r.store.LoadFeature(feature.ID)
	if err != nil {
		return nil, fmt.Errorf("reload feature: %w", err)
	}

	if summary == "" {
		summary = firstLine(lastText)
	}
	return &Result{
		Succeeded:   true,
		FinalStatus: current.Status,
		Summary:     summary,
	}, nil
}

// persistError writes an error marker into the transcript and forces
// it to disk so the failure is visible in the durable record.
func (r *Runner) persistError(writer domain.TranscriptWriter, err error) {
	writer.Append(fmt.Sprintf("\n%s%v\n", errorMarkerPrefix, err))
	_ = writer.Flush()
}

func (r *Runner) publish(ev domain.Event) {
	if r.events != nil {
		r.events.Publish(ev)
	}
}

func (r *Runner) publishPhase(featureID, phase string) {
	r.publish(domain.Event{
		Type:      domain.EventAgentPhase,
		FeatureID: featureID,
		Data:      map[string]any{"phase": phase},
	})
}

func (r *Runner) countMessage(kind domain.MessageKind) {
	if r.metrics != nil {
		r.metrics.ProviderMessages.WithLabelValues(string(kind)).Inc()
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	const maxLen = 120
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}

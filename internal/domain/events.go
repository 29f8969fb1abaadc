package domain

import "time"

// EventType identifies an engine event.
type EventType string

// Event types emitted by the engine.
const (
	EventAgentStarted    EventType = "agent.started"
	EventAgentProgress   EventType = "agent.progress"
	EventAgentTool       EventType = "agent.tool"
	EventAgentThinking   EventType = "agent.thinking"
	EventAgentPhase      EventType = "agent.phase"
	EventAgentError      EventType = "agent.error"
	EventFeatureComplete EventType = "feature.complete"
	EventAutoIdle        EventType = "auto.idle"
	EventAutoStarted     EventType = "auto.started"
	EventAutoStopped     EventType = "auto.stopped"
)

// Phase names carried by EventAgentPhase events.
const (
	PhasePlanning     = "planning"
	PhaseAction       = "action"
	PhaseVerification = "verification"
)

// Event is a fan-out notification emitted by the engine. Publishing is
// fire-and-forget; no consumer can block the engine.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	FeatureID string         `json:"featureId,omitempty"`
}

package domain

// Status represents the lifecycle state of a feature.
type Status string

const (
	StatusBacklog         Status = "backlog"          // Awaiting pickup
	StatusInProgress      Status = "in_progress"      // Agent working
	StatusWaitingApproval Status = "waiting_approval" // Awaiting human review
	StatusVerified        Status = "verified"         // Verified, ready to merge

	// Synonyms written by embedding integrations (normalized to backlog on read)
	statusPendingSynonym Status = "pending"
	statusReadySynonym   Status = "ready"
)

// AllStatuses returns all canonical status values.
func AllStatuses() []Status {
	return []Status{
		StatusBacklog,
		StatusInProgress,
		StatusWaitingApproval,
		StatusVerified,
	}
}

// transitions defines the allowed status transitions.
// Flow: backlog → in_progress → (verified | waiting_approval)
//
//	waiting_approval → in_progress (resume / follow-up)
//	waiting_approval → verified    (approve / merge)
//	any              → backlog     (revert)
var transitions = map[Status][]Status{
	StatusBacklog:         {StatusInProgress},
	StatusInProgress:      {StatusVerified, StatusWaitingApproval, StatusBacklog},
	StatusWaitingApproval: {StatusInProgress, StatusVerified, StatusBacklog},
	StatusVerified:        {StatusInProgress, StatusBacklog},
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, ok := transitions[s.Normalize()]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsPending returns true if a feature in this status is eligible for
// scheduler pickup.
func (s Status) IsPending() bool {
	return s.Normalize() == StatusBacklog
}

// CanStart returns true if a feature in this status can be handed to an
// agent. A feature already in_progress cannot be started again.
func (s Status) CanStart() bool {
	switch s.Normalize() {
	case StatusBacklog, StatusWaitingApproval, StatusVerified:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status ends a run. Verified features remain
// re-enterable via follow-up.
func (s Status) IsTerminal() bool {
	return s == StatusVerified
}

// Normalize maps synonym spellings to the canonical vocabulary.
func (s Status) Normalize() Status {
	switch s {
	case statusPendingSynonym, statusReadySynonym:
		return StatusBacklog
	default:
		return s
	}
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s.Normalize() {
	case StatusBacklog:
		return "Backlog"
	case StatusInProgress:
		return "In Progress"
	case StatusWaitingApproval:
		return "Waiting Approval"
	case StatusVerified:
		return "Verified"
	default:
		return string(s)
	}
}

// IsValid returns true if the status is a known value, synonyms included.
func (s Status) IsValid() bool {
	switch s {
	case StatusBacklog, StatusInProgress, StatusWaitingApproval, StatusVerified,
		statusPendingSynonym, statusReadySynonym:
		return true
	default:
		return false
	}
}

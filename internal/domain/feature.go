// Package domain contains core business entities and interfaces.
package domain

import (
	"strings"
	"time"
)

// ImageAttachment is an image referenced by a feature prompt.
type ImageAttachment struct {
	Path     string `json:"path"`
	MimeType string `json:"mimeType,omitempty"`
}

// Thinking levels accepted as execution hints.
const (
	ThinkingOff    = "off"
	ThinkingMedium = "medium"
	ThinkingHigh   = "high"
)

// Feature represents a unit of work on the backlog.
// Fields are ordered to minimize memory padding.
type Feature struct {
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`      // When status became in_progress
	JustFinishedAt *time.Time `json:"justFinishedAt,omitempty"` // Badge TTL marker, set entering waiting_approval

	ID          string `json:"id"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description"`
	Spec        string `json:"spec,omitempty"`
	Status      Status `json:"status"`

	// Execution hints
	Provider string `json:"provider,omitempty"` // Provider family override (empty = derive from model)
	Model    string `json:"model,omitempty"`    // Model identifier override (empty = config default)
	Thinking string `json:"thinking,omitempty"` // off | medium | high

	// Runtime fields owned by the engine
	WorktreePath string `json:"worktreePath,omitempty"`
	BranchName   string `json:"branchName,omitempty"`
	BaseBranch   string `json:"baseBranch,omitempty"` // Recorded at worktree creation, merge target
	Summary      string `json:"summary,omitempty"`
	Error        string `json:"error,omitempty"`

	Steps  []string          `json:"steps,omitempty"`
	Images []ImageAttachment `json:"images,omitempty"`

	Priority  int  `json:"priority,omitempty"` // Higher runs first; ties broken by discovery order
	SkipTests bool `json:"skipTests,omitempty"`
}

// Title returns a short label derived from the first line of the description.
func (f *Feature) Title() string {
	line := f.Description
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "(no description)"
	}
	const maxLen = 72
	if len(line) > maxLen {
		return line[:maxLen] + "..."
	}
	return line
}

// HasWorktree returns true if the feature is bound to a worktree.
func (f *Feature) HasWorktree() bool {
	return f.WorktreePath != "" && f.BranchName != ""
}

// ClearWorktreeBinding resets the runtime worktree fields after revert/merge.
func (f *Feature) ClearWorktreeBinding() {
	f.WorktreePath = ""
	f.BranchName = ""
	f.BaseBranch = ""
}

// NormalizeStatus rewrites synonym statuses to the canonical vocabulary.
// A missing status defaults to backlog.
func NormalizeStatus(f *Feature) {
	if f.Status == "" {
		f.Status = StatusBacklog
		return
	}
	f.Status = f.Status.Normalize()
}

// ExecutionInfo describes one in-flight execution for status reporting.
// Fields are ordered to minimize memory padding.
type ExecutionInfo struct {
	StartedAt    time.Time `json:"startedAt"`
	FeatureID    string    `json:"featureId"`
	ProjectPath  string    `json:"projectPath"`
	WorktreePath string    `json:"worktreePath,omitempty"` // Empty = running in the project root
	BranchName   string    `json:"branchName,omitempty"`
	IsAutoMode   bool      `json:"isAutoMode"`
}

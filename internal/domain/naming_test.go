package domain

import (
	"path/filepath"
	"testing"
)

func TestBranchName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"feat-1", "gaffer/feat-1"},
		{"a1b2c3d4", "gaffer/a1b2c3d4"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := BranchName(tt.id); got != tt.want {
				t.Errorf("BranchName(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestParseBranchFeatureID(t *testing.T) {
	tests := []struct {
		name   string
		branch string
		wantID string
		wantOK bool
	}{
		// Valid gaffer branches
		{"simple id", "gaffer/feat-1", "feat-1", true},
		{"uuid id", "gaffer/a1b2c3d4", "a1b2c3d4", true},
		{"dotted id", "gaffer/v1.2-fix", "v1.2-fix", true},

		// Invalid branches
		{"main branch", "main", "", false},
		{"feature branch", "feature/foo", "", false},
		{"empty string", "", "", false},
		{"prefix without id", "gaffer/", "", false},
		{"nested path", "gaffer/a/b", "", false},
		{"similar prefix", "mygaffer/feat-1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, gotOK := ParseBranchFeatureID(tt.branch)
			if gotID != tt.wantID {
				t.Errorf("ParseBranchFeatureID(%q) ID = %q, want %q", tt.branch, gotID, tt.wantID)
			}
			if gotOK != tt.wantOK {
				t.Errorf("ParseBranchFeatureID(%q) OK = %v, want %v", tt.branch, gotOK, tt.wantOK)
			}
		})
	}
}

func TestStatePaths(t *testing.T) {
	gd := GafferDir("/proj")
	if gd != filepath.Join("/proj", ".gaffer") {
		t.Errorf("GafferDir = %q", gd)
	}
	if got := FeaturePath(gd, "f1"); got != filepath.Join(gd, "context", "f1", "feature.json") {
		t.Errorf("FeaturePath = %q", got)
	}
	if got := TranscriptPath(gd, "f1"); got != filepath.Join(gd, "context", "f1", "agent-output.md") {
		t.Errorf("TranscriptPath = %q", got)
	}
	if got := FeatureLogPath(gd, "f1"); got != filepath.Join(gd, "logs", "feature-f1.log") {
		t.Errorf("FeatureLogPath = %q", got)
	}
	if got := WorktreePath("/proj", "f1"); got != filepath.Join("/proj", ".worktrees", "f1") {
		t.Errorf("WorktreePath = %q", got)
	}
}

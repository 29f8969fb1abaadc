package domain

import (
	"strings"
	"testing"
)

func TestFeature_Title(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"single line", "Add login page", "Add login page"},
		{"multi line", "Add login page\nwith OAuth support", "Add login page"},
		{"empty", "", "(no description)"},
		{"whitespace only", "  \n\t", "(no description)"},
		{"long first line", strings.Repeat("x", 100), strings.Repeat("x", 72) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Feature{Description: tt.description}
			if got := f.Title(); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFeature_HasWorktree(t *testing.T) {
	f := &Feature{}
	if f.HasWorktree() {
		t.Error("empty binding should report no worktree")
	}
	f.WorktreePath = "/proj/.worktrees/f1"
	f.BranchName = "gaffer/f1"
	if !f.HasWorktree() {
		t.Error("bound feature should report a worktree")
	}
}

func TestFeature_ClearWorktreeBinding(t *testing.T) {
	f := &Feature{
		WorktreePath: "/proj/.worktrees/f1",
		BranchName:   "gaffer/f1",
	}
	f.ClearWorktreeBinding()
	if f.WorktreePath != "" || f.BranchName != "" {
		t.Errorf("binding not cleared: path=%q branch=%q", f.WorktreePath, f.BranchName)
	}
}

func TestNormalizeStatus(t *testing.T) {
	f := &Feature{Status: Status("pending")}
	NormalizeStatus(f)
	if f.Status != StatusBacklog {
		t.Errorf("Status = %s, want %s", f.Status, StatusBacklog)
	}

	f = &Feature{Status: Status("")}
	NormalizeStatus(f)
	if f.Status != StatusBacklog {
		t.Errorf("empty status normalized to %s, want %s", f.Status, StatusBacklog)
	}
}

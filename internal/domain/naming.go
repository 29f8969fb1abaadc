package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// GafferDirName is the per-project state directory.
	GafferDirName = ".gaffer"

	// WorktreesDirName holds feature worktrees under the project root.
	WorktreesDirName = ".worktrees"

	// ConfigFileName is the TOML configuration file name.
	ConfigFileName = "config.toml"

	// branchPrefix namespaces feature branches.
	branchPrefix = "gaffer/"
)

// GafferDir returns the state directory for a project.
func GafferDir(projectRoot string) string {
	return filepath.Join(projectRoot, GafferDirName)
}

// ContextDir returns the context directory for a feature.
func ContextDir(gafferDir, featureID string) string {
	return filepath.Join(gafferDir, "context", featureID)
}

// FeaturePath returns the path to a feature's metadata file.
func FeaturePath(gafferDir, featureID string) string {
	return filepath.Join(ContextDir(gafferDir, featureID), "feature.json")
}

// TranscriptPath returns the path to a feature's transcript file.
func TranscriptPath(gafferDir, featureID string) string {
	return filepath.Join(ContextDir(gafferDir, featureID), "agent-output.md")
}

// LogsDir returns the log directory.
func LogsDir(gafferDir string) string {
	return filepath.Join(gafferDir, "logs")
}

// GlobalLogPath returns the path to the engine log file.
func GlobalLogPath(gafferDir string) string {
	return filepath.Join(LogsDir(gafferDir), "gaffer.log")
}

// FeatureLogPath returns the path to a feature's log file.
func FeatureLogPath(gafferDir, featureID string) string {
	return filepath.Join(LogsDir(gafferDir), fmt.Sprintf("feature-%s.log", featureID))
}

// RepoConfigPath returns the path to the repo-level config file.
func RepoConfigPath(gafferDir string) string {
	return filepath.Join(gafferDir, ConfigFileName)
}

// GlobalGafferDir returns the global config directory.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalGafferDir(configHome string) string {
	return filepath.Join(configHome, "gaffer")
}

// GlobalConfigPath returns the global config path.
func GlobalConfigPath(configHome string) string {
	return filepath.Join(GlobalGafferDir(configHome), ConfigFileName)
}

// WorktreePath returns the worktree directory for a feature.
func WorktreePath(projectRoot, featureID string) string {
	return filepath.Join(projectRoot, WorktreesDirName, featureID)
}

// BranchName returns the branch name for a feature.
// Format: gaffer/<id>
func BranchName(featureID string) string {
	return branchPrefix + featureID
}

// branchPattern matches gaffer branch names: gaffer/<id>
var branchPattern = regexp.MustCompile(`^gaffer/([A-Za-z0-9._-]+)$`)

// ParseBranchFeatureID extracts the feature ID from a branch name.
// Returns the ID and true if the branch follows the gaffer naming
// convention, or "" and false if not.
func ParseBranchFeatureID(branch string) (string, bool) {
	matches := branchPattern.FindStringSubmatch(branch)
	if matches == nil {
		return "", false
	}
	return matches[1], true
}

// IsFeatureBranch reports whether branch follows the gaffer convention.
func IsFeatureBranch(branch string) bool {
	return strings.HasPrefix(branch, branchPrefix)
}

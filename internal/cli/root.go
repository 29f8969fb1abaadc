// Package cli provides the command-line interface for gaffer.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/app"
)

// Command group IDs.
const (
	groupSetup   = "setup"
	groupFeature = "feature"
	groupEngine  = "engine"
)

// NewRootCommand creates the root command for gaffer.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "gaffer",
		Short: "Autonomous AI coding agent orchestrator",
		Long: `gaffer runs AI coding agents against a feature backlog.

Each feature executes in its own git worktree with its own conversation
transcript, so agents work in parallel without stepping on each other
or on your checkout. Auto mode drains the backlog continuously up to a
concurrency ceiling; single runs, resumes and follow-ups are always
available alongside it.

Typical flow:
  gaffer init
  gaffer import backlog.yaml
  gaffer auto
  gaffer list
  gaffer merge <id>`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip for commands that run before a config can exist
			if cmd.Name() == "init" {
				return nil
			}
			// Skip if container is nil (e.g. in tests)
			if c == nil {
				return nil
			}
			for _, w := range c.Config.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
	}

	// Define command groups
	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupFeature, Title: "Backlog Management:"},
		&cobra.Group{ID: groupEngine, Title: "Execution:"},
	)

	// Setup commands
	initCmd := newInitCommand(c)
	initCmd.GroupID = groupSetup

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	upgradeCmd := newUpgradeCommand(version)
	upgradeCmd.GroupID = groupSetup

	// Backlog management commands
	newCmd := newNewCommand(c)
	newCmd.GroupID = groupFeature

	importCmd := newImportCommand(c)
	importCmd.GroupID = groupFeature

	listCmd := newListCommand(c)
	listCmd.GroupID = groupFeature

	showCmd := newShowCommand(c)
	showCmd.GroupID = groupFeature

	rmCmd := newRmCommand(c)
	rmCmd.GroupID = groupFeature

	// Execution commands
	runCmd := newRunCommand(c)
	runCmd.GroupID = groupEngine

	resumeCmd := newResumeCommand(c)
	resumeCmd.GroupID = groupEngine

	followUpCmd := newFollowUpCommand(c)
	followUpCmd.GroupID = groupEngine

	stopCmd := newStopCommand(c)
	stopCmd.GroupID = groupEngine

	verifyCmd := newVerifyCommand(c)
	verifyCmd.GroupID = groupEngine

	commitCmd := newCommitCommand(c)
	commitCmd.GroupID = groupEngine

	revertCmd := newRevertCommand(c)
	revertCmd.GroupID = groupEngine

	mergeCmd := newMergeCommand(c)
	mergeCmd.GroupID = groupEngine

	autoCmd := newAutoCommand(c)
	autoCmd.GroupID = groupEngine

	statusCmd := newStatusCommand(c)
	statusCmd.GroupID = groupEngine

	serveCmd := newServeCommand(c)
	serveCmd.GroupID = groupEngine

	logsCmd := newLogsCommand(c)
	logsCmd.GroupID = groupEngine

	root.AddCommand(
		initCmd,
		configCmd,
		upgradeCmd,
		newCmd,
		importCmd,
		listCmd,
		showCmd,
		rmCmd,
		runCmd,
		resumeCmd,
		followUpCmd,
		stopCmd,
		verifyCmd,
		commitCmd,
		revertCmd,
		mergeCmd,
		autoCmd,
		statusCmd,
		serveCmd,
		logsCmd,
	)

	return root
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/app"
	"github.com/voidlock/gaffer/internal/usecase"
)

// newCommitCommand creates the commit command for snapshotting feature work.
func newCommitCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Message string
	}

	cmd := &cobra.Command{
		Use:   "commit <id>",
		Short: "Commit a feature's uncommitted changes",
		Long: `Commit everything uncommitted in the feature's worktree.

The commit message defaults to the feature title. The feature status
is not changed; this only snapshots the work.

Examples:
  # Commit with the feature title as message
  gaffer commit csv-export

  # Commit with an explicit message
  gaffer commit csv-export -m "Add separator handling"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.CommitFeatureUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.CommitFeatureInput{
				ProjectPath: c.Paths.ProjectRoot,
				FeatureID:   args[0],
				Message:     opts.Message,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Committed %s in %s\n", out.Hash, out.WorkDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "Commit message (default: feature title)")

	return cmd
}

// newRevertCommand creates the revert command for discarding feature work.
func newRevertCommand(c *app.Container) *cobra.Command {
	var opts struct {
		KeepBranch  bool
		KeepContext bool
	}

	cmd := &cobra.Command{
		Use:   "revert <id>",
		Short: "Discard a feature's work",
		Long: `Throw away a feature's work and return it to the backlog.

The worktree and branch are removed, the transcript is deleted unless
--keep-context is given, and the feature goes back to status
'backlog' with a clean slate. Running features must be stopped first.

Examples:
  # Full reset
  gaffer revert csv-export

  # Keep the branch for inspection
  gaffer revert csv-export --keep-branch

  # Keep the transcript so the next run sees the history
  gaffer revert csv-export --keep-context`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.RevertFeatureUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.RevertFeatureInput{
				ProjectPath: c.Paths.ProjectRoot,
				FeatureID:   args[0],
				KeepBranch:  opts.KeepBranch,
				KeepContext: opts.KeepContext,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Reverted feature %s to backlog\n", out.Feature.ID)
			if out.RemovedBranch != "" {
				_, _ = fmt.Fprintf(w, "Removed branch %s\n", out.RemovedBranch)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.KeepBranch, "keep-branch", false, "Keep the feature branch")
	cmd.Flags().BoolVar(&opts.KeepContext, "keep-context", false, "Keep the accumulated transcript")

	return cmd
}

// newMergeCommand creates the merge command for landing finished work.
func newMergeCommand(c *app.Container) *cobra.Command {
	var opts struct {
		NoFF         bool
		Cleanup      bool
		DeleteBranch bool
	}

	cmd := &cobra.Command{
		Use:   "merge <id>",
		Short: "Merge a feature branch into its base",
		Long: `Merge a finished feature's branch back into the branch it was cut
from.

The feature must be waiting for approval or verified. A conflicting
merge is aborted and leaves the worktree, branch and status untouched
so the conflict can be resolved with a follow-up.

Flag defaults come from the [merge] config section.

Examples:
  # Merge with config defaults
  gaffer merge csv-export

  # Always create a merge commit and clean up after
  gaffer merge csv-export --no-ff --cleanup --delete-branch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Unset flags fall back to the [merge] config defaults.
			if !cmd.Flags().Changed("no-ff") {
				opts.NoFF = c.Config.Merge.NoFF
			}
			if !cmd.Flags().Changed("cleanup") {
				opts.Cleanup = c.Config.Merge.Cleanup
			}
			if !cmd.Flags().Changed("delete-branch") {
				opts.DeleteBranch = c.Config.Merge.DeleteBranch
			}

			uc := c.MergeFeatureUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.MergeFeatureInput{
				ProjectPath:  c.Paths.ProjectRoot,
				FeatureID:    args[0],
				NoFF:         opts.NoFF,
				Cleanup:      opts.Cleanup,
				DeleteBranch: opts.DeleteBranch,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Merged %s into %s (%s)\n",
				out.Result.MergedBranch, out.Result.IntoBranch, out.Result.Commit)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.NoFF, "no-ff", false, "Always create a merge commit")
	cmd.Flags().BoolVar(&opts.Cleanup, "cleanup", false, "Remove the worktree after merging")
	cmd.Flags().BoolVar(&opts.DeleteBranch, "delete-branch", false, "Delete the feature branch after merging")

	return cmd
}

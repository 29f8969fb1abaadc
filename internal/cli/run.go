package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/app"
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/usecase"
)

// newRunCommand creates the run command for launching a single feature.
func newRunCommand(c *app.Container) *cobra.Command {
	var opts struct {
		NoWorktree bool
	}

	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Run a feature now",
		Long: `Launch an agent for one feature immediately.

The run bypasses the auto-mode concurrency ceiling but never the
one-agent-per-feature rule. By default the agent works in an isolated
worktree on its own branch; --no-worktree runs it directly in the
project root.

Examples:
  # Run in an isolated worktree
  gaffer run csv-export

  # Run in the project root
  gaffer run csv-export --no-worktree`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.RunFeatureUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.RunFeatureInput{
				ProjectPath: c.Paths.ProjectRoot,
				FeatureID:   args[0],
				NoWorktree:  opts.NoWorktree,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Started feature %s: %s\n", out.Feature.ID, out.Feature.Title())
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.NoWorktree, "no-worktree", false, "Run in the project root instead of a worktree")

	return cmd
}

// newResumeCommand creates the resume command for continuing an interrupted run.
func newResumeCommand(c *app.Container) *cobra.Command {
	var opts struct {
		NoWorktree bool
	}

	cmd := &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume an interrupted feature",
		Long: `Continue a feature whose previous run ended without completing.

The agent sees its own previous transcript and picks up where it left
off. A resumed run that ends early again is resubmitted automatically,
up to the configured retry limit.

Examples:
  # Resume after a crash or stop
  gaffer resume csv-export`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.ResumeFeatureUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ResumeFeatureInput{
				ProjectPath: c.Paths.ProjectRoot,
				FeatureID:   args[0],
				NoWorktree:  opts.NoWorktree,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Resumed feature %s: %s\n", out.Feature.ID, out.Feature.Title())
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.NoWorktree, "no-worktree", false, "Run in the project root instead of a worktree")

	return cmd
}

// newFollowUpCommand creates the follow-up command for steering a feature.
func newFollowUpCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Images     []string
		NoWorktree bool
	}

	cmd := &cobra.Command{
		Use:   "follow-up <id> <instructions>",
		Short: "Send follow-up instructions to a feature",
		Long: `Start a follow-up session for a feature with new instructions.

The agent sees the full previous transcript plus your instructions, so
it continues the same conversation instead of starting over. Useful
for review feedback and course corrections.

Examples:
  # Ask for a change after reviewing
  gaffer follow-up csv-export "Use semicolons as separators for EU locales"

  # Attach a screenshot
  gaffer follow-up csv-export "Match this layout" --image mock.png`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			images := make([]domain.ImageAttachment, 0, len(opts.Images))
			for _, path := range opts.Images {
				images = append(images, domain.ImageAttachment{Path: path})
			}

			uc := c.FollowUpFeatureUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.FollowUpFeatureInput{
				ProjectPath:  c.Paths.ProjectRoot,
				FeatureID:    args[0],
				Instructions: args[1],
				Images:       images,
				NoWorktree:   opts.NoWorktree,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Follow-up started for feature %s\n", out.Feature.ID)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&opts.Images, "image", nil, "Image attachment path (can specify multiple)")
	cmd.Flags().BoolVar(&opts.NoWorktree, "no-worktree", false, "Run in the project root instead of a worktree")

	return cmd
}

// newStopCommand creates the stop command for cancelling a running feature.
func newStopCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a running feature",
		Long: `Request cancellation of a feature's running agent.

The stop is cooperative: the agent observes it at its next suspension
point and the transcript keeps everything produced so far. The
feature's status is left as-is so the run can be resumed later.

Examples:
  # Stop a runaway agent
  gaffer stop csv-export`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.StopFeatureUseCase()
			_, err := uc.Execute(cmd.Context(), usecase.StopFeatureInput{
				FeatureID: args[0],
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stop requested for feature %s\n", args[0])
			return nil
		},
	}

	return cmd
}

// newVerifyCommand creates the verify command for closing the verification loop.
func newVerifyCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Summary string
	}

	cmd := &cobra.Command{
		Use:   "verify <id>",
		Short: "Mark a feature as verified",
		Long: `Record that a feature's work has been verified.

Agents run this mid-execution after their checks pass; humans run it
to approve work waiting for review. Features created with --skip-tests
route to waiting_approval instead, so they always get a human look.

Examples:
  # Approve reviewed work
  gaffer verify csv-export

  # Verify with a note
  gaffer verify csv-export --summary "All report tests green"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.VerifyFeatureUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.VerifyFeatureInput{
				FeatureID: args[0],
				Summary:   opts.Summary,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Feature %s is now %s\n", out.Feature.ID, out.Feature.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Summary, "summary", "", "Verification summary")

	return cmd
}

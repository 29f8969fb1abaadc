package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/app"
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/usecase"
)

// newNewCommand creates the new command for adding a single feature.
func newNewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		ID        string
		Category  string
		Spec      string
		Model     string
		Provider  string
		Thinking  string
		Steps     []string
		Images    []string
		Priority  int
		SkipTests bool
	}

	cmd := &cobra.Command{
		Use:   "new <description>",
		Short: "Create a backlog feature",
		Long: `Create a single feature on the backlog.

The feature is created with status 'backlog'. Nothing executes until
'gaffer run <id>' or until auto mode picks it up.

The first line of the description doubles as the feature title in
listings.

Examples:
  # Minimal feature
  gaffer new "Add CSV export to the report page"

  # Feature with an explicit ID and spec
  gaffer new "Add CSV export" --id csv-export --spec "$(cat spec.md)"

  # High-priority feature with implementation steps
  gaffer new "Fix login timeout" --priority 10 \
    --step "Reproduce with an expired token" \
    --step "Extend the refresh window"

  # Pin a model and thinking level
  gaffer new "Refactor billing" --model claude-sonnet-4-5 --thinking high`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images := make([]domain.ImageAttachment, 0, len(opts.Images))
			for _, path := range opts.Images {
				images = append(images, domain.ImageAttachment{Path: path})
			}

			uc := c.NewFeatureUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.NewFeatureInput{
				ID:          opts.ID,
				Category:    opts.Category,
				Description: args[0],
				Spec:        opts.Spec,
				Model:       opts.Model,
				Provider:    opts.Provider,
				Thinking:    opts.Thinking,
				Steps:       opts.Steps,
				Images:      images,
				Priority:    opts.Priority,
				SkipTests:   opts.SkipTests,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created feature %s\n", out.Feature.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "Explicit feature ID (generated when omitted)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Feature category")
	cmd.Flags().StringVar(&opts.Spec, "spec", "", "Detailed specification text")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model override (default: providers.default_model)")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "Provider override (default: derived from model)")
	cmd.Flags().StringVar(&opts.Thinking, "thinking", "", "Thinking level: off, medium, high")
	cmd.Flags().StringArrayVar(&opts.Steps, "step", nil, "Implementation step (can specify multiple)")
	cmd.Flags().StringArrayVar(&opts.Images, "image", nil, "Image attachment path (can specify multiple)")
	cmd.Flags().IntVar(&opts.Priority, "priority", 0, "Scheduling priority (higher runs first)")
	cmd.Flags().BoolVar(&opts.SkipTests, "skip-tests", false, "Tell the agent not to run the test suite")

	return cmd
}

// newImportCommand creates the import command for bulk backlog loading.
func newImportCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import features from a YAML backlog",
		Long: `Create features in bulk from a YAML backlog file.

Entries without an ID get a generated one. Entries whose ID already
exists are skipped, never overwritten, so re-importing an updated
backlog only adds the new features.

Examples:
  # Import a backlog file
  gaffer import backlog.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.ImportBacklogUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ImportBacklogInput{
				Path: args[0],
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, f := range out.Features {
				_, _ = fmt.Fprintf(w, "Imported %s: %s\n", f.ID, f.Title())
			}
			for _, id := range out.Skipped {
				_, _ = fmt.Fprintf(w, "Skipped %s (already exists)\n", id)
			}
			_, _ = fmt.Fprintf(w, "\nImported %d feature(s), skipped %d\n", len(out.Features), len(out.Skipped))
			return nil
		},
	}

	return cmd
}

// newListCommand creates the list command for backlog inspection.
func newListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Status   string
		Category string
	}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List features",
		Long: `Display the backlog ordered the way the scheduler drains it:
priority descending, creation time ascending.

Output format is tab-separated with columns:
  ID, STATUS, PRI, MODEL, TITLE

STATUS shows elapsed time for running features.

Examples:
  # List all features
  gaffer list

  # Only waiting for review
  gaffer list --status waiting_approval

  # Only one category
  gaffer list --category backend`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.ListFeaturesUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ListFeaturesInput{
				Status:   domain.Status(opts.Status),
				Category: opts.Category,
			})
			if err != nil {
				return err
			}

			printFeatureList(cmd.OutOrStdout(), out.Features, c.Clock)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (backlog, in_progress, waiting_approval, verified)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Filter by category")

	return cmd
}

// printFeatureList prints features in TSV format.
func printFeatureList(w io.Writer, features []usecase.FeatureWithState, clock domain.Clock) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tPRI\tMODEL\tTITLE")

	for _, item := range features {
		f := item.Feature

		modelStr := "-"
		if f.Model != "" {
			modelStr = f.Model
		}

		statusStr := string(f.Status)
		if item.IsRunning && f.StartedAt != nil {
			elapsed := clock.Now().Sub(*f.StartedAt)
			statusStr = fmt.Sprintf("%s (%s)", f.Status, formatDuration(elapsed))
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			f.ID,
			statusStr,
			f.Priority,
			modelStr,
			f.Title(),
		)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

// newShowCommand creates the show command for inspecting one feature.
func newShowCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Transcript bool
		Tail       int
	}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Display feature details",
		Long: `Display detailed information about a feature.

Output includes the description, status, execution hints, worktree
binding, branch commits not yet merged, and optionally the agent
transcript.

Examples:
  # Show feature details
  gaffer show csv-export

  # Include the full transcript
  gaffer show csv-export --transcript

  # Include the last 50 transcript lines
  gaffer show csv-export --tail 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tail := 0
			if opts.Tail > 0 {
				tail = opts.Tail
			} else if opts.Transcript {
				tail = -1
			}

			uc := c.ShowFeatureUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ShowFeatureInput{
				ProjectPath:    c.Paths.ProjectRoot,
				FeatureID:      args[0],
				TranscriptTail: tail,
			})
			if err != nil {
				return err
			}

			printFeatureDetails(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Transcript, "transcript", false, "Include the full agent transcript")
	cmd.Flags().IntVar(&opts.Tail, "tail", 0, "Include the last n transcript lines")

	return cmd
}

// printFeatureDetails prints feature details in a formatted output.
func printFeatureDetails(w io.Writer, out *usecase.ShowFeatureOutput) {
	f := out.Feature

	_, _ = fmt.Fprintf(w, "# %s: %s\n\n", f.ID, f.Title())

	if f.Description != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", f.Description)
	}

	statusStr := string(f.Status)
	if out.IsRunning {
		statusStr += " (running)"
	}
	_, _ = fmt.Fprintf(w, "Status: %s\n", statusStr)

	if f.Category != "" {
		_, _ = fmt.Fprintf(w, "Category: %s\n", f.Category)
	}
	_, _ = fmt.Fprintf(w, "Priority: %d\n", f.Priority)
	if f.Model != "" {
		_, _ = fmt.Fprintf(w, "Model: %s\n", f.Model)
	}
	if f.Provider != "" {
		_, _ = fmt.Fprintf(w, "Provider: %s\n", f.Provider)
	}
	if f.Thinking != "" {
		_, _ = fmt.Fprintf(w, "Thinking: %s\n", f.Thinking)
	}
	if f.SkipTests {
		_, _ = fmt.Fprintln(w, "SkipTests: true")
	}

	if f.HasWorktree() {
		_, _ = fmt.Fprintf(w, "Worktree: %s\n", f.WorktreePath)
		_, _ = fmt.Fprintf(w, "Branch: %s (base: %s)\n", f.BranchName, f.BaseBranch)
	}

	_, _ = fmt.Fprintf(w, "Created: %s\n", f.CreatedAt.Format(time.RFC3339))
	if f.StartedAt != nil {
		_, _ = fmt.Fprintf(w, "Started: %s\n", f.StartedAt.Format(time.RFC3339))
	}

	if f.Summary != "" {
		_, _ = fmt.Fprintf(w, "\nSummary:\n%s\n", indent(f.Summary))
	}
	if f.Error != "" {
		_, _ = fmt.Fprintf(w, "\nError:\n%s\n", indent(f.Error))
	}

	if len(out.Commits) > 0 {
		_, _ = fmt.Fprintln(w, "\nCommits:")
		for _, commit := range out.Commits {
			_, _ = fmt.Fprintf(w, "  %s\n", commit)
		}
	}

	if out.Transcript != "" {
		_, _ = fmt.Fprintf(w, "\nTranscript:\n%s\n", out.Transcript)
	}
}

// indent prefixes every line with two spaces.
func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

// newRmCommand creates the rm command for deleting features.
func newRmCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Worktree bool
	}

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a feature",
		Long: `Delete a feature and its context directory.

The feature's transcript and metadata are removed. With --worktree the
feature's worktree and branch are removed as well. Running features
must be stopped first.

Examples:
  # Delete a feature, keep its worktree
  gaffer rm csv-export

  # Delete everything including the worktree
  gaffer rm csv-export --worktree`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.DeleteFeatureUseCase()
			_, err := uc.Execute(cmd.Context(), usecase.DeleteFeatureInput{
				ProjectPath:    c.Paths.ProjectRoot,
				FeatureID:      args[0],
				RemoveWorktree: opts.Worktree,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted feature %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Worktree, "worktree", false, "Also remove the feature's worktree and branch")

	return cmd
}

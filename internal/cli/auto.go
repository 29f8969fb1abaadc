package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/app"
	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/usecase"
)

// newAutoCommand creates the auto command for running the scheduler loop.
func newAutoCommand(c *app.Container) *cobra.Command {
	var opts struct {
		MaxConcurrency int
	}

	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Drain the backlog automatically",
		Long: `Run the auto-mode loop in the foreground.

The scheduler launches pending features by priority up to the
concurrency ceiling and keeps going until interrupted. Ctrl-C stops
the loop, asks running agents to wind down, and waits for them before
exiting. Interrupted work can be resumed with 'gaffer resume'.

Examples:
  # Drain with the configured ceiling
  gaffer auto

  # Limit to one agent at a time
  gaffer auto --max-concurrency 1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			startUC := c.StartAutoUseCase()
			out, err := startUC.Execute(ctx, usecase.StartAutoInput{
				ProjectPath:    c.Paths.ProjectRoot,
				MaxConcurrency: opts.MaxConcurrency,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Auto mode started (max concurrency %d). Press Ctrl-C to stop.\n", out.MaxConcurrency)

			<-ctx.Done()

			stopUC := c.StopAutoUseCase()
			stopOut, err := stopUC.Execute(cmd.Context(), usecase.StopAutoInput{})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w, "\nAuto mode stopped.")

			if stopOut.StillRunning > 0 {
				_, _ = fmt.Fprintf(w, "Stopping %d running agent(s)...\n", stopOut.StillRunning)
				drainRunning(c, w)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.MaxConcurrency, "max-concurrency", 0, "Concurrent agent ceiling (default: auto.max_concurrency)")

	return cmd
}

// drainRunning cancels in-flight executions and waits for them to
// finish, bounded so a wedged agent cannot hold the process hostage.
func drainRunning(c *app.Container, w io.Writer) {
	for _, info := range c.Scheduler.Running() {
		_ = c.Scheduler.StopFeature(info.FeatureID)
	}

	deadline := time.Now().Add(30 * time.Second)
	for c.Scheduler.RunningCount() > 0 {
		if time.Now().After(deadline) {
			_, _ = fmt.Fprintf(w, "Gave up waiting on %d agent(s); their work is in the transcripts.\n", c.Scheduler.RunningCount())
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// newStatusCommand creates the status command for engine inspection.
func newStatusCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show engine status",
		Long: `Show whether auto mode is running, the backlog status counts, and
the in-flight agents.

Examples:
  gaffer status`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statusUC := c.GetStatusUseCase()
			out, err := statusUC.Execute(cmd.Context(), usecase.GetStatusInput{})
			if err != nil {
				return err
			}

			agentsUC := c.GetRunningAgentsUseCase()
			agents, err := agentsUC.Execute(cmd.Context(), usecase.GetRunningAgentsInput{})
			if err != nil {
				return err
			}

			printEngineStatus(cmd.OutOrStdout(), out, agents.Agents)
			return nil
		},
	}

	return cmd
}

// printEngineStatus prints the engine state summary.
func printEngineStatus(w io.Writer, out *usecase.GetStatusOutput, agents []usecase.RunningAgent) {
	autoStr := "stopped"
	if out.AutoRunning {
		autoStr = "running"
	}
	_, _ = fmt.Fprintf(w, "Auto mode: %s\n\n", autoStr)

	_, _ = fmt.Fprintln(w, "Backlog:")
	for _, status := range []domain.Status{
		domain.StatusBacklog,
		domain.StatusInProgress,
		domain.StatusWaitingApproval,
		domain.StatusVerified,
	} {
		_, _ = fmt.Fprintf(w, "  %-17s %d\n", status, out.StatusCounts[status])
	}

	if len(agents) == 0 {
		return
	}

	_, _ = fmt.Fprintln(w, "\nRunning agents:")
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "  ID\tELAPSED\tMODE\tWORKDIR\tTITLE")
	for _, agent := range agents {
		mode := "manual"
		if agent.Execution.IsAutoMode {
			mode = "auto"
		}
		workDir := agent.Execution.WorktreePath
		if workDir == "" {
			workDir = agent.Execution.ProjectPath
		}
		title := "-"
		if agent.Feature != nil {
			title = agent.Feature.Title()
		}
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			agent.Execution.FeatureID,
			formatDuration(time.Since(agent.Execution.StartedAt)),
			mode,
			workDir,
			title,
		)
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/app"
	"github.com/voidlock/gaffer/internal/usecase"
)

// newLogsCommand creates the logs command for reading engine and feature logs.
func newLogsCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Transcript bool
		Tail       int
	}

	cmd := &cobra.Command{
		Use:   "logs [id]",
		Short: "Show engine or feature logs",
		Long: `Print the engine log, a feature's log, or a feature's transcript.

Without an ID the global engine log is shown. With an ID the
feature-scoped log is shown; add --transcript for the agent
conversation instead.

Examples:
  # Engine log
  gaffer logs

  # One feature's log
  gaffer logs csv-export

  # The agent transcript, last 100 lines
  gaffer logs csv-export --transcript --tail 100`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			featureID := ""
			if len(args) > 0 {
				featureID = args[0]
			}

			uc := c.ShowLogsUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ShowLogsInput{
				ProjectPath: c.Paths.ProjectRoot,
				FeatureID:   featureID,
				Transcript:  opts.Transcript,
				Tail:        opts.Tail,
			})
			if err != nil {
				return err
			}

			if out.Content == "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No entries in %s\n", out.Path)
				return nil
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), out.Content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Transcript, "transcript", false, "Show the agent transcript (requires an ID)")
	cmd.Flags().IntVar(&opts.Tail, "tail", 0, "Show only the last n lines")

	return cmd
}

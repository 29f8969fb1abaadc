package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/app"
	"github.com/voidlock/gaffer/internal/usecase"
)

// newInitCommand creates the init command for scaffolding the .gaffer directory.
func newInitCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize gaffer in the current repository",
		Long: `Create the .gaffer directory scaffold in the repository root.

This creates the context and log directories and appends the gaffer
working directories to .gitignore. Running it again is harmless.

Examples:
  # Initialize the current repository
  gaffer init`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.InitRepoUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.InitRepoInput{
				ProjectPath: c.Paths.ProjectRoot,
			})
			if err != nil {
				return err
			}

			if out.AlreadyInitialized {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Already initialized: %s\n", out.GafferDir)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Initialized gaffer in %s\n", out.GafferDir)
			}
			return nil
		},
	}

	return cmd
}

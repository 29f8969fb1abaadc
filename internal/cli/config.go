package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/app"
	"github.com/voidlock/gaffer/internal/usecase"
)

// newConfigCommand creates the config command with init and show subcommands.
func newConfigCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gaffer configuration",
		Long: `Manage the gaffer configuration files.

Configuration is read from two TOML files, repo values overriding
global ones:
  <repo>/.gaffer/config.toml   repository config
  ~/.config/gaffer/config.toml global config`,
	}

	cmd.AddCommand(newConfigInitCommand(c))
	cmd.AddCommand(newConfigShowCommand(c))

	return cmd
}

// newConfigInitCommand creates the config init subcommand.
func newConfigInitCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Global bool
		Force  bool
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a commented config file",
		Long: `Write the commented configuration template.

By default the repository config is written; use --global for the
per-user file. Existing files are not overwritten unless --force is
given.

Examples:
  # Create .gaffer/config.toml
  gaffer config init

  # Create the global config
  gaffer config init --global

  # Overwrite an existing file
  gaffer config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.InitConfigUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.InitConfigInput{
				Global: opts.Global,
				Force:  opts.Force,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", out.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Global, "global", false, "Write the global config instead of the repo config")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing config file")

	return cmd
}

// newConfigShowCommand creates the config show subcommand.
func newConfigShowCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Effective bool
	}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the configuration",
		Long: `Display the configuration files and where they were loaded from.

With --effective, the merged configuration is rendered as TOML after
applying defaults and the global/repo precedence.

Examples:
  # Show the config files
  gaffer config show

  # Show the merged effective config
  gaffer config show --effective`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.ShowConfigUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ShowConfigInput{
				Effective: opts.Effective,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, warning := range out.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warning)
			}

			if opts.Effective {
				_, _ = fmt.Fprint(w, out.Effective)
				return nil
			}

			printConfigFile(w, "Global config", out.Global)
			printConfigFile(w, "Repo config", out.Repo)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Effective, "effective", false, "Render the merged effective config")

	return cmd
}

// printConfigFile prints one config file section with its path.
func printConfigFile(w io.Writer, label string, file usecase.ConfigFile) {
	if !file.Exists {
		_, _ = fmt.Fprintf(w, "# %s: %s (missing)\n", label, file.Path)
		return
	}
	_, _ = fmt.Fprintf(w, "# %s: %s\n%s\n", label, file.Path, file.Content)
}

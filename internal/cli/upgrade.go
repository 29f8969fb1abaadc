package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/update"
)

// newUpgradeCommand creates the upgrade command for self-updating the binary.
func newUpgradeCommand(version string) *cobra.Command {
	var opts struct {
		Check bool
	}

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade gaffer to the latest release",
		Long: `Replace the running binary with the latest GitHub release.

With --check the latest version is only reported, nothing is
installed. Dev builds never self-update.

Examples:
  # Check for a newer release
  gaffer upgrade --check

  # Install the latest release
  gaffer upgrade`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			if opts.Check {
				release, newer, err := update.Check(cmd.Context(), version)
				if err != nil {
					return err
				}
				if release == nil {
					_, _ = fmt.Fprintln(w, "No releases available for this build.")
					return nil
				}
				if !newer {
					_, _ = fmt.Fprintf(w, "Already up to date (%s).\n", version)
					return nil
				}
				_, _ = fmt.Fprintf(w, "New version available: %s (current %s)\n", release.Version, version)
				return nil
			}

			release, err := update.Apply(cmd.Context(), version)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "Upgraded to %s\n", release.Version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "Only check for a newer release")

	return cmd
}

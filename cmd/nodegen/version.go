package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/nodegen/internal/cli"
	"github.com/pthm/nodegen/internal/update"
	"github.com/pthm/nodegen/internal/version"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Example: `  # Print the version
  nodegen version

  # Also check GitHub for a newer release
  nodegen version --check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(w, version.Info())
		if !versionCheck {
			return nil
		}

		info, err := update.NewChecker().CheckWithCache(cmd.Context(), version.Short())
		if err != nil {
			return cli.GeneralError("checking for updates", err)
		}
		if info.UpdateAvailable {
			_, _ = fmt.Fprintf(w, "A newer version is available: v%s", info.LatestVersion)
			if info.ReleaseURL != "" {
				_, _ = fmt.Fprintf(w, " (%s)", info.ReleaseURL)
			}
			_, _ = fmt.Fprintln(w)
		} else {
			_, _ = fmt.Fprintln(w, "nodegen is up to date")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}

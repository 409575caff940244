package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pact-im/pact-cli/internal/update"
)

// version is set at build time via -ldflags "-X github.com/pact-im/pact-cli/internal/cmd.version=..."
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if isJSON(cmd) {
				payload := map[string]any{"version": version}
				if result := update.CheckForUpdate(cmd.Context(), version); result != nil && result.UpdateAvailable {
					payload["latest_version"] = result.LatestVersion
					payload["update_url"] = result.UpdateURL
				}
				return printJSON(cmd, payload)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pact version %s\n", version)

			// Update check never blocks exit; failures are silent.
			if result := update.CheckForUpdate(cmd.Context(), version); result != nil && result.UpdateAvailable {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\nA newer version is available: %s (current: %s)\n", result.LatestVersion, result.CurrentVersion)
				if result.UpdateURL != "" {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Download: %s\n", result.UpdateURL)
				}
			}
			return nil
		}),
	}
}

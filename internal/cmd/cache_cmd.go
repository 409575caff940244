package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pact-im/pact-cli/internal/cache"
)

// resolveCacheDir returns the cache directory, honoring PACT_CACHE_DIR.
func resolveCacheDir() string {
	if dir := strings.TrimSpace(os.Getenv("PACT_CACHE_DIR")); dir != "" {
		return dir
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return os.TempDir()
	}
	return dir
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local response cache",
		Long:  "Inspect and clear the local cache used to speed up list commands.",
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())

	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached responses",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir := resolveCacheDir()
			cache.ClearAll(dir)

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"cleared": true, "path": dir})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", dir)
			return nil
		}),
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir := resolveCacheDir()
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"path": dir})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		}),
	}
}

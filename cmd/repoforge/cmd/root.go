package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath string
	cacheDir   string
	noCache    bool
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "repoforge",
	Short: "Converge a self-hosted Arch package repository",
	Long: `repoforge keeps a self-hosted Arch package repository in sync with its
package definitions. It builds packages whose declared version is ahead of
the published one, mirrors still-current artifacts, regenerates the
repository database, uploads everything and then deletes provably orphaned
remote files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("repoforge %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "repoforge.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "artifact cache directory (default ~/.cache/repoforge)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return 1
	}
	return 0
}

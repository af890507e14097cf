package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/repoforge/internal/cache"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show repoforge configuration and cache details",
	Long: `Displays the repoforge version, configuration and report paths, and the
artifact cache location and size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("repoforge %s\n", version)
		fmt.Printf("  config:      %s\n", configPath)
		fmt.Printf("  run report:  %s\n", reportPath())

		if noCache {
			fmt.Printf("  cache:       disabled\n")
			return nil
		}

		dir := cacheDir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		c, err := cache.New(dir)
		if err != nil {
			return err
		}
		size, err := c.Size()
		if err != nil {
			return err
		}
		fmt.Printf("  cache dir:   %s\n", c.Path())
		fmt.Printf("  cache size:  %s\n", humanSize(size))
		return nil
	},
}

func humanSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

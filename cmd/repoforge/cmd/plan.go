package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a run would build and skip",
	Long: `Extracts declared versions, lists the remote store and prints the
per-package decision without building, uploading or deleting anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		client, err := newClient(&log)
		if err != nil {
			return err
		}

		packages, err := client.Plan(cmd.Context())
		if err != nil {
			return err
		}

		if len(packages) == 0 {
			info("No packages configured.")
			return nil
		}

		fmt.Printf("%-24s %-14s %-14s %-14s %s\n", "PACKAGE", "LOCAL", "REMOTE", "TARGET", "DECISION")
		for _, p := range packages {
			fmt.Printf("%-24s %-14s %-14s %-14s %s\n",
				p.Name,
				verString(p.LocalVersion),
				verString(p.RemoteVersion),
				verString(p.TargetVersion),
				p.Decision)
			for _, w := range p.Warnings {
				detail("%s: %s", p.Name, w)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}

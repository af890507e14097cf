package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bianoble/repoforge/internal/report"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the outcome of the last run",
	Long: `Reads the run report written by the last 'run' invocation and prints the
per-package outcomes and reconciliation result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := reportPath()
		r, err := report.Load(path)
		if errors.Is(err, os.ErrNotExist) {
			info("No run report found at %s — run 'repoforge run' first.", path)
			return nil
		}
		if err != nil {
			return err
		}

		info("Last run: %s (%s, repo %s)", r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Duration, r.Repo)
		info("")
		fmt.Printf("%-24s %-10s %-14s %s\n", "PACKAGE", "OUTCOME", "TARGET", "NOTES")
		for _, p := range r.Packages {
			notes := p.Error
			if notes == "" && len(p.Warnings) > 0 {
				notes = p.Warnings[0]
			}
			fmt.Printf("%-24s %-10s %-14s %s\n", p.Name, p.Outcome, p.Target, notes)
		}

		if r.Reconcile != nil {
			info("")
			if r.Reconcile.Valve != "" {
				info("Reconciliation blocked by safety valve: %s", r.Reconcile.Valve)
			} else {
				info("Reconciliation: %d deleted, %d failed.", len(r.Reconcile.Deleted), len(r.Reconcile.Failed))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

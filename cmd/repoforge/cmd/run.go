package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bianoble/repoforge/internal/config"
	"github.com/bianoble/repoforge/internal/engine"
	"github.com/bianoble/repoforge/internal/report"
	"github.com/bianoble/repoforge/pkg/repoforge"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build, publish and reconcile the repository",
	Long: `Runs the full convergence pipeline: extracts declared versions, lists the
remote store, builds packages that are ahead, mirrors still-current
artifacts, regenerates the repository database, uploads the result and
deletes provably orphaned remote files.

Exit codes: 0 success, 1 build or database failure, 2 configuration error,
3 transport failure, 4 one or more packages failed (run completed).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()

		// Fail fast on configuration problems before anything runs.
		cfg, err := config.Load(configPath)
		if err != nil {
			return &exitError{code: engine.ExitConfigError, err: err}
		}

		client, err := newClient(&log)
		if err != nil {
			return err
		}

		started := time.Now()
		summary, runErr := client.Run(cmd.Context())
		code := repoforge.ExitCode(summary, runErr)

		if summary != nil {
			printSummary(summary)
			path := reportPath()
			if err := report.Save(path, report.FromSummary(cfg.Repo.Name, started, summary)); err != nil {
				errorf("writing run report: %s", err)
			} else {
				detail("report written to %s", path)
			}
		}

		if runErr != nil {
			return &exitError{code: code, err: runErr}
		}
		if code != 0 {
			_, _, failed := summary.Counts()
			return &exitError{code: code, err: fmt.Errorf("%d package(s) failed", failed)}
		}
		return nil
	},
}

func printSummary(summary *repoforge.RunSummary) {
	for _, p := range summary.Packages {
		switch p.Outcome {
		case repoforge.OutcomeBuilt:
			info("  built    %s %s", p.Name, p.Target)
		case repoforge.OutcomeSkipped:
			detail("skipped  %s %s", p.Name, p.Target)
		case repoforge.OutcomeFailed:
			errorf("%s: %s", p.Name, p.Err)
		}
		for _, w := range p.Warnings {
			info("  warning  %s: %s", p.Name, w)
		}
	}

	if summary.Upload != nil && summary.Upload.OK {
		info("uploaded %d file(s) in %d attempt(s)", len(summary.Upload.Transferred), summary.Upload.Attempts)
	}
	if r := summary.Reconcile; r != nil {
		if r.Valve != "" {
			info("reconciliation blocked by safety valve: %s", r.Valve)
		} else {
			info("deleted %d orphaned remote file(s)", len(r.Deleted))
			for _, f := range r.Failed {
				errorf("deleting %s failed", f)
			}
		}
	}

	built, skipped, failed := summary.Counts()
	info("")
	info("Run complete: %d built, %d skipped, %d failed.", built, skipped, failed)
}

func init() {
	rootCmd.AddCommand(runCmd)
}

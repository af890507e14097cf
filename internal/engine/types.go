package engine

import (
	"time"

	"github.com/bianoble/repoforge/internal/version"
)

// Decision is the planner's verdict for one package.
type Decision string

const (
	// DecisionBuild: the local declared version must be built and
	// published.
	DecisionBuild Decision = "build"
	// DecisionSkip: the remote already carries the target version.
	// Skip never means "leave remote untouched" — all other versions
	// of the package are still purged by the reconciler.
	DecisionSkip Decision = "skip"
)

// Package is one tracked package's state for the duration of a run. It
// is constructed from the configuration, mutated only by the planner
// (decision, target) and the build step (produced version check), and
// never persisted between runs except through the remote store itself.
type Package struct {
	Name         string
	Provenance   string // "aur" or "local"
	Dir          string
	ExtraDepends []string
	BuildTimeout time.Duration

	// LocalVersion is the version declared by the build descriptor;
	// nil when the descriptor is missing or malformed.
	LocalVersion *version.Version

	// RemoteVersion is the newest published version; nil when the
	// package has never been published.
	RemoteVersion *version.Version

	// TargetVersion is the single source of truth for what must exist
	// remotely after the run. Set by the planner.
	TargetVersion *version.Version

	Decision Decision
	Warnings []string
}

// Outcome is a package's final state in the run summary.
type Outcome string

const (
	OutcomeBuilt   Outcome = "built"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// PackageResult is one package's line in the run summary.
type PackageResult struct {
	Name     string
	Outcome  Outcome
	Target   string // target version, empty if none could be determined
	Warnings []string
	Err      error
}

// MirrorResult reports what the local mirror phase did.
type MirrorResult struct {
	Fetched   []string
	FromCache []string
	Failures  []MirrorFailure
}

// MirrorFailure is a per-file mirror failure. The affected package
// cannot appear in the regenerated database.
type MirrorFailure struct {
	Package  string
	Filename string
	Err      error
}

// UploadResult is the upload phase outcome. The reconciler is gated
// strictly on OK.
type UploadResult struct {
	OK          bool
	Transferred []string
	Attempts    int
}

// ReconcileResult reports the zero-residue reconciliation. When a safety
// valve blocked the phase, Valve names it and no deletion was issued.
type ReconcileResult struct {
	Orphans []string
	Deleted []string
	Failed  []string
	Valve   string
}

// RunSummary aggregates the whole run for reporting.
type RunSummary struct {
	Packages  []PackageResult
	Mirror    *MirrorResult
	Database  string
	Upload    *UploadResult
	Reconcile *ReconcileResult
}

// Counts returns the built/skipped/failed tallies.
func (s *RunSummary) Counts() (built, skipped, failed int) {
	for _, p := range s.Packages {
		switch p.Outcome {
		case OutcomeBuilt:
			built++
		case OutcomeSkipped:
			skipped++
		case OutcomeFailed:
			failed++
		}
	}
	return
}

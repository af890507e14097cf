package repoforge

import "github.com/bianoble/repoforge/internal/engine"

// Type aliases re-export engine result types as the public API.
// Users import "github.com/bianoble/repoforge/pkg/repoforge" and use
// repoforge.RunSummary, repoforge.PackageResult, etc.

type Decision = engine.Decision
type Outcome = engine.Outcome
type Package = engine.Package
type PackageResult = engine.PackageResult
type MirrorResult = engine.MirrorResult
type MirrorFailure = engine.MirrorFailure
type UploadResult = engine.UploadResult
type ReconcileResult = engine.ReconcileResult
type RunSummary = engine.RunSummary
type RunError = engine.RunError

const (
	DecisionBuild = engine.DecisionBuild
	DecisionSkip  = engine.DecisionSkip

	OutcomeBuilt   = engine.OutcomeBuilt
	OutcomeSkipped = engine.OutcomeSkipped
	OutcomeFailed  = engine.OutcomeFailed
)

// ExitCode maps a run outcome to the conventional process exit code.
func ExitCode(summary *RunSummary, err error) int {
	return engine.ExitCode(summary, err)
}

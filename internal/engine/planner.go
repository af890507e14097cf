package engine

import (
	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/remote"
)

// Plan decides Build or Skip for every package and records its target
// version. Packages are evaluated independently; the decision depends
// only on (localVersion, remoteVersion), so planning is deterministic
// and order-insensitive.
//
// The target version is what drives zero-residue cleanup later: the
// mirror retains only target-version artifacts, so everything else a
// package ever published becomes an orphan for the reconciler.
func Plan(packages []*Package, idx *remote.Index, log zerolog.Logger) {
	for _, pkg := range packages {
		pkg.RemoteVersion = idx.NewestVersion(pkg.Name)
		decide(pkg)

		evt := log.Info().
			Str("package", pkg.Name).
			Str("decision", string(pkg.Decision))
		if pkg.LocalVersion != nil {
			evt = evt.Stringer("local", pkg.LocalVersion)
		}
		if pkg.RemoteVersion != nil {
			evt = evt.Stringer("remote", pkg.RemoteVersion)
		}
		if pkg.TargetVersion != nil {
			evt = evt.Stringer("target", pkg.TargetVersion)
		}
		evt.Msg("planned")
	}
}

func decide(pkg *Package) {
	switch {
	case pkg.RemoteVersion == nil && pkg.LocalVersion == nil:
		// Never published and no parsable descriptor: nothing to
		// build, nothing to keep.
		pkg.Decision = DecisionSkip
		pkg.Warnings = append(pkg.Warnings, "no local version and no published version")

	case pkg.RemoteVersion == nil:
		pkg.Decision = DecisionBuild
		pkg.TargetVersion = pkg.LocalVersion

	case pkg.LocalVersion == nil:
		// Descriptor missing or malformed: nothing to improve on, the
		// published version stays the target.
		pkg.Decision = DecisionSkip
		pkg.TargetVersion = pkg.RemoteVersion

	case pkg.LocalVersion.Newer(pkg.RemoteVersion):
		pkg.Decision = DecisionBuild
		pkg.TargetVersion = pkg.LocalVersion

	default:
		pkg.Decision = DecisionSkip
		pkg.TargetVersion = pkg.RemoteVersion
	}
}

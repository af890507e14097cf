package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/build"
	"github.com/bianoble/repoforge/internal/cache"
	"github.com/bianoble/repoforge/internal/config"
	"github.com/bianoble/repoforge/internal/remote"
	"github.com/bianoble/repoforge/internal/repodb"
	"github.com/bianoble/repoforge/internal/sandbox"
	"github.com/bianoble/repoforge/internal/transport"
	"github.com/bianoble/repoforge/internal/version"
)

// Database is the database-generation collaborator, satisfied by
// *repodb.Generator.
type Database interface {
	Generate(ctx context.Context) (*repodb.Result, error)
}

// Pipeline runs the full sequence: version extraction, remote listing,
// planning, mirroring, building, database generation, upload and
// reconciliation. Phases are strictly sequential; each phase's output is
// a precondition for the next, and a fatal phase error short-circuits
// everything after it.
type Pipeline struct {
	Config    *config.Config
	BaseDir   string // directory package dirs are resolved against
	Transport transport.Transport
	Builder   build.Builder
	Database  Database
	AUR       *build.AUR   // optional, refreshes aur checkouts
	Cache     *cache.Cache // optional
	Log       zerolog.Logger
}

// Run executes the pipeline. The returned summary is always usable for
// reporting, even when err is non-nil; err carries the run-level failure
// category for exit-code mapping.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{}

	if err := os.MkdirAll(p.Config.OutputDir, 0755); err != nil {
		return summary, &RunError{Category: CategoryConfig, Err: fmt.Errorf("creating output directory: %w", err)}
	}

	opts := transport.Options{
		ConnectTimeout: p.Config.Remote.Timeout(),
		StrictHostKey:  true,
	}
	// Non-destructive operations retry with identical parameters as
	// often as the config allows; the upload additionally relaxes them.
	policy := transport.SinglePolicy(opts, p.Config.Remote.Retries)

	// Phase 0: refresh aur checkouts so version extraction sees the
	// current upstream descriptor. A refresh failure is a warning;
	// planning proceeds from whatever is on disk, and a package with no
	// descriptor at all simply holds at its published version.
	if p.AUR != nil {
		for _, def := range p.Config.Packages {
			if def.Source != "aur" {
				continue
			}
			if err := p.AUR.Ensure(ctx, def.Name, packageDir(def, p.BaseDir)); err != nil {
				p.Log.Warn().Str("package", def.Name).Err(err).Msg("refreshing upstream checkout failed")
			}
		}
	}

	// Phase 1: extract declared versions. A malformed descriptor skips
	// that package with a warning; it never aborts the run.
	packages := LoadPackages(p.Config, p.BaseDir, p.Log)

	// Phase 2: remote state. Without a listing no safe decision can be
	// made, so a failure here aborts.
	p.Log.Info().Str("host", p.Config.Remote.Host).Str("dir", p.Config.Remote.Dir).Msg("listing remote store")
	var files []transport.FileInfo
	_, err := policy.Do(ctx, p.Log, "list", func(o transport.Options) error {
		var listErr error
		files, listErr = p.Transport.List(ctx, p.Config.Remote.Dir, o)
		return listErr
	})
	if err != nil {
		return summary, &RunError{Category: CategoryTransport, Err: err}
	}
	idx := remote.BuildIndex(files, p.Config.Protected())

	// Phase 3: plan.
	Plan(packages, idx, p.Log)

	// Phase 4: mirror retained artifacts.
	mirror := &Mirror{
		Transport: p.Transport,
		Cache:     p.Cache,
		RemoteDir: p.Config.Remote.Dir,
		OutputDir: p.Config.OutputDir,
		Policy:    policy,
		Log:       p.Log,
	}
	summary.Mirror = mirror.Mirror(ctx, packages, idx)
	mirrorFailed := make(map[string]bool)
	for _, name := range summary.Mirror.FailedPackages() {
		mirrorFailed[name] = true
	}

	// Phase 5: build.
	results := p.buildAll(ctx, packages, mirrorFailed)
	summary.Packages = results

	// Phase 6: regenerate the database from the full local set. A
	// failure here is fatal: a partial database must never be uploaded.
	db, err := p.Database.Generate(ctx)
	if err != nil {
		return summary, &RunError{Category: CategoryDatabase, Err: err}
	}
	summary.Database = db.Database

	// Phase 7: upload. The single retry with relaxed parameters lives
	// in the policy; a failure aborts before any destructive action.
	uploader := &Uploader{
		Transport: p.Transport,
		LocalDir:  p.Config.OutputDir,
		RemoteDir: p.Config.Remote.Dir,
		Policy:    transport.PushPolicy(opts, p.Config.Remote.Retries),
		Log:       p.Log,
	}
	upload, uploadErr := uploader.Upload(ctx)
	summary.Upload = upload
	if uploadErr != nil {
		return summary, &RunError{Category: CategoryTransport, Err: uploadErr}
	}

	// Phase 8: zero-residue reconciliation, gated on the confirmed
	// upload. A triggered safety valve is logged but never degrades an
	// otherwise successful run. Packages that failed this run have no
	// local artifacts; their published versions are preserved so a
	// transient failure cannot erase a package from the remote store.
	var failedPackages []string
	for _, res := range results {
		if res.Outcome == OutcomeFailed {
			failedPackages = append(failedPackages, res.Name)
		}
	}
	reconciler := &Reconciler{
		Transport: p.Transport,
		RemoteDir: p.Config.Remote.Dir,
		OutputDir: p.Config.OutputDir,
		Protected: p.Config.Protected(),
		Policy:    policy,
		Log:       p.Log,
	}
	reconcile, err := reconciler.Reconcile(ctx, upload, failedPackages)
	if err != nil {
		return summary, &RunError{Category: CategoryTransport, Err: err}
	}
	summary.Reconcile = reconcile

	built, skipped, failed := summary.Counts()
	p.Log.Info().
		Int("built", built).
		Int("skipped", skipped).
		Int("failed", failed).
		Int("deleted", len(reconcile.Deleted)).
		Msg("run complete")
	return summary, nil
}

// LoadPackages constructs the per-run package states from the
// configuration, extracting each declared version from its descriptor.
// A malformed or missing descriptor leaves LocalVersion nil with a
// warning; the planner treats such packages as not locally versioned.
func LoadPackages(cfg *config.Config, baseDir string, log zerolog.Logger) []*Package {
	packages := make([]*Package, 0, len(cfg.Packages))
	for _, def := range cfg.Packages {
		pkg := &Package{
			Name:         def.Name,
			Provenance:   def.Source,
			Dir:          packageDir(def, baseDir),
			ExtraDepends: def.ExtraDepends,
			BuildTimeout: cfg.TimeoutFor(def),
		}

		desc, err := version.FromDir(pkg.Dir)
		if err != nil {
			pkg.Warnings = append(pkg.Warnings, fmt.Sprintf("descriptor: %v", err))
			log.Warn().Str("package", pkg.Name).Err(err).Msg("cannot extract declared version")
		} else {
			pkg.LocalVersion = desc.Version
		}
		packages = append(packages, pkg)
	}
	return packages
}

func packageDir(def config.PackageDef, baseDir string) string {
	dir := def.Dir
	if dir == "" {
		dir = def.Name
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(baseDir, dir)
}

// buildAll builds every planned package and assembles the per-package
// results. Failures are isolated: one package's failure never prevents
// another's build.
func (p *Pipeline) buildAll(ctx context.Context, packages []*Package, mirrorFailed map[string]bool) []PackageResult {
	results := make([]PackageResult, 0, len(packages))
	for _, pkg := range packages {
		res := PackageResult{Name: pkg.Name, Warnings: pkg.Warnings}
		if pkg.TargetVersion != nil {
			res.Target = pkg.TargetVersion.String()
		}

		switch {
		case pkg.Decision == DecisionSkip && mirrorFailed[pkg.Name]:
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("required artifacts could not be mirrored locally")

		case pkg.Decision == DecisionSkip:
			res.Outcome = OutcomeSkipped

		default:
			if err := p.buildOne(ctx, pkg, &res); err != nil {
				res.Outcome = OutcomeFailed
				res.Err = err
				p.Log.Error().Str("package", pkg.Name).Err(err).Msg("package failed")
			} else {
				res.Outcome = OutcomeBuilt
			}
		}
		results = append(results, res)
	}
	return results
}

func (p *Pipeline) buildOne(ctx context.Context, pkg *Package, res *PackageResult) error {
	p.Log.Info().Str("package", pkg.Name).Stringer("target", pkg.TargetVersion).Msg("building")

	out, err := p.Builder.Build(ctx, build.Request{
		Name:         pkg.Name,
		Provenance:   pkg.Provenance,
		Dir:          pkg.Dir,
		ExtraDepends: pkg.ExtraDepends,
		Timeout:      pkg.BuildTimeout,
	})
	if err != nil {
		return err
	}
	res.Warnings = append(res.Warnings, out.Warnings...)

	// The produced version must be the planned target, or the package
	// fails: publishing a version the plan did not commit to would
	// desynchronize the reconciler's view of what may survive.
	if out.Version == nil || out.Version.Compare(pkg.TargetVersion) != 0 {
		got := "unknown"
		if out.Version != nil {
			got = out.Version.String()
		}
		return fmt.Errorf("produced version %s does not match target %s", got, pkg.TargetVersion)
	}

	for _, artifact := range out.Artifacts {
		name := filepath.Base(artifact)
		if err := sandbox.CopyFile(p.Config.OutputDir, name, artifact); err != nil {
			return fmt.Errorf("collecting artifact %s: %w", name, err)
		}
		if p.Cache != nil {
			if err := p.Cache.Store(filepath.Join(p.Config.OutputDir, name)); err != nil {
				p.Log.Warn().Str("file", name).Err(err).Msg("caching built artifact failed")
			}
		}
	}
	return nil
}

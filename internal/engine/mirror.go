package engine

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/cache"
	"github.com/bianoble/repoforge/internal/remote"
	"github.com/bianoble/repoforge/internal/transport"
)

// Mirror fetches the remote artifacts that must survive this run —
// target-version files of packages that are not being rebuilt — into the
// local output directory, so the database can be regenerated from bytes
// that verifiably exist locally.
type Mirror struct {
	Transport transport.Transport
	Cache     *cache.Cache // optional
	RemoteDir string
	OutputDir string
	Policy    transport.RetryPolicy
	Log       zerolog.Logger
}

// Mirror brings every required artifact local. Failures are per-file: a
// package whose bytes cannot be made local cannot appear in the final
// database, but other packages proceed.
func (m *Mirror) Mirror(ctx context.Context, packages []*Package, idx *remote.Index) *MirrorResult {
	result := &MirrorResult{}

	for _, pkg := range packages {
		if pkg.Decision != DecisionSkip || pkg.TargetVersion == nil {
			continue
		}

		target := pkg.TargetVersion.String()
		for _, art := range idx.ByPackage(pkg.Name) {
			if art.Version != target {
				continue // non-target versions are left for the reconciler to purge
			}

			if m.Cache != nil {
				hit, err := m.Cache.Retrieve(art.Filename, art.Size, m.OutputDir)
				if err == nil && hit {
					result.FromCache = append(result.FromCache, art.Filename)
					m.Log.Debug().Str("file", art.Filename).Msg("mirrored from cache")
					continue
				}
			}

			_, err := m.Policy.Do(ctx, m.Log, "fetch", func(o transport.Options) error {
				return m.Transport.Fetch(ctx, m.RemoteDir, art.Filename, m.OutputDir, o)
			})
			if err != nil {
				result.Failures = append(result.Failures, MirrorFailure{
					Package:  pkg.Name,
					Filename: art.Filename,
					Err:      err,
				})
				m.Log.Error().Str("package", pkg.Name).Str("file", art.Filename).Err(err).Msg("mirror fetch failed")
				continue
			}
			result.Fetched = append(result.Fetched, art.Filename)

			if m.Cache != nil {
				if err := m.Cache.Store(filepath.Join(m.OutputDir, art.Filename)); err != nil {
					m.Log.Warn().Str("file", art.Filename).Err(err).Msg("caching mirrored artifact failed")
				}
			}
		}
	}

	return result
}

// FailedPackages returns the names of packages with at least one mirror
// failure.
func (r *MirrorResult) FailedPackages() []string {
	seen := make(map[string]bool)
	var names []string
	for _, f := range r.Failures {
		if !seen[f.Package] {
			seen[f.Package] = true
			names = append(names, f.Package)
		}
	}
	return names
}

package repodb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/remote"
	"github.com/bianoble/repoforge/internal/sandbox"
	"github.com/bianoble/repoforge/internal/sign"
	"github.com/bianoble/repoforge/internal/tools"
)

// BuildError is fatal for the run: an inconsistent or partial database
// must never be uploaded.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	msg := "database generation failed: " + e.Err.Error()
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }

// Generator regenerates the repository database from the full local
// artifact set. The binary database format is delegated to the external
// repo-add tool; signing to the signer collaborator.
type Generator struct {
	RepoName      string
	OutputDir     string
	SignKey       string
	SignArtifacts bool
	Runner        tools.CommandRunner
	Signer        sign.Signer
	Log           zerolog.Logger
}

// Result reports what the generation produced.
type Result struct {
	Database   string   // database filename, e.g. "myrepo.db.tar.gz"
	Indexed    []string // artifact filenames added to the database
	Signatures []string // signature filenames written
}

// Generate enumerates the local artifacts, clears stale database and
// database-signature files, invokes repo-add once over the full set and
// signs the result. Only files that verifiably exist locally are
// indexed.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	artifacts, err := g.enumerate()
	if err != nil {
		return nil, &BuildError{Err: err}
	}
	if len(artifacts) == 0 {
		return nil, &BuildError{Err: fmt.Errorf("no package artifacts in %s", g.OutputDir)}
	}

	if err := g.removeStaleDatabase(); err != nil {
		return nil, &BuildError{Err: err}
	}

	result := &Result{Database: g.RepoName + ".db.tar.gz", Indexed: artifacts}

	// Artifact signatures are written before repo-add so the database
	// records them.
	if g.SignArtifacts && g.SignKey != "" {
		for _, name := range artifacts {
			sig, err := g.Signer.Sign(ctx, filepath.Join(g.OutputDir, name), g.SignKey)
			if err != nil {
				return nil, &BuildError{Err: err}
			}
			result.Signatures = append(result.Signatures, filepath.Base(sig))
		}
	}

	// One repo-add invocation over the full set: package adds are
	// idempotent and newer versions supersede existing entries.
	args := append([]string{"--new", result.Database}, artifacts...)
	_, stderr, code, err := g.Runner.Run(ctx, g.OutputDir, "repo-add", args...)
	if err != nil {
		return nil, &BuildError{Err: err}
	}
	if code != 0 {
		return nil, &BuildError{
			Err:    fmt.Errorf("repo-add exit code %d", code),
			Output: strings.TrimSpace(string(stderr)),
		}
	}
	g.Log.Info().Int("artifacts", len(artifacts)).Str("database", result.Database).Msg("database regenerated")

	if g.SignKey != "" {
		sig, err := g.Signer.Sign(ctx, filepath.Join(g.OutputDir, result.Database), g.SignKey)
		if err != nil {
			return nil, &BuildError{Err: err}
		}
		result.Signatures = append(result.Signatures, filepath.Base(sig))
	}

	return result, nil
}

// enumerate returns the package artifact filenames present in the output
// directory, sorted.
func (g *Generator) enumerate() ([]string, error) {
	entries, err := os.ReadDir(g.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("reading output directory %s: %w", g.OutputDir, err)
	}

	var artifacts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if remote.IsPackageFile(e.Name()) {
			artifacts = append(artifacts, e.Name())
		}
	}
	sort.Strings(artifacts)
	return artifacts, nil
}

// removeStaleDatabase clears database, file-list and their signature
// files from previous runs so repo-add starts from a clean slate.
func (g *Generator) removeStaleDatabase() error {
	stale := []string{
		g.RepoName + ".db",
		g.RepoName + ".db.sig",
		g.RepoName + ".db.tar.gz",
		g.RepoName + ".db.tar.gz.sig",
		g.RepoName + ".db.tar.gz.old",
		g.RepoName + ".files",
		g.RepoName + ".files.sig",
		g.RepoName + ".files.tar.gz",
		g.RepoName + ".files.tar.gz.sig",
		g.RepoName + ".files.tar.gz.old",
	}
	for _, name := range stale {
		err := sandbox.Remove(g.OutputDir, name)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing stale %s: %w", name, err)
		}
	}
	return nil
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/repoforge/internal/build"
	"github.com/bianoble/repoforge/internal/config"
	"github.com/bianoble/repoforge/internal/repodb"
	"github.com/bianoble/repoforge/internal/transport"
	"github.com/bianoble/repoforge/internal/version"
)

// fakeBuilder produces one artifact per request, versioned from the
// package's descriptor.
type fakeBuilder struct {
	scratch string
	failFor map[string]error
	built   []string
}

func (b *fakeBuilder) Build(ctx context.Context, req build.Request) (*build.Result, error) {
	if err := b.failFor[req.Name]; err != nil {
		return nil, err
	}
	desc, err := version.FromDir(req.Dir)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s-%s-x86_64.pkg.tar.zst", req.Name, desc.Version)
	path := filepath.Join(b.scratch, name)
	if err := os.WriteFile(path, []byte("built:"+name), 0644); err != nil {
		return nil, err
	}
	b.built = append(b.built, req.Name)
	return &build.Result{Artifacts: []string{path}, Version: desc.Version}, nil
}

// fakeDatabase writes the database file into the output directory so the
// upload phase has something to push.
type fakeDatabase struct {
	outputDir string
	err       error
	calls     int
}

func (d *fakeDatabase) Generate(ctx context.Context) (*repodb.Result, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	name := "myrepo.db.tar.gz"
	if err := os.WriteFile(filepath.Join(d.outputDir, name), []byte("db"), 0644); err != nil {
		return nil, err
	}
	return &repodb.Result{Database: name}, nil
}

type pipelineFixture struct {
	pipe *Pipeline
	ft   *fakeTransport
	fb   *fakeBuilder
	db   *fakeDatabase
}

func newPipeline(t *testing.T, ft *fakeTransport, defs ...config.PackageDef) *pipelineFixture {
	t.Helper()
	base := t.TempDir()
	out := filepath.Join(base, "out")
	fb := &fakeBuilder{scratch: t.TempDir(), failFor: make(map[string]error)}
	db := &fakeDatabase{outputDir: out}

	cfg := &config.Config{
		Version:   1,
		Repo:      config.Repo{Name: "myrepo"},
		Remote:    config.Remote{Host: "mirror.example.net", Dir: "/srv/arch"},
		OutputDir: out,
		Packages:  defs,
	}
	return &pipelineFixture{
		pipe: &Pipeline{
			Config:    cfg,
			BaseDir:   base,
			Transport: ft,
			Builder:   fb,
			Database:  db,
			Log:       zerolog.Nop(),
		},
		ft: ft,
		fb: fb,
		db: db,
	}
}

func writeDescriptor(t *testing.T, fx *pipelineFixture, name, pkgver, pkgrel string) {
	t.Helper()
	dir := filepath.Join(fx.pipe.BaseDir, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := fmt.Sprintf("pkgname=%s\npkgver=%s\npkgrel=%s\n", name, pkgver, pkgrel)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PKGBUILD"), []byte(content), 0644))
}

func TestPipelineBuildAndSupersede(t *testing.T) {
	ft := newFakeTransport("pkg-1.0-1-x86_64.pkg.tar.zst")
	fx := newPipeline(t, ft, config.PackageDef{Name: "pkg", Source: "local"})
	writeDescriptor(t, fx, "pkg", "1.1", "1")

	summary, err := fx.pipe.Run(context.Background())
	require.NoError(t, err)

	built, skipped, failed := summary.Counts()
	assert.Equal(t, []int{1, 0, 0}, []int{built, skipped, failed})
	assert.Equal(t, []string{"pkg"}, fx.fb.built)

	// The new artifact and database reached the remote; the superseded
	// version is gone.
	assert.Contains(t, ft.remote, "pkg-1.1-1-x86_64.pkg.tar.zst")
	assert.Contains(t, ft.remote, "myrepo.db.tar.gz")
	assert.NotContains(t, ft.remote, "pkg-1.0-1-x86_64.pkg.tar.zst")
	assert.Equal(t, []string{"pkg-1.0-1-x86_64.pkg.tar.zst"}, summary.Reconcile.Deleted)

	assert.Equal(t, ExitSuccess, ExitCode(summary, err))
}

func TestPipelineSkipIsIdempotent(t *testing.T) {
	ft := newFakeTransport("pkg-1.0-1-x86_64.pkg.tar.zst")
	fx := newPipeline(t, ft, config.PackageDef{Name: "pkg", Source: "aur"})
	writeDescriptor(t, fx, "pkg", "1.0", "1")

	for run := 1; run <= 2; run++ {
		summary, err := fx.pipe.Run(context.Background())
		require.NoError(t, err, "run %d", run)

		built, skipped, failed := summary.Counts()
		assert.Equal(t, []int{0, 1, 0}, []int{built, skipped, failed}, "run %d", run)
		assert.Empty(t, fx.fb.built, "run %d", run)
		assert.Empty(t, summary.Reconcile.Deleted, "run %d", run)
		assert.Contains(t, ft.remote, "pkg-1.0-1-x86_64.pkg.tar.zst")
	}
}

func TestPipelineListFailureAborts(t *testing.T) {
	ft := newFakeTransport()
	ft.listErr = &transport.Error{Op: "list", Err: errors.New("unreachable")}
	fx := newPipeline(t, ft, config.PackageDef{Name: "pkg", Source: "local"})
	writeDescriptor(t, fx, "pkg", "1.0", "1")

	summary, err := fx.pipe.Run(context.Background())
	require.Error(t, err)

	assert.Empty(t, fx.fb.built)
	assert.Zero(t, fx.db.calls)
	assert.Equal(t, ExitTransportError, ExitCode(summary, err))
}

func TestPipelineListRetriesPerConfig(t *testing.T) {
	ft := newFakeTransport("pkg-1.0-1-x86_64.pkg.tar.zst")
	ft.listFails = 1
	fx := newPipeline(t, ft, config.PackageDef{Name: "pkg", Source: "aur"})
	fx.pipe.Config.Remote.Retries = 1
	writeDescriptor(t, fx, "pkg", "1.0", "1")

	summary, err := fx.pipe.Run(context.Background())
	require.NoError(t, err)

	_, skipped, _ := summary.Counts()
	assert.Equal(t, 1, skipped)
	// Initial listing: one failed attempt plus the configured retry,
	// then the reconciler's fresh listing.
	assert.Equal(t, 3, ft.listCalls)
}

// recordingRunner satisfies tools.CommandRunner and succeeds silently.
type recordingRunner struct {
	calls [][]string
}

func (r *recordingRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, int, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil, nil, 0, nil
}

func TestPipelineRefreshesAURCheckouts(t *testing.T) {
	ft := newFakeTransport("pkg-1.0-1-x86_64.pkg.tar.zst")
	fx := newPipeline(t, ft,
		config.PackageDef{Name: "pkg", Source: "aur"},
		config.PackageDef{Name: "tool", Source: "local"},
	)
	writeDescriptor(t, fx, "pkg", "1.0", "1")
	writeDescriptor(t, fx, "tool", "1.0", "1")
	rr := &recordingRunner{}
	fx.pipe.AUR = &build.AUR{Runner: rr, Log: zerolog.Nop()}

	_, err := fx.pipe.Run(context.Background())
	require.NoError(t, err)

	// Only the aur package was refreshed; its dir carries no .git yet,
	// so the refresh is a clone.
	require.Len(t, rr.calls, 1)
	assert.Equal(t, "git", rr.calls[0][0])
	assert.Equal(t, "clone", rr.calls[0][1])
}

func TestPipelineDatabaseFailureFatal(t *testing.T) {
	ft := newFakeTransport()
	fx := newPipeline(t, ft, config.PackageDef{Name: "pkg", Source: "local"})
	writeDescriptor(t, fx, "pkg", "1.0", "1")
	fx.db.err = &repodb.BuildError{Err: errors.New("repo-add exit code 1")}

	summary, err := fx.pipe.Run(context.Background())
	require.Error(t, err)

	// Nothing was pushed and nothing was deleted.
	assert.Empty(t, ft.pushedOpts)
	assert.Empty(t, ft.deleted)
	assert.Nil(t, summary.Reconcile)
	assert.Equal(t, ExitBuildFailure, ExitCode(summary, err))
}

func TestPipelineUploadFailureBlocksReconcile(t *testing.T) {
	ft := newFakeTransport("orphan-0.9-1-x86_64.pkg.tar.zst")
	ft.pushErr = errors.New("host unreachable")
	fx := newPipeline(t, ft, config.PackageDef{Name: "pkg", Source: "local"})
	writeDescriptor(t, fx, "pkg", "1.0", "1")

	summary, err := fx.pipe.Run(context.Background())
	require.Error(t, err)

	assert.Empty(t, ft.deleted)
	assert.Contains(t, ft.remote, "orphan-0.9-1-x86_64.pkg.tar.zst")
	// Only the initial state listing was issued; the reconciler never ran.
	assert.Equal(t, 1, ft.listCalls)
	assert.Equal(t, ExitTransportError, ExitCode(summary, err))
}

func TestPipelineBuildFailureIsDegradedSuccess(t *testing.T) {
	ft := newFakeTransport()
	fx := newPipeline(t, ft,
		config.PackageDef{Name: "good", Source: "local"},
		config.PackageDef{Name: "bad", Source: "local"},
	)
	writeDescriptor(t, fx, "good", "1.0", "1")
	writeDescriptor(t, fx, "bad", "2.0", "1")
	fx.fb.failFor["bad"] = &build.Error{Kind: build.KindCompile, Package: "bad", Err: errors.New("gcc exit 1")}

	summary, err := fx.pipe.Run(context.Background())
	require.NoError(t, err)

	built, _, failed := summary.Counts()
	assert.Equal(t, 1, built)
	assert.Equal(t, 1, failed)
	assert.Contains(t, ft.remote, "good-1.0-1-x86_64.pkg.tar.zst")
	assert.NotContains(t, ft.remote, "bad-2.0-1-x86_64.pkg.tar.zst")

	assert.Equal(t, ExitPackageFailure, ExitCode(summary, err))
}

func TestPipelineBuildFailureKeepsPublishedVersion(t *testing.T) {
	ft := newFakeTransport(
		"pkg-1.0-1-x86_64.pkg.tar.zst",
		"other-1.0-1-x86_64.pkg.tar.zst",
	)
	fx := newPipeline(t, ft,
		config.PackageDef{Name: "pkg", Source: "local"},
		config.PackageDef{Name: "other", Source: "local"},
	)
	writeDescriptor(t, fx, "pkg", "1.1", "1")
	writeDescriptor(t, fx, "other", "1.0", "1")
	fx.fb.failFor["pkg"] = &build.Error{Kind: build.KindCompile, Package: "pkg", Err: errors.New("gcc exit 1")}

	summary, err := fx.pipe.Run(context.Background())
	require.NoError(t, err)

	// The old version was never mirrored (the plan was Build), so the
	// local set does not vouch for it — it must survive anyway, or a
	// transient compile error erases the package from the remote store.
	assert.Contains(t, ft.remote, "pkg-1.0-1-x86_64.pkg.tar.zst")
	assert.Empty(t, summary.Reconcile.Deleted)
	assert.Equal(t, ExitPackageFailure, ExitCode(summary, err))
}

func TestPipelineMirrorFailureFailsPackage(t *testing.T) {
	ft := newFakeTransport("pkg-1.0-1-x86_64.pkg.tar.zst")
	ft.fetchErr["pkg-1.0-1-x86_64.pkg.tar.zst"] = errors.New("timeout")
	fx := newPipeline(t, ft,
		config.PackageDef{Name: "pkg", Source: "aur"},
		config.PackageDef{Name: "fresh", Source: "local"},
	)
	writeDescriptor(t, fx, "pkg", "1.0", "1")
	writeDescriptor(t, fx, "fresh", "1.0", "1")

	summary, err := fx.pipe.Run(context.Background())
	require.NoError(t, err)

	var outcomes []Outcome
	for _, r := range summary.Packages {
		outcomes = append(outcomes, r.Outcome)
	}
	assert.Contains(t, outcomes, OutcomeFailed)
	assert.Contains(t, outcomes, OutcomeBuilt)
	assert.Equal(t, ExitPackageFailure, ExitCode(summary, err))

	// The unfetchable package's remote copy is not an orphan.
	assert.Contains(t, ft.remote, "pkg-1.0-1-x86_64.pkg.tar.zst")
}

package engine

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/repoforge/internal/config"
	"github.com/bianoble/repoforge/internal/remote"
	"github.com/bianoble/repoforge/internal/transport"
	"github.com/bianoble/repoforge/internal/version"
)

func v(t *testing.T, s string) *version.Version {
	t.Helper()
	parsed, err := version.Parse(s)
	require.NoError(t, err)
	return parsed
}

func indexOf(names ...string) *remote.Index {
	files := make([]transport.FileInfo, len(names))
	for i, n := range names {
		files[i] = transport.FileInfo{Name: n, Size: 1}
	}
	return remote.BuildIndex(files, config.DefaultProtectedExtensions)
}

func TestPlanNeverPublished(t *testing.T) {
	pkg := &Package{Name: "new", LocalVersion: v(t, "1.0-1")}
	Plan([]*Package{pkg}, indexOf(), zerolog.Nop())

	assert.Equal(t, DecisionBuild, pkg.Decision)
	assert.Equal(t, "1.0-1", pkg.TargetVersion.String())
}

func TestPlanRemoteNewerOrEqual(t *testing.T) {
	for _, local := range []string{"1.0-1", "0.9-1"} {
		pkg := &Package{Name: "pkg", LocalVersion: v(t, local)}
		Plan([]*Package{pkg}, indexOf("pkg-1.0-1-x86_64.pkg.tar.zst"), zerolog.Nop())

		assert.Equal(t, DecisionSkip, pkg.Decision, "local %s", local)
		assert.Equal(t, "1.0-1", pkg.TargetVersion.String())
	}
}

func TestPlanLocalNewer(t *testing.T) {
	pkg := &Package{Name: "pkg", LocalVersion: v(t, "1.1-1")}
	Plan([]*Package{pkg}, indexOf("pkg-1.0-1-x86_64.pkg.tar.zst"), zerolog.Nop())

	assert.Equal(t, DecisionBuild, pkg.Decision)
	assert.Equal(t, "1.1-1", pkg.TargetVersion.String())
	assert.Equal(t, "1.0-1", pkg.RemoteVersion.String())
}

func TestPlanMalformedLocalKeepsRemote(t *testing.T) {
	pkg := &Package{Name: "pkg"} // descriptor unparsable, LocalVersion nil
	Plan([]*Package{pkg}, indexOf("pkg-2.0-1-x86_64.pkg.tar.zst"), zerolog.Nop())

	assert.Equal(t, DecisionSkip, pkg.Decision)
	assert.Equal(t, "2.0-1", pkg.TargetVersion.String())
}

func TestPlanNothingAnywhere(t *testing.T) {
	pkg := &Package{Name: "pkg"}
	Plan([]*Package{pkg}, indexOf(), zerolog.Nop())

	assert.Equal(t, DecisionSkip, pkg.Decision)
	assert.Nil(t, pkg.TargetVersion)
	assert.NotEmpty(t, pkg.Warnings)
}

func TestPlanPicksNewestRemote(t *testing.T) {
	// Numeric comparison: remote 10-1 is newest, so local 9-1 is stale.
	pkg := &Package{Name: "pkg", LocalVersion: v(t, "9-1")}
	Plan([]*Package{pkg}, indexOf(
		"pkg-2-1-x86_64.pkg.tar.zst",
		"pkg-10-1-x86_64.pkg.tar.zst",
	), zerolog.Nop())

	assert.Equal(t, DecisionSkip, pkg.Decision)
	assert.Equal(t, "10-1", pkg.TargetVersion.String())
}

func TestPlanDeterministic(t *testing.T) {
	idx := indexOf("pkg-1.0-1-x86_64.pkg.tar.zst")
	for i := 0; i < 10; i++ {
		pkg := &Package{Name: "pkg", LocalVersion: v(t, "1.1-1")}
		Plan([]*Package{pkg}, idx, zerolog.Nop())
		assert.Equal(t, DecisionBuild, pkg.Decision)
		assert.Equal(t, "1.1-1", pkg.TargetVersion.String())
	}
}

func TestPlanPackagesIndependent(t *testing.T) {
	a := &Package{Name: "a", LocalVersion: v(t, "2.0-1")}
	b := &Package{Name: "b", LocalVersion: v(t, "1.0-1")}
	idx := indexOf(
		"a-1.0-1-x86_64.pkg.tar.zst",
		"b-1.0-1-x86_64.pkg.tar.zst",
	)

	Plan([]*Package{a, b}, idx, zerolog.Nop())
	decisionsForward := []Decision{a.Decision, b.Decision}

	a2 := &Package{Name: "a", LocalVersion: v(t, "2.0-1")}
	b2 := &Package{Name: "b", LocalVersion: v(t, "1.0-1")}
	Plan([]*Package{b2, a2}, idx, zerolog.Nop())

	assert.Equal(t, decisionsForward, []Decision{a2.Decision, b2.Decision})
}

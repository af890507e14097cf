package build

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/tools"
	"github.com/bianoble/repoforge/internal/version"
)

// Makepkg builds packages with the system makepkg. Extra dependencies
// are installed first with pacman; a failure there is a warning, not an
// abort — makepkg gets its own chance to resolve them.
type Makepkg struct {
	Runner tools.CommandRunner
	Log    zerolog.Logger
}

func (m *Makepkg) Build(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}

	if len(req.ExtraDepends) > 0 {
		args := append([]string{"-S", "--needed", "--noconfirm"}, req.ExtraDepends...)
		_, stderr, code, err := m.Runner.Run(ctx, req.Dir, "pacman", args...)
		if err != nil || code != 0 {
			warning := fmt.Sprintf("installing extra dependencies %v failed: %s", req.ExtraDepends, firstLine(stderr))
			result.Warnings = append(result.Warnings, warning)
			m.Log.Warn().Str("package", req.Name).Msg(warning)
		}
	}

	buildCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	_, stderr, code, err := m.Runner.Run(buildCtx, req.Dir, "makepkg", "--syncdeps", "--noconfirm", "--clean")
	if errors.Is(buildCtx.Err(), context.DeadlineExceeded) {
		return nil, &Error{Kind: KindTimeout, Package: req.Name, Err: fmt.Errorf("build exceeded %s", req.Timeout)}
	}
	if err != nil {
		return nil, &Error{Kind: KindCompile, Package: req.Name, Err: err}
	}
	if code != 0 {
		return nil, &Error{Kind: classify(stderr), Package: req.Name, Err: fmt.Errorf("makepkg exit code %d: %s", code, firstLine(stderr))}
	}

	// makepkg rewrites pkgver for VCS packages, so the descriptor is
	// re-read after the build to learn the produced version.
	desc, err := version.FromDir(req.Dir)
	if err != nil {
		return nil, &Error{Kind: KindCompile, Package: req.Name, Err: fmt.Errorf("reading produced version: %w", err)}
	}
	result.Version = desc.Version

	stdout, stderr, code, err := m.Runner.Run(ctx, req.Dir, "makepkg", "--packagelist")
	if err != nil {
		return nil, &Error{Kind: KindCompile, Package: req.Name, Err: err}
	}
	if code != 0 {
		return nil, &Error{Kind: KindCompile, Package: req.Name, Err: fmt.Errorf("makepkg --packagelist exit code %d: %s", code, firstLine(stderr))}
	}

	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result.Artifacts = append(result.Artifacts, line)
		}
	}
	if len(result.Artifacts) == 0 {
		return nil, &Error{Kind: KindCompile, Package: req.Name, Err: errors.New("build produced no artifacts")}
	}

	return result, nil
}

func classify(stderr []byte) Kind {
	s := strings.ToLower(string(stderr))
	if strings.Contains(s, "could not resolve") ||
		strings.Contains(s, "unable to satisfy dependency") ||
		strings.Contains(s, "missing dependencies") ||
		strings.Contains(s, "target not found") {
		return KindDependency
	}
	return KindCompile
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return s
}

package build

import (
	"context"
	"fmt"
	"time"

	"github.com/bianoble/repoforge/internal/version"
)

// Kind categorizes a build failure.
type Kind string

const (
	// KindDependency: the build tool could not resolve or install a
	// dependency.
	KindDependency Kind = "dependency"
	// KindCompile: the build itself failed.
	KindCompile Kind = "compile"
	// KindTimeout: the build exceeded its per-package timeout.
	KindTimeout Kind = "timeout"
)

// Error is a categorized build failure for one package.
type Error struct {
	Kind    Kind
	Package string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("building %s: %s: %s", e.Package, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Request describes one package build.
type Request struct {
	Name         string
	Provenance   string // "aur" or "local"
	Dir          string
	ExtraDepends []string
	Timeout      time.Duration
}

// Result is a successful build: the produced artifact paths and the
// version the artifacts actually carry. Dependency pre-installation
// problems that did not stop the build surface as warnings.
type Result struct {
	Artifacts []string
	Version   *version.Version
	Warnings  []string
}

// Builder is the external build collaborator. Compilation itself is a
// black box; the engine only consumes artifact paths and the produced
// version.
type Builder interface {
	Build(ctx context.Context, req Request) (*Result, error)
}

package config

import "time"

// Config represents the repoforge.yaml configuration file. It is built
// once at startup, validated exhaustively before the first phase runs,
// and treated as immutable afterwards.
type Config struct {
	Version   int          `yaml:"version"`
	Repo      Repo         `yaml:"repo"`
	Remote    Remote       `yaml:"remote"`
	OutputDir string       `yaml:"output_dir"`
	Packages  []PackageDef `yaml:"packages"`

	// ProtectedExtensions lists filename suffixes that are never
	// eligible for remote deletion. Defaults cover the repository
	// database, file-list and signature files.
	ProtectedExtensions []string `yaml:"protected_extensions,omitempty"`
}

// Repo describes the package repository being maintained.
type Repo struct {
	Name          string `yaml:"name"`
	SignKey       string `yaml:"sign_key,omitempty"`
	SignArtifacts bool   `yaml:"sign_artifacts,omitempty"`
}

// Remote describes the host and directory the repository is served from.
type Remote struct {
	Host           string   `yaml:"host"`
	User           string   `yaml:"user,omitempty"`
	Dir            string   `yaml:"dir"`
	IdentityFile   string   `yaml:"identity_file,omitempty"`
	ConnectTimeout Duration `yaml:"connect_timeout,omitempty"`
	Retries        int      `yaml:"retries,omitempty"`
}

// PackageDef defines a single tracked package.
type PackageDef struct {
	Name string `yaml:"name"`

	// Source is the package provenance: "aur" or "local".
	Source string `yaml:"source"`

	// Dir is the directory holding the build descriptor. Defaults to
	// ./<name> relative to the config file.
	Dir string `yaml:"dir,omitempty"`

	// BuildTimeout overrides the default per-package build timeout.
	BuildTimeout Duration `yaml:"build_timeout,omitempty"`

	// ExtraDepends lists additional dependencies installed before the
	// build, for packages whose descriptors under-declare them.
	ExtraDepends []string `yaml:"extra_depends,omitempty"`
}

// DefaultProtectedExtensions is the built-in protected-extension set.
// Signature files are included wholesale: a stale signature is harmless,
// a deleted live one is not.
var DefaultProtectedExtensions = []string{
	".db",
	".db.tar.gz",
	".db.sig",
	".files",
	".files.tar.gz",
	".files.sig",
	".abs.tar.gz",
	".sig",
}

// DefaultBuildTimeout applies when a package has no override.
const DefaultBuildTimeout = 30 * time.Minute

// DefaultConnectTimeout applies when the remote has no override.
const DefaultConnectTimeout = 15 * time.Second

// Protected returns the effective protected-extension list.
func (c *Config) Protected() []string {
	if len(c.ProtectedExtensions) > 0 {
		return c.ProtectedExtensions
	}
	return DefaultProtectedExtensions
}

// TimeoutFor returns the effective build timeout for a package definition.
func (c *Config) TimeoutFor(p PackageDef) time.Duration {
	if p.BuildTimeout > 0 {
		return p.BuildTimeout.Std()
	}
	return DefaultBuildTimeout
}

// Timeout returns the effective transport connection timeout.
func (r Remote) Timeout() time.Duration {
	if r.ConnectTimeout > 0 {
		return r.ConnectTimeout.Std()
	}
	return DefaultConnectTimeout
}

// Package repoforge provides the public Go library API for repoforge.
//
// repoforge keeps a self-hosted Arch package repository converged: it
// builds packages whose declared version is ahead of the published one,
// mirrors still-current artifacts, regenerates the repository database,
// uploads the result and deletes provably orphaned remote files. This
// package exposes a client for embedding repoforge in other Go
// programs.
//
// # Basic Usage
//
//	client, err := repoforge.New(repoforge.Options{
//	    ConfigPath: "repoforge.yaml",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := client.Run(ctx)
//	os.Exit(repoforge.ExitCode(summary, err))
package repoforge

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/build"
	"github.com/bianoble/repoforge/internal/cache"
	"github.com/bianoble/repoforge/internal/config"
	"github.com/bianoble/repoforge/internal/engine"
	"github.com/bianoble/repoforge/internal/remote"
	"github.com/bianoble/repoforge/internal/repodb"
	"github.com/bianoble/repoforge/internal/sign"
	"github.com/bianoble/repoforge/internal/tools"
	"github.com/bianoble/repoforge/internal/transport"
)

// Options configures a repoforge client.
type Options struct {
	// ConfigPath is the path to the config file. Default: "repoforge.yaml".
	ConfigPath string

	// BaseDir is the directory package dirs are resolved against.
	// If empty, defaults to the directory containing ConfigPath.
	BaseDir string

	// CacheDir is the artifact cache directory. If empty, uses the
	// default (~/.cache/repoforge).
	CacheDir string

	// NoCache disables the artifact cache entirely.
	NoCache bool

	// Logger receives phase logs. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Client is the main entry point for the repoforge library.
type Client struct {
	configPath string
	baseDir    string
	cache      *cache.Cache
	log        zerolog.Logger
}

// New creates a new repoforge Client.
func New(opts Options) (*Client, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = "repoforge.yaml"
	}

	base := opts.BaseDir
	if base == "" {
		abs, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		base = filepath.Dir(abs)
	}

	var c *cache.Cache
	if !opts.NoCache {
		dir := opts.CacheDir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		var err error
		c, err = cache.New(dir)
		if err != nil {
			return nil, fmt.Errorf("initializing cache: %w", err)
		}
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Client{
		configPath: opts.ConfigPath,
		baseDir:    base,
		cache:      c,
		log:        log,
	}, nil
}

func (c *Client) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

func (c *Client) transport(cfg *config.Config) transport.Transport {
	return &transport.Rsync{
		Host:         cfg.Remote.Host,
		User:         cfg.Remote.User,
		IdentityFile: cfg.Remote.IdentityFile,
		Runner:       tools.ExecRunner{},
		Log:          c.log,
	}
}

// Run executes the full convergence pipeline and returns its summary.
// The summary is usable even when err is non-nil.
func (c *Client) Run(ctx context.Context) (*RunSummary, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, &RunError{Category: engine.CategoryConfig, Err: err}
	}

	runner := tools.ExecRunner{}
	pipe := &engine.Pipeline{
		Config:    cfg,
		BaseDir:   c.baseDir,
		Transport: c.transport(cfg),
		Builder:   &build.Makepkg{Runner: runner, Log: c.log},
		Database: &repodb.Generator{
			RepoName:      cfg.Repo.Name,
			OutputDir:     cfg.OutputDir,
			SignKey:       cfg.Repo.SignKey,
			SignArtifacts: cfg.Repo.SignArtifacts,
			Runner:        runner,
			Signer:        &sign.GPG{Runner: runner, Log: c.log},
			Log:           c.log,
		},
		AUR:   &build.AUR{Runner: runner, Log: c.log},
		Cache: c.cache,
		Log:   c.log,
	}
	return pipe.Run(ctx)
}

// Plan runs the non-destructive front half of the pipeline: version
// extraction, remote listing and planning. Nothing is built, fetched,
// uploaded or deleted.
func (c *Client) Plan(ctx context.Context) ([]*Package, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, &RunError{Category: engine.CategoryConfig, Err: err}
	}

	packages := engine.LoadPackages(cfg, c.baseDir, c.log)

	opts := transport.Options{ConnectTimeout: cfg.Remote.Timeout(), StrictHostKey: true}
	policy := transport.SinglePolicy(opts, cfg.Remote.Retries)

	tr := c.transport(cfg)
	var files []transport.FileInfo
	_, err = policy.Do(ctx, c.log, "list", func(o transport.Options) error {
		var listErr error
		files, listErr = tr.List(ctx, cfg.Remote.Dir, o)
		return listErr
	})
	if err != nil {
		return nil, &RunError{Category: engine.CategoryTransport, Err: err}
	}
	idx := remote.BuildIndex(files, cfg.Protected())

	engine.Plan(packages, idx, c.log)
	return packages, nil
}

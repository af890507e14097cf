package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/engine"
	"github.com/bianoble/repoforge/internal/logging"
	"github.com/bianoble/repoforge/internal/report"
	pkgversion "github.com/bianoble/repoforge/internal/version"
	"github.com/bianoble/repoforge/pkg/repoforge"
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// newClient builds a library client from the global flags.
func newClient(log *zerolog.Logger) (*repoforge.Client, error) {
	client, err := repoforge.New(repoforge.Options{
		ConfigPath: configPath,
		CacheDir:   cacheDir,
		NoCache:    noCache,
		Logger:     log,
	})
	if err != nil {
		return nil, &exitError{code: engine.ExitConfigError, err: err}
	}
	return client, nil
}

// newLogger builds the process logger from the global flags.
func newLogger() zerolog.Logger {
	return logging.New(verbose, quiet)
}

// reportPath returns where the run report is written: next to the
// config file.
func reportPath() string {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return report.Filename
	}
	return filepath.Join(filepath.Dir(abs), report.Filename)
}

// verString renders an optional version for table output.
func verString(v *pkgversion.Version) string {
	if v == nil {
		return "-"
	}
	return v.String()
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

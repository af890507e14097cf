package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// CommandRunner abstracts external process execution so collaborators
// (build tool, transport, signer, database tool) can be faked in tests.
type CommandRunner interface {
	// Run executes name with args in dir (empty dir means the current
	// directory) and returns captured stdout, stderr and the exit code.
	// A non-zero exit code is reported through the exit code, not err;
	// err covers start failures and context cancellation.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	// Context expiry takes precedence: the process was killed, its exit
	// code is noise.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.Bytes(), stderr.Bytes(), -1, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), nil
	}

	return stdout.Bytes(), stderr.Bytes(), -1, err
}

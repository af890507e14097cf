package sign

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/tools"
)

// Signer is the external signing collaborator: given a file and a key
// identifier it produces a detached signature file next to the input.
type Signer interface {
	Sign(ctx context.Context, filePath, keyID string) (sigPath string, err error)
}

// GPG signs with the system gpg binary.
type GPG struct {
	Runner tools.CommandRunner
	Log    zerolog.Logger
}

func (g *GPG) Sign(ctx context.Context, filePath, keyID string) (string, error) {
	sigPath := filePath + ".sig"
	args := []string{
		"--batch", "--yes",
		"--detach-sign",
		"--output", sigPath,
		"--local-user", keyID,
		filePath,
	}
	_, stderr, code, err := g.Runner.Run(ctx, "", "gpg", args...)
	if err != nil {
		return "", fmt.Errorf("signing %s: %w", filePath, err)
	}
	if code != 0 {
		return "", fmt.Errorf("signing %s: gpg exit code %d: %s", filePath, code, stderr)
	}
	g.Log.Debug().Str("file", filePath).Str("key", keyID).Msg("signed")
	return sigPath, nil
}

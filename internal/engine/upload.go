package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/transport"
)

// Uploader pushes the full local output directory — artifacts, database
// and signatures — to the remote store. The push itself never deletes
// anything remote-side; this is the last point before any destructive
// action is permitted.
type Uploader struct {
	Transport transport.Transport
	LocalDir  string
	RemoteDir string
	Policy    transport.RetryPolicy
	Log       zerolog.Logger
}

// Upload runs the push under the retry policy. The returned result's OK
// flag is the reconciler's Gate A: it is set only after a fully
// confirmed transfer.
func (u *Uploader) Upload(ctx context.Context) (*UploadResult, error) {
	var transferred []string
	attempts, err := u.Policy.Do(ctx, u.Log, "push", func(opts transport.Options) error {
		files, pushErr := u.Transport.Push(ctx, u.LocalDir, u.RemoteDir, opts)
		if pushErr != nil {
			return pushErr
		}
		transferred = files
		return nil
	})

	result := &UploadResult{Attempts: attempts}
	if err != nil {
		u.Log.Error().Int("attempts", attempts).Err(err).Msg("upload failed")
		return result, err
	}

	result.OK = true
	result.Transferred = transferred
	u.Log.Info().Int("attempts", attempts).Int("files", len(transferred)).Msg("upload complete")
	return result, nil
}

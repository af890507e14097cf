package transport

import (
	"context"
	"fmt"
	"time"
)

// FileInfo describes one remote file from a listing.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Options carries per-call transport parameters. Retries with different
// options are driven by an explicit RetryPolicy, never ad hoc.
type Options struct {
	ConnectTimeout time.Duration
	StrictHostKey  bool
}

// Transport moves bytes between the local output directory and the
// remote store. Push never deletes anything remote-side; deletion is a
// separate, explicit operation issued one file at a time.
type Transport interface {
	List(ctx context.Context, remoteDir string, opts Options) ([]FileInfo, error)
	Fetch(ctx context.Context, remoteDir, name, localDir string, opts Options) error
	Push(ctx context.Context, localDir, remoteDir string, opts Options) ([]string, error)
	Delete(ctx context.Context, remoteDir, name string, opts Options) error
}

// Error is a transport failure tied to a specific operation.
type Error struct {
	Op     string // "list", "fetch", "push", "delete"
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := "transport " + e.Op
	if e.Detail != "" {
		msg += " " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func opError(op, detail string, err error) *Error {
	return &Error{Op: op, Detail: detail, Err: err}
}

func exitError(op, detail string, code int, stderr []byte) *Error {
	return opError(op, detail, fmt.Errorf("exit code %d: %s", code, trimOutput(stderr)))
}

func trimOutput(out []byte) string {
	const max = 400
	s := string(out)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}

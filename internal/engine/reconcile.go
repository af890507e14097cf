package engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/remote"
	"github.com/bianoble/repoforge/internal/transport"
)

// Safety valve identifiers reported in ReconcileResult.Valve.
const (
	ValveUploadNotConfirmed = "upload-not-confirmed"
	ValveEmptyLocalSet      = "empty-local-set"
)

// Reconciler enforces the zero-residue policy: after a confirmed upload,
// every remote package artifact not present in the local output set is
// an orphan and is deleted. Two safety valves gate the phase; both are
// evaluated before any remote call is issued, and a triggered valve
// leaves the remote store untouched.
type Reconciler struct {
	Transport transport.Transport
	RemoteDir string
	OutputDir string
	Protected []string
	Policy    transport.RetryPolicy
	Log       zerolog.Logger
}

// Reconcile runs the terminal cleanup phase.
//
// The local output set is the only authority for what must survive
// remotely. An empty local set is never interpreted as "delete
// everything": that is Gate B. Gate A requires the upload to have been
// confirmed, so every file the local set implies already exists
// remotely before anything is removed.
//
// preserve names packages whose published artifacts must be kept
// regardless of the local set: a package that failed this run has
// nothing local, and deleting its remote files would turn a transient
// build error into data loss.
func (r *Reconciler) Reconcile(ctx context.Context, upload *UploadResult, preserve []string) (*ReconcileResult, error) {
	result := &ReconcileResult{}

	// Gate A: no confirmed upload, no deletion.
	if upload == nil || !upload.OK {
		result.Valve = ValveUploadNotConfirmed
		r.Log.Error().Str("valve", result.Valve).Msg("reconciliation blocked: upload not confirmed")
		return result, nil
	}

	localSet, err := r.localOutputSet()
	if err != nil {
		return nil, fmt.Errorf("reading local output set: %w", err)
	}

	// Gate B: an empty local set means something is badly wrong
	// upstream; deleting against it would erase the repository.
	if len(localSet) == 0 {
		result.Valve = ValveEmptyLocalSet
		r.Log.Error().Str("valve", result.Valve).Msg("reconciliation blocked: local output set is empty")
		return result, nil
	}

	// Both gates passed; only now is a remote call issued. The listing
	// is taken fresh so the orphan set reflects the store as it stands
	// after the upload.
	var files []transport.FileInfo
	_, err = r.Policy.Do(ctx, r.Log, "list", func(o transport.Options) error {
		var listErr error
		files, listErr = r.Transport.List(ctx, r.RemoteDir, o)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	idx := remote.BuildIndex(files, r.Protected)

	keep := make(map[string]bool, len(preserve))
	for _, name := range preserve {
		keep[name] = true
	}

	for _, filename := range idx.Filenames() {
		if localSet[filename] {
			continue
		}
		if r.isProtected(filename) {
			continue
		}
		if a, ok := idx.Lookup(filename); ok && keep[a.Name] {
			r.Log.Warn().Str("file", filename).Str("package", a.Name).Msg("keeping artifact of failed package")
			continue
		}
		result.Orphans = append(result.Orphans, filename)
	}

	// Deletions are single-attempt: a retried destructive call buys
	// little, and a failed deletion is already tolerated per file.
	deleteOpts := r.Policy.Base()
	for _, orphan := range result.Orphans {
		if err := r.Transport.Delete(ctx, r.RemoteDir, orphan, deleteOpts); err != nil {
			// One failed deletion does not stop the others; it is
			// recorded and reported.
			result.Failed = append(result.Failed, orphan)
			r.Log.Error().Str("file", orphan).Err(err).Msg("orphan deletion failed")
			continue
		}
		result.Deleted = append(result.Deleted, orphan)
		r.Log.Info().Str("file", orphan).Msg("deleted orphan")
	}

	return result, nil
}

// localOutputSet returns the filenames physically present in the local
// output directory.
func (r *Reconciler) localOutputSet() (map[string]bool, error) {
	entries, err := os.ReadDir(r.OutputDir)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			set[e.Name()] = true
		}
	}
	return set, nil
}

// isProtected double-checks the protected extensions even though the
// index already filters them: a protected file must never be deleted,
// whatever name heuristics say.
func (r *Reconciler) isProtected(name string) bool {
	for _, ext := range r.Protected {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

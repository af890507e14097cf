package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bianoble/repoforge/internal/sandbox"
)

// Cache stores previously mirrored package artifacts so unchanged
// published packages are not refetched on every run. Entries are keyed
// by artifact filename — package filenames embed the full version, so a
// filename identifies immutable content — and validated against the size
// reported by the remote listing.
type Cache struct {
	dir string
}

// New creates a Cache at the given directory.
// The directory is created if it does not exist.
func New(dir string) (*Cache, error) {
	artDir := filepath.Join(dir, "artifacts")
	if err := os.MkdirAll(artDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", artDir, err)
	}
	return &Cache{dir: dir}, nil
}

// DefaultDir returns the default cache directory.
// Uses XDG_CACHE_HOME if set, otherwise ~/.cache/repoforge.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "repoforge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return filepath.Join(os.TempDir(), "repoforge-cache")
		}
		return filepath.Join("/tmp", "repoforge-cache")
	}
	return filepath.Join(home, ".cache", "repoforge")
}

// Has reports whether an artifact with the given name and size is
// cached. A size mismatch means a truncated or superseded entry; it is
// removed so the caller falls back to a fresh fetch.
func (c *Cache) Has(name string, size int64) bool {
	path := c.entryPath(name)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.Size() != size {
		_ = os.Remove(path)
		return false
	}
	return true
}

// Retrieve copies a cached artifact into destDir. Returns false if the
// artifact is not cached (or failed size validation). The copy goes
// through the sandbox so a hostile entry name cannot land outside
// destDir.
func (c *Cache) Retrieve(name string, size int64, destDir string) (bool, error) {
	if !c.Has(name, size) {
		return false, nil
	}

	if err := sandbox.CopyFile(destDir, name, c.entryPath(name)); err != nil {
		return false, fmt.Errorf("copying cache entry %s: %w", name, err)
	}
	return true, nil
}

// Store copies an artifact file into the cache. No-op if an entry with
// the same name and size already exists.
func (c *Cache) Store(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	name := filepath.Base(path)
	if c.Has(name, info.Size()) {
		return nil
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	dir := filepath.Join(c.dir, "artifacts")
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache temp file: %w", err)
	}

	if err := os.Rename(tmpPath, c.entryPath(name)); err != nil {
		return fmt.Errorf("renaming cache temp file: %w", err)
	}

	success = true
	return nil
}

// Size returns the total size of the cache in bytes.
func (c *Cache) Size() (int64, error) {
	var total int64
	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Path returns the cache directory path.
func (c *Cache) Path() string {
	return c.dir
}

func (c *Cache) entryPath(name string) string {
	return filepath.Join(c.dir, "artifacts", name)
}

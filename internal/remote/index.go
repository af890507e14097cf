package remote

import (
	"sort"
	"strings"
	"time"

	"github.com/bianoble/repoforge/internal/transport"
	"github.com/bianoble/repoforge/internal/version"
)

// Artifact is one remote package file with identity inferred from its
// filename.
type Artifact struct {
	Filename string
	Name     string
	Version  string // "[epoch:]pkgver-pkgrel"
	Arch     string
	Size     int64
	ModTime  time.Time
}

// Index is the remote store's current state: package artifacts with
// inferred identity, plus the metadata files (database, file lists,
// signatures) that are never deletion candidates.
type Index struct {
	artifacts map[string]Artifact
	byName    map[string][]string
	metadata  []string
}

// packageSuffixes are the artifact extensions makepkg produces.
var packageSuffixes = []string{
	".pkg.tar.zst",
	".pkg.tar.xz",
	".pkg.tar.gz",
	".pkg.tar.bz2",
	".pkg.tar",
}

// BuildIndex classifies a transport listing. Files matching a protected
// extension, and any file that is not a well-formed package artifact,
// are recorded as metadata and excluded from package-identity inference.
func BuildIndex(files []transport.FileInfo, protected []string) *Index {
	idx := &Index{
		artifacts: make(map[string]Artifact),
		byName:    make(map[string][]string),
	}

	for _, f := range files {
		if isProtected(f.Name, protected) {
			idx.metadata = append(idx.metadata, f.Name)
			continue
		}
		name, ver, arch, ok := ParseFilename(f.Name)
		if !ok {
			idx.metadata = append(idx.metadata, f.Name)
			continue
		}
		idx.artifacts[f.Name] = Artifact{
			Filename: f.Name,
			Name:     name,
			Version:  ver,
			Arch:     arch,
			Size:     f.Size,
			ModTime:  f.ModTime,
		}
		idx.byName[name] = append(idx.byName[name], f.Name)
	}

	for _, filenames := range idx.byName {
		sort.Strings(filenames)
	}
	sort.Strings(idx.metadata)
	return idx
}

func isProtected(name string, protected []string) bool {
	for _, ext := range protected {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// IsPackageFile reports whether a filename carries a package artifact
// extension.
func IsPackageFile(name string) bool {
	for _, suffix := range packageSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// ParseFilename splits "name-[epoch:]pkgver-pkgrel-arch.pkg.tar.zst"
// into its identity parts. The package name may itself contain hyphens;
// version and release never do.
func ParseFilename(filename string) (name, ver, arch string, ok bool) {
	var stem string
	for _, suffix := range packageSuffixes {
		if strings.HasSuffix(filename, suffix) {
			stem = strings.TrimSuffix(filename, suffix)
			break
		}
	}
	if stem == "" {
		return "", "", "", false
	}

	parts := strings.Split(stem, "-")
	if len(parts) < 4 {
		return "", "", "", false
	}

	arch = parts[len(parts)-1]
	pkgrel := parts[len(parts)-2]
	pkgver := parts[len(parts)-3]
	name = strings.Join(parts[:len(parts)-3], "-")
	if name == "" || pkgver == "" || pkgrel == "" || arch == "" {
		return "", "", "", false
	}
	return name, pkgver + "-" + pkgrel, arch, true
}

// Filenames returns all package artifact filenames, sorted.
func (idx *Index) Filenames() []string {
	names := make([]string, 0, len(idx.artifacts))
	for f := range idx.artifacts {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// Metadata returns the non-artifact filenames, sorted.
func (idx *Index) Metadata() []string {
	return append([]string(nil), idx.metadata...)
}

// Artifacts returns all package artifacts sorted by filename.
func (idx *Index) Artifacts() []Artifact {
	out := make([]Artifact, 0, len(idx.artifacts))
	for _, f := range idx.Filenames() {
		out = append(out, idx.artifacts[f])
	}
	return out
}

// ByPackage returns the artifacts published for a package name, sorted
// by filename.
func (idx *Index) ByPackage(name string) []Artifact {
	var out []Artifact
	for _, f := range idx.byName[name] {
		out = append(out, idx.artifacts[f])
	}
	return out
}

// Lookup returns the artifact for a filename.
func (idx *Index) Lookup(filename string) (Artifact, bool) {
	a, ok := idx.artifacts[filename]
	return a, ok
}

// NewestVersion returns the highest published version for a package, or
// nil if the package has never been published or no artifact version
// parses.
func (idx *Index) NewestVersion(name string) *version.Version {
	var newest *version.Version
	for _, a := range idx.ByPackage(name) {
		v, err := version.Parse(a.Version)
		if err != nil {
			continue
		}
		if newest == nil || v.Newer(newest) {
			newest = v
		}
	}
	return newest
}

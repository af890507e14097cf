package version

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Descriptor holds the version-relevant metadata extracted from a package
// build descriptor (PKGBUILD or generated .SRCINFO).
type Descriptor struct {
	Name    string
	Version *Version
}

// FromDir extracts the declared version from the build descriptor inside
// dir. A .SRCINFO file takes precedence over the PKGBUILD because its
// values are already evaluated.
func FromDir(dir string) (*Descriptor, error) {
	for _, name := range []string{".SRCINFO", "PKGBUILD"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
		}
		return ParseDescriptor(string(data))
	}
	return nil, &MalformedError{Input: dir, Reason: "no PKGBUILD or .SRCINFO found"}
}

// ParseDescriptor extracts (epoch, pkgver, pkgrel) and the package name
// from a descriptor metadata block. Both shell-style assignments
// ("pkgver=1.2.3") and .SRCINFO-style pairs ("pkgver = 1.2.3") are
// accepted. Values computed at build time (containing "$" or backticks)
// cannot be resolved and yield a MalformedError.
func ParseDescriptor(content string) (*Descriptor, error) {
	fields := make(map[string]string)

	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := splitAssignment(line)
		if !ok {
			continue
		}
		switch key {
		case "pkgname", "pkgbase", "pkgver", "pkgrel", "epoch":
			if _, seen := fields[key]; !seen {
				fields[key] = value
			}
		}
	}

	pkgver, ok := fields["pkgver"]
	if !ok {
		return nil, &MalformedError{Input: "descriptor", Reason: "pkgver not declared"}
	}
	if !literalValue(pkgver) {
		return nil, &MalformedError{Input: pkgver, Reason: "pkgver is not a literal value"}
	}

	v := &Version{Pkgver: pkgver, Pkgrel: "1"}
	if rel, ok := fields["pkgrel"]; ok {
		if !literalValue(rel) {
			return nil, &MalformedError{Input: rel, Reason: "pkgrel is not a literal value"}
		}
		v.Pkgrel = rel
	}
	if ep, ok := fields["epoch"]; ok {
		n, err := strconv.Atoi(ep)
		if err != nil || n < 0 {
			return nil, &MalformedError{Input: ep, Reason: "epoch is not a non-negative integer"}
		}
		v.Epoch = n
	}

	name := fields["pkgbase"]
	if name == "" {
		name = fields["pkgname"]
	}
	return &Descriptor{Name: name, Version: v}, nil
}

// splitAssignment handles both "key=value" and "key = value" lines,
// stripping surrounding quotes from the value.
func splitAssignment(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, '=')
	if idx <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(value, q) && strings.HasSuffix(value, q) && len(value) >= 2 {
			value = value[1 : len(value)-1]
			break
		}
	}
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, value, true
}

func literalValue(s string) bool {
	return s != "" && !strings.ContainsAny(s, "$`()")
}

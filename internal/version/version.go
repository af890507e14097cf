package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is an Arch-style package version: epoch, pkgver and pkgrel.
// A missing epoch is 0. The canonical string form is "epoch:pkgver-pkgrel"
// with the epoch omitted when zero.
type Version struct {
	Epoch  int
	Pkgver string
	Pkgrel string
}

// MalformedError reports a version string or descriptor that could not be
// parsed. It is non-fatal for a run: the affected package is skipped.
type MalformedError struct {
	Input  string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed version %q: %s", e.Input, e.Reason)
}

// Parse parses a full version string of the form "[epoch:]pkgver[-pkgrel]".
func Parse(s string) (*Version, error) {
	if s == "" {
		return nil, &MalformedError{Input: s, Reason: "empty string"}
	}

	v := &Version{Pkgrel: "1"}
	rest := s

	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		epoch, err := strconv.Atoi(rest[:idx])
		if err != nil || epoch < 0 {
			return nil, &MalformedError{Input: s, Reason: "epoch is not a non-negative integer"}
		}
		v.Epoch = epoch
		rest = rest[idx+1:]
	}

	// pkgrel is everything after the last hyphen. pkgver itself never
	// contains hyphens, so the last hyphen is unambiguous.
	if idx := strings.LastIndexByte(rest, '-'); idx >= 0 {
		v.Pkgrel = rest[idx+1:]
		rest = rest[:idx]
	}

	if rest == "" {
		return nil, &MalformedError{Input: s, Reason: "empty pkgver"}
	}
	if v.Pkgrel == "" {
		return nil, &MalformedError{Input: s, Reason: "empty pkgrel"}
	}
	v.Pkgver = rest
	return v, nil
}

// String returns the canonical version string.
func (v *Version) String() string {
	if v.Epoch > 0 {
		return fmt.Sprintf("%d:%s-%s", v.Epoch, v.Pkgver, v.Pkgrel)
	}
	return v.Pkgver + "-" + v.Pkgrel
}

// Compare orders two versions: epoch first, then pkgver segment-wise, then
// pkgrel. Returns -1 if v < other, 0 if equal, 1 if v > other.
func (v *Version) Compare(other *Version) int {
	if v.Epoch != other.Epoch {
		if v.Epoch < other.Epoch {
			return -1
		}
		return 1
	}
	if c := rpmvercmp(v.Pkgver, other.Pkgver); c != 0 {
		return c
	}
	return comparePkgrel(v.Pkgrel, other.Pkgrel)
}

// Newer reports whether v is strictly newer than other.
func (v *Version) Newer(other *Version) bool {
	return v.Compare(other) > 0
}

// comparePkgrel compares release numbers as decimals ("4.1" style) and
// falls back to segment comparison when either side is not numeric.
// Decimal equality is not textual equality ("4.10" parses equal to
// "4.1"), so ties are broken segment-wise the way vercmp orders them.
func comparePkgrel(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	}
	return rpmvercmp(a, b)
}

/// rpmvercmp implements the alpm version segment comparison: alternating
// numeric and alphabetic segments, numeric segments compared as integers,
// alphabetic segments compared lexically, numeric newer than alphabetic.
func rpmvercmp(a, b string) int {
	if a == b {
		return 0
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		for i < len(a) && !isAlnum(a[i]) {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) {
			j++
		}
		if i >= len(a) || j >= len(b) {
			break
		}

		si, sj := i, j
		numeric := isDigit(a[i])
		if numeric {
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
		} else {
			for i < len(a) && isAlpha(a[i]) {
				i++
			}
			for j < len(b) && isAlpha(b[j]) {
				j++
			}
		}

		segA, segB := a[si:i], b[sj:j]
		if segB == "" {
			// Segment types differ. A numeric segment is always newer
			// than an alphabetic one ("2.0" > "2.0rc").
			if numeric {
				return 1
			}
			return -1
		}

		if numeric {
			segA = strings.TrimLeft(segA, "0")
			segB = strings.TrimLeft(segB, "0")
			// More digits means a bigger number ("10" > "2").
			if len(segA) != len(segB) {
				if len(segA) < len(segB) {
					return -1
				}
				return 1
			}
		}
		if c := strings.Compare(segA, segB); c != 0 {
			if c < 0 {
				return -1
			}
			return 1
		}
	}

	aDone := i >= len(a)
	bDone := j >= len(b)
	switch {
	case aDone && bDone:
		return 0
	case aDone:
		// "1.0" vs "1.0a": a trailing alphabetic segment marks the
		// older version; a trailing numeric segment the newer one.
		if isAlpha(b[j]) {
			return 1
		}
		return -1
	default:
		if isAlpha(a[i]) {
			return -1
		}
		return 1
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }

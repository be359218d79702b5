package ocfl

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"unicode"
)

// DigestMap maps digests to the file paths that have that digest, the
// shape used throughout an OCFL inventory's manifest, versionState, and
// fixity fields.
type DigestMap map[string][]string

// AllPaths returns every path in m, sorted.
func (m DigestMap) AllPaths() []string {
	paths := make([]string, 0, m.NumPaths())
	for _, p := range m {
		paths = append(paths, p...)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a deep copy of m.
func (m DigestMap) Clone() DigestMap {
	clone := make(DigestMap, len(m))
	for d, paths := range m {
		cp := make([]string, len(paths))
		copy(cp, paths)
		clone[d] = cp
	}
	return clone
}

// Eq reports whether m and other describe the same digest/path
// associations once both are normalized. Returns false if either map is
// internally inconsistent (a digest conflict).
func (m DigestMap) Eq(other DigestMap) bool {
	if len(m) != len(other) {
		return false
	}
	if len(m) == 0 {
		return true
	}
	otherNorm, err := other.Normalize()
	if err != nil {
		return false
	}
	for dig, paths := range m {
		if len(paths) == 0 {
			return false
		}
		otherPaths := otherNorm[normalizeDigest(dig)]
		if len(paths) != len(otherPaths) {
			return false
		}
		a := append([]string(nil), paths...)
		b := append([]string(nil), otherPaths...)
		sort.Strings(a)
		sort.Strings(b)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// DigestFor returns the digest associated with path p, or "" if p is not
// present in m.
func (m DigestMap) DigestFor(p string) string {
	if p == "" {
		return ""
	}
	for d, paths := range m {
		for _, pp := range paths {
			if pp == p {
				return d
			}
		}
	}
	return ""
}

// Merge normalizes and combines m and m2. If a path appears in both with
// different digests, Merge fails with *MapPathConflictErr unless replace
// is true, in which case m2's digest wins.
func (m DigestMap) Merge(m2 DigestMap, replace bool) (DigestMap, error) {
	m1Norm, err := m.Normalize()
	if err != nil {
		return nil, err
	}
	m2Norm, err := m2.Normalize()
	if err != nil {
		return nil, err
	}
	m1PathMap := m1Norm.PathMap()
	m2PathMap := m2Norm.PathMap()
	merged := DigestMap{}
	addPath := func(dig, pth string) {
		for _, existing := range merged[dig] {
			if existing == pth {
				return
			}
		}
		merged[dig] = append(merged[dig], pth)
	}
	for pth, dig := range m1PathMap {
		if dig2, ok := m2PathMap[pth]; ok && dig != dig2 {
			if !replace {
				return nil, &MapPathConflictErr{Path: pth}
			}
			dig = dig2
		}
		addPath(dig, pth)
	}
	for pth, dig := range m2PathMap {
		if _, exists := m1PathMap[pth]; exists {
			continue
		}
		addPath(dig, pth)
	}
	if err := validPaths(merged.AllPaths()); err != nil {
		return nil, err
	}
	return merged, nil
}

// PathMutation transforms the path list associated with one digest.
type PathMutation func(oldPaths []string) (newPaths []string)

// Mutate applies fns, in order, to the path list for every digest in m,
// removing digests left with no paths. Mutate may leave m invalid; call
// Valid afterward if that matters to the caller.
func (m DigestMap) Mutate(fns ...PathMutation) {
	for digest := range m {
		for _, fn := range fns {
			m[digest] = fn(m[digest])
		}
		if len(m[digest]) == 0 {
			delete(m, digest)
		}
	}
}

// Normalize validates m and returns a copy with lowercase digest keys and
// sorted path lists.
func (m DigestMap) Normalize() (DigestMap, error) {
	if err := m.Valid(); err != nil {
		return nil, err
	}
	norm := make(DigestMap, len(m))
	for digest, paths := range m {
		normPaths := append([]string(nil), paths...)
		sort.Strings(normPaths)
		norm[normalizeDigest(digest)] = normPaths
	}
	return norm, nil
}

// NumPaths returns the total number of paths across all digests in m.
func (m DigestMap) NumPaths() int {
	var n int
	for _, paths := range m {
		n += len(paths)
	}
	return n
}

// PathMap returns m reindexed by path. The result may be invalid if m
// associates one path with more than one digest.
func (m DigestMap) PathMap() PathMap {
	pm := make(PathMap, m.NumPaths())
	for d, paths := range m {
		for _, p := range paths {
			pm[p] = d
		}
	}
	return pm
}

// Valid reports whether m has consistent digests and non-conflicting,
// valid paths.
func (m DigestMap) Valid() error {
	if err := m.validDigests(); err != nil {
		return err
	}
	for d, paths := range m {
		if len(paths) == 0 {
			return fmt.Errorf("no paths for digest %q", d)
		}
	}
	return validPaths(m.AllPaths())
}

func (m DigestMap) hasDigestCase() (hasLower, hasUpper bool) {
	for digest := range m {
		for _, r := range digest {
			switch {
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsUpper(r):
				hasUpper = true
			}
			if hasLower && hasUpper {
				return
			}
		}
	}
	return
}

func (m DigestMap) validDigests() error {
	hasLower, hasUpper := m.hasDigestCase()
	if !hasLower || !hasUpper {
		return nil
	}
	norms := make(map[string]bool, len(m))
	for d := range m {
		norm := normalizeDigest(d)
		if norms[norm] {
			return &MapDigestConflictErr{Digest: d}
		}
		norms[norm] = true
	}
	return nil
}

func validPaths(paths []string) error {
	for _, p := range paths {
		if !validPath(p) {
			return &MapPathInvalidErr{Path: p}
		}
	}
	if !sort.StringsAreSorted(paths) {
		sorted := append([]string(nil), paths...)
		sort.Strings(sorted)
		paths = sorted
	}
	n := len(paths)
	if n <= 1 {
		return nil
	}
	for i := 0; i < n-1; i++ {
		p, next := paths[i], paths[i+1]
		if p == next || strings.HasPrefix(next, p+"/") {
			return &MapPathConflictErr{Path: p}
		}
	}
	return nil
}

func validPath(p string) bool {
	if p == "." {
		return false
	}
	return fs.ValidPath(p)
}

func normalizeDigest(d string) string { return strings.ToLower(d) }

// PathMap maps file paths to their digests, the inverse of DigestMap.
type PathMap map[string]string

// DigestMap returns a DigestMap built from pm. The result may be invalid
// if pm contains invalid paths.
func (pm PathMap) DigestMap() DigestMap {
	dm := DigestMap{}
	for pth, dig := range pm {
		dm[dig] = append(dm[dig], pth)
	}
	return dm
}

// SortedPaths returns pm's paths in sorted order.
func (pm PathMap) SortedPaths() []string {
	paths := make([]string, 0, len(pm))
	for p := range pm {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// RenamePaths returns a PathMutation that renames occurrences of src to
// dst. If src names a full path it is replaced outright; if src names a
// directory (or "." for the whole tree), the prefix is rewritten to dst.
func RenamePaths(src, dst string) PathMutation {
	return func(paths []string) []string {
		if src == "." {
			for i, p := range paths {
				paths[i] = path.Join(dst, p)
			}
			return paths
		}
		for i, p := range paths {
			if p == src {
				paths[i] = dst
				return paths
			}
		}
		for i, p := range paths {
			if suffix, found := strings.CutPrefix(p, src+"/"); found {
				paths[i] = path.Join(dst, suffix)
			}
		}
		return paths
	}
}

// RemovePath returns a PathMutation that removes name from a path list.
func RemovePath(name string) PathMutation {
	return func(paths []string) []string {
		for i, p := range paths {
			if p == name {
				return append(paths[:i], paths[i+1:]...)
			}
		}
		return paths
	}
}

// MapPathConflictErr indicates two digests claim the same path, or one
// path is both a file and a directory prefix of another.
type MapPathConflictErr struct{ Path string }

func (e *MapPathConflictErr) Error() string {
	return fmt.Sprintf("path conflict: %q", e.Path)
}

// MapPathInvalidErr indicates a path is not valid for use in a DigestMap.
type MapPathInvalidErr struct{ Path string }

func (e *MapPathInvalidErr) Error() string {
	return fmt.Sprintf("invalid path: %q", e.Path)
}

// MapDigestConflictErr indicates a digest appears twice under different
// case (e.g. both "AB12..." and "ab12...").
type MapDigestConflictErr struct{ Digest string }

func (e *MapDigestConflictErr) Error() string {
	return fmt.Sprintf("digest conflict: %q", e.Digest)
}

package ocfl

import (
	"fmt"
	"path"
	"strings"
)

// ContentPathMapper assigns the content-directory-relative path a newly
// staged logical path will occupy, e.g. "a/b.txt" -> "a/b.txt". It is
// bound at Repository construction and may be replaced to implement
// alternate content-path layouts (flattening, hashing by digest, etc.).
type ContentPathMapper func(logicalPath string) (string, error)

// DefaultContentPathMapper mirrors the logical path directly into the
// content directory, rejecting paths a conforming OCFL content path
// cannot represent.
func DefaultContentPathMapper(logicalPath string) (string, error) {
	if err := CheckPathConstraints(logicalPath); err != nil {
		return "", err
	}
	return logicalPath, nil
}

// LogicalPathMapper derives a version-state logical path from a source
// file's path relative to the tree AddFileProcessor is walking.
type LogicalPathMapper func(destinationPrefix, relativeSourcePath string) string

// DefaultLogicalPathMapper joins destinationPrefix and relativeSourcePath
// with "/", using forward slashes regardless of host OS path separators.
func DefaultLogicalPathMapper(destinationPrefix, relativeSourcePath string) string {
	if destinationPrefix == "" {
		return relativeSourcePath
	}
	return path.Join(destinationPrefix, relativeSourcePath)
}

// CheckPathConstraints rejects logical/content paths OCFL forbids: empty
// segments, ".", "..", leading "/", and backslashes (which would be
// ambiguous with the content-path separator on write-back).
func CheckPathConstraints(p string) error {
	if p == "" {
		return fmt.Errorf("empty path: %w", ErrInvalidInput)
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("%s: leading slash not allowed: %w", p, ErrInvalidInput)
	}
	if strings.Contains(p, "\\") {
		return fmt.Errorf("%s: backslash not allowed: %w", p, ErrInvalidInput)
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "":
			return fmt.Errorf("%s: empty path segment: %w", p, ErrInvalidInput)
		case ".", "..":
			return fmt.Errorf("%s: %q segment not allowed: %w", p, seg, ErrInvalidInput)
		}
	}
	return nil
}

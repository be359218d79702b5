// Package fs defines the minimal storage-backend abstraction the OCFL
// engine drives: enough to read, write, list, copy and remove files without
// committing to any particular backend (local disk, cloud object store,
// in-memory).
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
)

// ErrOpUnsupported is returned when a backend does not implement the
// interface an operation requires.
var ErrOpUnsupported = errors.New("fs: operation not supported by this backend")

// FS is the minimal file system abstraction: the ability to open named
// files for reading.
type FS interface {
	// OpenFile opens the named file for reading. It returns an error if
	// name is a directory.
	OpenFile(ctx context.Context, name string) (fs.File, error)
}

// DirEntriesFS is an FS that can also list directory entries.
type DirEntriesFS interface {
	FS
	// DirEntries returns the sorted (by name) directory entries in name.
	DirEntries(ctx context.Context, name string) ([]fs.DirEntry, error)
}

// WriteFS is a backend that supports write and remove operations.
type WriteFS interface {
	FS
	Write(ctx context.Context, name string, r io.Reader) (int64, error)
	Remove(ctx context.Context, name string) error
	RemoveAll(ctx context.Context, name string) error
}

// CopyFS is a WriteFS that can copy within itself without a round trip
// through the caller.
type CopyFS interface {
	WriteFS
	Copy(ctx context.Context, dst, src string) (int64, error)
}

// FileRef identifies a regular file discovered by WalkFiles.
type FileRef struct {
	FS      FS
	BaseDir string
	Path    string // relative to BaseDir
	Info    fs.FileInfo
}

// FileWalker is an FS with an optimized recursive walk.
type FileWalker interface {
	FS
	WalkFiles(ctx context.Context, dir string) ([]*FileRef, error)
}

// Copy copies src in srcFS to dst in dstFS. If dstFS implements CopyFS and
// srcFS == dstFS, the backend's native Copy is used.
func Copy(ctx context.Context, dstFS FS, dst string, srcFS FS, src string) (int64, error) {
	if cp, ok := dstFS.(CopyFS); ok {
		if sameFS(dstFS, srcFS) {
			n, err := cp.Copy(ctx, dst, src)
			if err != nil {
				return n, fmt.Errorf("during copy: %w", err)
			}
			return n, nil
		}
	}
	srcFile, err := srcFS.OpenFile(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("opening for copy: %w", err)
	}
	defer srcFile.Close()
	n, err := Write(ctx, dstFS, dst, srcFile)
	if err != nil {
		return n, fmt.Errorf("writing during copy: %w", err)
	}
	return n, nil
}

func sameFS(a, b FS) bool { return a == b }

// ReadAll returns the full contents of the named file.
func ReadAll(ctx context.Context, fsys FS, name string) ([]byte, error) {
	f, err := fsys.OpenFile(ctx, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Write checks that fsys implements WriteFS and calls its Write method.
func Write(ctx context.Context, fsys FS, name string, r io.Reader) (int64, error) {
	w, ok := fsys.(WriteFS)
	if !ok {
		return 0, &fs.PathError{Op: "write", Path: name, Err: ErrOpUnsupported}
	}
	return w.Write(ctx, name, r)
}

// Remove checks that fsys implements WriteFS and calls its Remove method.
func Remove(ctx context.Context, fsys FS, name string) error {
	w, ok := fsys.(WriteFS)
	if !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: ErrOpUnsupported}
	}
	return w.Remove(ctx, name)
}

// RemoveAll checks that fsys implements WriteFS and calls its RemoveAll
// method.
func RemoveAll(ctx context.Context, fsys FS, name string) error {
	w, ok := fsys.(WriteFS)
	if !ok {
		return &fs.PathError{Op: "remove_all", Path: name, Err: ErrOpUnsupported}
	}
	return w.RemoveAll(ctx, name)
}

// StatFile returns file info for name by opening and stat-ing it.
func StatFile(ctx context.Context, fsys FS, name string) (fs.FileInfo, error) {
	f, err := fsys.OpenFile(ctx, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}

// DirEntries lists the entries of name, sorted by filename.
func DirEntries(ctx context.Context, fsys FS, name string) ([]fs.DirEntry, error) {
	d, ok := fsys.(DirEntriesFS)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrOpUnsupported}
	}
	entries, err := d.DirEntries(ctx, name)
	if err != nil {
		return entries, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// WalkFiles recursively lists regular files under dir. If fsys implements
// FileWalker, its optimized implementation is used; otherwise dir is
// walked using DirEntries.
func WalkFiles(ctx context.Context, fsys FS, dir string) ([]*FileRef, error) {
	if w, ok := fsys.(FileWalker); ok {
		return w.WalkFiles(ctx, dir)
	}
	var refs []*FileRef
	var walk func(sub string) error
	walk = func(sub string) error {
		entries, err := DirEntries(ctx, fsys, path.Join(dir, sub))
		if err != nil {
			return err
		}
		for _, e := range entries {
			entryPath := path.Join(sub, e.Name())
			if e.IsDir() {
				if err := walk(entryPath); err != nil {
					return err
				}
				continue
			}
			info, err := e.Info()
			if err != nil {
				return err
			}
			refs = append(refs, &FileRef{FS: fsys, BaseDir: dir, Path: entryPath, Info: info})
		}
		return nil
	}
	if err := walk("."); err != nil {
		return nil, err
	}
	return refs, nil
}

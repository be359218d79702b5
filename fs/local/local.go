// Package local implements an ocfl/fs.WriteFS backed by the operating
// system's filesystem.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	ocflfs "github.com/ocflgo/ocfl/fs"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FS is an ocflfs.WriteFS rooted at a directory on the local filesystem.
type FS struct {
	root string
}

var (
	_ ocflfs.WriteFS      = (*FS)(nil)
	_ ocflfs.DirEntriesFS = (*FS)(nil)
	_ ocflfs.CopyFS       = (*FS)(nil)
)

// New returns an FS rooted at root. The directory is created if it does
// not already exist.
func New(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("local: %w", err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("local: %w", err)
	}
	return &FS{root: abs}, nil
}

// Root returns the filesystem's root directory.
func (f *FS) Root() string { return f.root }

func (f *FS) osPath(name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", fs.ErrInvalid
	}
	return filepath.Join(f.root, filepath.FromSlash(name)), nil
}

func (f *FS) OpenFile(ctx context.Context, name string) (fs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := f.osPath(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: ocflfs.ErrOpUnsupported}
	}
	return file, nil
}

func (f *FS) DirEntries(ctx context.Context, name string) ([]fs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := f.osPath(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	return os.ReadDir(p)
}

func (f *FS) Write(ctx context.Context, name string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, err := f.osPath(name)
	if err != nil {
		return 0, &fs.PathError{Op: "write", Path: name, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return 0, &fs.PathError{Op: "write", Path: name, Err: err}
	}
	dst, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return 0, &fs.PathError{Op: "write", Path: name, Err: err}
	}
	n, err := io.Copy(dst, r)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, &fs.PathError{Op: "write", Path: name, Err: err}
	}
	return n, nil
}

func (f *FS) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := f.osPath(name)
	if err != nil {
		return &fs.PathError{Op: "remove", Path: name, Err: err}
	}
	if err := os.Remove(p); err != nil {
		return err
	}
	return nil
}

func (f *FS) RemoveAll(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "." || name == "" {
		return &fs.PathError{Op: "remove_all", Path: name, Err: fmt.Errorf("cannot remove filesystem root")}
	}
	p, err := f.osPath(name)
	if err != nil {
		return &fs.PathError{Op: "remove_all", Path: name, Err: err}
	}
	return os.RemoveAll(p)
}

func (f *FS) Copy(ctx context.Context, dst, src string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	srcPath, err := f.osPath(src)
	if err != nil {
		return 0, &fs.PathError{Op: "copy", Path: src, Err: err}
	}
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()
	return f.Write(ctx, dst, srcFile)
}

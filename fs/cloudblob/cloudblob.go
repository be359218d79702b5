// Package cloudblob implements an ocfl/fs.WriteFS backed by a gocloud.dev
// blob.Bucket, giving the engine a cloud object store backend (S3, GCS,
// Azure Blob, or an in-memory bucket for tests) alongside fs/local.
package cloudblob

import (
	"context"
	"io"
	"io/fs"
	"path"
	"time"

	ocflfs "github.com/ocflgo/ocfl/fs"
	"gocloud.dev/blob"
)

// FS adapts a *blob.Bucket to ocflfs.WriteFS.
type FS struct {
	bucket *blob.Bucket
}

var (
	_ ocflfs.WriteFS      = (*FS)(nil)
	_ ocflfs.DirEntriesFS = (*FS)(nil)
)

// Open opens the bucket named by urlstr (e.g. "s3://bucket", "gs://bucket",
// "mem://") using gocloud.dev's URL-based bucket registry.
func Open(ctx context.Context, urlstr string) (*FS, error) {
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, err
	}
	return New(bucket), nil
}

// New adapts an already-open bucket.
func New(bucket *blob.Bucket) *FS { return &FS{bucket: bucket} }

// Close releases the underlying bucket.
func (f *FS) Close() error { return f.bucket.Close() }

func (f *FS) OpenFile(ctx context.Context, name string) (fs.File, error) {
	exists, err := f.bucket.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	r, err := f.bucket.NewReader(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	return &blobFile{reader: r, name: name}, nil
}

func (f *FS) DirEntries(ctx context.Context, name string) ([]fs.DirEntry, error) {
	prefix := name
	if prefix == "." {
		prefix = ""
	} else if prefix != "" {
		prefix += "/"
	}
	iter := f.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	var entries []fs.DirEntry
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, blobDirEntry{obj: obj, prefix: prefix})
	}
	return entries, nil
}

func (f *FS) Write(ctx context.Context, name string, r io.Reader) (int64, error) {
	w, err := f.bucket.NewWriter(ctx, name, nil)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, r)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

func (f *FS) Remove(ctx context.Context, name string) error {
	return f.bucket.Delete(ctx, name)
}

func (f *FS) RemoveAll(ctx context.Context, name string) error {
	prefix := name
	if prefix != "" && prefix != "." {
		prefix += "/"
	} else {
		prefix = ""
	}
	iter := f.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := f.bucket.Delete(ctx, obj.Key); err != nil {
			return err
		}
	}
}

// blobFile adapts a *blob.Reader to fs.File.
type blobFile struct {
	reader *blob.Reader
	name   string
}

func (b *blobFile) Read(p []byte) (int, error) { return b.reader.Read(p) }
func (b *blobFile) Close() error               { return b.reader.Close() }
func (b *blobFile) Stat() (fs.FileInfo, error) {
	return blobFileInfo{name: path.Base(b.name), size: b.reader.Size(), modTime: b.reader.ModTime()}, nil
}

type blobFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (i blobFileInfo) Name() string       { return i.name }
func (i blobFileInfo) Size() int64        { return i.size }
func (i blobFileInfo) Mode() fs.FileMode  { return 0o644 }
func (i blobFileInfo) ModTime() time.Time { return i.modTime }
func (i blobFileInfo) IsDir() bool        { return false }
func (i blobFileInfo) Sys() any           { return nil }

// blobDirEntry adapts a gocloud.dev *blob.ListObject to fs.DirEntry.
type blobDirEntry struct {
	obj    *blob.ListObject
	prefix string
}

func (e blobDirEntry) Name() string {
	name := e.obj.Key[len(e.prefix):]
	if e.obj.IsDir {
		name = name[:len(name)-1]
	}
	return name
}
func (e blobDirEntry) IsDir() bool { return e.obj.IsDir }
func (e blobDirEntry) Type() fs.FileMode {
	if e.obj.IsDir {
		return fs.ModeDir
	}
	return 0
}
func (e blobDirEntry) Info() (fs.FileInfo, error) {
	return blobFileInfo{name: e.Name(), size: e.obj.Size, modTime: e.obj.ModTime}, nil
}

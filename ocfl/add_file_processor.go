package ocfl

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/ocflgo/ocfl/digest"
	ocflfs "github.com/ocflgo/ocfl/fs"
)

// AddFileProcessor walks a source tree and feeds each regular file into
// an InventoryUpdater, streaming (or moving) it into a staging content
// area while computing its digest.
type AddFileProcessor struct {
	Updater    *InventoryUpdater
	Locker     *FileLocker
	StagingFS  ocflfs.WriteFS
	StagingDir string
	Algorithm  string
}

// AddedFile records where a newly added file was staged: StagedPath is
// relative to the processor's StagingDir in StagingFS.
type AddedFile struct {
	LogicalPath string
	StagedPath  string
}

// ProcessTree walks sourceFS starting at sourceRoot, adding every regular
// file under destinationPrefix. If sourceRoot is itself a regular file,
// destinationPrefix itself is its logical path (or its base name, when
// destinationPrefix is empty).
func (p *AddFileProcessor) ProcessTree(ctx context.Context, sourceFS fs.FS, sourceRoot, destinationPrefix string, opts ...OcflOption) ([]AddedFile, error) {
	info, err := fs.Stat(sourceFS, sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourceRoot, err)
	}
	if !info.IsDir() {
		logicalPath := destinationPrefix
		if logicalPath == "" {
			logicalPath = path.Base(sourceRoot)
		}
		added, err := p.processOne(ctx, sourceFS, sourceRoot, logicalPath, opts...)
		if err != nil {
			return nil, err
		}
		if added == nil {
			return nil, nil
		}
		return []AddedFile{*added}, nil
	}
	var out []AddedFile
	err = fs.WalkDir(sourceFS, sourceRoot, func(p2 string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p2, sourceRoot), "/")
		logicalPath := DefaultLogicalPathMapper(destinationPrefix, rel)
		added, err := p.processOne(ctx, sourceFS, p2, logicalPath, opts...)
		if err != nil {
			return fmt.Errorf("%s: %w", p2, err)
		}
		if added != nil {
			out = append(out, *added)
		}
		return nil
	})
	if err != nil {
		return out, err
	}
	return out, nil
}

// removableSource is an optional capability of a source fs.FS: a backend
// that can delete a file after its bytes have been moved elsewhere
// (MOVE_SOURCE mode). io/fs.FS itself has no such method since it models
// read-only trees; a local directory source can add this to opt in.
type removableSource interface {
	Remove(name string) error
}

func (p *AddFileProcessor) processOne(ctx context.Context, sourceFS fs.FS, sourcePath, logicalPath string, opts ...OcflOption) (*AddedFile, error) {
	o := buildOptions(opts...)
	if o.moveSource {
		return p.processOneMove(ctx, sourceFS, sourcePath, logicalPath, opts...)
	}
	return p.processOneCopy(ctx, sourceFS, sourcePath, logicalPath, opts...)
}

func (p *AddFileProcessor) processOneCopy(ctx context.Context, sourceFS fs.FS, sourcePath, logicalPath string, opts ...OcflOption) (*AddedFile, error) {
	var result *AddedFile
	err := p.Locker.WithLock(ctx, logicalPath, func() error {
		f, err := sourceFS.Open(sourcePath)
		if err != nil {
			return err
		}
		defer f.Close()

		digester, err := digest.New(p.Algorithm)
		if err != nil {
			return err
		}
		innerPath, err := p.Updater.mapper(logicalPath)
		if err != nil {
			return err
		}
		stagedPath := path.Join(p.Updater.contentDir, innerPath)
		tee := io.TeeReader(f, digester)
		if _, err := p.StagingFS.Write(ctx, path.Join(p.StagingDir, stagedPath), tee); err != nil {
			return fmt.Errorf("staging %s: %w", logicalPath, err)
		}
		sum := digester.String()
		res, err := p.Updater.AddFile(sum, logicalPath, opts...)
		if err != nil {
			return err
		}
		if !res.IsNew {
			// duplicate digest: the file we just staged is redundant.
			if err := p.StagingFS.Remove(ctx, path.Join(p.StagingDir, stagedPath)); err != nil {
				return fmt.Errorf("removing duplicate staged file %s: %w", stagedPath, err)
			}
			return nil
		}
		result = &AddedFile{LogicalPath: logicalPath, StagedPath: stagedPath}
		return nil
	})
	return result, err
}

// processOneMove digests the source in place, then moves it into staging
// only if its digest turns out to be new; a duplicate source is left
// untouched for the caller to clean up afterward.
func (p *AddFileProcessor) processOneMove(ctx context.Context, sourceFS fs.FS, sourcePath, logicalPath string, opts ...OcflOption) (*AddedFile, error) {
	var result *AddedFile
	err := p.Locker.WithLock(ctx, logicalPath, func() error {
		src, err := sourceFS.Open(sourcePath)
		if err != nil {
			return err
		}
		sum, err := digest.Of(p.Algorithm, src)
		src.Close()
		if err != nil {
			return err
		}
		res, err := p.Updater.AddFile(sum, logicalPath, opts...)
		if err != nil {
			return err
		}
		if !res.IsNew {
			return nil
		}
		innerPath, err := p.Updater.mapper(logicalPath)
		if err != nil {
			return err
		}
		stagedPath := path.Join(p.Updater.contentDir, innerPath)
		f, err := sourceFS.Open(sourcePath)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := p.StagingFS.Write(ctx, path.Join(p.StagingDir, stagedPath), f); err != nil {
			return fmt.Errorf("staging %s: %w", logicalPath, err)
		}
		if rm, ok := sourceFS.(removableSource); ok {
			if err := rm.Remove(sourcePath); err != nil {
				return fmt.Errorf("removing moved source %s: %w", sourcePath, err)
			}
		}
		result = &AddedFile{LogicalPath: logicalPath, StagedPath: stagedPath}
		return nil
	})
	return result, err
}

// ProcessFileWithDigest stages a single file whose digest the caller
// already trusts, skipping the hashing pass. Used by fast-replication
// flows that already know every content digest from a source manifest.
func (p *AddFileProcessor) ProcessFileWithDigest(ctx context.Context, sourceFS ocflfs.FS, sourcePath, digestVal, logicalPath string, opts ...OcflOption) (*AddedFile, error) {
	var result *AddedFile
	err := p.Locker.WithLock(ctx, logicalPath, func() error {
		res, err := p.Updater.AddFile(digestVal, logicalPath, opts...)
		if err != nil {
			return err
		}
		if !res.IsNew {
			return nil
		}
		relStagedPath := strings.TrimPrefix(res.ContentPath, p.Updater.nextHead.String()+"/")
		dst := path.Join(p.StagingDir, relStagedPath)
		if _, err := ocflfs.Copy(ctx, p.StagingFS, dst, sourceFS, sourcePath); err != nil {
			return fmt.Errorf("staging %s: %w", logicalPath, err)
		}
		result = &AddedFile{LogicalPath: logicalPath, StagedPath: relStagedPath}
		return nil
	})
	return result, err
}

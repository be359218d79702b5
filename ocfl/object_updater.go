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

// ObjectUpdater is the mutation surface handed to an updateObject caller's
// closure. It composes an InventoryUpdater with an AddFileProcessor,
// giving the closure a single place to add, remove, rename, and read
// files without touching either directly.
type ObjectUpdater struct {
	updater   *InventoryUpdater
	processor *AddFileProcessor

	// rootFS/objectRoot let ReadFile serve logical paths whose content
	// was committed in a previous version rather than staged this round.
	rootFS     ocflfs.FS
	objectRoot string
}

// NewObjectUpdater composes an ObjectUpdater over u, staging new content
// under stagingDir in stagingFS and serving ReadFile for already-committed
// content from objectRoot in rootFS.
func NewObjectUpdater(u *InventoryUpdater, locker *FileLocker, stagingFS ocflfs.WriteFS, stagingDir string, rootFS ocflfs.FS, objectRoot string) *ObjectUpdater {
	return &ObjectUpdater{
		updater: u,
		processor: &AddFileProcessor{
			Updater:    u,
			Locker:     locker,
			StagingFS:  stagingFS,
			StagingDir: stagingDir,
			Algorithm:  u.algorithm,
		},
		rootFS:     rootFS,
		objectRoot: objectRoot,
	}
}

// AddPath stages the file or tree at sourcePath under sourceFS, adding
// every regular file found beneath destinationPrefix.
func (o *ObjectUpdater) AddPath(ctx context.Context, sourceFS fs.FS, sourcePath, destinationPrefix string, opts ...OcflOption) ([]AddedFile, error) {
	return o.processor.ProcessTree(ctx, sourceFS, sourcePath, destinationPrefix, opts...)
}

// AddFileWithDigest binds logicalPath to a digest the caller already
// trusts matches content already present in the manifest (a dedup
// reference). It fails InvalidInput if the digest is not already known,
// since no bytes are supplied to stage new content.
func (o *ObjectUpdater) AddFileWithDigest(digestVal, logicalPath string, opts ...OcflOption) (AddFileResult, error) {
	res, err := o.updater.AddFile(digestVal, logicalPath, opts...)
	if err != nil {
		return AddFileResult{}, err
	}
	if res.IsNew {
		// the digest was unknown to the manifest: roll back the binding,
		// since no content was actually supplied for it.
		norm := normalizeDigest(digestVal)
		o.updater.state.Mutate(RemovePath(logicalPath))
		delete(o.updater.manifest, norm)
		delete(o.updater.addedThisVersion, norm)
		return AddFileResult{}, fmt.Errorf("digest %s has no existing content: %w", digestVal, ErrInvalidInput)
	}
	return res, nil
}

// WriteFile streams r into staging as logicalPath, computing its digest
// as it goes, exactly as AddFileProcessor does for a walked file.
func (o *ObjectUpdater) WriteFile(ctx context.Context, r io.Reader, logicalPath string, opts ...OcflOption) (AddFileResult, error) {
	var result AddFileResult
	err := o.processor.Locker.WithLock(ctx, logicalPath, func() error {
		digester, err := digest.New(o.processor.Algorithm)
		if err != nil {
			return err
		}
		innerPath, err := o.updater.mapper(logicalPath)
		if err != nil {
			return err
		}
		stagedPath := path.Join(o.updater.contentDir, innerPath)
		tee := io.TeeReader(r, digester)
		if _, err := o.processor.StagingFS.Write(ctx, path.Join(o.processor.StagingDir, stagedPath), tee); err != nil {
			return fmt.Errorf("staging %s: %w", logicalPath, err)
		}
		sum := digester.String()
		res, err := o.updater.AddFile(sum, logicalPath, opts...)
		if err != nil {
			return err
		}
		if !res.IsNew {
			if err := o.processor.StagingFS.Remove(ctx, path.Join(o.processor.StagingDir, stagedPath)); err != nil {
				return fmt.Errorf("removing duplicate staged file %s: %w", stagedPath, err)
			}
		}
		result = res
		return nil
	})
	return result, err
}

// RemoveFile removes logicalPath from the draft version, deleting its
// staged content if that content was added earlier in this same draft.
func (o *ObjectUpdater) RemoveFile(ctx context.Context, logicalPath string) error {
	orphan, err := o.updater.RemoveFile(logicalPath)
	if err != nil {
		return err
	}
	if orphan == "" {
		return nil
	}
	stagedPath := strings.TrimPrefix(orphan, o.updater.nextHead.String()+"/")
	if err := o.processor.StagingFS.Remove(ctx, path.Join(o.processor.StagingDir, stagedPath)); err != nil {
		return fmt.Errorf("removing orphaned staged file %s: %w", stagedPath, err)
	}
	return nil
}

// RenameFile moves src to dst within the draft's working state.
func (o *ObjectUpdater) RenameFile(src, dst string, opts ...OcflOption) error {
	return o.updater.RenameFile(src, dst, opts...)
}

// ReinstateFile copies a digest binding from a historical version into
// the draft's working state.
func (o *ObjectUpdater) ReinstateFile(srcVersion VNum, srcPath, dstPath string, opts ...OcflOption) error {
	return o.updater.ReinstateFile(srcVersion, srcPath, dstPath, opts...)
}

// ClearVersionState empties the draft's working state without touching
// the manifest.
func (o *ObjectUpdater) ClearVersionState() {
	o.updater.ClearState()
}

// AddFileFixity records an auxiliary digest for logicalPath's current
// content, computed under a secondary algorithm.
func (o *ObjectUpdater) AddFileFixity(logicalPath, alg, digestVal string) error {
	return o.updater.AddFixity(logicalPath, alg, digestVal)
}

// ReadFile opens a stream of the draft's current content for logicalPath,
// whether that content was staged earlier in this draft or was committed
// in a previous version.
func (o *ObjectUpdater) ReadFile(ctx context.Context, logicalPath string) (io.ReadCloser, error) {
	contentPath := o.updater.ContentPathFor(logicalPath)
	if contentPath == "" {
		return nil, fmt.Errorf("%s: %w", logicalPath, ErrNotFound)
	}
	if stagedRel, ok := strings.CutPrefix(contentPath, o.updater.nextHead.String()+"/"); ok {
		f, err := o.processor.StagingFS.OpenFile(ctx, path.Join(o.processor.StagingDir, stagedRel))
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	f, err := o.rootFS.OpenFile(ctx, path.Join(o.objectRoot, contentPath))
	if err != nil {
		return nil, err
	}
	return f, nil
}

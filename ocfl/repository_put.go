package ocfl

import (
	"context"
	"fmt"
	"io/fs"
)

// PutObject replaces objectID's entire logical state with the contents of
// sourcePath (walked via sourceFS), producing a brand new version built
// from blank state. If objectID does not yet exist, it is created at v1.
func (r *Repository) PutObject(ctx context.Context, objectID string, sourceFS fs.FS, sourcePath string, info VersionInfo, expectHead VNum, opts ...OcflOption) (*Inventory, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	if objectID == "" {
		return nil, fmt.Errorf("objectID is required: %w", ErrInvalidInput)
	}
	stagingDir, cleanup := r.newStagingDir()
	defer cleanup(ctx)

	source, existed, err := r.loadOrStub(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if source.HasMutableHead() {
		return nil, fmt.Errorf("object %s has an active mutable HEAD: %w", objectID, ErrInvalidState)
	}
	if existed && !expectHead.IsZero() && expectHead != source.Head {
		return nil, fmt.Errorf("object %s: expected head %s, found %s: %w", objectID, expectHead, source.Head, ErrObjectOutOfSync)
	}

	updater, err := NewInventoryUpdater(source, Head, r.mapper)
	if err != nil {
		return nil, err
	}
	locker := NewFileLocker(r.fileLockTimeout)
	processor := &AddFileProcessor{
		Updater:    updater,
		Locker:     locker,
		StagingFS:  r.workFS,
		StagingDir: stagingDir,
		Algorithm:  source.DigestAlgorithm,
	}
	if _, err := processor.ProcessTree(ctx, sourceFS, sourcePath, "", opts...); err != nil {
		return nil, err
	}

	upgraded := Spec("")
	if updater.UpgradeInventory(r.config) {
		upgraded = r.config.defaultOcflType()
	}
	newInv, err := updater.BuildNewInventory(r.clock.now(), info.Message, info.User)
	if err != nil {
		return nil, err
	}
	priorHead := Head
	if existed {
		priorHead = source.Head
	}
	if err := r.writeNewVersion(ctx, objectID, newInv, stagingDir, upgraded, priorHead); err != nil {
		return nil, err
	}
	return newInv, nil
}

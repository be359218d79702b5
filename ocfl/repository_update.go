package ocfl

import (
	"context"
	"fmt"

	ocflfs "github.com/ocflgo/ocfl/fs"
)

// UpdateFunc mutates an in-progress draft version through updater. It runs
// outside the object's write lock; the lock is held only for the final
// install, so a long-running closure never blocks readers or other
// objects' writers.
type UpdateFunc func(updater *ObjectUpdater) error

// UpdateObject starts a new version copied from objectID's current head,
// hands it to fn as an ObjectUpdater, and installs the result as the new
// head. If objectID does not yet exist, the draft starts blank at v1.
func (r *Repository) UpdateObject(ctx context.Context, objectID string, info VersionInfo, expectHead VNum, fn UpdateFunc) (*Inventory, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	if objectID == "" {
		return nil, fmt.Errorf("objectID is required: %w", ErrInvalidInput)
	}
	if fn == nil {
		return nil, fmt.Errorf("update function is required: %w", ErrInvalidInput)
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

	stateFrom := Head
	if existed {
		stateFrom = source.Head
	}
	updater, err := NewInventoryUpdater(source, stateFrom, r.mapper)
	if err != nil {
		return nil, err
	}
	locker := NewFileLocker(r.fileLockTimeout)
	objUpdater := NewObjectUpdater(updater, locker, r.workFS, stagingDir, r.committedContentFS(), source.ObjectRootPath())
	if err := fn(objUpdater); err != nil {
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

	if err := r.writeNewVersion(ctx, objectID, newInv, stagingDir, upgraded, stateFrom); err != nil {
		return nil, err
	}
	return newInv, nil
}

// committedContentFS returns the FS an ObjectUpdater's ReadFile should use
// to serve already-committed content, when the backend exposes one. For a
// backend that doesn't, it returns the work filesystem, so ReadFile of
// content committed in an earlier version fails with that filesystem's
// open error.
func (r *Repository) committedContentFS() ocflfs.FS {
	if fb, ok := r.storage.(FSBackend); ok {
		return fb.FS()
	}
	return r.workFS
}

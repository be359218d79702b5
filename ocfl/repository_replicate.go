package ocfl

import (
	"context"
	"fmt"
)

// ReplicateVersionAsHead copies srcVersion's logical state verbatim into a
// new head version. No content is staged: every digest srcVersion
// references already exists in the manifest, so the staging directory
// ends up holding only the new inventory.
func (r *Repository) ReplicateVersionAsHead(ctx context.Context, objectID string, srcVersion VNum, info VersionInfo) (*Inventory, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	source, existed, err := r.loadOrStub(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if !existed {
		return nil, fmt.Errorf("object %s: %w", objectID, ErrNotFound)
	}
	if source.HasMutableHead() {
		return nil, fmt.Errorf("object %s has an active mutable HEAD: %w", objectID, ErrInvalidState)
	}
	if source.GetVersion(srcVersion) == nil {
		return nil, fmt.Errorf("version %s: %w", srcVersion, ErrNotFound)
	}

	stagingDir, cleanup := r.newStagingDir()
	defer cleanup(ctx)

	updater, err := NewInventoryUpdater(source, srcVersion, r.mapper)
	if err != nil {
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
	if err := r.writeNewVersion(ctx, objectID, newInv, stagingDir, upgraded, source.Head); err != nil {
		return nil, err
	}
	return newInv, nil
}

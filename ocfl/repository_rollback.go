package ocfl

import (
	"context"
	"fmt"
)

// RollbackToVersion discards every version after target, leaving it as the
// new head. A no-op if target is already head.
func (r *Repository) RollbackToVersion(ctx context.Context, objectID string, target VNum) error {
	if err := r.ensureOpen(); err != nil {
		return err
	}
	inv, existed, err := r.loadOrStub(ctx, objectID)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("object %s: %w", objectID, ErrNotFound)
	}
	if inv.GetVersion(target) == nil {
		return fmt.Errorf("version %s: %w", target, ErrNotFound)
	}
	if target == inv.Head {
		return nil
	}
	return r.objectLock.Write(objectID, func() error {
		return r.storage.RollbackToVersion(ctx, objectID, target)
	})
}

// PurgeObject irrecoverably removes objectID and everything under its
// object root.
func (r *Repository) PurgeObject(ctx context.Context, objectID string) error {
	if err := r.ensureOpen(); err != nil {
		return err
	}
	return r.objectLock.Write(objectID, func() error {
		return r.storage.PurgeObject(ctx, objectID)
	})
}

package ocfl

import (
	"context"
	"fmt"
	"io/fs"

	ocflfs "github.com/ocflgo/ocfl/fs"
)

// fsysAsIOFS adapts an ocflfs.FS to a plain io/fs.FS for handing to a
// Validator, which (like any external collaborator) is defined against
// the standard library's filesystem abstraction rather than this
// module's context-aware one.
type fsysAsIOFS struct{ fsys ocflfs.FS }

func (a fsysAsIOFS) Open(name string) (fs.File, error) {
	return a.fsys.OpenFile(context.Background(), name)
}

// ExportObject copies objectID's entire object root (every version, the
// NAMASTE declaration, the root inventory) into outputDir.
func (r *Repository) ExportObject(ctx context.Context, objectID, outputDir string, opts ...OcflOption) error {
	if err := r.ensureOpen(); err != nil {
		return err
	}
	o := buildOptions(opts...)
	if ok, err := r.storage.ContainsObject(ctx, objectID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("object %s: %w", objectID, ErrNotFound)
	}
	if err := r.storage.ExportObject(ctx, objectID, outputDir); err != nil {
		return err
	}
	return r.maybeValidateExport(ctx, objectID, outputDir, o)
}

// ExportVersion copies a single version of objectID — the version's
// directory contents reconstructed as a standalone, importable version
// directory — into outputDir.
func (r *Repository) ExportVersion(ctx context.Context, objectID string, v VNum, outputDir string, opts ...OcflOption) error {
	if err := r.ensureOpen(); err != nil {
		return err
	}
	o := buildOptions(opts...)
	inv, err := r.storage.LoadInventory(ctx, objectID)
	if err != nil {
		return err
	}
	if inv == nil {
		return fmt.Errorf("object %s: %w", objectID, ErrNotFound)
	}
	if inv.GetVersion(v) == nil {
		return fmt.Errorf("version %s: %w", v, ErrNotFound)
	}
	if err := r.storage.ExportVersion(ctx, objectID, v, outputDir); err != nil {
		return err
	}
	return r.maybeValidateExport(ctx, objectID, outputDir, o)
}

func (r *Repository) maybeValidateExport(ctx context.Context, objectID, outputDir string, o ocflOptions) error {
	if o.noValidation || r.validator == nil {
		return nil
	}
	fb, ok := r.storage.(FSBackend)
	if !ok {
		return nil
	}
	results, err := r.validator.ValidatePath(ctx, fsysAsIOFS{fb.FS()}, outputDir)
	if err != nil {
		return err
	}
	if results.Fatal() {
		return fmt.Errorf("exporting %s: %w", objectID, ErrValidation)
	}
	return nil
}

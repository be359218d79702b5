package ocfl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/ocflgo/ocfl/digest"
	ocflfs "github.com/ocflgo/ocfl/fs"
)

// Validator is the external, out-of-scope collaborator that performs full
// OCFL conformance checking against an object or version tree.
// ImportObject calls it on the source tree, and ExportObject/ExportVersion
// on the exported tree, unless NO_VALIDATION is given. ImportVersion does
// not call it; it runs its own manifest and fixity checks instead.
type Validator interface {
	ValidatePath(ctx context.Context, sourceFS fs.FS, path string) (ValidationResults, error)
}

// WithValidator installs the external conformance-checking collaborator
// import operations invoke, unless NO_VALIDATION is given.
func WithValidator(v Validator) RepositoryOption {
	return func(r *Repository) { r.validator = v }
}

// ImportObject installs sourcePath (a complete, well-formed OCFL object
// tree in sourceFS) as a new object. It is rejected if the object id
// already exists or the source carries a pending mutable HEAD.
func (r *Repository) ImportObject(ctx context.Context, sourceFS fs.FS, sourcePath string, opts ...OcflOption) (*Inventory, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	o := buildOptions(opts...)

	rootInv, err := readSourceInventory(sourceFS, sourcePath)
	if err != nil {
		return nil, err
	}
	if hasMutableHeadDir(sourceFS, sourcePath) {
		return nil, fmt.Errorf("importing %s: %w", rootInv.ID, ErrInvalidState)
	}
	if ok, err := r.storage.ContainsObject(ctx, rootInv.ID); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("object %s: %w", rootInv.ID, ErrAlreadyExists)
	}
	if !o.noValidation && r.validator != nil {
		results, err := r.validator.ValidatePath(ctx, sourceFS, sourcePath)
		if err != nil {
			return nil, err
		}
		if results.Fatal() {
			return nil, fmt.Errorf("importing %s: %w", rootInv.ID, ErrValidation)
		}
	}

	stagingDir, cleanup := r.newStagingDir()
	defer cleanup(ctx)
	if err := copyOrMoveTree(ctx, sourceFS, sourcePath, r.workFS, stagingDir, o.moveSource); err != nil {
		return nil, fmt.Errorf("staging import of %s: %w", rootInv.ID, err)
	}

	if err := r.objectLock.Write(rootInv.ID, func() error {
		return r.storage.ImportObject(ctx, rootInv.ID, stagingDir)
	}); err != nil {
		return nil, err
	}
	r.storage.InvalidateCache(rootInv.ID)
	rootInv.SetObjectRootPath(r.storage.ObjectRootPath(rootInv.ID))
	return rootInv, nil
}

// ImportVersion installs sourcePath (a single "vN/" version directory in
// sourceFS, its inventory.json describing the whole object as of that
// version) as the object's next version. Unless NO_VALIDATION, every
// content file under the version is confirmed present in the manifest and
// its bytes are re-digested against the manifest's recorded value.
func (r *Repository) ImportVersion(ctx context.Context, objectID string, sourceFS fs.FS, sourcePath string, opts ...OcflOption) (*Inventory, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	o := buildOptions(opts...)

	inv, err := readSourceInventory(sourceFS, sourcePath)
	if err != nil {
		return nil, err
	}
	existing, existed, err := r.loadOrStub(ctx, objectID)
	if err != nil {
		return nil, err
	}
	wantHead := V(1)
	if existed {
		wantHead, err = existing.Head.Next()
		if err != nil {
			return nil, err
		}
	}
	if inv.Head != wantHead {
		return nil, fmt.Errorf("importing version %s for %s: expected %s: %w", inv.Head, objectID, wantHead, ErrInvalidState)
	}

	if !o.noValidation {
		if err := verifyImportedVersionContent(ctx, sourceFS, sourcePath, inv); err != nil {
			return nil, err
		}
	}

	stagingDir, cleanup := r.newStagingDir()
	defer cleanup(ctx)
	contentDir := inv.ContentDirectory
	if contentDir == "" {
		contentDir = "content"
	}
	if err := copyOrMoveTree(ctx, sourceFS, path.Join(sourcePath, contentDir), r.workFS, path.Join(stagingDir, contentDir), o.moveSource); err != nil {
		return nil, fmt.Errorf("staging imported content: %w", err)
	}

	priorHead := Head
	if existed {
		priorHead = existing.Head
	}
	if err := r.writeNewVersion(ctx, objectID, inv, stagingDir, Spec(""), priorHead); err != nil {
		return nil, err
	}
	return inv, nil
}

func readSourceInventory(sourceFS fs.FS, sourcePath string) (*Inventory, error) {
	body, err := fs.ReadFile(sourceFS, path.Join(sourcePath, inventoryFileName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", inventoryFileName, err)
	}
	inv := &Inventory{}
	if err := json.Unmarshal(body, inv); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", inventoryFileName, err)
	}
	return inv, nil
}

func hasMutableHeadDir(sourceFS fs.FS, sourcePath string) bool {
	_, err := fs.Stat(sourceFS, path.Join(sourcePath, "extensions", "0004-mutable-head", "head"))
	return err == nil
}

// verifyImportedVersionContent confirms every content file under the
// version directory is referenced by the manifest and its bytes match
// their recorded digest.
func verifyImportedVersionContent(ctx context.Context, sourceFS fs.FS, sourcePath string, inv *Inventory) error {
	contentDir := inv.ContentDirectory
	if contentDir == "" {
		contentDir = "content"
	}
	versionPrefix := path.Join(inv.Head.String(), contentDir)
	pathMap := inv.Manifest.PathMap()

	var bad []string
	walkRoot := path.Join(sourcePath, contentDir)
	err := fs.WalkDir(sourceFS, walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == walkRoot {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		fullContentPath := path.Join(versionPrefix, relPath(walkRoot, p))
		wantDigest, ok := pathMap[fullContentPath]
		if !ok {
			bad = append(bad, fullContentPath)
			return nil
		}
		f, err := sourceFS.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		sum, err := digest.Of(inv.DigestAlgorithm, f)
		if err != nil {
			return err
		}
		if sum != wantDigest {
			return fmt.Errorf("%s: %w", fullContentPath, ErrFixity)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(bad) > 0 {
		return &OcflStateError{Message: "content files with no manifest entry", Paths: bad}
	}
	return nil
}

// relPath returns p relative to base, both forward-slash io/fs paths.
func relPath(base, p string) string {
	if base == "." || base == "" {
		return p
	}
	return strings.TrimPrefix(p, base+"/")
}

// copyOrMoveTree copies every regular file under srcPath in srcFS to the
// same relative path under dstDir in dstFS. If move is true and srcFS
// supports it, each source file is removed once copied.
func copyOrMoveTree(ctx context.Context, srcFS fs.FS, srcPath string, dstFS ocflfs.WriteFS, dstDir string, move bool) error {
	return fs.WalkDir(srcFS, srcPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == srcPath {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := relPath(srcPath, p)
		f, err := srcFS.Open(p)
		if err != nil {
			return err
		}
		_, err = dstFS.Write(ctx, path.Join(dstDir, rel), f)
		f.Close()
		if err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
		if move {
			if rm, ok := srcFS.(removableSource); ok {
				return rm.Remove(p)
			}
		}
		return nil
	})
}

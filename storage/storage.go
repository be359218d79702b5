// Package storage implements ocfl.OcflStorage over a plain ocflfs.WriteFS
// root, laying objects out directly under the root using their id as the
// path (the 0002-flat-direct-storage-layout convention).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"sync"

	ocflfs "github.com/ocflgo/ocfl/fs"
	"github.com/ocflgo/ocfl/ocfl"
	"golang.org/x/sync/errgroup"
)

// copyConcurrency bounds how many files copyTree transfers at once.
const copyConcurrency = 4

// FSStorage is the default OcflStorage backend: objects live directly
// under root, named by their id as given, each an independent
// OCFL object root (NAMASTE declaration, inventory.json + sidecar,
// version directories).
type FSStorage struct {
	fsys ocflfs.WriteFS
	root string

	mu    sync.Mutex
	cache map[string]*ocfl.Inventory
}

// New returns an FSStorage rooted at root in fsys.
func New(fsys ocflfs.WriteFS, root string) *FSStorage {
	return &FSStorage{fsys: fsys, root: root, cache: map[string]*ocfl.Inventory{}}
}

// ObjectRootPath implements ocfl.OcflStorage using the flat-direct
// layout: the object id joined to the storage root. The id is neither
// escaped nor checked.
func (s *FSStorage) ObjectRootPath(objectID string) string {
	return path.Join(s.root, objectID)
}

// FS implements ocfl.FSBackend, exposing the underlying filesystem so the
// coordinator can open already-installed content directly.
func (s *FSStorage) FS() ocflfs.FS { return s.fsys }

func (s *FSStorage) LoadInventory(ctx context.Context, objectID string) (*ocfl.Inventory, error) {
	s.mu.Lock()
	if inv, ok := s.cache[objectID]; ok {
		s.mu.Unlock()
		return inv, nil
	}
	s.mu.Unlock()

	objRoot := s.ObjectRootPath(objectID)
	body, err := ocflfs.ReadAll(ctx, s.fsys, path.Join(objRoot, "inventory.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading inventory for %s: %w", objectID, err)
	}
	inv := &ocfl.Inventory{}
	if err := json.Unmarshal(body, inv); err != nil {
		return nil, fmt.Errorf("parsing inventory for %s: %w", objectID, err)
	}
	inv.SetObjectRootPath(objRoot)
	if _, err := ocflfs.StatFile(ctx, s.fsys, path.Join(objRoot, "extensions", "0004-mutable-head", "head", "inventory.json")); err == nil {
		inv.SetMutableHead(true)
	}

	s.mu.Lock()
	s.cache[objectID] = inv
	s.mu.Unlock()
	return inv, nil
}

func (s *FSStorage) ContainsObject(ctx context.Context, objectID string) (bool, error) {
	inv, err := s.LoadInventory(ctx, objectID)
	if err != nil {
		return false, err
	}
	return inv != nil, nil
}

// StoreNewVersion installs a version staged at stagingDir (a tree shaped
// exactly like the eventual "vN/" subdirectory, plus inventory.json and
// its sidecar at stagingDir's root) into the object root, writing the
// NAMASTE declaration first if the object's OCFL type just changed.
func (s *FSStorage) StoreNewVersion(ctx context.Context, inv *ocfl.Inventory, stagingDir string, upgradedSpec ocfl.Spec) error {
	objRoot := s.ObjectRootPath(inv.ID)
	newSpec := inv.Type.Spec
	if !upgradedSpec.Empty() {
		newSpec = upgradedSpec
	}
	prev, err := s.LoadInventory(ctx, inv.ID)
	if err != nil {
		return err
	}
	var oldSpec ocfl.Spec
	if prev != nil {
		oldSpec = prev.Type.Spec
	}
	if oldSpec != newSpec {
		if !oldSpec.Empty() {
			oldDecl := ocfl.Namaste{Type: ocfl.NamasteTypeObject, Version: oldSpec}
			if err := ocflfs.Remove(ctx, s.fsys, path.Join(objRoot, oldDecl.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("removing previous object declaration: %w", err)
			}
		}
		newDecl := ocfl.Namaste{Type: ocfl.NamasteTypeObject, Version: newSpec}
		if err := ocfl.WriteDeclaration(ctx, s.fsys, objRoot, newDecl); err != nil {
			return fmt.Errorf("writing object declaration: %w", err)
		}
	}
	contentDir := inv.ContentDirectory
	if contentDir == "" {
		contentDir = "content"
	}
	versionDir := path.Join(objRoot, inv.Head.String())
	if err := copyTree(ctx, s.fsys, path.Join(stagingDir, contentDir), s.fsys, path.Join(versionDir, contentDir)); err != nil {
		return fmt.Errorf("installing version content: %w", err)
	}
	for _, name := range []string{"inventory.json", "inventory.json." + inv.DigestAlgorithm} {
		for _, dst := range []string{objRoot, versionDir} {
			if _, err := ocflfs.Copy(ctx, s.fsys, path.Join(dst, name), s.fsys, path.Join(stagingDir, name)); err != nil {
				return fmt.Errorf("installing %s into %s: %w", name, dst, err)
			}
		}
	}
	s.InvalidateCache(inv.ID)
	return nil
}

func (s *FSStorage) RollbackToVersion(ctx context.Context, objectID string, v ocfl.VNum) error {
	inv, err := s.LoadInventory(ctx, objectID)
	if err != nil {
		return err
	}
	if inv == nil {
		return fmt.Errorf("object %s: %w", objectID, ocfl.ErrNotFound)
	}
	objRoot := s.ObjectRootPath(objectID)
	for _, vnum := range inv.VNums() {
		if vnum.Num() <= v.Num() {
			continue
		}
		if err := ocflfs.RemoveAll(ctx, s.fsys, path.Join(objRoot, vnum.String())); err != nil {
			return fmt.Errorf("removing version %s: %w", vnum, err)
		}
	}
	rolledBackDir := path.Join(objRoot, v.String())
	for _, name := range []string{"inventory.json", "inventory.json." + inv.DigestAlgorithm} {
		if _, err := ocflfs.Copy(ctx, s.fsys, path.Join(objRoot, name), s.fsys, path.Join(rolledBackDir, name)); err != nil {
			return fmt.Errorf("restoring %s from %s: %w", name, v, err)
		}
	}
	s.InvalidateCache(objectID)
	return nil
}

func (s *FSStorage) PurgeObject(ctx context.Context, objectID string) error {
	if err := ocflfs.RemoveAll(ctx, s.fsys, s.ObjectRootPath(objectID)); err != nil {
		return fmt.Errorf("purging %s: %w", objectID, err)
	}
	s.InvalidateCache(objectID)
	return nil
}

// ReconstructObjectVersion copies every logical file visible in version v
// of inv into outputDir, at its logical path.
func (s *FSStorage) ReconstructObjectVersion(ctx context.Context, inv *ocfl.Inventory, v ocfl.VNum, outputDir string) error {
	ver := inv.GetVersion(v)
	if ver == nil {
		return fmt.Errorf("version %s: %w", v, ocfl.ErrNotFound)
	}
	for digest, logicalPaths := range ver.State {
		contentPaths := inv.Manifest[digest]
		if len(contentPaths) == 0 {
			return fmt.Errorf("manifest entry missing for digest %s: %w", digest, ocfl.ErrInvalidState)
		}
		srcPath := path.Join(inv.ObjectRootPath(), contentPaths[0])
		for _, lp := range logicalPaths {
			if _, err := ocflfs.Copy(ctx, s.fsys, path.Join(outputDir, lp), s.fsys, srcPath); err != nil {
				return fmt.Errorf("reconstructing %s: %w", lp, err)
			}
		}
	}
	return nil
}

// GetObjectStreams returns a lazy opener per logical path visible in
// version v.
func (s *FSStorage) GetObjectStreams(ctx context.Context, inv *ocfl.Inventory, v ocfl.VNum) (map[string]ocfl.StreamOpener, error) {
	ver := inv.GetVersion(v)
	if ver == nil {
		return nil, fmt.Errorf("version %s: %w", v, ocfl.ErrNotFound)
	}
	out := make(map[string]ocfl.StreamOpener, ver.State.NumPaths())
	for digest, logicalPaths := range ver.State {
		contentPaths := inv.Manifest[digest]
		if len(contentPaths) == 0 {
			return nil, fmt.Errorf("manifest entry missing for digest %s: %w", digest, ocfl.ErrInvalidState)
		}
		srcPath := path.Join(inv.ObjectRootPath(), contentPaths[0])
		for _, lp := range logicalPaths {
			lp, srcPath := lp, srcPath
			out[lp] = func(ctx context.Context) (io.ReadCloser, error) {
				return s.fsys.OpenFile(ctx, srcPath)
			}
		}
	}
	return out, nil
}

func (s *FSStorage) ListObjectIDs(ctx context.Context, ids chan<- string) error {
	defer close(ids)
	dir := s.root
	if dir == "" {
		dir = "."
	}
	entries, err := ocflfs.DirEntries(ctx, s.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ids <- e.Name():
		}
	}
	return nil
}

func (s *FSStorage) ExportObject(ctx context.Context, objectID, outputDir string) error {
	return copyTree(ctx, s.fsys, s.ObjectRootPath(objectID), s.fsys, outputDir)
}

func (s *FSStorage) ExportVersion(ctx context.Context, objectID string, v ocfl.VNum, outputDir string) error {
	return copyTree(ctx, s.fsys, path.Join(s.ObjectRootPath(objectID), v.String()), s.fsys, outputDir)
}

// ImportObject installs stagingDir as a new object at objectID. Unlike
// StoreNewVersion's stagingDir (one version's content plus loose
// inventory files), ImportObject's stagingDir is already a complete,
// self-contained OCFL object tree (NAMASTE declaration, every version
// directory, root inventory.json), so it is copied whole.
func (s *FSStorage) ImportObject(ctx context.Context, objectID, stagingDir string) error {
	if ok, err := s.ContainsObject(ctx, objectID); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("object %s: %w", objectID, ocfl.ErrAlreadyExists)
	}
	if err := copyTree(ctx, s.fsys, stagingDir, s.fsys, s.ObjectRootPath(objectID)); err != nil {
		return fmt.Errorf("importing %s: %w", objectID, err)
	}
	s.InvalidateCache(objectID)
	return nil
}

// ValidateObject performs a minimal structural check; full OCFL
// conformance validation is out of this backend's scope.
func (s *FSStorage) ValidateObject(ctx context.Context, objectID string, contentFixityCheck bool) (ocfl.ValidationResults, error) {
	inv, err := s.LoadInventory(ctx, objectID)
	if err != nil {
		return ocfl.ValidationResults{}, err
	}
	if inv == nil {
		return ocfl.ValidationResults{Errors: []error{fmt.Errorf("object %s: %w", objectID, ocfl.ErrNotFound)}}, nil
	}
	var results ocfl.ValidationResults
	for _, p := range inv.Manifest.AllPaths() {
		if !contentFixityCheck {
			continue
		}
		if _, err := ocflfs.StatFile(ctx, s.fsys, path.Join(inv.ObjectRootPath(), p)); err != nil {
			results.Errors = append(results.Errors, fmt.Errorf("missing content file %s: %w", p, err))
		}
	}
	return results, nil
}

func (s *FSStorage) InvalidateCache(objectID string) {
	s.mu.Lock()
	delete(s.cache, objectID)
	s.mu.Unlock()
}

func (s *FSStorage) Close() error { return nil }

// copyTree recursively copies every regular file under srcDir in srcFS to
// the corresponding relative path under dstDir in dstFS, transferring up
// to copyConcurrency files at once.
func copyTree(ctx context.Context, srcFS ocflfs.FS, srcDir string, dstFS ocflfs.WriteFS, dstDir string) error {
	refs, err := ocflfs.WalkFiles(ctx, srcFS, srcDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(copyConcurrency)
	for _, ref := range refs {
		ref := ref
		grp.Go(func() error {
			dst := path.Join(dstDir, ref.Path)
			if _, err := ocflfs.Copy(ctx, dstFS, dst, srcFS, path.Join(srcDir, ref.Path)); err != nil {
				return fmt.Errorf("copying %s: %w", ref.Path, err)
			}
			return nil
		})
	}
	return grp.Wait()
}

var _ ocfl.OcflStorage = (*FSStorage)(nil)

package ocfl

import (
	"fmt"
	"path"
	"time"
)

// InventoryUpdater is a pure in-memory mutator over a draft version built
// from a source Inventory. It records additions, removals, renames, and
// reinstatements against a working state and the shared manifest, then
// materializes the result as a new Inventory.
type InventoryUpdater struct {
	source   *Inventory
	nextHead VNum

	manifest DigestMap // working copy of source.Manifest plus new entries
	state    DigestMap // working copy of the draft version's state

	// addedThisVersion tracks digest -> contentPath for manifest entries
	// created during this updater's lifetime, distinguishing them from
	// entries inherited from the source inventory (which earlier versions
	// still depend on and must never be deleted).
	addedThisVersion map[string]string

	mapper     ContentPathMapper
	contentDir string
	algorithm  string

	// fixity holds auxiliary digests recorded via AddFixity, keyed the
	// same way Inventory.Fixity is: algorithm -> digest -> contentPaths.
	fixity map[string]DigestMap

	// upgradedType is set by UpgradeInventory when an upgrade is pending;
	// BuildNewInventory consumes it.
	upgradedType Spec
}

// AddFileResult reports the outcome of addFile.
type AddFileResult struct {
	IsNew       bool
	ContentPath string // path relative to the object root, e.g. "v2/content/a.txt"
}

// NewInventoryUpdater builds an updater over source. If stateFrom is the
// zero VNum, the draft version starts with blank state (putObject
// semantics); otherwise it starts as a copy of stateFrom's state
// (updateObject / replicateVersionAsHead semantics).
func NewInventoryUpdater(source *Inventory, stateFrom VNum, mapper ContentPathMapper) (*InventoryUpdater, error) {
	if source == nil {
		return nil, fmt.Errorf("source inventory is required: %w", ErrInvalidInput)
	}
	next, err := source.Head.Next()
	if err != nil {
		return nil, fmt.Errorf("computing next version: %w", err)
	}
	var state DigestMap
	if stateFrom.IsZero() {
		state = DigestMap{}
	} else {
		ver := source.GetVersion(stateFrom)
		if ver == nil {
			return nil, fmt.Errorf("version %s: %w", stateFrom, ErrNotFound)
		}
		state = ver.State.Clone()
	}
	if mapper == nil {
		mapper = DefaultContentPathMapper
	}
	contentDir := source.ContentDirectory
	if contentDir == "" {
		contentDir = "content"
	}
	return &InventoryUpdater{
		source:           source,
		nextHead:         next,
		manifest:         source.Manifest.Clone(),
		state:            state,
		addedThisVersion: map[string]string{},
		mapper:           mapper,
		contentDir:       contentDir,
		algorithm:        source.DigestAlgorithm,
		fixity:           map[string]DigestMap{},
	}, nil
}

// ContentPathFor returns the manifest content path currently bound to
// logicalPath in the working state, or "" if logicalPath is not present.
func (u *InventoryUpdater) ContentPathFor(logicalPath string) string {
	digest := u.state.DigestFor(logicalPath)
	if digest == "" {
		return ""
	}
	if paths := u.manifest[digest]; len(paths) > 0 {
		return paths[0]
	}
	return ""
}

// AddFixity records an auxiliary digest, computed under a secondary
// algorithm, for the content currently bound to logicalPath.
func (u *InventoryUpdater) AddFixity(logicalPath, alg, digestVal string) error {
	contentPath := u.ContentPathFor(logicalPath)
	if contentPath == "" {
		return fmt.Errorf("%s: %w", logicalPath, ErrNotFound)
	}
	digestVal = normalizeDigest(digestVal)
	m, ok := u.fixity[alg]
	if !ok {
		m = DigestMap{}
		u.fixity[alg] = m
	}
	for _, p := range m[digestVal] {
		if p == contentPath {
			return nil
		}
	}
	m[digestVal] = append(m[digestVal], contentPath)
	return nil
}

// NextHead returns the version number the draft will become.
func (u *InventoryUpdater) NextHead() VNum { return u.nextHead }

// AddFile records logicalPath -> digest in the working state, allocating
// a new manifest content path if digest is not already present.
func (u *InventoryUpdater) AddFile(digest, logicalPath string, opts ...OcflOption) (AddFileResult, error) {
	if digest == "" || logicalPath == "" {
		return AddFileResult{}, fmt.Errorf("digest and logicalPath are required: %w", ErrInvalidInput)
	}
	o := buildOptions(opts...)
	if existing := u.state.DigestFor(logicalPath); existing != "" && !o.overwrite {
		return AddFileResult{}, fmt.Errorf("%s: %w", logicalPath, ErrPathAlreadyExists)
	}
	digest = normalizeDigest(digest)
	if paths, ok := u.manifest[digest]; ok && len(paths) > 0 {
		u.state.Mutate(RemovePath(logicalPath))
		u.state[digest] = append(u.state[digest], logicalPath)
		return AddFileResult{IsNew: false, ContentPath: paths[0]}, nil
	}
	innerPath, err := u.mapper(logicalPath)
	if err != nil {
		return AddFileResult{}, err
	}
	contentPath := path.Join(u.nextHead.String(), u.contentDir, innerPath)
	u.manifest[digest] = []string{contentPath}
	u.addedThisVersion[digest] = contentPath
	u.state.Mutate(RemovePath(logicalPath))
	u.state[digest] = append(u.state[digest], logicalPath)
	return AddFileResult{IsNew: true, ContentPath: contentPath}, nil
}

// RemoveFile removes logicalPath from the working state. If the digest
// it referenced was allocated by this updater and is now unused anywhere
// in the draft state, its manifest entry is dropped and the now-orphaned
// staged content path is returned so the caller can delete the file.
func (u *InventoryUpdater) RemoveFile(logicalPath string) (orphanedContentPath string, err error) {
	digest := u.state.DigestFor(logicalPath)
	if digest == "" {
		return "", fmt.Errorf("%s: %w", logicalPath, ErrNotFound)
	}
	u.state.Mutate(RemovePath(logicalPath))
	if len(u.state[digest]) > 0 {
		return "", nil
	}
	contentPath, addedHere := u.addedThisVersion[digest]
	if !addedHere {
		return "", nil
	}
	delete(u.manifest, digest)
	delete(u.addedThisVersion, digest)
	return contentPath, nil
}

// RenameFile moves a logical path's state entry from src to dst,
// preserving its digest and manifest binding.
func (u *InventoryUpdater) RenameFile(src, dst string, opts ...OcflOption) error {
	o := buildOptions(opts...)
	digest := u.state.DigestFor(src)
	if digest == "" {
		return fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	if existing := u.state.DigestFor(dst); existing != "" && !o.overwrite {
		return fmt.Errorf("%s: %w", dst, ErrPathAlreadyExists)
	}
	u.state.Mutate(RemovePath(src), RemovePath(dst))
	u.state[digest] = append(u.state[digest], dst)
	return nil
}

// ReinstateFile copies the digest binding for srcPath in srcVersion into
// the working state at dstPath.
func (u *InventoryUpdater) ReinstateFile(srcVersion VNum, srcPath, dstPath string, opts ...OcflOption) error {
	o := buildOptions(opts...)
	ver := u.source.GetVersion(srcVersion)
	if ver == nil {
		return fmt.Errorf("version %s: %w", srcVersion, ErrNotFound)
	}
	digest := ver.State.DigestFor(srcPath)
	if digest == "" {
		return fmt.Errorf("%s in version %s: %w", srcPath, srcVersion, ErrNotFound)
	}
	if existing := u.state.DigestFor(dstPath); existing != "" && !o.overwrite {
		return fmt.Errorf("%s: %w", dstPath, ErrPathAlreadyExists)
	}
	u.state.Mutate(RemovePath(dstPath))
	u.state[digest] = append(u.state[digest], dstPath)
	return nil
}

// ClearState empties the working state, leaving the manifest untouched.
func (u *InventoryUpdater) ClearState() {
	u.state = DigestMap{}
}

// UpgradeInventory raises the draft's OCFL type to cfg's default when the
// default is newer than the source inventory's current type and upgrades
// are enabled. It reports whether an upgrade occurred.
func (u *InventoryUpdater) UpgradeInventory(cfg OcflConfig) bool {
	if !cfg.UpgradeObjectsOnWrite {
		return false
	}
	target := cfg.defaultOcflType()
	current := u.source.Type.Spec
	if current.Empty() || target.Cmp(current) > 0 {
		u.upgradedType = target
		return true
	}
	return false
}

// BuildNewInventory materializes the working state as a new Version at
// NextHead and returns the finalized (not-yet-written) inventory.
func (u *InventoryUpdater) BuildNewInventory(created time.Time, message string, user *User) (*Inventory, error) {
	invType := u.source.Type
	if !u.upgradedType.Empty() {
		invType = u.upgradedType.InventoryType()
	}
	versions := make(map[VNum]*Version, len(u.source.Versions)+1)
	for v, ver := range u.source.Versions {
		versions[v] = ver
	}
	versions[u.nextHead] = &Version{
		Created: created.Truncate(time.Second),
		Message: message,
		User:    user,
		State:   u.state.Clone(),
	}
	fixity := make(map[string]DigestMap, len(u.source.Fixity)+len(u.fixity))
	for alg, m := range u.source.Fixity {
		fixity[alg] = m.Clone()
	}
	for alg, m := range u.fixity {
		merged, err := fixity[alg].Merge(m, false)
		if err != nil {
			return nil, fmt.Errorf("merging fixity for %s: %w", alg, err)
		}
		fixity[alg] = merged
	}
	return &Inventory{
		ID:               u.source.ID,
		Type:             invType,
		DigestAlgorithm:  u.algorithm,
		Head:             u.nextHead,
		ContentDirectory: u.contentDir,
		Fixity:           fixity,
		Manifest:         u.manifest.Clone(),
		Versions:         versions,
		objectRootPath:   u.source.objectRootPath,
	}, nil
}

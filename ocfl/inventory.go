package ocfl

import (
	"fmt"
	"time"
)

// Inventory is the in-memory, authoritative representation of an object's
// inventory.json. Field order matches the canonical on-disk key order:
// id, type, digestAlgorithm, head, contentDirectory, fixity, manifest,
// versions.
type Inventory struct {
	ID               string               `json:"id"`
	Type             InventoryType        `json:"type"`
	DigestAlgorithm  string               `json:"digestAlgorithm"`
	Head             VNum                 `json:"head"`
	ContentDirectory string               `json:"contentDirectory,omitempty"`
	Fixity           map[string]DigestMap `json:"fixity,omitempty"`
	Manifest         DigestMap            `json:"manifest"`
	Versions         map[VNum]*Version    `json:"versions"`

	// inventoryDigest is the digest of the serialized inventory, computed
	// by WriteInventory. Not serialized.
	inventoryDigest string
	// objectRootPath is where the object lives in the storage backend.
	// Not serialized; carried on the in-memory handle only.
	objectRootPath string
	// mutableHead and revisionNum describe an in-progress, unpublished
	// HEAD under the mutable-head extension. Not serialized onto the
	// top-level inventory struct (the extension keeps its own inventory
	// copy under extensions/0004-mutable-head/head/).
	mutableHead bool
	revisionNum VNum
}

// Version is a single version's metadata and logical state.
type Version struct {
	Created time.Time `json:"created"`
	Message string    `json:"message,omitempty"`
	User    *User     `json:"user,omitempty"`
	State   DigestMap `json:"state"`
}

// User identifies the author of a version.
type User struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// InventoryDigest returns the digest computed the last time the inventory
// was written by WriteInventory, or "" if WriteInventory has not set it.
// The repository's concurrency check compares head versions, not this
// digest.
func (inv *Inventory) InventoryDigest() string { return inv.inventoryDigest }

// ObjectRootPath returns the object's location in the storage backend.
func (inv *Inventory) ObjectRootPath() string { return inv.objectRootPath }

// SetObjectRootPath records where inv lives in the storage backend. Called
// by OcflStorage implementations after loading or placing an object,
// since the field is not part of the serialized inventory.
func (inv *Inventory) SetObjectRootPath(p string) { inv.objectRootPath = p }

// HasMutableHead reports whether inv has an in-progress mutable HEAD.
func (inv *Inventory) HasMutableHead() bool { return inv.mutableHead }

// SetMutableHead records whether inv's object root carries an in-progress
// mutable-HEAD extension directory. Called by OcflStorage implementations
// after loading, since the flag is derived from the object root's layout
// rather than the serialized inventory itself.
func (inv *Inventory) SetMutableHead(v bool) { inv.mutableHead = v }

// GetVersion returns the version numbered v, or the head version if v is
// the zero VNum. Returns nil if no such version exists.
func (inv *Inventory) GetVersion(v VNum) *Version {
	if inv.Versions == nil {
		return nil
	}
	if v.IsZero() {
		return inv.Versions[inv.Head]
	}
	return inv.Versions[v]
}

// VNums returns the inventory's version numbers in ascending order.
func (inv *Inventory) VNums() VNums {
	out := make(VNums, 0, len(inv.Versions))
	for v := range inv.Versions {
		out = append(out, v)
	}
	sort := VNums(out)
	sortVNums(sort)
	return sort
}

func sortVNums(vs VNums) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j-1].num > vs[j].num; j-- {
			vs[j-1], vs[j] = vs[j], vs[j-1]
		}
	}
}

// ContentPathsFor returns the manifest content paths bound to the digest
// recorded for logicalPath in version v (head, if v is zero).
func (inv *Inventory) ContentPathsFor(v VNum, logicalPath string) ([]string, error) {
	ver := inv.GetVersion(v)
	if ver == nil {
		return nil, fmt.Errorf("version %s: %w", v, ErrNotFound)
	}
	digest := ver.State.DigestFor(logicalPath)
	if digest == "" {
		return nil, fmt.Errorf("%s: %w", logicalPath, ErrNotFound)
	}
	paths := inv.Manifest[digest]
	if len(paths) == 0 {
		return nil, fmt.Errorf("manifest entry missing for digest %s: %w", digest, ErrInvalidState)
	}
	return paths, nil
}

// newStubInventory builds the v0 placeholder inventory putObject starts
// from when no object currently exists at the given id.
func newStubInventory(id string, cfg OcflConfig) *Inventory {
	return &Inventory{
		ID:               id,
		Type:             cfg.defaultOcflType().InventoryType(),
		DigestAlgorithm:  cfg.defaultDigestAlg(),
		ContentDirectory: cfg.defaultContentDir(),
		Manifest:         DigestMap{},
		Versions:         map[VNum]*Version{},
	}
}

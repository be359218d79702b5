// Package validation provides a minimal structural OcflStorage-external
// validator: the NAMASTE declaration, version sequence, inventory sidecar
// digests, and manifest-to-content closure a caller can check without a
// full OCFL conformance suite. It implements ocfl.Validator, the
// injectable collaborator Repository.ImportObject/ExportObject/
// ExportVersion call unless NO_VALIDATION is given.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/ocflgo/ocfl/digest"
	"github.com/ocflgo/ocfl/ocfl"
)

// StructuralValidator checks an object or version tree's shape without
// attempting full OCFL conformance validation: NAMASTE declaration
// present and well-formed, an unbroken v1..head version sequence, every
// inventory's sidecar digest matching its bytes, and every manifest
// entry resolving to a content file that actually exists. Set
// ContentFixityCheck to also re-digest every manifest entry's bytes,
// which is the expensive, complete version of the last check.
type StructuralValidator struct {
	ContentFixityCheck bool
}

// ValidatePath implements ocfl.Validator.
func (v StructuralValidator) ValidatePath(ctx context.Context, sourceFS fs.FS, root string) (ocfl.ValidationResults, error) {
	var results ocfl.ValidationResults
	fail := func(format string, args ...any) {
		results.Errors = append(results.Errors, fmt.Errorf(format, args...))
	}

	entries, err := fs.ReadDir(sourceFS, root)
	if err != nil {
		return results, fmt.Errorf("reading %s: %w", root, err)
	}
	if decl, err := ocfl.FindNamaste(entries); err != nil {
		fail("%s: %w", root, err)
	} else if err := v.checkDeclaration(sourceFS, root, decl); err != nil {
		fail("%s: %w", root, err)
	}

	inv, err := v.readInventory(sourceFS, path.Join(root, "inventory.json"))
	if err != nil {
		fail("root inventory.json: %w", err)
		return results, nil
	}
	if err := v.checkSidecar(sourceFS, root, "inventory.json", inv); err != nil {
		fail("%v", err)
	}

	vnums := inv.VNums()
	if err := vnums.Valid(); err != nil {
		fail("version sequence: %w", err)
	}
	for _, vn := range vnums {
		verDir := path.Join(root, vn.String())
		if _, err := fs.Stat(sourceFS, verDir); err != nil {
			fail("version %s: %w", vn, err)
			continue
		}
		verInv, err := v.readInventory(sourceFS, path.Join(verDir, "inventory.json"))
		if err != nil {
			// A non-head version directory may legitimately lack its own
			// copy of the inventory in some layouts; only the sidecar
			// check runs when a copy is present.
			continue
		}
		if err := v.checkSidecar(sourceFS, verDir, "inventory.json", verInv); err != nil {
			fail("%v", err)
		}
	}

	v.checkManifestClosure(sourceFS, root, inv, fail)
	return results, nil
}

func (v StructuralValidator) checkDeclaration(sourceFS fs.FS, root string, decl ocfl.Namaste) error {
	body, err := fs.ReadFile(sourceFS, path.Join(root, decl.Name()))
	if err != nil {
		return fmt.Errorf("reading %s: %w", decl.Name(), err)
	}
	if string(body) != decl.Body() {
		return fmt.Errorf("%s: %w", decl.Name(), ocfl.ErrNamasteContents)
	}
	return nil
}

func (v StructuralValidator) readInventory(sourceFS fs.FS, p string) (*ocfl.Inventory, error) {
	body, err := fs.ReadFile(sourceFS, p)
	if err != nil {
		return nil, err
	}
	inv := &ocfl.Inventory{}
	if err := json.Unmarshal(body, inv); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	return inv, nil
}

func (v StructuralValidator) checkSidecar(sourceFS fs.FS, dir, invName string, inv *ocfl.Inventory) error {
	body, err := fs.ReadFile(sourceFS, path.Join(dir, invName))
	if err != nil {
		return fmt.Errorf("reading %s: %w", invName, err)
	}
	sidecarName := invName + "." + inv.DigestAlgorithm
	sidecar, err := fs.ReadFile(sourceFS, path.Join(dir, sidecarName))
	if err != nil {
		return fmt.Errorf("reading %s: %w", sidecarName, err)
	}
	fields := strings.Fields(string(sidecar))
	if len(fields) == 0 {
		return fmt.Errorf("%s: empty sidecar", sidecarName)
	}
	sum, err := digest.Of(inv.DigestAlgorithm, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("digesting %s: %w", invName, err)
	}
	if sum != fields[0] {
		return fmt.Errorf("%s: sidecar digest %s does not match inventory contents (got %s): %w",
			sidecarName, fields[0], sum, ocfl.ErrFixity)
	}
	return nil
}

func (v StructuralValidator) checkManifestClosure(sourceFS fs.FS, root string, inv *ocfl.Inventory, fail func(string, ...any)) {
	for digestVal, paths := range inv.Manifest {
		for _, p := range paths {
			full := path.Join(root, p)
			f, err := sourceFS.Open(full)
			if err != nil {
				fail("manifest entry %s (%s): %w", p, digestVal, err)
				continue
			}
			if !v.ContentFixityCheck {
				f.Close()
				continue
			}
			sum, err := digest.Of(inv.DigestAlgorithm, f)
			f.Close()
			if err != nil {
				fail("digesting %s: %w", p, err)
				continue
			}
			if sum != digestVal {
				fail("content %s: digest mismatch (manifest says %s, computed %s): %w", p, digestVal, sum, ocfl.ErrFixity)
			}
		}
	}
}

package ocfl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	ocflfs "github.com/ocflgo/ocfl/fs"
)

// OcflStateError reports a VerifyStagedContent failure, carrying every
// offending path so the caller can report them all at once.
type OcflStateError struct {
	Message string
	Paths   []string
}

func (e *OcflStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Paths, ", "))
}

// VerifyStagedContent cross-checks a staged version directory against the
// inventory that is about to be written for it. It confirms:
//   - every staged file has a manifest entry at its full content path
//   - that entry's digest is referenced by head's state (not orphaned)
//   - every manifest entry expected under this version has a staged file
func VerifyStagedContent(ctx context.Context, stagingFS ocflfs.FS, stagingDir string, inv *Inventory) error {
	head := inv.Head
	contentDir := inv.ContentDirectory
	if contentDir == "" {
		contentDir = "content"
	}
	versionContentPrefix := path.Join(head.String(), contentDir)

	refs, err := ocflfs.WalkFiles(ctx, stagingFS, path.Join(stagingDir, contentDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("walking staged content: %w", err)
	}
	stagedContentPaths := make(map[string]bool, len(refs))
	for _, ref := range refs {
		stagedContentPaths[path.Join(versionContentPrefix, ref.Path)] = true
	}

	pathMap := inv.Manifest.PathMap()
	var referenced map[string]bool
	if headVer := inv.GetVersion(head); headVer != nil {
		referenced = map[string]bool{}
		for digest := range headVer.State {
			referenced[digest] = true
		}
	}

	var unmanifested []string
	for cp := range stagedContentPaths {
		digest, ok := pathMap[cp]
		if !ok {
			unmanifested = append(unmanifested, cp)
			continue
		}
		if referenced != nil && !referenced[digest] {
			unmanifested = append(unmanifested, cp)
		}
	}
	if len(unmanifested) > 0 {
		sort.Strings(unmanifested)
		return &OcflStateError{Message: "staged files with no corresponding live manifest entry", Paths: unmanifested}
	}

	var missing []string
	for cp := range pathMap {
		if !strings.HasPrefix(cp, versionContentPrefix+"/") {
			continue
		}
		if !stagedContentPaths[cp] {
			missing = append(missing, cp)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &OcflStateError{Message: "manifest entries missing staged content", Paths: missing}
	}
	return nil
}

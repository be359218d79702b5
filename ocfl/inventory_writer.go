package ocfl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ocflgo/ocfl/digest"
	ocflfs "github.com/ocflgo/ocfl/fs"
)

const inventoryFileName = "inventory.json"

// WriteInventory marshals inv to canonical JSON and writes it, plus its
// digest sidecar, to every directory in dirs (typically the object root
// and the new version directory, which both carry identical copies). The
// returned Inventory has inventoryDigest populated from the write.
func WriteInventory(ctx context.Context, fsys ocflfs.WriteFS, inv *Inventory, dirs ...string) (*Inventory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	digester, err := digest.New(inv.DigestAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("writing inventory: %w", err)
	}
	body, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding inventory: %w", err)
	}
	if _, err := io.Copy(digester, bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("digesting inventory: %w", err)
	}
	sum := digester.String()
	sidecar := sum + "  " + inventoryFileName + "\n"
	for _, dir := range dirs {
		invPath := path.Join(dir, inventoryFileName)
		if _, err := fsys.Write(ctx, invPath, bytes.NewReader(body)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", invPath, err)
		}
		sidePath := invPath + "." + inv.DigestAlgorithm
		if _, err := fsys.Write(ctx, sidePath, strings.NewReader(sidecar)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", sidePath, err)
		}
	}
	inv.inventoryDigest = sum
	return inv, nil
}

package ocfl_test

import (
	"context"
	"path"
	"strings"
	"testing"
	"time"

	ocflfs "github.com/ocflgo/ocfl/fs"
	"github.com/ocflgo/ocfl/fs/local"
	"github.com/ocflgo/ocfl/ocfl"
)

func TestWriteInventory(t *testing.T) {
	staging, err := local.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := blankInventory("obj-1")
	u, err := ocfl.NewInventoryUpdater(src, ocfl.Head, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := u.AddFile("abc123", "a.txt"); err != nil {
		t.Fatal(err)
	}
	inv, err := u.BuildNewInventory(time.Now(), "init", &ocfl.User{Name: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	written, err := ocfl.WriteInventory(ctx, staging, inv, "", "v1")
	if err != nil {
		t.Fatal(err)
	}
	if written.InventoryDigest() == "" {
		t.Fatal("expected inventoryDigest to be populated")
	}

	for _, dir := range []string{"", "v1"} {
		body, err := ocflfs.ReadAll(ctx, staging, path.Join(dir, "inventory.json"))
		if err != nil {
			t.Fatalf("reading inventory.json in %q: %v", dir, err)
		}
		if !strings.Contains(string(body), `"id": "obj-1"`) {
			t.Fatalf("unexpected inventory body in %q: %s", dir, body)
		}
		side, err := ocflfs.ReadAll(ctx, staging, path.Join(dir, "inventory.json.sha512"))
		if err != nil {
			t.Fatalf("reading sidecar in %q: %v", dir, err)
		}
		if !strings.HasSuffix(string(side), "  inventory.json\n") {
			t.Fatalf("unexpected sidecar format in %q: %q", dir, side)
		}
		if !strings.HasPrefix(string(side), written.InventoryDigest()) {
			t.Fatalf("sidecar digest mismatch in %q: %q", dir, side)
		}
	}
}

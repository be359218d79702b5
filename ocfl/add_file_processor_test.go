package ocfl_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/ocflgo/ocfl/fs/local"
	"github.com/ocflgo/ocfl/ocfl"
)

// removableDirFS wraps os.DirFS with a Remove method, the capability
// AddFileProcessor looks for when MOVE_SOURCE is requested.
type removableDirFS struct {
	fs.FS
	root string
}

func (r removableDirFS) Remove(name string) error {
	return os.Remove(filepath.Join(r.root, filepath.FromSlash(name)))
}

func newProcessor(t *testing.T) (*ocfl.AddFileProcessor, *local.FS) {
	t.Helper()
	staging, err := local.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := blankInventory("obj-1")
	u, err := ocfl.NewInventoryUpdater(src, ocfl.Head, nil)
	if err != nil {
		t.Fatal(err)
	}
	return &ocfl.AddFileProcessor{
		Updater:    u,
		Locker:     ocfl.NewFileLocker(0),
		StagingFS:  staging,
		StagingDir: "",
		Algorithm:  "sha512",
	}, staging
}

func TestAddFileProcessorCopyMode(t *testing.T) {
	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, staging := newProcessor(t)
	added, err := p.ProcessTree(context.Background(), os.DirFS(srcDir), ".", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 1 || added[0].LogicalPath != "a.txt" {
		t.Fatalf("got %v", added)
	}
	if _, err := os.Stat(filepath.Join(srcDir, "a.txt")); err != nil {
		t.Fatal("copy mode must leave the source file in place")
	}
	if _, err := staging.OpenFile(context.Background(), added[0].StagedPath); err != nil {
		t.Fatalf("staged file missing: %v", err)
	}
}

func TestAddFileProcessorMoveMode(t *testing.T) {
	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, staging := newProcessor(t)
	source := removableDirFS{FS: os.DirFS(srcDir), root: srcDir}
	added, err := p.ProcessTree(context.Background(), source, ".", "", ocfl.MOVE_SOURCE())
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 1 {
		t.Fatalf("got %v", added)
	}
	if _, err := os.Stat(filepath.Join(srcDir, "a.txt")); !os.IsNotExist(err) {
		t.Fatal("move mode must remove the source file once staged")
	}
	if _, err := staging.OpenFile(context.Background(), added[0].StagedPath); err != nil {
		t.Fatalf("staged file missing: %v", err)
	}
}

func TestAddFileProcessorMoveModeDuplicateLeavesSourceAlone(t *testing.T) {
	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "b.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, _ := newProcessor(t)
	source := removableDirFS{FS: os.DirFS(srcDir), root: srcDir}
	ctx := context.Background()
	if _, err := p.ProcessTree(ctx, source, "a.txt", "a.txt", ocfl.MOVE_SOURCE()); err != nil {
		t.Fatal(err)
	}
	added, err := p.ProcessTree(ctx, source, "b.txt", "b.txt", ocfl.MOVE_SOURCE())
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 0 {
		t.Fatalf("duplicate digest should not be reported as added, got %v", added)
	}
	if _, err := os.Stat(filepath.Join(srcDir, "b.txt")); err != nil {
		t.Fatal("duplicate source file must be left for the caller to clean up")
	}
}

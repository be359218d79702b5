package ocfl_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ocflgo/ocfl/fs/local"
	"github.com/ocflgo/ocfl/ocfl"
)

func newTestObjectUpdater(t *testing.T) (*ocfl.ObjectUpdater, *ocfl.InventoryUpdater) {
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
	ou := ocfl.NewObjectUpdater(u, ocfl.NewFileLocker(0), staging, "", staging, "")
	return ou, u
}

func TestObjectUpdaterWriteAndReadFile(t *testing.T) {
	ou, _ := newTestObjectUpdater(t)
	ctx := context.Background()
	res, err := ou.WriteFile(ctx, bytes.NewBufferString("hello"), "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsNew {
		t.Fatal("expected new content")
	}
	rc, err := ou.ReadFile(ctx, "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestObjectUpdaterRemoveFile(t *testing.T) {
	ou, _ := newTestObjectUpdater(t)
	ctx := context.Background()
	if _, err := ou.WriteFile(ctx, bytes.NewBufferString("hello"), "a.txt"); err != nil {
		t.Fatal(err)
	}
	if err := ou.RemoveFile(ctx, "a.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := ou.ReadFile(ctx, "a.txt"); !errors.Is(err, ocfl.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestObjectUpdaterAddFileWithDigestRequiresExisting(t *testing.T) {
	ou, _ := newTestObjectUpdater(t)
	if _, err := ou.AddFileWithDigest("deadbeef", "a.txt"); !errors.Is(err, ocfl.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestObjectUpdaterAddFileWithDigestDedup(t *testing.T) {
	ou, _ := newTestObjectUpdater(t)
	ctx := context.Background()
	if _, err := ou.WriteFile(ctx, bytes.NewBufferString("hello"), "a.txt"); err != nil {
		t.Fatal(err)
	}
	const helloSHA512 = "9b71d224bd62f3785d96d46ad3ea3d73319bfbc2890caadae2dff72519673ca72323c3d99ba5c11d7c7acc6e14b8c5da0c4663475c2e5c3adef46f73bcdec043"
	if _, err := ou.AddFileWithDigest(helloSHA512, "b.txt"); err != nil {
		t.Fatal(err)
	}
}

func TestObjectUpdaterAddFileFixity(t *testing.T) {
	ou, u := newTestObjectUpdater(t)
	ctx := context.Background()
	if _, err := ou.WriteFile(ctx, bytes.NewBufferString("hello"), "a.txt"); err != nil {
		t.Fatal(err)
	}
	if err := ou.AddFileFixity("a.txt", "md5", "5d41402abc4b2a76b9719d911017c592"); err != nil {
		t.Fatal(err)
	}
	inv, err := u.BuildNewInventory(time.Now(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.Fixity["md5"]) != 1 {
		t.Fatalf("expected one md5 fixity entry, got %v", inv.Fixity)
	}
}

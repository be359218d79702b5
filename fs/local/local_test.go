package local_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/ocflgo/ocfl/fs/local"
)

func TestWriteReadRemove(t *testing.T) {
	ctx := context.Background()
	lfs, err := local.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lfs.Write(ctx, "a/b.txt", strings.NewReader("hello")); err != nil {
		t.Fatal(err)
	}
	f, err := lfs.OpenFile(ctx, "a/b.txt")
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}
	entries, err := lfs.DirEntries(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "b.txt" {
		t.Fatalf("unexpected entries: %v", entries)
	}
	if err := lfs.Remove(ctx, "a/b.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := lfs.OpenFile(ctx, "a/b.txt"); err == nil {
		t.Fatal("expected error after remove")
	}
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	lfs, err := local.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lfs.Write(ctx, "src.txt", strings.NewReader("copy-me")); err != nil {
		t.Fatal(err)
	}
	if _, err := lfs.Copy(ctx, "dst.txt", "src.txt"); err != nil {
		t.Fatal(err)
	}
	f, err := lfs.OpenFile(ctx, "dst.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "copy-me" {
		t.Fatalf("got %q", got)
	}
}

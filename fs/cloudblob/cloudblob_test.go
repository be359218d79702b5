package cloudblob_test

import (
	"context"
	"io"
	"strings"
	"testing"

	ocflfs "github.com/ocflgo/ocfl/fs"
	"github.com/ocflgo/ocfl/fs/cloudblob"
	_ "gocloud.dev/blob/memblob"
)

func TestWriteReadRemove(t *testing.T) {
	ctx := context.Background()
	bfs, err := cloudblob.Open(ctx, "mem://")
	if err != nil {
		t.Fatal(err)
	}
	defer bfs.Close()

	if _, err := bfs.Write(ctx, "a/b.txt", strings.NewReader("hello")); err != nil {
		t.Fatal(err)
	}
	f, err := bfs.OpenFile(ctx, "a/b.txt")
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

	entries, err := ocflfs.DirEntries(ctx, bfs, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "b.txt" {
		t.Fatalf("unexpected entries: %v", entries)
	}

	if err := bfs.Remove(ctx, "a/b.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := bfs.OpenFile(ctx, "a/b.txt"); err == nil {
		t.Fatal("expected error after remove")
	}
}

func TestRemoveAll(t *testing.T) {
	ctx := context.Background()
	bfs, err := cloudblob.Open(ctx, "mem://")
	if err != nil {
		t.Fatal(err)
	}
	defer bfs.Close()
	for _, name := range []string{"dir/a.txt", "dir/b.txt", "dir/sub/c.txt"} {
		if _, err := bfs.Write(ctx, name, strings.NewReader("x")); err != nil {
			t.Fatal(err)
		}
	}
	if err := bfs.RemoveAll(ctx, "dir"); err != nil {
		t.Fatal(err)
	}
	if _, err := bfs.OpenFile(ctx, "dir/a.txt"); err == nil {
		t.Fatal("expected files to be gone after RemoveAll")
	}
}

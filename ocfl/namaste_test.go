package ocfl_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ocflgo/ocfl/fs/local"
	"github.com/ocflgo/ocfl/ocfl"
)

func TestParseNamaste(t *testing.T) {
	cases := map[string]ocfl.Namaste{
		"0=ocfl_1.0":        {Type: "ocfl", Version: "1.0"},
		"0=ocfl_object_1.0": {Type: "ocfl_object", Version: "1.0"},
		"1=ocfl_1.0":        {},
		"0=AB_1":            {},
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := ocfl.ParseNamaste(in)
			if want.Type == "" {
				if err == nil {
					t.Fatalf("expected error parsing %q", in)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Fatalf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestValidateNamaste(t *testing.T) {
	ctx := context.Background()
	lfs, err := local.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dec := ocfl.Namaste{Type: "ocfl", Version: "1.0"}
	if err := ocfl.WriteDeclaration(ctx, lfs, ".", dec); err != nil {
		t.Fatal(err)
	}
	if err := ocfl.ValidateNamaste(ctx, lfs, dec.Name()); err != nil {
		t.Fatal(err)
	}

	entries, err := lfs.DirEntries(ctx, ".")
	if err != nil {
		t.Fatal(err)
	}
	found, err := ocfl.FindNamaste(entries)
	if err != nil {
		t.Fatal(err)
	}
	if found != dec {
		t.Fatalf("got %+v, want %+v", found, dec)
	}
}

func TestValidateNamasteBadContents(t *testing.T) {
	ctx := context.Background()
	lfs, err := local.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lfs.Write(ctx, "0=ocfl_1.0", strings.NewReader("not the right contents")); err != nil {
		t.Fatal(err)
	}
	if err := ocfl.ValidateNamaste(ctx, lfs, "0=ocfl_1.0"); err == nil {
		t.Fatal("expected error for mismatched declaration contents")
	}
}

package digest_test

import (
	"strings"
	"testing"

	"github.com/ocflgo/ocfl/digest"
)

func TestOf(t *testing.T) {
	got, err := digest.Of(digest.SHA256, strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestOfUnknownAlg(t *testing.T) {
	if _, err := digest.Of("not-an-alg", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestRegisterAlg(t *testing.T) {
	digest.RegisterAlg("reverse-md5", func() digest.Digester {
		return &reverseDigester{}
	})
	d, err := digest.New("reverse-md5")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Write([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if got, want := d.String(), "cba"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

// reverseDigester is a toy Digester used only to exercise RegisterAlg.
type reverseDigester struct{ buf []byte }

func (r *reverseDigester) Write(p []byte) (int, error) {
	r.buf = append(r.buf, p...)
	return len(p), nil
}

func (r *reverseDigester) String() string {
	out := make([]byte, len(r.buf))
	for i, b := range r.buf {
		out[len(out)-1-i] = b
	}
	return string(out)
}

func TestSetValidate(t *testing.T) {
	sum, err := digest.Of(digest.SHA256, strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	set := digest.Set{digest.SHA256: sum}
	if err := set.Validate(strings.NewReader("hello")); err != nil {
		t.Fatalf("expected valid digest, got %v", err)
	}
	if err := set.Validate(strings.NewReader("goodbye")); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestSetConflictWith(t *testing.T) {
	a := digest.Set{"sha256": "aa", "sha512": "bb"}
	b := digest.Set{"sha256": "AA", "sha512": "cc"}
	conflicts := a.ConflictWith(b)
	if len(conflicts) != 1 || conflicts[0] != "sha512" {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
}
